package memory

import (
	"context"
	"sort"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type referenceRepository struct {
	s *Store
}

func (r *referenceRepository) CreateSpecialty(ctx context.Context, specialty *model.Specialty) error {
	defer r.s.lock()()
	d := r.s.data()

	specialty.ID = d.next("specialties")
	d.specialties[specialty.ID] = *specialty
	return nil
}

func (r *referenceRepository) ListSpecialties(ctx context.Context) ([]*model.Specialty, error) {
	defer r.s.lock()()

	out := []*model.Specialty{}
	for _, sp := range r.s.data().specialties {
		c := sp
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (r *referenceRepository) CreateInstitution(ctx context.Context, institution *model.HealthInstitution) error {
	defer r.s.lock()()
	d := r.s.data()

	institution.ID = d.next("health_institutions")
	d.institutions[institution.ID] = *institution
	return nil
}

func (r *referenceRepository) GetInstitution(ctx context.Context, id int64) (*model.HealthInstitution, error) {
	defer r.s.lock()()

	inst, ok := r.s.data().institutions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &inst, nil
}
