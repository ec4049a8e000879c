package memory

import (
	"context"
	"time"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type doctorRepository struct {
	s *Store
}

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	defer r.s.lock()()
	d := r.s.data()

	now := time.Now().UTC()
	doctor.ID = d.next("doctors")
	doctor.CreatedAt = now
	doctor.UpdatedAt = now
	d.doctors[doctor.ID] = *doctor
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id int64) (*model.Doctor, error) {
	defer r.s.lock()()

	doctor, ok := r.s.data().doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	defer r.s.lock()()
	d := r.s.data()

	existing, ok := d.doctors[doctor.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, other := range d.doctors {
		if id != doctor.ID && other.Email == doctor.Email {
			return repository.ErrDuplicate
		}
	}
	if doctor.SpecialtyID != nil {
		if _, ok := d.specialties[*doctor.SpecialtyID]; !ok {
			return repository.ErrInvalidReference
		}
	}
	if doctor.HealthInstitutionID != nil {
		if _, ok := d.institutions[*doctor.HealthInstitutionID]; !ok {
			return repository.ErrInvalidReference
		}
	}
	doctor.CreatedAt = existing.CreatedAt
	doctor.UpdatedAt = time.Now().UTC()
	d.doctors[doctor.ID] = *doctor
	return nil
}
