package memory

import (
	"context"
	"time"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type patientRepository struct {
	s *Store
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	defer r.s.lock()()
	d := r.s.data()

	now := time.Now().UTC()
	patient.ID = d.next("patients")
	patient.CreatedAt = now
	patient.UpdatedAt = now
	d.patients[patient.ID] = *patient
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id int64) (*model.Patient, error) {
	defer r.s.lock()()

	patient, ok := r.s.data().patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	defer r.s.lock()()
	d := r.s.data()

	existing, ok := d.patients[patient.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, other := range d.patients {
		if id != patient.ID && other.Email == patient.Email {
			return repository.ErrDuplicate
		}
	}
	patient.CreatedAt = existing.CreatedAt
	patient.UpdatedAt = time.Now().UTC()
	d.patients[patient.ID] = *patient
	return nil
}
