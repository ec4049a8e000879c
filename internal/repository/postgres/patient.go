package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type patientRepository struct {
	BaseRepository
}

const patientColumns = `id, first_name, last_name, email, phone, address, age, photo_url,
	password_hash, created_at, updated_at`

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (
			first_name, last_name, email, phone, address, age, photo_url,
			password_hash, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	now := time.Now().UTC()
	patient.CreatedAt = now
	patient.UpdatedAt = now

	err := r.db.QueryRowxContext(ctx, query,
		patient.FirstName,
		patient.LastName,
		patient.Email,
		patient.Phone,
		patient.Address,
		patient.Age,
		patient.PhotoURL,
		patient.PasswordHash,
		patient.CreatedAt,
		patient.UpdatedAt,
	).Scan(&patient.ID)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id int64) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`

	var patient model.Patient
	if err := r.get(ctx, &patient, repository.ErrNotFound, "get patient", query, id); err != nil {
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients
		SET first_name = $1, last_name = $2, email = $3, phone = $4, address = $5,
			age = $6, photo_url = $7, password_hash = $8, updated_at = $9
		WHERE id = $10
	`
	patient.UpdatedAt = time.Now().UTC()

	return requireAffected(r.execAffecting(ctx, "update patient", query,
		patient.FirstName,
		patient.LastName,
		patient.Email,
		patient.Phone,
		patient.Address,
		patient.Age,
		patient.PhotoURL,
		patient.PasswordHash,
		patient.UpdatedAt,
		patient.ID,
	))
}
