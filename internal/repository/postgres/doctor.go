package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type doctorRepository struct {
	BaseRepository
}

const doctorColumns = `id, first_name, last_name, email, phone, address, photo_url,
	contact_email, contact_phone, specialty_id, health_institution_id, password_hash,
	created_at, updated_at`

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (
			first_name, last_name, email, phone, address, photo_url,
			contact_email, contact_phone, specialty_id, health_institution_id,
			password_hash, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	now := time.Now().UTC()
	doctor.CreatedAt = now
	doctor.UpdatedAt = now

	err := r.db.QueryRowxContext(ctx, query,
		doctor.FirstName,
		doctor.LastName,
		doctor.Email,
		doctor.Phone,
		doctor.Address,
		doctor.PhotoURL,
		doctor.ContactEmail,
		doctor.ContactPhone,
		doctor.SpecialtyID,
		doctor.HealthInstitutionID,
		doctor.PasswordHash,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	).Scan(&doctor.ID)
	if err != nil {
		return fmt.Errorf("failed to create doctor: %w", err)
	}
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id int64) (*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE id = $1`

	var doctor model.Doctor
	if err := r.get(ctx, &doctor, repository.ErrNotFound, "get doctor", query, id); err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	query := `
		UPDATE doctors
		SET first_name = $1, last_name = $2, email = $3, phone = $4, address = $5,
			photo_url = $6, contact_email = $7, contact_phone = $8, specialty_id = $9,
			health_institution_id = $10, password_hash = $11, updated_at = $12
		WHERE id = $13
	`
	doctor.UpdatedAt = time.Now().UTC()

	return requireAffected(r.execAffecting(ctx, "update doctor", query,
		doctor.FirstName,
		doctor.LastName,
		doctor.Email,
		doctor.Phone,
		doctor.Address,
		doctor.PhotoURL,
		doctor.ContactEmail,
		doctor.ContactPhone,
		doctor.SpecialtyID,
		doctor.HealthInstitutionID,
		doctor.PasswordHash,
		doctor.UpdatedAt,
		doctor.ID,
	))
}
