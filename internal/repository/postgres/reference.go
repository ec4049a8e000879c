package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type referenceRepository struct {
	BaseRepository
}

func (r *referenceRepository) CreateSpecialty(ctx context.Context, specialty *model.Specialty) error {
	query := `INSERT INTO specialties (label) VALUES ($1) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, specialty.Label).Scan(&specialty.ID); err != nil {
		return fmt.Errorf("failed to create specialty: %w", err)
	}
	return nil
}

func (r *referenceRepository) ListSpecialties(ctx context.Context) ([]*model.Specialty, error) {
	specialties := []*model.Specialty{}
	if err := sqlx.SelectContext(ctx, r.db, &specialties, `SELECT id, label FROM specialties ORDER BY label ASC`); err != nil {
		return nil, fmt.Errorf("failed to list specialties: %w", err)
	}
	return specialties, nil
}

func (r *referenceRepository) CreateInstitution(ctx context.Context, institution *model.HealthInstitution) error {
	query := `
		INSERT INTO health_institutions (name, address, latitude, longitude, type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRowxContext(ctx, query,
		institution.Name,
		institution.Address,
		institution.Latitude,
		institution.Longitude,
		institution.Type,
	).Scan(&institution.ID)
	if err != nil {
		return fmt.Errorf("failed to create health institution: %w", err)
	}
	return nil
}

func (r *referenceRepository) GetInstitution(ctx context.Context, id int64) (*model.HealthInstitution, error) {
	query := `SELECT id, name, address, latitude, longitude, type FROM health_institutions WHERE id = $1`

	var institution model.HealthInstitution
	if err := r.get(ctx, &institution, repository.ErrNotFound, "get health institution", query, id); err != nil {
		return nil, err
	}
	return &institution, nil
}
