package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/booking-api/internal/model"
)

type workingHoursRepository struct {
	BaseRepository
}

func (r *workingHoursRepository) Upsert(ctx context.Context, hours *model.WorkingHours) error {
	query := `
		INSERT INTO working_hours (doctor_id, day_of_week, period, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (doctor_id, day_of_week, period)
		DO UPDATE SET start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time
		RETURNING id
	`
	err := r.db.QueryRowxContext(ctx, query,
		hours.DoctorID,
		hours.DayOfWeek,
		hours.Period,
		hours.StartTime.Format(model.ClockLayout),
		hours.EndTime.Format(model.ClockLayout),
	).Scan(&hours.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert working hours: %w", err)
	}
	return nil
}

func (r *workingHoursRepository) ListByDoctor(ctx context.Context, doctorID int64) ([]*model.WorkingHours, error) {
	query := `
		SELECT id, doctor_id, day_of_week, period, start_time, end_time
		FROM working_hours
		WHERE doctor_id = $1
		ORDER BY day_of_week ASC, period DESC
	`
	hours := []*model.WorkingHours{}
	if err := sqlx.SelectContext(ctx, r.db, &hours, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list working hours: %w", err)
	}
	return hours, nil
}
