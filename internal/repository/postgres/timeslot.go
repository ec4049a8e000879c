package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type timeSlotRepository struct {
	BaseRepository
}

const timeSlotColumns = `id, doctor_id, date, start_time, end_time, status`

func (r *timeSlotRepository) Create(ctx context.Context, slot *model.TimeSlot) error {
	query := `
		INSERT INTO time_slots (doctor_id, date, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	if slot.Status == "" {
		slot.Status = model.SlotStatusAvailable
	}

	err := r.db.QueryRowxContext(ctx, query,
		slot.DoctorID,
		slot.Date.Format(model.DateLayout),
		slot.StartTime.Format(model.ClockLayout),
		slot.EndTime.Format(model.ClockLayout),
		slot.Status,
	).Scan(&slot.ID)
	if err != nil {
		return fmt.Errorf("failed to create time slot: %w", err)
	}
	return nil
}

func (r *timeSlotRepository) Get(ctx context.Context, id int64) (*model.TimeSlot, error) {
	query := `SELECT ` + timeSlotColumns + ` FROM time_slots WHERE id = $1`

	var slot model.TimeSlot
	if err := r.get(ctx, &slot, repository.ErrNotFound, "get time slot", query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *timeSlotRepository) Reserve(ctx context.Context, id int64) (*model.TimeSlot, error) {
	query := `
		UPDATE time_slots
		SET status = $2
		WHERE id = $1 AND status = $3
		RETURNING ` + timeSlotColumns

	var slot model.TimeSlot
	err := r.get(ctx, &slot, repository.ErrSlotUnavailable, "reserve time slot",
		query, id, model.SlotStatusBooked, model.SlotStatusAvailable)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *timeSlotRepository) Release(ctx context.Context, id int64) error {
	query := `UPDATE time_slots SET status = $2 WHERE id = $1`

	_, err := r.execAffecting(ctx, "release time slot", query, id, model.SlotStatusAvailable)
	return err
}

func (r *timeSlotRepository) ListAvailable(ctx context.Context, doctorID int64, date *time.Time) ([]*model.TimeSlot, error) {
	query := `SELECT ` + timeSlotColumns + ` FROM time_slots WHERE doctor_id = $1 AND status = $2`
	args := []interface{}{doctorID, model.SlotStatusAvailable}

	if date != nil {
		query += ` AND date = $3`
		args = append(args, date.Format(model.DateLayout))
	}
	query += ` ORDER BY date ASC, start_time ASC`

	slots := []*model.TimeSlot{}
	if err := sqlx.SelectContext(ctx, r.db, &slots, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list time slots: %w", err)
	}
	return slots, nil
}
