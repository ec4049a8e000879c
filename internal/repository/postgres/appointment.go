package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type appointmentRepository struct {
	BaseRepository
}

const appointmentColumns = `id, patient_id, doctor_id, time_slot_id, status, qr_code_url, created_at, updated_at`

const appointmentDetailQuery = `
	SELECT a.id AS appointment_id, a.status, a.qr_code_url, a.doctor_id, a.patient_id,
		   ts.date AS slot_date, ts.start_time AS slot_start_time, ts.end_time AS slot_end_time,
		   d.first_name AS doctor_first_name, d.last_name AS doctor_last_name, d.photo_url AS doctor_photo_url,
		   s.label AS specialty_label,
		   hi.address AS institution_address, hi.latitude AS institution_latitude, hi.longitude AS institution_longitude,
		   (p.id IS NOT NULL) AS patient_exists,
		   p.first_name AS patient_first_name, p.last_name AS patient_last_name, p.photo_url AS patient_photo_url
	FROM appointments a
	LEFT JOIN time_slots ts ON ts.id = a.time_slot_id
	LEFT JOIN doctors d ON d.id = a.doctor_id
	LEFT JOIN specialties s ON s.id = d.specialty_id
	LEFT JOIN health_institutions hi ON hi.id = d.health_institution_id
	LEFT JOIN patients p ON p.id = a.patient_id
`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			patient_id, doctor_id, time_slot_id, status, qr_code_url,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	now := time.Now().UTC()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now

	err := r.db.QueryRowxContext(ctx, query,
		appointment.PatientID,
		appointment.DoctorID,
		appointment.TimeSlotID,
		appointment.Status,
		appointment.QRCodeURL,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	).Scan(&appointment.ID)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appointment model.Appointment
	if err := r.get(ctx, &appointment, repository.ErrNotFound, "get appointment", query, id); err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	where, args := appointmentWhere(filter, "")
	query := `SELECT ` + appointmentColumns + ` FROM appointments` + where + ` ORDER BY id ASC`

	appointments := []*model.Appointment{}
	if err := sqlx.SelectContext(ctx, r.db, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) TransitionStatus(ctx context.Context, id int64, from, to model.AppointmentStatus) (*model.Appointment, error) {
	query := `
		UPDATE appointments
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
		RETURNING ` + appointmentColumns

	var appointment model.Appointment
	err := r.get(ctx, &appointment, repository.ErrStatusMismatch, "update appointment status",
		query, id, from, to, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) Delete(ctx context.Context, id int64) (*model.Appointment, error) {
	query := `DELETE FROM appointments WHERE id = $1 RETURNING ` + appointmentColumns

	var appointment model.Appointment
	if err := r.get(ctx, &appointment, repository.ErrNotFound, "delete appointment", query, id); err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) DetachSlot(ctx context.Context, id int64) error {
	query := `UPDATE appointments SET time_slot_id = NULL, updated_at = $2 WHERE id = $1`
	return requireAffected(r.execAffecting(ctx, "detach appointment slot", query, id, time.Now().UTC()))
}

func (r *appointmentRepository) GetDetail(ctx context.Context, id int64) (*model.AppointmentDetail, error) {
	query := appointmentDetailQuery + ` WHERE a.id = $1`

	var detail model.AppointmentDetail
	if err := r.get(ctx, &detail, repository.ErrNotFound, "get appointment detail", query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (r *appointmentRepository) ListDetails(ctx context.Context, filter model.AppointmentFilter) ([]*model.AppointmentDetail, error) {
	where, args := appointmentWhere(filter, "a.")
	query := appointmentDetailQuery + where + ` ORDER BY ts.date ASC NULLS LAST, ts.start_time ASC NULLS LAST, a.id ASC`

	details := []*model.AppointmentDetail{}
	if err := sqlx.SelectContext(ctx, r.db, &details, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointment details: %w", err)
	}
	return details, nil
}

func appointmentWhere(filter model.AppointmentFilter, alias string) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.PatientID != nil {
		args = append(args, *filter.PatientID)
		conditions = append(conditions, fmt.Sprintf("%spatient_id = $%d", alias, len(args)))
	}
	if filter.DoctorID != nil {
		args = append(args, *filter.DoctorID)
		conditions = append(conditions, fmt.Sprintf("%sdoctor_id = $%d", alias, len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("%sstatus = $%d", alias, len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
