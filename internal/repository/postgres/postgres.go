package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/booking-api/internal/repository"
)

// Store implements repository.Store on PostgreSQL
type Store struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
	tx  *sqlx.Tx
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, ext: db}
}

func (s *Store) base() BaseRepository {
	return NewBaseRepository(s.ext)
}

func (s *Store) Appointments() repository.AppointmentRepository {
	return &appointmentRepository{s.base()}
}

func (s *Store) TimeSlots() repository.TimeSlotRepository {
	return &timeSlotRepository{s.base()}
}

func (s *Store) Notifications() repository.NotificationRepository {
	return &notificationRepository{s.base()}
}

func (s *Store) DeviceTokens() repository.DeviceTokenRepository {
	return &deviceTokenRepository{s.base()}
}

func (s *Store) Doctors() repository.DoctorRepository {
	return &doctorRepository{s.base()}
}

func (s *Store) Patients() repository.PatientRepository {
	return &patientRepository{s.base()}
}

func (s *Store) WorkingHours() repository.WorkingHoursRepository {
	return &workingHoursRepository{s.base()}
}

func (s *Store) Reference() repository.ReferenceRepository {
	return &referenceRepository{s.base()}
}

func (s *Store) Outbox() repository.OutboxRepository {
	return &outboxRepository{s.base()}
}

// WithTx executes a function within a transaction. Nested calls join the
// outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Store{db: s.db, ext: tx, tx: tx}); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
