package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
)

var (
	// ErrNotFound is returned when the addressed row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrSlotUnavailable is returned when a conditional reservation
	// matched no available slot
	ErrSlotUnavailable = errors.New("time slot not available")
	// ErrStatusMismatch is returned when a guarded status update matched
	// no row in the expected state
	ErrStatusMismatch = errors.New("status precondition failed")
	// ErrDuplicate is returned when a write violates a unique constraint
	ErrDuplicate = errors.New("duplicate value")
	// ErrInvalidReference is returned when a write points at a row that
	// does not exist
	ErrInvalidReference = errors.New("referenced record does not exist")
)

// All repository interfaces in one file
type (
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id int64) (*model.Appointment, error)
		List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error)
		// TransitionStatus moves the appointment to `to` only if it is
		// currently `from`
		TransitionStatus(ctx context.Context, id int64, from, to model.AppointmentStatus) (*model.Appointment, error)
		// Delete removes the appointment and returns the deleted row
		Delete(ctx context.Context, id int64) (*model.Appointment, error)
		// DetachSlot clears the time slot reference of an appointment
		// whose slot has been given back
		DetachSlot(ctx context.Context, id int64) error
		GetDetail(ctx context.Context, id int64) (*model.AppointmentDetail, error)
		ListDetails(ctx context.Context, filter model.AppointmentFilter) ([]*model.AppointmentDetail, error)
	}

	TimeSlotRepository interface {
		Create(ctx context.Context, slot *model.TimeSlot) error
		Get(ctx context.Context, id int64) (*model.TimeSlot, error)
		// Reserve flips an available slot to booked in a single
		// conditional statement
		Reserve(ctx context.Context, id int64) (*model.TimeSlot, error)
		// Release marks the slot available; a missing slot is not an error
		Release(ctx context.Context, id int64) error
		ListAvailable(ctx context.Context, doctorID int64, date *time.Time) ([]*model.TimeSlot, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, notification *model.Notification) error
		Get(ctx context.Context, id int64) (*model.Notification, error)
		MarkRead(ctx context.Context, id int64) (*model.Notification, error)
		MarkAllRead(ctx context.Context, userID int64, userType model.UserType) (int64, error)
		Delete(ctx context.Context, id int64) error
		List(ctx context.Context, userID int64, userType model.UserType, skip, limit int) (*model.NotificationPage, error)
	}

	DeviceTokenRepository interface {
		Create(ctx context.Context, token *model.DeviceToken) error
		Latest(ctx context.Context, userID int64, userType model.UserType) (*model.DeviceToken, error)
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id int64) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id int64) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
	}

	WorkingHoursRepository interface {
		// Upsert inserts or replaces the row for (doctor, day, period)
		Upsert(ctx context.Context, hours *model.WorkingHours) error
		ListByDoctor(ctx context.Context, doctorID int64) ([]*model.WorkingHours, error)
	}

	ReferenceRepository interface {
		CreateSpecialty(ctx context.Context, specialty *model.Specialty) error
		ListSpecialties(ctx context.Context) ([]*model.Specialty, error)
		CreateInstitution(ctx context.Context, institution *model.HealthInstitution) error
		GetInstitution(ctx context.Context, id int64) (*model.HealthInstitution, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	// Store is the persistence gateway. Repositories obtained from the Store
	// passed to WithTx's callback share one transaction, which commits
	// when fn returns nil and rolls back otherwise.
	Store interface {
		Appointments() AppointmentRepository
		TimeSlots() TimeSlotRepository
		Notifications() NotificationRepository
		DeviceTokens() DeviceTokenRepository
		Doctors() DoctorRepository
		Patients() PatientRepository
		WorkingHours() WorkingHoursRepository
		Reference() ReferenceRepository
		Outbox() OutboxRepository

		WithTx(ctx context.Context, fn func(tx Store) error) error
		Ping(ctx context.Context) error
	}
)
