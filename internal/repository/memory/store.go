// Package memory is an in-process repository.Store with the same
// semantics as the PostgreSQL store. Transactions are serialized and
// rolled back by restoring a snapshot.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

// errDuplicateSlot mirrors the unique index on appointments.time_slot_id
var errDuplicateSlot = errors.New("time slot is already referenced by an appointment")

type dataset struct {
	seq map[string]int64

	appointments  map[int64]model.Appointment
	slots         map[int64]model.TimeSlot
	notifications map[int64]model.Notification
	deviceTokens  []model.DeviceToken
	doctors       map[int64]model.Doctor
	patients      map[int64]model.Patient
	workingHours  map[int64]model.WorkingHours
	specialties   map[int64]model.Specialty
	institutions  map[int64]model.HealthInstitution
	outbox        map[uuid.UUID]model.OutboxEvent
	outboxOrder   []uuid.UUID
}

func newDataset() *dataset {
	return &dataset{
		seq:           map[string]int64{},
		appointments:  map[int64]model.Appointment{},
		slots:         map[int64]model.TimeSlot{},
		notifications: map[int64]model.Notification{},
		doctors:       map[int64]model.Doctor{},
		patients:      map[int64]model.Patient{},
		workingHours:  map[int64]model.WorkingHours{},
		specialties:   map[int64]model.Specialty{},
		institutions:  map[int64]model.HealthInstitution{},
		outbox:        map[uuid.UUID]model.OutboxEvent{},
	}
}

func (d *dataset) next(table string) int64 {
	d.seq[table]++
	return d.seq[table]
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	for k, v := range d.seq {
		c.seq[k] = v
	}
	copyMap(c.appointments, d.appointments)
	copyMap(c.slots, d.slots)
	copyMap(c.notifications, d.notifications)
	copyMap(c.doctors, d.doctors)
	copyMap(c.patients, d.patients)
	copyMap(c.workingHours, d.workingHours)
	copyMap(c.specialties, d.specialties)
	copyMap(c.institutions, d.institutions)
	copyMap(c.outbox, d.outbox)
	c.deviceTokens = append([]model.DeviceToken(nil), d.deviceTokens...)
	c.outboxOrder = append([]uuid.UUID(nil), d.outboxOrder...)
	return c
}

func copyMap[K comparable, V any](dst, src map[K]V) {
	for k, v := range src {
		dst[k] = v
	}
}

type state struct {
	mu   sync.Mutex
	data *dataset
}

// Store implements repository.Store in memory
type Store struct {
	state *state
	inTx  bool
}

func NewStore() *Store {
	return &Store{state: &state{data: newDataset()}}
}

// lock takes the store mutex unless the caller already holds it through
// WithTx. The returned func releases it.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.state.mu.Lock()
	return s.state.mu.Unlock
}

func (s *Store) data() *dataset {
	return s.state.data
}

func (s *Store) Appointments() repository.AppointmentRepository {
	return &appointmentRepository{s}
}

func (s *Store) TimeSlots() repository.TimeSlotRepository {
	return &timeSlotRepository{s}
}

func (s *Store) Notifications() repository.NotificationRepository {
	return &notificationRepository{s}
}

func (s *Store) DeviceTokens() repository.DeviceTokenRepository {
	return &deviceTokenRepository{s}
}

func (s *Store) Doctors() repository.DoctorRepository {
	return &doctorRepository{s}
}

func (s *Store) Patients() repository.PatientRepository {
	return &patientRepository{s}
}

func (s *Store) WorkingHours() repository.WorkingHoursRepository {
	return &workingHoursRepository{s}
}

func (s *Store) Reference() repository.ReferenceRepository {
	return &referenceRepository{s}
}

func (s *Store) Outbox() repository.OutboxRepository {
	return &outboxRepository{s}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	snapshot := s.state.data.clone()
	defer func() {
		if p := recover(); p != nil {
			s.state.data = snapshot
			panic(p)
		}
	}()

	if err := fn(&Store{state: s.state, inTx: true}); err != nil {
		s.state.data = snapshot
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}
