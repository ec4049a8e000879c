package appointment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository/memory"
	"github.com/jwalitptl/booking-api/internal/service/slot"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Create(ctx context.Context, req model.CreateNotificationRequest) (*model.Notification, error) {
	args := m.Called(ctx, req)
	n, _ := args.Get(0).(*model.Notification)
	return n, args.Error(1)
}

type fixture struct {
	svc      *Service
	store    *memory.Store
	notifier *MockNotifier
	patient  *model.Patient
	doctor   *model.Doctor
	slot     *model.TimeSlot
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	m := metrics.NewUnregistered("test")

	specialty := &model.Specialty{Label: "Pediatrics"}
	require.NoError(t, store.Reference().CreateSpecialty(ctx, specialty))
	addr := "4 Avenue Habib Bourguiba"
	lat, lng := 36.8, 10.18
	inst := &model.HealthInstitution{Name: "City Clinic", Address: &addr, Latitude: &lat, Longitude: &lng}
	require.NoError(t, store.Reference().CreateInstitution(ctx, inst))

	doctor := &model.Doctor{FirstName: "Nadia", LastName: "Karim", Email: "nadia@example.com", SpecialtyID: &specialty.ID, HealthInstitutionID: &inst.ID}
	require.NoError(t, store.Doctors().Create(ctx, doctor))
	patient := &model.Patient{FirstName: "Yusuf", LastName: "Ali", Email: "yusuf@example.com"}
	require.NoError(t, store.Patients().Create(ctx, patient))

	ts := &model.TimeSlot{
		DoctorID:  doctor.ID,
		Date:      time.Date(2024, 9, 10, 0, 0, 0, 0, time.UTC),
		StartTime: model.ClockTime(11, 0, 0),
		EndTime:   model.ClockTime(11, 30, 0),
	}
	require.NoError(t, store.TimeSlots().Create(ctx, ts))

	notifier := &MockNotifier{}
	notifier.On("Create", mock.Anything, mock.Anything).Return(&model.Notification{}, nil).Maybe()

	svc := NewService(store, slot.NewAllocator(store, m), notifier, cfg, logger.Nop(), m)
	return &fixture{svc: svc, store: store, notifier: notifier, patient: patient, doctor: doctor, slot: ts}
}

func (f *fixture) request() model.CreateAppointmentRequest {
	return model.CreateAppointmentRequest{PatientID: f.patient.ID, DoctorID: f.doctor.ID, TimeSlotID: f.slot.ID}
}

func (f *fixture) slotStatus(t *testing.T) model.SlotStatus {
	t.Helper()
	s, err := f.store.TimeSlots().Get(context.Background(), f.slot.ID)
	require.NoError(t, err)
	return s.Status
}

func TestService_EndToEnd(t *testing.T) {
	f := newFixture(t, Config{ReleaseSlotOnDecline: true})
	ctx := context.Background()

	appt, err := f.svc.Create(ctx, f.request())
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusPending, appt.Status)
	assert.Equal(t, model.SlotStatusBooked, f.slotStatus(t))

	view, err := f.svc.Confirm(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, view.Status)
	assert.Equal(t, "Nadia", view.Doctor.FirstName)
	assert.Equal(t, "Pediatrics", *view.Doctor.SpecialtyLabel)
	assert.Equal(t, "4 Avenue Habib Bourguiba", *view.Institution.Address)
	assert.Equal(t, "2024-09-10", *view.Date)
	assert.Equal(t, "11:30:00", *view.EndTime)

	f.notifier.AssertCalled(t, "Create", mock.Anything, mock.MatchedBy(func(req model.CreateNotificationRequest) bool {
		return req.UserID == f.patient.ID && req.Type == model.NotificationTypeAccepted
	}))

	require.NoError(t, f.svc.Delete(ctx, appt.ID))
	_, err = f.svc.Get(ctx, appt.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
	assert.Equal(t, model.SlotStatusAvailable, f.slotStatus(t))

	events, err := f.store.Outbox().GetPendingEventsWithLock(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, model.EventAppointmentCreated, events[0].EventType)
	assert.Equal(t, model.EventAppointmentConfirmed, events[1].EventType)
	assert.Equal(t, model.EventAppointmentDeleted, events[2].EventType)
}

func TestService_ConcurrentBooking(t *testing.T) {
	f := newFixture(t, Config{})
	const callers = 10

	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(context.Background(), f.request())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, unavailable int
	for err := range errs {
		if err == nil {
			ok++
		} else if apperrors.HasCode(err, apperrors.ErrSlotUnavailable) {
			unavailable++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, callers-1, unavailable)

	appts, err := f.svc.List(context.Background(), model.AppointmentFilter{})
	require.NoError(t, err)
	assert.Len(t, appts, 1)
}

func TestService_TransitionOnlyFromPending(t *testing.T) {
	for _, current := range []model.AppointmentStatus{
		model.AppointmentStatusConfirmed,
		model.AppointmentStatusCompleted,
		model.AppointmentStatusDeclined,
	} {
		t.Run(string(current), func(t *testing.T) {
			f := newFixture(t, Config{})
			ctx := context.Background()
			appt, err := f.svc.Create(ctx, f.request())
			require.NoError(t, err)
			_, err = f.store.Appointments().TransitionStatus(ctx, appt.ID, model.AppointmentStatusPending, current)
			require.NoError(t, err)

			for _, op := range []func(context.Context, int64) (*model.PatientAppointmentView, error){f.svc.Confirm, f.svc.Decline} {
				_, err := op(ctx, appt.ID)
				appErr, ok := apperrors.As(err)
				require.True(t, ok)
				assert.Equal(t, apperrors.ErrInvalidTransition, appErr.Code)
				assert.Equal(t, string(current), appErr.Details["current_status"])
			}

			got, err := f.svc.Get(ctx, appt.ID)
			require.NoError(t, err)
			assert.Equal(t, current, got.Status)
		})
	}
}

func TestService_TransitionMissing(t *testing.T) {
	f := newFixture(t, Config{})
	_, err := f.svc.Confirm(context.Background(), 404)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}

func TestService_DeclineReleasesSlot(t *testing.T) {
	f := newFixture(t, Config{ReleaseSlotOnDecline: true})
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.request())
	require.NoError(t, err)
	view, err := f.svc.Decline(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Date)
	assert.Equal(t, "2024-09-10", *view.Date)
	assert.Equal(t, model.SlotStatusAvailable, f.slotStatus(t))

	declined, err := f.svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Nil(t, declined.TimeSlotID)

	second, err := f.svc.Create(ctx, f.request())
	require.NoError(t, err)

	slotID := f.slot.ID
	holders, err := f.store.Appointments().List(ctx, model.AppointmentFilter{DoctorID: &f.doctor.ID})
	require.NoError(t, err)
	var referencing int
	for _, a := range holders {
		if a.TimeSlotID != nil && *a.TimeSlotID == slotID {
			referencing++
		}
	}
	assert.Equal(t, 1, referencing)

	// removing the declined booking must not free the rebooked slot
	require.NoError(t, f.svc.Delete(ctx, first.ID))
	assert.Equal(t, model.SlotStatusBooked, f.slotStatus(t))

	require.NoError(t, f.svc.Delete(ctx, second.ID))
	assert.Equal(t, model.SlotStatusAvailable, f.slotStatus(t))
}

func TestService_DeclineKeepsSlotWhenDisabled(t *testing.T) {
	f := newFixture(t, Config{ReleaseSlotOnDecline: false})
	ctx := context.Background()

	appt, err := f.svc.Create(ctx, f.request())
	require.NoError(t, err)
	_, err = f.svc.Decline(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusBooked, f.slotStatus(t))

	require.NoError(t, f.svc.Delete(ctx, appt.ID))
	assert.Equal(t, model.SlotStatusAvailable, f.slotStatus(t))
}

func TestService_CreateRollsBack(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	other := &model.Doctor{FirstName: "B", LastName: "C", Email: "b@example.com"}
	require.NoError(t, f.store.Doctors().Create(ctx, other))

	req := f.request()
	req.DoctorID = other.ID
	_, err := f.svc.Create(ctx, req)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))
	assert.Equal(t, model.SlotStatusAvailable, f.slotStatus(t))

	req = f.request()
	req.PatientID = 999
	_, err = f.svc.Create(ctx, req)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
	assert.Equal(t, model.SlotStatusAvailable, f.slotStatus(t))

	events, err := f.store.Outbox().GetPendingEventsWithLock(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestService_NotifierFailureIsSwallowed(t *testing.T) {
	f := newFixture(t, Config{})
	f.notifier.ExpectedCalls = nil
	f.notifier.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
	ctx := context.Background()

	appt, err := f.svc.Create(ctx, f.request())
	require.NoError(t, err)

	view, err := f.svc.Decline(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusDeclined, view.Status)
	f.notifier.AssertNumberOfCalls(t, "Create", 1)
}

func TestService_DeleteMissing(t *testing.T) {
	f := newFixture(t, Config{})
	err := f.svc.Delete(context.Background(), 77)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}

func TestService_Authorization(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	patient := model.Identity{UserID: f.patient.ID, UserType: model.UserTypePatient}
	doctor := model.Identity{UserID: f.doctor.ID, UserType: model.UserTypeDoctor}
	// ids are allocated per table, so the same number can name both kinds of user
	impostor := model.Identity{UserID: f.doctor.ID, UserType: model.UserTypePatient}

	assert.NoError(t, AuthorizeBooking(patient, f.request()))
	assert.NoError(t, AuthorizeBooking(doctor, f.request()))
	assert.True(t, apperrors.HasCode(AuthorizeBooking(model.Identity{UserID: 99, UserType: model.UserTypePatient}, f.request()), apperrors.ErrForbidden))

	appt, err := f.svc.Create(ctx, f.request())
	require.NoError(t, err)

	assert.NoError(t, f.svc.AuthorizeDoctor(ctx, doctor, appt.ID))
	assert.True(t, apperrors.HasCode(f.svc.AuthorizeDoctor(ctx, patient, appt.ID), apperrors.ErrForbidden))
	assert.True(t, apperrors.HasCode(f.svc.AuthorizeDoctor(ctx, impostor, appt.ID), apperrors.ErrForbidden))
	assert.True(t, apperrors.HasCode(f.svc.AuthorizeDoctor(ctx, doctor, 404), apperrors.ErrNotFound))

	assert.NoError(t, f.svc.AuthorizeParticipant(ctx, patient, appt.ID))
	assert.NoError(t, f.svc.AuthorizeParticipant(ctx, doctor, appt.ID))
	assert.True(t, apperrors.HasCode(f.svc.AuthorizeParticipant(ctx, model.Identity{UserID: 50, UserType: model.UserTypeDoctor}, appt.ID), apperrors.ErrForbidden))
}
