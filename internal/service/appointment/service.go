package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/internal/service/projection"
	"github.com/jwalitptl/booking-api/internal/service/slot"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

// Notifier records a user notification and delivers it in the
// background
type Notifier interface {
	Create(ctx context.Context, req model.CreateNotificationRequest) (*model.Notification, error)
}

type Config struct {
	// ReleaseSlotOnDecline frees the slot when an appointment is declined
	ReleaseSlotOnDecline bool
}

type Service struct {
	store    repository.Store
	slots    *slot.Allocator
	notifier Notifier
	config   Config
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewService(store repository.Store, slots *slot.Allocator, notifier Notifier, config Config, logger *logger.Logger, metrics *metrics.Metrics) *Service {
	return &Service{
		store:    store,
		slots:    slots,
		notifier: notifier,
		config:   config,
		logger:   logger,
		metrics:  metrics,
	}
}

// Create reserves the slot and records a pending appointment in one
// transaction
func (s *Service) Create(ctx context.Context, req model.CreateAppointmentRequest) (*model.Appointment, error) {
	var appt *model.Appointment
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Patients().Get(ctx, req.PatientID); err != nil {
			return lookupError("patient", err)
		}
		if _, err := tx.Doctors().Get(ctx, req.DoctorID); err != nil {
			return lookupError("doctor", err)
		}

		ts, err := s.slots.Reserve(ctx, tx, req.TimeSlotID)
		if err != nil {
			return err
		}
		if ts.DoctorID != req.DoctorID {
			return &apperrors.AppError{
				Code:    apperrors.ErrBadRequest,
				Message: "Time slot belongs to another doctor",
				Details: map[string]interface{}{
					"time_slot_id": ts.ID,
					"doctor_id":    req.DoctorID,
				},
			}
		}

		appt = &model.Appointment{
			PatientID:  req.PatientID,
			DoctorID:   req.DoctorID,
			TimeSlotID: &ts.ID,
			Status:     model.AppointmentStatusPending,
		}
		if err := tx.Appointments().Create(ctx, appt); err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}
		return s.enqueue(ctx, tx, model.EventAppointmentCreated, appt)
	})

	s.metrics.BookingsTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return nil, s.wrap(err, "Failed to create appointment", "slot_id", req.TimeSlotID)
	}

	s.logger.Info("Appointment created", "appointment_id", appt.ID, "time_slot_id", req.TimeSlotID)
	return appt, nil
}

func (s *Service) Confirm(ctx context.Context, id int64) (*model.PatientAppointmentView, error) {
	return s.transition(ctx, id, model.AppointmentStatusConfirmed)
}

func (s *Service) Decline(ctx context.Context, id int64) (*model.PatientAppointmentView, error) {
	return s.transition(ctx, id, model.AppointmentStatusDeclined)
}

// transition moves a pending appointment to target and returns the
// hydrated view. The patient is notified once the change is committed.
// A released slot is detached from the declined appointment, so the
// returned view is the last one that still carries its timing.
func (s *Service) transition(ctx context.Context, id int64, target model.AppointmentStatus) (*model.PatientAppointmentView, error) {
	var appt *model.Appointment
	var detail *model.AppointmentDetail
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		updated, err := tx.Appointments().TransitionStatus(ctx, id, model.AppointmentStatusPending, target)
		if errors.Is(err, repository.ErrStatusMismatch) {
			current, getErr := tx.Appointments().Get(ctx, id)
			if getErr != nil {
				return lookupError("appointment", getErr)
			}
			return apperrors.InvalidTransition(id, string(current.Status), string(target))
		}
		if err != nil {
			return fmt.Errorf("failed to update appointment status: %w", err)
		}

		d, err := tx.Appointments().GetDetail(ctx, id)
		if err != nil {
			return lookupError("appointment", err)
		}

		if target == model.AppointmentStatusDeclined && s.config.ReleaseSlotOnDecline && updated.TimeSlotID != nil {
			if err := s.slots.Release(ctx, tx, *updated.TimeSlotID); err != nil {
				return err
			}
			if err := tx.Appointments().DetachSlot(ctx, id); err != nil {
				return fmt.Errorf("failed to detach time slot: %w", err)
			}
		}

		appt, detail = updated, d
		return s.enqueue(ctx, tx, transitionEvents[target], updated)
	})

	s.metrics.TransitionsTotal.WithLabelValues(string(target), outcome(err)).Inc()
	if err != nil {
		return nil, s.wrap(err, "Failed to change appointment status", "appointment_id", id, "target", target)
	}

	s.notifyPatient(ctx, appt)

	view := projection.PatientView(detail)
	return &view, nil
}

// Delete removes the appointment in any status and frees its slot
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		appt, err := tx.Appointments().Delete(ctx, id)
		if err != nil {
			return lookupError("appointment", err)
		}

		// a declined appointment that gave its slot back no longer
		// references it
		if appt.TimeSlotID != nil {
			if err := s.slots.Release(ctx, tx, *appt.TimeSlotID); err != nil {
				return err
			}
		}
		return s.enqueue(ctx, tx, model.EventAppointmentDeleted, appt)
	})
	if err != nil {
		return s.wrap(err, "Failed to delete appointment", "appointment_id", id)
	}

	s.logger.Info("Appointment deleted", "appointment_id", id)
	return nil
}

// AuthorizeBooking lets a patient book for themselves and a doctor book
// into their own calendar
func AuthorizeBooking(actor model.Identity, req model.CreateAppointmentRequest) error {
	switch {
	case actor.UserType == model.UserTypePatient && actor.UserID == req.PatientID:
		return nil
	case actor.UserType == model.UserTypeDoctor && actor.UserID == req.DoctorID:
		return nil
	}
	return apperrors.Forbidden("Appointments can only be booked by their patient or doctor")
}

// AuthorizeDoctor reports NotFound for a missing appointment and
// Forbidden unless actor is its doctor
func (s *Service) AuthorizeDoctor(ctx context.Context, actor model.Identity, id int64) error {
	appt, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if actor.UserType != model.UserTypeDoctor || actor.UserID != appt.DoctorID {
		return apperrors.Forbidden("Only the appointment's doctor can change its status")
	}
	return nil
}

// AuthorizeParticipant is AuthorizeDoctor that also admits the patient
func (s *Service) AuthorizeParticipant(ctx context.Context, actor model.Identity, id int64) error {
	appt, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	switch {
	case actor.UserType == model.UserTypeDoctor && actor.UserID == appt.DoctorID:
		return nil
	case actor.UserType == model.UserTypePatient && actor.UserID == appt.PatientID:
		return nil
	}
	return apperrors.Forbidden("Appointments can only be changed by their patient or doctor")
}

func (s *Service) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	appt, err := s.store.Appointments().Get(ctx, id)
	if err != nil {
		return nil, lookupError("appointment", err)
	}
	return appt, nil
}

func (s *Service) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	appts, err := s.store.Appointments().List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list appointments: %w", err))
	}
	return appts, nil
}

var transitionEvents = map[model.AppointmentStatus]string{
	model.AppointmentStatusConfirmed: model.EventAppointmentConfirmed,
	model.AppointmentStatusDeclined:  model.EventAppointmentDeclined,
}

var transitionNotices = map[model.AppointmentStatus]struct {
	kind  model.NotificationType
	title string
	verb  string
}{
	model.AppointmentStatusConfirmed: {model.NotificationTypeAccepted, "Appointment confirmed", "confirmed"},
	model.AppointmentStatusDeclined:  {model.NotificationTypeDeclined, "Appointment declined", "declined"},
}

// notifyPatient is best-effort; failures are logged only
func (s *Service) notifyPatient(ctx context.Context, appt *model.Appointment) {
	notice, ok := transitionNotices[appt.Status]
	if !ok || s.notifier == nil {
		return
	}
	_, err := s.notifier.Create(ctx, model.CreateNotificationRequest{
		UserID:   appt.PatientID,
		UserType: model.UserTypePatient,
		Title:    notice.title,
		Message:  fmt.Sprintf("Your appointment #%d has been %s by the doctor", appt.ID, notice.verb),
		Type:     notice.kind,
	})
	if err != nil {
		s.logger.Error(err, "Failed to record status notification", "appointment_id", appt.ID)
	}
}

func (s *Service) enqueue(ctx context.Context, tx repository.Store, eventType string, appt *model.Appointment) error {
	event, err := model.NewOutboxEvent(eventType, appt)
	if err != nil {
		return fmt.Errorf("failed to build outbox event: %w", err)
	}
	if err := tx.Outbox().Create(ctx, event); err != nil {
		return fmt.Errorf("failed to store outbox event: %w", err)
	}
	return nil
}

// wrap passes domain errors through and hides everything else behind an
// internal error
func (s *Service) wrap(err error, msg string, fields ...interface{}) error {
	if appErr, ok := apperrors.As(err); ok {
		return appErr
	}
	s.logger.Error(err, msg, fields...)
	return apperrors.Internal(err)
}

func lookupError(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, err)
	}
	return fmt.Errorf("failed to get %s: %w", resource, err)
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if appErr, ok := apperrors.As(err); ok {
		return appErr.Code.String()
	}
	return "error"
}
