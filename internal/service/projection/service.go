package projection

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/logger"
)

// Service serves the appointment detail listings
type Service struct {
	store  repository.Store
	logger *logger.Logger
}

func NewService(store repository.Store, logger *logger.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) AllDetails(ctx context.Context) ([]model.PatientAppointmentView, error) {
	return s.patientViews(ctx, model.AppointmentFilter{})
}

func (s *Service) PatientDetails(ctx context.Context, patientID int64) ([]model.PatientAppointmentView, error) {
	return s.patientViews(ctx, model.AppointmentFilter{PatientID: &patientID})
}

// DoctorDetails lists a doctor's appointments with the patient embedded.
// Rows whose patient is gone are logged and left out.
func (s *Service) DoctorDetails(ctx context.Context, doctorID int64) ([]model.DoctorAppointmentView, error) {
	if _, err := s.store.Doctors().Get(ctx, doctorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, apperrors.Internal(err)
	}

	details, err := s.store.Appointments().ListDetails(ctx, model.AppointmentFilter{DoctorID: &doctorID})
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list appointment details: %w", err))
	}

	views := make([]model.DoctorAppointmentView, 0, len(details))
	for _, d := range details {
		view, err := DoctorView(d)
		if err != nil {
			s.logger.Error(err, "Skipping appointment in doctor view", "appointment_id", d.AppointmentID, "patient_id", d.PatientID)
			continue
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *Service) Detail(ctx context.Context, appointmentID int64) (*model.PatientAppointmentView, error) {
	d, err := s.detail(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	view := PatientView(d)
	return &view, nil
}

func (s *Service) DoctorViewDetail(ctx context.Context, appointmentID int64) (*model.DoctorAppointmentView, error) {
	d, err := s.detail(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	view, err := DoctorView(d)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("appointment %d: %w", appointmentID, err))
	}
	return &view, nil
}

func (s *Service) detail(ctx context.Context, appointmentID int64) (*model.AppointmentDetail, error) {
	d, err := s.store.Appointments().GetDetail(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get appointment detail: %w", err))
	}
	return d, nil
}

func (s *Service) patientViews(ctx context.Context, filter model.AppointmentFilter) ([]model.PatientAppointmentView, error) {
	details, err := s.store.Appointments().ListDetails(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list appointment details: %w", err))
	}
	views := make([]model.PatientAppointmentView, 0, len(details))
	for _, d := range details {
		views = append(views, PatientView(d))
	}
	return views, nil
}
