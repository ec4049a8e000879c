package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/security"
)

// DoctorCache is the part of the reference service profile updates
// need
type DoctorCache interface {
	Doctor(ctx context.Context, id int64) (*model.DoctorProfile, error)
	InvalidateDoctor(id int64)
}

type Service struct {
	store   repository.Store
	hasher  security.PasswordHasher
	doctors DoctorCache
	logger  *logger.Logger
}

func NewService(store repository.Store, hasher security.PasswordHasher, doctors DoctorCache, logger *logger.Logger) *Service {
	return &Service{store: store, hasher: hasher, doctors: doctors, logger: logger}
}

// UpdateDoctor applies the set fields and upserts any working hours in
// one transaction
func (s *Service) UpdateDoctor(ctx context.Context, id int64, req model.UpdateDoctorRequest) (*model.DoctorProfile, error) {
	hours, err := parseWorkingHours(id, req.WorkingHours)
	if err != nil {
		return nil, err
	}

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		doctor, err := tx.Doctors().Get(ctx, id)
		if err != nil {
			return err
		}

		set(&doctor.FirstName, req.FirstName)
		set(&doctor.LastName, req.LastName)
		set(&doctor.Email, req.Email)
		setOptional(&doctor.Phone, req.Phone)
		setOptional(&doctor.Address, req.Address)
		setOptional(&doctor.PhotoURL, req.PhotoURL)
		setOptional(&doctor.ContactEmail, req.ContactEmail)
		setOptional(&doctor.ContactPhone, req.ContactPhone)
		if req.SpecialtyID != nil {
			doctor.SpecialtyID = req.SpecialtyID
		}
		if req.HealthInstitutionID != nil {
			doctor.HealthInstitutionID = req.HealthInstitutionID
		}
		if doctor.PasswordHash, err = s.hash(req.Password, doctor.PasswordHash); err != nil {
			return err
		}

		if err := tx.Doctors().Update(ctx, doctor); err != nil {
			return err
		}
		for _, h := range hours {
			if err := tx.WorkingHours().Upsert(ctx, h); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.wrap(err, "doctor", id)
	}

	s.doctors.InvalidateDoctor(id)
	s.logger.Info("Doctor profile updated", "doctor_id", id, "working_hours", len(hours))
	return s.doctors.Doctor(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, id int64, req model.UpdatePatientRequest) (*model.Patient, error) {
	var patient *model.Patient
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		patient, err = tx.Patients().Get(ctx, id)
		if err != nil {
			return err
		}

		set(&patient.FirstName, req.FirstName)
		set(&patient.LastName, req.LastName)
		set(&patient.Email, req.Email)
		setOptional(&patient.Phone, req.Phone)
		setOptional(&patient.Address, req.Address)
		setOptional(&patient.PhotoURL, req.PhotoURL)
		if req.Age != nil {
			patient.Age = req.Age
		}
		if patient.PasswordHash, err = s.hash(req.Password, patient.PasswordHash); err != nil {
			return err
		}
		return tx.Patients().Update(ctx, patient)
	})
	if err != nil {
		return nil, s.wrap(err, "patient", id)
	}

	s.logger.Info("Patient profile updated", "patient_id", id)
	return patient, nil
}

func (s *Service) hash(password *string, current *string) (*string, error) {
	if password == nil {
		return current, nil
	}
	hash, err := s.hasher.Hash(*password)
	if errors.Is(err, security.ErrPasswordTooShort) {
		return nil, apperrors.BadRequest(err.Error(), err)
	}
	if err != nil {
		return nil, err
	}
	return &hash, nil
}

func (s *Service) wrap(err error, resource string, id int64) error {
	if appErr, ok := apperrors.As(err); ok {
		return appErr
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound(resource, err)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.Conflict("Email is already in use", err)
	case errors.Is(err, repository.ErrInvalidReference):
		return apperrors.BadRequest("Referenced specialty or health institution does not exist", err)
	}
	s.logger.Error(err, "Failed to update profile", "resource", resource, "id", id)
	return apperrors.Internal(err)
}

var clockLayouts = []string{model.ClockLayout, "15:04"}

func parseWorkingHours(doctorID int64, reqs []model.WorkingHoursRequest) ([]*model.WorkingHours, error) {
	hours := make([]*model.WorkingHours, 0, len(reqs))
	for _, r := range reqs {
		period, err := model.ParsePeriod(string(r.Period))
		if err != nil {
			return nil, apperrors.BadRequest(err.Error(), err)
		}
		start, err := parseClock(r.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := parseClock(r.EndTime)
		if err != nil {
			return nil, err
		}
		if !end.After(start) {
			return nil, &apperrors.AppError{
				Code:    apperrors.ErrBadRequest,
				Message: "Working hours must end after they start",
				Details: map[string]interface{}{"day_of_week": r.DayOfWeek, "period": period},
			}
		}
		hours = append(hours, &model.WorkingHours{
			DoctorID:  doctorID,
			DayOfWeek: r.DayOfWeek,
			Period:    period,
			StartTime: start,
			EndTime:   end,
		})
	}
	return hours, nil
}

func parseClock(s string) (time.Time, error) {
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.ClockTime(t.Hour(), t.Minute(), t.Second()), nil
		}
	}
	return time.Time{}, apperrors.BadRequest(fmt.Sprintf("invalid time %q, expected HH:MM or HH:MM:SS", s), nil)
}

func set(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setOptional(dst **string, v *string) {
	if v != nil {
		*dst = v
	}
}
