// Package reference serves doctors, specialties and health institutions
// from a short-lived in-process cache.
package reference

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
)

const specialtiesKey = "specialties"

type Config struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

type Service struct {
	store repository.Store
	cache *cache.Cache
}

func NewService(store repository.Store, config Config) *Service {
	if config.TTL <= 0 {
		config.TTL = 5 * time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 10 * time.Minute
	}
	return &Service{
		store: store,
		cache: cache.New(config.TTL, config.CleanupInterval),
	}
}

// Doctor returns the doctor with their working hours
func (s *Service) Doctor(ctx context.Context, id int64) (*model.DoctorProfile, error) {
	key := doctorKey(id)
	if cached, found := s.cache.Get(key); found {
		return cached.(*model.DoctorProfile), nil
	}

	doctor, err := s.store.Doctors().Get(ctx, id)
	if err != nil {
		return nil, lookupError("doctor", err)
	}
	hours, err := s.store.WorkingHours().ListByDoctor(ctx, id)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list working hours: %w", err))
	}

	profile := &model.DoctorProfile{Doctor: doctor, WorkingHours: make([]model.WorkingHoursView, 0, len(hours))}
	for _, h := range hours {
		profile.WorkingHours = append(profile.WorkingHours, h.View())
	}
	s.cache.Set(key, profile, cache.DefaultExpiration)
	return profile, nil
}

func (s *Service) Specialties(ctx context.Context) ([]*model.Specialty, error) {
	if cached, found := s.cache.Get(specialtiesKey); found {
		return cached.([]*model.Specialty), nil
	}
	specialties, err := s.store.Reference().ListSpecialties(ctx)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list specialties: %w", err))
	}
	s.cache.Set(specialtiesKey, specialties, cache.DefaultExpiration)
	return specialties, nil
}

func (s *Service) Institution(ctx context.Context, id int64) (*model.HealthInstitution, error) {
	key := "institution:" + strconv.FormatInt(id, 10)
	if cached, found := s.cache.Get(key); found {
		return cached.(*model.HealthInstitution), nil
	}
	inst, err := s.store.Reference().GetInstitution(ctx, id)
	if err != nil {
		return nil, lookupError("health institution", err)
	}
	s.cache.Set(key, inst, cache.DefaultExpiration)
	return inst, nil
}

// InvalidateDoctor drops the cached profile after an update
func (s *Service) InvalidateDoctor(id int64) {
	s.cache.Delete(doctorKey(id))
}

func doctorKey(id int64) string {
	return "doctor:" + strconv.FormatInt(id, 10)
}

func lookupError(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, err)
	}
	return apperrors.Internal(fmt.Errorf("failed to get %s: %w", resource, err))
}
