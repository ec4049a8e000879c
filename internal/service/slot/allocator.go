// Package slot owns the booked/available state of doctor time slots.
package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

const (
	reasonMissing = "time slot does not exist"
	reasonBooked  = "time slot is already booked"
)

type Allocator struct {
	store   repository.Store
	metrics *metrics.Metrics
}

func NewAllocator(store repository.Store, metrics *metrics.Metrics) *Allocator {
	return &Allocator{store: store, metrics: metrics}
}

// Reserve books the slot through tx. Of any number of concurrent callers
// for one available slot exactly one succeeds; the others get a
// slot_unavailable error.
func (a *Allocator) Reserve(ctx context.Context, tx repository.Store, slotID int64) (*model.TimeSlot, error) {
	slot, err := tx.TimeSlots().Reserve(ctx, slotID)
	if err == nil {
		return slot, nil
	}
	if !errors.Is(err, repository.ErrSlotUnavailable) {
		return nil, fmt.Errorf("failed to reserve time slot: %w", err)
	}

	reason := reasonBooked
	if _, getErr := tx.TimeSlots().Get(ctx, slotID); errors.Is(getErr, repository.ErrNotFound) {
		reason = reasonMissing
	}
	return nil, apperrors.SlotUnavailable(slotID, reason)
}

// Release makes the slot bookable again. Releasing a missing or already
// available slot is a no-op.
func (a *Allocator) Release(ctx context.Context, tx repository.Store, slotID int64) error {
	if err := tx.TimeSlots().Release(ctx, slotID); err != nil {
		return fmt.Errorf("failed to release time slot: %w", err)
	}
	a.metrics.SlotReleases.Inc()
	return nil
}

func (a *Allocator) ListAvailable(ctx context.Context, doctorID int64, date *time.Time) ([]model.SlotView, error) {
	slots, err := a.store.TimeSlots().ListAvailable(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list time slots: %w", err)
	}
	views := make([]model.SlotView, 0, len(slots))
	for _, s := range slots {
		views = append(views, s.View())
	}
	return views, nil
}
