package slot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

func newSlot(t *testing.T, store repository.Store) *model.TimeSlot {
	t.Helper()
	slot := &model.TimeSlot{
		DoctorID:  1,
		Date:      time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		StartTime: model.ClockTime(14, 0, 0),
		EndTime:   model.ClockTime(14, 30, 0),
	}
	require.NoError(t, store.TimeSlots().Create(context.Background(), slot))
	return slot
}

func TestAllocator_ReserveReasons(t *testing.T) {
	store := memory.NewStore()
	a := NewAllocator(store, metrics.NewUnregistered("test"))
	ctx := context.Background()
	slot := newSlot(t, store)

	_, err := a.Reserve(ctx, store, slot.ID)
	require.NoError(t, err)

	_, err = a.Reserve(ctx, store, slot.ID)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrSlotUnavailable, appErr.Code)
	assert.Equal(t, reasonBooked, appErr.Details["reason"])

	_, err = a.Reserve(ctx, store, 404)
	appErr, ok = apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, reasonMissing, appErr.Details["reason"])
}

func TestAllocator_ConcurrentReserve(t *testing.T) {
	store := memory.NewStore()
	a := NewAllocator(store, metrics.NewUnregistered("test"))
	slot := newSlot(t, store)

	const callers = 16
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.WithTx(context.Background(), func(tx repository.Store) error {
				_, err := a.Reserve(context.Background(), tx, slot.ID)
				return err
			})
		}()
	}
	wg.Wait()
	close(errs)

	var ok, unavailable int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case apperrors.HasCode(err, apperrors.ErrSlotUnavailable):
			unavailable++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, callers-1, unavailable)
}

func TestAllocator_ReleaseThenListAvailable(t *testing.T) {
	store := memory.NewStore()
	a := NewAllocator(store, metrics.NewUnregistered("test"))
	ctx := context.Background()
	slot := newSlot(t, store)

	_, err := a.Reserve(ctx, store, slot.ID)
	require.NoError(t, err)

	views, err := a.ListAvailable(ctx, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, views)

	require.NoError(t, a.Release(ctx, store, slot.ID))
	require.NoError(t, a.Release(ctx, store, 999))

	views, err = a.ListAvailable(ctx, 1, nil)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "2024-07-01", views[0].Date)
	assert.Equal(t, "14:00:00", views[0].StartTime)
}
