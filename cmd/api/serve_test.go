package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/config"
	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository/memory"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

func TestStartLocalOutbox_DrainsMemoryStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := memory.NewStore()

	ev, err := model.NewOutboxEvent(model.EventAppointmentCreated, &model.Appointment{Base: model.Base{ID: 1}})
	require.NoError(t, err)
	require.NoError(t, store.Outbox().Create(ctx, ev))

	cfg := config.OutboxConfig{
		BatchSize:       10,
		PollInterval:    5 * time.Millisecond,
		RetryAttempts:   1,
		Retention:       time.Hour,
		CleanupInterval: time.Hour,
	}
	require.NoError(t, startLocalOutbox(ctx, store, cfg, logger.Nop(), metrics.NewUnregistered("test")))

	assert.Eventually(t, func() bool {
		pending, err := store.Outbox().GetPendingEventsWithLock(ctx, 10)
		return err == nil && len(pending) == 0
	}, 2*time.Second, 5*time.Millisecond)

	// processed rows are what the cleanup worker trims
	rows, err := store.Outbox().DeleteProcessedBefore(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
}

func TestStartLocalOutbox_RejectsInvalidConfig(t *testing.T) {
	err := startLocalOutbox(context.Background(), memory.NewStore(), config.OutboxConfig{}, logger.Nop(), metrics.NewUnregistered("test"))
	assert.Error(t, err)
}
