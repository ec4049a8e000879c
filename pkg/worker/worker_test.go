package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository/memory"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

type fakeBroker struct {
	mu        sync.Mutex
	err       error
	published []string
}

func (b *fakeBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, channel)
	return b.err
}

func (b *fakeBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

func (b *fakeBroker) Close() error { return nil }

func TestRetry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	boom := errors.New("boom")
	err = Retry(context.Background(), 2, time.Millisecond, func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Retry(ctx, 5, time.Hour, func() error {
		calls++
		return errors.New("down")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestPool_RunsAndDrains(t *testing.T) {
	pool := NewPool(PoolConfig{Workers: 2, QueueSize: 16}, logger.Nop(), metrics.NewUnregistered("test"))
	pool.Start()

	var ran int32
	for i := 0; i < 10; i++ {
		require.True(t, pool.Submit("count", func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		}))
	}
	pool.Submit("panics", func(ctx context.Context) error { panic("task bug") })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pool.Stop(ctx))
	assert.Equal(t, int32(10), atomic.LoadInt32(&ran))

	assert.False(t, pool.Submit("late", func(ctx context.Context) error { return nil }))
}

func TestPool_DropsWhenFull(t *testing.T) {
	pool := NewPool(PoolConfig{Workers: 1, QueueSize: 1}, logger.Nop(), metrics.NewUnregistered("test"))
	// Not started, so the single queue slot stays occupied
	assert.True(t, pool.Submit("first", func(ctx context.Context) error { return nil }))
	assert.False(t, pool.Submit("second", func(ctx context.Context) error { return nil }))
	require.NoError(t, pool.Stop(context.Background()))
}

func enqueue(t *testing.T, store *memory.Store, eventType string) *model.OutboxEvent {
	t.Helper()
	ev, err := model.NewOutboxEvent(eventType, &model.Appointment{Base: model.Base{ID: 1}, PatientID: 2, DoctorID: 3})
	require.NoError(t, err)
	require.NoError(t, store.Outbox().Create(context.Background(), ev))
	return ev
}

func TestOutboxProcessor_PublishesPending(t *testing.T) {
	store := memory.NewStore()
	broker := &fakeBroker{}
	enqueue(t, store, model.EventAppointmentCreated)
	enqueue(t, store, model.EventAppointmentConfirmed)

	p, err := NewOutboxProcessor(store, broker, OutboxProcessorConfig{
		BatchSize: 10, PollInterval: time.Second, RetryAttempts: 1, RetryDelay: time.Millisecond,
	}, logger.Nop(), metrics.NewUnregistered("test"))
	require.NoError(t, err)

	n, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{model.EventAppointmentCreated, model.EventAppointmentConfirmed}, broker.published)

	pending, err := store.Outbox().GetPendingEventsWithLock(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOutboxProcessor_FailedEventsAreRetriedThenParked(t *testing.T) {
	store := memory.NewStore()
	broker := &fakeBroker{err: errors.New("redis down")}
	enqueue(t, store, model.EventAppointmentDeleted)

	p, err := NewOutboxProcessor(store, broker, OutboxProcessorConfig{
		BatchSize: 10, PollInterval: time.Second, RetryAttempts: 2, RetryDelay: time.Millisecond, MaxDeliveries: 2,
	}, logger.Nop(), metrics.NewUnregistered("test"))
	require.NoError(t, err)
	ctx := context.Background()

	n, err := p.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, broker.published, 2)

	pending, err := store.Outbox().GetPendingEventsWithLock(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, model.OutboxStatusRetry, pending[0].Status)
	assert.Equal(t, 1, pending[0].RetryCount)

	_, err = p.ProcessBatch(ctx)
	require.NoError(t, err)
	pending, err = store.Outbox().GetPendingEventsWithLock(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "event should be marked failed after MaxDeliveries")
}

func TestNewOutboxProcessor_ValidatesConfig(t *testing.T) {
	_, err := NewOutboxProcessor(memory.NewStore(), &fakeBroker{}, OutboxProcessorConfig{}, logger.Nop(), metrics.NewUnregistered("test"))
	assert.Error(t, err)
}

func TestOutboxCleanupWorker(t *testing.T) {
	store := memory.NewStore()
	broker := &fakeBroker{}
	enqueue(t, store, model.EventAppointmentCreated)

	p, err := NewOutboxProcessor(store, broker, OutboxProcessorConfig{
		BatchSize: 10, PollInterval: time.Second, RetryAttempts: 1,
	}, logger.Nop(), metrics.NewUnregistered("test"))
	require.NoError(t, err)
	_, err = p.ProcessBatch(context.Background())
	require.NoError(t, err)

	// A negative retention puts the cutoff in the future
	w := NewOutboxCleanupWorker(store.Outbox(), -time.Minute, time.Hour, logger.Nop())
	rows, err := w.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
}
