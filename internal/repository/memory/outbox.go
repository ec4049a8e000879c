package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type outboxRepository struct {
	s *Store
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	defer r.s.lock()()
	d := r.s.data()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.Status == "" {
		event.Status = model.OutboxStatusPending
	}
	d.outbox[event.ID] = *event
	d.outboxOrder = append(d.outboxOrder, event.ID)
	return nil
}

func (r *outboxRepository) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	defer r.s.lock()()
	d := r.s.data()

	out := []*model.OutboxEvent{}
	for _, id := range d.outboxOrder {
		if len(out) >= limit {
			break
		}
		ev, ok := d.outbox[id]
		if !ok {
			continue
		}
		if ev.Status == model.OutboxStatusPending || ev.Status == model.OutboxStatusRetry {
			c := ev
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *outboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error {
	defer r.s.lock()()
	d := r.s.data()

	ev, ok := d.outbox[id]
	if !ok {
		return repository.ErrNotFound
	}
	ev.Status = status
	ev.ErrorMessage = errorMessage
	switch status {
	case model.OutboxStatusRetry, model.OutboxStatusFailed:
		ev.RetryCount++
	case model.OutboxStatusProcessed:
		now := time.Now().UTC()
		ev.ProcessedAt = &now
	}
	d.outbox[id] = ev
	return nil
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	defer r.s.lock()()
	d := r.s.data()

	var deleted int64
	kept := d.outboxOrder[:0]
	for _, id := range d.outboxOrder {
		ev := d.outbox[id]
		if ev.Status == model.OutboxStatusProcessed && ev.ProcessedAt != nil && ev.ProcessedAt.Before(before) {
			delete(d.outbox, id)
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	d.outboxOrder = kept
	return deleted, nil
}
