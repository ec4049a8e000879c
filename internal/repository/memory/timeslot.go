package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type timeSlotRepository struct {
	s *Store
}

func (r *timeSlotRepository) Create(ctx context.Context, slot *model.TimeSlot) error {
	defer r.s.lock()()
	d := r.s.data()

	if slot.Status == "" {
		slot.Status = model.SlotStatusAvailable
	}
	slot.ID = d.next("time_slots")
	d.slots[slot.ID] = *slot
	return nil
}

func (r *timeSlotRepository) Get(ctx context.Context, id int64) (*model.TimeSlot, error) {
	defer r.s.lock()()

	slot, ok := r.s.data().slots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &slot, nil
}

func (r *timeSlotRepository) Reserve(ctx context.Context, id int64) (*model.TimeSlot, error) {
	defer r.s.lock()()
	d := r.s.data()

	slot, ok := d.slots[id]
	if !ok || slot.Status != model.SlotStatusAvailable {
		return nil, repository.ErrSlotUnavailable
	}
	slot.Status = model.SlotStatusBooked
	d.slots[id] = slot
	return &slot, nil
}

func (r *timeSlotRepository) Release(ctx context.Context, id int64) error {
	defer r.s.lock()()
	d := r.s.data()

	if slot, ok := d.slots[id]; ok {
		slot.Status = model.SlotStatusAvailable
		d.slots[id] = slot
	}
	return nil
}

func (r *timeSlotRepository) ListAvailable(ctx context.Context, doctorID int64, date *time.Time) ([]*model.TimeSlot, error) {
	defer r.s.lock()()

	out := []*model.TimeSlot{}
	for _, slot := range r.s.data().slots {
		if slot.DoctorID != doctorID || slot.Status != model.SlotStatusAvailable {
			continue
		}
		if date != nil && slot.Date.Format(model.DateLayout) != date.Format(model.DateLayout) {
			continue
		}
		s := slot
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}
