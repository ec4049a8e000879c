package memory

import (
	"context"
	"sort"

	"github.com/jwalitptl/booking-api/internal/model"
)

type workingHoursRepository struct {
	s *Store
}

func (r *workingHoursRepository) Upsert(ctx context.Context, hours *model.WorkingHours) error {
	defer r.s.lock()()
	d := r.s.data()

	for id, existing := range d.workingHours {
		if existing.DoctorID == hours.DoctorID && existing.DayOfWeek == hours.DayOfWeek && existing.Period == hours.Period {
			hours.ID = id
			d.workingHours[id] = *hours
			return nil
		}
	}
	hours.ID = d.next("working_hours")
	d.workingHours[hours.ID] = *hours
	return nil
}

func (r *workingHoursRepository) ListByDoctor(ctx context.Context, doctorID int64) ([]*model.WorkingHours, error) {
	defer r.s.lock()()

	out := []*model.WorkingHours{}
	for _, h := range r.s.data().workingHours {
		if h.DoctorID == doctorID {
			c := h
			out = append(out, &c)
		}
	}
	// same order as the SQL store: day ascending, then period descending
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].Period > out[j].Period
	})
	return out, nil
}
