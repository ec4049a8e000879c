package model

import (
	"time"
)

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusBooked    SlotStatus = "booked"
)

// TimeSlot is a bookable window on a doctor's calendar. StartTime and
// EndTime carry only the clock part.
type TimeSlot struct {
	ID        int64      `db:"id" json:"id"`
	DoctorID  int64      `db:"doctor_id" json:"doctor_id"`
	Date      time.Time  `db:"date" json:"date"`
	StartTime time.Time  `db:"start_time" json:"start_time"`
	EndTime   time.Time  `db:"end_time" json:"end_time"`
	Status    SlotStatus `db:"status" json:"status"`
}

// SlotView is the wire shape of a time slot
type SlotView struct {
	ID        int64      `json:"id"`
	DoctorID  int64      `json:"doctor_id"`
	Date      string     `json:"date"`
	StartTime string     `json:"start_time"`
	EndTime   string     `json:"end_time"`
	Status    SlotStatus `json:"status"`
}

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04:05"
)

func (s *TimeSlot) View() SlotView {
	return SlotView{
		ID:        s.ID,
		DoctorID:  s.DoctorID,
		Date:      s.Date.Format(DateLayout),
		StartTime: s.StartTime.Format(ClockLayout),
		EndTime:   s.EndTime.Format(ClockLayout),
		Status:    s.Status,
	}
}

// ClockTime builds a time value holding only hour, minute and second
func ClockTime(hour, min, sec int) time.Time {
	return time.Date(0, time.January, 1, hour, min, sec, 0, time.UTC)
}
