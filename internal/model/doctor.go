package model

import (
	"fmt"
	"time"
)

type Doctor struct {
	Base
	FirstName           string  `db:"first_name" json:"first_name"`
	LastName            string  `db:"last_name" json:"last_name"`
	Email               string  `db:"email" json:"email"`
	Phone               *string `db:"phone" json:"phone"`
	Address             *string `db:"address" json:"address"`
	PhotoURL            *string `db:"photo_url" json:"photo_url"`
	ContactEmail        *string `db:"contact_email" json:"contact_email"`
	ContactPhone        *string `db:"contact_phone" json:"contact_phone"`
	SpecialtyID         *int64  `db:"specialty_id" json:"specialty_id"`
	HealthInstitutionID *int64  `db:"health_institution_id" json:"health_institution_id"`
	PasswordHash        *string `db:"password_hash" json:"-"`
}

type Period string

const (
	PeriodMorning Period = "morning"
	PeriodEvening Period = "evening"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case PeriodMorning, PeriodEvening:
		return p, nil
	}
	return "", fmt.Errorf("unknown working hours period %q", s)
}

// WorkingHours is unique per (doctor, day of week, period). Day 0 is Sunday.
type WorkingHours struct {
	ID        int64     `db:"id" json:"id"`
	DoctorID  int64     `db:"doctor_id" json:"doctor_id"`
	DayOfWeek int       `db:"day_of_week" json:"day_of_week"`
	Period    Period    `db:"period" json:"period"`
	StartTime time.Time `db:"start_time" json:"-"`
	EndTime   time.Time `db:"end_time" json:"-"`
}

type WorkingHoursRequest struct {
	DayOfWeek int    `json:"day_of_week" binding:"min=0,max=6"`
	Period    Period `json:"period" binding:"required,oneof=morning evening"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

type UpdateDoctorRequest struct {
	FirstName           *string               `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName            *string               `json:"last_name" binding:"omitempty,min=1,max=100"`
	Email               *string               `json:"email" binding:"omitempty,email"`
	Phone               *string               `json:"phone" binding:"omitempty,max=20"`
	Address             *string               `json:"address"`
	PhotoURL            *string               `json:"photo_url" binding:"omitempty,url"`
	ContactEmail        *string               `json:"contact_email" binding:"omitempty,email"`
	ContactPhone        *string               `json:"contact_phone" binding:"omitempty,max=20"`
	SpecialtyID         *int64                `json:"specialty_id" binding:"omitempty,gt=0"`
	HealthInstitutionID *int64                `json:"health_institution_id" binding:"omitempty,gt=0"`
	Password            *string               `json:"password" binding:"omitempty,min=8"`
	WorkingHours        []WorkingHoursRequest `json:"working_hours" binding:"omitempty,dive"`
}

// DoctorProfile is a doctor with the working hours configured for them
type DoctorProfile struct {
	*Doctor
	WorkingHours []WorkingHoursView `json:"working_hours"`
}

type WorkingHoursView struct {
	DayOfWeek int    `json:"day_of_week"`
	Period    Period `json:"period"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (w *WorkingHours) View() WorkingHoursView {
	return WorkingHoursView{
		DayOfWeek: w.DayOfWeek,
		Period:    w.Period,
		StartTime: w.StartTime.Format(ClockLayout),
		EndTime:   w.EndTime.Format(ClockLayout),
	}
}
