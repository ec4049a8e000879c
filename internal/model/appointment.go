package model

import (
	"fmt"
	"time"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusDeclined  AppointmentStatus = "declined"
)

// ParseAppointmentStatus converts raw input into a known status
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	switch status := AppointmentStatus(s); status {
	case AppointmentStatusPending, AppointmentStatusConfirmed,
		AppointmentStatusCompleted, AppointmentStatusDeclined:
		return status, nil
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}

type Appointment struct {
	Base
	PatientID  int64             `db:"patient_id" json:"patient_id"`
	DoctorID   int64             `db:"doctor_id" json:"doctor_id"`
	TimeSlotID *int64            `db:"time_slot_id" json:"time_slot_id"`
	Status     AppointmentStatus `db:"status" json:"status"`
	QRCodeURL  *string           `db:"qr_code_url" json:"qr_code_url"`
}

type CreateAppointmentRequest struct {
	PatientID  int64 `json:"patient_id" binding:"required,gt=0"`
	DoctorID   int64 `json:"doctor_id" binding:"required,gt=0"`
	TimeSlotID int64 `json:"time_slot_id" binding:"required,gt=0"`
}

type AppointmentFilter struct {
	PatientID *int64
	DoctorID  *int64
	Status    *AppointmentStatus
}

// AppointmentDetail is an appointment joined with its slot, doctor,
// specialty, institution and patient. Joined columns are nil when the
// referenced row is missing.
type AppointmentDetail struct {
	AppointmentID int64             `db:"appointment_id"`
	Status        AppointmentStatus `db:"status"`
	QRCodeURL     *string           `db:"qr_code_url"`
	DoctorID      int64             `db:"doctor_id"`
	PatientID     int64             `db:"patient_id"`

	SlotDate      *time.Time `db:"slot_date"`
	SlotStartTime *time.Time `db:"slot_start_time"`
	SlotEndTime   *time.Time `db:"slot_end_time"`

	DoctorFirstName *string `db:"doctor_first_name"`
	DoctorLastName  *string `db:"doctor_last_name"`
	DoctorPhotoURL  *string `db:"doctor_photo_url"`
	SpecialtyLabel  *string `db:"specialty_label"`

	InstitutionAddress   *string  `db:"institution_address"`
	InstitutionLatitude  *float64 `db:"institution_latitude"`
	InstitutionLongitude *float64 `db:"institution_longitude"`

	PatientExists    bool    `db:"patient_exists"`
	PatientFirstName *string `db:"patient_first_name"`
	PatientLastName  *string `db:"patient_last_name"`
	PatientPhotoURL  *string `db:"patient_photo_url"`
}
