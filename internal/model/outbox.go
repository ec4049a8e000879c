package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusProcessed OutboxStatus = "processed"
	OutboxStatusRetry     OutboxStatus = "retry"
	OutboxStatusFailed    OutboxStatus = "failed"
)

const (
	EventAppointmentCreated   = "appointment.created"
	EventAppointmentConfirmed = "appointment.confirmed"
	EventAppointmentDeclined  = "appointment.declined"
	EventAppointmentDeleted   = "appointment.deleted"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
}

// AppointmentEvent is the payload of every appointment.* outbox event
type AppointmentEvent struct {
	AppointmentID int64             `json:"appointment_id"`
	PatientID     int64             `json:"patient_id"`
	DoctorID      int64             `json:"doctor_id"`
	TimeSlotID    *int64            `json:"time_slot_id,omitempty"`
	Status        AppointmentStatus `json:"status"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// NewOutboxEvent builds a pending event for an appointment mutation
func NewOutboxEvent(eventType string, appt *Appointment) (*OutboxEvent, error) {
	payload, err := json.Marshal(AppointmentEvent{
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		DoctorID:      appt.DoctorID,
		TimeSlotID:    appt.TimeSlotID,
		Status:        appt.Status,
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   payload,
		Status:    OutboxStatusPending,
		CreatedAt: time.Now().UTC(),
	}, nil
}
