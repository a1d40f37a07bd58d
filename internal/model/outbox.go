package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

// Outbox event types
const (
	EventAppointmentCreated = "appointment.created"
	EventAppointmentUpdated = "appointment.updated"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	RetryAt      *time.Time      `db:"retry_at" json:"retry_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// AppointmentEventPayload is the outbox payload for appointment
// writes. Created distinguishes the "scheduled" from the "updated"
// notification wording.
type AppointmentEventPayload struct {
	AppointmentID uuid.UUID         `json:"appointment_id"`
	PatientID     uuid.UUID         `json:"patient_id"`
	PatientEmail  string            `json:"patient_email,omitempty"`
	PatientName   string            `json:"patient_name,omitempty"`
	DoctorName    string            `json:"doctor_name,omitempty"`
	DateTime      time.Time         `json:"date_time"`
	Status        AppointmentStatus `json:"status"`
	Created       bool              `json:"created"`
}
