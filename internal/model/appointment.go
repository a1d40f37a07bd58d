package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "SCHEDULED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

// Appointment references its patient and doctor by identity; it does
// not own the user records.
type Appointment struct {
	Base
	PatientID uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	DateTime  time.Time         `db:"date_time" json:"date_time"`
	Status    AppointmentStatus `db:"status" json:"status"`
	Notes     *string           `db:"notes" json:"notes,omitempty"`
}

// CreateAppointmentRequest represents booking parameters. The patient
// is never client-supplied; it is bound to the authenticated actor. A
// client-supplied status is ignored: new appointments always start
// SCHEDULED.
type CreateAppointmentRequest struct {
	DoctorID uuid.UUID         `json:"doctor_id" binding:"required"`
	DateTime time.Time         `json:"date_time" binding:"required"`
	Status   AppointmentStatus `json:"status" binding:"omitempty,oneof=SCHEDULED COMPLETED CANCELLED"`
	Notes    *string           `json:"notes"`
}

// UpdateAppointmentRequest represents a generic partial update. Any
// status in the enum is settable by an authorized writer.
type UpdateAppointmentRequest struct {
	DateTime *time.Time         `json:"date_time"`
	Status   *AppointmentStatus `json:"status" binding:"omitempty,oneof=SCHEDULED COMPLETED CANCELLED"`
	Notes    *string            `json:"notes"`
}

// RescheduleRequest carries the replacement date-time
type RescheduleRequest struct {
	NewDateTime time.Time `json:"new_date_time" binding:"required"`
}

// AppointmentFilters represents appointment listing parameters,
// applied after role scoping.
type AppointmentFilters struct {
	Status    AppointmentStatus `form:"status"`
	StartDate time.Time         `form:"start_date"`
	EndDate   time.Time         `form:"end_date"`
}

// UserSummary is the identity summary embedded in appointment
// responses.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  Role      `json:"role"`
}

// AppointmentResponse expands the patient and doctor references
type AppointmentResponse struct {
	*Appointment
	Patient *UserSummary `json:"patient,omitempty"`
	Doctor  *UserSummary `json:"doctor,omitempty"`
}
