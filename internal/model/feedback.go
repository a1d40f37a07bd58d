package model

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentFeedback is owned one-to-one by its appointment: at most
// one feedback row per appointment.
type AppointmentFeedback struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	Rating        int       `db:"rating" json:"rating"`
	Comment       *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// CreateFeedbackRequest represents feedback submission parameters
type CreateFeedbackRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id" binding:"required"`
	Rating        int       `json:"rating" binding:"required,min=1,max=5"`
	Comment       *string   `json:"comment"`
}

// AverageRatingResponse carries the mean rating for a doctor, null
// when no feedback is visible to the caller.
type AverageRatingResponse struct {
	DoctorID      uuid.UUID `json:"doctor_id"`
	AverageRating *float64  `json:"average_rating"`
}
