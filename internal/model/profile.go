package model

import (
	"time"

	"github.com/google/uuid"
)

// Specialization is a fixed set of doctor specializations
type Specialization string

const (
	SpecializationGeneral     Specialization = "GP"
	SpecializationCardiology  Specialization = "CARD"
	SpecializationDermatology Specialization = "DERM"
	SpecializationOrthopedics Specialization = "ORTH"
	SpecializationNeurology   Specialization = "NEUR"
	SpecializationDental      Specialization = "DENT"
)

func (s Specialization) Valid() bool {
	switch s {
	case SpecializationGeneral, SpecializationCardiology, SpecializationDermatology,
		SpecializationOrthopedics, SpecializationNeurology, SpecializationDental:
		return true
	}
	return false
}

// PatientProfile is owned one-to-one by a user with the patient role
type PatientProfile struct {
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	ImageURL    *string    `json:"image_url,omitempty" db:"image_url"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// DoctorProfile is owned one-to-one by a user with the doctor role
type DoctorProfile struct {
	UserID         uuid.UUID      `json:"user_id" db:"user_id"`
	Specialization Specialization `json:"specialization" db:"specialization"`
	Availability   bool           `json:"availability" db:"availability"`
	ImageURL       *string        `json:"image_url,omitempty" db:"image_url"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// UpdatePatientProfile represents patient profile updates
type UpdatePatientProfile struct {
	DateOfBirth *time.Time `json:"date_of_birth"`
	ImageURL    *string    `json:"image_url"`
}

// UpdateDoctorProfile represents doctor profile updates
type UpdateDoctorProfile struct {
	Specialization *Specialization `json:"specialization" binding:"omitempty,oneof=GP CARD DERM ORTH NEUR DENT"`
	Availability   *bool           `json:"availability"`
	ImageURL       *string         `json:"image_url"`
}

// DoctorFilters represents doctor listing parameters
type DoctorFilters struct {
	Specialization Specialization `form:"specialization"`
	AvailableOnly  bool           `form:"available"`
}
