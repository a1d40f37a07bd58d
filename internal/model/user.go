package model

import (
	"time"
)

// Role is a closed enumeration of the roles a user can hold. A user
// starts unassigned and may be assigned patient or doctor exactly once;
// staff is set at provisioning time and never through the public API.
type Role string

const (
	RoleUnassigned Role = "unassigned"
	RolePatient    Role = "patient"
	RoleDoctor     Role = "doctor"
	RoleStaff      Role = "staff"
)

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUnassigned, RolePatient, RoleDoctor, RoleStaff:
		return true
	}
	return false
}

// Assignable reports whether r can be chosen during registration or
// role selection. Staff accounts are provisioned out of band.
func (r Role) Assignable() bool {
	return r == RolePatient || r == RoleDoctor
}

// User represents a system identity
type User struct {
	Base
	Email         string     `json:"email" db:"email"`
	Name          string     `json:"name" db:"name"`
	PasswordHash  string     `json:"-" db:"password_hash"`
	Role          Role       `json:"role" db:"role"`
	EmailVerified bool       `json:"email_verified" db:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
}

// Summary returns the identity summary embedded in appointment
// responses.
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}
}

// RegisterRequest represents registration parameters. Role is
// optional; users signing in via a federated provider pick one later.
type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Name            string `json:"name" binding:"required"`
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" binding:"required,eqfield=Password"`
	Role            Role   `json:"role" binding:"omitempty,oneof=patient doctor"`
}

// LoginRequest represents login parameters
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// FederatedSignInRequest carries the provider ID token. Verification
// is delegated to the configured identity verifier.
type FederatedSignInRequest struct {
	Token string `json:"token" binding:"required"`
}

// SetRoleRequest represents one-time role selection
type SetRoleRequest struct {
	Role Role `json:"role" binding:"required,oneof=patient doctor"`
}

// UpdateUserRequest represents user self-service updates
type UpdateUserRequest struct {
	Name           *string               `json:"name"`
	PatientProfile *UpdatePatientProfile `json:"patient_profile"`
	DoctorProfile  *UpdateDoctorProfile  `json:"doctor_profile"`
}

// UserResponse is the user representation with the role profile
// embedded when one exists.
type UserResponse struct {
	*User
	PatientProfile *PatientProfile `json:"patient_profile,omitempty"`
	DoctorProfile  *DoctorProfile  `json:"doctor_profile,omitempty"`
}
