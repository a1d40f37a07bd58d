// Package policy decides, given an actor and a target appointment or
// feedback row, whether an action is permitted. Functions here are
// pure; list queries apply the same rules through Scope.
package policy

import (
	"github.com/google/uuid"

	"github.com/careloop/booking-api/internal/model"
)

// CanViewAppointment reports read access: staff always, patient only
// for their own appointments, doctor only for appointments assigned
// to them.
func CanViewAppointment(actor *model.User, apt *model.Appointment) bool {
	switch actor.Role {
	case model.RoleStaff:
		return true
	case model.RolePatient:
		return apt.PatientID == actor.ID
	case model.RoleDoctor:
		return apt.DoctorID == actor.ID
	default:
		return false
	}
}

// CanEditAppointment reports write access (update, cancel, reschedule,
// delete): staff always, doctor only for their own appointments,
// patients never after creation.
func CanEditAppointment(actor *model.User, apt *model.Appointment) bool {
	switch actor.Role {
	case model.RoleStaff:
		return true
	case model.RoleDoctor:
		return apt.DoctorID == actor.ID
	default:
		return false
	}
}

// CanCreateAppointment reports creation eligibility: only patients
// book appointments. Violations surface as validation errors, not
// permission errors, since the defect is detected during input
// validation.
func CanCreateAppointment(actor *model.User) bool {
	return actor.Role == model.RolePatient
}

// CanSubmitFeedback reports whether the actor may create feedback for
// the appointment: only the patient the appointment references.
func CanSubmitFeedback(actor *model.User, apt *model.Appointment) bool {
	return actor.ID == apt.PatientID
}

// CanViewFeedback reports feedback read access, derived from the
// appointment the feedback belongs to.
func CanViewFeedback(actor *model.User, apt *model.Appointment) bool {
	return CanViewAppointment(actor, apt)
}

// Scope describes the appointment rows (and by extension the feedback
// rows) visible to an actor. A zero scope matches nothing, which is
// what an unassigned actor gets. The average-rating aggregation reuses
// it, so the aggregate covers only the caller's visible subset.
type Scope struct {
	All       bool
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
}

// Empty reports whether the scope matches no rows at all.
func (s Scope) Empty() bool {
	return !s.All && s.PatientID == nil && s.DoctorID == nil
}

// ScopeFor returns the actor's visibility scope.
func ScopeFor(actor *model.User) Scope {
	switch actor.Role {
	case model.RoleStaff:
		return Scope{All: true}
	case model.RolePatient:
		id := actor.ID
		return Scope{PatientID: &id}
	case model.RoleDoctor:
		id := actor.ID
		return Scope{DoctorID: &id}
	default:
		return Scope{}
	}
}
