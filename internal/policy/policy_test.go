package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/careloop/booking-api/internal/model"
)

func userWithRole(role model.Role) *model.User {
	return &model.User{
		Base: model.Base{ID: uuid.New()},
		Role: role,
	}
}

func appointmentFor(patient, doctor *model.User) *model.Appointment {
	return &model.Appointment{
		Base:      model.Base{ID: uuid.New()},
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		Status:    model.AppointmentStatusScheduled,
	}
}

func TestCanViewAppointment(t *testing.T) {
	patient := userWithRole(model.RolePatient)
	doctor := userWithRole(model.RoleDoctor)
	staff := userWithRole(model.RoleStaff)
	otherPatient := userWithRole(model.RolePatient)
	otherDoctor := userWithRole(model.RoleDoctor)
	unassigned := userWithRole(model.RoleUnassigned)

	apt := appointmentFor(patient, doctor)

	assert.True(t, CanViewAppointment(staff, apt))
	assert.True(t, CanViewAppointment(patient, apt))
	assert.True(t, CanViewAppointment(doctor, apt))
	assert.False(t, CanViewAppointment(otherPatient, apt))
	assert.False(t, CanViewAppointment(otherDoctor, apt))
	assert.False(t, CanViewAppointment(unassigned, apt))
}

func TestCanEditAppointment(t *testing.T) {
	patient := userWithRole(model.RolePatient)
	doctor := userWithRole(model.RoleDoctor)
	staff := userWithRole(model.RoleStaff)
	otherDoctor := userWithRole(model.RoleDoctor)

	apt := appointmentFor(patient, doctor)

	assert.True(t, CanEditAppointment(staff, apt))
	assert.True(t, CanEditAppointment(doctor, apt))
	assert.False(t, CanEditAppointment(otherDoctor, apt))
	// Patients never hold the generic write permission, even on their
	// own appointments.
	assert.False(t, CanEditAppointment(patient, apt))
}

func TestCanCreateAppointment(t *testing.T) {
	assert.True(t, CanCreateAppointment(userWithRole(model.RolePatient)))
	assert.False(t, CanCreateAppointment(userWithRole(model.RoleDoctor)))
	assert.False(t, CanCreateAppointment(userWithRole(model.RoleStaff)))
	assert.False(t, CanCreateAppointment(userWithRole(model.RoleUnassigned)))
}

func TestCanSubmitFeedback(t *testing.T) {
	patient := userWithRole(model.RolePatient)
	doctor := userWithRole(model.RoleDoctor)
	staff := userWithRole(model.RoleStaff)
	otherPatient := userWithRole(model.RolePatient)

	apt := appointmentFor(patient, doctor)

	assert.True(t, CanSubmitFeedback(patient, apt))
	assert.False(t, CanSubmitFeedback(otherPatient, apt))
	assert.False(t, CanSubmitFeedback(doctor, apt))
	assert.False(t, CanSubmitFeedback(staff, apt))
}

func TestScopeFor(t *testing.T) {
	patient := userWithRole(model.RolePatient)
	doctor := userWithRole(model.RoleDoctor)
	staff := userWithRole(model.RoleStaff)
	unassigned := userWithRole(model.RoleUnassigned)

	staffScope := ScopeFor(staff)
	assert.True(t, staffScope.All)
	assert.False(t, staffScope.Empty())

	patientScope := ScopeFor(patient)
	assert.False(t, patientScope.All)
	if assert.NotNil(t, patientScope.PatientID) {
		assert.Equal(t, patient.ID, *patientScope.PatientID)
	}
	assert.Nil(t, patientScope.DoctorID)

	doctorScope := ScopeFor(doctor)
	if assert.NotNil(t, doctorScope.DoctorID) {
		assert.Equal(t, doctor.ID, *doctorScope.DoctorID)
	}

	assert.True(t, ScopeFor(unassigned).Empty())
}
