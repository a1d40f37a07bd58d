package appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/booking-api/internal/model"
	"github.com/careloop/booking-api/internal/policy"
	"github.com/careloop/booking-api/internal/repository"
	apperrors "github.com/careloop/booking-api/pkg/errors"
)

// Service implements the appointment lifecycle. SCHEDULED is the
// initial state; COMPLETED and CANCELLED are terminal. Cancel is
// idempotent. Reschedule leaves status untouched, including for
// cancelled or completed appointments.
type Service struct {
	repo     repository.AppointmentRepository
	userRepo repository.UserRepository
}

func NewService(repo repository.AppointmentRepository, userRepo repository.UserRepository) *Service {
	return &Service{
		repo:     repo,
		userRepo: userRepo,
	}
}

// Create books a new appointment. Only patients may book; the patient
// reference is always the actor, never client-supplied, and the
// status starts SCHEDULED regardless of the request payload.
func (s *Service) Create(ctx context.Context, actor *model.User, req *model.CreateAppointmentRequest) (*model.AppointmentResponse, error) {
	if !policy.CanCreateAppointment(actor) {
		return nil, apperrors.BadRequest("only patients can book appointments", nil)
	}

	doctor, err := s.userRepo.Get(ctx, req.DoctorID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.BadRequest("doctor not found", err)
		}
		return nil, fmt.Errorf("failed to look up doctor: %w", err)
	}
	if doctor.Role != model.RoleDoctor {
		return nil, apperrors.BadRequest("referenced user is not a doctor", nil)
	}

	apt := &model.Appointment{
		PatientID: actor.ID,
		DoctorID:  doctor.ID,
		DateTime:  req.DateTime,
		Status:    model.AppointmentStatusScheduled,
		Notes:     req.Notes,
	}

	evt, err := buildEvent(apt, actor, doctor, true)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateWithEvent(ctx, apt, evt); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	return &model.AppointmentResponse{
		Appointment: apt,
		Patient:     actor.Summary(),
		Doctor:      doctor.Summary(),
	}, nil
}

// Get returns the appointment when the actor may view it. An
// appointment outside the actor's scope reads as not found.
func (s *Service) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewAppointment(actor, apt) {
		return nil, apperrors.NotFound("appointment", nil)
	}
	return apt, nil
}

// List returns appointments scoped to the actor: staff see all,
// patients and doctors their own, anyone else nothing.
func (s *Service) List(ctx context.Context, actor *model.User, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	appointments, err := s.repo.List(ctx, policy.ScopeFor(actor), filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// Cancel sets the status to CANCELLED unconditionally: cancelling an
// already cancelled or completed appointment succeeds and leaves it
// cancelled. A doctor may only cancel their own appointments; that is
// re-checked here distinct from the generic write rule.
func (s *Service) Cancel(ctx context.Context, actor *model.User, id uuid.UUID) error {
	apt, err := s.getForAction(ctx, actor, id)
	if err != nil {
		return err
	}

	apt.Status = model.AppointmentStatusCancelled

	evt, err := s.eventFor(ctx, apt, false)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateWithEvent(ctx, apt, evt); err != nil {
		return fmt.Errorf("failed to cancel appointment: %w", err)
	}
	return nil
}

// Reschedule overwrites the date-time and leaves the status as it is,
// even for cancelled or completed appointments.
func (s *Service) Reschedule(ctx context.Context, actor *model.User, id uuid.UUID, newDateTime time.Time) error {
	if newDateTime.IsZero() {
		return apperrors.BadRequest("new date and time are required", nil)
	}

	apt, err := s.getForAction(ctx, actor, id)
	if err != nil {
		return err
	}

	apt.DateTime = newDateTime

	evt, err := s.eventFor(ctx, apt, false)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateWithEvent(ctx, apt, evt); err != nil {
		return fmt.Errorf("failed to reschedule appointment: %w", err)
	}
	return nil
}

// Update applies a generic partial update. Any status in the enum is
// settable by an authorized writer.
func (s *Service) Update(ctx context.Context, actor *model.User, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewAppointment(actor, apt) {
		return nil, apperrors.NotFound("appointment", nil)
	}
	if !policy.CanEditAppointment(actor, apt) {
		return nil, apperrors.Forbidden("you cannot modify this appointment", nil)
	}

	if req.DateTime != nil {
		apt.DateTime = *req.DateTime
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, apperrors.BadRequest("invalid appointment status", nil)
		}
		apt.Status = *req.Status
	}
	if req.Notes != nil {
		apt.Notes = req.Notes
	}

	evt, err := s.eventFor(ctx, apt, false)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateWithEvent(ctx, apt, evt); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	return apt, nil
}

// Delete removes the appointment, guarded by the generic write rule.
func (s *Service) Delete(ctx context.Context, actor *model.User, id uuid.UUID) error {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanViewAppointment(actor, apt) {
		return apperrors.NotFound("appointment", nil)
	}
	if !policy.CanEditAppointment(actor, apt) {
		return apperrors.Forbidden("you cannot delete this appointment", nil)
	}
	return s.repo.Delete(ctx, id)
}

// getForAction loads the appointment and applies the cancel and
// reschedule precondition: a doctor actor must be the appointment's
// assigned doctor, otherwise the action is forbidden even though the
// doctor role would pass the generic edit rule elsewhere.
func (s *Service) getForAction(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewAppointment(actor, apt) {
		return nil, apperrors.NotFound("appointment", nil)
	}
	if actor.Role == model.RoleDoctor && apt.DoctorID != actor.ID {
		return nil, apperrors.Forbidden("you can only manage your own appointments", nil)
	}
	if !policy.CanEditAppointment(actor, apt) && actor.Role != model.RolePatient {
		return nil, apperrors.Forbidden("you cannot modify this appointment", nil)
	}
	return apt, nil
}

// eventFor builds the outbox payload for an appointment write,
// resolving the participants for the notification wording.
func (s *Service) eventFor(ctx context.Context, apt *model.Appointment, created bool) (*model.OutboxEvent, error) {
	patient, err := s.userRepo.Get(ctx, apt.PatientID)
	if err != nil {
		// The notification hook no-ops when the patient is missing;
		// the write itself proceeds.
		patient = nil
	}

	doctor, err := s.userRepo.Get(ctx, apt.DoctorID)
	if err != nil {
		doctor = nil
	}

	return buildEvent(apt, patient, doctor, created)
}

func buildEvent(apt *model.Appointment, patient, doctor *model.User, created bool) (*model.OutboxEvent, error) {
	payload := model.AppointmentEventPayload{
		AppointmentID: apt.ID,
		PatientID:     apt.PatientID,
		DateTime:      apt.DateTime,
		Status:        apt.Status,
		Created:       created,
	}
	if patient != nil {
		payload.PatientEmail = patient.Email
		payload.PatientName = patient.Name
	}
	if doctor != nil {
		payload.DoctorName = doctor.Name
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	eventType := model.EventAppointmentUpdated
	if created {
		eventType = model.EventAppointmentCreated
	}

	return &model.OutboxEvent{
		EventType: eventType,
		Payload:   raw,
	}, nil
}
