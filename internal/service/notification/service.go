package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/careloop/booking-api/internal/email"
	"github.com/careloop/booking-api/internal/model"
	"github.com/careloop/booking-api/pkg/logger"
	"github.com/careloop/booking-api/pkg/metrics"
)

// Service turns appointment outbox events into patient emails. It runs
// from the outbox worker, decoupled from the request that produced the
// write.
type Service struct {
	emailSvc email.Service
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewService(emailSvc email.Service, logger *logger.Logger, metrics *metrics.Metrics) *Service {
	return &Service{
		emailSvc: emailSvc,
		logger:   logger,
		metrics:  metrics,
	}
}

// HandleEvent dispatches the notification for an appointment event.
// Events without a patient email no-op; the event still counts as
// handled.
func (s *Service) HandleEvent(ctx context.Context, evt *model.OutboxEvent) error {
	switch evt.EventType {
	case model.EventAppointmentCreated, model.EventAppointmentUpdated:
	default:
		// Not a notification-bearing event.
		return nil
	}

	var payload model.AppointmentEventPayload
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode appointment event payload: %w", err)
	}

	if payload.PatientEmail == "" {
		s.logger.Warn("appointment notification skipped, no patient email",
			"appointment_id", payload.AppointmentID.String())
		return nil
	}

	subject, body := composeMessage(&payload)
	if err := s.emailSvc.SendCustom(ctx, payload.PatientEmail, subject, body); err != nil {
		s.metrics.NotificationsFailed.Inc()
		return fmt.Errorf("failed to send appointment notification: %w", err)
	}

	s.metrics.NotificationsSent.Inc()
	s.logger.Info("appointment notification sent",
		"appointment_id", payload.AppointmentID.String(),
		"created", payload.Created)
	return nil
}

func composeMessage(p *model.AppointmentEventPayload) (subject, body string) {
	when := p.DateTime.Format("2006-01-02 at 15:04")
	if p.Created {
		subject = "New Appointment Scheduled"
		body = fmt.Sprintf("An appointment has been scheduled with Dr. %s on %s.", p.DoctorName, when)
	} else {
		subject = "Appointment Updated"
		body = fmt.Sprintf("Your appointment with Dr. %s has been updated, now on %s (status: %s).", p.DoctorName, when, p.Status)
	}
	return subject, body
}
