package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/careloop/booking-api/internal/model"
	"github.com/careloop/booking-api/internal/policy"
	apperrors "github.com/careloop/booking-api/pkg/errors"
)

func (r *feedbackRepository) Create(ctx context.Context, feedback *model.AppointmentFeedback) error {
	feedback.ID = uuid.New()
	feedback.CreatedAt = time.Now()

	query := `
		INSERT INTO appointment_feedback (
			id, appointment_id, rating, comment, created_at
		) VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		feedback.ID,
		feedback.AppointmentID,
		feedback.Rating,
		feedback.Comment,
		feedback.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return apperrors.Conflict("feedback already exists for this appointment", err)
		}
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

func (r *feedbackRepository) Get(ctx context.Context, id uuid.UUID) (*model.AppointmentFeedback, error) {
	query := `
		SELECT id, appointment_id, rating, comment, created_at
		FROM appointment_feedback
		WHERE id = $1
	`
	var feedback model.AppointmentFeedback
	err := r.db.GetContext(ctx, &feedback, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("feedback", err)
		}
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}
	return &feedback, nil
}

func (r *feedbackRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.AppointmentFeedback, error) {
	query := `
		SELECT id, appointment_id, rating, comment, created_at
		FROM appointment_feedback
		WHERE appointment_id = $1
	`
	var feedback model.AppointmentFeedback
	err := r.db.GetContext(ctx, &feedback, query, appointmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("feedback", err)
		}
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}
	return &feedback, nil
}

// List returns the feedback rows visible under the caller's scope,
// resolved through the owning appointment.
func (r *feedbackRepository) List(ctx context.Context, scope policy.Scope) ([]*model.AppointmentFeedback, error) {
	if scope.Empty() {
		return []*model.AppointmentFeedback{}, nil
	}

	query := `
		SELECT f.id, f.appointment_id, f.rating, f.comment, f.created_at
		FROM appointment_feedback f
		JOIN appointments a ON a.id = f.appointment_id
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if scope.PatientID != nil {
		query += fmt.Sprintf(" AND a.patient_id = $%d", argCount)
		args = append(args, *scope.PatientID)
		argCount++
	}
	if scope.DoctorID != nil {
		query += fmt.Sprintf(" AND a.doctor_id = $%d", argCount)
		args = append(args, *scope.DoctorID)
		argCount++
	}

	query += " ORDER BY f.created_at DESC"

	var feedback []*model.AppointmentFeedback
	err := r.db.SelectContext(ctx, &feedback, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return feedback, nil
}

// AverageRatingForDoctor computes the mean rating over the feedback
// rows visible under the caller's scope. Returns nil when no rows
// match.
func (r *feedbackRepository) AverageRatingForDoctor(ctx context.Context, scope policy.Scope, doctorID uuid.UUID) (*float64, error) {
	if scope.Empty() {
		return nil, nil
	}

	query := `
		SELECT AVG(f.rating)
		FROM appointment_feedback f
		JOIN appointments a ON a.id = f.appointment_id
		WHERE a.doctor_id = $1
	`
	args := []interface{}{doctorID}
	argCount := 2

	if scope.PatientID != nil {
		query += fmt.Sprintf(" AND a.patient_id = $%d", argCount)
		args = append(args, *scope.PatientID)
		argCount++
	}
	if scope.DoctorID != nil {
		query += fmt.Sprintf(" AND a.doctor_id = $%d", argCount)
		args = append(args, *scope.DoctorID)
		argCount++
	}

	var avg sql.NullFloat64
	err := r.db.GetContext(ctx, &avg, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to compute average rating: %w", err)
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}
