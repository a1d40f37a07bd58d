package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/careloop/booking-api/internal/model"
	"github.com/careloop/booking-api/internal/policy"
	apperrors "github.com/careloop/booking-api/pkg/errors"
)

func (r *appointmentRepository) CreateWithEvent(ctx context.Context, apt *model.Appointment, evt *model.OutboxEvent) error {
	apt.ID = uuid.New()
	apt.CreatedAt = time.Now()
	apt.UpdatedAt = time.Now()

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO appointments (
				id, patient_id, doctor_id, date_time, status, notes,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		_, err := tx.ExecContext(ctx, query,
			apt.ID,
			apt.PatientID,
			apt.DoctorID,
			apt.DateTime,
			apt.Status,
			apt.Notes,
			apt.CreatedAt,
			apt.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}

		return createOutboxEventTx(ctx, tx, evt)
	})
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, date_time, status, notes,
			   created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var apt model.Appointment
	err := r.db.GetContext(ctx, &apt, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &apt, nil
}

func (r *appointmentRepository) UpdateWithEvent(ctx context.Context, apt *model.Appointment, evt *model.OutboxEvent) error {
	apt.UpdatedAt = time.Now()

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			UPDATE appointments
			SET date_time = $1, status = $2, notes = $3, updated_at = $4
			WHERE id = $5
		`
		result, err := tx.ExecContext(ctx, query,
			apt.DateTime,
			apt.Status,
			apt.Notes,
			apt.UpdatedAt,
			apt.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update appointment: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return apperrors.NotFound("appointment", nil)
		}

		return createOutboxEventTx(ctx, tx, evt)
	})
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("appointment", nil)
	}
	return nil
}

// List applies role scoping before any optional filters. An empty
// scope returns no rows.
func (r *appointmentRepository) List(ctx context.Context, scope policy.Scope, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	if scope.Empty() {
		return []*model.Appointment{}, nil
	}

	query := `
		SELECT id, patient_id, doctor_id, date_time, status, notes,
			   created_at, updated_at
		FROM appointments
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if scope.PatientID != nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, *scope.PatientID)
		argCount++
	}
	if scope.DoctorID != nil {
		query += fmt.Sprintf(" AND doctor_id = $%d", argCount)
		args = append(args, *scope.DoctorID)
		argCount++
	}

	if filters != nil {
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if !filters.StartDate.IsZero() {
			query += fmt.Sprintf(" AND date_time >= $%d", argCount)
			args = append(args, filters.StartDate)
			argCount++
		}
		if !filters.EndDate.IsZero() {
			query += fmt.Sprintf(" AND date_time <= $%d", argCount)
			args = append(args, filters.EndDate)
			argCount++
		}
	}

	query += " ORDER BY date_time ASC"

	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func createOutboxEventTx(ctx context.Context, tx *sqlx.Tx, evt *model.OutboxEvent) error {
	if evt == nil {
		return nil
	}
	if evt.Payload == nil {
		return fmt.Errorf("event payload cannot be nil")
	}

	evt.ID = uuid.New()
	evt.Status = model.OutboxStatusPending
	evt.CreatedAt = time.Now()
	evt.UpdatedAt = time.Now()

	query := `
		INSERT INTO outbox_events (
			id, event_type, payload, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query,
		evt.ID,
		evt.EventType,
		evt.Payload,
		evt.Status,
		evt.CreatedAt,
		evt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}
