package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/booking-api/internal/model"
	apperrors "github.com/careloop/booking-api/pkg/errors"
)

func (r *profileRepository) GetPatientProfile(ctx context.Context, userID uuid.UUID) (*model.PatientProfile, error) {
	query := `
		SELECT user_id, date_of_birth, image_url, created_at, updated_at
		FROM patient_profiles
		WHERE user_id = $1
	`
	var profile model.PatientProfile
	err := r.db.GetContext(ctx, &profile, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("patient profile", err)
		}
		return nil, fmt.Errorf("failed to get patient profile: %w", err)
	}
	return &profile, nil
}

func (r *profileRepository) GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*model.DoctorProfile, error) {
	query := `
		SELECT user_id, specialization, availability, image_url, created_at, updated_at
		FROM doctor_profiles
		WHERE user_id = $1
	`
	var profile model.DoctorProfile
	err := r.db.GetContext(ctx, &profile, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("doctor profile", err)
		}
		return nil, fmt.Errorf("failed to get doctor profile: %w", err)
	}
	return &profile, nil
}

func (r *profileRepository) UpdatePatientProfile(ctx context.Context, profile *model.PatientProfile) error {
	profile.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, `
		UPDATE patient_profiles
		SET date_of_birth = $1, image_url = $2, updated_at = $3
		WHERE user_id = $4
	`, profile.DateOfBirth, profile.ImageURL, profile.UpdatedAt, profile.UserID)
	if err != nil {
		return fmt.Errorf("failed to update patient profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("patient profile", nil)
	}
	return nil
}

func (r *profileRepository) UpdateDoctorProfile(ctx context.Context, profile *model.DoctorProfile) error {
	profile.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, `
		UPDATE doctor_profiles
		SET specialization = $1, availability = $2, image_url = $3, updated_at = $4
		WHERE user_id = $5
	`, profile.Specialization, profile.Availability, profile.ImageURL, profile.UpdatedAt, profile.UserID)
	if err != nil {
		return fmt.Errorf("failed to update doctor profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("doctor profile", nil)
	}
	return nil
}

func (r *profileRepository) ListDoctorProfiles(ctx context.Context, filters *model.DoctorFilters) ([]*model.DoctorProfile, error) {
	query := `
		SELECT user_id, specialization, availability, image_url, created_at, updated_at
		FROM doctor_profiles
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.Specialization != "" {
			query += fmt.Sprintf(" AND specialization = $%d", argCount)
			args = append(args, filters.Specialization)
			argCount++
		}
		if filters.AvailableOnly {
			query += " AND availability = true"
		}
	}

	query += " ORDER BY created_at ASC"

	var profiles []*model.DoctorProfile
	err := r.db.SelectContext(ctx, &profiles, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctor profiles: %w", err)
	}
	return profiles, nil
}
