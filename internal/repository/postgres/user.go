package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/careloop/booking-api/internal/model"
	apperrors "github.com/careloop/booking-api/pkg/errors"
)

const pqUniqueViolation = "23505"

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	if user.Role == "" {
		user.Role = model.RoleUnassigned
	}

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO users (
				id, email, name, password_hash, role, email_verified,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		_, err := tx.ExecContext(ctx, query,
			user.ID,
			user.Email,
			user.Name,
			user.PasswordHash,
			user.Role,
			user.EmailVerified,
			user.CreatedAt,
			user.UpdatedAt,
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
				return apperrors.Conflict("email already registered", err)
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		// Role profile is part of the same transactional unit.
		return ensureProfileTx(ctx, tx, user.ID, user.Role)
	})
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, email, name, password_hash, role, email_verified,
			   last_login_at, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var user model.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, email, name, password_hash, role, email_verified,
			   last_login_at, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var user model.User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET name = $1, email_verified = $2, last_login_at = $3, updated_at = $4
		WHERE id = $5
	`
	user.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		user.Name,
		user.EmailVerified,
		user.LastLoginAt,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("user", nil)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Profiles, appointments and feedback cascade at the schema level.
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("user", nil)
	}
	return nil
}

// AssignRole performs the one-time unassigned -> patient/doctor
// transition and creates the matching profile in the same transaction.
func (r *userRepository) AssignRole(ctx context.Context, userID uuid.UUID, role model.Role) error {
	if !role.Assignable() {
		return apperrors.BadRequest("role must be patient or doctor", nil)
	}

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			UPDATE users
			SET role = $1, updated_at = $2
			WHERE id = $3 AND role = $4
		`
		result, err := tx.ExecContext(ctx, query, role, time.Now(), userID, model.RoleUnassigned)
		if err != nil {
			return fmt.Errorf("failed to assign role: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			// Either the user is missing or the role is already set.
			var existing model.Role
			if err := tx.GetContext(ctx, &existing, `SELECT role FROM users WHERE id = $1`, userID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return apperrors.NotFound("user", err)
				}
				return fmt.Errorf("failed to check user role: %w", err)
			}
			return apperrors.BadRequest("role cannot be changed once set", nil)
		}

		return ensureProfileTx(ctx, tx, userID, role)
	})
}

func (r *userRepository) UpdateEmailVerified(ctx context.Context, userID uuid.UUID, verified bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET email_verified = $1, updated_at = $2 WHERE id = $3`,
		verified, time.Now(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update email verification: %w", err)
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		passwordHash, time.Now(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// ensureProfileTx inserts the role profile idempotently. No-op for
// staff and unassigned users.
func ensureProfileTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, role model.Role) error {
	now := time.Now()
	switch role {
	case model.RolePatient:
		_, err := tx.ExecContext(ctx, `
			INSERT INTO patient_profiles (user_id, created_at, updated_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id) DO NOTHING
		`, userID, now, now)
		if err != nil {
			return fmt.Errorf("failed to create patient profile: %w", err)
		}
	case model.RoleDoctor:
		_, err := tx.ExecContext(ctx, `
			INSERT INTO doctor_profiles (user_id, specialization, availability, created_at, updated_at)
			VALUES ($1, $2, true, $3, $4)
			ON CONFLICT (user_id) DO NOTHING
		`, userID, model.SpecializationGeneral, now, now)
		if err != nil {
			return fmt.Errorf("failed to create doctor profile: %w", err)
		}
	}
	return nil
}
