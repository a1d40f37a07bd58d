package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/careloop/booking-api/pkg/errors"
)

const (
	tokenKindVerification = "verification"
	tokenKindReset        = "reset"
)

func (r *tokenRepository) StoreVerificationToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error {
	return r.store(ctx, userID, token, tokenKindVerification, expiry)
}

func (r *tokenRepository) ValidateVerificationToken(ctx context.Context, token string) (uuid.UUID, error) {
	return r.validate(ctx, token, tokenKindVerification)
}

func (r *tokenRepository) StoreResetToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error {
	return r.store(ctx, userID, token, tokenKindReset, expiry)
}

func (r *tokenRepository) ValidateResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	return r.validate(ctx, token, tokenKindReset)
}

func (r *tokenRepository) InvalidateToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}
	return nil
}

func (r *tokenRepository) store(ctx context.Context, userID uuid.UUID, token, kind string, expiry time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_tokens (token, user_id, kind, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, token, userID, kind, expiry, time.Now())
	if err != nil {
		return fmt.Errorf("failed to store %s token: %w", kind, err)
	}
	return nil
}

func (r *tokenRepository) validate(ctx context.Context, token, kind string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := r.db.GetContext(ctx, &userID, `
		SELECT user_id FROM user_tokens
		WHERE token = $1 AND kind = $2 AND expires_at > NOW()
	`, token, kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, apperrors.BadRequest("invalid or expired token", err)
		}
		return uuid.Nil, fmt.Errorf("failed to validate %s token: %w", kind, err)
	}
	return userID, nil
}
