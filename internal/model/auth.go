package model

import (
	"github.com/google/uuid"
)

// TokenResponse carries an issued access/refresh token pair
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// TokenClaims are the claims extracted from a validated token
type TokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   Role      `json:"role"`
}

// FederatedSignInResponse is returned by federated sign-in. When the
// user has no role yet, RoleSelectionRequired is set and no tokens are
// issued.
type FederatedSignInResponse struct {
	Tokens                *TokenResponse `json:"tokens,omitempty"`
	User                  *UserSummary   `json:"user,omitempty"`
	RoleSelectionRequired bool           `json:"role_selection_required,omitempty"`
}

// ForgotPasswordRequest carries the account email
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest carries the reset token and replacement password
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// VerifyEmailRequest carries the verification token
type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

// RefreshTokenRequest carries the refresh token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}
