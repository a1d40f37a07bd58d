package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/booking-api/internal/email"
	"github.com/careloop/booking-api/internal/model"
	"github.com/careloop/booking-api/internal/repository"
	"github.com/careloop/booking-api/pkg/auth"
	apperrors "github.com/careloop/booking-api/pkg/errors"
	"github.com/careloop/booking-api/pkg/logger"
	"github.com/careloop/booking-api/pkg/security"
)

const (
	resetTokenExpiry  = 1 * time.Hour
	verifyTokenExpiry = 48 * time.Hour
)

// FederatedIdentity is the identity asserted by an external provider
// after its token has been verified.
type FederatedIdentity struct {
	Email string
	Name  string
}

// IdentityVerifier verifies a federated provider's ID token. The
// OIDC/OAuth2 exchange itself is the provider library's concern; this
// service only consumes the verified identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*FederatedIdentity, error)
}

type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	jwtSvc    auth.JWTService
	emailSvc  email.Service
	hasher    security.PasswordHasher
	verifier  IdentityVerifier
	logger    *logger.Logger
}

func NewService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	jwtSvc auth.JWTService,
	emailSvc email.Service,
	hasher security.PasswordHasher,
	verifier IdentityVerifier,
	logger *logger.Logger,
) *Service {
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwtSvc:    jwtSvc,
		emailSvc:  emailSvc,
		hasher:    hasher,
		verifier:  verifier,
		logger:    logger,
	}
}

// Register creates a user, optionally with a role. The role profile is
// created inside the same transaction as the user row. A verification
// email is sent best-effort.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if req.Role != "" && !req.Role.Assignable() {
		return nil, apperrors.BadRequest("role must be patient or doctor", nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.BadRequest("invalid password", err)
	}

	user := &model.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         req.Role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	token := uuid.New().String()
	if err := s.tokenRepo.StoreVerificationToken(ctx, user.ID, token, time.Now().Add(verifyTokenExpiry)); err != nil {
		return nil, fmt.Errorf("failed to store verification token: %w", err)
	}

	if err := s.emailSvc.SendVerification(ctx, user.Email, token); err != nil {
		// Registration stands even when the email bounces.
		s.logger.Error(err, "failed to send verification email", "email", user.Email)
	}

	return user, nil
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid credentials", nil)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized("invalid credentials", nil)
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update login timestamp: %w", err)
	}

	return s.generateTokens(user)
}

// FederatedSignIn verifies the provider token, gets or creates the
// user, and issues tokens. A user without a role gets
// role_selection_required instead of tokens.
func (s *Service) FederatedSignIn(ctx context.Context, token string) (*model.FederatedSignInResponse, error) {
	identity, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return nil, apperrors.BadRequest("invalid identity token", err)
	}

	user, err := s.userRepo.GetByEmail(ctx, identity.Email)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}
		user = &model.User{
			Email:         identity.Email,
			Name:          identity.Name,
			Role:          model.RoleUnassigned,
			EmailVerified: true,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
	}

	if user.Role == model.RoleUnassigned {
		return &model.FederatedSignInResponse{
			User:                  user.Summary(),
			RoleSelectionRequired: true,
		}, nil
	}

	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, err
	}
	return &model.FederatedSignInResponse{
		Tokens: tokens,
		User:   user.Summary(),
	}, nil
}

func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token", err)
	}

	user, err := s.userRepo.Get(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.Unauthorized("user not found", err)
	}

	return s.generateTokens(user)
}

// ValidateToken resolves token claims for the auth middleware.
func (s *Service) ValidateToken(_ context.Context, token string) (*model.TokenClaims, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid token", err)
	}
	return claims, nil
}

func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.tokenRepo.ValidateVerificationToken(ctx, token)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdateEmailVerified(ctx, userID, true); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	return s.tokenRepo.InvalidateToken(ctx, token)
}

// ForgotPassword sends a reset link when the account exists. The
// response never reveals whether it does.
func (s *Service) ForgotPassword(ctx context.Context, reqEmail string) error {
	user, err := s.userRepo.GetByEmail(ctx, reqEmail)
	if err != nil {
		s.logger.Info("password reset requested for unknown email", "email", reqEmail)
		return nil
	}

	token := uuid.New().String()
	if err := s.tokenRepo.StoreResetToken(ctx, user.ID, token, time.Now().Add(resetTokenExpiry)); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.emailSvc.SendPasswordReset(ctx, user.Email, token); err != nil {
		s.logger.Error(err, "failed to send password reset email", "email", user.Email)
		return apperrors.Internal(err)
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := s.tokenRepo.ValidateResetToken(ctx, token)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperrors.BadRequest("invalid password", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return s.tokenRepo.InvalidateToken(ctx, token)
}

func (s *Service) generateTokens(user *model.User) (*model.TokenResponse, error) {
	access, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refresh, err := s.jwtSvc.GenerateRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &model.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwtSvc.AccessExpiry().Seconds()),
	}, nil
}
