package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/careloop/booking-api/internal/model"
	"github.com/careloop/booking-api/internal/repository"
	apperrors "github.com/careloop/booking-api/pkg/errors"
	"github.com/careloop/booking-api/pkg/httputil"
)

const actorKey = "actor"

// TokenValidator resolves claims from a bearer token
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*model.TokenClaims, error)
}

type AuthMiddleware struct {
	validator TokenValidator
	userRepo  repository.UserRepository
}

func NewAuthMiddleware(validator TokenValidator, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		userRepo:  userRepo,
	}
}

// Authenticate verifies the JWT and loads the acting user into the
// request context. The user is loaded fresh so a role assigned after
// token issuance is honored.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.RespondWithError(c, apperrors.Unauthorized("missing authorization header", nil))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.RespondWithError(c, apperrors.Unauthorized("invalid authorization format", nil))
			c.Abort()
			return
		}

		claims, err := m.validator.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			httputil.RespondWithError(c, apperrors.Unauthorized("invalid token", err))
			c.Abort()
			return
		}

		user, err := m.userRepo.Get(c.Request.Context(), claims.UserID)
		if err != nil {
			httputil.RespondWithError(c, apperrors.Unauthorized("unknown user", err))
			c.Abort()
			return
		}

		c.Set(actorKey, user)
		c.Next()
	}
}

// Actor returns the authenticated user set by Authenticate.
func Actor(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok
}

// SetActor injects an actor directly, for handler tests.
func SetActor(c *gin.Context, user *model.User) {
	c.Set(actorKey, user)
}
