package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/careloop/booking-api/internal/model"
	"github.com/careloop/booking-api/internal/service/auth"
	apperrors "github.com/careloop/booking-api/pkg/errors"
	"github.com/careloop/booking-api/pkg/httputil"
)

type Handler struct {
	service *auth.Service
}

func NewHandler(service *auth.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", h.Register)
		authRoutes.POST("/login", h.Login)
		authRoutes.POST("/google", h.GoogleSignIn)
		authRoutes.POST("/refresh", h.RefreshToken)
		authRoutes.POST("/verify-email", h.VerifyEmail)
		authRoutes.POST("/forgot-password", h.ForgotPassword)
		authRoutes.POST("/reset-password", h.ResetPassword)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request: "+err.Error(), err))
		return
	}

	user, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, user.Summary())
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request: "+err.Error(), err))
		return
	}

	tokens, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, tokens)
}

func (h *Handler) GoogleSignIn(c *gin.Context) {
	var req model.FederatedSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request: "+err.Error(), err))
		return
	}

	resp, err := h.service.FederatedSignIn(c.Request.Context(), req.Token)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, resp)
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var req model.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request: "+err.Error(), err))
		return
	}

	tokens, err := h.service.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, tokens)
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	var req model.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request: "+err.Error(), err))
		return
	}

	if err := h.service.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"status": "email verified"})
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request: "+err.Error(), err))
		return
	}

	if err := h.service.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"status": "password reset email sent if the account exists"})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request: "+err.Error(), err))
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"status": "password reset"})
}
