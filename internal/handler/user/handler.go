package user

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/careloop/booking-api/internal/middleware"
	"github.com/careloop/booking-api/internal/model"
	"github.com/careloop/booking-api/internal/service/user"
	apperrors "github.com/careloop/booking-api/pkg/errors"
	"github.com/careloop/booking-api/pkg/httputil"
)

type Handler struct {
	service *user.Service
}

func NewHandler(service *user.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.GET("/me", h.GetMe)
		users.PATCH("/me", h.UpdateMe)
		users.POST("/role", h.SetRole)
	}

	doctors := r.Group("/doctors")
	{
		doctors.GET("", h.ListDoctors)
		doctors.GET("/:id", h.GetDoctorProfile)
	}

	r.GET("/patients/:id", h.GetPatientProfile)
}

func (h *Handler) GetMe(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("authentication required", nil))
		return
	}

	resp, err := h.service.GetWithProfile(c.Request.Context(), actor.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, resp)
}

func (h *Handler) UpdateMe(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("authentication required", nil))
		return
	}

	var req model.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request: "+err.Error(), err))
		return
	}

	resp, err := h.service.UpdateSelf(c.Request.Context(), actor.ID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, resp)
}

// SetRole handles the one-time role selection after a federated
// sign-in leaves an account unassigned.
func (h *Handler) SetRole(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("authentication required", nil))
		return
	}

	var req model.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request: "+err.Error(), err))
		return
	}

	if err := h.service.SetRole(c.Request.Context(), actor.ID, req.Role); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"status": "role assigned", "role": req.Role})
}

func (h *Handler) ListDoctors(c *gin.Context) {
	var filters model.DoctorFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid filters: "+err.Error(), err))
		return
	}

	doctors, err := h.service.ListDoctors(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, doctors)
}

// GetPatientProfile is restricted to the owning patient and staff;
// everyone else gets a not-found rather than a forbidden.
func (h *Handler) GetPatientProfile(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("authentication required", nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid patient ID", err))
		return
	}

	profile, err := h.service.GetPatientProfile(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, profile)
}

func (h *Handler) GetDoctorProfile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid doctor ID", err))
		return
	}

	profile, err := h.service.GetDoctorProfile(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, profile)
}
