package feedback

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/careloop/booking-api/internal/middleware"
	"github.com/careloop/booking-api/internal/model"
	"github.com/careloop/booking-api/internal/service/feedback"
	apperrors "github.com/careloop/booking-api/pkg/errors"
	"github.com/careloop/booking-api/pkg/httputil"
)

type Handler struct {
	service *feedback.Service
}

func NewHandler(service *feedback.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	fb := r.Group("/feedback")
	{
		fb.POST("", h.Create)
		fb.GET("", h.List)
		fb.GET("/average-rating", h.AverageRating)
		fb.GET("/:id", h.Get)
	}
}

func (h *Handler) Create(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("authentication required", nil))
		return
	}

	var req model.CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request: "+err.Error(), err))
		return
	}

	fb, err := h.service.Create(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, fb)
}

func (h *Handler) List(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("authentication required", nil))
		return
	}

	items, err := h.service.List(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, items)
}

func (h *Handler) Get(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("authentication required", nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid feedback ID", err))
		return
	}

	fb, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, fb)
}

// AverageRating returns the mean rating for a doctor, computed over
// the appointments visible to the caller.
func (h *Handler) AverageRating(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("authentication required", nil))
		return
	}

	doctorParam := c.Query("doctor_id")
	if doctorParam == "" {
		httputil.RespondWithError(c, apperrors.BadRequest("doctor_id query parameter is required", nil))
		return
	}

	doctorID, err := uuid.Parse(doctorParam)
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid doctor_id", err))
		return
	}

	avg, err := h.service.AverageRating(c.Request.Context(), actor, doctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, model.AverageRatingResponse{
		DoctorID:      doctorID,
		AverageRating: avg,
	})
}
