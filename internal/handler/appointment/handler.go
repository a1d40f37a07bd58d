package appointment

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/careloop/booking-api/internal/middleware"
	"github.com/careloop/booking-api/internal/model"
	"github.com/careloop/booking-api/internal/service/appointment"
	apperrors "github.com/careloop/booking-api/pkg/errors"
	"github.com/careloop/booking-api/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.Create)
		appointments.GET("", h.List)
		appointments.GET("/:id", h.Get)
		appointments.PATCH("/:id", h.Update)
		appointments.DELETE("/:id", h.Delete)
		appointments.POST("/:id/cancel", h.Cancel)
		appointments.POST("/:id/reschedule", h.Reschedule)
	}
}

func (h *Handler) Create(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("authentication required", nil))
		return
	}

	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request: "+err.Error(), err))
		return
	}

	resp, err := h.service.Create(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, resp)
}

func (h *Handler) List(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("authentication required", nil))
		return
	}

	var filters model.AppointmentFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid filters: "+err.Error(), err))
		return
	}

	appointments, err := h.service.List(c.Request.Context(), actor, &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) Get(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("authentication required", nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment ID", err))
		return
	}

	apt, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) Update(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("authentication required", nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment ID", err))
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request: "+err.Error(), err))
		return
	}

	apt, err := h.service.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) Delete(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("authentication required", nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment ID", err))
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"status": "appointment deleted"})
}

func (h *Handler) Cancel(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("authentication required", nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment ID", err))
		return
	}

	if err := h.service.Cancel(c.Request.Context(), actor, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"status": "appointment cancelled"})
}

func (h *Handler) Reschedule(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized("authentication required", nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment ID", err))
		return
	}

	var req model.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("new date and time are required", err))
		return
	}

	if err := h.service.Reschedule(c.Request.Context(), actor, id, req.NewDateTime); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"status": "appointment rescheduled"})
}
