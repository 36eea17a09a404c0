package handler

import (
	"context"
	"net/http"

	"repair_backend/internal/technicians/service"
	"repair_backend/internal/technicians/transport"
	"repair_backend/platform/httpkit"
	"repair_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid technician id"
)

// Handler handles HTTP requests for the technician directory
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new technicians handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the routes every authenticated user may call
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/match", h.Match)
	rg.GET("/:id", h.GetByID)
	rg.GET("/:id/availability", h.ListAvailability)
}

// RegisterAdminRoutes registers provisioning and calendar management routes
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.POST("/:id/availability/:date/open", h.OpenSlots)
	rg.POST("/:id/availability/:date/close", h.CloseSlots)
}

// Match handles GET /api/v1/technicians/match
func (h *Handler) Match(c *gin.Context) {
	var q transport.MatchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.Match(c.Request.Context(), q)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetByID handles GET /api/v1/technicians/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListAvailability handles GET /api/v1/technicians/:id/availability
func (h *Handler) ListAvailability(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var q transport.AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.ListAvailability(c.Request.Context(), id, q)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create handles POST /api/v1/admin/technicians
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateTechnicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// OpenSlots handles POST /api/v1/admin/technicians/:id/availability/:date/open
func (h *Handler) OpenSlots(c *gin.Context) {
	h.changeSlots(c, h.svc.OpenSlots)
}

// CloseSlots handles POST /api/v1/admin/technicians/:id/availability/:date/close
func (h *Handler) CloseSlots(c *gin.Context) {
	h.changeSlots(c, h.svc.CloseSlots)
}

type slotChange func(ctx context.Context, id uuid.UUID, date string, req transport.SlotsRequest) (transport.AvailabilityDay, error)

func (h *Handler) changeSlots(c *gin.Context, apply slotChange) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.SlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := apply(c.Request.Context(), id, c.Param("date"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}
