package handler

import (
	"net/http"

	"repair_backend/internal/repairs/service"
	"repair_backend/internal/repairs/transport"
	"repair_backend/platform/httpkit"
	"repair_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid repair request id"
)

// Handler handles HTTP requests for repair requests
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new repairs handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the repair request routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.ListMine)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/cancel", h.Cancel)
	rg.POST("/:id/estimate", h.Estimate)
	rg.GET("/:id/estimates", h.ListEstimates)

	technician := rg.Group("", httpkit.RequireRole(httpkit.RoleTechnician))
	technician.POST("/:id/start", h.Start)
	technician.POST("/:id/complete", h.Complete)

	if h.svc.PhotosEnabled() {
		rg.POST("/:id/photos/upload-url", h.CreatePhotoUpload)
		rg.GET("/:id/photos", h.ListPhotos)
	}
}

// RegisterPricingRoutes registers the standalone price lookup
func (h *Handler) RegisterPricingRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Quote)
}

// Create handles POST /api/v1/repairs
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateRepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Create(c.Request.Context(), identity.UserID(), identity.Email(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ListMine handles GET /api/v1/repairs
func (h *Handler) ListMine(c *gin.Context) {
	var q transport.ListRepairsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ListMine(c.Request.Context(), identity.UserID(), q)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetByID handles GET /api/v1/repairs/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, identity, ok := h.target(c)
	if !ok {
		return
	}

	result, err := h.svc.GetByID(c.Request.Context(), id, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Cancel handles POST /api/v1/repairs/:id/cancel
func (h *Handler) Cancel(c *gin.Context) {
	id, identity, ok := h.target(c)
	if !ok {
		return
	}
	var req transport.CancelRepairRequest
	if !h.bindOptional(c, &req) {
		return
	}

	result, err := h.svc.Cancel(c.Request.Context(), id, identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Start handles POST /api/v1/repairs/:id/start
func (h *Handler) Start(c *gin.Context) {
	id, identity, ok := h.target(c)
	if !ok {
		return
	}

	result, err := h.svc.Start(c.Request.Context(), id, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Complete handles POST /api/v1/repairs/:id/complete
func (h *Handler) Complete(c *gin.Context) {
	id, identity, ok := h.target(c)
	if !ok {
		return
	}
	var req transport.CompleteRepairRequest
	if !h.bindOptional(c, &req) {
		return
	}

	result, err := h.svc.Complete(c.Request.Context(), id, identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Estimate handles POST /api/v1/repairs/:id/estimate
func (h *Handler) Estimate(c *gin.Context) {
	id, identity, ok := h.target(c)
	if !ok {
		return
	}
	var req transport.EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.Estimate(c.Request.Context(), id, identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ListEstimates handles GET /api/v1/repairs/:id/estimates
func (h *Handler) ListEstimates(c *gin.Context) {
	id, identity, ok := h.target(c)
	if !ok {
		return
	}

	result, err := h.svc.ListEstimates(c.Request.Context(), id, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

// Quote handles GET /api/v1/estimates
func (h *Handler) Quote(c *gin.Context) {
	var q transport.EstimateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}
	httpkit.OK(c, h.svc.Quote(q))
}

// CreatePhotoUpload handles POST /api/v1/repairs/:id/photos/upload-url
func (h *Handler) CreatePhotoUpload(c *gin.Context) {
	id, identity, ok := h.target(c)
	if !ok {
		return
	}
	var req transport.PhotoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.CreatePhotoUpload(c.Request.Context(), id, identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ListPhotos handles GET /api/v1/repairs/:id/photos
func (h *Handler) ListPhotos(c *gin.Context) {
	id, identity, ok := h.target(c)
	if !ok {
		return
	}

	result, err := h.svc.ListPhotos(c.Request.Context(), id, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

// target parses the path id and the caller identity.
func (h *Handler) target(c *gin.Context) (uuid.UUID, httpkit.Identity, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.UUID{}, nil, false
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return uuid.UUID{}, nil, false
	}
	return id, identity, true
}

// bindOptional binds and validates a JSON body that may be absent.
func (h *Handler) bindOptional(c *gin.Context, req interface{}) bool {
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return false
		}
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}
