package handler

import (
	"net/http"

	"recruit_portal_backend/internal/synctasks/service"
	"recruit_portal_backend/internal/synctasks/transport"
	"recruit_portal_backend/platform/httpkit"
	"recruit_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for sync settings and scheduled tasks.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new sync task handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterSettingsRoutes registers the sync settings routes.
func (h *Handler) RegisterSettingsRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListSettings)
	rg.POST("", h.CreateSettings)
	rg.GET("/:id", h.GetSettings)
	rg.PUT("/:id", h.UpdateSettings)
	rg.DELETE("/:id", h.DeleteSettings)
	rg.POST("/:id/trigger", h.TriggerSyncNow)
}

// RegisterTaskRoutes registers the scheduled task routes.
func (h *Handler) RegisterTaskRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListTasks)
	rg.POST("/run", h.TriggerSchedulerRun)
	rg.GET("/:id", h.GetTask)
	rg.POST("/:id/cancel", h.CancelTask)
	rg.POST("/:id/reenable", h.ReenableTask)
}

// CreateSettings handles POST /api/sync-settings
func (h *Handler) CreateSettings(c *gin.Context) {
	var req transport.CreateSyncSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CreateSettings(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

// GetSettings handles GET /api/sync-settings/:id
func (h *Handler) GetSettings(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.GetSettings(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// ListSettings handles GET /api/sync-settings
func (h *Handler) ListSettings(c *gin.Context) {
	result, err := h.svc.ListSettings(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// UpdateSettings handles PUT /api/sync-settings/:id
func (h *Handler) UpdateSettings(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateSyncSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.UpdateSettings(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// DeleteSettings handles DELETE /api/sync-settings/:id
func (h *Handler) DeleteSettings(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if httpkit.HandleError(c, h.svc.DeleteSettings(c.Request.Context(), id)) {
		return
	}

	httpkit.JSON(c, http.StatusNoContent, nil)
}

// TriggerSyncNow handles POST /api/sync-settings/:id/trigger
func (h *Handler) TriggerSyncNow(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.TriggerSyncNow(c.Request.Context(), id, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusAccepted, result)
}

// TriggerSchedulerRun handles POST /api/scheduled-tasks/run
func (h *Handler) TriggerSchedulerRun(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.TriggerSchedulerRun(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusAccepted, result)
}

// ListTasks handles GET /api/scheduled-tasks
func (h *Handler) ListTasks(c *gin.Context) {
	var req transport.ListTasksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	items, total, err := h.svc.ListTasks(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"items": items, "total": total})
}

// GetTask handles GET /api/scheduled-tasks/:id
func (h *Handler) GetTask(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.GetTask(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// CancelTask handles POST /api/scheduled-tasks/:id/cancel
func (h *Handler) CancelTask(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.CancelTask(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// ReenableTask handles POST /api/scheduled-tasks/:id/reenable
func (h *Handler) ReenableTask(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.ReenableTask(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}
