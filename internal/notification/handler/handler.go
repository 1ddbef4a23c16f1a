package handler

import (
	"net/http"
	"strconv"

	"recruit_portal_backend/internal/notification/inapp"
	"recruit_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for in-app notifications.
type Handler struct {
	repo *inapp.Repository
}

// New creates a new notification handler.
func New(repo *inapp.Repository) *Handler {
	return &Handler{repo: repo}
}

// RegisterRoutes registers the notification routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/unread-count", h.UnreadCount)
	rg.PATCH("/:id/read", h.MarkRead)
	rg.POST("/read-all", h.MarkAllRead)
}

// List handles GET /api/notifications
func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, total, err := h.repo.List(c.Request.Context(), identity.UserID(), limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"items": items, "total": total})
}

// UnreadCount handles GET /api/notifications/unread-count
func (h *Handler) UnreadCount(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	count, err := h.repo.CountUnread(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"unread": count})
}

// MarkRead handles PATCH /api/notifications/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid notification id", nil)
		return
	}

	if httpkit.HandleError(c, h.repo.MarkRead(c.Request.Context(), id, identity.UserID())) {
		return
	}

	c.Status(http.StatusNoContent)
}

// MarkAllRead handles POST /api/notifications/read-all
func (h *Handler) MarkAllRead(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if httpkit.HandleError(c, h.repo.MarkAllRead(c.Request.Context(), identity.UserID())) {
		return
	}

	c.Status(http.StatusNoContent)
}
