package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/auraloom/internal/models"
	"github.com/lalith-99/auraloom/internal/store"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	store  *store.Store
	logger *zap.Logger
}

func NewNotificationHandler(st *store.Store, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{store: st, logger: logger}
}

// List handles GET /v1/notifications?limit=50
//
// Newest first. The unread total is returned alongside so badges do not need
// a second request.
func (h *NotificationHandler) List(c *gin.Context) {
	limit := 0
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'limit' parameter", "code": string(store.KindInvalidArgument)})
			return
		}
		limit = n
	}

	state, _ := h.store.Snapshot()
	items := state.Notifications
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": items,
		"unread":        h.store.UnreadNotificationCount(),
	})
}

type createNotificationRequest struct {
	Type    models.NotificationType `json:"type" binding:"required,oneof=order message broadcast follow"`
	Content string                  `json:"content" binding:"required"`
}

// Create handles POST /v1/notifications
func (h *NotificationHandler) Create(c *gin.Context) {
	var req createNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	n, err := h.store.AddNotification(c.Request.Context(), models.Notification{Type: req.Type, Content: req.Content})
	if err != nil {
		respondError(c, h.logger, err, "add notification")
		return
	}
	c.JSON(http.StatusCreated, n)
}

// MarkRead handles POST /v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.store.MarkNotificationAsRead(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, "mark notification as read")
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkAllRead handles POST /v1/notifications/read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.store.MarkAllNotificationsAsRead(c.Request.Context()); err != nil {
		respondError(c, h.logger, err, "mark notifications as read")
		return
	}
	c.Status(http.StatusNoContent)
}

// Clear handles DELETE /v1/notifications
func (h *NotificationHandler) Clear(c *gin.Context) {
	if err := h.store.ClearNotifications(c.Request.Context()); err != nil {
		respondError(c, h.logger, err, "clear notifications")
		return
	}
	c.Status(http.StatusNoContent)
}
