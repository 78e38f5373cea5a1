package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/auraloom/internal/middleware"
	"github.com/lalith-99/auraloom/internal/store"
	"go.uber.org/zap"
)

// SubscriptionHandler handles channel subscriptions of the session user.
type SubscriptionHandler struct {
	store  *store.Store
	policy Policy
	logger *zap.Logger
}

func NewSubscriptionHandler(st *store.Store, policy Policy, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{store: st, policy: policy, logger: logger}
}

// Subscribe handles POST /v1/channels/:id/subscribers
//
// Premium-only channels refuse free members with 403 before the store is
// touched.
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	channelID := c.Param("id")
	ch, ok := h.store.Channel(channelID)
	if !ok {
		notFound(c, "channel")
		return
	}
	user := middleware.GetUser(c)
	if err := h.policy.CheckSubscribe(user, ch); err != nil {
		respondError(c, h.logger, err, "subscribe to channel")
		return
	}

	if err := h.store.SubscribeToChannel(c.Request.Context(), channelID, user.ID); err != nil {
		respondError(c, h.logger, err, "subscribe to channel")
		return
	}
	ch, _ = h.store.Channel(channelID)
	c.JSON(http.StatusOK, ch)
}

// Unsubscribe handles DELETE /v1/channels/:id/subscribers
func (h *SubscriptionHandler) Unsubscribe(c *gin.Context) {
	err := h.store.UnsubscribeFromChannel(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "unsubscribe from channel")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListSubscribers handles GET /v1/channels/:id/subscribers
//
// Honours the channel's ShowSubscriberCount setting for everyone but the
// owning seller.
func (h *SubscriptionHandler) ListSubscribers(c *gin.Context) {
	ch, ok := h.store.Channel(c.Param("id"))
	if !ok {
		notFound(c, "channel")
		return
	}
	if !ch.Settings.ShowSubscriberCount && ch.SellerID != middleware.GetUserID(c) {
		c.JSON(http.StatusOK, gin.H{"subscribers": []string{}, "count": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscribers": ch.Subscribers, "count": len(ch.Subscribers)})
}
