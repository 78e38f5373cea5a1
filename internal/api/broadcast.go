package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/auraloom/internal/middleware"
	"github.com/lalith-99/auraloom/internal/models"
	"github.com/lalith-99/auraloom/internal/store"
	"go.uber.org/zap"
)

type BroadcastHandler struct {
	store  *store.Store
	policy Policy
	logger *zap.Logger
}

func NewBroadcastHandler(st *store.Store, policy Policy, logger *zap.Logger) *BroadcastHandler {
	return &BroadcastHandler{store: st, policy: policy, logger: logger}
}

// List handles GET /v1/broadcasts?channel_id=&seller_id=
func (h *BroadcastHandler) List(c *gin.Context) {
	if sellerID := c.Query("seller_id"); sellerID != "" {
		c.JSON(http.StatusOK, h.store.SellerBroadcasts(sellerID))
		return
	}
	state, _ := h.store.Snapshot()
	channelID := c.Query("channel_id")
	out := make([]models.Broadcast, 0, len(state.Broadcasts))
	for _, b := range state.Broadcasts {
		if channelID == "" || b.ChannelID == channelID {
			out = append(out, b)
		}
	}
	c.JSON(http.StatusOK, out)
}

// Feed handles GET /v1/feed: broadcasts of the channels the session user is
// subscribed to, pinned first.
func (h *BroadcastHandler) Feed(c *gin.Context) {
	user := middleware.GetUser(c)
	if err := h.policy.CheckFeed(user); err != nil {
		respondError(c, h.logger, err, "load feed")
		return
	}
	c.JSON(http.StatusOK, h.store.SubscribedFeed(user.ID))
}

// createBroadcastRequest omits channel_id to post to the seller's own
// channel, which is created on first use.
type createBroadcastRequest struct {
	ChannelID string `json:"channel_id"`
	Content   string `json:"content" binding:"required"`
	Image     string `json:"image"`
	ProductID string `json:"product_id"`
}

// Create handles POST /v1/broadcasts (seller mode only)
func (h *BroadcastHandler) Create(c *gin.Context) {
	var req createBroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user := middleware.GetUser(c)
	sellerID := user.ID
	if req.ChannelID != "" {
		ch, ok := h.store.Channel(req.ChannelID)
		if !ok {
			notFound(c, "channel")
			return
		}
		sellerID = ch.SellerID
	}
	withinQuota := func(q store.Quota) error { return h.policy.CheckNewBroadcast(user, q) }

	// This early check only keeps a refused request from creating the
	// seller's channel as a side effect. AddBroadcast checks again under
	// the store lock, and that check is the one that enforces the limit.
	if err := withinQuota(h.store.SellerQuota(sellerID)); err != nil {
		respondError(c, h.logger, err, "create broadcast")
		return
	}

	channelID := req.ChannelID
	if channelID == "" {
		ch, err := h.store.GetOrCreateChannel(c.Request.Context(), sellerID)
		if err != nil {
			respondError(c, h.logger, err, "create broadcast")
			return
		}
		channelID = ch.ID
	}

	b, err := h.store.AddBroadcast(c.Request.Context(), models.Broadcast{
		ChannelID: channelID,
		SellerID:  sellerID,
		Content:   req.Content,
		Image:     req.Image,
		ProductID: req.ProductID,
	}, withinQuota)
	if err != nil {
		respondError(c, h.logger, err, "create broadcast")
		return
	}
	c.JSON(http.StatusCreated, b)
}

type editBroadcastRequest struct {
	Content string `json:"content" binding:"required"`
}

// Edit handles PATCH /v1/broadcasts/:id
func (h *BroadcastHandler) Edit(c *gin.Context) {
	var req editBroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.store.EditBroadcast(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		respondError(c, h.logger, err, "edit broadcast")
		return
	}
	c.JSON(http.StatusOK, b)
}

// Delete handles DELETE /v1/broadcasts/:id
func (h *BroadcastHandler) Delete(c *gin.Context) {
	if err := h.store.DeleteBroadcast(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, "delete broadcast")
		return
	}
	c.Status(http.StatusNoContent)
}

// View handles POST /v1/broadcasts/:id/view
func (h *BroadcastHandler) View(c *gin.Context) {
	h.apply(c, "view broadcast", func(id string) error {
		return h.store.ViewBroadcast(c.Request.Context(), id, middleware.GetUserID(c))
	})
}

type reactionRequest struct {
	Type models.ReactionType `json:"type" binding:"required,oneof=like love fire clap think"`
}

// React handles PUT /v1/broadcasts/:id/reaction
func (h *BroadcastHandler) React(c *gin.Context) {
	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.apply(c, "add reaction", func(id string) error {
		return h.store.AddReaction(c.Request.Context(), id, middleware.GetUserID(c), req.Type)
	})
}

// Unreact handles DELETE /v1/broadcasts/:id/reaction
func (h *BroadcastHandler) Unreact(c *gin.Context) {
	h.apply(c, "remove reaction", func(id string) error {
		return h.store.RemoveReaction(c.Request.Context(), id, middleware.GetUserID(c))
	})
}

// Pin handles POST /v1/broadcasts/:id/pin
func (h *BroadcastHandler) Pin(c *gin.Context) {
	h.apply(c, "pin broadcast", func(id string) error {
		return h.store.PinBroadcast(c.Request.Context(), id)
	})
}

// Unpin handles DELETE /v1/broadcasts/:id/pin
func (h *BroadcastHandler) Unpin(c *gin.Context) {
	h.apply(c, "unpin broadcast", func(id string) error {
		return h.store.UnpinBroadcast(c.Request.Context(), id)
	})
}

// Forward handles POST /v1/broadcasts/:id/forward
func (h *BroadcastHandler) Forward(c *gin.Context) {
	h.apply(c, "forward broadcast", func(id string) error {
		return h.store.ForwardBroadcast(c.Request.Context(), id)
	})
}

// apply runs op against the :id broadcast and responds with the broadcast
// as stored afterwards.
func (h *BroadcastHandler) apply(c *gin.Context, action string, op func(id string) error) {
	id := c.Param("id")
	if err := op(id); err != nil {
		respondError(c, h.logger, err, action)
		return
	}
	b, ok := h.store.Broadcast(id)
	if !ok {
		notFound(c, "broadcast")
		return
	}
	c.JSON(http.StatusOK, b)
}
