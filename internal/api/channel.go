package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/auraloom/internal/middleware"
	"github.com/lalith-99/auraloom/internal/models"
	"github.com/lalith-99/auraloom/internal/store"
	"go.uber.org/zap"
)

// ChannelHandler serves broadcast channels. Each handler method reads the
// store and logger from the struct; routes are wired in NewRouter.
//
// Why does the handler never touch subscribers or counters itself?
//   - They move together with follows and broadcasts. Only the store sees
//     all of them inside one transaction.
//   - Subscription changes go through SubscriptionHandler, which also runs
//     the premium-channel policy.
type ChannelHandler struct {
	store  *store.Store
	logger *zap.Logger
}

func NewChannelHandler(st *store.Store, logger *zap.Logger) *ChannelHandler {
	return &ChannelHandler{store: st, logger: logger}
}

// createChannelRequest is the JSON body for POST /v1/channels.
//
// ID, subscribers, counters and the pin pointer are owned by the store and
// cannot be set by the client.
type createChannelRequest struct {
	SellerID      string                  `json:"seller_id"`
	Name          string                  `json:"name" binding:"required"`
	NameBn        string                  `json:"name_bn"`
	Description   string                  `json:"description"`
	DescriptionBn string                  `json:"description_bn"`
	Avatar        string                  `json:"avatar"`
	IsPremiumOnly bool                    `json:"is_premium_only"`
	Settings      *models.ChannelSettings `json:"settings"`
}

// Create handles POST /v1/channels (seller mode only)
func (h *ChannelHandler) Create(c *gin.Context) {
	var req createChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sellerID := req.SellerID
	if sellerID == "" {
		sellerID = middleware.GetUserID(c)
	}
	settings := store.DefaultChannelSettings
	if req.Settings != nil {
		settings = *req.Settings
	}

	err := h.store.CreateBroadcastChannel(c.Request.Context(), models.BroadcastChannel{
		SellerID:      sellerID,
		Name:          req.Name,
		NameBn:        req.NameBn,
		Description:   req.Description,
		DescriptionBn: req.DescriptionBn,
		Avatar:        req.Avatar,
		IsPremiumOnly: req.IsPremiumOnly,
		Settings:      settings,
	})
	if err != nil {
		respondError(c, h.logger, err, "create channel")
		return
	}
	ch, _ := h.store.ChannelForSeller(sellerID)
	c.JSON(http.StatusCreated, ch)
}

// List handles GET /v1/channels?subscribed=true
//
// Always serializes to [] rather than null when nothing matches.
func (h *ChannelHandler) List(c *gin.Context) {
	state, _ := h.store.Snapshot()
	if c.Query("subscribed") != "true" {
		c.JSON(http.StatusOK, state.BroadcastChannels)
		return
	}
	userID := middleware.GetUserID(c)
	out := make([]models.BroadcastChannel, 0)
	for _, ch := range state.BroadcastChannels {
		if ch.HasSubscriber(userID) {
			out = append(out, ch)
		}
	}
	c.JSON(http.StatusOK, out)
}

// GetByID handles GET /v1/channels/:id
func (h *ChannelHandler) GetByID(c *gin.Context) {
	ch, ok := h.store.Channel(c.Param("id"))
	if !ok {
		notFound(c, "channel")
		return
	}
	c.JSON(http.StatusOK, ch)
}

type updateChannelRequest struct {
	Name          *string                 `json:"name"`
	NameBn        *string                 `json:"name_bn"`
	Description   *string                 `json:"description"`
	DescriptionBn *string                 `json:"description_bn"`
	Avatar        *string                 `json:"avatar"`
	IsPremiumOnly *bool                   `json:"is_premium_only"`
	Settings      *models.ChannelSettings `json:"settings"`
}

// Update handles PATCH /v1/channels/:id
func (h *ChannelHandler) Update(c *gin.Context) {
	var req updateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ch, err := h.store.UpdateBroadcastChannel(c.Request.Context(), c.Param("id"), store.ChannelPatch(req))
	if err != nil {
		respondError(c, h.logger, err, "update channel")
		return
	}
	c.JSON(http.StatusOK, ch)
}
