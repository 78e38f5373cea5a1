package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/auraloom/internal/models"
	"github.com/lalith-99/auraloom/internal/store"
	"go.uber.org/zap"
)

type SellerHandler struct {
	store  *store.Store
	logger *zap.Logger
}

func NewSellerHandler(st *store.Store, logger *zap.Logger) *SellerHandler {
	return &SellerHandler{store: st, logger: logger}
}

// sellerView adds whether the session user follows the seller.
type sellerView struct {
	models.Seller
	Following bool `json:"following"`
}

// List handles GET /v1/sellers
func (h *SellerHandler) List(c *gin.Context) {
	state, _ := h.store.Snapshot()
	followed := make(map[string]bool, len(state.FollowedSellers))
	for _, id := range state.FollowedSellers {
		followed[id] = true
	}
	out := make([]sellerView, 0, len(state.Sellers))
	for _, s := range state.Sellers {
		out = append(out, sellerView{Seller: s, Following: followed[s.ID]})
	}
	c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/sellers/:id
func (h *SellerHandler) Get(c *gin.Context) {
	s, ok := h.store.Seller(c.Param("id"))
	if !ok {
		notFound(c, "seller")
		return
	}
	c.JSON(http.StatusOK, s)
}

// ReplaceAll handles PUT /v1/sellers
func (h *SellerHandler) ReplaceAll(c *gin.Context) {
	var sellers []models.Seller
	if err := c.ShouldBindJSON(&sellers); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.SetSellers(c.Request.Context(), sellers); err != nil {
		respondError(c, h.logger, err, "replace sellers")
		return
	}
	state, _ := h.store.Snapshot()
	c.JSON(http.StatusOK, state.Sellers)
}

// Follow handles POST /v1/sellers/:id/follow
func (h *SellerHandler) Follow(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.FollowSeller(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err, "follow seller")
		return
	}
	s, _ := h.store.Seller(id)
	c.JSON(http.StatusOK, sellerView{Seller: s, Following: true})
}

// Unfollow handles DELETE /v1/sellers/:id/follow
func (h *SellerHandler) Unfollow(c *gin.Context) {
	if err := h.store.UnfollowSeller(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, "unfollow seller")
		return
	}
	c.Status(http.StatusNoContent)
}

// Quota handles GET /v1/sellers/:id/quota
func (h *SellerHandler) Quota(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.SellerQuota(c.Param("id")))
}

// Stats handles GET /v1/sellers/:id/stats
func (h *SellerHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.BroadcastStats(c.Param("id")))
}

// Channel handles POST /v1/sellers/:id/channel
//
// Returns the seller's channel, creating it on first use. 201 when it was
// created by this call, 200 when it already existed.
func (h *SellerHandler) Channel(c *gin.Context) {
	id := c.Param("id")
	_, existed := h.store.ChannelForSeller(id)
	ch, err := h.store.GetOrCreateChannel(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "get or create channel")
		return
	}
	status := http.StatusCreated
	if existed {
		status = http.StatusOK
	}
	c.JSON(status, ch)
}
