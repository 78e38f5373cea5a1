package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/auraloom/internal/store"
	"go.uber.org/zap"
)

// CartHandler responds to every cart change with the priced cart.
type CartHandler struct {
	store  *store.Store
	logger *zap.Logger
}

func NewCartHandler(st *store.Store, logger *zap.Logger) *CartHandler {
	return &CartHandler{store: st, logger: logger}
}

// Get handles GET /v1/cart
func (h *CartHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.CartSummary())
}

type addCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

// AddItem handles POST /v1/cart/items. Quantity defaults to 1.
func (h *CartHandler) AddItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if err := h.store.AddToCart(c.Request.Context(), req.ProductID, req.Quantity); err != nil {
		respondError(c, h.logger, err, "add to cart")
		return
	}
	c.JSON(http.StatusOK, h.store.CartSummary())
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// UpdateItem handles PUT /v1/cart/items/:productId
func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.UpdateCartQuantity(c.Request.Context(), c.Param("productId"), req.Quantity); err != nil {
		respondError(c, h.logger, err, "update cart quantity")
		return
	}
	c.JSON(http.StatusOK, h.store.CartSummary())
}

// RemoveItem handles DELETE /v1/cart/items/:productId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	if err := h.store.RemoveFromCart(c.Request.Context(), c.Param("productId")); err != nil {
		respondError(c, h.logger, err, "remove from cart")
		return
	}
	c.JSON(http.StatusOK, h.store.CartSummary())
}

// Clear handles DELETE /v1/cart
func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.store.ClearCart(c.Request.Context()); err != nil {
		respondError(c, h.logger, err, "clear cart")
		return
	}
	c.JSON(http.StatusOK, h.store.CartSummary())
}
