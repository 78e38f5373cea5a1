package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/auraloom/internal/middleware"
	"github.com/lalith-99/auraloom/internal/models"
	"github.com/lalith-99/auraloom/internal/store"
	"go.uber.org/zap"
)

type ProductHandler struct {
	store  *store.Store
	policy Policy
	logger *zap.Logger
}

func NewProductHandler(st *store.Store, policy Policy, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{store: st, policy: policy, logger: logger}
}

// List handles GET /v1/products?seller_id=&category=
func (h *ProductHandler) List(c *gin.Context) {
	sellerID := c.Query("seller_id")
	category := models.Category(c.Query("category"))
	if category != "" && !category.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'category' parameter", "code": string(store.KindInvalidArgument)})
		return
	}

	state, _ := h.store.Snapshot()
	products := make([]models.Product, 0, len(state.Products))
	for _, p := range state.Products {
		if sellerID != "" && p.SellerID != sellerID {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		products = append(products, p)
	}
	c.JSON(http.StatusOK, products)
}

// Get handles GET /v1/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	p, ok := h.store.Product(c.Param("id"))
	if !ok {
		notFound(c, "product")
		return
	}
	c.JSON(http.StatusOK, p)
}

// createProductRequest leaves SellerID optional: a seller lists under their
// own ID unless they say otherwise.
type createProductRequest struct {
	SellerID      string          `json:"seller_id"`
	Title         string          `json:"title" binding:"required"`
	TitleBn       string          `json:"title_bn"`
	Description   string          `json:"description"`
	DescriptionBn string          `json:"description_bn"`
	Price         float64         `json:"price" binding:"gte=0"`
	MOQ           string          `json:"moq"`
	Blend         string          `json:"blend"`
	Category      models.Category `json:"category" binding:"required,oneof=fabric yarn jute leather fiber"`
	Image         string          `json:"image"`
}

// Create handles POST /v1/products (seller mode only)
func (h *ProductHandler) Create(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user := middleware.GetUser(c)
	sellerID := req.SellerID
	if sellerID == "" {
		sellerID = user.ID
	}

	// Why pass the policy into the store instead of checking SellerQuota
	// here? Two concurrent requests could both read a count under the limit
	// and both insert. Inside AddProduct the check and the insert share one
	// write lock, so the limit holds under load.
	withinQuota := func(q store.Quota) error { return h.policy.CheckNewProduct(user, q) }

	p, err := h.store.AddProduct(c.Request.Context(), models.Product{
		SellerID:      sellerID,
		Title:         req.Title,
		TitleBn:       req.TitleBn,
		Description:   req.Description,
		DescriptionBn: req.DescriptionBn,
		Price:         req.Price,
		MOQ:           req.MOQ,
		Blend:         req.Blend,
		Category:      req.Category,
		Image:         req.Image,
	}, withinQuota)
	if err != nil {
		respondError(c, h.logger, err, "create product")
		return
	}
	c.JSON(http.StatusCreated, p)
}

// updateProductRequest mirrors store.ProductPatch field for field so one
// converts to the other.
type updateProductRequest struct {
	Title         *string          `json:"title"`
	TitleBn       *string          `json:"title_bn"`
	Description   *string          `json:"description"`
	DescriptionBn *string          `json:"description_bn"`
	Price         *float64         `json:"price"`
	MOQ           *string          `json:"moq"`
	Blend         *string          `json:"blend"`
	Category      *models.Category `json:"category"`
	Image         *string          `json:"image"`
}

// Update handles PATCH /v1/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.store.UpdateProduct(c.Request.Context(), c.Param("id"), store.ProductPatch(req))
	if err != nil {
		respondError(c, h.logger, err, "update product")
		return
	}
	c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /v1/products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.store.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, "delete product")
		return
	}
	c.Status(http.StatusNoContent)
}

// ReplaceAll handles PUT /v1/products, loading a whole catalog at once.
func (h *ProductHandler) ReplaceAll(c *gin.Context) {
	var products []models.Product
	if err := c.ShouldBindJSON(&products); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.SetProducts(c.Request.Context(), products); err != nil {
		respondError(c, h.logger, err, "replace products")
		return
	}
	state, _ := h.store.Snapshot()
	c.JSON(http.StatusOK, state.Products)
}
