package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/auraloom/internal/models"
	"github.com/lalith-99/auraloom/internal/store"
	"go.uber.org/zap"
)

type UserHandler struct {
	store  *store.Store
	logger *zap.Logger
}

func NewUserHandler(st *store.Store, logger *zap.Logger) *UserHandler {
	return &UserHandler{store: st, logger: logger}
}

// GetMe handles GET /v1/user
func (h *UserHandler) GetMe(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.User())
}

type replaceUserRequest struct {
	ID         string                `json:"id" binding:"required"`
	Name       string                `json:"name"`
	Email      string                `json:"email" binding:"omitempty,email"`
	Mode       models.UserMode       `json:"mode" binding:"required,oneof=guest buyer seller"`
	Membership models.MembershipTier `json:"membership" binding:"required,oneof=free premium"`
	Avatar     string                `json:"avatar"`
}

// Replace handles PUT /v1/user
func (h *UserHandler) Replace(c *gin.Context) {
	var req replaceUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.SetUser(c.Request.Context(), models.User(req)); err != nil {
		respondError(c, h.logger, err, "replace user")
		return
	}
	c.JSON(http.StatusOK, h.store.User())
}

type setModeRequest struct {
	Mode models.UserMode `json:"mode" binding:"required,oneof=guest buyer seller"`
}

// SetMode handles PUT /v1/user/mode
func (h *UserHandler) SetMode(c *gin.Context) {
	var req setModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.SetUserMode(c.Request.Context(), req.Mode); err != nil {
		respondError(c, h.logger, err, "set user mode")
		return
	}
	c.JSON(http.StatusOK, h.store.User())
}

type setMembershipRequest struct {
	Membership models.MembershipTier `json:"membership" binding:"required,oneof=free premium"`
}

// SetMembership handles PUT /v1/user/membership
//
// There is no billing behind this; upgrading is a plain state change.
func (h *UserHandler) SetMembership(c *gin.Context) {
	var req setMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.SetMembership(c.Request.Context(), req.Membership); err != nil {
		respondError(c, h.logger, err, "set membership")
		return
	}
	c.JSON(http.StatusOK, h.store.User())
}

func etag(version uint64) string {
	return `"` + strconv.FormatUint(version, 10) + `"`
}
