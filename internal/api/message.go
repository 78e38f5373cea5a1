package api

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/auraloom/internal/middleware"
	"github.com/lalith-99/auraloom/internal/models"
	"github.com/lalith-99/auraloom/internal/store"
	"go.uber.org/zap"
)

type MessageHandler struct {
	store  *store.Store
	logger *zap.Logger
}

func NewMessageHandler(st *store.Store, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{store: st, logger: logger}
}

type createMessageRequest struct {
	ReceiverID string `json:"receiver_id" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

// Create handles POST /v1/messages
func (h *MessageHandler) Create(c *gin.Context) {
	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	m, err := h.store.SendMessage(c.Request.Context(), models.Message{
		SenderID:   middleware.GetUserID(c),
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
	})
	if err != nil {
		respondError(c, h.logger, err, "send message")
		return
	}
	c.JSON(http.StatusCreated, m)
}

// List handles GET /v1/messages?unread=true
//
// Returns every message the session user sent or received, oldest first.
func (h *MessageHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	unreadOnly := c.Query("unread") == "true"

	out := make([]models.Message, 0)
	for _, conv := range h.store.Conversations(userID) {
		for _, m := range conv.Messages {
			if unreadOnly && (m.Read || m.ReceiverID != userID) {
				continue
			}
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	c.Header("X-Unread-Count", strconv.Itoa(h.store.UnreadMessageCount(userID)))
	c.JSON(http.StatusOK, out)
}

// Conversations handles GET /v1/conversations
func (h *MessageHandler) Conversations(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Conversations(middleware.GetUserID(c)))
}

// Conversation handles GET /v1/conversations/:peer
func (h *MessageHandler) Conversation(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Conversation(middleware.GetUserID(c), c.Param("peer")))
}

// MarkRead handles POST /v1/messages/:id/read
func (h *MessageHandler) MarkRead(c *gin.Context) {
	if err := h.store.MarkMessageAsRead(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, "mark message as read")
		return
	}
	c.Status(http.StatusNoContent)
}
