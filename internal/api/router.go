package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/auraloom/internal/middleware"
	"github.com/lalith-99/auraloom/internal/models"
	"github.com/lalith-99/auraloom/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterConfig carries what NewRouter wires into the handlers.
type RouterConfig struct {
	Store  *store.Store
	Policy Policy
	Logger *zap.Logger

	// Realtime serves GET /v1/ws when set.
	Realtime http.Handler

	// HealthChecks are run by GET /v1/health, keyed by name.
	HealthChecks map[string]HealthCheck
}

// NewRouter builds the gin engine with every route of the service.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	st := cfg.Store

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))

	states := NewStateHandler(st, cfg.HealthChecks, logger)
	users := NewUserHandler(st, logger)
	products := NewProductHandler(st, cfg.Policy, logger)
	sellers := NewSellerHandler(st, logger)
	channels := NewChannelHandler(st, logger)
	subscriptions := NewSubscriptionHandler(st, cfg.Policy, logger)
	broadcasts := NewBroadcastHandler(st, cfg.Policy, logger)
	messages := NewMessageHandler(st, logger)
	cart := NewCartHandler(st, logger)
	notifications := NewNotificationHandler(st, logger)

	// Health and metrics stay outside the session group so liveness checks never
	// depend on store reads.
	r.GET("/v1/health", states.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.Use(middleware.Session(st))
	sellerOnly := middleware.RequireMode(models.ModeSeller)

	v1.GET("/state", states.Get)
	if cfg.Realtime != nil {
		v1.GET("/ws", gin.WrapH(cfg.Realtime))
	}

	v1.GET("/user", users.GetMe)
	v1.PUT("/user", users.Replace)
	v1.PUT("/user/mode", users.SetMode)
	v1.PUT("/user/membership", users.SetMembership)

	v1.GET("/products", products.List)
	v1.PUT("/products", products.ReplaceAll)
	v1.POST("/products", sellerOnly, products.Create)
	v1.GET("/products/:id", products.Get)
	v1.PATCH("/products/:id", products.Update)
	v1.DELETE("/products/:id", products.Delete)

	v1.GET("/sellers", sellers.List)
	v1.PUT("/sellers", sellers.ReplaceAll)
	v1.GET("/sellers/:id", sellers.Get)
	v1.POST("/sellers/:id/follow", sellers.Follow)
	v1.DELETE("/sellers/:id/follow", sellers.Unfollow)
	v1.GET("/sellers/:id/quota", sellers.Quota)
	v1.GET("/sellers/:id/stats", sellers.Stats)
	v1.POST("/sellers/:id/channel", sellers.Channel)

	v1.GET("/channels", channels.List)
	v1.POST("/channels", sellerOnly, channels.Create)
	v1.GET("/channels/:id", channels.GetByID)
	v1.PATCH("/channels/:id", channels.Update)
	v1.GET("/channels/:id/subscribers", subscriptions.ListSubscribers)
	v1.POST("/channels/:id/subscribers", subscriptions.Subscribe)
	v1.DELETE("/channels/:id/subscribers", subscriptions.Unsubscribe)

	v1.GET("/feed", broadcasts.Feed)
	v1.GET("/broadcasts", broadcasts.List)
	v1.POST("/broadcasts", sellerOnly, broadcasts.Create)
	v1.PATCH("/broadcasts/:id", broadcasts.Edit)
	v1.DELETE("/broadcasts/:id", broadcasts.Delete)
	v1.POST("/broadcasts/:id/view", broadcasts.View)
	v1.PUT("/broadcasts/:id/reaction", broadcasts.React)
	v1.DELETE("/broadcasts/:id/reaction", broadcasts.Unreact)
	v1.POST("/broadcasts/:id/pin", broadcasts.Pin)
	v1.DELETE("/broadcasts/:id/pin", broadcasts.Unpin)
	v1.POST("/broadcasts/:id/forward", broadcasts.Forward)

	v1.GET("/messages", messages.List)
	v1.POST("/messages", messages.Create)
	v1.POST("/messages/:id/read", messages.MarkRead)
	v1.GET("/conversations", messages.Conversations)
	v1.GET("/conversations/:peer", messages.Conversation)

	v1.GET("/cart", cart.Get)
	v1.DELETE("/cart", cart.Clear)
	v1.POST("/cart/items", cart.AddItem)
	v1.PUT("/cart/items/:productId", cart.UpdateItem)
	v1.DELETE("/cart/items/:productId", cart.RemoveItem)

	v1.GET("/notifications", notifications.List)
	v1.POST("/notifications", notifications.Create)
	v1.DELETE("/notifications", notifications.Clear)
	v1.POST("/notifications/read", notifications.MarkAllRead)
	v1.POST("/notifications/:id/read", notifications.MarkRead)

	return r
}
