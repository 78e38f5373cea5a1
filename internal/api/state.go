package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/auraloom/internal/store"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// HealthCheck reports whether one dependency, such as the state backend
// connection, is reachable.
type HealthCheck func(ctx context.Context) error

// StateHandler exposes the whole session snapshot and service health.
type StateHandler struct {
	store  *store.Store
	checks map[string]HealthCheck
	logger *zap.Logger
}

func NewStateHandler(st *store.Store, checks map[string]HealthCheck, logger *zap.Logger) *StateHandler {
	return &StateHandler{store: st, checks: checks, logger: logger}
}

// Health handles GET /v1/health
//
// Responds 503 with status "degraded" when any dependency check fails.
func (h *StateHandler) Health(c *gin.Context) {
	_, version := h.store.Snapshot()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status, code := "ok", http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		err := h.checks[name](ctx)
		cancel()
		if err != nil {
			h.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			results[name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	body := gin.H{"status": status, "version": version}
	if len(results) > 0 {
		body["checks"] = results
	}
	c.JSON(code, body)
}

// Get handles GET /v1/state
//
// The version is also sent as the ETag so clients can tell whether a
// realtime event they already hold is newer than this response.
func (h *StateHandler) Get(c *gin.Context) {
	state, version := h.store.Snapshot()
	c.Header("ETag", etag(version))
	c.JSON(http.StatusOK, gin.H{
		"version": version,
		"state":   state,
	})
}
