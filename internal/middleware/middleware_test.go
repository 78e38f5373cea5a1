package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/auraloom/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type staticUser models.User

func (u staticUser) User() models.User { return models.User(u) }

func newRouter(logger *zap.Logger, user models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(logger), Session(staticUser(user)))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c), "request_id": GetRequestID(c)})
	})
	r.POST("/sell", RequireMode(models.ModeSeller), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestRequestLogger_IssuesRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newRouter(zap.New(core), models.User{ID: "user1", Mode: models.ModeBuyer})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
	assert.Contains(t, w.Body.String(), `"id":"user1"`)

	entries := logs.FilterMessage("request handled").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "/whoami", entries[0].ContextMap()["path"])
}

func TestRequestLogger_KeepsClientRequestID(t *testing.T) {
	r := newRouter(zap.NewNop(), models.User{ID: "user1"})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
	assert.Contains(t, w.Body.String(), `"request_id":"abc-123"`)
}

func TestRequireMode(t *testing.T) {
	tests := []struct {
		name string
		mode models.UserMode
		want int
	}{
		{"seller allowed", models.ModeSeller, http.StatusNoContent},
		{"buyer forbidden", models.ModeBuyer, http.StatusForbidden},
		{"guest forbidden", models.ModeGuest, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.InfoLevel)
			r := newRouter(zap.New(core), models.User{ID: "user1", Mode: tt.mode})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sell", nil))
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusForbidden {
				assert.Contains(t, w.Body.String(), "mode_forbidden")
				assert.Equal(t, 1, logs.FilterMessage("request rejected").Len())
			}
		})
	}
}

func TestGetUser_WithoutSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, models.User{}, GetUser(c))
}
