package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/auraloom/internal/models"
	"github.com/lalith-99/auraloom/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// seedState has the session user "s1" acting as the seller "Dhaka Weavers"
// on the free tier.
func seedState() models.State {
	return models.State{
		User: models.User{ID: "s1", Name: "Nasrin", Mode: models.ModeSeller, Membership: models.TierFree},
		Sellers: []models.Seller{
			{ID: "s1", Name: "Dhaka Weavers", ProductCount: 1},
			{ID: "s2", Name: "Jute House", ProductCount: 1},
		},
		Products: []models.Product{
			{ID: "p1", SellerID: "s1", Title: "Cotton Poplin", Price: 12.5, Category: models.CategoryFabric},
			{ID: "p2", SellerID: "s2", Title: "Jute Twine", Price: 3, Category: models.CategoryJute},
		},
	}
}

type testServer struct {
	t      *testing.T
	store  *store.Store
	router *gin.Engine
}

func newTestServer(t *testing.T, state models.State) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tick := epoch
	seq := 0
	st := store.New(
		store.WithState(state),
		store.WithClock(func() time.Time {
			tick = tick.Add(time.Second)
			return tick
		}),
		store.WithIDGenerator(func() string {
			seq++
			return strconv.Itoa(seq)
		}),
	)
	return &testServer{
		t:      t,
		store:  st,
		router: NewRouter(RouterConfig{Store: st, Policy: DefaultPolicy}),
	}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func assertCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.Equal(t, code, body["code"])
}

func TestHealthAndState(t *testing.T) {
	srv := newTestServer(t, seedState())

	w := srv.do(http.MethodGet, "/v1/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, w)["status"])

	w = srv.do(http.MethodGet, "/v1/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `"0"`, w.Header().Get("ETag"))

	var resp struct {
		Version uint64       `json:"version"`
		State   models.State `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Zero(t, resp.Version)
	assert.Equal(t, "s1", resp.State.User.ID)
	assert.Len(t, resp.State.Products, 2)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, seedState())
	srv.do(http.MethodGet, "/v1/user", nil)

	w := srv.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "auraloom_http_requests_total")
}

func TestCreateProduct_FreeQuota(t *testing.T) {
	srv := newTestServer(t, seedState())
	product := map[string]any{"title": "Khadi Yarn", "price": 4.5, "category": "yarn"}

	// s1 already lists p1; the free tier allows two.
	w := srv.do(http.MethodPost, "/v1/products", product)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.Product](t, w)
	assert.Equal(t, "s1", created.SellerID)
	assert.NotEmpty(t, created.ID)

	w = srv.do(http.MethodPost, "/v1/products", product)
	assertCode(t, w, http.StatusForbidden, CodeQuotaExceeded)
	assert.Equal(t, 2, srv.store.SellerQuota("s1").Products)

	w = srv.do(http.MethodPut, "/v1/user/membership", map[string]any{"membership": "premium"})
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(http.MethodPost, "/v1/products", product)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 3, srv.store.SellerQuota("s1").Products)
}

func TestCreateProduct_RequiresSellerMode(t *testing.T) {
	state := seedState()
	state.User.Mode = models.ModeBuyer
	srv := newTestServer(t, state)

	w := srv.do(http.MethodPost, "/v1/products", map[string]any{"title": "Khadi", "category": "yarn"})
	assertCode(t, w, http.StatusForbidden, "mode_forbidden")
}

func TestCreateProduct_Validation(t *testing.T) {
	srv := newTestServer(t, seedState())

	w := srv.do(http.MethodPost, "/v1/products", map[string]any{"title": "Khadi", "category": "silk"})
	assertCode(t, w, http.StatusBadRequest, string(store.KindInvalidArgument))

	w = srv.do(http.MethodPost, "/v1/products", map[string]any{"seller_id": "ghost", "title": "Khadi", "category": "yarn"})
	assertCode(t, w, http.StatusNotFound, string(store.KindNotFound))
}

func TestProducts_ListGetUpdateDelete(t *testing.T) {
	srv := newTestServer(t, seedState())

	w := srv.do(http.MethodGet, "/v1/products?category=jute", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Product](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "p2", list[0].ID)

	w = srv.do(http.MethodGet, "/v1/products?category=silk", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(http.MethodGet, "/v1/products/nope", nil)
	assertCode(t, w, http.StatusNotFound, string(store.KindNotFound))

	w = srv.do(http.MethodPatch, "/v1/products/p1", map[string]any{"price": 14})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 14.0, decode[models.Product](t, w).Price)
	assert.Equal(t, "Cotton Poplin", decode[models.Product](t, w).Title)

	w = srv.do(http.MethodDelete, "/v1/products/p1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = srv.do(http.MethodGet, "/v1/products/p1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFollowSeller(t *testing.T) {
	srv := newTestServer(t, seedState())

	w := srv.do(http.MethodPost, "/v1/sellers/s2/follow", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[sellerView](t, w)
	assert.True(t, view.Following)
	assert.Equal(t, 1, view.Followers)

	w = srv.do(http.MethodPost, "/v1/sellers/s2/follow", nil)
	assertCode(t, w, http.StatusConflict, string(store.KindConflict))

	w = srv.do(http.MethodPost, "/v1/sellers/ghost/follow", nil)
	assertCode(t, w, http.StatusNotFound, string(store.KindNotFound))

	w = srv.do(http.MethodDelete, "/v1/sellers/s2/follow", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	s, _ := srv.store.Seller("s2")
	assert.Zero(t, s.Followers)
}

func TestSellerChannel_CreatedOnce(t *testing.T) {
	srv := newTestServer(t, seedState())

	w := srv.do(http.MethodPost, "/v1/sellers/s2/channel", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	first := decode[models.BroadcastChannel](t, w)
	assert.Equal(t, "Jute House Updates", first.Name)

	w = srv.do(http.MethodPost, "/v1/sellers/s2/channel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first.ID, decode[models.BroadcastChannel](t, w).ID)
}

func TestCreateBroadcast_LazyChannelAndQuota(t *testing.T) {
	srv := newTestServer(t, seedState())

	w := srv.do(http.MethodPost, "/v1/broadcasts", map[string]any{"content": "New indigo batch"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	b := decode[models.Broadcast](t, w)
	assert.Equal(t, "s1", b.SellerID)

	ch, ok := srv.store.ChannelForSeller("s1")
	require.True(t, ok)
	assert.Equal(t, ch.ID, b.ChannelID)
	assert.Equal(t, 1, ch.MessageCount)

	w = srv.do(http.MethodPost, "/v1/broadcasts", map[string]any{"content": "Second", "channel_id": ch.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = srv.do(http.MethodPost, "/v1/broadcasts", map[string]any{"content": "Third"})
	assertCode(t, w, http.StatusForbidden, CodeQuotaExceeded)

	w = srv.do(http.MethodPost, "/v1/broadcasts", map[string]any{"content": "Elsewhere", "channel_id": "ghost"})
	assertCode(t, w, http.StatusNotFound, string(store.KindNotFound))
}

func TestBroadcastInteractions(t *testing.T) {
	srv := newTestServer(t, seedState())
	w := srv.do(http.MethodPost, "/v1/broadcasts", map[string]any{"content": "New indigo batch"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[models.Broadcast](t, w).ID

	w = srv.do(http.MethodPost, "/v1/broadcasts/"+id+"/view", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = srv.do(http.MethodPost, "/v1/broadcasts/"+id+"/view", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[models.Broadcast](t, w).Views, 1)

	w = srv.do(http.MethodPut, "/v1/broadcasts/"+id+"/reaction", map[string]any{"type": "fire"})
	require.Equal(t, http.StatusOK, w.Code)
	reactions := decode[models.Broadcast](t, w).Reactions
	require.Len(t, reactions, 1)
	assert.Equal(t, models.ReactionFire, reactions[0].Type)

	w = srv.do(http.MethodPut, "/v1/broadcasts/"+id+"/reaction", map[string]any{"type": "meh"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(http.MethodPost, "/v1/broadcasts/"+id+"/pin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[models.Broadcast](t, w).IsPinned)

	w = srv.do(http.MethodPost, "/v1/broadcasts/"+id+"/forward", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[models.Broadcast](t, w).Forwards)

	w = srv.do(http.MethodPatch, "/v1/broadcasts/"+id, map[string]any{"content": "Indigo batch sold out"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Indigo batch sold out", decode[models.Broadcast](t, w).Content)

	w = srv.do(http.MethodDelete, "/v1/broadcasts/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = srv.do(http.MethodPost, "/v1/broadcasts/"+id+"/view", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeed_Policy(t *testing.T) {
	srv := newTestServer(t, seedState())

	w := srv.do(http.MethodGet, "/v1/feed", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = srv.do(http.MethodPut, "/v1/user/mode", map[string]any{"mode": "buyer"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ModeBuyer, decode[models.User](t, w).Mode)

	w = srv.do(http.MethodGet, "/v1/feed", nil)
	assertCode(t, w, http.StatusForbidden, CodePremiumRequired)

	srv.do(http.MethodPut, "/v1/user/membership", map[string]any{"membership": "premium"})
	w = srv.do(http.MethodGet, "/v1/feed", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubscribe_PremiumOnlyChannel(t *testing.T) {
	state := seedState()
	state.User = models.User{ID: "buyer1", Mode: models.ModeBuyer, Membership: models.TierFree}
	state.BroadcastChannels = []models.BroadcastChannel{
		{ID: "c2", SellerID: "s2", Name: "Jute House Insiders", IsPremiumOnly: true,
			Settings: models.ChannelSettings{ShowSubscriberCount: false}},
	}
	srv := newTestServer(t, state)

	w := srv.do(http.MethodPost, "/v1/channels/c2/subscribers", nil)
	assertCode(t, w, http.StatusForbidden, CodePremiumRequired)

	srv.do(http.MethodPut, "/v1/user/membership", map[string]any{"membership": "premium"})
	w = srv.do(http.MethodPost, "/v1/channels/c2/subscribers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"buyer1"}, decode[models.BroadcastChannel](t, w).Subscribers)

	w = srv.do(http.MethodPost, "/v1/channels/c2/subscribers", nil)
	assertCode(t, w, http.StatusConflict, string(store.KindConflict))

	// The count is hidden from everyone but the owner.
	w = srv.do(http.MethodGet, "/v1/channels/c2/subscribers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[map[string]any](t, w)["count"])

	w = srv.do(http.MethodGet, "/v1/channels?subscribed=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.BroadcastChannel](t, w), 1)

	w = srv.do(http.MethodDelete, "/v1/channels/c2/subscribers", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = srv.do(http.MethodGet, "/v1/channels?subscribed=true", nil)
	assert.Empty(t, decode[[]models.BroadcastChannel](t, w))
}

func TestCreateChannel(t *testing.T) {
	srv := newTestServer(t, seedState())

	w := srv.do(http.MethodPost, "/v1/channels", map[string]any{"name": "Weavers Daily"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ch := decode[models.BroadcastChannel](t, w)
	assert.Equal(t, "s1", ch.SellerID)
	assert.Equal(t, store.DefaultChannelSettings, ch.Settings)

	w = srv.do(http.MethodPost, "/v1/channels", map[string]any{"name": "Another"})
	assertCode(t, w, http.StatusConflict, string(store.KindConflict))

	w = srv.do(http.MethodPatch, "/v1/channels/"+ch.ID, map[string]any{"description": "Fresh weaves every week"})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[models.BroadcastChannel](t, w)
	assert.Equal(t, "Fresh weaves every week", updated.Description)
	assert.Equal(t, "Weavers Daily", updated.Name)
}

func TestCart(t *testing.T) {
	srv := newTestServer(t, seedState())

	w := srv.do(http.MethodPost, "/v1/cart/items", map[string]any{"product_id": "p1", "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[store.CartSummary](t, w)
	assert.Equal(t, 2, summary.TotalItems)
	assert.Equal(t, 25.0, summary.Total)

	w = srv.do(http.MethodPost, "/v1/cart/items", map[string]any{"product_id": "p2"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 28.0, decode[store.CartSummary](t, w).Total)

	w = srv.do(http.MethodPost, "/v1/cart/items", map[string]any{"product_id": "p2", "quantity": -1})
	assertCode(t, w, http.StatusBadRequest, string(store.KindInvalidArgument))

	w = srv.do(http.MethodPost, "/v1/cart/items", map[string]any{"product_id": "ghost"})
	assertCode(t, w, http.StatusNotFound, string(store.KindNotFound))

	w = srv.do(http.MethodPut, "/v1/cart/items/p1", map[string]any{"quantity": 4})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 53.0, decode[store.CartSummary](t, w).Total)

	w = srv.do(http.MethodDelete, "/v1/cart/items/p2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[store.CartSummary](t, w).Lines, 1)

	w = srv.do(http.MethodDelete, "/v1/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decode[store.CartSummary](t, w).TotalItems)
}

func TestMessages(t *testing.T) {
	state := seedState()
	state.Messages = []models.Message{
		{ID: "m0", SenderID: "s2", ReceiverID: "s1", Content: "Is p1 in stock?", Timestamp: epoch},
	}
	srv := newTestServer(t, state)

	w := srv.do(http.MethodPost, "/v1/messages", map[string]any{"receiver_id": "s2", "content": "Yes, 400 metres"})
	require.Equal(t, http.StatusCreated, w.Code)
	sent := decode[models.Message](t, w)
	assert.Equal(t, "s1", sent.SenderID)

	w = srv.do(http.MethodGet, "/v1/messages?unread=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-Unread-Count"))
	unread := decode[[]models.Message](t, w)
	require.Len(t, unread, 1)
	assert.Equal(t, "m0", unread[0].ID)

	w = srv.do(http.MethodGet, "/v1/conversations/s2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	thread := decode[[]models.Message](t, w)
	require.Len(t, thread, 2)
	assert.Equal(t, "m0", thread[0].ID)

	w = srv.do(http.MethodPost, "/v1/messages/m0/read", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = srv.do(http.MethodGet, "/v1/messages", nil)
	assert.Equal(t, "0", w.Header().Get("X-Unread-Count"))

	w = srv.do(http.MethodPost, "/v1/messages/ghost/read", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = srv.do(http.MethodPost, "/v1/messages", map[string]any{"receiver_id": "s2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotifications(t *testing.T) {
	srv := newTestServer(t, seedState())

	w := srv.do(http.MethodPost, "/v1/notifications", map[string]any{"type": "order", "content": "Order shipped"})
	require.Equal(t, http.StatusCreated, w.Code)
	n := decode[models.Notification](t, w)

	w = srv.do(http.MethodPost, "/v1/notifications", map[string]any{"type": "follow", "content": "New follower"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = srv.do(http.MethodGet, "/v1/notifications?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Notifications []models.Notification `json:"notifications"`
		Unread        int                   `json:"unread"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Notifications, 1)
	assert.Equal(t, 2, list.Unread)

	w = srv.do(http.MethodPost, "/v1/notifications/"+n.ID+"/read", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 1, srv.store.UnreadNotificationCount())

	w = srv.do(http.MethodPost, "/v1/notifications/read", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, srv.store.UnreadNotificationCount())

	w = srv.do(http.MethodDelete, "/v1/notifications", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	state, _ := srv.store.Snapshot()
	assert.Empty(t, state.Notifications)

	w = srv.do(http.MethodGet, "/v1/notifications?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSellerStats(t *testing.T) {
	srv := newTestServer(t, seedState())
	srv.do(http.MethodPost, "/v1/broadcasts", map[string]any{"content": "New indigo batch"})

	w := srv.do(http.MethodGet, "/v1/sellers/s1/quota", nil)
	require.Equal(t, http.StatusOK, w.Code)
	q := decode[store.Quota](t, w)
	assert.Equal(t, 1, q.Products)
	assert.Equal(t, 1, q.Broadcasts)

	w = srv.do(http.MethodGet, "/v1/sellers/s1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[store.BroadcastStats](t, w).Broadcasts)
}

func TestHealth_ReportsFailingCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	st := store.New(store.WithState(seedState()))
	router := NewRouter(RouterConfig{
		Store:  st,
		Policy: DefaultPolicy,
		HealthChecks: map[string]HealthCheck{
			"postgres": func(context.Context) error { return errors.New("connection refused") },
			"redis":    func(context.Context) error { return nil },
		},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{
		"status": "degraded",
		"version": 0,
		"checks": {"postgres": "connection refused", "redis": "ok"}
	}`, w.Body.String())
}

func TestCreateProduct_ConcurrentRequestsRespectFreeQuota(t *testing.T) {
	srv := newTestServer(t, seedState())
	body, err := json.Marshal(map[string]any{"title": "Khadi Yarn", "price": 4.5, "category": "yarn"})
	require.NoError(t, err)

	const workers = 8
	codes := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/v1/products", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			srv.router.ServeHTTP(w, req)
			codes <- w.Code
		}()
	}
	wg.Wait()
	close(codes)

	counts := map[int]int{}
	for code := range codes {
		counts[code]++
	}
	// s1 already lists p1, so exactly one more fits in the free tier.
	assert.Equal(t, map[int]int{http.StatusCreated: 1, http.StatusForbidden: workers - 1}, counts)
	assert.Equal(t, 2, srv.store.SellerQuota("s1").Products)
}

func TestFeed_OpenToGuests(t *testing.T) {
	state := seedState()
	state.User.Mode = models.ModeGuest
	srv := newTestServer(t, state)

	w := srv.do(http.MethodGet, "/v1/feed", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
