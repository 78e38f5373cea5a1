package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/lalith-99/auraloom/internal/models"
	"github.com/lalith-99/auraloom/internal/repository"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*StateStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStateStore(rdb), mr
}

func TestStateStore_RoundTrip(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	got, err := store.Load(ctx, "auraloom-storage")
	require.NoError(t, err)
	assert.Nil(t, got)

	state := models.State{
		User:            models.User{ID: "user1", Mode: models.ModeSeller, Membership: models.TierPremium},
		FollowedSellers: []string{"s1", "s2"},
		Cart:            []models.CartItem{{ProductID: "p1", Quantity: 3}},
	}
	require.NoError(t, store.Save(ctx, "auraloom-storage", state))
	assert.True(t, mr.Exists("auraloom-storage"))
	assert.Zero(t, mr.TTL("auraloom-storage"))

	got, err = store.Load(ctx, "auraloom-storage")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, state.User, got.User)
	assert.Equal(t, state.FollowedSellers, got.FollowedSellers)
	assert.Equal(t, state.Cart, got.Cart)

	require.NoError(t, store.Delete(ctx, "auraloom-storage"))
	assert.False(t, mr.Exists("auraloom-storage"))
}

func TestStateStore_LoadRejectsForeignPayload(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, mr.Set("k", `{"version":7,"state":{}}`))

	_, err := store.Load(context.Background(), "k")
	assert.ErrorIs(t, err, repository.ErrUnsupportedVersion)
}

func TestStateStore_ServerDown(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	err := store.Save(context.Background(), "k", models.State{})
	assert.Error(t, err)
	_, err = store.Load(context.Background(), "k")
	assert.Error(t, err)
}
