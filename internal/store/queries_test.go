package store

import (
	"context"
	"testing"
	"time"

	"github.com/lalith-99/auraloom/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribedFeed_PinnedFirstThenNewest(t *testing.T) {
	st := seedState()
	st.BroadcastChannels = append(st.BroadcastChannels,
		models.BroadcastChannel{ID: "c2", SellerID: "s2", Name: "Jute News", Subscribers: []string{"buyer1"}},
		models.BroadcastChannel{ID: "c3", SellerID: "s3", Name: "Elsewhere"},
	)
	st.BroadcastChannels[0].Subscribers = []string{"buyer1"}
	st.Broadcasts = []models.Broadcast{
		{ID: "old", ChannelID: "c1", SellerID: "s1", Content: "a", Timestamp: epoch},
		{ID: "pinned", ChannelID: "c1", SellerID: "s1", Content: "b", Timestamp: epoch.Add(-time.Hour), IsPinned: true},
		{ID: "new", ChannelID: "c2", SellerID: "s2", Content: "c", Timestamp: epoch.Add(time.Hour)},
		{ID: "hidden", ChannelID: "c3", SellerID: "s3", Content: "d", Timestamp: epoch.Add(2 * time.Hour)},
	}
	s := newTestStore(t, WithState(st))

	feed := s.SubscribedFeed("buyer1")
	ids := make([]string, 0, len(feed))
	for _, b := range feed {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"pinned", "new", "old"}, ids)
	assert.Empty(t, s.SubscribedFeed("nobody"))
}

func TestBroadcastStats(t *testing.T) {
	s := withBroadcasts(t)
	ctx := context.Background()

	require.NoError(t, s.SubscribeToChannel(ctx, "c1", "u1"))
	require.NoError(t, s.ViewBroadcast(ctx, "b1", "u1"))
	require.NoError(t, s.ViewBroadcast(ctx, "b1", "u2"))
	require.NoError(t, s.ViewBroadcast(ctx, "b2", "u1"))
	require.NoError(t, s.ViewBroadcast(ctx, "b2", "u3"))
	require.NoError(t, s.AddReaction(ctx, "b1", "u1", models.ReactionLove))
	require.NoError(t, s.ForwardBroadcast(ctx, "b2"))

	stats := s.BroadcastStats("s1")
	assert.Equal(t, 2, stats.Broadcasts)
	assert.Equal(t, 1, stats.Subscribers)
	assert.Equal(t, 4, stats.TotalViews)
	assert.Equal(t, 1, stats.TotalReactions)
	assert.Equal(t, 1, stats.TotalForwards)
	assert.InDelta(t, 25.0, stats.Engagement, 1e-9)

	empty := s.BroadcastStats("s9")
	assert.Zero(t, empty.Broadcasts)
	assert.Zero(t, empty.Engagement)
}

func TestBroadcastStats_NoViews(t *testing.T) {
	s := withBroadcasts(t)
	require.NoError(t, s.AddReaction(context.Background(), "b3", "u1", models.ReactionClap))

	stats := s.BroadcastStats("s2")
	assert.InDelta(t, 100.0, stats.Engagement, 1e-9)
}

func TestSellerQuota_CountsLiveEntities(t *testing.T) {
	s := withBroadcasts(t)
	ctx := context.Background()

	q := s.SellerQuota("s1")
	assert.Equal(t, Quota{SellerID: "s1", Products: 1, Broadcasts: 2}, q)

	require.NoError(t, s.DeleteBroadcast(ctx, "b1"))
	require.NoError(t, s.DeleteProduct(ctx, "p1"))
	q = s.SellerQuota("s1")
	assert.Equal(t, 0, q.Products)
	assert.Equal(t, 1, q.Broadcasts)
}

func TestLookups(t *testing.T) {
	s := seeded(t)

	_, ok := s.Seller("s9")
	assert.False(t, ok)
	p, ok := s.Product("p2")
	require.True(t, ok)
	assert.Equal(t, "Jute Twine", p.Title)

	ch, ok := s.ChannelForSeller("s1")
	require.True(t, ok)
	assert.Equal(t, "c1", ch.ID)
	_, ok = s.ChannelForSeller("s2")
	assert.False(t, ok)

	assert.Empty(t, s.SellerBroadcasts("s1"))
}
