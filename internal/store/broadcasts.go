package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/lalith-99/auraloom/internal/models"
)

// SetBroadcasts replaces every broadcast. Channel and seller counters are
// left as they are.
func (s *Store) SetBroadcasts(ctx context.Context, broadcasts []models.Broadcast) error {
	return s.mutate(ctx, "set_broadcasts", func(tx *txn) error {
		seen := make(map[string]struct{}, len(broadcasts))
		out := make([]models.Broadcast, 0, len(broadcasts))
		for _, b := range broadcasts {
			if b.ID == "" {
				return invalidArgument(tx.op, "broadcast id is required")
			}
			if _, dup := seen[b.ID]; dup {
				return conflict(tx.op, "duplicate broadcast id %q", b.ID)
			}
			seen[b.ID] = struct{}{}
			b = b.Clone()
			b.Views = dedupe(b.Views)
			b.Reactions = latestReactionPerUser(b.Reactions)
			out = append(out, b)
		}
		tx.state.Broadcasts = out
		return nil
	})
}

// AddBroadcast publishes a broadcast to its channel. The broadcast goes to
// the front of the list, the channel's message count and the seller's
// broadcast count go up by one, and a single broadcast notification is
// recorded. Empty ID and timestamp are filled in; the stored broadcast is
// returned. checks see the seller's live counts before the insert.
func (s *Store) AddBroadcast(ctx context.Context, broadcast models.Broadcast, checks ...QuotaCheck) (models.Broadcast, error) {
	var stored models.Broadcast
	err := s.mutate(ctx, "add_broadcast", func(tx *txn) error {
		if strings.TrimSpace(broadcast.Content) == "" {
			return invalidArgument(tx.op, "broadcast content is required")
		}
		ci := tx.channelIndex(broadcast.ChannelID)
		if ci < 0 {
			return notFound(tx.op, "channel", broadcast.ChannelID)
		}
		channel := &tx.state.BroadcastChannels[ci]
		switch broadcast.SellerID {
		case "":
			broadcast.SellerID = channel.SellerID
		case channel.SellerID:
		default:
			return invalidArgument(tx.op, "channel %q does not belong to seller %q", channel.ID, broadcast.SellerID)
		}
		if broadcast.ProductID != "" && tx.productIndex(broadcast.ProductID) < 0 {
			return notFound(tx.op, "product", broadcast.ProductID)
		}
		if err := tx.checkQuota(broadcast.SellerID, checks); err != nil {
			return err
		}
		if broadcast.ID == "" {
			broadcast.ID = "b-" + tx.newID()
		}
		if tx.broadcastIndex(broadcast.ID) >= 0 {
			return conflict(tx.op, "broadcast %q already exists", broadcast.ID)
		}
		if broadcast.Timestamp.IsZero() {
			broadcast.Timestamp = tx.now
		}
		broadcast = broadcast.Clone()
		broadcast.Views = dedupe(broadcast.Views)
		broadcast.Reactions = latestReactionPerUser(broadcast.Reactions)
		broadcast.IsPinned = false

		tx.state.Broadcasts = append([]models.Broadcast{broadcast}, tx.state.Broadcasts...)
		channel.MessageCount++
		if si := tx.sellerIndex(broadcast.SellerID); si >= 0 {
			tx.state.Sellers[si].BroadcastCount++
		}
		tx.notify(models.NotificationBroadcast,
			fmt.Sprintf("%s posted a new message", channel.Name))

		stored = broadcast.Clone()
		return nil
	})
	return stored, err
}

// EditBroadcast replaces the content of a broadcast and stamps EditedAt.
func (s *Store) EditBroadcast(ctx context.Context, broadcastID, content string) (models.Broadcast, error) {
	var edited models.Broadcast
	err := s.mutate(ctx, "edit_broadcast", func(tx *txn) error {
		if strings.TrimSpace(content) == "" {
			return invalidArgument(tx.op, "broadcast content is required")
		}
		bi := tx.broadcastIndex(broadcastID)
		if bi < 0 {
			return notFound(tx.op, "broadcast", broadcastID)
		}
		b := &tx.state.Broadcasts[bi]
		b.Content = content
		b.EditedAt = models.TimePtr(tx.now)
		edited = b.Clone()
		return nil
	})
	return edited, err
}

// ViewBroadcast records that userID has seen the broadcast. Repeated views
// by the same user are not counted.
func (s *Store) ViewBroadcast(ctx context.Context, broadcastID, userID string) error {
	return s.mutate(ctx, "view_broadcast", func(tx *txn) error {
		if strings.TrimSpace(userID) == "" {
			return invalidArgument(tx.op, "user id is required")
		}
		bi := tx.broadcastIndex(broadcastID)
		if bi < 0 {
			return notFound(tx.op, "broadcast", broadcastID)
		}
		b := &tx.state.Broadcasts[bi]
		if indexOf(b.Views, userID) >= 0 {
			return errUnchanged
		}
		b.Views = append(b.Views, userID)
		return nil
	})
}

// AddReaction sets userID's reaction on a broadcast, replacing any reaction
// the user already had there.
func (s *Store) AddReaction(ctx context.Context, broadcastID, userID string, reaction models.ReactionType) error {
	return s.mutate(ctx, "add_reaction", func(tx *txn) error {
		if !reaction.Valid() {
			return invalidArgument(tx.op, "unknown reaction type %q", reaction)
		}
		if strings.TrimSpace(userID) == "" {
			return invalidArgument(tx.op, "user id is required")
		}
		bi := tx.broadcastIndex(broadcastID)
		if bi < 0 {
			return notFound(tx.op, "broadcast", broadcastID)
		}
		b := &tx.state.Broadcasts[bi]
		b.Reactions = append(withoutReactionBy(b.Reactions, userID),
			models.Reaction{UserID: userID, Type: reaction})
		return nil
	})
}

// RemoveReaction drops userID's reaction from a broadcast if there is one.
func (s *Store) RemoveReaction(ctx context.Context, broadcastID, userID string) error {
	return s.mutate(ctx, "remove_reaction", func(tx *txn) error {
		bi := tx.broadcastIndex(broadcastID)
		if bi < 0 {
			return notFound(tx.op, "broadcast", broadcastID)
		}
		b := &tx.state.Broadcasts[bi]
		if _, ok := b.ReactionBy(userID); !ok {
			return errUnchanged
		}
		b.Reactions = withoutReactionBy(b.Reactions, userID)
		return nil
	})
}

// LikeBroadcast is the older single-reaction form of AddReaction.
//
// Deprecated: use AddReaction with models.ReactionLike.
func (s *Store) LikeBroadcast(ctx context.Context, broadcastID, userID string) error {
	return s.AddReaction(ctx, broadcastID, userID, models.ReactionLike)
}

// UnlikeBroadcast is the older form of RemoveReaction.
//
// Deprecated: use RemoveReaction.
func (s *Store) UnlikeBroadcast(ctx context.Context, broadcastID, userID string) error {
	return s.RemoveReaction(ctx, broadcastID, userID)
}

// PinBroadcast pins a broadcast to the top of its channel. A channel has at
// most one pinned broadcast: whatever was pinned there before is unpinned.
func (s *Store) PinBroadcast(ctx context.Context, broadcastID string) error {
	return s.mutate(ctx, "pin_broadcast", func(tx *txn) error {
		bi := tx.broadcastIndex(broadcastID)
		if bi < 0 {
			return notFound(tx.op, "broadcast", broadcastID)
		}
		channelID := tx.state.Broadcasts[bi].ChannelID
		for i := range tx.state.Broadcasts {
			if tx.state.Broadcasts[i].ChannelID == channelID {
				tx.state.Broadcasts[i].IsPinned = i == bi
			}
		}
		if ci := tx.channelIndex(channelID); ci >= 0 {
			tx.state.BroadcastChannels[ci].PinnedMessageID = broadcastID
		}
		return nil
	})
}

// UnpinBroadcast clears the pinned flag. The channel's pin pointer is only
// cleared when it references this broadcast.
func (s *Store) UnpinBroadcast(ctx context.Context, broadcastID string) error {
	return s.mutate(ctx, "unpin_broadcast", func(tx *txn) error {
		bi := tx.broadcastIndex(broadcastID)
		if bi < 0 {
			return notFound(tx.op, "broadcast", broadcastID)
		}
		b := &tx.state.Broadcasts[bi]
		b.IsPinned = false
		if ci := tx.channelIndex(b.ChannelID); ci >= 0 {
			if tx.state.BroadcastChannels[ci].PinnedMessageID == broadcastID {
				tx.state.BroadcastChannels[ci].PinnedMessageID = ""
			}
		}
		return nil
	})
}

// ForwardBroadcast counts one more forward. The counter never goes down.
func (s *Store) ForwardBroadcast(ctx context.Context, broadcastID string) error {
	return s.mutate(ctx, "forward_broadcast", func(tx *txn) error {
		bi := tx.broadcastIndex(broadcastID)
		if bi < 0 {
			return notFound(tx.op, "broadcast", broadcastID)
		}
		tx.state.Broadcasts[bi].Forwards++
		return nil
	})
}

// DeleteBroadcast removes a broadcast, decrements the channel message count
// and the seller broadcast count (both floor 0) and clears the channel's
// pin pointer when it referenced the broadcast.
func (s *Store) DeleteBroadcast(ctx context.Context, broadcastID string) error {
	return s.mutate(ctx, "delete_broadcast", func(tx *txn) error {
		bi := tx.broadcastIndex(broadcastID)
		if bi < 0 {
			return notFound(tx.op, "broadcast", broadcastID)
		}
		b := tx.state.Broadcasts[bi]
		tx.state.Broadcasts = append(tx.state.Broadcasts[:bi], tx.state.Broadcasts[bi+1:]...)

		if ci := tx.channelIndex(b.ChannelID); ci >= 0 {
			c := &tx.state.BroadcastChannels[ci]
			c.MessageCount = decrement(c.MessageCount)
			if c.PinnedMessageID == broadcastID {
				c.PinnedMessageID = ""
			}
		}
		if si := tx.sellerIndex(b.SellerID); si >= 0 {
			tx.state.Sellers[si].BroadcastCount = decrement(tx.state.Sellers[si].BroadcastCount)
		}
		return nil
	})
}

func withoutReactionBy(reactions []models.Reaction, userID string) []models.Reaction {
	out := make([]models.Reaction, 0, len(reactions))
	for _, r := range reactions {
		if r.UserID != userID {
			out = append(out, r)
		}
	}
	return out
}

// latestReactionPerUser keeps the last reaction of each user, preserving the
// order in which those last reactions appear.
func latestReactionPerUser(reactions []models.Reaction) []models.Reaction {
	out := make([]models.Reaction, 0, len(reactions))
	for _, r := range reactions {
		out = append(withoutReactionBy(out, r.UserID), r)
	}
	return out
}
