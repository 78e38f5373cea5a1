package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/lalith-99/auraloom/internal/models"
)

// ChannelPatch carries the editable fields of a channel. Nil fields are left
// unchanged. Subscribers, counters and the pin pointer are owned by their
// respective operations and cannot be patched.
type ChannelPatch struct {
	Name          *string
	NameBn        *string
	Description   *string
	DescriptionBn *string
	Avatar        *string
	IsPremiumOnly *bool
	Settings      *models.ChannelSettings
}

// DefaultChannelSettings are applied to lazily created channels.
var DefaultChannelSettings = models.ChannelSettings{
	NotificationsEnabled: true,
	AllowComments:        false,
	ShowSubscriberCount:  true,
}

// SetBroadcastChannels replaces all channels.
func (s *Store) SetBroadcastChannels(ctx context.Context, channels []models.BroadcastChannel) error {
	return s.mutate(ctx, "set_broadcast_channels", func(tx *txn) error {
		ids := make(map[string]struct{}, len(channels))
		sellers := make(map[string]struct{}, len(channels))
		out := make([]models.BroadcastChannel, 0, len(channels))
		for _, c := range channels {
			if c.ID == "" || c.SellerID == "" {
				return invalidArgument(tx.op, "channel id and seller id are required")
			}
			if _, dup := ids[c.ID]; dup {
				return conflict(tx.op, "duplicate channel id %q", c.ID)
			}
			if _, dup := sellers[c.SellerID]; dup {
				return conflict(tx.op, "seller %q owns more than one channel", c.SellerID)
			}
			ids[c.ID] = struct{}{}
			sellers[c.SellerID] = struct{}{}
			c = c.Clone()
			c.Subscribers = dedupe(c.Subscribers)
			out = append(out, c)
		}
		tx.state.BroadcastChannels = out
		return nil
	})
}

// CreateBroadcastChannel adds a channel for a seller that has none yet and
// adds a broadcast notification announcing it.
func (s *Store) CreateBroadcastChannel(ctx context.Context, channel models.BroadcastChannel) error {
	return s.mutate(ctx, "create_broadcast_channel", func(tx *txn) error {
		return tx.createChannel(channel)
	})
}

func (tx *txn) createChannel(channel models.BroadcastChannel) error {
	if strings.TrimSpace(channel.SellerID) == "" {
		return invalidArgument(tx.op, "channel seller id is required")
	}
	if strings.TrimSpace(channel.Name) == "" {
		return invalidArgument(tx.op, "channel name is required")
	}
	if tx.channelIndexForSeller(channel.SellerID) >= 0 {
		return conflict(tx.op, "seller %q already has a broadcast channel", channel.SellerID)
	}
	if channel.ID == "" {
		channel.ID = fmt.Sprintf("bc-%s-%s", channel.SellerID, tx.newID())
	}
	if tx.channelIndex(channel.ID) >= 0 {
		return conflict(tx.op, "channel %q already exists", channel.ID)
	}
	if channel.CreatedAt.IsZero() {
		channel.CreatedAt = tx.now
	}
	channel = channel.Clone()
	channel.Subscribers = dedupe(channel.Subscribers)

	tx.state.BroadcastChannels = append(tx.state.BroadcastChannels, channel)
	// A session user who already follows the seller joins the new channel.
	if tx.isFollowing(channel.SellerID) {
		tx.subscribe(len(tx.state.BroadcastChannels)-1, tx.state.User.ID)
	}
	tx.notify(models.NotificationBroadcast,
		fmt.Sprintf("Broadcast channel %q created successfully", channel.Name))
	return nil
}

// GetOrCreateChannel returns the seller's channel, creating it with defaults
// derived from the seller profile the first time it is needed.
func (s *Store) GetOrCreateChannel(ctx context.Context, sellerID string) (models.BroadcastChannel, error) {
	if strings.TrimSpace(sellerID) == "" {
		return models.BroadcastChannel{}, invalidArgument("get_or_create_channel", "seller id is required")
	}
	var channel models.BroadcastChannel
	err := s.mutate(ctx, "get_or_create_channel", func(tx *txn) error {
		if ci := tx.channelIndexForSeller(sellerID); ci >= 0 {
			channel = tx.state.BroadcastChannels[ci].Clone()
			return errUnchanged
		}
		if err := tx.createChannel(tx.defaultChannel(sellerID)); err != nil {
			return err
		}
		channel = tx.state.BroadcastChannels[len(tx.state.BroadcastChannels)-1].Clone()
		return nil
	})
	return channel, err
}

func (tx *txn) defaultChannel(sellerID string) models.BroadcastChannel {
	name, nameBn := "My", "আমার"
	avatar := "https://api.dicebear.com/7.x/initials/svg?seed=" + sellerID
	if si := tx.sellerIndex(sellerID); si >= 0 {
		seller := tx.state.Sellers[si]
		if seller.Name != "" {
			name = seller.Name
		}
		if seller.NameBn != "" {
			nameBn = seller.NameBn
		}
		if seller.Logo != "" {
			avatar = seller.Logo
		}
	}
	return models.BroadcastChannel{
		SellerID:      sellerID,
		Name:          name + " Updates",
		NameBn:        nameBn + " আপডেট",
		Description:   "Official broadcast channel",
		DescriptionBn: "অফিসিয়াল ব্রডকাস্ট চ্যানেল",
		Avatar:        avatar,
		Subscribers:   []string{},
		Settings:      DefaultChannelSettings,
	}
}

// UpdateBroadcastChannel applies patch to a channel.
func (s *Store) UpdateBroadcastChannel(ctx context.Context, id string, patch ChannelPatch) (models.BroadcastChannel, error) {
	var updated models.BroadcastChannel
	err := s.mutate(ctx, "update_broadcast_channel", func(tx *txn) error {
		ci := tx.channelIndex(id)
		if ci < 0 {
			return notFound(tx.op, "channel", id)
		}
		c := &tx.state.BroadcastChannels[ci]
		if patch.Name != nil {
			if strings.TrimSpace(*patch.Name) == "" {
				return invalidArgument(tx.op, "channel name must not be empty")
			}
			c.Name = *patch.Name
		}
		if patch.NameBn != nil {
			c.NameBn = *patch.NameBn
		}
		if patch.Description != nil {
			c.Description = *patch.Description
		}
		if patch.DescriptionBn != nil {
			c.DescriptionBn = *patch.DescriptionBn
		}
		if patch.Avatar != nil {
			c.Avatar = *patch.Avatar
		}
		if patch.IsPremiumOnly != nil {
			c.IsPremiumOnly = *patch.IsPremiumOnly
		}
		if patch.Settings != nil {
			c.Settings = *patch.Settings
		}
		updated = c.Clone()
		return nil
	})
	return updated, err
}

// SubscribeToChannel adds userID to the channel's subscribers. Subscribing
// twice is a Conflict.
func (s *Store) SubscribeToChannel(ctx context.Context, channelID, userID string) error {
	return s.mutate(ctx, "subscribe_to_channel", func(tx *txn) error {
		if strings.TrimSpace(userID) == "" {
			return invalidArgument(tx.op, "user id is required")
		}
		ci := tx.channelIndex(channelID)
		if ci < 0 {
			return notFound(tx.op, "channel", channelID)
		}
		if !tx.subscribe(ci, userID) {
			return conflict(tx.op, "user %q is already subscribed to channel %q", userID, channelID)
		}
		tx.notify(models.NotificationBroadcast,
			fmt.Sprintf("Subscribed to %s", tx.state.BroadcastChannels[ci].Name))
		return nil
	})
}

// UnsubscribeFromChannel removes userID from the channel's subscribers. It
// is a no-op when the user is not subscribed. The session user cannot leave
// the channel of a seller they follow; UnfollowSeller does that.
func (s *Store) UnsubscribeFromChannel(ctx context.Context, channelID, userID string) error {
	return s.mutate(ctx, "unsubscribe_from_channel", func(tx *txn) error {
		ci := tx.channelIndex(channelID)
		if ci < 0 {
			return notFound(tx.op, "channel", channelID)
		}
		sellerID := tx.state.BroadcastChannels[ci].SellerID
		if userID == tx.state.User.ID && tx.isFollowing(sellerID) {
			return conflict(tx.op, "unfollow seller %q to leave channel %q", sellerID, channelID)
		}
		if !tx.unsubscribe(ci, userID) {
			return errUnchanged
		}
		return nil
	})
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
