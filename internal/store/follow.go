package store

import (
	"context"
	"fmt"

	"github.com/lalith-99/auraloom/internal/models"
)

// FollowSeller makes the session user follow sellerID.
//
// The seller's follower counter goes up by exactly one, the session user is
// subscribed to the seller's channel when one exists, and a follow
// notification is added. Following an already followed seller is a
// Conflict and changes nothing.
func (s *Store) FollowSeller(ctx context.Context, sellerID string) error {
	return s.mutate(ctx, "follow_seller", func(tx *txn) error {
		si := tx.sellerIndex(sellerID)
		if si < 0 {
			return notFound(tx.op, "seller", sellerID)
		}
		if tx.isFollowing(sellerID) {
			return conflict(tx.op, "already following seller %q", sellerID)
		}

		tx.state.FollowedSellers = append(tx.state.FollowedSellers, sellerID)
		tx.state.Sellers[si].Followers++

		if ci := tx.channelIndexForSeller(sellerID); ci >= 0 {
			if tx.subscribe(ci, tx.state.User.ID) {
				tx.notify(models.NotificationBroadcast,
					fmt.Sprintf("Subscribed to %s", tx.state.BroadcastChannels[ci].Name))
			}
		}

		tx.notify(models.NotificationFollow,
			fmt.Sprintf("You followed %s", tx.state.Sellers[si].Name))
		return nil
	})
}

// UnfollowSeller reverses FollowSeller. Unfollowing a seller that is not
// followed is a no-op.
func (s *Store) UnfollowSeller(ctx context.Context, sellerID string) error {
	return s.mutate(ctx, "unfollow_seller", func(tx *txn) error {
		if !tx.isFollowing(sellerID) {
			return errUnchanged
		}

		tx.state.FollowedSellers = removeString(tx.state.FollowedSellers, sellerID)
		if si := tx.sellerIndex(sellerID); si >= 0 {
			tx.state.Sellers[si].Followers = decrement(tx.state.Sellers[si].Followers)
		}
		if ci := tx.channelIndexForSeller(sellerID); ci >= 0 {
			tx.unsubscribe(ci, tx.state.User.ID)
		}
		return nil
	})
}
