package store

import (
	"context"
	"strings"

	"github.com/lalith-99/auraloom/internal/models"
)

// SetUser replaces the session user.
func (s *Store) SetUser(ctx context.Context, user models.User) error {
	return s.mutate(ctx, "set_user", func(tx *txn) error {
		if strings.TrimSpace(user.ID) == "" {
			return invalidArgument(tx.op, "user id is required")
		}
		if !user.Mode.Valid() {
			return invalidArgument(tx.op, "unknown user mode %q", user.Mode)
		}
		if !user.Membership.Valid() {
			return invalidArgument(tx.op, "unknown membership tier %q", user.Membership)
		}
		tx.state.User = user
		return nil
	})
}

// SetUserMode switches the session user between guest, buyer and seller.
func (s *Store) SetUserMode(ctx context.Context, mode models.UserMode) error {
	return s.mutate(ctx, "set_user_mode", func(tx *txn) error {
		if !mode.Valid() {
			return invalidArgument(tx.op, "unknown user mode %q", mode)
		}
		tx.state.User.Mode = mode
		return nil
	})
}

// SetMembership changes the session user's tier.
func (s *Store) SetMembership(ctx context.Context, tier models.MembershipTier) error {
	return s.mutate(ctx, "set_membership", func(tx *txn) error {
		if !tier.Valid() {
			return invalidArgument(tx.op, "unknown membership tier %q", tier)
		}
		tx.state.User.Membership = tier
		return nil
	})
}
