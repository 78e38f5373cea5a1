package models

import "time"

// Clone returns a deep copy of the state. Slices are never shared between
// the copy and the receiver, so a cloned State can be mutated freely.
func (s State) Clone() State {
	out := State{
		User:            s.User,
		Products:        cloneSlice(s.Products),
		Sellers:         make([]Seller, len(s.Sellers)),
		Broadcasts:      make([]Broadcast, len(s.Broadcasts)),
		Messages:        cloneSlice(s.Messages),
		Cart:            cloneSlice(s.Cart),
		Notifications:   cloneSlice(s.Notifications),
		FollowedSellers: cloneSlice(s.FollowedSellers),
	}
	for i, sl := range s.Sellers {
		out.Sellers[i] = sl.Clone()
	}
	out.BroadcastChannels = make([]BroadcastChannel, len(s.BroadcastChannels))
	for i, c := range s.BroadcastChannels {
		out.BroadcastChannels[i] = c.Clone()
	}
	for i, b := range s.Broadcasts {
		out.Broadcasts[i] = b.Clone()
	}
	return out
}

func (s Seller) Clone() Seller {
	s.Categories = cloneSlice(s.Categories)
	return s
}

func (c BroadcastChannel) Clone() BroadcastChannel {
	c.Subscribers = cloneSlice(c.Subscribers)
	return c
}

func (b Broadcast) Clone() Broadcast {
	b.Views = cloneSlice(b.Views)
	b.Reactions = cloneSlice(b.Reactions)
	if b.EditedAt != nil {
		t := *b.EditedAt
		b.EditedAt = &t
	}
	return b
}

// cloneSlice copies src into a new non-nil slice so JSON renders [] rather
// than null for empty collections.
func cloneSlice[T any](src []T) []T {
	out := make([]T, len(src))
	copy(out, src)
	return out
}

// TimePtr is a small helper for optional timestamps.
func TimePtr(t time.Time) *time.Time {
	return &t
}
