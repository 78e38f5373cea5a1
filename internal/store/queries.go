package store

import (
	"sort"

	"github.com/lalith-99/auraloom/internal/models"
)

// Quota is what the membership policy needs to decide whether a seller may
// publish more: the number of live products and live broadcasts it owns.
type Quota struct {
	SellerID   string `json:"seller_id"`
	Products   int    `json:"products"`
	Broadcasts int    `json:"broadcasts"`
}

// Conversation summarises the messages between the session user and a peer.
type Conversation struct {
	PeerID      string           `json:"peer_id"`
	Messages    []models.Message `json:"messages"`
	Unread      int              `json:"unread"`
	LastMessage *models.Message  `json:"last_message,omitempty"`
}

// CartLine is a cart item joined with its product.
type CartLine struct {
	Product  models.Product `json:"product"`
	Quantity int            `json:"quantity"`
	Subtotal float64        `json:"subtotal"`
}

// CartSummary is the priced view of the cart.
type CartSummary struct {
	Lines      []CartLine `json:"lines"`
	TotalItems int        `json:"total_items"`
	Total      float64    `json:"total"`
}

// BroadcastStats are a seller's engagement numbers across its broadcasts.
type BroadcastStats struct {
	SellerID       string  `json:"seller_id"`
	Broadcasts     int     `json:"broadcasts"`
	Subscribers    int     `json:"subscribers"`
	TotalViews     int     `json:"total_views"`
	TotalReactions int     `json:"total_reactions"`
	TotalForwards  int     `json:"total_forwards"`
	Engagement     float64 `json:"engagement"`
}

// User returns the session user.
func (s *Store) User() models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User
}

// Seller looks up a seller by ID.
func (s *Store) Seller(id string) (models.Seller, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sl := range s.state.Sellers {
		if sl.ID == id {
			return sl.Clone(), true
		}
	}
	return models.Seller{}, false
}

// Product looks up a product by ID.
func (s *Store) Product(id string) (models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.state.Products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// Channel looks up a channel by ID.
func (s *Store) Channel(id string) (models.BroadcastChannel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.state.BroadcastChannels {
		if c.ID == id {
			return c.Clone(), true
		}
	}
	return models.BroadcastChannel{}, false
}

func (s *Store) Broadcast(id string) (models.Broadcast, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.state.Broadcasts {
		if b.ID == id {
			return b.Clone(), true
		}
	}
	return models.Broadcast{}, false
}

// ChannelForSeller returns the seller's channel if it has been created.
func (s *Store) ChannelForSeller(sellerID string) (models.BroadcastChannel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.state.BroadcastChannels {
		if c.SellerID == sellerID {
			return c.Clone(), true
		}
	}
	return models.BroadcastChannel{}, false
}

// SellerQuota counts the seller's live products and broadcasts from the
// collections themselves rather than the denormalized counters.
func (s *Store) SellerQuota(sellerID string) Quota {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return quotaOf(&s.state, sellerID)
}

// QuotaCheck decides whether a seller holding q may add one more product or
// broadcast. It runs inside the write lock, so the count it sees cannot
// change before the insert commits. A non-nil error rejects the operation
// and is returned unchanged to the caller.
type QuotaCheck func(q Quota) error

func quotaOf(st *models.State, sellerID string) Quota {
	q := Quota{SellerID: sellerID}
	for _, p := range st.Products {
		if p.SellerID == sellerID {
			q.Products++
		}
	}
	for _, b := range st.Broadcasts {
		if b.SellerID == sellerID {
			q.Broadcasts++
		}
	}
	return q
}

func (tx *txn) checkQuota(sellerID string, checks []QuotaCheck) error {
	if len(checks) == 0 {
		return nil
	}
	q := quotaOf(&tx.state, sellerID)
	for _, check := range checks {
		if err := check(q); err != nil {
			return err
		}
	}
	return nil
}

// Conversation returns the messages exchanged between userID and peerID,
// oldest first.
func (s *Store) Conversation(userID, peerID string) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Message, 0)
	for _, m := range s.state.Messages {
		if isBetween(m, userID, peerID) {
			out = append(out, m)
		}
	}
	sortByTimestamp(out)
	return out
}

// Conversations groups userID's messages by peer. Conversations are ordered
// by their most recent message, newest first.
func (s *Store) Conversations(userID string) []Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byPeer := make(map[string]*Conversation)
	for _, m := range s.state.Messages {
		var peer string
		switch userID {
		case m.SenderID:
			peer = m.ReceiverID
		case m.ReceiverID:
			peer = m.SenderID
		default:
			continue
		}
		c, ok := byPeer[peer]
		if !ok {
			c = &Conversation{PeerID: peer}
			byPeer[peer] = c
		}
		c.Messages = append(c.Messages, m)
		if m.ReceiverID == userID && !m.Read {
			c.Unread++
		}
	}

	out := make([]Conversation, 0, len(byPeer))
	for _, c := range byPeer {
		sortByTimestamp(c.Messages)
		last := c.Messages[len(c.Messages)-1]
		c.LastMessage = &last
		out = append(out, *c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessage.Timestamp.After(out[j].LastMessage.Timestamp)
	})
	return out
}

// UnreadMessageCount counts unread messages addressed to userID.
func (s *Store) UnreadMessageCount(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.state.Messages {
		if m.ReceiverID == userID && !m.Read {
			n++
		}
	}
	return n
}

// UnreadNotificationCount counts unread notifications.
func (s *Store) UnreadNotificationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, item := range s.state.Notifications {
		if !item.Read {
			n++
		}
	}
	return n
}

// CartSummary prices the cart. Lines whose product no longer exists are
// skipped.
func (s *Store) CartSummary() CartSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary := CartSummary{Lines: make([]CartLine, 0, len(s.state.Cart))}
	for _, item := range s.state.Cart {
		var product *models.Product
		for i := range s.state.Products {
			if s.state.Products[i].ID == item.ProductID {
				product = &s.state.Products[i]
				break
			}
		}
		if product == nil {
			continue
		}
		line := CartLine{
			Product:  *product,
			Quantity: item.Quantity,
			Subtotal: product.Price * float64(item.Quantity),
		}
		summary.Lines = append(summary.Lines, line)
		summary.TotalItems += item.Quantity
		summary.Total += line.Subtotal
	}
	return summary
}

// SubscribedFeed returns the broadcasts of every channel userID subscribes
// to: pinned broadcasts first, then newest first.
func (s *Store) SubscribedFeed(userID string) []models.Broadcast {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subscribed := make(map[string]struct{})
	for _, c := range s.state.BroadcastChannels {
		if c.HasSubscriber(userID) {
			subscribed[c.ID] = struct{}{}
		}
	}
	out := make([]models.Broadcast, 0)
	for _, b := range s.state.Broadcasts {
		if _, ok := subscribed[b.ChannelID]; ok {
			out = append(out, b.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsPinned != out[j].IsPinned {
			return out[i].IsPinned
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// SellerBroadcasts returns the seller's broadcasts, newest first.
func (s *Store) SellerBroadcasts(sellerID string) []models.Broadcast {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Broadcast, 0)
	for _, b := range s.state.Broadcasts {
		if b.SellerID == sellerID {
			out = append(out, b.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// BroadcastStats aggregates views, reactions and forwards over the seller's
// broadcasts. Engagement is reactions per view as a percentage, with views
// floored at one.
func (s *Store) BroadcastStats(sellerID string) BroadcastStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := BroadcastStats{SellerID: sellerID}
	for _, c := range s.state.BroadcastChannels {
		if c.SellerID == sellerID {
			stats.Subscribers = len(c.Subscribers)
			break
		}
	}
	for _, b := range s.state.Broadcasts {
		if b.SellerID != sellerID {
			continue
		}
		stats.Broadcasts++
		stats.TotalViews += len(b.Views)
		stats.TotalReactions += len(b.Reactions)
		stats.TotalForwards += b.Forwards
	}
	if stats.Broadcasts > 0 {
		views := stats.TotalViews
		if views == 0 {
			views = 1
		}
		stats.Engagement = float64(stats.TotalReactions) / float64(views) * 100
	}
	return stats
}

func isBetween(m models.Message, a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

func sortByTimestamp(msgs []models.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
}
