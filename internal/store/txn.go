package store

import (
	"github.com/lalith-99/auraloom/internal/models"
)

func (tx *txn) sellerIndex(id string) int {
	for i, s := range tx.state.Sellers {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (tx *txn) productIndex(id string) int {
	for i, p := range tx.state.Products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (tx *txn) channelIndex(id string) int {
	for i, c := range tx.state.BroadcastChannels {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (tx *txn) channelIndexForSeller(sellerID string) int {
	for i, c := range tx.state.BroadcastChannels {
		if c.SellerID == sellerID {
			return i
		}
	}
	return -1
}

func (tx *txn) broadcastIndex(id string) int {
	for i, b := range tx.state.Broadcasts {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func (tx *txn) messageIndex(id string) int {
	for i, m := range tx.state.Messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (tx *txn) notificationIndex(id string) int {
	for i, n := range tx.state.Notifications {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (tx *txn) cartIndex(productID string) int {
	for i, item := range tx.state.Cart {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func (tx *txn) isFollowing(sellerID string) bool {
	return indexOf(tx.state.FollowedSellers, sellerID) >= 0
}

// notify prepends a notification so the feed stays newest first.
func (tx *txn) notify(kind models.NotificationType, content string) {
	n := models.Notification{
		ID:        "notif-" + tx.newID(),
		Content:   content,
		Timestamp: tx.now,
		Type:      kind,
	}
	tx.state.Notifications = append([]models.Notification{n}, tx.state.Notifications...)
}

// subscribe adds userID to the channel at idx. Reports false when the user
// was already a subscriber.
func (tx *txn) subscribe(idx int, userID string) bool {
	ch := &tx.state.BroadcastChannels[idx]
	if ch.HasSubscriber(userID) {
		return false
	}
	ch.Subscribers = append(ch.Subscribers, userID)
	return true
}

// unsubscribe removes userID from the channel at idx. Reports false when the
// user was not subscribed.
func (tx *txn) unsubscribe(idx int, userID string) bool {
	ch := &tx.state.BroadcastChannels[idx]
	i := indexOf(ch.Subscribers, userID)
	if i < 0 {
		return false
	}
	ch.Subscribers = append(ch.Subscribers[:i], ch.Subscribers[i+1:]...)
	return true
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func removeString(ids []string, id string) []string {
	i := indexOf(ids, id)
	if i < 0 {
		return ids
	}
	return append(ids[:i], ids[i+1:]...)
}

// decrement lowers a denormalized counter without going below zero.
func decrement(n int) int {
	if n <= 0 {
		return 0
	}
	return n - 1
}
