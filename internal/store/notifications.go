package store

import (
	"context"
	"strings"

	"github.com/lalith-99/auraloom/internal/models"
)

// AddNotification puts a notification at the head of the feed. Empty ID and
// timestamp are filled in.
func (s *Store) AddNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	err := s.mutate(ctx, "add_notification", func(tx *txn) error {
		if !n.Type.Valid() {
			return invalidArgument(tx.op, "unknown notification type %q", n.Type)
		}
		if strings.TrimSpace(n.Content) == "" {
			return invalidArgument(tx.op, "notification content is required")
		}
		if n.ID == "" {
			n.ID = "notif-" + tx.newID()
		}
		if tx.notificationIndex(n.ID) >= 0 {
			return conflict(tx.op, "notification %q already exists", n.ID)
		}
		if n.Timestamp.IsZero() {
			n.Timestamp = tx.now
		}
		tx.state.Notifications = append([]models.Notification{n}, tx.state.Notifications...)
		return nil
	})
	if err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

func (s *Store) MarkNotificationAsRead(ctx context.Context, id string) error {
	return s.mutate(ctx, "mark_notification_as_read", func(tx *txn) error {
		ni := tx.notificationIndex(id)
		if ni < 0 {
			return notFound(tx.op, "notification", id)
		}
		if tx.state.Notifications[ni].Read {
			return errUnchanged
		}
		tx.state.Notifications[ni].Read = true
		return nil
	})
}

func (s *Store) MarkAllNotificationsAsRead(ctx context.Context) error {
	return s.mutate(ctx, "mark_all_notifications_as_read", func(tx *txn) error {
		changed := false
		for i := range tx.state.Notifications {
			if !tx.state.Notifications[i].Read {
				tx.state.Notifications[i].Read = true
				changed = true
			}
		}
		if !changed {
			return errUnchanged
		}
		return nil
	})
}

func (s *Store) ClearNotifications(ctx context.Context) error {
	return s.mutate(ctx, "clear_notifications", func(tx *txn) error {
		if len(tx.state.Notifications) == 0 {
			return errUnchanged
		}
		tx.state.Notifications = []models.Notification{}
		return nil
	})
}
