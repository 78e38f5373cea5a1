package store

import (
	"context"
	"strings"

	"github.com/lalith-99/auraloom/internal/models"
)

// SendMessage appends a direct message and records a message notification.
// Empty ID and timestamp are filled in; the stored message is returned.
func (s *Store) SendMessage(ctx context.Context, message models.Message) (models.Message, error) {
	err := s.mutate(ctx, "send_message", func(tx *txn) error {
		if strings.TrimSpace(message.SenderID) == "" || strings.TrimSpace(message.ReceiverID) == "" {
			return invalidArgument(tx.op, "sender and receiver are required")
		}
		if strings.TrimSpace(message.Content) == "" {
			return invalidArgument(tx.op, "message content is required")
		}
		if message.ID == "" {
			message.ID = "msg-" + tx.newID()
		}
		if tx.messageIndex(message.ID) >= 0 {
			return conflict(tx.op, "message %q already exists", message.ID)
		}
		if message.Timestamp.IsZero() {
			message.Timestamp = tx.now
		}
		message.Read = false

		tx.state.Messages = append(tx.state.Messages, message)
		tx.notify(models.NotificationMessage, "You have a new message")
		return nil
	})
	if err != nil {
		return models.Message{}, err
	}
	return message, nil
}

// MarkMessageAsRead flips a message's read flag. Marking a read message
// again changes nothing.
func (s *Store) MarkMessageAsRead(ctx context.Context, messageID string) error {
	return s.mutate(ctx, "mark_message_as_read", func(tx *txn) error {
		mi := tx.messageIndex(messageID)
		if mi < 0 {
			return notFound(tx.op, "message", messageID)
		}
		if tx.state.Messages[mi].Read {
			return errUnchanged
		}
		tx.state.Messages[mi].Read = true
		return nil
	})
}
