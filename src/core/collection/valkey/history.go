// Package valkey persists chat history in Valkey hashes, one hash per
// message plus a per-session list keeping message order.
package valkey

import (
	"context"
	"fmt"
	"time"

	valkeygo "github.com/valkey-io/valkey-go"

	collection "raglayer/src/core/collection"
	"raglayer/src/log"
)

const (
	messageKeyPrefix = "chat:"
	sessionKeyPrefix = "chatsession:"
)

type HistoryStore struct {
	client valkeygo.Client
}

func NewHistoryStore(client valkeygo.Client) *HistoryStore {
	return &HistoryStore{client: client}
}

func messageKey(sessionID, messageID string) string {
	return messageKeyPrefix + sessionID + ":" + messageID
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// SaveMessage writes the message hash and appends its id to the session list
func (s *HistoryStore) SaveMessage(ctx context.Context, msg *collection.ChatMessage) error {
	if msg.SessionID == "" || msg.MessageID == "" {
		return fmt.Errorf("session id and message id are required")
	}

	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	err := s.client.Do(ctx, s.client.B().Hset().
		Key(messageKey(msg.SessionID, msg.MessageID)).
		FieldValue().
		FieldValue("content", msg.Content).
		FieldValue("role", msg.Role).
		FieldValue("created_at", createdAt.Format(time.RFC3339Nano)).
		Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	err = s.client.Do(ctx, s.client.B().Rpush().
		Key(sessionKey(msg.SessionID)).
		Element(msg.MessageID).
		Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to append message to session: %w", err)
	}

	return nil
}

// ListMessages returns the session's messages in the order they were saved
func (s *HistoryStore) ListMessages(ctx context.Context, sessionID string) ([]collection.ChatMessage, error) {
	ids, err := s.client.Do(ctx, s.client.B().Lrange().
		Key(sessionKey(sessionID)).
		Start(0).
		Stop(-1).
		Build()).AsStrSlice()
	if err != nil {
		if valkeygo.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list session messages: %w", err)
	}

	messages := make([]collection.ChatMessage, 0, len(ids))
	for _, id := range ids {
		fields, err := s.client.Do(ctx, s.client.B().Hgetall().
			Key(messageKey(sessionID, id)).
			Build()).AsStrMap()
		if err != nil {
			if valkeygo.IsValkeyNil(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read message %s: %w", id, err)
		}
		if len(fields) == 0 {
			// message hash expired or was deleted out of band
			continue
		}

		msg := collection.ChatMessage{
			SessionID: sessionID,
			MessageID: id,
			Content:   fields["content"],
			Role:      fields["role"],
		}
		if raw, ok := fields["created_at"]; ok {
			t, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				log.Error(err, "failed to parse message timestamp", "message_id", id)
			} else {
				msg.CreatedAt = t
			}
		}

		messages = append(messages, msg)
	}

	return messages, nil
}

func (s *HistoryStore) Ping(ctx context.Context) error {
	if err := s.client.Do(ctx, s.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("failed to ping valkey: %w", err)
	}
	return nil
}
