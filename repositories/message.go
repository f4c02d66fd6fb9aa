//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"courier/domain"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	Store(message domain.Message) error
	GetChat(userA, userB uuid.UUID) ([]domain.Message, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// storedMessage is the on-disk shape. It mirrors the wire record minus the
// resolved usernames, which live in the user store.
type storedMessage struct {
	ID         string `json:"id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
	At         int64  `json:"at"` // unix nanoseconds, UTC
}

// conversationKey returns the shared prefix of a user pair, independent of
// who sent: the two ids sorted lexicographically. Both directions of the
// conversation land under the same prefix.
func conversationKey(userA, userB uuid.UUID) string {
	a, b := userA.String(), userB.String()
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + ":" + b
}

// Store persists a message in BadgerDB.
// The key is "msg:{convKey}:{timestamp_padded}:{uuid}" so that:
//  1. a forward prefix scan yields one conversation oldest-first
//     (19-digit zero padding keeps lexicographic and chronological
//     order aligned),
//  2. the trailing UUID disambiguates two messages persisted in the
//     same nanosecond.
func (m MessageRepository) Store(message domain.Message) error {
	key := fmt.Sprintf("msg:%s:%019d:%s",
		conversationKey(message.SenderID, message.ReceiverID),
		message.CreatedAt.UnixNano(),
		message.ID,
	)
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GetChat returns every message between the two users, oldest first.
// Ordering comes for free from the padded timestamp in the key.
func (m MessageRepository) GetChat(userA, userB uuid.UUID) ([]domain.Message, error) {
	var raw [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", conversationKey(userA, userB)))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(raw) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				buf := make([]byte, len(value))
				copy(buf, value)
				raw = append(raw, buf)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(raw))
	for _, b := range raw {
		var stored storedMessage
		if err = json.Unmarshal(b, &stored); err != nil {
			return nil, err
		}
		message, err := toMessage(stored)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func fromMessage(message domain.Message) storedMessage {
	return storedMessage{
		ID:         message.ID.String(),
		SenderID:   message.SenderID.String(),
		ReceiverID: message.ReceiverID.String(),
		Content:    message.Content,
		At:         message.CreatedAt.UnixNano(),
	}
}

func toMessage(stored storedMessage) (domain.Message, error) {
	id, err := uuid.Parse(stored.ID)
	if err != nil {
		return domain.Message{}, err
	}
	senderID, err := uuid.Parse(stored.SenderID)
	if err != nil {
		return domain.Message{}, err
	}
	receiverID, err := uuid.Parse(stored.ReceiverID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:         id,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    stored.Content,
		CreatedAt:  time.Unix(0, stored.At).UTC(),
	}, nil
}
