//go:generate go run go.uber.org/mock/mockgen -source=search.go -destination=../mocks/mock_search_index.go -package=mocks
package repositories

import (
	"context"
	"courier/domain"
	"log/slog"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

type ISearchIndex interface {
	Index(message domain.Message) error
	Search(ctx context.Context, participant uuid.UUID, terms string, limit int) ([]domain.Message, error)
}

// SearchIndex is a Bluge full-text index over message content. Writes
// happen off the hot path (see the indexer worker); reads open a
// point-in-time reader per query.
type SearchIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchIndex(writer *bluge.Writer, log *slog.Logger) *SearchIndex {
	return &SearchIndex{writer: writer, log: log}
}

// Index upserts one message document. All fields are stored so a search
// hit reconstructs the record without a Badger round trip.
func (s *SearchIndex) Index(message domain.Message) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewTextField("content", message.Content).StoreValue()).
		AddField(bluge.NewKeywordField("sender_id", message.SenderID.String()).StoreValue()).
		AddField(bluge.NewKeywordField("receiver_id", message.ReceiverID.String()).StoreValue()).
		AddField(bluge.NewKeywordField("at", message.CreatedAt.UTC().Format(time.RFC3339Nano)).StoreValue())

	return s.writer.Update(doc.ID(), doc)
}

// Search matches content terms, restricted to conversations the
// participant is part of (sender or receiver).
func (s *SearchIndex) Search(ctx context.Context, participant uuid.UUID, terms string, limit int) ([]domain.Message, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			s.log.Warn("Failed to close index reader", "error", err)
		}
	}()

	scope := bluge.NewBooleanQuery()
	scope.AddShould(bluge.NewTermQuery(participant.String()).SetField("sender_id"))
	scope.AddShould(bluge.NewTermQuery(participant.String()).SetField("receiver_id"))
	scope.SetMinShould(1)

	query := bluge.NewBooleanQuery()
	query.AddMust(bluge.NewMatchQuery(terms).SetField("content"))
	query.AddMust(scope)

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}

	var messages []domain.Message
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}

		var message domain.Message
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				message.ID, _ = uuid.Parse(string(value))
			case "content":
				message.Content = string(value)
			case "sender_id":
				message.SenderID, _ = uuid.Parse(string(value))
			case "receiver_id":
				message.ReceiverID, _ = uuid.Parse(string(value))
			case "at":
				message.CreatedAt, _ = time.Parse(time.RFC3339Nano, string(value))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}
