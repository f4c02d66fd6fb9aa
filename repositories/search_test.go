package repositories

import (
	"context"
	"courier/domain"
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestIndex(t *testing.T) *SearchIndex {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return NewSearchIndex(writer, slog.Default())
}

func Test_Search_Finds_Indexed_Content(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	alice, bob := uuid.New(), uuid.New()
	message := domain.Message{
		ID:         uuid.New(),
		SenderID:   alice,
		ReceiverID: bob,
		Content:    "the quarterly report is ready",
		CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
	req.NoError(index.Index(message))

	hits, err := index.Search(context.Background(), alice, "quarterly report", 10)
	req.NoError(err)
	req.Len(hits, 1)

	// Every stored field must round-trip through the hit.
	req.Equal(message.ID, hits[0].ID)
	req.Equal(message.SenderID, hits[0].SenderID)
	req.Equal(message.ReceiverID, hits[0].ReceiverID)
	req.Equal(message.Content, hits[0].Content)
	req.True(message.CreatedAt.Equal(hits[0].CreatedAt))
}

func Test_Search_Scopes_To_Participant(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	alice, bob := uuid.New(), uuid.New()
	clara, dave := uuid.New(), uuid.New()

	req.NoError(index.Index(domain.Message{
		ID: uuid.New(), SenderID: alice, ReceiverID: bob,
		Content: "secret project kickoff", CreatedAt: time.Now().UTC(),
	}))
	req.NoError(index.Index(domain.Message{
		ID: uuid.New(), SenderID: clara, ReceiverID: dave,
		Content: "secret project budget", CreatedAt: time.Now().UTC(),
	}))

	t.Run("sender side matches", func(t *testing.T) {
		hits, err := index.Search(context.Background(), alice, "secret project", 10)
		req.NoError(err)
		req.Len(hits, 1)
		req.Equal(alice, hits[0].SenderID)
	})

	t.Run("receiver side matches", func(t *testing.T) {
		hits, err := index.Search(context.Background(), bob, "secret project", 10)
		req.NoError(err)
		req.Len(hits, 1)
		req.Equal(bob, hits[0].ReceiverID)
	})

	t.Run("outsider sees nothing", func(t *testing.T) {
		hits, err := index.Search(context.Background(), uuid.New(), "secret project", 10)
		req.NoError(err)
		req.Empty(hits)
	})
}

func Test_Search_Reindex_Is_Upsert(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	alice, bob := uuid.New(), uuid.New()
	message := domain.Message{
		ID: uuid.New(), SenderID: alice, ReceiverID: bob,
		Content: "draft wording", CreatedAt: time.Now().UTC(),
	}
	req.NoError(index.Index(message))
	req.NoError(index.Index(message))

	hits, err := index.Search(context.Background(), alice, "draft wording", 10)
	req.NoError(err)
	req.Len(hits, 1)
}
