package internal

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestMapRow_ParsesMessageKeys(t *testing.T) {
	req := require.New(t)

	userA := uuid.MustParse("11111111-1111-4111-8111-111111111111")
	userB := uuid.MustParse("22222222-2222-4222-8222-222222222222")
	messageID := uuid.MustParse("33333333-3333-4333-8333-333333333333")
	at := time.Date(2026, 8, 30, 13, 37, 42, 0, time.UTC)

	// Built exactly the way the message store builds its keys.
	key := fmt.Sprintf("msg:%s:%s:%019d:%s", userA, userB, at.UnixNano(), messageID)

	row := mapRow(key, []byte(`{"content":"hi"}`))

	req.Equal(key, row.Key)
	req.Equal("11111111:22222222", row.Conversation)
	req.Equal("13:37:42", row.Timestamp)
	req.Equal("33333333", row.MessageID)
	req.Equal("16 bytes", row.Size)
}

func TestMapRow_NonMessageKeyFallsBack(t *testing.T) {
	req := require.New(t)

	row := mapRow("user:email:alice@example.com", []byte("x"))

	req.Equal("--------", row.Conversation)
	req.Equal("--:--:--", row.Timestamp)
	req.Equal("--------", row.MessageID)
}
