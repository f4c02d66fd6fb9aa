package ws

import (
	"context"
	"courier/domain"
)

// Sink is the delivery pipeline's handle on one live channel. The channel
// goroutine drains Records into receiveMessage frames.
type Sink struct {
	Records chan domain.ConfirmedMessage
}

func NewSink(bufferSize int) *Sink {
	return &Sink{Records: make(chan domain.ConfirmedMessage, bufferSize)}
}

// Push hands a confirmed record to the channel owner. Delivery is
// best-effort: when the buffer is full the record is dropped rather than
// blocking the sender's pipeline; the receiver recovers it from history.
func (s *Sink) Push(ctx context.Context, record domain.ConfirmedMessage) error {
	select {
	case s.Records <- record:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
