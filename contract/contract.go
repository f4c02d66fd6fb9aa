package contract

import (
	"context"
	"courier/domain"
	"reflect"

	"github.com/google/uuid"
)

type WorkerName string

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in the
// Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// MessageSink is the receiving end of a live channel. The delivery
// pipeline pushes confirmed records into it without knowing anything
// about the underlying transport.
type MessageSink interface {
	Push(ctx context.Context, record domain.ConfirmedMessage) error
}

// IPresence maps authenticated identities to their single live channel.
// All three operations are atomic with respect to each other.
type IPresence interface {
	Bind(userID uuid.UUID, channelID string, sink MessageSink)
	Unbind(channelID string)
	Lookup(userID uuid.UUID) (MessageSink, bool)
}
