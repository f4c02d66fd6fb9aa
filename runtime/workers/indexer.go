// Package workers contains the supervised background loops of the server.
package workers

import (
	"context"
	"courier/domain"
	"courier/repositories"
	"log/slog"
)

// IndexerWorker drains stored messages into the full-text index. Indexing
// is kept off the send path: the delivery pipeline enqueues and moves on,
// this worker absorbs the write cost.
type IndexerWorker struct {
	log   *slog.Logger
	index repositories.ISearchIndex
	queue <-chan domain.Message
}

func NewIndexerWorker(log *slog.Logger, index repositories.ISearchIndex, queue <-chan domain.Message) *IndexerWorker {
	return &IndexerWorker{log: log, index: index, queue: queue}
}

func (w *IndexerWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case message := <-w.queue:
			if err := w.index.Index(message); err != nil {
				// One failed document must not kill the worker.
				w.log.Error("Failed to index message",
					"message_id", message.ID,
					"error", err)
			}
		}
	}
}
