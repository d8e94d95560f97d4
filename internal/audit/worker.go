package audit

import (
	"context"
	"errors"
	"log/slog"
)

// ErrQueueFull is returned by Queue.Append when the worker has fallen behind.
var ErrQueueFull = errors.New("audit queue full")

// Queue decouples event emission from a slow sink. Append never blocks; a
// Worker drains the queue into the sink.
type Queue struct {
	ch chan Event
}

func NewQueue(size int) *Queue {
	return &Queue{ch: make(chan Event, size)}
}

func (q *Queue) Append(_ context.Context, event Event) error {
	select {
	case q.ch <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Worker consumes queued audit events and persists them.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, queue *Queue, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: queue.ch, logger: logger}
}

// Run forwards events until ctx is done. Sink failures are logged and the
// event dropped so one bad write cannot stall the registry.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil && w.logger != nil {
				w.logger.ErrorContext(ctx, "failed to persist audit event",
					"action", event.Action,
					"subject", event.Subject,
					"error", err,
				)
			}
		}
	}
}
