package worker

import (
	"context"
	"log/slog"

	"fatepack/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them. Running it on
// its own goroutine keeps audit writes off the request path.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run processes events until ctx is cancelled. Store failures are logged and
// dropped; the trail is best-effort and must not wedge the inbox.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"kind", event.Kind,
					"error", err,
				)
			}
		}
	}
}

// ChannelPublisher emits events into the worker inbox, dropping when full so a
// slow trail never blocks request handling.
type ChannelPublisher struct {
	inbox  chan<- audit.Event
	logger *slog.Logger
}

func NewChannelPublisher(inbox chan<- audit.Event, logger *slog.Logger) *ChannelPublisher {
	return &ChannelPublisher{inbox: inbox, logger: logger}
}

func (p *ChannelPublisher) Emit(ctx context.Context, event audit.Event) error {
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit inbox full, dropping event", "kind", event.Kind)
	}
	return nil
}
