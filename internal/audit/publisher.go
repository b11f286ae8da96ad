package audit

import (
	"context"
	"log/slog"
	"time"

	"aidgate/pkg/requestcontext"
)

// Sink receives audit events. Implementations: in-memory store, Redis
// Streams, Kafka.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher hands events to the background worker over a bounded channel.
// Emit never blocks the business operation and never fails it: when the
// buffer is full the event is dropped and counted in the log.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Emit stamps the event with request-scoped sequence and wall-clock time,
// then enqueues it. Nil receivers are safe so callers don't need wiring in
// unit tests.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Sequence == 0 {
		event.Sequence = requestcontext.Sequence(ctx)
	}
	select {
	case p.inbox <- event:
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit buffer full, dropping event",
				"action", event.Action,
				"subject", event.Subject,
			)
		}
	}
}

// Inbox exposes the channel for the worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}
