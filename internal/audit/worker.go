package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from the publisher and fans them out to the
// configured sinks. A sink failure is logged and skipped; audit delivery is
// best-effort by design and must never stall the pipeline.
type Worker struct {
	inbox  <-chan Event
	sinks  []Sink
	logger *slog.Logger
}

func NewWorker(inbox <-chan Event, logger *slog.Logger, sinks ...Sink) *Worker {
	return &Worker{inbox: inbox, sinks: sinks, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			for _, sink := range w.sinks {
				if err := sink.Append(ctx, event); err != nil {
					w.logger.WarnContext(ctx, "audit sink append failed",
						"action", event.Action,
						"error", err,
					)
				}
			}
		}
	}
}
