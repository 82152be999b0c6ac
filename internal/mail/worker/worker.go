// Package worker drains the mail queue in the background.
package worker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/markdevonuk/portal/internal/mail"
)

// Worker consumes messages from the queue and hands them to the sender.
// Delivery failures are logged and dropped; the queue collection never
// reports delivery confirmation back to producers.
type Worker struct {
	queue  mail.Queue
	sender mail.Sender
	logger *slog.Logger
}

func New(queue mail.Queue, sender mail.Sender, logger *slog.Logger) *Worker {
	return &Worker{queue: queue, sender: sender, logger: logger}
}

// Run drains the queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		msg, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			w.logger.ErrorContext(ctx, "mail dequeue failed", "error", err)
			continue
		}

		if err := w.sender.Send(ctx, msg); err != nil {
			w.logger.ErrorContext(ctx, "mail delivery failed",
				"error", err,
				"to", msg.To,
				"subject", msg.Subject,
			)
			continue
		}

		w.logger.InfoContext(ctx, "mail delivered",
			"to", msg.To,
			"subject", msg.Subject,
		)
	}
}
