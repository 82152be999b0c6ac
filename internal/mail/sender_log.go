package mail

import (
	"context"
	"log/slog"
)

// LogSender writes would-be deliveries to the log. Default sender for local
// development where no mail API is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "mail delivery (log sender)",
		"to", msg.To,
		"subject", msg.Subject,
		"enqueued_at", msg.EnqueuedAt,
	)
	return nil
}
