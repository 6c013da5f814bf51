// Package logchannel is the development notification channel: it writes
// messages to the structured log instead of an external transport.
package logchannel

import (
	"context"
	"log/slog"
)

type Channel struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{logger: logger}
}

func (c *Channel) Name() string { return "log" }

func (c *Channel) Send(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "notification",
		"recipient", recipient,
		"subject", subject,
		"body", body,
	)
	return nil
}
