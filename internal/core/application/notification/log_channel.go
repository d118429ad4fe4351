package notification

import (
	"context"
	"log/slog"

	"gasdelivery/internal/core/ports"
)

// LogChannel is a ports.NotificationChannel that only logs. It is used when
// no message broker is configured.
type LogChannel struct {
	logger *slog.Logger
}

func NewLogChannel(logger *slog.Logger) *LogChannel {
	return &LogChannel{logger: logger.With("component", "log_channel")}
}

func (c *LogChannel) Send(ctx context.Context, notification ports.Notification) error {
	c.logger.InfoContext(ctx, "Customer notification",
		"order_id", notification.OrderID.String(),
		"recipient", notification.Recipient,
		"message", notification.Message,
	)
	return nil
}
