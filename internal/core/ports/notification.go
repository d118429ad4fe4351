package ports

import (
	"context"

	"gasdelivery/internal/core/domain/model/kernel"
)

// TextGenerator produces free text from a prompt, typically a hosted
// language model.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Notification is a customer-facing message about an order.
type Notification struct {
	OrderID   kernel.UUID
	Recipient string
	Message   string
}

// NotificationChannel hands notifications to a delivery medium.
type NotificationChannel interface {
	Send(ctx context.Context, notification Notification) error
}

// DeliveryNotifier is told about delivered orders. Implementations must
// return promptly and never fail the caller.
type DeliveryNotifier interface {
	OrderDelivered(ctx context.Context, orderID kernel.UUID)
}
