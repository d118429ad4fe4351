// Package notification tells customers that their order has arrived.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/domain/model/order"
	"gasdelivery/internal/core/ports"
)

// ErrNotificationFailed is returned when the delivery channel rejects a
// notification. It is logged and never reaches the caller of a resolution.
var ErrNotificationFailed = errors.New("notification failed")

// DefaultGenerateTimeout bounds message generation including its retries.
const DefaultGenerateTimeout = 10 * time.Second

type OrderReader interface {
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)
}

// FallbackMessage is sent when no message could be generated.
func FallbackMessage(orderID kernel.UUID) string {
	return fmt.Sprintf("Your gas order %s has been delivered. Thank you!", orderID)
}

// DeliveryNotifier composes and sends the delivery confirmation.
type DeliveryNotifier struct {
	orders          OrderReader
	generator       ports.TextGenerator
	channel         ports.NotificationChannel
	generateTimeout time.Duration
	logger          *slog.Logger
}

// NewDeliveryNotifier wires the collaborators. generator may be nil, in
// which case every notification uses FallbackMessage.
func NewDeliveryNotifier(
	orders OrderReader,
	generator ports.TextGenerator,
	channel ports.NotificationChannel,
	generateTimeout time.Duration,
	logger *slog.Logger,
) *DeliveryNotifier {
	if generateTimeout <= 0 {
		generateTimeout = DefaultGenerateTimeout
	}
	return &DeliveryNotifier{
		orders:          orders,
		generator:       generator,
		channel:         channel,
		generateTimeout: generateTimeout,
		logger:          logger.With("component", "delivery_notifier"),
	}
}

// Notify sends one message for a delivered order. A generation failure falls
// back to the fixed template; a channel failure returns ErrNotificationFailed.
func (n *DeliveryNotifier) Notify(ctx context.Context, orderID kernel.UUID) error {
	delivered, err := n.orders.Get(ctx, orderID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}

	notification := ports.Notification{
		OrderID:   orderID,
		Recipient: delivered.Customer().Phone(),
		Message:   n.message(ctx, delivered),
	}

	if err = n.channel.Send(ctx, notification); err != nil {
		return fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}
	return nil
}

func (n *DeliveryNotifier) message(ctx context.Context, delivered *order.Order) string {
	if n.generator == nil {
		return FallbackMessage(delivered.ID())
	}

	genCtx, cancel := context.WithTimeout(ctx, n.generateTimeout)
	defer cancel()

	text, err := n.generator.Generate(genCtx, prompt(delivered.ID()))
	text = strings.TrimSpace(text)
	if err != nil || text == "" {
		n.logger.WarnContext(ctx, "Falling back to template message",
			"order_id", delivered.ID().String(), "error", err)
		return FallbackMessage(delivered.ID())
	}
	return text
}

// prompt carries the order id only; customer details stay out of
// third-party requests.
func prompt(orderID kernel.UUID) string {
	return fmt.Sprintf("Write a short, friendly SMS (at most 300 characters, no emojis) "+
		"telling a customer that their gas delivery has arrived. "+
		"Thank them and mention the order number %s.", orderID)
}

// AsyncNotifier runs notifications in the background so resolving an order
// never waits for text generation or the delivery channel.
type AsyncNotifier struct {
	notifier *DeliveryNotifier
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewAsyncNotifier(notifier *DeliveryNotifier, logger *slog.Logger) *AsyncNotifier {
	return &AsyncNotifier{
		notifier: notifier,
		logger:   logger.With("component", "async_notifier"),
	}
}

// OrderDelivered implements ports.DeliveryNotifier. The notification keeps
// running after ctx is cancelled.
func (a *AsyncNotifier) OrderDelivered(ctx context.Context, orderID kernel.UUID) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		a.logger.WarnContext(ctx, "Notifier is closed, dropping notification", "order_id", orderID.String())
		return
	}
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()
		bg := context.WithoutCancel(ctx)
		if err := a.notifier.Notify(bg, orderID); err != nil {
			a.logger.ErrorContext(bg, "Delivery notification failed", "order_id", orderID.String(), "error", err)
			return
		}
		a.logger.InfoContext(bg, "Delivery notification sent", "order_id", orderID.String())
	}()
}

// Close stops accepting notifications and waits for in-flight ones until ctx
// is done.
func (a *AsyncNotifier) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
