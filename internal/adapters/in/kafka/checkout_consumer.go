// Package kafka turns storefront checkout events into dispatch orders.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gasdelivery/internal/core/application/usecases/commands"
	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/ports"
	"gasdelivery/internal/pkg/errs"

	"github.com/IBM/sarama"
)

// CheckoutMessage is published by the storefront once payment is settled
// or cash on delivery is chosen.
type CheckoutMessage struct {
	OrderID  string `json:"order_id"`
	Customer struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	} `json:"customer"`
	Delivery struct {
		Address   string   `json:"address"`
		Latitude  *float64 `json:"latitude,omitempty"`
		Longitude *float64 `json:"longitude,omitempty"`
	} `json:"delivery"`
	Items []struct {
		ProductID string `json:"product_id"`
		Name      string `json:"name"`
		Quantity  int    `json:"quantity"`
		UnitPrice int64  `json:"unit_price"`
	} `json:"items"`
	PaymentMethod string `json:"payment_method"`
	Notes         string `json:"notes"`
}

type OrderCreator interface {
	Handle(ctx context.Context, cmd commands.CreateOrderCommand) error
}

// CheckoutConsumer reads the checkout topic with a consumer group.
type CheckoutConsumer struct {
	group   sarama.ConsumerGroup
	topic   string
	creator OrderCreator
	logger  *slog.Logger
}

// NewConsumerGroup joins groupID starting from the oldest unread offset so
// no checkout is skipped on first deploy.
func NewConsumerGroup(brokers []string, groupID string) (sarama.ConsumerGroup, error) {
	config := sarama.NewConfig()
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Consumer.Return.Errors = true
	return sarama.NewConsumerGroup(brokers, groupID, config)
}

func NewCheckoutConsumer(
	group sarama.ConsumerGroup,
	topic string,
	creator OrderCreator,
	logger *slog.Logger,
) *CheckoutConsumer {
	return &CheckoutConsumer{
		group:   group,
		topic:   topic,
		creator: creator,
		logger:  logger.With("component", "checkout_consumer", "topic", topic),
	}
}

// Run consumes until ctx is cancelled, rejoining the group after rebalances.
func (c *CheckoutConsumer) Run(ctx context.Context) error {
	handler := groupHandler{consumer: c}
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			if err := c.group.Consume(ctx, []string{c.topic}, handler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return nil
				}
				c.logger.Error("Consume failed", "error", err)
				select {
				case <-ctx.Done():
				case <-time.After(time.Second):
				}
			}
		}
	}
}

func (c *CheckoutConsumer) Close() error {
	return c.group.Close()
}

// HandleMessage creates the order described by value. It returns nil for
// messages that can never succeed (malformed, invalid or already stored) so
// the caller can commit past them; any other error means retry later.
func (c *CheckoutConsumer) HandleMessage(ctx context.Context, value []byte) error {
	cmd, err := decodeCheckout(value)
	if err != nil {
		c.logger.Warn("Skipping malformed checkout", "error", err)
		return nil
	}

	err = c.creator.Handle(ctx, cmd)
	switch {
	case err == nil:
		c.logger.Info("Order received", "order_id", cmd.OrderID().String())
		return nil
	case errors.Is(err, ports.ErrOrderExists):
		c.logger.Info("Duplicate checkout ignored", "order_id", cmd.OrderID().String())
		return nil
	case errs.IsValidation(err):
		c.logger.Warn("Rejected checkout", "order_id", cmd.OrderID().String(), "error", err)
		return nil
	default:
		return err
	}
}

func decodeCheckout(value []byte) (commands.CreateOrderCommand, error) {
	var msg CheckoutMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return commands.CreateOrderCommand{}, fmt.Errorf("decode checkout: %w", err)
	}

	orderID, err := kernel.UUIDFromString(msg.OrderID)
	if err != nil {
		return commands.CreateOrderCommand{}, errs.NewValueIsInvalidErrorWithCause("order_id", err)
	}

	var pin *kernel.Location
	switch {
	case msg.Delivery.Latitude != nil && msg.Delivery.Longitude != nil:
		location, err := kernel.NewLocation(*msg.Delivery.Latitude, *msg.Delivery.Longitude)
		if err != nil {
			return commands.CreateOrderCommand{}, err
		}
		pin = &location
	case msg.Delivery.Latitude != nil || msg.Delivery.Longitude != nil:
		return commands.CreateOrderCommand{}, errs.NewValueIsInvalidError("delivery coordinates")
	}

	lines := make([]commands.OrderLine, 0, len(msg.Items))
	for _, item := range msg.Items {
		lines = append(lines, commands.OrderLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	return commands.NewCreateOrderCommand(
		orderID,
		msg.Customer.Name,
		msg.Customer.Phone,
		msg.Delivery.Address,
		pin,
		lines,
		msg.PaymentMethod,
		msg.Notes,
	)
}

type groupHandler struct {
	consumer *CheckoutConsumer
}

func (groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim stops at the first retryable failure without marking it, so
// the message is redelivered after the next rebalance.
func (h groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := h.consumer.HandleMessage(session.Context(), msg.Value); err != nil {
			h.consumer.logger.Error("Checkout not processed",
				"partition", msg.Partition, "offset", msg.Offset, "error", err)
			return err
		}
		session.MarkMessage(msg, "")
	}
	return nil
}
