package kafka

import (
	"context"
	"fmt"

	"gasdelivery/internal/adapters/out/eventbus"
	"gasdelivery/internal/core/ports"
)

// OrderEventPublisher is a ports.EventPublisher that forwards order changes
// to an integration topic keyed by order id. Position reports stay inside
// the service and are not forwarded.
type OrderEventPublisher struct {
	producer *Producer
}

func NewOrderEventPublisher(producer *Producer) *OrderEventPublisher {
	return &OrderEventPublisher{producer: producer}
}

func (p *OrderEventPublisher) PublishOrderChanged(_ context.Context, event ports.OrderChanged) error {
	payload, err := eventbus.EncodeOrderChanged(event)
	if err != nil {
		return fmt.Errorf("kafka: encode order changed: %w", err)
	}
	return p.producer.Publish(event.OrderID.String(), payload)
}

func (p *OrderEventPublisher) PublishPositionReported(context.Context, ports.PositionReported) error {
	return nil
}
