// Package eventbus carries committed order and position changes from the
// unit of work to live subscribers inside this process.
package eventbus

import (
	"context"

	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/ports"
	"gasdelivery/internal/pkg/pubsub"
)

// DefaultBuffer is the per-subscriber buffer size. A stalled observer loses
// the oldest events first; positions are superseded by later ones anyway.
const DefaultBuffer = 64

// LocalBus is an in-process ports.EventBus.
type LocalBus struct {
	orders    *pubsub.Broker[ports.OrderChanged]
	positions *pubsub.Broker[ports.PositionReported]
}

func NewLocalBus(buffer int) *LocalBus {
	return &LocalBus{
		orders:    pubsub.NewBroker[ports.OrderChanged](buffer),
		positions: pubsub.NewBroker[ports.PositionReported](buffer),
	}
}

func (b *LocalBus) PublishOrderChanged(_ context.Context, event ports.OrderChanged) error {
	b.orders.Publish(event)
	return nil
}

func (b *LocalBus) PublishPositionReported(_ context.Context, event ports.PositionReported) error {
	b.positions.Publish(event)
	return nil
}

func (b *LocalBus) SubscribeOrderChanges(ctx context.Context) <-chan ports.OrderChanged {
	return b.orders.Subscribe(ctx, nil)
}

// SubscribePositions only yields reports of driverID.
func (b *LocalBus) SubscribePositions(ctx context.Context, driverID kernel.UUID) <-chan ports.PositionReported {
	return b.positions.Subscribe(ctx, func(e ports.PositionReported) bool {
		return e.DriverID.IsEqual(driverID)
	})
}

// Close ends every open subscription.
func (b *LocalBus) Close() {
	b.orders.Close()
	b.positions.Close()
}
