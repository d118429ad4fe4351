package ports

import (
	"context"
	"time"

	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/domain/model/order"
)

// OrderChanged is published after an order is created or changes status.
type OrderChanged struct {
	OrderID    kernel.UUID
	Status     order.Status
	DriverID   *kernel.UUID
	OccurredAt time.Time
}

// PositionReported is published after a driver position is stored.
type PositionReported struct {
	DriverID   kernel.UUID
	Location   kernel.Location
	ReportedAt time.Time
}

// EventPublisher fans committed changes out to subscribers. Delivery is
// at-most-once; observers that need the current state re-read it.
type EventPublisher interface {
	PublishOrderChanged(ctx context.Context, event OrderChanged) error
	PublishPositionReported(ctx context.Context, event PositionReported) error
}

// EventSubscriber opens live subscriptions. Each returned channel is closed
// once ctx is done and the subscription has been released.
type EventSubscriber interface {
	SubscribeOrderChanges(ctx context.Context) <-chan OrderChanged
	SubscribePositions(ctx context.Context, driverID kernel.UUID) <-chan PositionReported
}

// EventBus is both ends of the change feed.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
