// Package ports defines the contracts between the dispatch core and its
// infrastructure: persistence, the change feed, identity, routing, text
// generation and notification delivery.
package ports

import (
	"context"
	"errors"

	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/domain/model/order"
)

var (
	// ErrStatusConflict is returned by a conditional status write when the
	// stored status no longer equals the expected one.
	ErrStatusConflict = errors.New("order status changed concurrently")

	// ErrDriverBusy is returned when a write would give a driver a second
	// InProgress order.
	ErrDriverBusy = errors.New("driver already has an order in progress")

	// ErrOrderExists is returned by Add for an id that is already stored.
	ErrOrderExists = errors.New("order already exists")
)

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add persists a new order. Items are stored with it and never updated.
	// Adding an existing id fails with ErrOrderExists.
	Add(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order by id or returns errs.ObjectNotFoundError.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// UpdateStatus writes the aggregate's status, driver linkage and
	// assignment time only if the stored status still equals expected.
	//
	// This is the per-order serialization point: of several concurrent
	// writers starting from the same status exactly one succeeds and the
	// others get ErrStatusConflict. Writing InProgress for a driver that
	// already holds an InProgress order fails with ErrDriverBusy.
	UpdateStatus(ctx context.Context, aggregate *order.Order, expected order.Status) error

	// Find returns the orders matching filter, oldest first.
	Find(ctx context.Context, filter order.Filter) ([]*order.Order, error)

	// FindInProgressByDriver returns the single InProgress order held by the
	// driver, or errs.ObjectNotFoundError.
	FindInProgressByDriver(ctx context.Context, driverID kernel.UUID) (*order.Order, error)
}
