package ports

import (
	"context"

	"gasdelivery/internal/core/domain/model/driver"
	"gasdelivery/internal/core/domain/model/kernel"
)

// DriverRepository defines the persistence contract for driver aggregates.
type DriverRepository interface {
	// Add persists a newly registered driver.
	Add(ctx context.Context, aggregate *driver.Driver) error

	// Get retrieves a driver by id or returns errs.ObjectNotFoundError.
	Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error)

	// UpdatePosition overwrites the stored last-known position. Concurrent
	// reports for the same driver are last-write-wins.
	UpdatePosition(ctx context.Context, aggregate *driver.Driver) error

	// GetAllAvailable returns drivers not referenced by any InProgress order,
	// ordered by name. Availability is computed at call time.
	//
	// Business Rules:
	//   - Drivers without orders: available
	//   - Drivers whose orders are all Delivered or Declined: available
	//   - Drivers holding an InProgress order: unavailable
	GetAllAvailable(ctx context.Context) ([]*driver.Driver, error)

	// IsAvailable applies the GetAllAvailable rule to one driver. Unknown
	// drivers yield errs.ObjectNotFoundError.
	IsAvailable(ctx context.Context, id kernel.UUID) (bool, error)
}
