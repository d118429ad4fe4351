// Package queries contains the read-side operations. Handlers read through
// narrow reader interfaces that both storage adapters satisfy outside any
// unit of work.
package queries

import (
	"context"

	"gasdelivery/internal/core/domain/model/driver"
	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/domain/model/order"
)

type (
	// OrderReader is the read half of ports.OrderRepository.
	OrderReader interface {
		Get(ctx context.Context, id kernel.UUID) (*order.Order, error)
		Find(ctx context.Context, filter order.Filter) ([]*order.Order, error)
	}

	// DriverReader is the read half of ports.DriverRepository.
	DriverReader interface {
		Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error)
		GetAllAvailable(ctx context.Context) ([]*driver.Driver, error)
		IsAvailable(ctx context.Context, id kernel.UUID) (bool, error)
	}
)
