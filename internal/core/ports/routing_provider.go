package ports

import (
	"context"
	"errors"
	"time"

	"gasdelivery/internal/core/domain/model/kernel"
)

// ErrRoutingUnavailable wraps every routing provider failure, including an
// open circuit breaker.
var ErrRoutingUnavailable = errors.New("routing provider unavailable")

// Route is a driving route between two points.
type Route struct {
	Geometry       []kernel.Location
	DistanceMeters float64
	Duration       time.Duration
}

// RoutingProvider computes driving routes.
type RoutingProvider interface {
	Route(ctx context.Context, from, to kernel.Location) (Route, error)
}
