package eventbus

import (
	"context"
	"errors"

	"gasdelivery/internal/core/ports"
)

// Fanout publishes every event to all publishers, in order, and joins
// their errors. A failing publisher does not stop the others.
type Fanout []ports.EventPublisher

func (f Fanout) PublishOrderChanged(ctx context.Context, event ports.OrderChanged) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishOrderChanged(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) PublishPositionReported(ctx context.Context, event ports.PositionReported) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishPositionReported(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
