package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gasdelivery/internal/core/domain/model/driver"
	"gasdelivery/internal/core/domain/model/order"
	"gasdelivery/internal/core/ports"
)

// Dispatch turns aggregates tracked by a committed unit of work into change
// events. Orders always produce OrderChanged; drivers produce
// PositionReported only once they have a position. Publish failures are
// logged and joined but never undo the commit.
func Dispatch(ctx context.Context, publisher ports.EventPublisher, logger *slog.Logger, aggregates []any) error {
	if publisher == nil {
		return nil
	}

	var errs []error
	for _, aggregate := range aggregates {
		var err error
		switch a := aggregate.(type) {
		case *order.Order:
			err = publisher.PublishOrderChanged(ctx, OrderChangedFrom(a))
		case *driver.Driver:
			event, ok := PositionReportedFrom(a)
			if !ok {
				continue
			}
			err = publisher.PublishPositionReported(ctx, event)
		}
		if err != nil {
			logger.WarnContext(ctx, "Failed to publish change event", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OrderChangedFrom snapshots the order's current status and driver.
func OrderChangedFrom(o *order.Order) ports.OrderChanged {
	event := ports.OrderChanged{
		OrderID:    o.ID(),
		Status:     o.Status(),
		OccurredAt: time.Now().UTC(),
	}
	if ref := o.Driver(); ref != nil {
		id := ref.ID()
		event.DriverID = &id
	}
	return event
}

// PositionReportedFrom snapshots the driver's last position.
func PositionReportedFrom(d *driver.Driver) (ports.PositionReported, bool) {
	position := d.Position()
	reportedAt := d.PositionReportedAt()
	if position == nil || reportedAt == nil {
		return ports.PositionReported{}, false
	}
	return ports.PositionReported{
		DriverID:   d.ID(),
		Location:   *position,
		ReportedAt: *reportedAt,
	}, true
}
