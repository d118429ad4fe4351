// Package tracking streams live dispatch state to observers: a driver's
// position while an order is in progress and the changing set of orders an
// administrator is watching.
package tracking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gasdelivery/internal/core/application/usecases/commands"
	"gasdelivery/internal/core/domain/model/driver"
	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/domain/model/order"
	"gasdelivery/internal/core/ports"
	"gasdelivery/internal/pkg/errs"
)

// MovementThreshold is the distance in meters a driver must move before the
// route of their in-progress order is recomputed.
const MovementThreshold = 10.0

type (
	// PositionRecorder stores a position report.
	PositionRecorder interface {
		Handle(ctx context.Context, cmd commands.RecordPositionCommand) (commands.PositionChange, error)
	}

	// RouteInvalidator is told when a driver of an in-progress order has moved.
	RouteInvalidator interface {
		Invalidate(ctx context.Context, orderID kernel.UUID)
	}

	OrderReader interface {
		Get(ctx context.Context, id kernel.UUID) (*order.Order, error)
		Find(ctx context.Context, filter order.Filter) ([]*order.Order, error)
		FindInProgressByDriver(ctx context.Context, driverID kernel.UUID) (*order.Order, error)
	}

	DriverReader interface {
		Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error)
	}
)

// TrackPoint is one driver position delivered to a tracking observer.
type TrackPoint struct {
	Location   kernel.Location
	ReportedAt time.Time
}

// LocationSync accepts driver position reports and serves per-order tracking
// streams.
type LocationSync struct {
	recorder PositionRecorder
	orders   OrderReader
	drivers  DriverReader
	events   ports.EventSubscriber
	routes   RouteInvalidator
	logger   *slog.Logger
}

// NewLocationSync wires the service. routes may be nil when no route advisor
// runs.
func NewLocationSync(
	recorder PositionRecorder,
	orders OrderReader,
	drivers DriverReader,
	events ports.EventSubscriber,
	routes RouteInvalidator,
	logger *slog.Logger,
) *LocationSync {
	return &LocationSync{
		recorder: recorder,
		orders:   orders,
		drivers:  drivers,
		events:   events,
		routes:   routes,
		logger:   logger.With("component", "location_sync"),
	}
}

// Report stores the position. Observers receive it through the event bus
// once the write is committed. A report that moves the driver more than
// MovementThreshold invalidates the route of their in-progress order.
func (s *LocationSync) Report(ctx context.Context, driverID kernel.UUID, latitude, longitude float64) error {
	cmd, err := commands.NewRecordPositionCommand(driverID, latitude, longitude)
	if err != nil {
		return err
	}

	change, err := s.recorder.Handle(ctx, cmd)
	if err != nil {
		return err
	}

	if s.routes == nil || (!change.First && change.MovedMeters <= MovementThreshold) {
		return nil
	}

	active, err := s.orders.FindInProgressByDriver(ctx, driverID)
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return nil
	case err != nil:
		s.logger.WarnContext(ctx, "failed to look up active order", "driver_id", driverID.String(), "error", err)
		return nil
	}

	s.routes.Invalidate(ctx, active.ID())
	return nil
}

// Track streams the assigned driver's positions for an InProgress order.
//
// The driver's last known position is replayed first when it was reported
// after the assignment, then every later report follows in receipt order.
// The channel is closed when the order leaves InProgress or ctx is done;
// reports received before the resolution are delivered first and reports
// made after it never are. For
// an order in any other status the channel is closed without values. An
// unknown order returns errs.ObjectNotFoundError.
func (s *LocationSync) Track(ctx context.Context, orderID kernel.UUID) (<-chan TrackPoint, error) {
	streamCtx, cancel := context.WithCancel(ctx)

	// Subscribe before reading state so no change between the read and the
	// subscription is lost.
	changes := s.events.SubscribeOrderChanges(streamCtx)

	tracked, err := s.orders.Get(streamCtx, orderID)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan TrackPoint)
	ref := tracked.Driver()
	if tracked.Status() != order.InProgress || ref == nil {
		cancel()
		close(out)
		return out, nil
	}

	positions := s.events.SubscribePositions(streamCtx, ref.ID())

	var replay *TrackPoint
	assignee, err := s.drivers.Get(streamCtx, ref.ID())
	if err != nil {
		cancel()
		return nil, err
	}
	if p := lastPositionSince(assignee, tracked.AssignedAt()); p != nil {
		replay = p
	}

	go func() {
		defer close(out)
		defer cancel()

		var last time.Time
		if replay != nil {
			if !send(streamCtx, out, *replay) {
				return
			}
			last = replay.ReportedAt
		}

		for {
			select {
			case <-streamCtx.Done():
				return
			case event, ok := <-changes:
				if !ok {
					return
				}
				if endsTracking(event, orderID) {
					flushUntil(streamCtx, out, positions, last, event.OccurredAt)
					return
				}
			case event, ok := <-positions:
				if !ok {
					return
				}
				// A resolution already waiting wins over the report, which
				// is only kept when it was made before the resolution.
				if end, found := pendingEnd(changes, orderID); found {
					if !event.ReportedAt.After(end.OccurredAt) && event.ReportedAt.After(last) {
						point := TrackPoint{Location: event.Location, ReportedAt: event.ReportedAt}
						if !send(streamCtx, out, point) {
							return
						}
						last = event.ReportedAt
					}
					flushUntil(streamCtx, out, positions, last, end.OccurredAt)
					return
				}
				// The replayed position may also arrive as a live event.
				if !event.ReportedAt.After(last) {
					continue
				}
				point := TrackPoint{Location: event.Location, ReportedAt: event.ReportedAt}
				if !send(streamCtx, out, point) {
					return
				}
				last = event.ReportedAt
			}
		}
	}()

	return out, nil
}

func endsTracking(event ports.OrderChanged, orderID kernel.UUID) bool {
	return event.OrderID.IsEqual(orderID) && event.Status != order.InProgress
}

// pendingEnd drains the changes already buffered and reports the one that
// took orderID out of InProgress, if any.
func pendingEnd(changes <-chan ports.OrderChanged, orderID kernel.UUID) (ports.OrderChanged, bool) {
	for {
		select {
		case event, ok := <-changes:
			if !ok {
				return ports.OrderChanged{}, false
			}
			if endsTracking(event, orderID) {
				return event, true
			}
		default:
			return ports.OrderChanged{}, false
		}
	}
}

// flushUntil sends the buffered reports made after last and no later than
// cutoff. Reports made after cutoff belong to no in-progress order.
func flushUntil(
	ctx context.Context,
	out chan<- TrackPoint,
	positions <-chan ports.PositionReported,
	last, cutoff time.Time,
) {
	for {
		select {
		case event, ok := <-positions:
			if !ok {
				return
			}
			if event.ReportedAt.After(cutoff) || !event.ReportedAt.After(last) {
				continue
			}
			if !send(ctx, out, TrackPoint{Location: event.Location, ReportedAt: event.ReportedAt}) {
				return
			}
			last = event.ReportedAt
		default:
			return
		}
	}
}

func lastPositionSince(d *driver.Driver, assignedAt *time.Time) *TrackPoint {
	position, reportedAt := d.Position(), d.PositionReportedAt()
	if position == nil || reportedAt == nil {
		return nil
	}
	if assignedAt != nil && reportedAt.Before(*assignedAt) {
		return nil
	}
	return &TrackPoint{Location: *position, ReportedAt: *reportedAt}
}

func send[T any](ctx context.Context, out chan<- T, v T) bool {
	select {
	case out <- v:
		return true
	case <-ctx.Done():
		return false
	}
}
