package tracking

import (
	"context"
	"errors"
	"log/slog"

	"gasdelivery/internal/core/application/usecases/queries"
	"gasdelivery/internal/core/domain/model/order"
	"gasdelivery/internal/core/ports"
	"gasdelivery/internal/pkg/errs"

	"github.com/google/uuid"
)

// OrderUpdate is one element of an order subscription. Removed marks an
// order that matched the filter earlier and no longer does.
type OrderUpdate struct {
	Order   queries.OrderView
	Removed bool
}

// OrderFeed serves filtered live order subscriptions.
type OrderFeed struct {
	orders OrderReader
	events ports.EventSubscriber
	logger *slog.Logger
}

func NewOrderFeed(orders OrderReader, events ports.EventSubscriber, logger *slog.Logger) *OrderFeed {
	return &OrderFeed{
		orders: orders,
		events: events,
		logger: logger.With("component", "order_feed"),
	}
}

// Subscribe emits every order currently matching filter, oldest first, then
// each later change that affects the matching set. The stream never ends on
// its own; cancelling ctx closes it. Subscribing again restarts from the
// current state.
//
// Change events only carry ids, so every change is answered with a fresh
// read of the order. Missed events are harmless as long as a later one
// arrives for the same order.
func (f *OrderFeed) Subscribe(ctx context.Context, filter order.Filter) (<-chan OrderUpdate, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	changes := f.events.SubscribeOrderChanges(streamCtx)

	current, err := f.orders.Find(streamCtx, filter)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan OrderUpdate)
	go func() {
		defer close(out)
		defer cancel()

		matched := make(map[uuid.UUID]struct{}, len(current))
		for _, o := range current {
			matched[o.ID().Bytes()] = struct{}{}
			if !send(streamCtx, out, OrderUpdate{Order: queries.NewOrderView(o)}) {
				return
			}
		}

		for {
			select {
			case <-streamCtx.Done():
				return
			case event, ok := <-changes:
				if !ok {
					return
				}
				update, emit := f.apply(streamCtx, filter, matched, event)
				if emit && !send(streamCtx, out, update) {
					return
				}
			}
		}
	}()

	return out, nil
}

func (f *OrderFeed) apply(
	ctx context.Context,
	filter order.Filter,
	matched map[uuid.UUID]struct{},
	event ports.OrderChanged,
) (OrderUpdate, bool) {
	changed, err := f.orders.Get(ctx, event.OrderID)
	if err != nil {
		if !errors.Is(err, errs.ErrObjectNotFound) && ctx.Err() == nil {
			f.logger.WarnContext(ctx, "failed to read changed order", "order_id", event.OrderID.String(), "error", err)
		}
		return OrderUpdate{}, false
	}

	key := changed.ID().Bytes()
	_, wasMatched := matched[key]

	switch {
	case filter.Matches(changed):
		matched[key] = struct{}{}
		return OrderUpdate{Order: queries.NewOrderView(changed)}, true
	case wasMatched:
		delete(matched, key)
		return OrderUpdate{Order: queries.NewOrderView(changed), Removed: true}, true
	default:
		return OrderUpdate{}, false
	}
}
