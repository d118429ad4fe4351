// Package routing serves driving routes and ETAs for in-progress orders.
// Plans are cached per order and recomputed when the driver moves.
package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"gasdelivery/internal/core/domain/model/driver"
	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/domain/model/order"
	"gasdelivery/internal/core/ports"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrProviderUnavailable is the routing provider failure. Advisor never
	// returns it; it reports an unavailable Plan instead.
	ErrProviderUnavailable = ports.ErrRoutingUnavailable

	// ErrNoActiveRoute is returned for orders that are not InProgress.
	ErrNoActiveRoute = errors.New("order has no active route")
)

// DefaultTimeout bounds one provider call.
const DefaultTimeout = 5 * time.Second

type (
	OrderReader interface {
		Get(ctx context.Context, id kernel.UUID) (*order.Order, error)
	}

	DriverReader interface {
		Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error)
	}
)

// Plan is a computed route. When Available is false the other route fields
// are empty and Reason says why.
type Plan struct {
	OrderID        kernel.UUID
	Available      bool
	Reason         string
	Geometry       []kernel.Location
	DistanceMeters float64
	ETAMinutes     int
	ComputedAt     time.Time
}

type cacheEntry struct {
	plan       Plan
	generation uint64
}

// Advisor computes routes through a ports.RoutingProvider.
//
// Invariants:
//   - concurrent computations for one order are coalesced into one provider call
//   - a plan computed before an invalidation is never cached after it
//   - orders that left InProgress hold no cache or generation entry
//   - provider failures and an open breaker surface as Plan{Available: false}
type Advisor struct {
	provider ports.RoutingProvider
	orders   OrderReader
	drivers  DriverReader
	logger   *slog.Logger
	timeout  time.Duration
	now      func() time.Time

	group singleflight.Group

	mu          sync.Mutex
	cache       map[uuid.UUID]cacheEntry
	generations map[uuid.UUID]uint64
	// seq hands out generations. Orders without an entry are at floor,
	// which moves past every handed out value when an order is evicted.
	seq   uint64
	floor uint64

	wg sync.WaitGroup
}

func NewAdvisor(
	provider ports.RoutingProvider,
	orders OrderReader,
	drivers DriverReader,
	timeout time.Duration,
	logger *slog.Logger,
) *Advisor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Advisor{
		provider:    provider,
		orders:      orders,
		drivers:     drivers,
		logger:      logger.With("component", "route_advisor"),
		timeout:     timeout,
		now:         time.Now,
		cache:       make(map[uuid.UUID]cacheEntry),
		generations: make(map[uuid.UUID]uint64),
	}
}

// Route asks the provider for a route between two points. Failures are
// logged and reported as an unavailable plan.
func (a *Advisor) Route(ctx context.Context, from, to kernel.Location) Plan {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	route, err := a.provider.Route(callCtx, from, to)
	if err != nil {
		a.logger.WarnContext(ctx, "Routing provider failed", "error", err)
		return Plan{Reason: ErrProviderUnavailable.Error(), ComputedAt: a.now().UTC()}
	}

	return Plan{
		Available:      true,
		Geometry:       route.Geometry,
		DistanceMeters: route.DistanceMeters,
		ETAMinutes:     etaMinutes(route.Duration),
		ComputedAt:     a.now().UTC(),
	}
}

// RouteForOrder returns the cached plan for an InProgress order or computes
// it from the driver's last position to the order's pin. Unknown orders
// return errs.ObjectNotFoundError and other statuses ErrNoActiveRoute.
// Unavailable plans are not cached.
func (a *Advisor) RouteForOrder(ctx context.Context, orderID kernel.UUID) (Plan, error) {
	plan, generation, ok := a.cached(orderID)
	if ok {
		return plan, nil
	}

	key := fmt.Sprintf("%s/%d", orderID, generation)
	result, err, _ := a.group.Do(key, func() (any, error) {
		// A call that just finished may have filled the cache.
		if plan, current, ok := a.cached(orderID); ok && current == generation {
			return plan, nil
		}
		return a.compute(context.WithoutCancel(ctx), orderID, generation)
	})
	if err != nil {
		return Plan{}, err
	}
	return result.(Plan), nil
}

// Invalidate drops the cached plan and recomputes it in the background.
func (a *Advisor) Invalidate(ctx context.Context, orderID kernel.UUID) {
	a.mu.Lock()
	delete(a.cache, orderID.Bytes())
	a.seq++
	a.generations[orderID.Bytes()] = a.seq
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if _, err := a.RouteForOrder(context.WithoutCancel(ctx), orderID); err != nil &&
			!errors.Is(err, ErrNoActiveRoute) {
			a.logger.WarnContext(ctx, "Route recomputation failed", "order_id", orderID.String(), "error", err)
		}
	}()
}

// Evict forgets an order that left InProgress. A computation already in
// flight for it will not be cached. Orders never invalidated lose their
// cached plans too and recompute on the next request.
func (a *Advisor) Evict(orderID kernel.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.cache, orderID.Bytes())
	delete(a.generations, orderID.Bytes())
	a.seq++
	a.floor = a.seq
}

// EvictOlderThan drops cached plans computed more than maxAge ago and
// returns how many were dropped.
func (a *Advisor) EvictOlderThan(maxAge time.Duration) int {
	cutoff := a.now().Add(-maxAge)

	a.mu.Lock()
	defer a.mu.Unlock()

	evicted := 0
	for id, entry := range a.cache {
		if entry.plan.ComputedAt.Before(cutoff) {
			delete(a.cache, id)
			evicted++
		}
	}
	return evicted
}

// Run evicts plans of orders that leave InProgress until ctx is done.
func (a *Advisor) Run(ctx context.Context, events ports.EventSubscriber) {
	changes := events.SubscribeOrderChanges(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-changes:
			if !ok {
				return
			}
			if event.Status != order.InProgress {
				a.Evict(event.OrderID)
			}
		}
	}
}

// Wait blocks until background recomputations have finished.
func (a *Advisor) Wait() {
	a.wg.Wait()
}

func (a *Advisor) cached(orderID kernel.UUID) (Plan, uint64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	generation := a.generation(orderID)
	entry, ok := a.cache[orderID.Bytes()]
	if !ok || entry.generation != generation {
		return Plan{}, generation, false
	}
	return entry.plan, generation, true
}

// generation must be called with mu held.
func (a *Advisor) generation(orderID kernel.UUID) uint64 {
	if g, ok := a.generations[orderID.Bytes()]; ok {
		return g
	}
	return a.floor
}

func (a *Advisor) compute(ctx context.Context, orderID kernel.UUID, generation uint64) (Plan, error) {
	target, err := a.orders.Get(ctx, orderID)
	if err != nil {
		return Plan{}, err
	}
	if target.Status() != order.InProgress || target.Driver() == nil {
		return Plan{}, fmt.Errorf("%w: order is %s", ErrNoActiveRoute, target.Status())
	}

	destination := target.Destination().Location()
	if destination == nil {
		return Plan{OrderID: orderID, Reason: "order has no delivery pin", ComputedAt: a.now().UTC()}, nil
	}

	assignee, err := a.drivers.Get(ctx, target.Driver().ID())
	if err != nil {
		return Plan{}, err
	}
	position := assignee.Position()
	if position == nil {
		return Plan{OrderID: orderID, Reason: "driver has not reported a position", ComputedAt: a.now().UTC()}, nil
	}

	plan := a.Route(ctx, *position, *destination)
	plan.OrderID = orderID
	if !plan.Available {
		return plan, nil
	}

	a.mu.Lock()
	if a.generation(orderID) == generation {
		a.cache[orderID.Bytes()] = cacheEntry{plan: plan, generation: generation}
	}
	a.mu.Unlock()

	return plan, nil
}

func etaMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Minutes()))
}
