package memory

import (
	"context"

	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/domain/model/order"
	"gasdelivery/internal/core/ports"
	"gasdelivery/internal/pkg/errs"
)

// OrderRepository implements ports.OrderRepository over a Store.
type OrderRepository struct {
	store *Store
	uow   *UnitOfWork
}

// NewOrderRepository returns a repository that writes outside any unit of
// work. Read-side handlers use it.
func NewOrderRepository(store *Store) *OrderRepository {
	return &OrderRepository{store: store}
}

func (r *OrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := aggregate.Validate(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := aggregate.ID().Bytes()
	if _, exists := r.store.orders[key]; exists {
		return ports.ErrOrderExists
	}
	r.store.orders[key] = copyOrder(aggregate)

	r.uow.record(func() { delete(r.store.orders, key) }, copyOrder(aggregate))
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := id.Validate(); err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.orders[id.Bytes()]
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return copyOrder(stored), nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, aggregate *order.Order, expected order.Status) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := aggregate.Validate(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := aggregate.ID().Bytes()
	stored, ok := r.store.orders[key]
	if !ok {
		return errs.NewObjectNotFoundError("order", aggregate.ID().String())
	}
	if stored.Status() != expected {
		return ports.ErrStatusConflict
	}

	if aggregate.Status() == order.InProgress {
		ref := aggregate.Driver()
		if ref == nil {
			return errs.NewValueIsRequiredError("driver")
		}
		if holder := r.store.inProgressOrderOf(ref.ID()); holder != nil && !holder.IsEqual(aggregate) {
			return ports.ErrDriverBusy
		}
	}

	r.store.orders[key] = copyOrder(aggregate)

	r.uow.record(func() { r.store.orders[key] = stored }, copyOrder(aggregate))
	return nil
}

func (r *OrderRepository) Find(ctx context.Context, filter order.Filter) ([]*order.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.store.sortedOrders(filter), nil
}

func (r *OrderRepository) FindInProgressByDriver(ctx context.Context, driverID kernel.UUID) (*order.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if o := r.store.inProgressOrderOf(driverID); o != nil {
		return copyOrder(o), nil
	}
	return nil, errs.NewObjectNotFoundError("in-progress order of driver", driverID.String())
}
