package memory

import (
	"context"
	"fmt"
	"sort"

	"gasdelivery/internal/core/domain/model/driver"
	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/pkg/errs"
)

// DriverRepository implements ports.DriverRepository over a Store.
type DriverRepository struct {
	store *Store
	uow   *UnitOfWork
}

// NewDriverRepository returns a repository that writes outside any unit of
// work. Read-side handlers use it.
func NewDriverRepository(store *Store) *DriverRepository {
	return &DriverRepository{store: store}
}

func (r *DriverRepository) Add(ctx context.Context, aggregate *driver.Driver) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := aggregate.Validate(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := aggregate.ID().Bytes()
	if _, exists := r.store.drivers[key]; exists {
		return fmt.Errorf("memory: driver %s already exists", aggregate.ID())
	}
	r.store.drivers[key] = copyDriver(aggregate)

	r.uow.record(func() { delete(r.store.drivers, key) }, copyDriver(aggregate))
	return nil
}

func (r *DriverRepository) Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := id.Validate(); err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.drivers[id.Bytes()]
	if !ok {
		return nil, errs.NewObjectNotFoundError("driver", id.String())
	}
	return copyDriver(stored), nil
}

func (r *DriverRepository) UpdatePosition(ctx context.Context, aggregate *driver.Driver) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := aggregate.Validate(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := aggregate.ID().Bytes()
	stored, ok := r.store.drivers[key]
	if !ok {
		return errs.NewObjectNotFoundError("driver", aggregate.ID().String())
	}
	r.store.drivers[key] = copyDriver(aggregate)

	r.uow.record(func() { r.store.drivers[key] = stored }, copyDriver(aggregate))
	return nil
}

func (r *DriverRepository) GetAllAvailable(ctx context.Context) ([]*driver.Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	result := make([]*driver.Driver, 0, len(r.store.drivers))
	for _, d := range r.store.drivers {
		if r.store.inProgressOrderOf(d.ID()) == nil {
			result = append(result, copyDriver(d))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result, nil
}

func (r *DriverRepository) IsAvailable(ctx context.Context, id kernel.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.drivers[id.Bytes()]; !ok {
		return false, errs.NewObjectNotFoundError("driver", id.String())
	}
	return r.store.inProgressOrderOf(id) == nil, nil
}
