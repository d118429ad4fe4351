package memory

import (
	"context"
	"errors"
	"log/slog"

	"gasdelivery/internal/adapters/out/eventbus"
	"gasdelivery/internal/core/ports"
)

// ErrNoTransaction is returned by Commit and Rollback outside Begin.
var ErrNoTransaction = errors.New("memory: no active transaction")

// UnitOfWorkFactory creates units of work over a shared Store.
type UnitOfWorkFactory struct {
	store     *Store
	publisher ports.EventPublisher
	logger    *slog.Logger
}

// NewUnitOfWorkFactory wires a store to the publisher that receives change
// events after each commit. publisher may be nil.
func NewUnitOfWorkFactory(store *Store, publisher ports.EventPublisher, logger *slog.Logger) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		store:     store,
		publisher: publisher,
		logger:    logger.With("component", "memory_unit_of_work"),
	}
}

func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{
		store:     f.store,
		publisher: f.publisher,
		logger:    f.logger,
	}
}

// UnitOfWork applies writes to the store immediately and keeps an undo
// journal, so a Rollback restores the previous state. Other units of work see
// uncommitted writes; that is what makes driver exclusivity hold across
// concurrent assignments.
type UnitOfWork struct {
	store     *Store
	publisher ports.EventPublisher
	logger    *slog.Logger

	active  bool
	undo    []func()
	tracked []any
}

func (uow *UnitOfWork) Begin(_ context.Context) error {
	if uow.active {
		return nil
	}
	uow.active = true
	uow.undo = nil
	uow.tracked = nil
	return nil
}

func (uow *UnitOfWork) Commit(ctx context.Context) error {
	if !uow.active {
		return ErrNoTransaction
	}

	tracked := uow.tracked
	uow.active = false
	uow.undo = nil
	uow.tracked = nil

	_ = eventbus.Dispatch(ctx, uow.publisher, uow.logger, tracked)
	return nil
}

func (uow *UnitOfWork) Rollback(_ context.Context) error {
	if !uow.active {
		return ErrNoTransaction
	}

	uow.store.mu.Lock()
	for i := len(uow.undo) - 1; i >= 0; i-- {
		uow.undo[i]()
	}
	uow.store.mu.Unlock()

	uow.active = false
	uow.undo = nil
	uow.tracked = nil
	return nil
}

func (uow *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &OrderRepository{store: uow.store, uow: uow}
}

func (uow *UnitOfWork) DriverRepository() ports.DriverRepository {
	return &DriverRepository{store: uow.store, uow: uow}
}

// record is called with the store lock held after a successful write.
func (uow *UnitOfWork) record(undo func(), aggregate any) {
	if uow == nil || !uow.active {
		return
	}
	uow.undo = append(uow.undo, undo)
	uow.tracked = append(uow.tracked, aggregate)
}
