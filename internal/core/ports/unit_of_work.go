package ports

import (
	"context"
)

// UnitOfWorkFactory creates a UnitOfWork per command.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork is a business transaction boundary. Aggregates written through
// its repositories are published as change events after a successful Commit
// and discarded on Rollback.
type UnitOfWork interface {
	// Begin starts a transaction. Calling it twice is a no-op.
	Begin(ctx context.Context) error

	// Commit makes the writes durable, then publishes change events.
	Commit(ctx context.Context) error

	// Rollback discards the writes. It fails when no transaction is active,
	// which makes a deferred Rollback after Commit harmless.
	Rollback(ctx context.Context) error

	// OrderRepository returns a repository bound to the current transaction.
	OrderRepository() OrderRepository

	// DriverRepository returns a repository bound to the current transaction.
	DriverRepository() DriverRepository
}
