package commands

import (
	"errors"

	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/domain/model/order"
	"gasdelivery/internal/pkg/errs"
	"gasdelivery/internal/pkg/guard"
)

var ErrResolveOrderCommandIsNotConstructed = errors.New(
	"ResolveOrderCommand must be created via NewResolveOrderCommand constructor",
)

// ResolveOrderCommand closes an InProgress order as Delivered or Declined.
// When actor is set the command comes from a driver and only the assigned
// driver may resolve the order; a nil actor is an administrator.
type ResolveOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	outcome order.Status
	actor   *kernel.UUID

	guard guard.ConstructorGuard
}

func NewResolveOrderCommand(orderID kernel.UUID, outcome order.Status, actor *kernel.UUID) (ResolveOrderCommand, error) {
	if err := orderID.Validate(); err != nil {
		return ResolveOrderCommand{}, err
	}
	if outcome != order.Delivered && outcome != order.Declined {
		return ResolveOrderCommand{}, errs.NewValueIsInvalidError("outcome must be delivered or declined")
	}

	cmd := ResolveOrderCommand{
		orderID: orderID,
		outcome: outcome,
		guard:   guard.NewConstructorGuard(),
	}
	if actor != nil {
		if err := actor.Validate(); err != nil {
			return ResolveOrderCommand{}, err
		}
		id := *actor
		cmd.actor = &id
	}
	return cmd, nil
}

func (c ResolveOrderCommand) Validate() error {
	return c.guard.Validate(ErrResolveOrderCommandIsNotConstructed)
}

func (c ResolveOrderCommand) OrderID() kernel.UUID  { return c.orderID }
func (c ResolveOrderCommand) Outcome() order.Status { return c.outcome }

// Actor returns the resolving driver, or nil for an administrator.
func (c ResolveOrderCommand) Actor() *kernel.UUID {
	if c.actor == nil {
		return nil
	}
	id := *c.actor
	return &id
}
