package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gasdelivery/internal/core/domain/model/order"
	"gasdelivery/internal/core/ports"
)

// ErrDriverUnavailable is returned when the driver already holds an
// InProgress order.
var ErrDriverUnavailable = errors.New("driver is unavailable")

// AssignDriverCommandHandler links an available driver to a Pending order.
//
// The availability check inside the transaction only gives an early answer.
// The authoritative guards are the conditional status write, which lets one
// of several concurrent assigns of the same order win, and the store's
// driver exclusivity rule, which lets one of several concurrent assigns of
// the same driver win.
//
// Example:
//
//	err := handler.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, errs.ErrObjectNotFound):
//	    // unknown order or driver
//	case errors.Is(err, order.ErrInvalidTransition):
//	    // order is no longer Pending
//	case errors.Is(err, ErrDriverUnavailable):
//	    // driver is busy
//	}
type AssignDriverCommandHandler struct {
	uowFactory UoWFactory
	now        func() time.Time
}

func NewAssignDriverCommandHandler(uowFactory UoWFactory) AssignDriverCommandHandler {
	return AssignDriverCommandHandler{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

func (h AssignDriverCommandHandler) Handle(ctx context.Context, cmd AssignDriverCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	driverRepo := uow.DriverRepository()

	target, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	assignee, err := driverRepo.Get(ctx, cmd.DriverID())
	if err != nil {
		return err
	}

	available, err := driverRepo.IsAvailable(ctx, assignee.ID())
	if err != nil {
		return err
	}
	if !available {
		return fmt.Errorf("%w: %s", ErrDriverUnavailable, assignee.ID())
	}

	ref, err := order.NewDriverRef(assignee.ID(), assignee.Name())
	if err != nil {
		return err
	}

	expected := target.Status()
	if err = target.Assign(ref, h.now()); err != nil {
		return err
	}

	if err = orderRepo.UpdateStatus(ctx, target, expected); err != nil {
		return translateWriteError(err, expected, order.InProgress)
	}

	return uow.Commit(ctx)
}

// translateWriteError maps store conflicts to the errors callers classify.
func translateWriteError(err error, from, to order.Status) error {
	switch {
	case errors.Is(err, ports.ErrStatusConflict):
		return fmt.Errorf("%w: order changed concurrently", &order.TransitionError{From: from, To: to})
	case errors.Is(err, ports.ErrDriverBusy):
		return fmt.Errorf("%w: %w", ErrDriverUnavailable, err)
	default:
		return err
	}
}
