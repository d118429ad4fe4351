package commands

import (
	"context"
	"errors"
	"fmt"

	"gasdelivery/internal/core/domain/model/order"
	"gasdelivery/internal/core/ports"
)

// ErrNotAssignedDriver is returned when a driver resolves an order that is
// not theirs.
var ErrNotAssignedDriver = errors.New("order is assigned to another driver")

// ResolveOrderCommandHandler applies confirmDelivery or reportFailure. After a
// committed delivery the notifier is told about it; the notifier returns
// immediately and its outcome never affects the resolution.
type ResolveOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	notifier   ports.DeliveryNotifier
}

func NewResolveOrderCommandHandler(uowFactory OrderUoWFactory, notifier ports.DeliveryNotifier) ResolveOrderCommandHandler {
	return ResolveOrderCommandHandler{
		uowFactory: uowFactory,
		notifier:   notifier,
	}
}

func (h ResolveOrderCommandHandler) Handle(ctx context.Context, cmd ResolveOrderCommand) error {
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

	target, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	if actor := cmd.Actor(); actor != nil && !target.HasDriver(*actor) {
		return fmt.Errorf("%w: %s", ErrNotAssignedDriver, target.ID())
	}

	expected := target.Status()
	switch cmd.Outcome() {
	case order.Delivered:
		err = target.ConfirmDelivery()
	default:
		err = target.ReportFailure()
	}
	if err != nil {
		return err
	}

	if err = orderRepo.UpdateStatus(ctx, target, expected); err != nil {
		return translateWriteError(err, expected, cmd.Outcome())
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	if cmd.Outcome() == order.Delivered && h.notifier != nil {
		h.notifier.OrderDelivered(ctx, target.ID())
	}

	return nil
}
