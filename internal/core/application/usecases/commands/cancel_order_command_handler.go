package commands

import (
	"context"

	"gasdelivery/internal/core/domain/model/order"
)

type CancelOrderCommandHandler struct {
	uowFactory OrderUoWFactory
}

func NewCancelOrderCommandHandler(uowFactory OrderUoWFactory) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{uowFactory: uowFactory}
}

// Handle fails with order.ErrInvalidTransition unless the order is Pending.
func (h CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) error {
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

	expected := target.Status()
	if err = target.Cancel(); err != nil {
		return err
	}

	if err = orderRepo.UpdateStatus(ctx, target, expected); err != nil {
		return translateWriteError(err, expected, order.Declined)
	}

	return uow.Commit(ctx)
}
