package commands

import (
	"context"
	"errors"
	"fmt"

	"gasdelivery/internal/core/domain/model/driver"
	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/ports"
)

// RegisterDriverCommandHandler provisions the driver's identity, grants the
// driver role and stores the profile under the identity's user id. If any
// step after provisioning fails the identity is revoked again.
type RegisterDriverCommandHandler struct {
	uowFactory DriverUoWFactory
	identity   ports.IdentityProvider
}

func NewRegisterDriverCommandHandler(uowFactory DriverUoWFactory, identity ports.IdentityProvider) RegisterDriverCommandHandler {
	return RegisterDriverCommandHandler{
		uowFactory: uowFactory,
		identity:   identity,
	}
}

// Handle returns the new driver's id.
func (h RegisterDriverCommandHandler) Handle(ctx context.Context, cmd RegisterDriverCommand) (kernel.UUID, error) {
	if err := cmd.Validate(); err != nil {
		return kernel.UUID{}, err
	}

	userID, err := h.identity.Provision(ctx, cmd.Phone(), cmd.Phone())
	if err != nil {
		return kernel.UUID{}, err
	}

	if err = h.register(ctx, userID, cmd); err != nil {
		if revokeErr := h.identity.Revoke(context.WithoutCancel(ctx), userID); revokeErr != nil {
			return kernel.UUID{}, errors.Join(err, fmt.Errorf("revoke identity %s: %w", userID, revokeErr))
		}
		return kernel.UUID{}, err
	}

	return userID, nil
}

func (h RegisterDriverCommandHandler) register(ctx context.Context, userID kernel.UUID, cmd RegisterDriverCommand) error {
	if err := h.identity.AssignRole(ctx, userID, driver.Role); err != nil {
		return err
	}

	newDriver, err := driver.NewDriver(userID, cmd.Name(), cmd.Phone(), cmd.Vehicle())
	if err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.DriverRepository().Add(ctx, newDriver); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
