package ports

import (
	"context"
	"errors"

	"gasdelivery/internal/core/domain/model/kernel"
)

var (
	// ErrLoginTaken is returned when provisioning a login that already exists.
	ErrLoginTaken = errors.New("login is already registered")

	// ErrInvalidCredentials is returned for a failed authentication.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// IdentityProvider issues user identities. Driver ids are the user ids it
// returns.
type IdentityProvider interface {
	// Provision creates a login protected by secret and returns the new user id.
	Provision(ctx context.Context, login, secret string) (kernel.UUID, error)

	// AssignRole tags the user with role.
	AssignRole(ctx context.Context, userID kernel.UUID, role string) error

	// Revoke deletes the user. Used to compensate a failed registration.
	Revoke(ctx context.Context, userID kernel.UUID) error
}
