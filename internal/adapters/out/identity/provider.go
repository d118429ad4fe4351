package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/ports"
	"gasdelivery/internal/pkg/errs"

	"golang.org/x/crypto/bcrypt"
)

// MinSecretLength is the shortest accepted driver secret.
const MinSecretLength = 8

// Provider implements ports.IdentityProvider over a CredentialStore and
// authenticates logins against it.
type Provider struct {
	store CredentialStore
	cost  int
	now   func() time.Time
}

// NewProvider hashes secrets with bcrypt at cost. A cost of zero selects
// bcrypt.DefaultCost.
func NewProvider(store CredentialStore, cost int) *Provider {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Provider{
		store: store,
		cost:  cost,
		now:   time.Now,
	}
}

func (p *Provider) Provision(ctx context.Context, login, secret string) (kernel.UUID, error) {
	login = normalizeLogin(login)
	if login == "" {
		return kernel.UUID{}, errs.NewValueIsRequiredError("login")
	}
	if len(secret) < MinSecretLength {
		return kernel.UUID{}, errs.NewValueIsInvalidError("secret is too short")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), p.cost)
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("secret", err)
	}

	userID := kernel.NewUUID()
	if err = p.store.Create(ctx, Credential{
		UserID:     userID,
		Login:      login,
		SecretHash: hash,
		CreatedAt:  p.now().UTC(),
	}); err != nil {
		return kernel.UUID{}, err
	}

	return userID, nil
}

func (p *Provider) AssignRole(ctx context.Context, userID kernel.UUID, role string) error {
	if strings.TrimSpace(role) == "" {
		return errs.NewValueIsRequiredError("role")
	}
	return p.store.SetRole(ctx, userID, role)
}

func (p *Provider) Revoke(ctx context.Context, userID kernel.UUID) error {
	return p.store.Delete(ctx, userID)
}

// Authenticate checks a login and secret. Unknown logins and wrong secrets
// both yield ports.ErrInvalidCredentials.
func (p *Provider) Authenticate(ctx context.Context, login, secret string) (Principal, error) {
	credential, err := p.store.FindByLogin(ctx, normalizeLogin(login))
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return Principal{}, ports.ErrInvalidCredentials
		}
		return Principal{}, err
	}

	if err = bcrypt.CompareHashAndPassword(credential.SecretHash, []byte(secret)); err != nil {
		return Principal{}, ports.ErrInvalidCredentials
	}

	return Principal{UserID: credential.UserID, Role: credential.Role}, nil
}

func normalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}
