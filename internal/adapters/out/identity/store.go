// Package identity provisions driver logins and issues the bearer tokens
// drivers present to the HTTP API.
package identity

import (
	"context"
	"sync"
	"time"

	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/ports"
	"gasdelivery/internal/pkg/errs"

	"github.com/google/uuid"
)

// Credential is one stored login.
type Credential struct {
	UserID     kernel.UUID
	Login      string
	SecretHash []byte
	Role       string
	CreatedAt  time.Time
}

// CredentialStore persists credentials. Create fails with
// ports.ErrLoginTaken for a duplicate login; lookups of unknown users fail
// with errs.ObjectNotFoundError.
type CredentialStore interface {
	Create(ctx context.Context, credential Credential) error
	FindByLogin(ctx context.Context, login string) (Credential, error)
	SetRole(ctx context.Context, userID kernel.UUID, role string) error
	Delete(ctx context.Context, userID kernel.UUID) error
}

// MemoryStore is a CredentialStore for the in-memory storage mode.
type MemoryStore struct {
	mu      sync.RWMutex
	byLogin map[string]uuid.UUID
	byID    map[uuid.UUID]Credential
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byLogin: make(map[string]uuid.UUID),
		byID:    make(map[uuid.UUID]Credential),
	}
}

func (s *MemoryStore) Create(_ context.Context, credential Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byLogin[credential.Login]; taken {
		return ports.ErrLoginTaken
	}
	s.byLogin[credential.Login] = credential.UserID.Bytes()
	s.byID[credential.UserID.Bytes()] = credential
	return nil
}

func (s *MemoryStore) FindByLogin(_ context.Context, login string) (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byLogin[login]
	if !ok {
		return Credential{}, errs.NewObjectNotFoundError("credential", login)
	}
	return s.byID[id], nil
}

func (s *MemoryStore) SetRole(_ context.Context, userID kernel.UUID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential, ok := s.byID[userID.Bytes()]
	if !ok {
		return errs.NewObjectNotFoundError("credential", userID.String())
	}
	credential.Role = role
	s.byID[userID.Bytes()] = credential
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID kernel.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential, ok := s.byID[userID.Bytes()]
	if !ok {
		return errs.NewObjectNotFoundError("credential", userID.String())
	}
	delete(s.byLogin, credential.Login)
	delete(s.byID, userID.Bytes())
	return nil
}
