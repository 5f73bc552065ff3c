//go:build !integration

package commerce

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"telegram-fish-shop/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// memCredentialStore is an in-memory repository.CredentialStore.
type memCredentialStore struct {
	mu     sync.Mutex
	values map[string]string
	GetErr error
	SetErr error
}

var _ repository.CredentialStore = (*memCredentialStore)(nil)

func newMemCredentialStore(seed map[string]string) *memCredentialStore {
	s := &memCredentialStore{values: map[string]string{}}
	for k, v := range seed {
		s.values[k] = v
	}
	return s
}

func (s *memCredentialStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.GetErr != nil {
		return "", false, s.GetErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memCredentialStore) Set(ctx context.Context, key, value string) error {
	if s.SetErr != nil {
		return s.SetErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// staticTokens always hands out the same token.
type staticTokens string

func (s staticTokens) GetToken(ctx context.Context) (string, error) { return string(s), nil }
