package redis

import (
	"context"
	"errors"

	"telegram-fish-shop/internal/domain/ports/repository"
)

var _ repository.CredentialStore = (*CredentialStore)(nil)

// CredentialStore holds shared secrets such as the commerce access token so
// that every replica reuses one exchange.
type CredentialStore struct {
	client RedisClient
}

func NewCredentialStore(client RedisClient) *CredentialStore {
	return &CredentialStore{client: client}
}

func (s *CredentialStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, key)
	if errors.Is(err, Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *CredentialStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, 0)
}
