package repository

import "context"

// CredentialStore is a plain string key/value store with no expiry.
// Get reports ok=false for a missing key.
type CredentialStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}
