// Package metadata is the key/value store of the local database. The session
// store keeps its keys here under the "session." prefix.
package metadata

import (
	"context"
)

type Repository interface {
	// Get returns (nil, nil) when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// ListPrefix returns every pair whose key starts with prefix.
	ListPrefix(ctx context.Context, prefix string) (map[string][]byte, error)
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}
