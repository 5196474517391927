package storage

import (
	"context"
	"errors"
	"fmt"
)

var ErrKeyNotFound = errors.New("key not found")

// Store is the durable key-value primitive persistent fields are written to.
// Values are opaque bytes; callers own the encoding.
type Store interface {
	// Get returns ErrKeyNotFound when the key was never written or was deleted.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete of an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists every key starting with prefix, in no particular order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// DeletePrefix removes every key under prefix and returns how many were removed.
func DeletePrefix(ctx context.Context, s Store, prefix string) (int, error) {
	keys, err := s.Keys(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list keys: %w", err)
	}
	for i, key := range keys {
		if err := s.Delete(ctx, key); err != nil {
			return i, fmt.Errorf("failed to delete %q: %w", key, err)
		}
	}
	return len(keys), nil
}
