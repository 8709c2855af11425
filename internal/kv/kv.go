// Package kv provides the key-value persistence layer the task board is
// stored in. Every value is text; callers serialize JSON themselves.
package kv

import (
	"context"
	"fmt"
)

// Store is a flat string key-value store.
//
// Get reports ok=false with a nil error when the key is absent. Absence is
// never an error.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Closer is implemented by stores holding connections or file handles.
type Closer interface {
	Close() error
}

// Backend names accepted by configuration.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendS3     = "s3"
)

// ErrUnknownBackend is returned by Open for an unrecognised backend name.
type ErrUnknownBackend struct {
	Name string
}

func (e ErrUnknownBackend) Error() string {
	return fmt.Sprintf("unknown store backend %q", e.Name)
}

// Close closes s if it holds resources.
func Close(s Store) error {
	if c, ok := s.(Closer); ok {
		return c.Close()
	}
	return nil
}
