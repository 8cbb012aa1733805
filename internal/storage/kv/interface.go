// internal/storage/kv/interface.go
package kv

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotExist is returned by Read when no value is stored under the key.
var ErrNotExist = errors.New("kv: key does not exist")

// Storage is a durable key-value backend. Write fully replaces any prior
// value; there is no merge and no compare-and-swap.
type Storage interface {
	// Write stores data under the given key
	Write(ctx context.Context, key string, data []byte) error

	// Read retrieves data for the given key, or ErrNotExist
	Read(ctx context.Context, key string) ([]byte, error)

	// Delete removes the value for the given key. Deleting a missing key
	// is not an error.
	Delete(ctx context.Context, key string) error
}

// Config selects and configures a backend.
type Config struct {
	Type string // "localfs", "s3" or "memory"
	Path string
	S3   S3Config
}

// New creates the backend named by cfg.Type.
func New(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "localfs":
		return NewLocalFS(cfg.Path)
	case "s3":
		return NewS3(cfg.S3)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
