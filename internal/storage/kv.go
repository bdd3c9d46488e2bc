package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("storage: not found")

// Entry is one stored key with its last write time.
type Entry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// KV is the persisted key/value collaborator. Writes are last-write-wins; there are no
// cross-key transactions.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]Entry, error)
}
