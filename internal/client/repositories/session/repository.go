// Package session contains the repository for the locally persisted session
// record: a tiny string key/value table holding the bearer token and the
// identity fields derived from it.
package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("session key not found")

// Repository is the persistence contract for session key/value pairs.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Clear(ctx context.Context) error
}
