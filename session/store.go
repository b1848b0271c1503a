package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by a [Store] when no row exists for an id.
	ErrNotFound = errors.New("session not found")
	// ErrUnavailable wraps infrastructure failures reported by a [Store].
	ErrUnavailable = errors.New("session store unavailable")
)

// Store persists sessions keyed by id.
//
// Extend must never move expiry backwards: it stores expiresAt only when it
// is later than the stored value, and returns the expiry in effect after the
// call. Delete and DeleteAllForUser are idempotent.
type Store interface {
	Save(ctx context.Context, s *Session, now time.Time) error
	Get(ctx context.Context, id string) (*Session, error)
	Extend(ctx context.Context, id string, expiresAt, now time.Time) (time.Time, error)
	Delete(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID string) (int, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
