package credential

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps every infrastructure failure reported by a [Store].
var ErrUnavailable = errors.New("credential store unavailable")

// Store persists credential records.
//
// Replace must overwrite any record for the same (subject, purpose) in one
// atomic step. Consume must look the record up with expiresAt > now as part
// of the lookup, compare candidate against the stored digest, and delete the
// record only on a match, all atomically with respect to concurrent Consume
// and Replace calls for the same key.
type Store interface {
	Replace(ctx context.Context, rec *Record, now time.Time) error
	Consume(ctx context.Context, subjectKey string, purpose Purpose, candidate string, now time.Time) (bool, error)
	DeleteExpired(ctx context.Context, purpose Purpose, now time.Time) (int, error)
}
