package goSession

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/mail"
	"github.com/MrEthical07/goSession/password"
	"github.com/MrEthical07/goSession/session"
)

// Engine ties sessions, one-time credentials and the sign-in flows built on
// them to the application's user store and mailer.
//
// An Engine is built once with [Builder.Build] and is safe for concurrent
// use. It holds no per-request state.
type Engine struct {
	config      Config
	clock       Clock
	logger      zerolog.Logger
	sessions    *session.Manager
	credentials *credential.Manager
	limiter     *rate.Limiter
	users       UserProvider
	mailer      mail.Sender
	templates   *mail.Templates
	passwords   *password.Hasher
	audit       *audit.Dispatcher
	metrics     *Metrics
	closed      atomic.Bool
}

// Close stops the audit relay, flushing buffered events. Calls after the
// first are no-ops; operations on a closed engine return [ErrEngineClosed].
func (e *Engine) Close() {
	if e == nil || !e.closed.CompareAndSwap(false, true) {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// relay buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Config returns a copy of the validated configuration.
func (e *Engine) Config() Config {
	return e.config
}

// CookieConfig returns the session cookie attributes.
func (e *Engine) CookieConfig() CookieConfig {
	return e.config.Cookie
}

// SessionLifetime is the lifetime applied on creation and renewal. Cookie
// max-age uses the same value.
func (e *Engine) SessionLifetime() time.Duration {
	return e.sessions.Lifetime()
}

// Logger returns the engine logger.
func (e *Engine) Logger() zerolog.Logger {
	return e.logger
}

func (e *Engine) now() time.Time {
	return e.clock.Now().UTC()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricAdd(id MetricID, n int) {
	if e == nil || e.metrics == nil || n <= 0 {
		return
	}
	e.metrics.Add(id, uint64(n))
}

func (e *Engine) ready() error {
	if e == nil {
		return ErrEngineClosed
	}
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return nil
}

// storageContext bounds one store call by Storage.OperationTimeout.
func (e *Engine) storageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, e.config.Storage.OperationTimeout)
}

// storageError maps store failures to ErrStorageUnavailable. Errors that
// already carry an engine sentinel pass through.
func (e *Engine) storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	e.metricInc(MetricStorageFailure)
	e.logger.Warn().Err(err).Str("op", op).Msg("storage call failed")
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

// lookupUser resolves lookup through the user provider. A missing user is
// reported as ErrUserNotFound; any other failure as ErrStorageUnavailable.
func (e *Engine) lookupUser(ctx context.Context, lookup UserLookup) (User, error) {
	switch l := lookup.(type) {
	case LookupByID:
		if l.ID == "" {
			return User{}, ErrUserNotFound
		}
	case LookupByEmail:
		if l.Email == "" {
			return User{}, ErrUserNotFound
		}
	case LookupByProviderID:
		if l.Provider == "" || l.ProviderUserID == "" {
			return User{}, ErrUserNotFound
		}
	default:
		return User{}, fmt.Errorf("goSession: unsupported user lookup %T", lookup)
	}

	sctx, cancel := e.storageContext(ctx)
	defer cancel()

	user, err := e.users.GetUser(sctx, lookup)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, e.storageError("get_user", err)
	}
	return user, nil
}
