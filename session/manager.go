package session

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/secret"
)

// DefaultLifetime is the stock session lifetime.
const DefaultLifetime = 30 * 24 * time.Hour

// Config controls session lifetime and renewal.
type Config struct {
	Lifetime time.Duration
	// RenewBefore is how close to expiry a session must be before validation
	// extends it. Zero means Lifetime/2.
	RenewBefore time.Duration
}

// Validation outcome for one token.
type Validation struct {
	// Session is nil when the token does not resolve to a live session.
	Session *Session
	Renewed bool
	// Expired is set when a stored row was found past expiry and removed.
	Expired bool
}

// Manager implements the session lifecycle on top of a [Store].
type Manager struct {
	store       Store
	now         func() time.Time
	lifetime    time.Duration
	renewBefore time.Duration
}

// NewManager returns a Manager. now defaults to time.Now.
func NewManager(store Store, now func() time.Time, cfg Config) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session: nil store")
	}
	if cfg.Lifetime <= 0 {
		return nil, errors.New("session: lifetime must be > 0")
	}
	if cfg.RenewBefore < 0 || cfg.RenewBefore > cfg.Lifetime {
		return nil, errors.New("session: renew window must be within lifetime")
	}
	if cfg.RenewBefore == 0 {
		cfg.RenewBefore = cfg.Lifetime / 2
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{
		store:       store,
		now:         now,
		lifetime:    cfg.Lifetime,
		renewBefore: cfg.RenewBefore,
	}, nil
}

// Lifetime returns the configured session lifetime.
func (m *Manager) Lifetime() time.Duration {
	return m.lifetime
}

// Create issues a token for userID and persists its session. The token is
// returned to the caller and never stored.
func (m *Manager) Create(ctx context.Context, userID string, meta Metadata) (string, *Session, error) {
	if userID == "" {
		return "", nil, errors.New("session: empty user id")
	}

	token, err := secret.GenerateSessionToken()
	if err != nil {
		return "", nil, err
	}

	now := m.clock()
	sess := &Session{
		ID:        secret.HashSecret(token),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.lifetime),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}
	if err := m.store.Save(ctx, sess, now); err != nil {
		return "", nil, err
	}
	return token, sess, nil
}

// Validate resolves token to a live session, deleting it if expired and
// extending it once inside the renewal window. An unknown token is not an
// error.
func (m *Manager) Validate(ctx context.Context, token string) (Validation, error) {
	if token == "" {
		return Validation{}, nil
	}
	id := secret.HashSecret(token)

	sess, err := m.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Validation{}, nil
		}
		return Validation{}, err
	}

	now := m.clock()
	if sess.ExpiredAt(now) {
		if err := m.store.Delete(ctx, id); err != nil {
			return Validation{}, err
		}
		return Validation{Expired: true}, nil
	}

	if !now.Before(sess.ExpiresAt.Add(-m.renewBefore)) {
		next, err := m.store.Extend(ctx, id, now.Add(m.lifetime), now)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return Validation{}, nil
			}
			return Validation{}, err
		}
		renewed := next.After(sess.ExpiresAt)
		sess.ExpiresAt = next
		return Validation{Session: sess, Renewed: renewed}, nil
	}

	return Validation{Session: sess}, nil
}

// Invalidate deletes the session with the given id.
func (m *Manager) Invalidate(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}

// InvalidateToken deletes the session a token refers to.
func (m *Manager) InvalidateToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.store.Delete(ctx, secret.HashSecret(token))
}

// InvalidateAllForUser deletes every session of userID.
func (m *Manager) InvalidateAllForUser(ctx context.Context, userID string) (int, error) {
	return m.store.DeleteAllForUser(ctx, userID)
}

// SweepExpired removes every session expired at the current time.
func (m *Manager) SweepExpired(ctx context.Context) (int, error) {
	return m.store.DeleteExpired(ctx, m.clock())
}

func (m *Manager) clock() time.Time {
	return m.now().UTC().Truncate(time.Millisecond)
}
