package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/secret"
)

// Policy controls how credentials of one purpose are generated.
type Policy struct {
	TTL      time.Duration
	Length   int
	Alphabet string
}

// DefaultPolicies returns the stock lifetimes and formats: six-digit sign-in
// codes valid for 15 minutes, eight-digit email codes and 40-character reset
// tokens valid for 24 hours.
func DefaultPolicies() map[Purpose]Policy {
	return map[Purpose]Policy{
		PurposeSignInCode:        {TTL: 15 * time.Minute, Length: 6, Alphabet: secret.Digits},
		PurposeEmailVerification: {TTL: 24 * time.Hour, Length: 8, Alphabet: secret.Digits},
		PurposePasswordReset:     {TTL: 24 * time.Hour, Length: 40, Alphabet: secret.AlphanumericLower},
	}
}

var (
	// ErrUnknownPurpose is returned for purposes without a policy.
	ErrUnknownPurpose = errors.New("credential: unknown purpose")
	// ErrEmptySubject is returned when the subject key is empty.
	ErrEmptySubject = errors.New("credential: empty subject key")
)

// Manager issues and verifies credentials against a [Store].
type Manager struct {
	store    Store
	now      func() time.Time
	policies map[Purpose]Policy
}

// NewManager returns a Manager. now defaults to time.Now.
func NewManager(store Store, now func() time.Time, policies map[Purpose]Policy) (*Manager, error) {
	if store == nil {
		return nil, errors.New("credential: nil store")
	}
	if now == nil {
		now = time.Now
	}
	copied := make(map[Purpose]Policy, len(policies))
	for p, pol := range policies {
		if !p.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPurpose, p)
		}
		if pol.TTL <= 0 {
			return nil, fmt.Errorf("credential: %s ttl must be > 0", p)
		}
		if pol.Length <= 0 || pol.Alphabet == "" {
			return nil, fmt.Errorf("credential: %s needs a length and alphabet", p)
		}
		copied[p] = pol
	}
	return &Manager{store: store, now: now, policies: copied}, nil
}

// Policy returns the policy for purpose.
func (m *Manager) Policy(purpose Purpose) (Policy, bool) {
	pol, ok := m.policies[purpose]
	return pol, ok
}

// Issue generates a credential for (subjectKey, purpose), replaces any
// previous one, and returns the plaintext. The plaintext is never stored.
func (m *Manager) Issue(ctx context.Context, subjectKey string, purpose Purpose) (string, *Record, error) {
	if subjectKey == "" {
		return "", nil, ErrEmptySubject
	}
	pol, ok := m.policies[purpose]
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrUnknownPurpose, purpose)
	}

	plaintext, err := secret.GenerateCode(pol.Length, pol.Alphabet)
	if err != nil {
		return "", nil, err
	}

	now := m.clock()
	rec := &Record{
		SubjectKey: subjectKey,
		Purpose:    purpose,
		Hash:       secret.HashSecret(plaintext),
		CreatedAt:  now,
		ExpiresAt:  now.Add(pol.TTL),
	}
	if err := m.store.Replace(ctx, rec, now); err != nil {
		return "", nil, err
	}

	return plaintext, rec, nil
}

// Verify consumes the credential for (subjectKey, purpose) if candidate
// matches and it has not expired. Any mismatch or absence yields false with
// a nil error; only storage failures are errors.
func (m *Manager) Verify(ctx context.Context, subjectKey string, purpose Purpose, candidate string) (bool, error) {
	if subjectKey == "" || candidate == "" {
		return false, nil
	}
	if _, ok := m.policies[purpose]; !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownPurpose, purpose)
	}
	return m.store.Consume(ctx, subjectKey, purpose, candidate, m.clock())
}

// SweepExpired deletes records of purpose whose expiry is at or before now.
// [AnyPurpose] sweeps every purpose.
func (m *Manager) SweepExpired(ctx context.Context, purpose Purpose) (int, error) {
	if purpose != AnyPurpose && !purpose.Valid() {
		return 0, fmt.Errorf("%w: %s", ErrUnknownPurpose, purpose)
	}
	return m.store.DeleteExpired(ctx, purpose, m.clock())
}

func (m *Manager) clock() time.Time {
	return m.now().UTC().Truncate(time.Millisecond)
}
