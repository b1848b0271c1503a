package goSession

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/session"
)

// Clock supplies the current time. Engines use it for every expiry decision.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Session is a stored login. Its ID is the digest of the client's token.
type Session = session.Session

// SessionMetadata is optional client information recorded with a session.
type SessionMetadata = session.Metadata

// Purpose identifies a one-time credential family.
type Purpose = credential.Purpose

const (
	AnyPurpose               = credential.AnyPurpose
	PurposeSignInCode        = credential.PurposeSignInCode
	PurposeEmailVerification = credential.PurposeEmailVerification
	PurposePasswordReset     = credential.PurposePasswordReset
)

// User is the slice of an application user the engine needs.
type User struct {
	ID            string
	Email         string
	EmailVerified bool
	// PasswordHash is an argon2id PHC string, empty when the user has no
	// password.
	PasswordHash string
}

// UserLookup selects a user. It is one of [LookupByID], [LookupByEmail] or
// [LookupByProviderID].
type UserLookup interface {
	isUserLookup()
}

// LookupByID selects a user by primary key.
type LookupByID struct{ ID string }

// LookupByEmail selects a user by normalized email address.
type LookupByEmail struct{ Email string }

// LookupByProviderID selects a user linked to an external identity.
type LookupByProviderID struct {
	Provider       string
	ProviderUserID string
}

func (LookupByID) isUserLookup()         {}
func (LookupByEmail) isUserLookup()      {}
func (LookupByProviderID) isUserLookup() {}

// UserProvider is the application's user store.
//
// GetUser must return ErrUserNotFound (possibly wrapped) when no user
// matches; any other error is treated as a storage failure.
type UserProvider interface {
	GetUser(ctx context.Context, lookup UserLookup) (User, error)
	SetPasswordHash(ctx context.Context, userID, hash string) error
	MarkEmailVerified(ctx context.Context, userID string) error
}

// AuthResult is the outcome of session validation: [Authenticated] or
// [Unauthenticated].
type AuthResult interface {
	isAuthResult()
}

// Authenticated carries the live session and its user.
type Authenticated struct {
	Session *Session
	User    User
	// Renewed is set when validation extended the session; callers holding a
	// cookie should refresh its max-age.
	Renewed bool
}

// Unauthenticated means the token did not resolve to a live session.
type Unauthenticated struct{}

func (Authenticated) isAuthResult()   {}
func (Unauthenticated) isAuthResult() {}

// SignInResult is returned by the sign-in flows.
type SignInResult struct {
	Token   string
	Session *Session
	User    User
}
