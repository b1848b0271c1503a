package goSession

import "errors"

var (
	// ErrUnauthenticated is returned when an operation requires a live session
	// and none was presented.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCode covers every one-time credential failure: wrong, expired,
	// already used, or issued to someone else. Callers cannot tell them apart.
	ErrInvalidCode = errors.New("invalid or expired code")
	// ErrInvalidCredentials is returned by password sign-in for an unknown
	// email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRateLimited is returned when a throttle window is exhausted.
	ErrRateLimited = errors.New("rate limited")
	// ErrStorageUnavailable wraps session, credential and user-store failures.
	// It never means "not found".
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrDeliveryFailed is returned when a credential email could not be sent.
	// The credential itself was stored and remains valid.
	ErrDeliveryFailed = errors.New("email delivery failed")
	// ErrPasswordPolicy is returned when a new password is rejected by the
	// length policy.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrInvalidEmail is returned for malformed email addresses.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrUserNotFound must be returned by a UserProvider when no user matches
	// a lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrEngineClosed is returned after Close.
	ErrEngineClosed = errors.New("engine closed")
)
