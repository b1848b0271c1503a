// Package goSession implements server-side sessions and one-time
// credentials for email-first authentication.
//
// Sessions are opaque: clients hold a random token and the store keys the
// session by the token's SHA-256 digest, so a leaked store cannot be replayed
// as cookies. Validation slides the expiry forward once a session is past
// its renewal point (half its lifetime by default) and deletes it lazily
// once expired.
//
// One-time credentials (sign-in codes, email verification codes, password
// reset tokens) are keyed by subject and purpose. Issuing replaces any
// previous credential atomically, verifying consumes it on success, and a
// failed attempt leaves it in place until it expires.
//
// # Wiring
//
// An [Engine] is assembled with [New] and [Builder.Build]. Every collaborator
// (Redis or Postgres stores, the user store, the mailer, the clock and the
// logger) is passed in explicitly:
//
//	engine, err := goSession.New().
//		WithConfig(cfg).
//		WithRedis(rdb).
//		WithUserProvider(users).
//		WithMailer(sender).
//		WithLogger(logger).
//		Build()
//
// HTTP integration lives in the middleware package: a CSRF origin check with
// cookie refresh for every request and a guard for routes that need a
// session.
//
// # Failure model
//
// A missing, expired or mismatched session or credential is a normal
// negative result ([Unauthenticated], false, [ErrInvalidCode]). Errors are
// reserved for infrastructure failures and always fail closed: a storage
// timeout never authenticates anyone.
package goSession
