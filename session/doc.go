// Package session creates, validates and revokes opaque server-side sessions.
//
// # Tokens and ids
//
// A client holds a random token (see secret.GenerateSessionToken). The store
// only ever sees the session id, which is the lowercase hex SHA-256 of that
// token. A leaked store therefore cannot be replayed as cookies.
//
// # Sliding expiry
//
// Sessions live for a fixed lifetime. Once a request arrives within
// RenewBefore of expiry (half the lifetime by default), expiry is pushed to
// now + lifetime. Expiry never moves backwards. Expired rows are removed
// lazily on validation and in bulk by [Manager.SweepExpired].
//
// # Binary encoding
//
// [RedisStore] keeps sessions in a compact versioned binary layout whose last
// eight bytes are the big-endian expiry in unix milliseconds, so renewals can
// patch the expiry in place from Lua.
//
// # What this package must NOT do
//
//   - Persist plaintext tokens.
//   - Resolve users or make authorization decisions. The Engine does that.
package session
