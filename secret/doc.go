// Package secret generates and hashes the short-lived secrets handed to users:
// session tokens, sign-in codes, email-verification codes and password-reset
// tokens.
//
// # Hashing
//
// Every secret in this package is hashed with a single unsalted SHA-256 pass
// rendered as lowercase hex. The values are high-entropy and short-lived, so a
// fast hash is sufficient and keeps lookups cheap. Passwords never go through
// this package; see the password package.
//
// # What this package must NOT do
//
//   - Persist anything. Callers own storage of digests.
//   - Fall back to a non-cryptographic random source.
package secret
