// Package credential issues and verifies one-time credentials: sign-in codes,
// email-verification codes and password-reset tokens.
//
// # Model
//
// A [Record] is keyed by (subject key, [Purpose]). At most one record exists
// per key; issuing again replaces the previous one. Only the lowercase hex
// SHA-256 digest of the plaintext is stored. A successful verification
// consumes the record, a failed one leaves it in place. A record whose
// expiry has passed is treated as absent by every lookup, whether or not a
// sweep has removed it yet.
//
// # Architecture boundaries
//
// [Manager] owns secret generation and hashing. A [Store] owns persistence and
// must make Replace and Consume atomic per key. [RedisStore] is provided here;
// a Postgres implementation lives in the pgstore package.
//
// # What this package must NOT do
//
//   - Persist plaintext secrets.
//   - Report why a verification failed. Expired, wrong and already used all
//     look the same to callers.
package credential
