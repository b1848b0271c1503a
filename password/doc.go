// Package password hashes and verifies user passwords with Argon2id.
//
// # Output format
//
// Hashes are PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Salt and key are standard base64 with padding. A fresh salt is drawn from
// crypto/rand on every call to [Hasher.Hash].
//
// [Hasher.NeedsUpgrade] reports whether a stored hash was produced with weaker
// parameters than the hasher's, so callers can re-hash after a successful login.
//
// # What this package must NOT do
//
//   - Hash one-time codes or session tokens. Those use the secret package.
//   - Log plaintext passwords.
package password
