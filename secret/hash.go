package secret

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// DigestLength is the length of a digest returned by [HashSecret].
const DigestLength = sha256.Size * 2

// HashSecret returns the lowercase hex SHA-256 digest of value.
func HashSecret(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// VerifySecret reports whether candidate hashes to digest. The comparison is
// constant-time with respect to the digest contents.
func VerifySecret(digest, candidate string) bool {
	computed := HashSecret(candidate)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}
