package secret

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"io"
	"strings"
)

// SessionTokenBytes is the amount of CSPRNG output behind one session token.
const SessionTokenBytes = 20

// Common code alphabets.
const (
	Digits              = "0123456789"
	AlphanumericLower   = "abcdefghijklmnopqrstuvwxyz0123456789"
	Alphanumeric        = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	maxAlphabetSize     = 256
	rejectionBatchBytes = 32
)

var (
	// ErrInvalidLength is returned when a code length is not positive.
	ErrInvalidLength = errors.New("secret: code length must be > 0")
	// ErrInvalidAlphabet is returned for alphabets that are empty, larger than
	// 256 symbols or contain duplicate bytes.
	ErrInvalidAlphabet = errors.New("secret: alphabet must hold 1..256 distinct bytes")
)

var tokenEncoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// Reader is the entropy source. Tests may replace it; production code must not.
var Reader io.Reader = rand.Reader

// GenerateSessionToken returns 20 random bytes encoded as lowercase,
// unpadded base32 (32 characters).
func GenerateSessionToken() (string, error) {
	buf := make([]byte, SessionTokenBytes)
	if _, err := io.ReadFull(Reader, buf); err != nil {
		return "", err
	}
	return tokenEncoding.EncodeToString(buf), nil
}

// GenerateCode returns length symbols drawn uniformly from alphabet.
//
// Random bytes at or above the largest multiple of len(alphabet) are discarded
// so that every symbol has equal probability.
func GenerateCode(length int, alphabet string) (string, error) {
	if length <= 0 {
		return "", ErrInvalidLength
	}
	if err := ValidateAlphabet(alphabet); err != nil {
		return "", err
	}

	size := len(alphabet)
	limit := maxAlphabetSize - (maxAlphabetSize % size)

	var out strings.Builder
	out.Grow(length)

	buf := make([]byte, rejectionBatchBytes)
	for out.Len() < length {
		if _, err := io.ReadFull(Reader, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out.WriteByte(alphabet[int(b)%size])
			if out.Len() == length {
				break
			}
		}
	}

	return out.String(), nil
}

// ValidateAlphabet reports whether alphabet can be used with [GenerateCode].
func ValidateAlphabet(alphabet string) error {
	if len(alphabet) == 0 || len(alphabet) > maxAlphabetSize {
		return ErrInvalidAlphabet
	}
	var seen [256]bool
	for i := 0; i < len(alphabet); i++ {
		if seen[alphabet[i]] {
			return ErrInvalidAlphabet
		}
		seen[alphabet[i]] = true
	}
	return nil
}
