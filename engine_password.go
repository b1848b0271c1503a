package goSession

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/goSession/password"
)

// HashPassword applies the length policy and returns an argon2id PHC hash.
// Policy violations return ErrPasswordPolicy.
func (e *Engine) HashPassword(plaintext string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}

	hash, err := e.passwords.Hash(plaintext)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) || errors.Is(err, password.ErrTooLong) {
			return "", fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
		}
		return "", err
	}
	return hash, nil
}

// VerifyPassword reports whether plaintext matches the stored hash.
func (e *Engine) VerifyPassword(hash, plaintext string) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	return e.passwords.Verify(plaintext, hash)
}
