package mail

import (
	"context"
	"errors"
	"net/mail"
	"strings"
)

// ErrInvalidAddress is returned for recipients that do not parse as a single
// bare address.
var ErrInvalidAddress = errors.New("mail: invalid address")

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to [Sender].
type SenderFunc func(ctx context.Context, msg Message) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// NormalizeAddress lowercases and trims addr and checks that it is a bare
// address with no display name.
func NormalizeAddress(addr string) (string, error) {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if addr == "" {
		return "", ErrInvalidAddress
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil || strings.ToLower(parsed.Address) != addr {
		return "", ErrInvalidAddress
	}
	return addr, nil
}
