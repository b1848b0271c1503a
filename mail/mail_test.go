package mail

import (
	"bytes"
	"context"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAddress(t *testing.T) {
	got, err := NormalizeAddress("  Ada@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got)

	for _, bad := range []string{"", "not an address", "Ada <ada@example.com>", "a@b.c, d@e.f"} {
		_, err := NormalizeAddress(bad)
		assert.ErrorIs(t, err, ErrInvalidAddress, bad)
	}
}

func TestTemplatesRender(t *testing.T) {
	tpl, err := NewTemplates("Acme", nil)
	require.NoError(t, err)

	msg, err := tpl.Render(KindSignInCode, Data{To: "ada@example.com", Code: "482913", ExpiresIn: 15 * time.Minute})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", msg.To)
	assert.Equal(t, "Your Acme sign-in code", msg.Subject)
	assert.Contains(t, msg.Body, "482913")
	assert.Contains(t, msg.Body, "15 minutes")

	msg, err = tpl.Render(KindPasswordReset, Data{To: "ada@example.com", Code: "tok", ExpiresIn: 24 * time.Hour})
	require.NoError(t, err)
	assert.Contains(t, msg.Body, "24 hours")

	_, err = tpl.Render(Kind("nope"), Data{})
	assert.Error(t, err)
}

func TestTemplatesOverride(t *testing.T) {
	tpl, err := NewTemplates("Acme", map[Kind]string{KindEmailVerification: "code={{.Code}}"})
	require.NoError(t, err)

	msg, err := tpl.Render(KindEmailVerification, Data{Code: "12345678"})
	require.NoError(t, err)
	assert.Equal(t, "code=12345678", msg.Body)

	_, err = NewTemplates("Acme", map[Kind]string{KindSignInCode: "{{.Code"})
	assert.Error(t, err)
}

func TestSMTPSenderComposes(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", From: "no-reply@example.com", Username: "u", Password: "p"})
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	var (
		gotAddr string
		gotTo   []string
		gotMsg  []byte
	)
	s.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		assert.Equal(t, "no-reply@example.com", from)
		return nil
	}

	err = s.Send(context.Background(), Message{To: "Ada@Example.com", Subject: "Hi\r\nBcc: x@y.z", Body: "line1\nline2"})
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"ada@example.com"}, gotTo)

	raw := string(gotMsg)
	assert.Contains(t, raw, "Subject: HiBcc: x@y.z\r\n")
	assert.NotContains(t, raw, "\r\nBcc:")
	assert.True(t, strings.HasSuffix(raw, "line1\r\nline2"))
}

func TestSMTPSenderRejectsCanceledContext(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", From: "no-reply@example.com"})
	require.NoError(t, err)
	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("must not dial")
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, Message{To: "a@example.com"}), context.Canceled)
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(zerolog.New(&buf))
	require.NoError(t, s.Send(context.Background(), Message{To: "a@example.com", Subject: "s", Body: "b"}))
	assert.Contains(t, buf.String(), `"to":"a@example.com"`)
}
