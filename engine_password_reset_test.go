package goSession

import (
	"context"
	"errors"
	"testing"
)

func TestPasswordResetInvalidatesEverySession(t *testing.T) {
	env := newEngineTest(t, nil)
	ctx := context.Background()

	stolen, _, err := env.engine.CreateSession(ctx, "u1", SessionMetadata{})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, _, err := env.engine.CreateSession(ctx, "u1", SessionMetadata{}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if err := env.engine.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	token := env.mailer.lastCode(t)
	if len(token) != 40 {
		t.Fatalf("expected 40-character reset token, got %d", len(token))
	}

	res, err := env.engine.ResetPassword(ctx, "alice@example.com", token, "brand-new-password", SessionMetadata{})
	if err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	got, err := env.engine.ValidateSessionToken(ctx, stolen)
	if err != nil {
		t.Fatalf("ValidateSessionToken: %v", err)
	}
	if _, ok := got.(Unauthenticated); !ok {
		t.Fatal("expected old session to be invalidated")
	}

	got, err = env.engine.ValidateSessionToken(ctx, res.Token)
	if err != nil {
		t.Fatalf("ValidateSessionToken: %v", err)
	}
	mustAuthenticated(t, got)

	if _, err := env.engine.SignInWithPassword(ctx, "alice@example.com", testPassword, SessionMetadata{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password rejected, got %v", err)
	}
	if _, err := env.engine.SignInWithPassword(ctx, "alice@example.com", "brand-new-password", SessionMetadata{}); err != nil {
		t.Fatalf("expected new password accepted, got %v", err)
	}

	if _, err := env.engine.ResetPassword(ctx, "alice@example.com", token, "another-password", SessionMetadata{}); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected reused token rejected, got %v", err)
	}
}

func TestPasswordResetPolicyFailureKeepsToken(t *testing.T) {
	env := newEngineTest(t, nil)
	ctx := context.Background()

	if err := env.engine.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	token := env.mailer.lastCode(t)

	if _, err := env.engine.ResetPassword(ctx, "alice@example.com", token, "short", SessionMetadata{}); !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("expected ErrPasswordPolicy, got %v", err)
	}
	if _, err := env.engine.ResetPassword(ctx, "alice@example.com", token, "long-enough-password", SessionMetadata{}); err != nil {
		t.Fatalf("expected token still usable, got %v", err)
	}
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	env := newEngineTest(t, nil)
	ctx := context.Background()

	if err := env.engine.RequestPasswordReset(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if env.mailer.count() != 0 {
		t.Fatal("expected no email")
	}
	if _, err := env.engine.ResetPassword(ctx, "nobody@example.com", "guess", "long-enough-password", SessionMetadata{}); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
}

func TestPasswordResetStorageFailure(t *testing.T) {
	env := newEngineTest(t, nil)
	ctx := context.Background()

	if err := env.engine.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	token := env.mailer.lastCode(t)
	env.users.setErr = errors.New("deadlock detected")

	if _, err := env.engine.ResetPassword(ctx, "alice@example.com", token, "long-enough-password", SessionMetadata{}); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}
