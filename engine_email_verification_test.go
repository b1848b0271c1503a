package goSession

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestEmailVerificationFlow(t *testing.T) {
	env := newEngineTest(t, nil)
	ctx := context.Background()

	if err := env.engine.RequestEmailVerification(ctx, "u2"); err != nil {
		t.Fatalf("RequestEmailVerification: %v", err)
	}
	code := env.mailer.lastCode(t)
	if len(code) != 8 {
		t.Fatalf("expected 8-digit code, got %q", code)
	}

	if err := env.engine.VerifyEmail(ctx, "u1", code); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected code bound to u2, got %v", err)
	}
	if err := env.engine.VerifyEmail(ctx, "u2", code); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if !env.users.get("u2").EmailVerified {
		t.Fatal("expected u2 verified")
	}
	if err := env.engine.VerifyEmail(ctx, "u2", code); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected reuse rejected, got %v", err)
	}
}

func TestEmailVerificationAlreadyVerifiedIsNoop(t *testing.T) {
	env := newEngineTest(t, nil)

	if err := env.engine.RequestEmailVerification(context.Background(), "u1"); err != nil {
		t.Fatalf("RequestEmailVerification: %v", err)
	}
	if env.mailer.count() != 0 {
		t.Fatal("expected no email for a verified user")
	}
}

func TestEmailVerificationUnknownUser(t *testing.T) {
	env := newEngineTest(t, nil)

	if err := env.engine.RequestEmailVerification(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestEmailVerificationCodeExpires(t *testing.T) {
	env := newEngineTest(t, nil)
	ctx := context.Background()

	if err := env.engine.RequestEmailVerification(ctx, "u2"); err != nil {
		t.Fatalf("RequestEmailVerification: %v", err)
	}
	code := env.mailer.lastCode(t)

	env.clock.Advance(24*time.Hour + time.Millisecond)
	if err := env.engine.VerifyEmail(ctx, "u2", code); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
}

func TestSweepExpiredCredentials(t *testing.T) {
	env := newEngineTest(t, func(cfg *Config) {
		cfg.Throttle.Enabled = false
	})
	ctx := context.Background()

	if err := env.engine.RequestSignInCode(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestSignInCode: %v", err)
	}
	if err := env.engine.RequestEmailVerification(ctx, "u2"); err != nil {
		t.Fatalf("RequestEmailVerification: %v", err)
	}

	env.clock.Advance(time.Hour)
	n, err := env.engine.SweepExpired(ctx, PurposeEmailVerification)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected nothing swept for live purpose, got %d", n)
	}

	n, err = env.engine.SweepExpired(ctx, AnyPurpose)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected the sign-in code swept, got %d", n)
	}
}
