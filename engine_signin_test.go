package goSession

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/password"
)

func TestSignInWithCodeSingleUse(t *testing.T) {
	env := newEngineTest(t, nil)
	ctx := context.Background()

	if err := env.engine.RequestSignInCode(ctx, "  Alice@Example.com "); err != nil {
		t.Fatalf("RequestSignInCode: %v", err)
	}
	code := env.mailer.lastCode(t)
	if len(code) != 6 || strings.Trim(code, "0123456789") != "" {
		t.Fatalf("expected 6-digit code, got %q", code)
	}

	res, err := env.engine.SignInWithCode(ctx, "alice@example.com", code, SessionMetadata{})
	if err != nil {
		t.Fatalf("SignInWithCode: %v", err)
	}
	if res.Token == "" || res.User.ID != "u1" {
		t.Fatalf("unexpected result: %+v", res)
	}

	if _, err := env.engine.SignInWithCode(ctx, "alice@example.com", code, SessionMetadata{}); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode on reuse, got %v", err)
	}
}

func TestSignInCodeMarksEmailVerified(t *testing.T) {
	env := newEngineTest(t, nil)
	ctx := context.Background()

	if err := env.engine.RequestSignInCode(ctx, "bob@example.com"); err != nil {
		t.Fatalf("RequestSignInCode: %v", err)
	}
	res, err := env.engine.SignInWithCode(ctx, "bob@example.com", env.mailer.lastCode(t), SessionMetadata{})
	if err != nil {
		t.Fatalf("SignInWithCode: %v", err)
	}
	if !res.User.EmailVerified || !env.users.get("u2").EmailVerified {
		t.Fatal("expected code sign-in to verify the address")
	}
}

func TestRequestSignInCodeUnknownEmailIsSilent(t *testing.T) {
	env := newEngineTest(t, nil)

	if err := env.engine.RequestSignInCode(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("expected nil for unknown email, got %v", err)
	}
	if env.mailer.count() != 0 {
		t.Fatal("expected no email for unknown address")
	}
}

func TestRequestSignInCodeRejectsMalformedEmail(t *testing.T) {
	env := newEngineTest(t, nil)

	for _, addr := range []string{"", "not-an-email", "Alice <alice@example.com>"} {
		if err := env.engine.RequestSignInCode(context.Background(), addr); !errors.Is(err, ErrInvalidEmail) {
			t.Fatalf("%q: expected ErrInvalidEmail, got %v", addr, err)
		}
	}
}

func TestReissuedCodeInvalidatesPrevious(t *testing.T) {
	env := newEngineTest(t, nil)
	ctx := context.Background()

	if err := env.engine.RequestSignInCode(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestSignInCode: %v", err)
	}
	first := env.mailer.lastCode(t)
	if err := env.engine.RequestSignInCode(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestSignInCode: %v", err)
	}
	second := env.mailer.lastCode(t)

	if first != second {
		if _, err := env.engine.SignInWithCode(ctx, "alice@example.com", first, SessionMetadata{}); !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("expected first code rejected, got %v", err)
		}
	}
	if _, err := env.engine.SignInWithCode(ctx, "alice@example.com", second, SessionMetadata{}); err != nil {
		t.Fatalf("expected second code accepted, got %v", err)
	}
}

func TestExpiredCodeRejectedWithCorrectPlaintext(t *testing.T) {
	env := newEngineTest(t, nil)
	ctx := context.Background()

	if err := env.engine.RequestSignInCode(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestSignInCode: %v", err)
	}
	code := env.mailer.lastCode(t)

	env.clock.Advance(15 * time.Minute)
	if _, err := env.engine.SignInWithCode(ctx, "alice@example.com", code, SessionMetadata{}); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode after expiry, got %v", err)
	}
}

func TestWrongCodeKeepsCredential(t *testing.T) {
	env := newEngineTest(t, nil)
	ctx := context.Background()

	if err := env.engine.RequestSignInCode(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestSignInCode: %v", err)
	}
	code := env.mailer.lastCode(t)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	if _, err := env.engine.SignInWithCode(ctx, "alice@example.com", wrong, SessionMetadata{}); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
	if _, err := env.engine.SignInWithCode(ctx, "alice@example.com", code, SessionMetadata{}); err != nil {
		t.Fatalf("expected retry with right code to succeed, got %v", err)
	}
}

func TestCodeIsBoundToSubject(t *testing.T) {
	env := newEngineTest(t, nil)
	ctx := context.Background()

	if err := env.engine.RequestSignInCode(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestSignInCode: %v", err)
	}
	code := env.mailer.lastCode(t)

	if _, err := env.engine.SignInWithCode(ctx, "bob@example.com", code, SessionMetadata{}); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode for other subject, got %v", err)
	}
}

func TestVerifyAttemptsAreThrottled(t *testing.T) {
	env := newEngineTest(t, func(cfg *Config) {
		cfg.Throttle.VerifyLimit = 2
	})
	ctx := context.Background()

	if err := env.engine.RequestSignInCode(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestSignInCode: %v", err)
	}
	code := env.mailer.lastCode(t)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 0; i < 2; i++ {
		if _, err := env.engine.SignInWithCode(ctx, "alice@example.com", wrong, SessionMetadata{}); !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("attempt %d: expected ErrInvalidCode, got %v", i, err)
		}
	}
	if _, err := env.engine.SignInWithCode(ctx, "alice@example.com", code, SessionMetadata{}); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestIssueIsThrottledForUnknownSubjectsToo(t *testing.T) {
	env := newEngineTest(t, func(cfg *Config) {
		cfg.Throttle.IssueLimit = 1
	})
	ctx := context.Background()

	if err := env.engine.RequestSignInCode(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if err := env.engine.RequestSignInCode(ctx, "nobody@example.com"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestDeliveryFailureKeepsCredential(t *testing.T) {
	env := newEngineTest(t, nil)
	ctx := context.Background()
	env.mailer.err = errors.New("smtp: 451 try later")

	err := env.engine.RequestSignInCode(ctx, "alice@example.com")
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}

	if _, err := env.engine.SignInWithCode(ctx, "alice@example.com", env.mailer.lastCode(t), SessionMetadata{}); err != nil {
		t.Fatalf("expected stored code to remain valid, got %v", err)
	}
}

func TestConcurrentCodeSignInSingleWinner(t *testing.T) {
	env := newEngineTest(t, func(cfg *Config) {
		cfg.Throttle.Enabled = false
	})
	ctx := context.Background()

	if err := env.engine.RequestSignInCode(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestSignInCode: %v", err)
	}
	code := env.mailer.lastCode(t)

	const workers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, err := env.engine.SignInWithCode(ctx, "alice@example.com", code, SessionMetadata{}); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}

func TestSignInWithPassword(t *testing.T) {
	env := newEngineTest(t, nil)
	ctx := context.Background()

	res, err := env.engine.SignInWithPassword(ctx, "alice@example.com", testPassword, SessionMetadata{IPAddress: "198.51.100.7"})
	if err != nil {
		t.Fatalf("SignInWithPassword: %v", err)
	}
	if res.Session.IPAddress != "198.51.100.7" {
		t.Fatalf("expected explicit metadata, got %+v", res.Session)
	}

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{name: "wrong password", email: "alice@example.com", password: "wrong-password-123"},
		{name: "unknown email", email: "nobody@example.com", password: testPassword},
		{name: "no password set", email: "bob@example.com", password: testPassword},
		{name: "malformed email", email: "alice", password: testPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.engine.SignInWithPassword(ctx, tc.email, tc.password, SessionMetadata{}); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestSignInWithPasswordUpgradesWeakHash(t *testing.T) {
	weak, err := password.NewHasher(password.Params{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	hash, err := weak.Hash(testPassword)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	env := newEngineTest(t, func(cfg *Config) {
		cfg.Password.Time = 2
	}, User{ID: "u9", Email: "carol@example.com", PasswordHash: hash})

	if _, err := env.engine.SignInWithPassword(context.Background(), "carol@example.com", testPassword, SessionMetadata{}); err != nil {
		t.Fatalf("SignInWithPassword: %v", err)
	}

	upgraded := env.users.get("u9").PasswordHash
	if upgraded == hash {
		t.Fatal("expected hash to be upgraded")
	}
	if !strings.Contains(upgraded, "t=2") {
		t.Fatalf("expected t=2 in upgraded hash, got %q", upgraded)
	}
}
