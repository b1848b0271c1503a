package goSession

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/password"
	"github.com/MrEthical07/goSession/secret"
)

// Config is the full engine configuration. Start from [DefaultConfig] and
// override fields; [Builder.Build] validates it.
type Config struct {
	Session           SessionConfig
	Cookie            CookieConfig
	SignInCode        CredentialConfig
	EmailVerification CredentialConfig
	PasswordReset     CredentialConfig
	Throttle          ThrottleConfig
	Password          PasswordConfig
	Mail              MailConfig
	Audit             AuditConfig
	Metrics           MetricsConfig
	Security          SecurityConfig
	Storage           StorageConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session lifetime and sliding renewal.
type SessionConfig struct {
	Lifetime time.Duration
	// RenewBefore is the window before expiry in which validation extends a
	// session to now + Lifetime. Zero means Lifetime/2.
	RenewBefore time.Duration
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig controls the session cookie. HttpOnly is always set and
// Max-Age always equals the session lifetime.
type CookieConfig struct {
	Name     string
	Domain   string
	Path     string
	Secure   bool
	SameSite http.SameSite
}

/*
====================================
CREDENTIAL CONFIG
====================================
*/

// CredentialConfig controls one credential purpose.
type CredentialConfig struct {
	TTL      time.Duration
	Length   int
	Alphabet string
}

// ThrottleConfig bounds issuance and verification attempts per subject.
// It is only enforced when the engine has a Redis client.
type ThrottleConfig struct {
	Enabled      bool
	IssueLimit   int
	IssueWindow  time.Duration
	VerifyLimit  int
	VerifyWindow time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds argon2id parameters and the length policy.
type PasswordConfig struct {
	Memory         uint32
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	MinLength      int
	UpgradeOnLogin bool
}

/*
====================================
MAIL CONFIG
====================================
*/

// MailConfig controls credential emails.
type MailConfig struct {
	AppName string
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit relay.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
SECURITY / STORAGE CONFIG
====================================
*/

// SecurityConfig holds deployment-wide hardening switches.
type SecurityConfig struct {
	// ProductionMode tightens validation: secure cookies, a real mailer and
	// throttling are required.
	ProductionMode bool
}

// StorageConfig controls store access.
type StorageConfig struct {
	// OperationTimeout bounds every store call. A timeout fails closed.
	OperationTimeout      time.Duration
	SessionRedisPrefix    string
	CredentialRedisPrefix string
	ThrottleRedisPrefix   string
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the stock configuration: 30-day sessions renewed
// past half-life, six-digit sign-in codes valid for 15 minutes, and 24-hour
// email verification codes and reset tokens.
func DefaultConfig() Config {
	policies := credential.DefaultPolicies()
	fromPolicy := func(p credential.Purpose) CredentialConfig {
		pol := policies[p]
		return CredentialConfig{TTL: pol.TTL, Length: pol.Length, Alphabet: pol.Alphabet}
	}
	params := password.DefaultParams()

	return Config{
		Session: SessionConfig{
			Lifetime: 30 * 24 * time.Hour,
		},
		Cookie: CookieConfig{
			Name:     "session",
			Path:     "/",
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		},
		SignInCode:        fromPolicy(credential.PurposeSignInCode),
		EmailVerification: fromPolicy(credential.PurposeEmailVerification),
		PasswordReset:     fromPolicy(credential.PurposePasswordReset),
		Throttle: ThrottleConfig{
			Enabled:      true,
			IssueLimit:   5,
			IssueWindow:  15 * time.Minute,
			VerifyLimit:  10,
			VerifyWindow: 15 * time.Minute,
		},
		Password: PasswordConfig{
			Memory:         params.Memory,
			Time:           params.Time,
			Parallelism:    params.Parallelism,
			SaltLength:     params.SaltLength,
			KeyLength:      params.KeyLength,
			MinLength:      params.MinLength,
			UpgradeOnLogin: true,
		},
		Mail: MailConfig{
			AppName: "goSession",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Storage: StorageConfig{
			OperationTimeout:      2 * time.Second,
			SessionRedisPrefix:    "gs",
			CredentialRedisPrefix: "gc",
			ThrottleRedisPrefix:   "grl",
		},
	}
}

/*
====================================
VALIDATION
====================================
*/

// productionMinPasswordMemory is the argon2id memory floor, in KiB, enforced
// in ProductionMode.
const productionMinPasswordMemory = 19 * 1024

// Validate checks c for internal consistency.
func (c *Config) Validate() error {
	// Session
	if c.Session.Lifetime <= 0 {
		return errors.New("Session Lifetime must be > 0")
	}
	if c.Session.RenewBefore < 0 || c.Session.RenewBefore > c.Session.Lifetime {
		return errors.New("Session RenewBefore must be within [0, Lifetime]")
	}

	// Cookie
	if c.Cookie.Name == "" {
		return errors.New("Cookie Name must be set")
	}
	if c.Cookie.Path == "" {
		return errors.New("Cookie Path must be set")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		return errors.New("Cookie SameSite=None requires Secure")
	}

	// Credentials
	for name, cc := range map[string]CredentialConfig{
		"SignInCode":        c.SignInCode,
		"EmailVerification": c.EmailVerification,
		"PasswordReset":     c.PasswordReset,
	} {
		if err := cc.validate(name); err != nil {
			return err
		}
	}

	// Throttle
	if c.Throttle.Enabled {
		if c.Throttle.IssueLimit <= 0 || c.Throttle.IssueWindow <= 0 {
			return errors.New("Throttle IssueLimit and IssueWindow must be > 0")
		}
		if c.Throttle.VerifyLimit <= 0 || c.Throttle.VerifyWindow <= 0 {
			return errors.New("Throttle VerifyLimit and VerifyWindow must be > 0")
		}
	}

	// Password
	if err := c.passwordParams().Validate(); err != nil {
		return fmt.Errorf("Password: %w", err)
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	// Storage
	if c.Storage.OperationTimeout <= 0 {
		return errors.New("Storage OperationTimeout must be > 0")
	}

	if c.Security.ProductionMode {
		if !c.Cookie.Secure {
			return errors.New("ProductionMode requires Cookie Secure")
		}
		if c.SignInCode.TTL > 15*time.Minute {
			return errors.New("ProductionMode requires SignInCode TTL <= 15m")
		}
		if c.SignInCode.Length < 6 {
			return errors.New("ProductionMode requires SignInCode Length >= 6")
		}
		if !c.Throttle.Enabled {
			return errors.New("ProductionMode requires Throttle")
		}
		if c.Password.Memory < productionMinPasswordMemory {
			return fmt.Errorf("ProductionMode requires Password Memory >= %d KiB", productionMinPasswordMemory)
		}
	}

	return nil
}

func (cc CredentialConfig) validate(name string) error {
	if cc.TTL <= 0 {
		return fmt.Errorf("%s TTL must be > 0", name)
	}
	if cc.Length < 4 {
		return fmt.Errorf("%s Length must be >= 4", name)
	}
	if err := secret.ValidateAlphabet(cc.Alphabet); err != nil {
		return fmt.Errorf("%s Alphabet: %w", name, err)
	}
	if len(cc.Alphabet) < 2 {
		return fmt.Errorf("%s Alphabet must hold at least 2 symbols", name)
	}
	return nil
}

func (c *Config) passwordParams() password.Params {
	return password.Params{
		Memory:      c.Password.Memory,
		Time:        c.Password.Time,
		Parallelism: c.Password.Parallelism,
		SaltLength:  c.Password.SaltLength,
		KeyLength:   c.Password.KeyLength,
		MinLength:   c.Password.MinLength,
	}
}

func (c *Config) credentialPolicies() map[credential.Purpose]credential.Policy {
	toPolicy := func(cc CredentialConfig) credential.Policy {
		return credential.Policy{TTL: cc.TTL, Length: cc.Length, Alphabet: cc.Alphabet}
	}
	return map[credential.Purpose]credential.Policy{
		credential.PurposeSignInCode:        toPolicy(c.SignInCode),
		credential.PurposeEmailVerification: toPolicy(c.EmailVerification),
		credential.PurposePasswordReset:     toPolicy(c.PasswordReset),
	}
}
