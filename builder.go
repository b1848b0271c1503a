package goSession

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/mail"
	"github.com/MrEthical07/goSession/password"
	"github.com/MrEthical07/goSession/session"
)

// Builder assembles an [Engine]. Every collaborator is passed in explicitly;
// a Builder can be used for exactly one Build.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	sessionStore    session.Store
	credentialStore credential.Store

	userProvider  UserProvider
	mailer        mail.Sender
	mailTemplates map[mail.Kind]string
	auditSink     AuditSink
	clock         Clock
	logger        *zerolog.Logger

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the Redis client. It backs the session and credential
// stores unless explicit stores are given, and enables throttling.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSessionStore overrides the session store.
func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.sessionStore = store
	return b
}

// WithCredentialStore overrides the one-time credential store.
func (b *Builder) WithCredentialStore(store credential.Store) *Builder {
	b.credentialStore = store
	return b
}

// WithUserProvider supplies the application's user store. Required.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithMailer supplies the credential email sender. Without one, emails are
// written to the engine logger, which ProductionMode rejects.
func (b *Builder) WithMailer(sender mail.Sender) *Builder {
	b.mailer = sender
	return b
}

// WithMailTemplates overrides individual email templates.
func (b *Builder) WithMailTemplates(overrides map[mail.Kind]string) *Builder {
	b.mailTemplates = overrides
	return b
}

// WithAuditSink sets the audit destination. Audit.Enabled must also be set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the time source.
func (b *Builder) WithClock(clock Clock) *Builder {
	b.clock = clock
	return b
}

// WithLogger sets the engine logger. The default discards everything.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = &logger
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the validation latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.userProvider == nil {
		return nil, errors.New("user provider required")
	}

	sessionStore := b.sessionStore
	credentialStore := b.credentialStore
	if sessionStore == nil || credentialStore == nil {
		if b.redis == nil {
			return nil, errors.New("redis client required when session or credential store is not set")
		}
		if sessionStore == nil {
			sessionStore = session.NewRedisStore(b.redis, cfg.Storage.SessionRedisPrefix)
		}
		if credentialStore == nil {
			credentialStore = credential.NewRedisStore(b.redis, cfg.Storage.CredentialRedisPrefix)
		}
	}

	logger := zerolog.Nop()
	if b.logger != nil {
		logger = *b.logger
	}
	logger = logger.With().Str("component", "gosession").Logger()

	if cfg.Security.ProductionMode && b.mailer == nil {
		return nil, errors.New("ProductionMode requires a mailer")
	}
	mailer := b.mailer
	if mailer == nil {
		mailer = mail.NewLogSender(logger)
	}

	clock := b.clock
	if clock == nil {
		clock = SystemClock{}
	}

	// -------- SESSIONS --------
	sessions, err := session.NewManager(sessionStore, clock.Now, session.Config{
		Lifetime:    cfg.Session.Lifetime,
		RenewBefore: cfg.Session.RenewBefore,
	})
	if err != nil {
		return nil, err
	}

	// -------- CREDENTIALS --------
	credentials, err := credential.NewManager(credentialStore, clock.Now, cfg.credentialPolicies())
	if err != nil {
		return nil, err
	}

	templates, err := mail.NewTemplates(cfg.Mail.AppName, b.mailTemplates)
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(cfg.passwordParams())
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:      cfg,
		clock:       clock,
		logger:      logger,
		sessions:    sessions,
		credentials: credentials,
		users:       b.userProvider,
		mailer:      mailer,
		templates:   templates,
		passwords:   hasher,
		metrics:     NewMetrics(cfg.Metrics),
	}

	// -------- THROTTLE --------
	if cfg.Throttle.Enabled {
		if b.redis == nil && cfg.Security.ProductionMode {
			return nil, errors.New("ProductionMode requires a redis client for throttling")
		}
		if b.redis != nil {
			engine.limiter = rate.New(b.redis, cfg.Storage.ThrottleRedisPrefix)
		} else {
			logger.Warn().Msg("throttling disabled: no redis client")
		}
	}

	// -------- AUDIT --------
	if d := audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink); d != nil {
		engine.audit = d
	}

	b.built = true

	return engine, nil
}
