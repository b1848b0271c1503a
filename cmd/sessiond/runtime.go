package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/memusers"
	"github.com/MrEthical07/goSession/mail"
	"github.com/MrEthical07/goSession/pgstore"
)

func newLogger(s settings, out io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(s.Log.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log.level: %w", err)
	}
	if s.Log.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "sessiond").Logger(), nil
}

// backends holds the storage connections a command opened.
type backends struct {
	redis    redis.UniversalClient
	postgres *pgstore.Store
}

func (b *backends) Close() {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.postgres != nil {
		b.postgres.Close()
	}
}

// ping checks every opened backend once.
func (b *backends) ping(ctx context.Context) error {
	var errs []error
	if b.redis != nil {
		if err := b.redis.Ping(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if b.postgres != nil {
		if err := b.postgres.Pool().Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	return errors.Join(errs...)
}

// openBackends connects to the configured stores, retrying with exponential
// backoff until storage.startup_timeout elapses.
func openBackends(ctx context.Context, s settings, logger zerolog.Logger) (*backends, error) {
	b := &backends{}
	if s.Storage.RedisAddr != "" {
		b.redis = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{s.Storage.RedisAddr},
			Password: s.Storage.RedisPassword,
			DB:       s.Storage.RedisDB,
		})
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = s.Storage.StartupTimeout
	err := backoff.RetryNotify(
		func() error {
			if s.Storage.PostgresDSN != "" && b.postgres == nil {
				pg, err := pgstore.Open(ctx, s.Storage.PostgresDSN)
				if err != nil {
					return err
				}
				b.postgres = pg
			}
			return b.ping(ctx)
		},
		backoff.WithContext(bo, ctx),
		func(err error, next time.Duration) {
			logger.Warn().Err(err).Dur("next", next).Msg("storage not ready, retrying")
		},
	)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return b, nil
}

func buildEngine(s settings, b *backends, logger zerolog.Logger) (*goSession.Engine, error) {
	builder := goSession.New().
		WithConfig(s.engineConfig()).
		WithLogger(logger).
		WithAuditSink(goSession.NewZerologSink(logger.With().Str("component", "audit").Logger()))

	if b.redis != nil {
		builder = builder.WithRedis(b.redis)
	}
	if s.Storage.Backend == "postgres" {
		builder = builder.
			WithSessionStore(b.postgres.Sessions()).
			WithCredentialStore(b.postgres.Credentials())
	}

	if b.postgres != nil {
		builder = builder.WithUserProvider(b.postgres)
	} else {
		logger.Warn().Msg("no postgres configured, users are kept in memory")
		builder = builder.WithUserProvider(memusers.New())
	}

	if s.SMTP.Host != "" {
		sender, err := mail.NewSMTPSender(mail.SMTPConfig{
			Host:     s.SMTP.Host,
			Port:     s.SMTP.Port,
			Username: s.SMTP.Username,
			Password: s.SMTP.Password,
			From:     s.SMTP.From,
		})
		if err != nil {
			return nil, err
		}
		builder = builder.WithMailer(sender)
	}

	return builder.Build()
}

// setup loads settings and opens everything a command needs.
func setup(ctx context.Context, s settings) (zerolog.Logger, *backends, error) {
	logger, err := newLogger(s, os.Stderr)
	if err != nil {
		return logger, nil, err
	}
	b, err := openBackends(ctx, s, logger)
	if err != nil {
		return logger, nil, err
	}
	return logger, b, nil
}
