// Package sweeper periodically removes expired sessions and one-time
// credentials. Failed passes are retried with exponential backoff instead of
// waiting a full interval.
package sweeper

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/MrEthical07/goSession/credential"
)

// Target is the subset of the engine a Sweeper drives.
type Target interface {
	SweepExpiredSessions(ctx context.Context) (int, error)
	SweepExpired(ctx context.Context, purpose credential.Purpose) (int, error)
}

// Config controls pacing.
type Config struct {
	Interval   time.Duration
	MaxBackoff time.Duration
}

// Result counts rows removed by one pass.
type Result struct {
	Sessions    int
	Credentials int
}

// Sweeper runs sweep passes against a Target.
type Sweeper struct {
	target Target
	cfg    Config
	logger zerolog.Logger
	after  func(time.Duration) <-chan time.Time
}

// New returns a Sweeper. Zero durations default to one minute between passes
// and a five minute backoff cap.
func New(target Target, cfg Config, logger zerolog.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Minute
	}
	return &Sweeper{
		target: target,
		cfg:    cfg,
		logger: logger.With().Str("component", "sweeper").Logger(),
		after:  time.After,
	}
}

// Once runs a single pass. Both sweeps run even if the first fails; the
// returned error joins their failures.
func (s *Sweeper) Once(ctx context.Context) (Result, error) {
	var res Result
	var errs []error

	n, err := s.target.SweepExpiredSessions(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	res.Sessions = n

	n, err = s.target.SweepExpired(ctx, credential.AnyPurpose)
	if err != nil {
		errs = append(errs, err)
	}
	res.Credentials = n

	return res, errors.Join(errs...)
}

// Run sweeps until ctx is done. It returns ctx.Err().
func (s *Sweeper) Run(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.cfg.Interval / 10
	bo.MaxInterval = s.cfg.MaxBackoff
	bo.MaxElapsedTime = 0
	bo.Reset()

	wait := s.cfg.Interval
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.after(wait):
		}

		res, err := s.Once(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			wait = bo.NextBackOff()
			s.logger.Warn().Err(err).Dur("next", wait).Msg("sweep failed")
			continue
		}

		bo.Reset()
		wait = s.cfg.Interval
		if res.Sessions > 0 || res.Credentials > 0 {
			s.logger.Info().Int("sessions", res.Sessions).Int("credentials", res.Credentials).Msg("sweep complete")
		}
	}
}
