package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/MrEthical07/goSession/internal/httpapi"
	"github.com/MrEthical07/goSession/internal/sweeper"
	"github.com/MrEthical07/goSession/metrics/export/prometheus"
)

func buildServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and sweep expired rows in the background",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(v)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), s)
		},
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	_ = v.BindPFlag("http.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func runServe(ctx context.Context, s settings) error {
	logger, b, err := setup(ctx, s)
	if err != nil {
		logger.Error().Err(err).Msg("startup failed")
		return err
	}
	defer b.Close()

	engine, err := buildEngine(s, b, logger)
	if err != nil {
		logger.Error().Err(err).Msg("engine build failed")
		return err
	}
	defer engine.Close()

	opts := httpapi.Options{
		Logger: logger,
		Ready:  func(r *http.Request) error { return b.ping(r.Context()) },
	}
	if s.Metrics {
		opts.Metrics = prometheus.NewPrometheusExporter(engine).Handler()
	}

	srv := &http.Server{
		Addr:              s.HTTP.Addr,
		Handler:           httpapi.NewRouter(engine, opts),
		ReadHeaderTimeout: 5 * time.Second,
	}
	sw := sweeper.New(engine, sweeper.Config{
		Interval:   s.Sweep.Interval,
		MaxBackoff: s.Sweep.MaxBackoff,
	}, logger)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		if err := sw.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.HTTP.ShutdownTimeout)
		defer cancel()
		logger.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}
