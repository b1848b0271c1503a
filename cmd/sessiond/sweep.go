package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MrEthical07/goSession/internal/sweeper"
)

func buildSweepCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired sessions and credentials once, for external schedulers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(v)
			if err != nil {
				return err
			}
			logger, b, err := setup(cmd.Context(), s)
			if err != nil {
				return err
			}
			defer b.Close()

			engine, err := buildEngine(s, b, logger)
			if err != nil {
				return err
			}
			defer engine.Close()

			res, err := sweeper.New(engine, sweeper.Config{}, logger).Once(cmd.Context())
			logger.Info().Int("sessions", res.Sessions).Int("credentials", res.Credentials).Msg("sweep finished")
			return err
		},
	}
}
