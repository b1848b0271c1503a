package main

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func buildMigrateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the postgres schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(v)
			if err != nil {
				return err
			}
			if s.Storage.PostgresDSN == "" {
				return errors.New("migrate requires storage.postgres_dsn")
			}
			logger, b, err := setup(cmd.Context(), s)
			if err != nil {
				return err
			}
			defer b.Close()

			version, err := b.postgres.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			logger.Info().Int("version", version).Msg("schema up to date")
			return nil
		},
	}
}
