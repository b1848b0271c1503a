package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func buildRootCmd() *cobra.Command {
	v := newViper()
	var configFile string

	cmd := &cobra.Command{
		Use:          "sessiond",
		Short:        "Session and one-time credential service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return readConfigFile(v, configFile)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (yaml, toml or json)")
	flags.String("log-level", "info", "log level")
	flags.String("log-format", "json", "log format: json or console")
	flags.String("redis-addr", "", "redis address")
	flags.String("postgres-dsn", "", "postgres connection string")
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = v.BindPFlag("storage.redis_addr", flags.Lookup("redis-addr"))
	_ = v.BindPFlag("storage.postgres_dsn", flags.Lookup("postgres-dsn"))

	cmd.AddCommand(
		buildServeCmd(v),
		buildSweepCmd(v),
		buildMigrateCmd(v),
	)
	return cmd
}

func readConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	return v.ReadInConfig()
}
