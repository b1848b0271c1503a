package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"

	goSession "github.com/MrEthical07/goSession"
)

const envPrefix = "GOSESSION"

type settings struct {
	Production bool `mapstructure:"production"`
	Metrics    bool `mapstructure:"metrics"`

	HTTP struct {
		Addr            string        `mapstructure:"addr"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"http"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Storage struct {
		// Backend selects where sessions and credentials live: redis or postgres.
		Backend          string        `mapstructure:"backend"`
		RedisAddr        string        `mapstructure:"redis_addr"`
		RedisPassword    string        `mapstructure:"redis_password"`
		RedisDB          int           `mapstructure:"redis_db"`
		PostgresDSN      string        `mapstructure:"postgres_dsn"`
		OperationTimeout time.Duration `mapstructure:"operation_timeout"`
		StartupTimeout   time.Duration `mapstructure:"startup_timeout"`
	} `mapstructure:"storage"`

	Session struct {
		Lifetime time.Duration `mapstructure:"lifetime"`
	} `mapstructure:"session"`

	Cookie struct {
		Name   string `mapstructure:"name"`
		Domain string `mapstructure:"domain"`
		Secure bool   `mapstructure:"secure"`
	} `mapstructure:"cookie"`

	SMTP struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		From     string `mapstructure:"from"`
	} `mapstructure:"smtp"`

	Sweep struct {
		Interval   time.Duration `mapstructure:"interval"`
		MaxBackoff time.Duration `mapstructure:"max_backoff"`
	} `mapstructure:"sweep"`
}

// newViper returns a viper instance with every key defaulted, so that
// GOSESSION_* environment variables resolve through AutomaticEnv.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := goSession.DefaultConfig()
	v.SetDefault("production", false)
	v.SetDefault("metrics", true)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("storage.backend", "redis")
	v.SetDefault("storage.redis_addr", "")
	v.SetDefault("storage.redis_password", "")
	v.SetDefault("storage.redis_db", 0)
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.operation_timeout", def.Storage.OperationTimeout)
	v.SetDefault("storage.startup_timeout", 30*time.Second)
	v.SetDefault("session.lifetime", def.Session.Lifetime)
	v.SetDefault("cookie.name", def.Cookie.Name)
	v.SetDefault("cookie.domain", "")
	v.SetDefault("cookie.secure", def.Cookie.Secure)
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")
	v.SetDefault("sweep.interval", time.Minute)
	v.SetDefault("sweep.max_backoff", 5*time.Minute)
	return v
}

func loadSettings(v *viper.Viper) (settings, error) {
	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("decode settings: %w", err)
	}
	switch s.Storage.Backend {
	case "redis":
		if s.Storage.RedisAddr == "" {
			return settings{}, fmt.Errorf("storage.redis_addr required for the redis backend")
		}
	case "postgres":
		if s.Storage.PostgresDSN == "" {
			return settings{}, fmt.Errorf("storage.postgres_dsn required for the postgres backend")
		}
	default:
		return settings{}, fmt.Errorf("unknown storage.backend %q", s.Storage.Backend)
	}
	if s.Production && s.Storage.PostgresDSN == "" {
		return settings{}, fmt.Errorf("production mode requires storage.postgres_dsn for users")
	}
	return s, nil
}

// engineConfig maps settings onto the engine defaults.
func (s settings) engineConfig() goSession.Config {
	cfg := goSession.DefaultConfig()
	cfg.Security.ProductionMode = s.Production
	cfg.Session.Lifetime = s.Session.Lifetime
	cfg.Cookie.Name = s.Cookie.Name
	cfg.Cookie.Domain = s.Cookie.Domain
	cfg.Cookie.Secure = s.Cookie.Secure
	cfg.Cookie.SameSite = http.SameSiteLaxMode
	cfg.Storage.OperationTimeout = s.Storage.OperationTimeout
	cfg.Metrics.Enabled = s.Metrics
	cfg.Metrics.EnableLatencyHistograms = s.Metrics
	cfg.Audit.Enabled = true
	return cfg
}
