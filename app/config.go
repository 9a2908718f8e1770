package main

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Environment    string   `mapstructure:"ENVIRONMENT"`
	Version        string   `mapstructure:"VERSION"`
	TrustedOrigins []string `mapstructure:"TRUSTED_ORIGINS"`
	TLSCertFile    string   `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile     string   `mapstructure:"TLS_KEY_FILE"`

	PocketBaseURL     string        `mapstructure:"POCKETBASE_URL"`
	PocketBaseTimeout time.Duration `mapstructure:"POCKETBASE_TIMEOUT"`
	CacheTTL          time.Duration `mapstructure:"CACHE_TTL"`

	RateLimitRPS     float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int     `mapstructure:"RATE_LIMIT_BURST"`
	RateLimitEnabled bool    `mapstructure:"RATE_LIMIT_ENABLED"`

	MailHost     string `mapstructure:"MAIL_HOST"`
	MailPort     int    `mapstructure:"MAIL_PORT"`
	MailUser     string `mapstructure:"MAIL_USER"`
	MailPassword string `mapstructure:"MAIL_PASSWORD"`
	MailSender   string `mapstructure:"MAIL_SENDER"`

	MQHost     string `mapstructure:"RABBITMQ_HOST"`
	MQPort     string `mapstructure:"RABBITMQ_PORT"`
	MQUser     string `mapstructure:"RABBITMQ_USER"`
	MQPassword string `mapstructure:"RABBITMQ_PASSWORD"`

	NotifyRecipient string `mapstructure:"NOTIFY_RECIPIENT"`
	SiteURL         string `mapstructure:"SITE_URL"`
}

var configDefaults = map[string]any{
	"PORT":               ":4000",
	"ENVIRONMENT":        "development",
	"VERSION":            "1.0.0",
	"TRUSTED_ORIGINS":    []string{},
	"TLS_CERT_FILE":      "",
	"TLS_KEY_FILE":       "",
	"POCKETBASE_URL":     "http://127.0.0.1:8090",
	"POCKETBASE_TIMEOUT": "10s",
	"CACHE_TTL":          "5m",
	"RATE_LIMIT_RPS":     0.2,
	"RATE_LIMIT_BURST":   5,
	"RATE_LIMIT_ENABLED": true,
	"MAIL_HOST":          "",
	"MAIL_PORT":          587,
	"MAIL_USER":          "",
	"MAIL_PASSWORD":      "",
	"MAIL_SENDER":        "",
	"RABBITMQ_HOST":      "",
	"RABBITMQ_PORT":      "5672",
	"RABBITMQ_USER":      "guest",
	"RABBITMQ_PASSWORD":  "guest",
	"NOTIFY_RECIPIENT":   "",
	"SITE_URL":           "http://localhost:5173",
}

// loadConfig reads the env file at path. A missing file is not an error:
// environment variables and defaults still apply.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range configDefaults {
		v.SetDefault(key, value)
	}

	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) brokerEnabled() bool {
	return c.MQHost != ""
}

func (c *Config) mailEnabled() bool {
	return c.MailHost != "" && c.NotifyRecipient != ""
}
