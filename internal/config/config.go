package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// TIPBOT_TELEGRAM_TOKEN for telegram.token.
const EnvPrefix = "TIPBOT"

type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Rates    RatesConfig    `mapstructure:"rates"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Log      LogConfig      `mapstructure:"log"`
}

type TelegramConfig struct {
	Token          string        `mapstructure:"token"`
	BotName        string        `mapstructure:"bot_name"`
	APIBase        string        `mapstructure:"api_base"`
	PollTimeout    time.Duration `mapstructure:"poll_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // must exceed poll_timeout
	Mode           string        `mapstructure:"mode"`            // polling, webhook
	WebhookURL     string        `mapstructure:"webhook_url"`
	WebhookSecret  string        `mapstructure:"webhook_secret"`
	SendRPS        float64       `mapstructure:"send_rps"`
}

type StorageConfig struct {
	Driver      string `mapstructure:"driver"` // sqlite, postgres
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

type RatesConfig struct {
	SourceURL  string        `mapstructure:"source_url"`
	StaleAfter time.Duration `mapstructure:"stale_after"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Cache      string        `mapstructure:"cache"` // memory, redis
	RedisAddr  string        `mapstructure:"redis_addr"`
	RedisKey   string        `mapstructure:"redis_key"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

const (
	ModePolling = "polling"
	ModeWebhook = "webhook"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

func setDefaults(v *viper.Viper) {
	// Telegram
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.bot_name", "")
	v.SetDefault("telegram.api_base", "https://api.telegram.org/bot")
	v.SetDefault("telegram.poll_timeout", 30*time.Second)
	v.SetDefault("telegram.request_timeout", 40*time.Second)
	v.SetDefault("telegram.mode", ModePolling)
	v.SetDefault("telegram.webhook_url", "")
	v.SetDefault("telegram.webhook_secret", "")
	v.SetDefault("telegram.send_rps", 25)

	// Storage
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.sqlite_path", "tipbot.db")
	v.SetDefault("storage.postgres_dsn", "")

	// Rates
	v.SetDefault("rates.source_url", "https://www.cbr-xml-daily.ru/daily_json.js")
	v.SetDefault("rates.stale_after", 24*time.Hour)
	v.SetDefault("rates.timeout", 10*time.Second)
	v.SetDefault("rates.cache", CacheMemory)
	v.SetDefault("rates.redis_addr", "localhost:6379")
	v.SetDefault("rates.redis_key", "tipbot:rates:snapshot")

	// HTTP
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration from, in increasing priority: defaults, a
// config.yaml file, a .env file and TIPBOT_* environment variables.
// configFile may name an explicit file; otherwise config.yaml is searched in
// ".", "./config" and "/etc/tipbot".
func Load(configFile string) (*Config, error) {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/tipbot")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration can start the bot.
func (c *Config) Validate() error {
	var errs []error

	if c.Telegram.Token == "" {
		errs = append(errs, errors.New("telegram.token is required"))
	}
	switch c.Telegram.Mode {
	case ModePolling:
		if c.Telegram.RequestTimeout <= c.Telegram.PollTimeout {
			errs = append(errs, errors.New("telegram.request_timeout must be longer than telegram.poll_timeout"))
		}
	case ModeWebhook:
		if c.Telegram.WebhookURL == "" {
			errs = append(errs, errors.New("telegram.webhook_url is required in webhook mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("telegram.mode must be %q or %q, got %q", ModePolling, ModeWebhook, c.Telegram.Mode))
	}

	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("storage.sqlite_path is required"))
		}
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Storage.Driver))
	}

	switch c.Rates.Cache {
	case CacheMemory:
	case CacheRedis:
		if c.Rates.RedisAddr == "" {
			errs = append(errs, errors.New("rates.redis_addr is required for the redis cache"))
		}
	default:
		errs = append(errs, fmt.Errorf("rates.cache must be %q or %q, got %q", CacheMemory, CacheRedis, c.Rates.Cache))
	}

	if c.Rates.StaleAfter <= 0 {
		errs = append(errs, errors.New("rates.stale_after must be positive"))
	}
	if c.Rates.Timeout <= 0 {
		errs = append(errs, errors.New("rates.timeout must be positive"))
	}
	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 {
		errs = append(errs, errors.New("http.read_timeout and http.write_timeout must be positive"))
	}

	return errors.Join(errs...)
}
