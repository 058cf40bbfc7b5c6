package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"funding-rate-alerts/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Exchanges ExchangesConfig `mapstructure:"exchanges"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Retention RetentionConfig `mapstructure:"retention"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SchedulerConfig holds the two minute-of-hour trigger sets.
type SchedulerConfig struct {
	CollectMinute int   `mapstructure:"collect_minute"`
	AlertMinutes  []int `mapstructure:"alert_minutes"`
}

// ExchangesConfig governs collection behaviour per venue.
type ExchangesConfig struct {
	SymbolsDir         string         `mapstructure:"symbols_dir"`
	RequestDelay       time.Duration  `mapstructure:"request_delay"`
	DefaultConcurrency int            `mapstructure:"default_concurrency"`
	Concurrency        map[string]int `mapstructure:"concurrency"`
	Disabled           []string       `mapstructure:"disabled"`
}

// IsDisabled reports whether an exchange was switched off in config.
func (e ExchangesConfig) IsDisabled(name string) bool {
	for _, d := range e.Disabled {
		if strings.EqualFold(d, name) {
			return true
		}
	}
	return false
}

// AlertingConfig defines thresholds, templates, and the two tier channels.
type AlertingConfig struct {
	Tier1Threshold  float64        `mapstructure:"tier1_threshold"`
	Tier2Threshold  float64        `mapstructure:"tier2_threshold"`
	TemplateFile    string         `mapstructure:"template_file"`
	MaxMessageChars int            `mapstructure:"max_message_chars"`
	MessageDelay    time.Duration  `mapstructure:"message_delay"`
	MaxRetries      int            `mapstructure:"max_retries"`
	RequestTimeout  time.Duration  `mapstructure:"request_timeout"`
	Tier1           TelegramConfig `mapstructure:"tier1"`
	Tier2           TelegramConfig `mapstructure:"tier2"`
}

// TelegramConfig describes one notification destination. ChatID may carry a
// "_<topic>" suffix selecting a forum topic within the chat.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// RetentionConfig bounds how long stale funding snapshots are kept.
type RetentionConfig struct {
	Window time.Duration `mapstructure:"window"`
}

// MetricsConfig enables the optional Prometheus listener.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FUNDINGWATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "fundingwatcher")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.collect_minute", 30)
	v.SetDefault("scheduler.alert_minutes", []int{1, 8, 15, 18, 20, 25, 30, 35, 40, 45, 50, 55, 56, 57, 58, 59})

	v.SetDefault("exchanges.symbols_dir", "symbols_cache")
	v.SetDefault("exchanges.request_delay", "50ms")
	v.SetDefault("exchanges.default_concurrency", 6)
	v.SetDefault("exchanges.concurrency", map[string]int{"binance": 8})

	v.SetDefault("alerting.tier1_threshold", 1.0)
	v.SetDefault("alerting.tier2_threshold", 2.0)
	v.SetDefault("alerting.template_file", "message_templates.json")
	v.SetDefault("alerting.max_message_chars", 3500)
	v.SetDefault("alerting.message_delay", "1s")
	v.SetDefault("alerting.max_retries", 3)
	v.SetDefault("alerting.request_timeout", "10s")

	v.SetDefault("retention.window", "168h")

	v.SetDefault("metrics.addr", "")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Scheduler.CollectMinute < 0 || c.Scheduler.CollectMinute > 59 {
		return fmt.Errorf("scheduler.collect_minute must be in [0, 59]")
	}
	for _, m := range c.Scheduler.AlertMinutes {
		if m < 0 || m > 59 {
			return fmt.Errorf("scheduler.alert_minutes entries must be in [0, 59], got %d", m)
		}
	}
	if c.Alerting.Tier1Threshold < 0 || c.Alerting.Tier2Threshold < 0 {
		return fmt.Errorf("alert thresholds cannot be negative")
	}
	if c.Alerting.Tier2Threshold < c.Alerting.Tier1Threshold {
		return fmt.Errorf("alerting.tier2_threshold must be >= alerting.tier1_threshold")
	}
	if c.Alerting.MaxMessageChars <= 0 {
		return fmt.Errorf("alerting.max_message_chars must be greater than zero")
	}
	if c.Exchanges.DefaultConcurrency <= 0 {
		return fmt.Errorf("exchanges.default_concurrency must be greater than zero")
	}
	if c.Retention.Window <= 0 {
		return fmt.Errorf("retention.window must be greater than zero")
	}
	return nil
}
