package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`
	Cron   CronConfig   `mapstructure:"cron"`

	Engine      EngineConfig      `mapstructure:"engine"`
	Reconciler  ReconcilerConfig  `mapstructure:"reconciler"`
	Predictor   PredictorConfig   `mapstructure:"predictor"`
	Marketplace MarketplaceConfig `mapstructure:"marketplace"`
	Discount    DiscountConfig    `mapstructure:"discount"`
	Estimator   EstimatorConfig   `mapstructure:"estimator"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

// CronConfig holds the tick specs for the three background loops.
type CronConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	MetricsCollection string `mapstructure:"metrics_collection"`
	Reconciliation    string `mapstructure:"reconciliation"`
	AnalysisRefresh   string `mapstructure:"analysis_refresh"`
}

type EngineConfig struct {
	HistoryLimit int `mapstructure:"history_limit"`
}

type ReconcilerConfig struct {
	CampaignLimit int `mapstructure:"campaign_limit"`
}

type PredictorConfig struct {
	MinLocalSamples int `mapstructure:"min_local_samples"`
	WindowSize      int `mapstructure:"window_size"`
}

type MarketplaceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DiscountConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Percent float64       `mapstructure:"percent"`
}

type EstimatorConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.metrics_collection", "@every 15m")
	v.SetDefault("cron.reconciliation", "@every 1h")
	v.SetDefault("cron.analysis_refresh", "@every 2h")
	v.SetDefault("engine.history_limit", 50)
	v.SetDefault("reconciler.campaign_limit", 1000)
	v.SetDefault("predictor.min_local_samples", 5)
	v.SetDefault("predictor.window_size", 10)
	v.SetDefault("marketplace.base_url", "")
	v.SetDefault("marketplace.timeout", "15s")
	v.SetDefault("discount.base_url", "")
	v.SetDefault("discount.timeout", "5s")
	v.SetDefault("discount.percent", 10)
	v.SetDefault("estimator.base_url", "")
	v.SetDefault("estimator.timeout", "10s")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
