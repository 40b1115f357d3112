package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 服务配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	YouTube  YouTubeConfig  `mapstructure:"youtube"`
	Plans    PlansConfig    `mapstructure:"plans"`
	Scanner  ScannerConfig  `mapstructure:"scanner"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig driver 取值 postgres 或 sqlite
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// YouTubeConfig 频道订阅源抓取相关配置
type YouTubeConfig struct {
	FeedURLTemplate    string        `mapstructure:"feed_url_template"`
	ChannelURLTemplate string        `mapstructure:"channel_url_template"`
	HandleURLTemplate  string        `mapstructure:"handle_url_template"`
	FeedTimeout        time.Duration `mapstructure:"feed_timeout"`
	FeedRetries        int           `mapstructure:"feed_retries"`
	HostInterval       time.Duration `mapstructure:"host_interval"`
	ResolveCacheTTL    time.Duration `mapstructure:"resolve_cache_ttl"`
}

type PlansConfig struct {
	FreeChannelLimit int `mapstructure:"free_channel_limit"`
}

type ScannerConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	PageSize  int           `mapstructure:"page_size"`
	EventsKey string        `mapstructure:"events_stream"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// Load 读取 config.yaml（可选）与 TUBEDIGEST_* 环境变量
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("TUBEDIGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=tubedigest port=5432 sslmode=disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("log.level", "info")

	v.SetDefault("youtube.feed_url_template", "https://www.youtube.com/feeds/videos.xml?channel_id=%s")
	v.SetDefault("youtube.channel_url_template", "https://www.youtube.com/channel/%s")
	v.SetDefault("youtube.handle_url_template", "https://www.youtube.com/@%s")
	v.SetDefault("youtube.feed_timeout", 8*time.Second)
	v.SetDefault("youtube.feed_retries", 1)
	v.SetDefault("youtube.host_interval", 200*time.Millisecond)
	v.SetDefault("youtube.resolve_cache_ttl", 24*time.Hour)

	v.SetDefault("plans.free_channel_limit", 3)

	v.SetDefault("scanner.interval", 15*time.Minute)
	v.SetDefault("scanner.page_size", 500)
	v.SetDefault("scanner.events_stream", "tubedigest:videos")

	v.SetDefault("tracing.service_name", "tubedigest")
}

// Validate 校验必填项
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.YouTube.FeedTimeout <= 0 {
		return fmt.Errorf("youtube.feed_timeout must be positive")
	}
	if c.Plans.FreeChannelLimit < 0 {
		return fmt.Errorf("plans.free_channel_limit must not be negative")
	}
	return nil
}
