package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

type ServerConfig struct {
	Address            string   `mapstructure:"address"`
	ReadTimeoutSeconds int      `mapstructure:"read_timeout_seconds"`
	RateLimitPerSecond float64  `mapstructure:"rate_limit_per_second"`
	RateLimitBurst     int      `mapstructure:"rate_limit_burst"`
	AllowedOrigins     []string `mapstructure:"allowed_origins"` // websocket origins, empty allows all
}

type CaptureConfig struct {
	SessionTimeoutSeconds int    `mapstructure:"session_timeout_seconds"`
	TerminalMarker        string `mapstructure:"terminal_marker"`
	MaxSessions           int    `mapstructure:"max_sessions"`
}

type PublishConfig struct {
	BackendURL          string   `mapstructure:"backend_url"`
	BackendAuthTokenEnv string   `mapstructure:"backend_auth_token_env"` // e.g. SPEEDCHECK_BACKEND_TOKEN
	InsecureSkipVerify  bool     `mapstructure:"insecure_skip_verify"`
	SendIntervalSeconds int      `mapstructure:"send_interval_seconds"`
	TimeoutSeconds      int      `mapstructure:"timeout_seconds"`
	MaxQueueSize        int      `mapstructure:"max_queue_size"`
	KafkaBrokers        []string `mapstructure:"kafka_brokers"`
	KafkaTopic          string   `mapstructure:"kafka_topic"`
}

type TrendConfig struct {
	AgeSamples float64 `mapstructure:"age_samples"`
}

type Config struct {
	Name    string        `mapstructure:"name"`
	Server  ServerConfig  `mapstructure:"server"`
	Capture CaptureConfig `mapstructure:"capture"`
	Publish PublishConfig `mapstructure:"publish"`
	Trend   TrendConfig   `mapstructure:"trend"`
	Logging LoggingConfig `mapstructure:"logging"`
}

func (c CaptureConfig) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutSeconds) * time.Second
}

func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// Enabled reports whether any publishing sink is configured.
func (p PublishConfig) Enabled() bool {
	return p.BackendURL != "" || len(p.KafkaBrokers) > 0
}

// LoadConfig reads the YAML file at path. An empty path yields defaults plus
// environment overrides only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// env overrides: SPEEDCHECK_SERVER_ADDRESS etc.
	v.SetEnvPrefix("speedcheck")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("name", "speedcheck")
	v.SetDefault("server.address", "127.0.0.1:8085")
	v.SetDefault("server.read_timeout_seconds", 10)
	v.SetDefault("server.rate_limit_per_second", 5)
	v.SetDefault("server.rate_limit_burst", 10)
	v.SetDefault("capture.session_timeout_seconds", 300)
	v.SetDefault("capture.terminal_marker", "All done")
	v.SetDefault("capture.max_sessions", 1000)
	v.SetDefault("publish.send_interval_seconds", 30)
	v.SetDefault("publish.timeout_seconds", 5)
	v.SetDefault("publish.max_queue_size", 1000)
	v.SetDefault("publish.insecure_skip_verify", false)
	v.SetDefault("publish.kafka_topic", "speedcheck.interpretations")
	v.SetDefault("trend.age_samples", 10)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// quick sanity checks
	if cfg.Server.Address == "" {
		cfg.Server.Address = "127.0.0.1:8085"
	}
	if cfg.Server.ReadTimeoutSeconds < 1 {
		cfg.Server.ReadTimeoutSeconds = 10
	}
	if cfg.Server.RateLimitPerSecond <= 0 {
		cfg.Server.RateLimitPerSecond = 5
	}
	if cfg.Server.RateLimitBurst < 1 {
		cfg.Server.RateLimitBurst = 1
	}
	if cfg.Capture.SessionTimeoutSeconds < 1 {
		cfg.Capture.SessionTimeoutSeconds = 300
	}
	if cfg.Capture.MaxSessions < 1 {
		cfg.Capture.MaxSessions = 1000
	}
	if cfg.Publish.SendIntervalSeconds < 1 {
		cfg.Publish.SendIntervalSeconds = 30
	}
	if cfg.Publish.TimeoutSeconds == 0 {
		cfg.Publish.TimeoutSeconds = 5
	}
	if cfg.Trend.AgeSamples < 1 {
		cfg.Trend.AgeSamples = 10
	}

	return &cfg, nil
}
