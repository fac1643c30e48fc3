package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Logging    LoggingConfig
	Delivery   DeliveryConfig
	Monitor    MonitorConfig
	Dispatcher DispatcherConfig
	Metrics    MetricsConfig
	Admin      AdminConfig
}

type ServerConfig struct {
	HTTPPort    int           `mapstructure:"http_port"`
	MetricsPort int           `mapstructure:"metrics_port"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Addresses   []string `mapstructure:"addresses"`
	Password    string   `mapstructure:"password"`
	DB          int      `mapstructure:"db"`
	PoolSize    int      `mapstructure:"pool_size"`
	ClusterMode bool     `mapstructure:"cluster_mode"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

type DeliveryConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	BatchSize   int           `mapstructure:"batch_size"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	Timeout     time.Duration `mapstructure:"timeout"`
	ClaimLease  time.Duration `mapstructure:"claim_lease"`
}

type MonitorConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxInFlight   int           `mapstructure:"max_in_flight"`
	FailureWindow int           `mapstructure:"failure_window"`
}

type DispatcherConfig struct {
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace"`
}

type MetricsConfig struct {
	MaxLabelSets          int     `mapstructure:"max_label_sets"`
	SampleVolumeThreshold int64   `mapstructure:"sample_volume_threshold"`
	SampleRate            float64 `mapstructure:"sample_rate"`
}

type AdminConfig struct {
	Token string `mapstructure:"token"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/hookpulse/")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("HOOKPULSE")
	viper.AutomaticEnv()

	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("server.metrics_port", 9091)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("redis.pool_size", 100)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("delivery.interval", "5s")
	viper.SetDefault("delivery.batch_size", 10)
	viper.SetDefault("delivery.max_attempts", 5)
	viper.SetDefault("delivery.timeout", "10s")
	viper.SetDefault("delivery.claim_lease", "60s")
	viper.SetDefault("monitor.interval", "30s")
	viper.SetDefault("monitor.timeout", "10s")
	viper.SetDefault("monitor.max_in_flight", 20)
	viper.SetDefault("monitor.failure_window", 3)
	viper.SetDefault("dispatcher.shutdown_grace", "5s")
	viper.SetDefault("metrics.max_label_sets", 10000)
	viper.SetDefault("metrics.sample_volume_threshold", 1000)
	viper.SetDefault("metrics.sample_rate", 0.01)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
