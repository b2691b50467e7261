package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "NEWSSTAND"

const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	Dashboard DashboardConfig `mapstructure:"dashboard" yaml:"dashboard"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	User            string        `mapstructure:"user" yaml:"user"`
	Password        string        `mapstructure:"password" yaml:"password"`
	Name            string        `mapstructure:"name" yaml:"name"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// StoreConfig selects the persistence adapter. The memory driver starts
// with a seeded catalogue and loses everything on exit.
type StoreConfig struct {
	Driver         string `mapstructure:"driver" yaml:"driver"`
	MigrateOnStart bool   `mapstructure:"migrate_on_start" yaml:"migrate_on_start"`
}

type DashboardConfig struct {
	LowStockThreshold int `mapstructure:"low_stock_threshold" yaml:"low_stock_threshold"`
	TopProducts       int `mapstructure:"top_products" yaml:"top_products"`
}

type LogConfig struct {
	Level    string `mapstructure:"level" yaml:"level"`
	Encoding string `mapstructure:"encoding" yaml:"encoding"`
}

// Load reads defaults, then the optional file at path, then NEWSSTAND_*
// environment variables (NEWSSTAND_DATABASE_HOST overrides database.host).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "newsstand")
	v.SetDefault("database.password", "secret")
	v.SetDefault("database.name", "newsstand")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")

	v.SetDefault("store.driver", DriverMySQL)
	v.SetDefault("store.migrate_on_start", false)

	v.SetDefault("dashboard.low_stock_threshold", 5)
	v.SetDefault("dashboard.top_products", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMySQL, DriverMemory:
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q", DriverMySQL, DriverMemory, c.Store.Driver)
	}

	switch c.Log.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("log.encoding must be json or console, got %q", c.Log.Encoding)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Dashboard.LowStockThreshold < 0 {
		return fmt.Errorf("dashboard.low_stock_threshold must not be negative")
	}
	if c.Dashboard.TopProducts <= 0 {
		return fmt.Errorf("dashboard.top_products must be positive")
	}

	return nil
}
