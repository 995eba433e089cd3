package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Log          LogConfig
	Coordination CoordinationConfig
	Sequence     SequenceConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// DSN returns the postgres connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns the host:port address
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// CoordinationConfig holds lease-lock settings. Payroll runs get a longer
// TTL than reconciliation because salary computation is the slowest critical
// section in the system.
type CoordinationConfig struct {
	Backend       string // memory, redis
	ReconcileTTL  time.Duration
	PayrollTTL    time.Duration
	SweepInterval time.Duration
	SweepEnabled  bool
}

// SequenceConfig holds document numbering settings
type SequenceConfig struct {
	Backend string // memory, redis
	Padding int    // zero-pad width for formatted numbers
}

// Load reads configuration from config.yaml and the environment. Environment
// variables use the SIMPLEACCOUNTS_ prefix with underscores for nesting,
// e.g. SIMPLEACCOUNTS_DATABASE_HOST.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("SIMPLEACCOUNTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults plus env cover it.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Coordination: CoordinationConfig{
			Backend:       v.GetString("coordination.backend"),
			ReconcileTTL:  v.GetDuration("coordination.reconcile_ttl"),
			PayrollTTL:    v.GetDuration("coordination.payroll_ttl"),
			SweepInterval: v.GetDuration("coordination.sweep_interval"),
			SweepEnabled:  v.GetBool("coordination.sweep_enabled"),
		},
		Sequence: SequenceConfig{
			Backend: v.GetString("sequence.backend"),
			Padding: v.GetInt("sequence.padding"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "simpleaccounts")
	v.SetDefault("app.env", "development")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "simpleaccounts")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30)
	v.SetDefault("database.conn_max_idle_time", 10)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("coordination.backend", "memory")
	v.SetDefault("coordination.reconcile_ttl", 10*time.Minute)
	v.SetDefault("coordination.payroll_ttl", time.Hour)
	v.SetDefault("coordination.sweep_interval", 5*time.Minute)
	v.SetDefault("coordination.sweep_enabled", true)

	v.SetDefault("sequence.backend", "memory")
	v.SetDefault("sequence.padding", 4)
}

func (c *Config) validate() error {
	switch c.Coordination.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("coordination.backend must be memory or redis, got %q", c.Coordination.Backend)
	}
	switch c.Sequence.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("sequence.backend must be memory or redis, got %q", c.Sequence.Backend)
	}
	if c.Coordination.ReconcileTTL <= 0 || c.Coordination.PayrollTTL <= 0 {
		return fmt.Errorf("coordination TTLs must be positive")
	}
	return nil
}
