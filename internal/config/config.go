// Package config loads Roster settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	LockerMemory = "memory"
	LockerRedis  = "redis"
)

var ErrMissingToken = errors.New("discord token is required")

type Config struct {
	AppEnv   string `yaml:"appEnv"   envconfig:"APP_ENV"`
	LogLevel string `yaml:"logLevel" envconfig:"LOG_LEVEL"`

	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Discord  DiscordConfig  `yaml:"discord"`
	Auth     AuthConfig     `yaml:"auth"`
	Cache    CacheConfig    `yaml:"cache"`
	Audit    AuditConfig    `yaml:"audit"`
	Jobs     JobsConfig     `yaml:"jobs"`
}

type HTTPConfig struct {
	ListenAddr      string        `yaml:"listenAddr"      envconfig:"HTTP_LISTEN_ADDR"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" envconfig:"HTTP_SHUTDOWN_TIMEOUT"`
	RateLimitRPS    float64       `yaml:"rateLimitRps"    envconfig:"HTTP_RATE_LIMIT_RPS"`
	RateLimitBurst  int           `yaml:"rateLimitBurst"  envconfig:"HTTP_RATE_LIMIT_BURST"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"   envconfig:"DB_DRIVER"`
	Host     string `yaml:"host"     envconfig:"PG_HOST"`
	Port     string `yaml:"port"     envconfig:"PG_PORT"`
	User     string `yaml:"user"     envconfig:"PG_USER"`
	Password string `yaml:"password" envconfig:"PG_PASSWORD"`
	Name     string `yaml:"name"     envconfig:"PG_DB"`
	SQLPath  string `yaml:"sqlitePath" envconfig:"SQLITE_PATH"`
}

// DSN returns the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", d.User, d.Password, d.Host, d.Port, d.Name)
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"  envconfig:"REDIS_ENABLED"`
	Host     string `yaml:"host"     envconfig:"REDIS_HOST"`
	Port     string `yaml:"port"     envconfig:"REDIS_PORT"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"       envconfig:"REDIS_DB"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string { return r.Host + ":" + r.Port }

type DiscordConfig struct {
	Token         string        `yaml:"token"         envconfig:"DISCORD_TOKEN"`
	EnableGateway bool          `yaml:"enableGateway" envconfig:"DISCORD_ENABLE_GATEWAY"`
	CommandGuild  string        `yaml:"commandGuild"  envconfig:"DISCORD_COMMAND_GUILD"`
	Prefix        string        `yaml:"prefix"        envconfig:"DISCORD_PREFIX"`
	RoleCacheTTL  time.Duration `yaml:"roleCacheTtl"  envconfig:"DISCORD_ROLE_CACHE_TTL"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret" envconfig:"JWT_SECRET"`
}

type CacheConfig struct {
	Locker string        `yaml:"locker" envconfig:"LOCKER"`
	TTL    time.Duration `yaml:"ttl"    envconfig:"CACHE_TTL"`
}

type AuditConfig struct {
	Stream  string `yaml:"stream"  envconfig:"AUDIT_STREAM"`
	Group   string `yaml:"group"   envconfig:"AUDIT_GROUP"`
	Workers int    `yaml:"workers" envconfig:"AUDIT_WORKERS"`
}

// JobsConfig schedules background jobs. A zero interval disables the job.
type JobsConfig struct {
	ConfigAuditInterval time.Duration `yaml:"configAuditInterval" envconfig:"JOB_CONFIG_AUDIT_INTERVAL"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		AppEnv: "development",
		HTTP: HTTPConfig{
			ListenAddr:      ":8080",
			ShutdownTimeout: 15 * time.Second,
			RateLimitRPS:    5,
			RateLimitBurst:  10,
		},
		Database: DatabaseConfig{
			Driver:  DriverPostgres,
			Host:    "localhost",
			Port:    "5432",
			Name:    "roster",
			SQLPath: "roster.db",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: "6379",
		},
		Discord: DiscordConfig{
			EnableGateway: true,
			Prefix:        "!",
			RoleCacheTTL:  30 * time.Second,
		},
		Cache: CacheConfig{
			Locker: LockerMemory,
			TTL:    10 * time.Minute,
		},
		Audit: AuditConfig{
			Stream:  "roster:audit",
			Group:   "roster-audit",
			Workers: 1,
		},
		Jobs: JobsConfig{
			ConfigAuditInterval: time.Hour,
		},
	}
}

// Load overlays the YAML file at path (when non-empty) onto the defaults and
// then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Cache.Locker {
	case LockerMemory:
	case LockerRedis:
		if !c.Redis.Enabled {
			return errors.New("redis locker requires REDIS_ENABLED=true")
		}
	default:
		return fmt.Errorf("unsupported locker %q", c.Cache.Locker)
	}
	return nil
}

// RequireDiscord is checked by commands that talk to Discord.
func (c *Config) RequireDiscord() error {
	if c.Discord.Token == "" {
		return ErrMissingToken
	}
	return nil
}
