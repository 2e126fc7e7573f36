// Package config loads process configuration from the environment. A .env
// file in the working directory is read first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	pstrings "sanitrack/pkg/platform/strings"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Audit    AuditConfig
	Auth     AuthConfig
	Log      LogConfig
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
	AdminToken      string
	// AdminTokenHash is a bcrypt hash of the admin token and wins over AdminToken.
	AdminTokenHash string
}

// DatabaseConfig selects the driver and pool sizing.
type DatabaseConfig struct {
	Driver          string
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// RedisConfig configures the membership cache. An empty URL disables it.
type RedisConfig struct {
	URL           string
	PoolSize      int
	MinIdleConns  int
	DialTimeout   time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	MembershipTTL time.Duration
}

// AuditConfig selects where audit events go.
type AuditConfig struct {
	// Sink is "memory", "postgres" or "kafka".
	Sink          string
	KafkaBrokers  []string
	TopicPrefix   string
	BufferSize    int
	FlushInterval time.Duration
}

// AuthConfig holds the access token settings.
type AuthConfig struct {
	JWTSigningKey string
	Issuer        string
	Audience      string
}

// LogConfig selects the log level and format.
type LogConfig struct {
	Level  string
	Format string
}

const devSigningKey = "dev-secret-key-change-in-production"

// Load reads .env (if present) and then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from environment variables.
func FromEnv() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Addr:            getEnv("SANITRACK_ADDR", ":8080"),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
			AdminToken:      os.Getenv("ADMIN_API_TOKEN"),
			AdminTokenHash:  strings.TrimSpace(os.Getenv("ADMIN_API_TOKEN_HASH")),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DATABASE_DRIVER", "postgres"),
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			AutoMigrate:     getBool("DATABASE_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL:           os.Getenv("REDIS_URL"),
			PoolSize:      getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns:  getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:   getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:   getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:  getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			MembershipTTL: getDuration("MEMBERSHIP_CACHE_TTL", 30*time.Second),
		},
		Audit: AuditConfig{
			Sink:          getEnv("AUDIT_SINK", "memory"),
			KafkaBrokers:  pstrings.SplitList(os.Getenv("KAFKA_BROKERS")),
			TopicPrefix:   getEnv("AUDIT_TOPIC_PREFIX", "sanitrack.audit"),
			BufferSize:    getInt("AUDIT_SECURITY_BUFFER", 1024),
			FlushInterval: getDuration("AUDIT_FLUSH_INTERVAL", time.Second),
		},
		Auth: AuthConfig{
			JWTSigningKey: getEnv("JWT_SIGNING_KEY", devSigningKey),
			Issuer:        getEnv("JWT_ISSUER", "sanitrack"),
			Audience:      getEnv("JWT_AUDIENCE", "sanitrack-api"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
	return cfg, cfg.Validate()
}

// Validate rejects combinations the server cannot start with.
func (c Config) Validate() error {
	switch c.Audit.Sink {
	case "memory":
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("AUDIT_SINK=postgres requires DATABASE_URL")
		}
	case "kafka":
		if len(c.Audit.KafkaBrokers) == 0 {
			return fmt.Errorf("AUDIT_SINK=kafka requires KAFKA_BROKERS")
		}
	default:
		return fmt.Errorf("unknown AUDIT_SINK %q", c.Audit.Sink)
	}
	switch c.Database.Driver {
	case "postgres", "pgx":
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q", c.Database.Driver)
	}
	if c.Auth.JWTSigningKey == "" {
		return fmt.Errorf("JWT_SIGNING_KEY is required")
	}
	if c.Server.AdminTokenHash != "" {
		if _, err := bcrypt.Cost([]byte(c.Server.AdminTokenHash)); err != nil {
			return fmt.Errorf("ADMIN_API_TOKEN_HASH is not a bcrypt hash: %w", err)
		}
	}
	return nil
}

// UsesDevSigningKey reports whether the built-in development key is active.
func (c Config) UsesDevSigningKey() bool {
	return c.Auth.JWTSigningKey == devSigningKey
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
