package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// minJWTSecretLen is the shortest HS256 secret accepted at startup.
const minJWTSecretLen = 32

// Config holds all application configuration.
type Config struct {
	ServerPort string
	GinMode    string
	LogLevel   string
	LogFormat  string

	StorageDriver    string
	DatabaseURL      string
	MaxDBConns       int32
	DBConnectTimeout time.Duration
	// RedisURL is optional. Empty disables token revocation and login rate limiting.
	RedisURL string

	JWTSecret  string
	JWTExpiry  time.Duration
	BcryptCost int

	UploadDir      string
	MaxUploadBytes int64
	// AllowedOrigins controls HTTP CORS. Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string
	RequestTimeout time.Duration

	// AssignmentRequired restricts exam access, submission and attendance to assigned students.
	AssignmentRequired bool
	// AllowReevaluation lets an evaluator overwrite the score of an evaluated result.
	AllowReevaluation bool

	// LoginRateLimit is the number of login attempts per IP per minute.
	LoginRateLimit int
	TracingEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing. Secrets have no
// defaults: a missing JWT_SECRET or DATABASE_URL fails validation.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		GinMode:            getEnv("GIN_MODE", "debug"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "pretty"),
		StorageDriver:      getEnv("STORAGE_DRIVER", StorageDriverPostgres),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		MaxDBConns:         int32(getEnvInt("MAX_DB_CONNS", 16)),
		DBConnectTimeout:   time.Duration(getEnvInt("DB_CONNECT_TIMEOUT_SECONDS", 5)) * time.Second,
		RedisURL:           os.Getenv("REDIS_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWTExpiry:          time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 168)) * time.Hour,
		BcryptCost:         getEnvInt("BCRYPT_COST", 10),
		UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_SIZE_MB", 10)) * 1024 * 1024,
		AllowedOrigins:     parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
		RequestTimeout:     time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		AssignmentRequired: getEnvBool("ASSIGNMENT_REQUIRED", true),
		AllowReevaluation:  getEnvBool("ALLOW_REEVALUATION", true),
		LoginRateLimit:     getEnvInt("LOGIN_RATE_LIMIT", 30),
		TracingEnabled:     getEnvBool("TRACING_ENABLED", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required secrets are present and settings are coherent.
func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if len(c.JWTSecret) < minJWTSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minJWTSecretLen))
	}

	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres storage driver"))
		}
	case StorageDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}

	if c.JWTExpiry <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRY_HOURS must be positive"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_SIZE_MB must be positive"))
	}

	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
