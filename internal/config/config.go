package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Directory backends.
const (
	DirectoryMemory   = "memory"
	DirectoryPostgres = "postgres"
)

// Session backends.
const (
	SessionSQLite = "sqlite"
	SessionRedis  = "redis"
	SessionMemory = "memory"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Env         string
	Port        string
	CORSOrigins []string

	DirectoryBackend string
	DatabaseURL      string

	SessionBackend string
	SessionDBPath  string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Env:              fallback(os.Getenv("APP_ENV"), "dev"),
		Port:             fallback(os.Getenv("PORT"), "8080"),
		CORSOrigins:      parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		DirectoryBackend: strings.ToLower(fallback(os.Getenv("DIRECTORY_BACKEND"), DirectoryMemory)),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SessionBackend:   strings.ToLower(fallback(os.Getenv("SESSION_BACKEND"), SessionSQLite)),
		SessionDBPath:    fallback(os.Getenv("SESSION_DB_PATH"), "session.db"),
		RedisAddr:        fallback(os.Getenv("REDIS_ADDR"), "127.0.0.1:6379"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		JWTSecret:        strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:        fallback(os.Getenv("JWT_ISSUER"), "finanzas-backend"),
	}

	if db, err := strconv.Atoi(fallback(os.Getenv("REDIS_DB"), "0")); err == nil && db >= 0 {
		cfg.RedisDB = db
	}

	minutes := fallback(os.Getenv("JWT_TTL_MINUTES"), "60")
	if ttlMinutes, err := strconv.Atoi(minutes); err == nil && ttlMinutes > 0 {
		cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute
	} else {
		cfg.JWTTTL = 60 * time.Minute
	}

	switch cfg.DirectoryBackend {
	case DirectoryMemory:
	case DirectoryPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required for the postgres directory")
		}
	default:
		return Config{}, fmt.Errorf("unknown DIRECTORY_BACKEND %q", cfg.DirectoryBackend)
	}

	switch cfg.SessionBackend {
	case SessionSQLite, SessionRedis, SessionMemory:
	default:
		return Config{}, fmt.Errorf("unknown SESSION_BACKEND %q", cfg.SessionBackend)
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
