package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"nexus-backend/internal/models"
)

// ErrMissingDatabaseURL is returned when DATABASE_URL is not set.
var ErrMissingDatabaseURL = errors.New("DATABASE_URL environment variable is not set")

var errUnsupportedScheme = errors.New("unsupported DATABASE_URL scheme (want postgres://, sqlite: or file:)")

// Database drivers selected from the DATABASE_URL scheme.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var defaultCORSOrigins = []string{"http://localhost:3000", "http://localhost:5173", "https://*.vercel.app"}

// Config holds application configuration values loaded from environment variables.
type Config struct {
	HTTPPort    string
	DatabaseURL string

	OpenAIAPIKey      string
	OpenAIAPIKeyParam string // SSM parameter name; used when OpenAIAPIKey is empty
	OpenAIBaseURL     string
	OpenAIModel       string
	OpenAITimeout     time.Duration

	SupabaseAnonKey string
	JWTSecret       string // empty disables authentication (local development)

	RedisURL        string
	CatalogCacheTTL time.Duration

	CORSAllowedOrigins []string
	CatalogSeedFile    string // JSON fixtures loaded into a SQLite database at startup
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file (useful for development)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Could not load .env file. Using environment variables only.", err)
	}

	dbURL := getEnv("DATABASE_URL", "") // No default, should fail if not set
	if dbURL == "" {
		return nil, ErrMissingDatabaseURL
	}

	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		DatabaseURL:        dbURL,
		OpenAIAPIKey:       strings.TrimSpace(getEnv("OPENAI_API_KEY", "")),
		OpenAIAPIKeyParam:  strings.TrimSpace(getEnv("OPENAI_API_KEY_PARAM", "")),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITimeout:      getDuration("OPENAI_TIMEOUT", 60*time.Second),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		JWTSecret:          getEnv("SUPABASE_JWT_SECRET", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		CatalogCacheTTL:    getDuration("CATALOG_CACHE_TTL", 10*time.Minute),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		CatalogSeedFile:    getEnv("CATALOG_SEED_FILE", ""),
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = defaultCORSOrigins
	}
	if _, err := cfg.DatabaseDriver(); err != nil {
		return nil, err
	}

	log.Printf("Loaded config: Port=%s, DB_URL=***, Model=%s, Auth=%t, Redis=%t",
		cfg.HTTPPort, cfg.OpenAIModel, cfg.JWTSecret != "", cfg.RedisURL != "")

	return cfg, nil
}

// DatabaseDriver picks the store implementation from the DATABASE_URL scheme.
func (c *Config) DatabaseDriver() (string, error) {
	switch url := strings.ToLower(c.DatabaseURL); {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres, nil
	case strings.HasPrefix(url, "sqlite:"), strings.HasPrefix(url, "file:"):
		return DriverSQLite, nil
	default:
		return "", errUnsupportedScheme
	}
}

// SQLiteDSN returns the go-sqlite3 data source for a sqlite: URL.
// "sqlite::memory:" and "sqlite:./dev.db" map to ":memory:" and "./dev.db"; file: URLs pass through.
func (c *Config) SQLiteDSN() string {
	if rest, ok := strings.CutPrefix(c.DatabaseURL, "sqlite://"); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(c.DatabaseURL, "sqlite:"); ok {
		return rest
	}
	return c.DatabaseURL
}

// Status reports which required settings are present, for GET /v1/chat/status.
func (c *Config) Status(catalogCache bool) models.StatusResponse {
	return models.StatusResponse{
		OpenAI:       presence(c.OpenAIAPIKey != "" || c.OpenAIAPIKeyParam != ""),
		Database:     presence(c.DatabaseURL != ""),
		AnonKey:      presence(c.SupabaseAnonKey != ""),
		JWTSecret:    presence(c.JWTSecret != ""),
		CatalogCache: presence(catalogCache),
	}
}

func presence(ok bool) string {
	if ok {
		return "OK"
	}
	return "NO"
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Env variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getDuration reads a Go duration ("45s") or a bare number of seconds.
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if d, err := time.ParseDuration(raw + "s"); err == nil && d > 0 {
		return d
	}
	log.Printf("Warning: Invalid %s '%s', using default %s", key, raw, fallback)
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
