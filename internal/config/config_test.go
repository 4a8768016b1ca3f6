package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := LoadConfig()
	require.ErrorIs(t, err, ErrMissingDatabaseURL)
}

func TestLoadConfig_Values(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite::memory:")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("OPENAI_API_KEY", " sk-test ")
	t.Setenv("OPENAI_TIMEOUT", "15")
	t.Setenv("CATALOG_CACHE_TTL", "2m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, ,http://localhost:3000")
	t.Setenv("SUPABASE_JWT_SECRET", "secret")
	t.Setenv("SUPABASE_ANON_KEY", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.HTTPPort)
	require.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	require.Equal(t, 15*time.Second, cfg.OpenAITimeout)
	require.Equal(t, 2*time.Minute, cfg.CatalogCacheTTL)
	require.Equal(t, []string{"https://app.example.com", "http://localhost:3000"}, cfg.CORSAllowedOrigins)

	driver, err := cfg.DatabaseDriver()
	require.NoError(t, err)
	require.Equal(t, DriverSQLite, driver)
	require.Equal(t, ":memory:", cfg.SQLiteDSN())

	status := cfg.Status(false)
	require.Equal(t, "OK", status.OpenAI)
	require.Equal(t, "OK", status.Database)
	require.Equal(t, "NO", status.AnonKey)
	require.Equal(t, "OK", status.JWTSecret)
	require.Equal(t, "NO", status.CatalogCache)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/nexus")
	t.Setenv("OPENAI_TIMEOUT", "soon")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 60*time.Second, cfg.OpenAITimeout)
	require.Equal(t, defaultCORSOrigins, cfg.CORSAllowedOrigins)

	driver, err := cfg.DatabaseDriver()
	require.NoError(t, err)
	require.Equal(t, DriverPostgres, driver)
}

func TestLoadConfig_UnsupportedScheme(t *testing.T) {
	t.Setenv("DATABASE_URL", "mysql://localhost/nexus")
	_, err := LoadConfig()
	require.Error(t, err)
}
