package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresCoreVariables(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379",
		"JWT_SECRET":   "secret",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":      "postgres://localhost/prayas",
		"REDIS_URL":         "redis://localhost:6379",
		"JWT_SECRET":        "secret",
		"PAYMENT_GATEWAY":   "",
		"ACCESS_TOKEN_TTL":  "",
		"CATALOG_CACHE_TTL": "",
	})
	require.NoError(t, err)
	require.Equal(t, "razorpay", cfg.DefaultGateway)
	require.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 5*time.Minute, cfg.CatalogCacheTTL)
	require.Equal(t, ":8080", cfg.HTTPAddr())
}

func TestLoadRejectsUnknownGateway(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"DATABASE_URL":    "postgres://localhost/prayas",
		"REDIS_URL":       "redis://localhost:6379",
		"JWT_SECRET":      "secret",
		"PAYMENT_GATEWAY": "paypal",
	})
	require.Error(t, err)
}
