package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config is the application configuration, sourced from the environment
// with an optional .env overlay for local development.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	CORSAllowedOrigins []string

	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	StripeSecretKey       string
	StripeWebhookSecret   string
	DefaultGateway        string

	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	CatalogCacheTTL   time.Duration
	AnalyticsCacheTTL time.Duration
	IdempotencyTTL    time.Duration

	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite
}

// Load assembles the config from environment variables and validates the
// keys the process cannot run without.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             fallback(k.String("APP_ENV"), "development"),
		Port:               fallback(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		CORSAllowedOrigins: splitCSV(k.String("CORS_ALLOWED_ORIGINS")),

		RazorpayKeyID:         k.String("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     k.String("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret: k.String("RAZORPAY_WEBHOOK_SECRET"),
		StripeSecretKey:       k.String("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:   k.String("STRIPE_WEBHOOK_SECRET"),
		DefaultGateway:        fallback(k.String("PAYMENT_GATEWAY"), "razorpay"),

		AccessTokenTTL:    duration(k.String("ACCESS_TOKEN_TTL"), 15*time.Minute),
		RefreshTokenTTL:   duration(k.String("REFRESH_TOKEN_TTL"), 30*24*time.Hour),
		CatalogCacheTTL:   duration(k.String("CATALOG_CACHE_TTL"), 5*time.Minute),
		AnalyticsCacheTTL: duration(k.String("ANALYTICS_CACHE_TTL"), 10*time.Minute),
		IdempotencyTTL:    duration(k.String("IDEMPOTENCY_TTL"), 24*time.Hour),

		CookieDomain:   strings.TrimSpace(k.String("COOKIE_DOMAIN")),
		CookieSecure:   truthy(k.String("COOKIE_SECURE")),
		CookieSameSite: sameSite(k.String("COOKIE_SAMESITE")),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.DefaultGateway != "razorpay" && cfg.DefaultGateway != "stripe" {
		return nil, fmt.Errorf("PAYMENT_GATEWAY must be razorpay or stripe, got %q", cfg.DefaultGateway)
	}
	return cfg, nil
}

// HTTPAddr is the listen address derived from Port, accepting both "8080"
// and ":8080" forms.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	switch {
	case port == "":
		return ":8080"
	case strings.HasPrefix(port, ":"):
		return port
	default:
		return ":" + port
	}
}

// LoadForTests runs Load with env temporarily overridden, restoring the
// original values afterwards. An empty map value unsets the variable.
func LoadForTests(override map[string]string) (*Config, error) {
	saved := make(map[string]string, len(override))
	for key, value := range override {
		saved[key] = os.Getenv(key)
		if err := setEnv(key, value); err != nil {
			return nil, err
		}
	}
	cfg, loadErr := Load()

	var restoreErrs []string
	for key, value := range saved {
		if err := setEnv(key, value); err != nil {
			restoreErrs = append(restoreErrs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if loadErr != nil {
		return nil, loadErr
	}
	if len(restoreErrs) > 0 {
		return cfg, fmt.Errorf("restore env: %s", strings.Join(restoreErrs, "; "))
	}
	return cfg, nil
}

func setEnv(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func duration(value string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func sameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
