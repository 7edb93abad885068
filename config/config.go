// ABOUTME: Configuration loader for the forum BFF service
// ABOUTME: Loads settings from .env and environment variables with defaults

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port               string
	CORSAllowedOrigins []string // allowed CORS origins (empty = block all cross-origin)
	CookieSecure       bool     // Set Secure flag on session cookies (default: false)
	MaxUploadMB        int      // multipart memory budget for upload forwarding

	// Upstream API
	UpstreamAPIBase           string        // required per request; empty is a configuration error
	UpstreamTimeout           time.Duration // per upstream call
	UpstreamSkipSSLValidation bool          // explicit opt-in for insecure connections
	UpstreamAllProxy          string        // optional ssh+socks5://user@host:port?private-key=/path

	// Rate Limiting
	RateLimitEnabled bool // Enable rate limiting (default: true)
	RateLimitAuth    int  // Requests per minute for login/register (default: 5)
	RateLimitDefault int  // Requests per minute for all other endpoints (default: 300)

	// Metrics
	MetricsEnabled bool
}

// UpstreamConfigured returns true if an upstream base address is set
func (c *Config) UpstreamConfigured() bool {
	return c != nil && c.UpstreamAPIBase != ""
}

// Load reads configuration once at startup. A missing upstream base address
// is not fatal here: every request fails with a configuration error instead.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to read .env file", "error", err)
	}

	base := os.Getenv("UPSTREAM_API_BASE")
	if base == "" {
		base = os.Getenv("DJANGO_API_BASE")
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		CORSAllowedOrigins: getEnvStringList("CORS_ALLOWED_ORIGINS"),
		CookieSecure:       getEnvBool("COOKIE_SECURE", false),
		MaxUploadMB:        getEnvInt("MAX_UPLOAD_MB", 10),

		UpstreamAPIBase:           normalizeBase(base),
		UpstreamTimeout:           time.Duration(getEnvInt("UPSTREAM_TIMEOUT", 30)) * time.Second,
		UpstreamSkipSSLValidation: getEnvBool("UPSTREAM_SKIP_SSL_VALIDATION", false),
		UpstreamAllProxy:          os.Getenv("UPSTREAM_ALL_PROXY"),

		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitAuth:    getEnvInt("RATE_LIMIT_AUTH", 5),
		RateLimitDefault: getEnvInt("RATE_LIMIT_DEFAULT", 300),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
	}

	if cfg.UpstreamTimeout <= 0 {
		return nil, fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got %s", cfg.UpstreamTimeout)
	}
	if cfg.MaxUploadMB < 1 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be at least 1, got %d", cfg.MaxUploadMB)
	}

	// Validate rate limit values
	for _, rl := range []struct {
		name  string
		value int
	}{
		{"RATE_LIMIT_AUTH", cfg.RateLimitAuth},
		{"RATE_LIMIT_DEFAULT", cfg.RateLimitDefault},
	} {
		if rl.value < 1 || rl.value > 10000 {
			return nil, fmt.Errorf("%s must be between 1 and 10000, got %d", rl.name, rl.value)
		}
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvStringList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// normalizeBase adds an http:// prefix if the URL has no scheme and drops
// trailing slashes so path templates can be appended directly.
func normalizeBase(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		url = "http://" + url
	}
	return strings.TrimRight(url, "/")
}
