// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration. Static per process lifetime.
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Collaborators
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)
	RedisURL    string // Counter store (optional, uses in-process counters if not set)

	// Trust resolution
	TrustMode          string   // jwt-only | disabled | signed | internal-network
	JWTSecret          string   // HS256 secret for the token path
	TenantHeaderSecret string   // HMAC secret for signed tenant headers (required iff TrustMode=signed)
	TrustedNetworks    []string // CIDRs for internal-network mode; empty uses private defaults
	TrustedProxies     []string // CIDRs of proxies whose X-Forwarded-For is believed; empty trusts none
	RequireTenant      bool     // whether resolution is mandatory on tenant routes
	RequireTenantClaim bool     // reject tokens without a tenant_id claim

	// Status gating
	AllowSuspended   bool
	AllowMaintenance bool

	// Directory cache
	CacheTTL time.Duration

	// Rate limiting (unauthenticated traffic)
	RateLimitRPM   int
	RateLimitBurst int

	// Observability
	OTLPEndpoint   string
	AllowedOrigins []string
}

const (
	DefaultPort           = "8080"
	DefaultEnv            = "development"
	DefaultLogLevel       = "info"
	DefaultTrustMode      = "jwt-only"
	DefaultCacheTTLSecs   = 60
	DefaultRateLimitRPM   = 30
	DefaultRateLimitBurst = 6
)

// Load reads configuration from environment variables.
// It loads .env file if present (for local development).
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", DefaultPort),
		Env:                getEnv("ENV", DefaultEnv),
		LogLevel:           getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		TrustMode:          getEnv("TRUST_MODE", DefaultTrustMode),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		TenantHeaderSecret: os.Getenv("TENANT_HEADER_SECRET"),
		TrustedNetworks:    splitList(os.Getenv("TRUSTED_NETWORKS")),
		TrustedProxies:     splitList(os.Getenv("TRUSTED_PROXIES")),
		RequireTenant:      getEnvBool("REQUIRE_TENANT", true),
		RequireTenantClaim: getEnvBool("REQUIRE_TENANT_CLAIM", true),
		AllowSuspended:     getEnvBool("ALLOW_SUSPENDED", false),
		AllowMaintenance:   getEnvBool("ALLOW_MAINTENANCE", false),
		CacheTTL:           time.Duration(getEnvInt("CACHE_TTL_SECONDS", DefaultCacheTTLSecs)) * time.Second,
		RateLimitRPM:       getEnvInt("RATE_LIMIT_RPM", DefaultRateLimitRPM),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", DefaultRateLimitBurst),
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", "*")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present. Trust-mode
// misconfiguration must fail at startup, not on the first request.
func (c *Config) Validate() error {
	switch c.TrustMode {
	case "jwt-only", "disabled", "signed", "internal-network":
	default:
		return fmt.Errorf("TRUST_MODE %q is not one of jwt-only, disabled, signed, internal-network", c.TrustMode)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.TrustMode == "signed" && c.TenantHeaderSecret == "" {
		return fmt.Errorf("TENANT_HEADER_SECRET is required when TRUST_MODE is signed")
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must be positive")
	}
	if c.RateLimitRPM <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPM must be positive")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
