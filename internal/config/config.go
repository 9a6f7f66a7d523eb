package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AnshRaj112/multilink-backend/pkg/utils"
)

const (
	devAccessSecret  = "dev-access-secret-change-me"
	devRefreshSecret = "dev-refresh-secret-change-me"
)

type Config struct {
	Environment string // ENV: production, development, etc.
	Port        string
	LogLevel    string

	MongoURI      string
	MongoDatabase string
	RedisURI      string

	JWTSecret        string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration

	MFAIssuer string
	MFASkew   uint

	EncryptionKey []byte // nil when ENCRYPTION_KEY is unset

	FrontendURL    string
	AllowedOrigins []string
	AllowedHost    string // bare hostname; empty disables the Host check

	RateLimitWindow time.Duration
	RateLimitMax    int
	PublicCacheTTL  time.Duration
	TrustProxy      bool // honour X-Forwarded-For when keying rate limits

	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
}

// Load reads configuration from the environment. Call godotenv.Load first if a
// .env file should be honoured.
func Load() (*Config, error) {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))
	production := env == "production"

	cfg := &Config{
		Environment:         env,
		Port:                getEnv("PORT", "5000"),
		LogLevel:            getEnv("LOG_LEVEL", ""),
		MongoURI:            getEnv("MONGODB_URI", "mongodb://localhost:27017/multilink"),
		RedisURI:            getEnv("REDIS_URI", "redis://localhost:6379/0"),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTRefreshSecret:    getEnv("JWT_REFRESH_SECRET", ""),
		MFAIssuer:           getEnv("MFA_ISSUER", "MultiLink Platform"),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:3000"),
		AllowedHost:         getEnv("ALLOWED_HOST", ""),
		CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
	}
	cfg.MongoDatabase = getEnv("MONGODB_DATABASE", databaseFromURI(cfg.MongoURI, "multilink"))

	if cfg.JWTSecret == "" || cfg.JWTRefreshSecret == "" {
		if production {
			return nil, errors.New("JWT_SECRET and JWT_REFRESH_SECRET are required in production")
		}
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = devAccessSecret
		}
		if cfg.JWTRefreshSecret == "" {
			cfg.JWTRefreshSecret = devRefreshSecret
		}
	}
	if cfg.JWTSecret == cfg.JWTRefreshSecret {
		return nil, errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}

	var err error
	if cfg.AccessTokenTTL, err = getDuration("ACCESS_TOKEN_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.RefreshTokenTTL, err = getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = getDuration("RATE_LIMIT_WINDOW", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.PublicCacheTTL, err = getDuration("PUBLIC_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RateLimitMax, err = getInt("RATE_LIMIT_MAX", 100); err != nil {
		return nil, err
	}
	skew, err := getInt("MFA_SKEW", 1)
	if err != nil {
		return nil, err
	}
	if skew < 0 {
		return nil, fmt.Errorf("MFA_SKEW must not be negative, got %d", skew)
	}
	cfg.MFASkew = uint(skew)

	if raw := getEnv("TRUST_PROXY", ""); raw != "" {
		if cfg.TrustProxy, err = strconv.ParseBool(raw); err != nil {
			return nil, fmt.Errorf("TRUST_PROXY: %w", err)
		}
	}

	if raw := getEnv("ENCRYPTION_KEY", ""); raw != "" {
		key, err := utils.ParseKey(raw)
		if err != nil {
			return nil, fmt.Errorf("ENCRYPTION_KEY: %w", err)
		}
		cfg.EncryptionKey = key
	}

	cfg.AllowedOrigins = parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{cfg.FrontendURL}
	}
	if !containsOrigin(cfg.AllowedOrigins, cfg.FrontendURL) {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, cfg.FrontendURL)
	}

	return cfg, nil
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

// CloudinaryConfigured reports whether all three Cloudinary credentials are present.
func (c *Config) CloudinaryConfigured() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// databaseFromURI extracts the path segment of mongodb://host/db?opts.
func databaseFromURI(uri, fallback string) string {
	rest := uri
	if idx := strings.Index(rest, "://"); idx != -1 {
		rest = rest[idx+3:]
	}
	idx := strings.Index(rest, "/")
	if idx == -1 {
		return fallback
	}
	name := strings.Split(rest[idx+1:], "?")[0]
	if name == "" {
		return fallback
	}
	return name
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, raw)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
