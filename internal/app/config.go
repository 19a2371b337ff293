package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/wiseman-psychedelics/wiseman-api/internal/auth"
	"github.com/wiseman-psychedelics/wiseman-api/internal/ratelimit"
)

// MinSecretKeyLength is the shortest accepted signing key.
const MinSecretKeyLength = 32

// ErrConfig marks configuration failures. They abort startup.
var ErrConfig = errors.New("invalid configuration")

// Config holds runtime configuration for the application. It is built once
// by LoadConfig and treated as read-only afterwards.
type Config struct {
	Environment       string        `envconfig:"ENVIRONMENT" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8000"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	SecretKey      string        `envconfig:"SECRET_KEY" required:"true"`
	Algorithm      string        `envconfig:"ALGORITHM" required:"true"`
	AccessTokenTTL time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"30m"`
	BcryptCost     int           `envconfig:"BCRYPT_COST" default:"10"`

	DatabaseURL string        `envconfig:"DATABASE_URL" required:"true"`
	DBTimeout   time.Duration `envconfig:"DB_TIMEOUT" default:"5s"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	RateLimitRegister string `envconfig:"RATE_LIMIT_REGISTER" default:"5/minute"`
	RateLimitLogin    string `envconfig:"RATE_LIMIT_LOGIN" default:"10/minute"`
	RateLimitGeneral  string `envconfig:"RATE_LIMIT_GENERAL" default:"100/hour"`

	FrontendURL  string   `envconfig:"FRONTEND_URL" default:"https://wiseman.vercel.app"`
	TrustedHosts []string `envconfig:"TRUSTED_HOSTS"`
	// TrustedProxy takes the client address from X-Forwarded-For and friends.
	// Only enable it behind a proxy that overwrites those headers.
	TrustedProxy bool `envconfig:"TRUSTED_PROXY" default:"false"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks invariants envconfig cannot express.
func (c *Config) Validate() error {
	var missing []string
	if c.SecretKey == "" {
		missing = append(missing, "SECRET_KEY")
	}
	if c.Algorithm == "" {
		missing = append(missing, "ALGORITHM")
	}
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required environment variables: %s", ErrConfig, strings.Join(missing, ", "))
	}
	if len(c.SecretKey) < MinSecretKeyLength {
		return fmt.Errorf("%w: SECRET_KEY must be at least %d characters long", ErrConfig, MinSecretKeyLength)
	}
	if !auth.SupportedAlgorithm(c.Algorithm) {
		return fmt.Errorf("%w: ALGORITHM %q is not supported (use HS256, HS384 or HS512)", ErrConfig, c.Algorithm)
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("%w: ACCESS_TOKEN_TTL must be positive", ErrConfig)
	}
	if _, err := c.RateLimitPolicies(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return nil
}

// RateLimitPolicies returns the per-class ceilings.
func (c *Config) RateLimitPolicies() (map[ratelimit.Class]ratelimit.Policy, error) {
	policies := ratelimit.DefaultPolicies()
	for class, raw := range map[ratelimit.Class]string{
		ratelimit.ClassRegister: c.RateLimitRegister,
		ratelimit.ClassLogin:    c.RateLimitLogin,
		ratelimit.ClassGeneral:  c.RateLimitGeneral,
	} {
		if raw == "" {
			continue
		}
		policy, err := ratelimit.ParsePolicy(raw)
		if err != nil {
			return nil, err
		}
		policies[class] = policy
	}
	return policies, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.Environment == "production"
}

// UsesMemoryStore reports whether DATABASE_URL selects the in-process directory.
func (c *Config) UsesMemoryStore() bool {
	return c != nil && strings.HasPrefix(c.DatabaseURL, "memory://")
}
