package app

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wiseman-psychedelics/wiseman-api/internal/ratelimit"
)

const validSecret = "0123456789abcdef0123456789abcdef"

func setBaseEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENVIRONMENT", "APP_ADDR", "LOG_FORMAT", "ACCESS_TOKEN_TTL", "BCRYPT_COST",
		"REDIS_ADDR", "RATE_LIMIT_REGISTER", "RATE_LIMIT_LOGIN", "RATE_LIMIT_GENERAL",
		"FRONTEND_URL", "TRUSTED_HOSTS", "TRUSTED_PROXY", "DB_TIMEOUT",
	} {
		unsetEnv(t, key)
	}
	t.Setenv("SECRET_KEY", validSecret)
	t.Setenv("ALGORITHM", "HS256")
	t.Setenv("DATABASE_URL", "memory://")
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadConfigDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, "HS256", cfg.Algorithm)
	assert.True(t, cfg.UsesMemoryStore())
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.TrustedProxy)

	policies, err := cfg.RateLimitPolicies()
	require.NoError(t, err)
	assert.Equal(t, ratelimit.DefaultPolicies(), policies)
}

func TestLoadConfigOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("RATE_LIMIT_LOGIN", "3/minute")
	t.Setenv("TRUSTED_HOSTS", "api.example.com,example.com")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/wiseman")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.UsesMemoryStore())
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, []string{"api.example.com", "example.com"}, cfg.TrustedHosts)

	policies, err := cfg.RateLimitPolicies()
	require.NoError(t, err)
	assert.Equal(t, ratelimit.Policy{Limit: 3, Window: time.Minute}, policies[ratelimit.ClassLogin])
	assert.Equal(t, ratelimit.Policy{Limit: 5, Window: time.Minute}, policies[ratelimit.ClassRegister])
}

func TestLoadConfigFailsFast(t *testing.T) {
	cases := []struct {
		name    string
		key     string
		value   string
		message string
	}{
		{"missing secret", "SECRET_KEY", "", "SECRET_KEY"},
		{"missing algorithm", "ALGORITHM", "", "ALGORITHM"},
		{"missing database", "DATABASE_URL", "", "DATABASE_URL"},
		{"short secret", "SECRET_KEY", "too-short", "at least 32"},
		{"unsupported algorithm", "ALGORITHM", "RS256", "not supported"},
		{"non-positive ttl", "ACCESS_TOKEN_TTL", "0s", "ACCESS_TOKEN_TTL"},
		{"bad policy", "RATE_LIMIT_REGISTER", "lots", "lots"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setBaseEnv(t)
			if tc.value == "" {
				unsetEnv(t, tc.key)
			} else {
				t.Setenv(tc.key, tc.value)
			}

			cfg, err := LoadConfig()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.ErrorIs(t, err, ErrConfig)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestValidateListsEveryMissingVariable(t *testing.T) {
	err := (&Config{AccessTokenTTL: time.Minute}).Validate()
	require.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "SECRET_KEY, ALGORITHM, DATABASE_URL")
}
