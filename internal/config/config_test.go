package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnvHelpers(t *testing.T) {
	t.Run("envBool", func(t *testing.T) {
		t.Setenv("X_BOOL", "yes")
		require.True(t, envBool("X_BOOL", false))
		t.Setenv("X_BOOL", "0")
		require.False(t, envBool("X_BOOL", true))
		t.Setenv("X_BOOL", "maybe")
		require.True(t, envBool("X_BOOL", true))
		require.False(t, envBool("X_BOOL_UNSET", false))
	})

	t.Run("envDur", func(t *testing.T) {
		t.Setenv("X_DUR", "250ms")
		require.Equal(t, 250*time.Millisecond, envDur("X_DUR", time.Second))
		t.Setenv("X_DUR", "nonsense")
		require.Equal(t, time.Second, envDur("X_DUR", time.Second))
	})

	t.Run("parseDur falls back to a second", func(t *testing.T) {
		require.Equal(t, time.Second, parseDur("bogus"))
		require.Equal(t, 30*time.Second, parseDur("30s"))
	})
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	require.Equal(t, 1, cfg.Capacity)
	require.Equal(t, 1, cfg.RefillTokens)
	require.Equal(t, 2*time.Second, cfg.RefillInterval)
	// TTL is raised to five refill intervals so idle buckets expire.
	require.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadCacheConfigDefaults(t *testing.T) {
	cfg := LoadCacheConfig()
	require.True(t, cfg.Enabled)
	require.Equal(t, 15*time.Second, cfg.TTL)
	require.Equal(t, "cache", cfg.Prefix)
	require.Equal(t, 1048576, cfg.MaxBodyBytes)
}
