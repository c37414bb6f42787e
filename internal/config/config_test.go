package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrochat-core/server/internal/core"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, core.Development, cfg.Env())
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "ollama", cfg.Engine.Provider)
	assert.Empty(t, cfg.Engine.Model)
	assert.True(t, cfg.Engine.Warmup)
	assert.Equal(t, 512, cfg.Engine.MaxTokens)
	assert.Equal(t, float32(0.1), cfg.Optimizer.Temperature)
	assert.Equal(t, "http://127.0.0.1:5000/generate", cfg.Router.URL)
	assert.Zero(t, cfg.Router.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "127.0.0.1:5000", cfg.Server.Addr)
	assert.Equal(t, 2.0, cfg.Server.WaterPerDegree)
	assert.Equal(t, 10*time.Minute, cfg.Server.WeatherCacheTTL)
}

func TestLoadFromEnvAndFile(t *testing.T) {
	t.Setenv("ROUTER_URL", "http://router.internal/generate")
	t.Setenv("OPTIMIZER_TEMPERATURE", "0.3")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ENGINE_PROVIDER", "gemini")
	t.Setenv("ENGINE_MODEL", "gemini-2.5-flash")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("ENVIRONMENT=prod\nWATER_PER_DEGREE_ML=3.5\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("ENVIRONMENT")
		os.Unsetenv("WATER_PER_DEGREE_ML")
	})

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, core.Production, cfg.Env())
	assert.Equal(t, "http://router.internal/generate", cfg.Router.URL)
	assert.Equal(t, float32(0.3), cfg.Optimizer.Temperature)
	assert.Equal(t, 3.5, cfg.Server.WaterPerDegree)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "gemini", cfg.Engine.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.Engine.Model)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("SESSION_TTL", "forever")
	_, err := Load("")
	assert.Error(t, err)
}
