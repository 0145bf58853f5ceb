package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BathiyaRanasinghe/safe-zone/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	require.NotEmpty(t, cfg.Database.URL)
	require.Greater(t, cfg.RateLimit.QPS, 0.0)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/mibs")
	t.Setenv("RATE_LIMIT_QPS", "7.5")
	t.Setenv("RATE_LIMIT_BURST", "3")

	cfg, err := config.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "9999", cfg.Server.Port)
	require.Equal(t, "postgres://u:p@db:5432/mibs", cfg.Database.URL)
	require.Equal(t, 7.5, cfg.RateLimit.QPS)
	require.Equal(t, 3, cfg.RateLimit.Burst)
}
