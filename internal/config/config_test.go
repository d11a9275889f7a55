package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ALIC_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.World.Source)
	assert.True(t, cfg.Routing.ConsiderCrossRegion)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
world:
  source: sqlite
  dsn: "file:world.db"
routing:
  consider_cross_region: false
  default_preference: limsa
cache:
  enabled: true
  redis_url: "localhost:6379"
  ttl: 30s
server:
  rest_port: 9000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.World.Source)
	assert.False(t, cfg.Routing.ConsiderCrossRegion)
	assert.Equal(t, "limsa", cfg.Routing.DefaultPreference)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 9000, cfg.Server.GetRESTPort())
	assert.Equal(t, "aetherlink", cfg.Telemetry.ServiceName, "Незаданные поля сохраняют значения по умолчанию")
}

func TestLoad_InvalidSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("world:\n  source: ftp\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestServerConfig_PortFallback(t *testing.T) {
	var s ServerConfig

	t.Setenv("ALIC_REST_PORT", "")
	assert.Equal(t, 8088, s.GetRESTPort())

	t.Setenv("ALIC_REST_PORT", "7000")
	assert.Equal(t, 7000, s.GetRESTPort())

	t.Setenv("ALIC_METRICS_PORT", "не число")
	assert.Equal(t, 2112, s.GetMetricsPort())
}
