package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "data-harvested", cfg.Harvest.Marker)
	assert.Equal(t, 100, cfg.Harvest.DefaultMaxCount)
	assert.Equal(t, "output", cfg.Export.OutputDir)
	assert.Equal(t, []string{"Image", "Font", "Media"}, cfg.Scraper.BlockedResourceTypes)
	assert.Empty(t, cfg.ProfilesPath)
	assert.Empty(t, cfg.Webhook.URL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HARVEST_PORT", "9090")
	t.Setenv("HARVEST_HEADLESS", "false")
	t.Setenv("HARVEST_PACE_RPS", "2.5")
	t.Setenv("HARVEST_SETTLE_DELAY", "1s")
	t.Setenv("HARVEST_API_KEYS", " a , b ,,c")
	t.Setenv("HARVEST_PROFILES", "/etc/reviewharvest/sites.yaml")
	t.Setenv("HARVEST_SHUTDOWN_TIMEOUT", "2m")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.Browser.Headless)
	assert.InDelta(t, 2.5, cfg.Harvest.PaceRPS, 1e-9)
	assert.Equal(t, time.Second, cfg.Harvest.SettleDelay)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Auth.APIKeys)
	assert.Equal(t, "/etc/reviewharvest/sites.yaml", cfg.ProfilesPath)
	assert.Equal(t, 2*time.Minute, cfg.Server.ShutdownTimeout)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("HARVEST_PORT", "eighty")
	t.Setenv("HARVEST_NO_SANDBOX", "maybe")
	t.Setenv("HARVEST_RUN_TIMEOUT", "forever")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Browser.NoSandbox)
	assert.Equal(t, 10*time.Minute, cfg.Scraper.RunTimeout)
}
