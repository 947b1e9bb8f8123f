package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equitylab/stockrun/internal/fundamentals"
)

const sampleConfig = `
fundamentals:
  enabled: true
  thresholds:
    liquidity:
      min: 30000000
    global:
      pe_max: 45
  scoring:
    weights:
      size: 0.5
      pe: 0.25
      pb: 0.25
strategy:
  fusion_mode: rule_based
  min_confidence: 0.4
  entry_rules:
    long_entry:
      template: supertrend_hma
providers:
  primary:
    type: http
    name: snapshots
    url: http://localhost:9000/fundamentals
cache:
  dir: /tmp/stockrun-cache
realtime:
  symbols: [AAPL, MSFT]
  data_dir: /tmp/stockrun-data
  scan_schedule: "@every 15m"
  cooldown:
    enabled: true
notifications:
  webhook:
    enabled: true
    url: http://localhost:9001/hook
`

func writeConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stockrun.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.True(t, cfg.Fundamentals.Enabled)
	assert.Equal(t, 30_000_000.0, cfg.Fundamentals.MinTurnover)
	assert.Equal(t, 45.0, cfg.Fundamentals.Global.PEMax)
	assert.Equal(t, fundamentals.Weights{Size: 0.5, PE: 0.25, PB: 0.25}, cfg.Fundamentals.Weights)

	assert.Equal(t, "rule_based", cfg.Strategy.FusionMode)
	assert.Equal(t, 0.4, cfg.Strategy.MinConfidence)
	assert.Contains(t, cfg.Strategy.EntryRules, "long_entry")

	assert.Equal(t, "http", cfg.Providers.Primary.Type)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Realtime.Symbols)
	assert.Equal(t, "@every 15m", cfg.Realtime.Schedule.ScanSchedule)
	assert.True(t, cfg.Notifications.Webhook.Enabled)

	// Defaults fill unset sections.
	assert.Equal(t, 4, cfg.Realtime.Cooldown.PeriodHours)
	assert.Equal(t, 7, cfg.Cache.KeepDays)
	assert.Equal(t, []string{"1d"}, cfg.Realtime.Timeframes)
}

func TestLoadMinimalDocument(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}"))
	require.NoError(t, err)

	// An empty document is a fully defaulted config.
	assert.Equal(t, *fundamentals.DefaultGateConfig(), cfg.Fundamentals)
	assert.Empty(t, cfg.Providers.Primary.Type)
	assert.Empty(t, cfg.Database.DSN)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "fundamentals: {missing_data_action: maybe}"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, ":::"))
	assert.Error(t, err)
}
