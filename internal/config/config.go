// Package config loads the top-level application configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/equitylab/stockrun/internal/fundamentals"
	"github.com/equitylab/stockrun/internal/fundamentals/provider"
	"github.com/equitylab/stockrun/internal/fusion"
	httpapi "github.com/equitylab/stockrun/internal/interfaces/http"
	"github.com/equitylab/stockrun/internal/scheduler"
)

// Config ties the component configs together. The fundamentals section
// accepts both historical shapes; see fundamentals.GateConfig.
type Config struct {
	Fundamentals fundamentals.GateConfig `yaml:"fundamentals"`
	Strategy     fusion.Config           `yaml:"strategy"`

	Providers struct {
		Primary  provider.Config `yaml:"primary"`
		Fallback provider.Config `yaml:"fallback"`
	} `yaml:"providers"`

	Cache struct {
		Dir       string `yaml:"dir"`
		RedisAddr string `yaml:"redis_addr"`
		KeepDays  int    `yaml:"keep_days"`
	} `yaml:"cache"`

	Realtime struct {
		Symbols    []string         `yaml:"symbols"`
		Timeframes []string         `yaml:"timeframes"`
		DataDir    string           `yaml:"data_dir"`
		Indicators []string         `yaml:"indicators"`
		Schedule   scheduler.Config `yaml:",inline"`
		Cooldown   struct {
			Enabled     bool `yaml:"enabled"`
			PeriodHours int  `yaml:"period_hours"`
		} `yaml:"cooldown"`
	} `yaml:"realtime"`

	Notifications struct {
		Webhook struct {
			Enabled bool   `yaml:"enabled"`
			URL     string `yaml:"url"`
		} `yaml:"webhook"`
	} `yaml:"notifications"`

	Database struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`

	HTTP httpapi.ServerConfig `yaml:"http"`
}

// Load reads and validates the config file. Missing sections fall back to
// component defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := &Config{Fundamentals: *fundamentals.DefaultGateConfig()}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.Realtime.Cooldown.PeriodHours == 0 {
		cfg.Realtime.Cooldown.PeriodHours = 4
	}
	if cfg.Cache.KeepDays == 0 {
		cfg.Cache.KeepDays = 7
	}
	if len(cfg.Realtime.Timeframes) == 0 {
		cfg.Realtime.Timeframes = []string{"1d"}
	}

	return cfg, nil
}
