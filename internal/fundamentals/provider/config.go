package provider

import (
	"fmt"

	"github.com/equitylab/stockrun/internal/fundamentals"
)

// Config describes one provider slot (primary or fallback).
type Config struct {
	Type       string  `yaml:"type"` // "file" or "http"
	Name       string  `yaml:"name"`
	Path       string  `yaml:"path"`
	URL        string  `yaml:"url"`
	RatePerSec float64 `yaml:"rate_per_sec"`
	Burst      int     `yaml:"burst"`
}

// FromConfig builds a provider and wraps it with the standard breaker and
// rate limiter. A zero config yields a nil provider (slot unused).
func FromConfig(cfg Config) (fundamentals.Provider, error) {
	if cfg.Type == "" {
		return nil, nil
	}

	var base fundamentals.Provider
	switch cfg.Type {
	case "file":
		if cfg.Path == "" {
			return nil, fmt.Errorf("file provider %q needs a path", cfg.Name)
		}
		p, err := NewFixture(orDefault(cfg.Name, "fixture"), cfg.Path)
		if err != nil {
			return nil, err
		}
		base = p
	case "http":
		if cfg.URL == "" {
			return nil, fmt.Errorf("http provider %q needs a url", cfg.Name)
		}
		base = NewHTTP(orDefault(cfg.Name, "http"), cfg.URL)
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}

	return NewRateLimited(NewBreaker(base), cfg.RatePerSec, cfg.Burst), nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
