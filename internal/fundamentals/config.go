package fundamentals

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// MissingPolicy controls how the gate treats absent metric fields.
type MissingPolicy string

const (
	// MissingPass lets a symbol through a check whose input is absent.
	MissingPass MissingPolicy = "pass"
	// MissingBlock fails a symbol when a check's input is absent.
	MissingBlock MissingPolicy = "block"
)

// Thresholds are the fully resolved valuation/size bounds for one market.
type Thresholds struct {
	PEMin            float64
	PEMax            float64
	PBMax            float64
	CapPercentileMin float64
}

// Override is a partial per-market threshold override; nil fields fall back
// to the global defaults.
type Override struct {
	PEMin            *float64 `yaml:"pe_min"`
	PEMax            *float64 `yaml:"pe_max"`
	PBMax            *float64 `yaml:"pb_max"`
	CapPercentileMin *float64 `yaml:"cap_percentile_min"`
}

// Weights are the relative composite-score weights. They are used as given
// and never renormalized to sum to one.
type Weights struct {
	Size float64
	PE   float64
	PB   float64
}

// GateConfig is the canonical, immutable fundamentals-gate configuration.
// Two historical YAML shapes (the flat layout and the newer layout nesting
// bounds under "thresholds") both normalize into this struct at load time;
// nothing downstream ever sees the raw shapes.
type GateConfig struct {
	Enabled         bool
	MinTurnover     float64
	Global          Thresholds
	Overrides       map[string]Override
	Weights         Weights
	MinScore        float64
	Missing         MissingPolicy
	RefreshPolicy   string
	FallbackMarkets []string
}

// DefaultGateConfig mirrors the defaults the normalizer applies to an empty
// document. Handy for tests and as a fallback when no config is supplied.
func DefaultGateConfig() *GateConfig {
	return &GateConfig{
		Enabled:     true,
		MinTurnover: 50_000_000,
		Global: Thresholds{
			PEMin:            0,
			PEMax:            60,
			PBMax:            10,
			CapPercentileMin: 0.5,
		},
		Overrides:       map[string]Override{},
		Weights:         Weights{Size: 0.4, PE: 0.3, PB: 0.3},
		MinScore:        0.5,
		Missing:         MissingPass,
		RefreshPolicy:   "daily",
		FallbackMarkets: []string{"US", "HK"},
	}
}

// Resolve returns the effective thresholds for a market: the market override
// where present, the global default otherwise.
func (c *GateConfig) Resolve(mkt string) Thresholds {
	eff := c.Global
	ov, ok := c.Overrides[mkt]
	if !ok {
		return eff
	}
	if ov.PEMin != nil {
		eff.PEMin = *ov.PEMin
	}
	if ov.PEMax != nil {
		eff.PEMax = *ov.PEMax
	}
	if ov.PBMax != nil {
		eff.PBMax = *ov.PBMax
	}
	if ov.CapPercentileMin != nil {
		eff.CapPercentileMin = *ov.CapPercentileMin
	}
	return eff
}

// FallbackEligible reports whether the market region may consult the
// fallback provider.
func (c *GateConfig) FallbackEligible(mkt string) bool {
	for _, m := range c.FallbackMarkets {
		if m == mkt {
			return true
		}
	}
	return false
}

// gateConfigYAML accepts both config shapes side by side.
type gateConfigYAML struct {
	Enabled *bool `yaml:"enabled"`

	// New shape: bounds nested under thresholds.
	Thresholds *struct {
		Liquidity map[string]float64  `yaml:"liquidity"`
		Global    *Override           `yaml:"global"`
		Overrides map[string]Override `yaml:"overrides"`
	} `yaml:"thresholds"`
	GateBehaviorOnMissing string `yaml:"gate_behavior_on_missing"`

	// Old flat shape.
	Liquidity map[string]float64  `yaml:"liquidity"`
	Valuation *Override           `yaml:"valuation"`
	Overrides map[string]Override `yaml:"overrides"`
	Size      *struct {
		MinPercentile *float64 `yaml:"min_percentile"`
	} `yaml:"size"`
	MissingDataAction string `yaml:"missing_data_action"`

	// Shared sections.
	Scoring struct {
		Weights *struct {
			Size *float64 `yaml:"size"`
			PE   *float64 `yaml:"pe"`
			PB   *float64 `yaml:"pb"`
		} `yaml:"weights"`
		SizeWeight *float64 `yaml:"size_weight"`
		PEWeight   *float64 `yaml:"pe_weight"`
		PBWeight   *float64 `yaml:"pb_weight"`
		MinScore   *float64 `yaml:"min_score"`
	} `yaml:"scoring"`
	Refresh         string   `yaml:"refresh"`
	FallbackMarkets []string `yaml:"fallback_markets"`
}

// UnmarshalYAML decodes either config shape and normalizes it.
func (c *GateConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw gateConfigYAML
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("failed to decode fundamentals config: %w", err)
	}
	norm, err := normalizeGateConfig(&raw)
	if err != nil {
		return err
	}
	*c = *norm
	return nil
}

// ParseGateConfig normalizes a standalone fundamentals config document.
func ParseGateConfig(data []byte) (*GateConfig, error) {
	var raw gateConfigYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse fundamentals config: %w", err)
	}
	return normalizeGateConfig(&raw)
}

func normalizeGateConfig(raw *gateConfigYAML) (*GateConfig, error) {
	cfg := DefaultGateConfig()

	if raw.Enabled != nil {
		cfg.Enabled = *raw.Enabled
	}
	if raw.Refresh != "" {
		cfg.RefreshPolicy = raw.Refresh
	}
	if raw.FallbackMarkets != nil {
		cfg.FallbackMarkets = raw.FallbackMarkets
	}

	var liquidity map[string]float64
	var global *Override
	missing := ""

	if raw.Thresholds != nil {
		liquidity = raw.Thresholds.Liquidity
		global = raw.Thresholds.Global
		if raw.Thresholds.Overrides != nil {
			cfg.Overrides = raw.Thresholds.Overrides
		}
		missing = raw.GateBehaviorOnMissing
	} else {
		liquidity = raw.Liquidity
		global = raw.Valuation
		if raw.Overrides != nil {
			cfg.Overrides = raw.Overrides
		}
		missing = raw.MissingDataAction
	}

	if v, ok := liquidity["min"]; ok {
		cfg.MinTurnover = v
	} else if v, ok := liquidity["min_turnover_amount"]; ok {
		cfg.MinTurnover = v
	}

	if global != nil {
		if global.PEMin != nil {
			cfg.Global.PEMin = *global.PEMin
		}
		if global.PEMax != nil {
			cfg.Global.PEMax = *global.PEMax
		}
		if global.PBMax != nil {
			cfg.Global.PBMax = *global.PBMax
		}
		if global.CapPercentileMin != nil {
			cfg.Global.CapPercentileMin = *global.CapPercentileMin
		}
	}

	// Legacy size.min_percentile takes precedence over the global bound.
	if raw.Size != nil && raw.Size.MinPercentile != nil {
		cfg.Global.CapPercentileMin = *raw.Size.MinPercentile
	}

	if w := raw.Scoring.Weights; w != nil {
		if w.Size != nil {
			cfg.Weights.Size = *w.Size
		}
		if w.PE != nil {
			cfg.Weights.PE = *w.PE
		}
		if w.PB != nil {
			cfg.Weights.PB = *w.PB
		}
	} else {
		if raw.Scoring.SizeWeight != nil {
			cfg.Weights.Size = *raw.Scoring.SizeWeight
		}
		if raw.Scoring.PEWeight != nil {
			cfg.Weights.PE = *raw.Scoring.PEWeight
		}
		if raw.Scoring.PBWeight != nil {
			cfg.Weights.PB = *raw.Scoring.PBWeight
		}
	}
	if raw.Scoring.MinScore != nil {
		cfg.MinScore = *raw.Scoring.MinScore
	}

	switch missing {
	case "":
		// keep default
	case string(MissingPass):
		cfg.Missing = MissingPass
	case string(MissingBlock):
		cfg.Missing = MissingBlock
	default:
		return nil, fmt.Errorf("invalid missing-data policy %q (want pass or block)", missing)
	}

	if err := validateGateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateGateConfig(cfg *GateConfig) error {
	if cfg.MinTurnover < 0 {
		return fmt.Errorf("invalid min turnover %f (must be >= 0)", cfg.MinTurnover)
	}
	if cfg.Global.PEMax <= cfg.Global.PEMin {
		return fmt.Errorf("invalid PE bounds: max %g <= min %g", cfg.Global.PEMax, cfg.Global.PEMin)
	}
	if cfg.Global.PBMax <= 0 {
		return fmt.Errorf("invalid PB max %g (must be > 0)", cfg.Global.PBMax)
	}
	if cfg.Global.CapPercentileMin < 0 || cfg.Global.CapPercentileMin > 1 {
		return fmt.Errorf("invalid cap percentile min %g (must be in [0,1])", cfg.Global.CapPercentileMin)
	}
	if cfg.Weights.Size < 0 || cfg.Weights.PE < 0 || cfg.Weights.PB < 0 {
		return fmt.Errorf("scoring weights must be non-negative")
	}
	if cfg.MinScore < 0 || cfg.MinScore > 1 {
		return fmt.Errorf("invalid min score %g (must be in [0,1])", cfg.MinScore)
	}
	return nil
}
