package fusion

// SideRule configures one decision side: either a named template or an
// inline rule tree. Template wins when both are set.
type SideRule struct {
	Template string                 `yaml:"template"`
	Rule     map[string]interface{} `yaml:"rule"`
}

// Filters are the post-generation entry filters, applied in fixed order:
// ATR regime, ADX strength, minimum volume. A filter whose column is absent
// from the table is a no-op.
type Filters struct {
	UseATRFilter bool    `yaml:"use_atr_filter"`
	UseADXFilter bool    `yaml:"use_adx_filter"`
	MinVolume    float64 `yaml:"min_volume"`
}

// Config is the signal-fusion configuration.
type Config struct {
	FusionMode    string              `yaml:"fusion_mode"` // "rule_based" or "weighted"
	MinConfidence float64             `yaml:"min_confidence"`
	Threshold     float64             `yaml:"threshold"` // weighted mode only
	EntryRules    map[string]SideRule `yaml:"entry_rules"`
	ExitRules     map[string]SideRule `yaml:"exit_rules"`
	Weights       map[string]float64  `yaml:"weights"` // weighted mode only
	Filters       Filters             `yaml:"filters"`
}

const (
	ModeRuleBased = "rule_based"
	ModeWeighted  = "weighted"
)
