package fundamentals

import "strings"

// MetricsRecord is one provider snapshot for a symbol. Nil means the
// provider had no value, which is distinct from zero. Records are built once
// per evaluation and never mutated after the merge step.
type MetricsRecord struct {
	PE             *float64 `json:"pe,omitempty" yaml:"pe,omitempty"`
	PB             *float64 `json:"pb,omitempty" yaml:"pb,omitempty"`
	MarketCap      *float64 `json:"market_cap,omitempty" yaml:"market_cap,omitempty"`
	Turnover20dAvg *float64 `json:"turnover_20d_avg,omitempty" yaml:"turnover_20d_avg,omitempty"`
	Volume         *float64 `json:"volume,omitempty" yaml:"volume,omitempty"`
}

// Float is a pointer helper for building records.
func Float(v float64) *float64 { return &v }

// Empty reports whether every field is absent, i.e. no provider produced
// anything for the symbol.
func (m MetricsRecord) Empty() bool {
	return m.PE == nil && m.PB == nil && m.MarketCap == nil &&
		m.Turnover20dAvg == nil && m.Volume == nil
}

// MissingCritical reports whether any of the fields the scorer leans on
// hardest (PE, PB, market cap) is still absent. It drives fallback-provider
// consultation.
func (m MetricsRecord) MissingCritical() bool {
	return m.PE == nil || m.PB == nil || m.MarketCap == nil
}

// MergeMissing fills absent fields from other. Fields the primary already
// supplied are never overwritten.
func (m *MetricsRecord) MergeMissing(other MetricsRecord) {
	if m.PE == nil {
		m.PE = other.PE
	}
	if m.PB == nil {
		m.PB = other.PB
	}
	if m.MarketCap == nil {
		m.MarketCap = other.MarketCap
	}
	if m.Turnover20dAvg == nil {
		m.Turnover20dAvg = other.Turnover20dAvg
	}
	if m.Volume == nil {
		m.Volume = other.Volume
	}
}

// MarketFromSymbol infers the market region from a symbol prefix:
// "HK.00700" is HK, "CN.600519" is CN, a bare ticker defaults to US.
func MarketFromSymbol(symbol string) string {
	if i := strings.IndexByte(symbol, '.'); i > 0 {
		return symbol[:i]
	}
	return "US"
}
