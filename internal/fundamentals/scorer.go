package fundamentals

import (
	"fmt"
	"strconv"
)

// Stable reason tokens. Failure tokens that embed measurements keep the
// token prefix stable and append "value<threshold" style detail after a
// colon, so both humans and tests can key off them.
const (
	ReasonPassed             = "passed"
	ReasonDisabled           = "fundamentals_disabled"
	ReasonNoData             = "no_fundamentals_data"
	ReasonLiquidityMissing   = "liquidity_data_missing"
	ReasonLiquidityTooLow    = "liquidity_too_low"
	ReasonPEMissing          = "pe_data_missing"
	ReasonPEOutOfRange       = "pe_out_of_range"
	ReasonPBMissing          = "pb_data_missing"
	ReasonPBTooHigh          = "pb_too_high"
	ReasonCapMissing         = "market_cap_missing"
	ReasonCapPercentileLow   = "market_cap_percentile_too_low"
	ReasonCompositeScoreLow  = "composite_score_too_low"
	ReasonGateFailedPrefix   = "fundamentals_gate_failed"
	ReasonGateNotConfigured  = "fundamentals_not_configured"
	ReasonFundamentalsPassed = "fundamentals_passed"
)

// GateResult is the scorer verdict for one symbol.
type GateResult struct {
	Passes bool    `json:"passes"`
	Reason string  `json:"reason"`
	Score  float64 `json:"score"`
}

// ReasonCode strips the measurement detail from a reason, leaving the stable
// token ("liquidity_too_low:123<456" becomes "liquidity_too_low").
func ReasonCode(reason string) string {
	for i := 0; i < len(reason); i++ {
		if reason[i] == ':' {
			return reason[:i]
		}
	}
	return reason
}

// Scorer evaluates the fundamentals admission gate. It is a pure function
// of its inputs; all state lives in the immutable config.
type Scorer struct {
	cfg *GateConfig
}

func NewScorer(cfg *GateConfig) *Scorer {
	if cfg == nil {
		cfg = DefaultGateConfig()
	}
	return &Scorer{cfg: cfg}
}

// Evaluate runs the gate pipeline for one symbol: liquidity, valuation,
// size percentile, then the composite score. Each stage short-circuits on
// failure; liquidity and valuation failures zero the score even though a
// partial composite would be computable, because downstream ranking treats
// hard-gated symbols as unrankable.
func (s *Scorer) Evaluate(symbol string, m MetricsRecord, mkt string, peerCaps []*float64) GateResult {
	_ = symbol // the verdict depends only on metrics, market and peers

	if !s.cfg.Enabled {
		return GateResult{Passes: true, Reason: ReasonDisabled, Score: 1.0}
	}

	if ok, reason := s.checkLiquidity(m); !ok {
		return GateResult{Reason: reason}
	}

	eff := s.cfg.Resolve(mkt)

	if ok, reason := s.checkValuation(m, eff); !ok {
		return GateResult{Reason: reason}
	}

	ok, reason, sizePct := s.checkSize(m, peerCaps, eff)
	if !ok {
		return GateResult{Reason: reason, Score: sizePct}
	}

	score := s.compositeScore(m, sizePct, eff)
	if score < s.cfg.MinScore {
		return GateResult{
			Reason: fmt.Sprintf("%s:%.2f<%s", ReasonCompositeScoreLow, score, trimFloat(s.cfg.MinScore)),
			Score:  score,
		}
	}

	return GateResult{Passes: true, Reason: ReasonPassed, Score: score}
}

func (s *Scorer) checkLiquidity(m MetricsRecord) (bool, string) {
	if m.Turnover20dAvg == nil {
		if s.cfg.Missing == MissingPass {
			return true, "liquidity_missing_passed"
		}
		return false, ReasonLiquidityMissing
	}
	if *m.Turnover20dAvg < s.cfg.MinTurnover {
		return false, fmt.Sprintf("%s:%.0f<%s", ReasonLiquidityTooLow, *m.Turnover20dAvg, trimFloat(s.cfg.MinTurnover))
	}
	return true, "liquidity_ok"
}

func (s *Scorer) checkValuation(m MetricsRecord, eff Thresholds) (bool, string) {
	if m.PE != nil {
		// Exclusive lower bound, inclusive upper bound.
		if *m.PE <= eff.PEMin || *m.PE > eff.PEMax {
			return false, fmt.Sprintf("%s:%.2f_not_in_(%s,%s]",
				ReasonPEOutOfRange, *m.PE, trimFloat(eff.PEMin), trimFloat(eff.PEMax))
		}
	} else if s.cfg.Missing == MissingBlock {
		return false, ReasonPEMissing
	}

	if m.PB != nil {
		if *m.PB > eff.PBMax {
			return false, fmt.Sprintf("%s:%.2f>%s", ReasonPBTooHigh, *m.PB, trimFloat(eff.PBMax))
		}
	} else if s.cfg.Missing == MissingBlock {
		return false, ReasonPBMissing
	}

	return true, "valuation_ok"
}

func (s *Scorer) checkSize(m MetricsRecord, peerCaps []*float64, eff Thresholds) (bool, string, float64) {
	if m.MarketCap == nil {
		if s.cfg.Missing == MissingPass {
			return true, "market_cap_missing_passed", 0.5
		}
		return false, ReasonCapMissing, 0.0
	}

	valid := 0
	atOrBelow := 0
	for _, cap := range peerCaps {
		if cap == nil {
			continue
		}
		valid++
		if *cap <= *m.MarketCap {
			atOrBelow++
		}
	}
	if valid == 0 {
		return true, "no_comparison_data", 0.5
	}

	percentile := float64(atOrBelow) / float64(valid)
	if percentile < eff.CapPercentileMin {
		return false, fmt.Sprintf("%s:%.2f<%s", ReasonCapPercentileLow, percentile, trimFloat(eff.CapPercentileMin)), percentile
	}
	return true, "size_ok", percentile
}

func (s *Scorer) compositeScore(m MetricsRecord, sizePct float64, eff Thresholds) float64 {
	// Missing or non-positive ratios score a neutral 0.5.
	peScore := 0.5
	if m.PE != nil && *m.PE > 0 {
		peScore = clamp01((eff.PEMax - *m.PE) / eff.PEMax)
	}
	pbScore := 0.5
	if m.PB != nil && *m.PB > 0 {
		pbScore = clamp01((eff.PBMax - *m.PB) / eff.PBMax)
	}

	w := s.cfg.Weights
	return w.Size*sizePct + w.PE*peScore + w.PB*pbScore
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// trimFloat prints a threshold without exponent notation or trailing zeros,
// keeping reason tokens readable ("0.5", "50000000").
func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
