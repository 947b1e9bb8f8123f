package fusion

import (
	"fmt"
	"math"
	"strings"

	"github.com/equitylab/stockrun/internal/market"
	"github.com/equitylab/stockrun/internal/signal"
)

// CalculateConfidence scores signal quality on the latest bar from up to
// five independent contributions: trend direction, HMA slope magnitude, RSI
// deviation from midpoint, ADX strength, and QQE agreement. Each counts only
// when its source column is present; with fewer than five available the
// accumulated score is rescaled by 5/available so sparse indicator
// configurations are not penalized. The result is clamped to [0, 1].
func (s *Strategy) CalculateConfidence(row market.Row) float64 {
	confidence := 0.0
	available := 0

	if v := row.Get("ST_trend"); !v.IsMissing() {
		if v.Float() != 0 {
			confidence += 0.25
		}
		available++
	}

	if v := row.Get("HMA_slope"); !v.IsMissing() {
		strength := math.Min(math.Abs(v.Float())/0.1, 1.0)
		confidence += strength * 0.2
		available++
	}

	if v := row.Get("RSI"); !v.IsMissing() {
		deviation := math.Abs(v.Float()-50) / 50
		confidence += deviation * 0.2
		available++
	}

	if v := row.Get("ADX"); !v.IsMissing() {
		strength := math.Min(v.Float()/50, 1.0)
		confidence += strength * 0.2
		available++
	}

	if row.Has("QQE_long") || row.Has("QQE_short") {
		if row.Flag("QQE_long") || row.Flag("QQE_short") {
			confidence += 0.15
		}
		available++
	}

	if available > 0 && available < 5 {
		confidence *= 5 / float64(available)
	}

	return math.Min(confidence, 1.0)
}

// signalReason builds the compact human-readable indicator summary attached
// to an emitted signal.
func signalReason(row market.Row, side signal.Side) string {
	var reasons []string

	switch side {
	case signal.SideLong:
		if row.Num("ST_trend", 0) == 1 {
			reasons = append(reasons, "ST↑")
		}
		if row.Num("HMA_slope", 0) > 0 {
			reasons = append(reasons, fmt.Sprintf("HMA↗%.2f%%", row.Num("HMA_slope_pct", 0)))
		}
		if row.Has("RSI") {
			reasons = append(reasons, fmt.Sprintf("RSI=%.0f", row.Num("RSI", 0)))
		}
		if row.Flag("QQE_long") {
			reasons = append(reasons, "QQE+")
		}
		if row.Flag("ADX_strong") {
			reasons = append(reasons, fmt.Sprintf("ADX=%.0f", row.Num("ADX", 0)))
		}

	case signal.SideShort:
		if row.Num("ST_trend", 0) == -1 {
			reasons = append(reasons, "ST↓")
		}
		if row.Num("HMA_slope", 0) < 0 {
			reasons = append(reasons, fmt.Sprintf("HMA↘%.2f%%", row.Num("HMA_slope_pct", 0)))
		}
		if row.Has("RSI") {
			reasons = append(reasons, fmt.Sprintf("RSI=%.0f", row.Num("RSI", 0)))
		}
		if row.Flag("QQE_short") {
			reasons = append(reasons, "QQE-")
		}
		if row.Flag("ADX_strong") {
			reasons = append(reasons, fmt.Sprintf("ADX=%.0f", row.Num("ADX", 0)))
		}
	}

	if len(reasons) == 0 {
		return "signal_triggered"
	}
	return strings.Join(reasons, ", ")
}
