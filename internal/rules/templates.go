package rules

import "github.com/equitylab/stockrun/internal/market"

// Side names one of the four decision columns a strategy populates.
type Side string

const (
	LongEntry  Side = "long_entry"
	LongExit   Side = "long_exit"
	ShortEntry Side = "short_entry"
	ShortExit  Side = "short_exit"
)

// Sides lists the decision sides in evaluation order.
var Sides = []Side{LongEntry, LongExit, ShortEntry, ShortExit}

// Template is a fixed set of per-side rule trees selectable by name from
// configuration without touching the evaluator.
type Template map[Side]Node

// Rule returns the tree for a side; ok is false when the template does not
// cover that side.
func (t Template) Rule(side Side) (Node, bool) {
	n, ok := t[side]
	return n, ok
}

func num(f float64) market.Value { return market.Number(f) }
func flag(b bool) market.Value   { return market.Bool(b) }

// BuiltinTemplates returns the shipped template set. The map is built fresh
// per call so strategies can extend their copy without sharing state.
func BuiltinTemplates() map[string]Template {
	return map[string]Template{
		// SuperTrend direction + HMA slope + RSI momentum.
		"supertrend_hma": {
			LongEntry: And{Children: []Node{
				Cond{Indicator: "ST_trend", Op: OpEq, Value: num(1)},
				Cond{Indicator: "HMA_slope", Op: OpGt, Value: num(0)},
				Cond{Indicator: "RSI", Op: OpGt, Value: num(50)},
			}},
			LongExit: Or{Children: []Node{
				Cond{Indicator: "ST_flip_down", Op: OpEq, Value: flag(true)},
				Cond{Indicator: "RSI", Op: OpLt, Value: num(45)},
			}},
			ShortEntry: And{Children: []Node{
				Cond{Indicator: "ST_trend", Op: OpEq, Value: num(-1)},
				Cond{Indicator: "HMA_slope", Op: OpLt, Value: num(0)},
				Cond{Indicator: "RSI", Op: OpLt, Value: num(50)},
			}},
			ShortExit: Or{Children: []Node{
				Cond{Indicator: "ST_flip_up", Op: OpEq, Value: flag(true)},
				Cond{Indicator: "RSI", Op: OpGt, Value: num(55)},
			}},
		},

		// SuperTrend direction + QQE cross flags + ADX strength.
		"supertrend_qqe": {
			LongEntry: And{Children: []Node{
				Cond{Indicator: "ST_trend", Op: OpEq, Value: num(1)},
				Cond{Indicator: "QQE_long", Op: OpEq, Value: flag(true)},
				Cond{Indicator: "ADX_strong", Op: OpEq, Value: flag(true)},
			}},
			LongExit: Or{Children: []Node{
				Cond{Indicator: "ST_flip_down", Op: OpEq, Value: flag(true)},
				Cond{Indicator: "QQE_short", Op: OpEq, Value: flag(true)},
			}},
			ShortEntry: And{Children: []Node{
				Cond{Indicator: "ST_trend", Op: OpEq, Value: num(-1)},
				Cond{Indicator: "QQE_short", Op: OpEq, Value: flag(true)},
				Cond{Indicator: "ADX_strong", Op: OpEq, Value: flag(true)},
			}},
			ShortExit: Or{Children: []Node{
				Cond{Indicator: "ST_flip_up", Op: OpEq, Value: flag(true)},
				Cond{Indicator: "QQE_long", Op: OpEq, Value: flag(true)},
			}},
		},

		// Legacy TSI crossover + EWO sign agreement.
		"tsi_ewo": {
			LongEntry: And{Children: []Node{
				Cond{Indicator: "TSI_crossover", Op: OpEq, Value: flag(true)},
				Cond{Indicator: "EWO", Op: OpGt, Value: num(0)},
			}},
			LongExit: Or{Children: []Node{
				Cond{Indicator: "TSI_crossunder", Op: OpEq, Value: flag(true)},
				Cond{Indicator: "EWO", Op: OpLt, Value: num(0)},
			}},
			ShortEntry: And{Children: []Node{
				Cond{Indicator: "TSI_crossunder", Op: OpEq, Value: flag(true)},
				Cond{Indicator: "EWO", Op: OpLt, Value: num(0)},
			}},
			ShortExit: Or{Children: []Node{
				Cond{Indicator: "TSI_crossover", Op: OpEq, Value: flag(true)},
				Cond{Indicator: "EWO", Op: OpGt, Value: num(0)},
			}},
		},
	}
}
