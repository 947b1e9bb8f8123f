package rules

import "github.com/equitylab/stockrun/internal/market"

// Evaluate interprets a rule tree against one indicator row. A condition on
// an absent or missing column is false regardless of operator; the evaluator
// never errors. Depth is unbounded; cyclic trees are a caller bug.
func Evaluate(row market.Row, node Node) bool {
	switch n := node.(type) {
	case And:
		for _, child := range n.Children {
			if !Evaluate(row, child) {
				return false
			}
		}
		return true

	case Or:
		for _, child := range n.Children {
			if Evaluate(row, child) {
				return true
			}
		}
		return false

	case Cond:
		return evalCond(row, n)

	default:
		return false
	}
}

func evalCond(row market.Row, c Cond) bool {
	if !row.Has(c.Indicator) {
		return false
	}
	val := row.Get(c.Indicator)
	if val.IsMissing() {
		return false
	}

	// Boolean cells compare directly under ==; any other operator coerces
	// the flag to 0/1 first.
	if got, ok := val.AsBool(); ok {
		if c.Op == OpEq {
			return got == c.Value.Truthy()
		}
		return compare(val.Float(), c.Op, c.Value.Float())
	}

	return compare(val.Float(), c.Op, c.Value.Float())
}

func compare(a float64, op Operator, b float64) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	case OpGt:
		return a > b
	case OpLt:
		return a < b
	case OpGe:
		return a >= b
	case OpLe:
		return a <= b
	default:
		return false
	}
}
