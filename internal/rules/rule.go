package rules

import (
	"fmt"

	"github.com/equitylab/stockrun/internal/market"
)

// Operator is a comparison operator usable in a condition node.
type Operator string

const (
	OpEq Operator = "=="
	OpNe Operator = "!="
	OpGt Operator = ">"
	OpLt Operator = "<"
	OpGe Operator = ">="
	OpLe Operator = "<="
)

func (op Operator) valid() bool {
	switch op {
	case OpEq, OpNe, OpGt, OpLt, OpGe, OpLe:
		return true
	}
	return false
}

// Node is a closed rule-tree variant: Cond, And, or Or. Trees are built once
// from configuration at strategy construction and are read-only afterwards.
type Node interface {
	node()
}

// Cond compares one indicator column against a scalar.
type Cond struct {
	Indicator string
	Op        Operator
	Value     market.Value
}

// And is true iff every child is true. An empty child list is vacuously true.
type And struct {
	Children []Node
}

// Or is true iff any child is true. An empty child list is false.
type Or struct {
	Children []Node
}

func (Cond) node() {}
func (And) node()  {}
func (Or) node()   {}

// Parse builds a rule tree from a decoded configuration map:
//
//	{type: condition, indicator: RSI, operator: ">", value: 50}
//	{type: and|or, rules: [...]}
//
// A missing type defaults to condition.
func Parse(raw map[string]interface{}) (Node, error) {
	kind, _ := raw["type"].(string)
	if kind == "" {
		kind = "condition"
	}

	switch kind {
	case "and", "or":
		children, err := parseChildren(raw["rules"])
		if err != nil {
			return nil, err
		}
		if kind == "and" {
			return And{Children: children}, nil
		}
		return Or{Children: children}, nil

	case "condition":
		indicator, _ := raw["indicator"].(string)
		if indicator == "" {
			return nil, fmt.Errorf("condition is missing an indicator name")
		}
		op := OpEq
		if s, ok := raw["operator"].(string); ok && s != "" {
			op = Operator(s)
		}
		if !op.valid() {
			return nil, fmt.Errorf("unknown operator %q for indicator %s", op, indicator)
		}
		val, err := parseScalar(raw["value"])
		if err != nil {
			return nil, fmt.Errorf("bad value for indicator %s: %w", indicator, err)
		}
		return Cond{Indicator: indicator, Op: op, Value: val}, nil

	default:
		return nil, fmt.Errorf("unknown rule type %q", kind)
	}
}

func parseChildren(raw interface{}) ([]Node, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("rules list has unexpected type %T", raw)
	}
	children := make([]Node, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("rule %d has unexpected type %T", i, item)
		}
		child, err := Parse(m)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		children = append(children, child)
	}
	return children, nil
}

func parseScalar(raw interface{}) (market.Value, error) {
	switch v := raw.(type) {
	case nil:
		return market.Missing(), fmt.Errorf("value is required")
	case bool:
		return market.Bool(v), nil
	case int:
		return market.Number(float64(v)), nil
	case int64:
		return market.Number(float64(v)), nil
	case float64:
		return market.Number(v), nil
	default:
		return market.Missing(), fmt.Errorf("unsupported scalar type %T", raw)
	}
}
