package market

import "math"

// Kind discriminates the scalar types an indicator cell can hold.
type Kind int

const (
	KindMissing Kind = iota
	KindNumber
	KindBool
)

// Value is one indicator cell: a number, a boolean, or missing.
// Missing means the calculator produced no value for this bar, which is
// distinct from zero or false.
type Value struct {
	kind Kind
	num  float64
	b    bool
}

// Number wraps a float. NaN and Inf collapse to missing so downstream
// comparisons never see them.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// Bool wraps a boolean flag column value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Missing returns the absent value.
func Missing() Value {
	return Value{}
}

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Float coerces the value to a number: booleans become 0/1, missing
// becomes NaN.
func (v Value) Float() float64 {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	default:
		return math.NaN()
	}
}

// AsBool reports the boolean payload; ok is false unless the value is
// boolean-typed.
func (v Value) AsBool() (val bool, ok bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Truthy reports whether the value is a true flag or a non-zero number.
// Missing is never truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.num != 0
	default:
		return false
	}
}
