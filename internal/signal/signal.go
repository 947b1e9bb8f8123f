package signal

import (
	"time"

	"github.com/google/uuid"
)

// Side is the direction of a decision signal. SUPPRESSED marks a symbol the
// fundamentals gate vetoed before technical evaluation.
type Side string

const (
	SideLong       Side = "LONG"
	SideShort      Side = "SHORT"
	SideSuppressed Side = "SUPPRESSED"
)

// Signal is one extracted decision for the latest bar of a table. Immutable
// once built.
type Signal struct {
	ID         string    `json:"id" db:"id"`
	Timestamp  time.Time `json:"timestamp" db:"ts"`
	Symbol     string    `json:"symbol" db:"symbol"`
	Timeframe  string    `json:"timeframe" db:"timeframe"`
	Side       Side      `json:"side" db:"side"`
	Price      float64   `json:"price" db:"price"`
	Confidence float64   `json:"confidence" db:"confidence"`
	Reason     string    `json:"reason" db:"reason"`
}

// New builds a signal with a fresh ID.
func New(ts time.Time, symbol, timeframe string, side Side, price, confidence float64, reason string) Signal {
	return Signal{
		ID:         uuid.NewString(),
		Timestamp:  ts,
		Symbol:     symbol,
		Timeframe:  timeframe,
		Side:       side,
		Price:      price,
		Confidence: confidence,
		Reason:     reason,
	}
}
