package persistence

import (
	"context"
	"time"

	"github.com/equitylab/stockrun/internal/fundamentals"
	"github.com/equitylab/stockrun/internal/signal"
)

// WhitelistEntry is one persisted gate verdict.
type WhitelistEntry struct {
	Timestamp time.Time `json:"ts" db:"ts"`
	Symbol    string    `json:"symbol" db:"symbol"`
	Passes    bool      `json:"passes" db:"passes"`
	Reason    string    `json:"reason" db:"reason"`
	Score     float64   `json:"score" db:"score"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SignalsRepo persists emitted signals.
type SignalsRepo interface {
	Insert(ctx context.Context, sig signal.Signal) error
	Latest(ctx context.Context, limit int) ([]signal.Signal, error)
}

// WhitelistRepo persists per-run fundamentals diagnostics.
type WhitelistRepo interface {
	Upsert(ctx context.Context, ts time.Time, symbol string, res fundamentals.GateResult) error
	ResultsAt(ctx context.Context, ts time.Time) ([]WhitelistEntry, error)
}
