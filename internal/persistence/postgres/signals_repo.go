package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/equitylab/stockrun/internal/persistence"
	"github.com/equitylab/stockrun/internal/signal"
)

// signalsRepo implements SignalsRepo for PostgreSQL.
type signalsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewSignalsRepo(db *sqlx.DB, timeout time.Duration) persistence.SignalsRepo {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &signalsRepo{db: db, timeout: timeout}
}

func (r *signalsRepo) Insert(ctx context.Context, sig signal.Signal) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO signals (id, ts, symbol, timeframe, side, price, confidence, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query,
		sig.ID, sig.Timestamp, sig.Symbol, sig.Timeframe,
		string(sig.Side), sig.Price, sig.Confidence, sig.Reason); err != nil {
		return fmt.Errorf("failed to insert signal %s: %w", sig.ID, err)
	}
	return nil
}

func (r *signalsRepo) Latest(ctx context.Context, limit int) ([]signal.Signal, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, ts, symbol, timeframe, side, price, confidence, reason
		FROM signals
		ORDER BY ts DESC
		LIMIT $1`

	var out []signal.Signal
	if err := r.db.SelectContext(ctx, &out, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query latest signals: %w", err)
	}
	return out, nil
}
