package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/equitylab/stockrun/internal/fundamentals"
	"github.com/equitylab/stockrun/internal/persistence"
)

// whitelistRepo implements WhitelistRepo for PostgreSQL.
type whitelistRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewWhitelistRepo(db *sqlx.DB, timeout time.Duration) persistence.WhitelistRepo {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &whitelistRepo{db: db, timeout: timeout}
}

// Upsert stores one gate verdict, unique per run timestamp and symbol.
func (r *whitelistRepo) Upsert(ctx context.Context, ts time.Time, symbol string, res fundamentals.GateResult) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO whitelist_results (ts, symbol, passes, reason, score)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ts, symbol) DO UPDATE SET
			passes = EXCLUDED.passes,
			reason = EXCLUDED.reason,
			score = EXCLUDED.score`

	if _, err := r.db.ExecContext(ctx, query, ts, symbol, res.Passes, res.Reason, res.Score); err != nil {
		return fmt.Errorf("failed to upsert whitelist result for %s: %w", symbol, err)
	}
	return nil
}

func (r *whitelistRepo) ResultsAt(ctx context.Context, ts time.Time) ([]persistence.WhitelistEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ts, symbol, passes, reason, score, created_at
		FROM whitelist_results
		WHERE ts = $1
		ORDER BY symbol`

	var out []persistence.WhitelistEntry
	if err := r.db.SelectContext(ctx, &out, query, ts); err != nil {
		return nil, fmt.Errorf("failed to query whitelist results: %w", err)
	}
	return out, nil
}
