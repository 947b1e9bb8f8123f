// Package provider implements the metrics-provider boundary: concrete
// sources plus the breaker and rate-limit wrappers that keep provider
// failures from ever reaching the scoring core.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/equitylab/stockrun/internal/fundamentals"
)

// Static serves records from an in-memory map. Used for fixtures and tests.
type Static struct {
	name string
	data map[string]fundamentals.MetricsRecord
}

func NewStatic(name string, data map[string]fundamentals.MetricsRecord) *Static {
	if data == nil {
		data = map[string]fundamentals.MetricsRecord{}
	}
	return &Static{name: name, data: data}
}

func (s *Static) Name() string { return s.name }

func (s *Static) Fetch(ctx context.Context, symbol string) (fundamentals.MetricsRecord, error) {
	if err := ctx.Err(); err != nil {
		return fundamentals.MetricsRecord{}, err
	}
	// Unknown symbols read as all-absent, not as an error.
	return s.data[symbol], nil
}

// NewFixture loads a Static provider from a JSON file mapping symbol to
// metrics record. This is the offline stand-in for a live snapshot API.
func NewFixture(name, path string) (*Static, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	var data map[string]fundamentals.MetricsRecord
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	return NewStatic(name, data), nil
}
