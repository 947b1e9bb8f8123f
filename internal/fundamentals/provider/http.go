package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/equitylab/stockrun/internal/fundamentals"
)

// HTTP fetches records from a JSON endpoint serving one MetricsRecord at
// GET {base}/{symbol}.
type HTTP struct {
	name    string
	baseURL string
	client  *http.Client
}

func NewHTTP(name, baseURL string) *HTTP {
	return &HTTP{
		name:    name,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (h *HTTP) Name() string { return h.name }

func (h *HTTP) Fetch(ctx context.Context, symbol string) (fundamentals.MetricsRecord, error) {
	endpoint := h.baseURL + "/" + url.PathEscape(symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fundamentals.MetricsRecord{}, fmt.Errorf("failed to build request for %s: %w", symbol, err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fundamentals.MetricsRecord{}, fmt.Errorf("fetch %s from %s: %w", symbol, h.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Unknown symbol: all-absent, not an error.
		return fundamentals.MetricsRecord{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return fundamentals.MetricsRecord{}, fmt.Errorf("fetch %s from %s: status %d", symbol, h.name, resp.StatusCode)
	}

	var rec fundamentals.MetricsRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return fundamentals.MetricsRecord{}, fmt.Errorf("decode %s response for %s: %w", h.name, symbol, err)
	}
	return rec, nil
}
