package fundamentals

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/equitylab/stockrun/internal/telemetry"
)

// Provider is the metrics-source capability. Implementations live in the
// provider subpackage; errors stop at the manager, which converts them to
// all-absent records.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, symbol string) (MetricsRecord, error)
}

// Manager orchestrates provider calls, the day cache, and the scorer across
// a symbol batch.
type Manager struct {
	cfg      *GateConfig
	scorer   *Scorer
	cache    Store
	primary  Provider
	fallback Provider
	metrics  *telemetry.Metrics
	now      func() time.Time
}

func NewManager(cfg *GateConfig, cache Store, primary, fallback Provider, metrics *telemetry.Metrics) *Manager {
	if cfg == nil {
		cfg = DefaultGateConfig()
	}
	return &Manager{
		cfg:      cfg,
		scorer:   NewScorer(cfg),
		cache:    cache,
		primary:  primary,
		fallback: fallback,
		metrics:  metrics,
		now:      time.Now,
	}
}

func (m *Manager) Enabled() bool { return m.cfg.Enabled }

// BuildWhitelist evaluates the fundamentals gate for every symbol and
// returns the passing subset plus per-symbol diagnostics.
//
// The percentile peer set is the current batch, not a stable universe, so
// results are call-shape dependent: the same symbol can score differently in
// a different batch. Callers that need stable membership must pass a stable
// symbol list.
func (m *Manager) BuildWhitelist(ctx context.Context, symbols []string, forceRefresh bool) ([]string, map[string]GateResult) {
	results := make(map[string]GateResult, len(symbols))

	if !m.cfg.Enabled {
		whitelist := make([]string, len(symbols))
		copy(whitelist, symbols)
		for _, sym := range symbols {
			results[sym] = GateResult{Passes: true, Reason: ReasonDisabled, Score: 1.0}
		}
		return whitelist, results
	}

	data := m.fundamentalsFor(ctx, symbols, forceRefresh)

	// Peer caps come from every batch symbol that produced any data at all;
	// symbols with nothing are excluded entirely.
	peerCaps := make([]*float64, 0, len(symbols))
	for _, sym := range symbols {
		rec, ok := data[sym]
		if !ok || rec.Empty() {
			continue
		}
		peerCaps = append(peerCaps, rec.MarketCap)
	}

	var whitelist []string
	for _, sym := range symbols {
		rec, ok := data[sym]
		if !ok || rec.Empty() {
			results[sym] = GateResult{Passes: false, Reason: ReasonNoData, Score: 0.0}
			m.observe(results[sym])
			continue
		}

		res := m.scorer.Evaluate(sym, rec, MarketFromSymbol(sym), peerCaps)
		results[sym] = res
		m.observe(res)
		if res.Passes {
			whitelist = append(whitelist, sym)
		}
	}

	return whitelist, results
}

// Check evaluates a single symbol against the gate. It satisfies the fusion
// strategy's veto hook.
func (m *Manager) Check(ctx context.Context, symbol string) (bool, string) {
	if !m.cfg.Enabled {
		return true, ReasonDisabled
	}
	_, results := m.BuildWhitelist(ctx, []string{symbol}, false)
	if res, ok := results[symbol]; ok && !res.Passes {
		return false, fmt.Sprintf("%s:%s", ReasonGateFailedPrefix, res.Reason)
	}
	return true, ReasonFundamentalsPassed
}

// RefreshAndCache force-fetches the batch and persists the snapshot under
// today's date.
func (m *Manager) RefreshAndCache(ctx context.Context, symbols []string) (map[string]MetricsRecord, error) {
	data := m.fetchBatch(ctx, symbols)
	if m.cache == nil {
		return data, nil
	}
	if err := m.cache.Save(data, m.now()); err != nil {
		return data, fmt.Errorf("failed to cache fundamentals snapshot: %w", err)
	}
	return data, nil
}

// fundamentalsFor returns a record per symbol, serving from the day cache
// when it is fresh and covers the whole batch. Any cache miss refetches the
// entire batch so percentile peers stay consistent.
func (m *Manager) fundamentalsFor(ctx context.Context, symbols []string, forceRefresh bool) map[string]MetricsRecord {
	if m.cache != nil && !forceRefresh && m.cache.IsFresh(m.cfg.RefreshPolicy, m.now()) {
		if cached, ok := m.cache.Load(m.now()); ok {
			out := make(map[string]MetricsRecord, len(symbols))
			complete := true
			for _, sym := range symbols {
				rec, ok := cached[sym]
				if !ok {
					complete = false
					break
				}
				out[sym] = rec
			}
			if complete {
				if m.metrics != nil {
					m.metrics.CacheHits.Inc()
				}
				return out
			}
		}
	}
	if m.metrics != nil {
		m.metrics.CacheMisses.Inc()
	}
	return m.fetchBatch(ctx, symbols)
}

func (m *Manager) fetchBatch(ctx context.Context, symbols []string) map[string]MetricsRecord {
	out := make(map[string]MetricsRecord, len(symbols))
	for _, sym := range symbols {
		out[sym] = m.fetchSymbol(ctx, sym)
	}
	return out
}

// fetchSymbol tries the primary provider, then merges absent fields from the
// fallback when the symbol's market is fallback-eligible and a critical
// field is still missing. Provider errors degrade to absent fields.
func (m *Manager) fetchSymbol(ctx context.Context, symbol string) MetricsRecord {
	var rec MetricsRecord

	if m.primary != nil {
		got, err := m.primary.Fetch(ctx, symbol)
		if err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Str("provider", m.primary.Name()).
				Msg("primary fundamentals fetch failed")
		} else {
			rec = got
		}
	}

	if m.fallback != nil && rec.MissingCritical() && m.cfg.FallbackEligible(MarketFromSymbol(symbol)) {
		if m.metrics != nil {
			m.metrics.ProviderFallbacks.WithLabelValues(m.fallback.Name()).Inc()
		}
		got, err := m.fallback.Fetch(ctx, symbol)
		if err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Str("provider", m.fallback.Name()).
				Msg("fallback fundamentals fetch failed")
		} else {
			rec.MergeMissing(got)
		}
	}

	return rec
}

func (m *Manager) observe(res GateResult) {
	if m.metrics == nil {
		return
	}
	if res.Passes {
		m.metrics.GateEvaluations.WithLabelValues("pass").Inc()
	} else {
		m.metrics.GateEvaluations.WithLabelValues("fail").Inc()
		m.metrics.GateFailures.WithLabelValues(ReasonCode(res.Reason)).Inc()
	}
}
