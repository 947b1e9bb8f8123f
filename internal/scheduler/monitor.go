package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/equitylab/stockrun/internal/fundamentals"
	"github.com/equitylab/stockrun/internal/fusion"
	"github.com/equitylab/stockrun/internal/market"
	"github.com/equitylab/stockrun/internal/persistence"
	"github.com/equitylab/stockrun/internal/signal"
	"github.com/equitylab/stockrun/internal/telemetry"
)

// TableSource produces the indicator table for one symbol and timeframe.
// Market data and indicator math live behind this boundary.
type TableSource func(ctx context.Context, symbol, timeframe string) (*market.Table, error)

// Config holds the cron specs. Both accept standard cron expressions or
// the @every / @daily shorthands.
type Config struct {
	ScanSchedule    string `yaml:"scan_schedule"`
	RefreshSchedule string `yaml:"refresh_schedule"`
}

// Options wires the monitor's collaborators.
type Options struct {
	Symbols    []string
	Timeframes []string
	Source     TableSource
	Strategy   *fusion.Strategy
	Emitter    *signal.Emitter
	Manager    *fundamentals.Manager
	Indicators *market.Registry
	Calculate  []string // calculator names applied to each loaded table
	Signals    persistence.SignalsRepo
	Metrics    *telemetry.Metrics
}

// Monitor runs the periodic scan loop plus a fundamentals refresh job.
type Monitor struct {
	cfg  Config
	opts Options
	cron *cron.Cron
}

func NewMonitor(cfg Config, opts Options) (*Monitor, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("monitor needs a table source")
	}
	if opts.Strategy == nil {
		return nil, fmt.Errorf("monitor needs a strategy")
	}
	if opts.Emitter == nil {
		return nil, fmt.Errorf("monitor needs an emitter")
	}
	if cfg.ScanSchedule == "" {
		cfg.ScanSchedule = "@every 5m"
	}
	return &Monitor{cfg: cfg, opts: opts, cron: cron.New()}, nil
}

// Start schedules the jobs and blocks until the context is canceled. The
// scan job also runs once immediately so a fresh process produces output
// without waiting for the first tick.
func (m *Monitor) Start(ctx context.Context) error {
	if _, err := m.cron.AddFunc(m.cfg.ScanSchedule, func() { m.runScan(ctx) }); err != nil {
		return fmt.Errorf("bad scan schedule %q: %w", m.cfg.ScanSchedule, err)
	}

	if m.cfg.RefreshSchedule != "" && m.opts.Manager != nil {
		if _, err := m.cron.AddFunc(m.cfg.RefreshSchedule, func() { m.runRefresh(ctx) }); err != nil {
			return fmt.Errorf("bad refresh schedule %q: %w", m.cfg.RefreshSchedule, err)
		}
	}

	m.runScan(ctx)
	m.cron.Start()
	<-ctx.Done()

	stopCtx := m.cron.Stop()
	<-stopCtx.Done()
	return nil
}

// RunOnce performs a single scan pass. Exposed for the one-shot CLI path.
func (m *Monitor) RunOnce(ctx context.Context) { m.runScan(ctx) }

func (m *Monitor) runScan(ctx context.Context) {
	for _, symbol := range m.opts.Symbols {
		for _, timeframe := range m.opts.Timeframes {
			if ctx.Err() != nil {
				return
			}
			m.scanOne(ctx, symbol, timeframe)
		}
	}
}

func (m *Monitor) scanOne(ctx context.Context, symbol, timeframe string) {
	if m.opts.Metrics != nil {
		m.opts.Metrics.ScansTotal.Inc()
	}

	table, err := m.opts.Source(ctx, symbol, timeframe)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Str("timeframe", timeframe).
			Msg("failed to load indicator table")
		return
	}
	if table.Len() == 0 {
		log.Debug().Str("symbol", symbol).Str("timeframe", timeframe).Msg("empty indicator table")
		return
	}

	if m.opts.Indicators != nil && len(m.opts.Calculate) > 0 {
		if err := m.opts.Indicators.Apply(table, m.opts.Calculate); err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("indicator derivation failed")
			return
		}
	}

	decided := m.opts.Strategy.GenerateSignals(table)
	signals := m.opts.Strategy.ExtractLatestSignals(ctx, decided, symbol, timeframe)
	emitted := m.opts.Emitter.Emit(ctx, signals)

	if m.opts.Signals != nil {
		for _, sig := range emitted {
			if err := m.opts.Signals.Insert(ctx, sig); err != nil {
				log.Warn().Err(err).Str("signal", sig.ID).Msg("failed to persist signal")
			}
		}
	}
}

func (m *Monitor) runRefresh(ctx context.Context) {
	if _, err := m.opts.Manager.RefreshAndCache(ctx, m.opts.Symbols); err != nil {
		log.Warn().Err(err).Msg("fundamentals refresh failed")
		return
	}
	log.Info().Int("symbols", len(m.opts.Symbols)).Msg("fundamentals snapshot refreshed")
}
