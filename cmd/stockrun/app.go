package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/equitylab/stockrun/internal/config"
	"github.com/equitylab/stockrun/internal/fundamentals"
	"github.com/equitylab/stockrun/internal/fundamentals/provider"
	"github.com/equitylab/stockrun/internal/fusion"
	"github.com/equitylab/stockrun/internal/market"
	"github.com/equitylab/stockrun/internal/persistence"
	"github.com/equitylab/stockrun/internal/persistence/postgres"
	"github.com/equitylab/stockrun/internal/rules"
	"github.com/equitylab/stockrun/internal/scheduler"
	"github.com/equitylab/stockrun/internal/signal"
	"github.com/equitylab/stockrun/internal/telemetry"
)

// app holds the wired component graph for one command invocation.
type app struct {
	cfg      *config.Config
	metrics  *telemetry.Metrics
	registry *prometheus.Registry
	manager   *fundamentals.Manager
	strategy  *fusion.Strategy
	emitter   *signal.Emitter
	signals   persistence.SignalsRepo
	whitelist persistence.WhitelistRepo
}

func buildApp(path string, withGate bool) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	metrics := telemetry.NewMetrics()
	promReg := prometheus.NewRegistry()
	if err := metrics.Register(promReg); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	store, err := fundamentals.NewStore(cfg.Cache.Dir, cfg.Cache.RedisAddr)
	if err != nil {
		return nil, err
	}
	if fs, ok := store.(*fundamentals.FileStore); ok {
		fs.Prune(cfg.Cache.KeepDays)
	}

	primary, err := provider.FromConfig(cfg.Providers.Primary)
	if err != nil {
		return nil, fmt.Errorf("bad primary provider config: %w", err)
	}
	fallback, err := provider.FromConfig(cfg.Providers.Fallback)
	if err != nil {
		return nil, fmt.Errorf("bad fallback provider config: %w", err)
	}

	manager := fundamentals.NewManager(&cfg.Fundamentals, store, primary, fallback, metrics)

	var gate fusion.FundamentalsGate
	if withGate {
		gate = manager
	}
	strategy, err := fusion.NewStrategy(cfg.Strategy, rules.BuiltinTemplates(), gate)
	if err != nil {
		return nil, err
	}

	var cooldown *signal.CooldownTracker
	if cfg.Realtime.Cooldown.Enabled {
		cooldown = signal.NewCooldownTracker(time.Duration(cfg.Realtime.Cooldown.PeriodHours) * time.Hour)
	}
	notifiers := []signal.Notifier{signal.LogNotifier{}}
	if cfg.Notifications.Webhook.Enabled && cfg.Notifications.Webhook.URL != "" {
		notifiers = append(notifiers, signal.NewWebhookNotifier(cfg.Notifications.Webhook.URL))
	}
	emitter := signal.NewEmitter(cooldown, metrics, notifiers...)

	var signalsRepo persistence.SignalsRepo
	var whitelistRepo persistence.WhitelistRepo
	if cfg.Database.DSN != "" {
		db, err := postgres.Connect(cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		signalsRepo = postgres.NewSignalsRepo(db, 5*time.Second)
		whitelistRepo = postgres.NewWhitelistRepo(db, 5*time.Second)
	}

	return &app{
		cfg:       cfg,
		metrics:   metrics,
		registry:  promReg,
		manager:   manager,
		strategy:  strategy,
		emitter:   emitter,
		signals:   signalsRepo,
		whitelist: whitelistRepo,
	}, nil
}

// csvTableSource loads prepared indicator tables from
// {dataDir}/{symbol}_{timeframe}.csv. Market data and indicator math are
// produced outside this process; this source just reads the result.
func csvTableSource(dataDir string) scheduler.TableSource {
	return func(_ context.Context, symbol, timeframe string) (*market.Table, error) {
		path := filepath.Join(dataDir, fmt.Sprintf("%s_%s.csv", symbol, timeframe))
		table, err := market.LoadCSV(path)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("symbol", symbol).Str("timeframe", timeframe).
			Int("bars", table.Len()).Msg("indicator table loaded")
		return table, nil
	}
}
