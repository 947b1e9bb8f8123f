package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	httpapi "github.com/equitylab/stockrun/internal/interfaces/http"
	"github.com/equitylab/stockrun/internal/market"
	"github.com/equitylab/stockrun/internal/scheduler"
)

func monitorCmd() *cobra.Command {
	var (
		once    bool
		noGate  bool
		withAPI bool
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run the periodic scan loop",
		Long: `Scans the configured symbol universe on a schedule: loads each
symbol's indicator table, runs the fusion strategy behind the fundamentals
gate, and routes resulting signals through cooldown, notifiers, and the
database. A second cron job refreshes the fundamentals cache.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(configPath, !noGate)
			if err != nil {
				return err
			}
			if len(app.cfg.Realtime.Symbols) == 0 {
				log.Warn().Msg("no symbols configured under realtime.symbols")
			}

			monitor, err := scheduler.NewMonitor(app.cfg.Realtime.Schedule, scheduler.Options{
				Symbols:    app.cfg.Realtime.Symbols,
				Timeframes: app.cfg.Realtime.Timeframes,
				Source:     csvTableSource(app.cfg.Realtime.DataDir),
				Strategy:   app.strategy,
				Emitter:    app.emitter,
				Manager:    app.manager,
				Indicators: market.BuiltinRegistry(),
				Calculate:  app.cfg.Realtime.Indicators,
				Signals:    app.signals,
				Metrics:    app.metrics,
			})
			if err != nil {
				return err
			}

			if once {
				monitor.RunOnce(cmd.Context())
				return nil
			}

			if withAPI {
				server := httpapi.NewServer(app.cfg.HTTP, app.manager, app.signals, app.registry)
				go func() {
					if err := server.Start(cmd.Context()); err != nil {
						log.Error().Err(err).Msg("http server stopped")
					}
				}()
			}

			return monitor.Start(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "run a single scan pass and exit")
	cmd.Flags().BoolVar(&noGate, "no-gate", false, "skip the fundamentals gate")
	cmd.Flags().BoolVar(&withAPI, "with-api", false, "also serve the HTTP API")
	return cmd
}
