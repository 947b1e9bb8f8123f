package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/equitylab/stockrun/internal/market"
)

func signalsCmd() *cobra.Command {
	var (
		symbol    string
		timeframe string
		file      string
		gate      bool
		emit      bool
	)

	cmd := &cobra.Command{
		Use:   "signals",
		Short: "Run the fusion strategy over one indicator table",
		Long: `Loads an indicator table from CSV, applies the configured derived
calculators, runs the fusion strategy, and prints the latest-bar signals as
JSON. With --emit the signals also go through the cooldown and notifier
pipeline.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if symbol == "" {
				return fmt.Errorf("--symbol is required")
			}

			app, err := buildApp(configPath, gate)
			if err != nil {
				return err
			}

			path := file
			if path == "" {
				source := csvTableSource(app.cfg.Realtime.DataDir)
				table, err := source(cmd.Context(), symbol, timeframe)
				if err != nil {
					return err
				}
				return runSignals(cmd, app, table, symbol, timeframe, emit)
			}

			table, err := market.LoadCSV(path)
			if err != nil {
				return err
			}
			return runSignals(cmd, app, table, symbol, timeframe, emit)
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "symbol the table belongs to")
	cmd.Flags().StringVar(&timeframe, "timeframe", "1d", "timeframe label for emitted signals")
	cmd.Flags().StringVar(&file, "file", "", "CSV path (default: {realtime.data_dir}/{symbol}_{timeframe}.csv)")
	cmd.Flags().BoolVar(&gate, "gate", false, "apply the fundamentals gate before extraction")
	cmd.Flags().BoolVar(&emit, "emit", false, "route signals through cooldown and notifiers")
	return cmd
}

func runSignals(cmd *cobra.Command, app *app, table *market.Table, symbol, timeframe string, emit bool) error {
	registry := market.BuiltinRegistry()
	if err := registry.Apply(table, app.cfg.Realtime.Indicators); err != nil {
		return err
	}

	withSignals := app.strategy.GenerateSignals(table)
	signals := app.strategy.ExtractLatestSignals(cmd.Context(), withSignals, symbol, timeframe)

	if emit {
		signals = app.emitter.Emit(cmd.Context(), signals)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(signals)
}
