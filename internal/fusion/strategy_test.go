package fusion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equitylab/stockrun/internal/market"
	"github.com/equitylab/stockrun/internal/rules"
	"github.com/equitylab/stockrun/internal/signal"
)

type fakeGate struct {
	enabled bool
	passes  bool
	reason  string
}

func (g fakeGate) Enabled() bool { return g.enabled }

func (g fakeGate) Check(context.Context, string) (bool, string) {
	return g.passes, g.reason
}

func tableOf(rows ...market.Row) *market.Table {
	t := market.NewTable()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i, r := range rows {
		t.Append(base.AddDate(0, 0, i), r)
	}
	return t
}

func bullRow() market.Row {
	return market.Row{
		"close":     market.Number(150),
		"ST_trend":  market.Number(1),
		"HMA_slope": market.Number(0.5),
		"RSI":       market.Number(65),
	}
}

func hmaConfig() Config {
	return Config{
		FusionMode: ModeRuleBased,
		EntryRules: map[string]SideRule{
			"long_entry":  {Template: "supertrend_hma"},
			"short_entry": {Template: "supertrend_hma"},
		},
		ExitRules: map[string]SideRule{
			"long_exit":  {Template: "supertrend_hma"},
			"short_exit": {Template: "supertrend_hma"},
		},
	}
}

func TestGenerateSignalsRuleBased(t *testing.T) {
	s, err := NewStrategy(hmaConfig(), nil, nil)
	require.NoError(t, err)

	table := tableOf(bullRow())
	out := s.GenerateSignals(table)

	row := out.Row(0)
	assert.True(t, row.Flag("long_entry"))
	assert.False(t, row.Flag("short_entry"))
	assert.False(t, row.Flag("long_exit"))

	// The input table stays untouched.
	assert.False(t, table.Row(0).Has("long_entry"))
}

func TestGenerateSignalsUnconfiguredSideIsFalse(t *testing.T) {
	cfg := hmaConfig()
	delete(cfg.EntryRules, "short_entry")
	s, err := NewStrategy(cfg, nil, nil)
	require.NoError(t, err)

	bearish := market.Row{
		"ST_trend":  market.Number(-1),
		"HMA_slope": market.Number(-0.5),
		"RSI":       market.Number(30),
	}
	out := s.GenerateSignals(tableOf(bearish))

	row := out.Row(0)
	require.True(t, row.Has("short_entry"), "unconfigured sides still get their column")
	assert.False(t, row.Flag("short_entry"))
}

func TestNewStrategyUnknownTemplateDegrades(t *testing.T) {
	cfg := hmaConfig()
	cfg.EntryRules["long_entry"] = SideRule{Template: "no_such_template"}

	s, err := NewStrategy(cfg, nil, nil)
	require.NoError(t, err)

	out := s.GenerateSignals(tableOf(bullRow()))
	assert.False(t, out.Row(0).Flag("long_entry"))
}

func TestNewStrategyBadInlineRuleErrors(t *testing.T) {
	cfg := Config{
		EntryRules: map[string]SideRule{
			"long_entry": {Rule: map[string]interface{}{"type": "condition"}},
		},
	}
	_, err := NewStrategy(cfg, nil, nil)
	assert.Error(t, err)
}

func TestNewStrategyInlineRule(t *testing.T) {
	cfg := Config{
		EntryRules: map[string]SideRule{
			"long_entry": {Rule: map[string]interface{}{
				"indicator": "RSI", "operator": ">", "value": 70.0,
			}},
		},
	}
	s, err := NewStrategy(cfg, nil, nil)
	require.NoError(t, err)

	out := s.GenerateSignals(tableOf(market.Row{"RSI": market.Number(75)}))
	assert.True(t, out.Row(0).Flag("long_entry"))

	out = s.GenerateSignals(tableOf(market.Row{"RSI": market.Number(65)}))
	assert.False(t, out.Row(0).Flag("long_entry"))
}

func TestGenerateSignalsWeighted(t *testing.T) {
	cfg := Config{
		FusionMode: ModeWeighted,
		Threshold:  0.5,
		Weights: map[string]float64{
			"mom_a": 0.6,
			"mom_b": 0.4,
		},
	}
	s, err := NewStrategy(cfg, nil, nil)
	require.NoError(t, err)

	t.Run("strength above threshold fires long entry and short exit", func(t *testing.T) {
		out := s.GenerateSignals(tableOf(market.Row{
			"mom_a": market.Number(1),
			"mom_b": market.Number(1),
		}))
		row := out.Row(0)
		assert.True(t, row.Flag("long_entry"))  // 1.0 > 0.5
		assert.True(t, row.Flag("short_exit"))  // 1.0 > 0.25
		assert.False(t, row.Flag("short_entry"))
		assert.False(t, row.Flag("long_exit"))
	})

	t.Run("negative strength fires short entry and long exit", func(t *testing.T) {
		out := s.GenerateSignals(tableOf(market.Row{
			"mom_a": market.Number(-1),
			"mom_b": market.Number(-1),
		}))
		row := out.Row(0)
		assert.True(t, row.Flag("short_entry"))
		assert.True(t, row.Flag("long_exit"))
		assert.False(t, row.Flag("long_entry"))
	})

	t.Run("missing indicator contributes nothing", func(t *testing.T) {
		out := s.GenerateSignals(tableOf(market.Row{
			"mom_a": market.Number(1),
			// mom_b absent: strength 0.6 > 0.5 still fires.
		}))
		assert.True(t, out.Row(0).Flag("long_entry"))
	})

	t.Run("strength inside half-threshold band is quiet", func(t *testing.T) {
		out := s.GenerateSignals(tableOf(market.Row{
			"mom_a": market.Number(0.2),
			"mom_b": market.Number(0.2),
		}))
		row := out.Row(0)
		for _, side := range rules.Sides {
			assert.False(t, row.Flag(string(side)), side)
		}
	})
}

func TestApplyFilters(t *testing.T) {
	base := hmaConfig()

	t.Run("failing ATR filter zeroes both entries", func(t *testing.T) {
		cfg := base
		cfg.Filters = Filters{UseATRFilter: true}
		s, err := NewStrategy(cfg, nil, nil)
		require.NoError(t, err)

		r := bullRow()
		r["ATR_accept"] = market.Bool(false)
		out := s.GenerateSignals(tableOf(r))
		assert.False(t, out.Row(0).Flag("long_entry"))
	})

	t.Run("missing filter column is a no-op", func(t *testing.T) {
		cfg := base
		cfg.Filters = Filters{UseATRFilter: true, UseADXFilter: true, MinVolume: 1000}
		s, err := NewStrategy(cfg, nil, nil)
		require.NoError(t, err)

		// None of the filter columns is present.
		out := s.GenerateSignals(tableOf(bullRow()))
		assert.True(t, out.Row(0).Flag("long_entry"))
	})

	t.Run("volume filter compares against minimum", func(t *testing.T) {
		cfg := base
		cfg.Filters = Filters{MinVolume: 1000}
		s, err := NewStrategy(cfg, nil, nil)
		require.NoError(t, err)

		thin := bullRow()
		thin["volume"] = market.Number(500)
		out := s.GenerateSignals(tableOf(thin))
		assert.False(t, out.Row(0).Flag("long_entry"))

		deep := bullRow()
		deep["volume"] = market.Number(1000)
		out = s.GenerateSignals(tableOf(deep))
		assert.True(t, out.Row(0).Flag("long_entry"))
	})

	t.Run("exit columns are never filtered", func(t *testing.T) {
		cfg := base
		cfg.Filters = Filters{UseADXFilter: true}
		s, err := NewStrategy(cfg, nil, nil)
		require.NoError(t, err)

		r := market.Row{
			"ST_flip_down": market.Bool(true),
			"ADX_strong":   market.Bool(false),
		}
		out := s.GenerateSignals(tableOf(r))
		assert.True(t, out.Row(0).Flag("long_exit"))
	})
}

func TestExtractLatestSignals(t *testing.T) {
	ctx := context.Background()

	t.Run("empty table yields nothing", func(t *testing.T) {
		s, err := NewStrategy(hmaConfig(), nil, nil)
		require.NoError(t, err)
		assert.Empty(t, s.ExtractLatestSignals(ctx, market.NewTable(), "AAPL", "1d"))
	})

	t.Run("gate failure yields exactly one suppressed signal", func(t *testing.T) {
		gate := fakeGate{enabled: true, passes: false, reason: "fundamentals_gate_failed:pb_too_high:12.00>10"}
		s, err := NewStrategy(hmaConfig(), nil, gate)
		require.NoError(t, err)

		out := s.GenerateSignals(tableOf(bullRow()))
		got := s.ExtractLatestSignals(ctx, out, "AAPL", "1d")

		require.Len(t, got, 1)
		assert.Equal(t, signal.SideSuppressed, got[0].Side)
		assert.Equal(t, gate.reason, got[0].Reason)
		assert.Zero(t, got[0].Confidence)
	})

	t.Run("disabled gate is not consulted", func(t *testing.T) {
		gate := fakeGate{enabled: false, passes: false, reason: "should_not_matter"}
		s, err := NewStrategy(hmaConfig(), nil, gate)
		require.NoError(t, err)

		out := s.GenerateSignals(tableOf(bullRow()))
		got := s.ExtractLatestSignals(ctx, out, "AAPL", "1d")

		require.Len(t, got, 1)
		assert.Equal(t, signal.SideLong, got[0].Side)
	})

	t.Run("long signal carries close price and timestamp", func(t *testing.T) {
		s, err := NewStrategy(hmaConfig(), nil, nil)
		require.NoError(t, err)

		quiet := market.Row{"RSI": market.Number(50)}
		out := s.GenerateSignals(tableOf(quiet, bullRow()))
		got := s.ExtractLatestSignals(ctx, out, "AAPL", "1d")

		require.Len(t, got, 1)
		sig := got[0]
		assert.Equal(t, signal.SideLong, sig.Side)
		assert.Equal(t, "AAPL", sig.Symbol)
		assert.Equal(t, "1d", sig.Timeframe)
		assert.Equal(t, 150.0, sig.Price)
		assert.Equal(t, out.Time(1), sig.Timestamp)
		assert.NotEmpty(t, sig.ID)
		assert.NotEqual(t, "signal_triggered", sig.Reason)
	})

	t.Run("only the final bar is inspected", func(t *testing.T) {
		s, err := NewStrategy(hmaConfig(), nil, nil)
		require.NoError(t, err)

		quiet := market.Row{"RSI": market.Number(50)}
		out := s.GenerateSignals(tableOf(bullRow(), quiet))
		assert.Empty(t, s.ExtractLatestSignals(ctx, out, "AAPL", "1d"))
	})

	t.Run("min confidence suppresses weak signals", func(t *testing.T) {
		cfg := hmaConfig()
		cfg.MinConfidence = 0.99
		s, err := NewStrategy(cfg, nil, nil)
		require.NoError(t, err)

		out := s.GenerateSignals(tableOf(bullRow()))
		assert.Empty(t, s.ExtractLatestSignals(ctx, out, "AAPL", "1d"))
	})
}

func TestCalculateConfidence(t *testing.T) {
	s, err := NewStrategy(Config{}, nil, nil)
	require.NoError(t, err)

	t.Run("all five sources", func(t *testing.T) {
		row := market.Row{
			"ST_trend":  market.Number(1),   // +0.25
			"HMA_slope": market.Number(0.2), // capped at 1.0 * 0.2
			"RSI":       market.Number(75),  // 0.5 * 0.2 = 0.10
			"ADX":       market.Number(25),  // 0.5 * 0.2 = 0.10
			"QQE_long":  market.Bool(true),  // +0.15
		}
		assert.InDelta(t, 0.25+0.2+0.10+0.10+0.15, s.CalculateConfidence(row), 1e-9)
	})

	t.Run("two of five sources rescale by five halves", func(t *testing.T) {
		row := market.Row{
			"ST_trend": market.Number(1),  // +0.25
			"RSI":      market.Number(75), // +0.10
		}
		assert.InDelta(t, (0.25+0.10)*2.5, s.CalculateConfidence(row), 1e-9)
	})

	t.Run("rescaled value clamps at one", func(t *testing.T) {
		row := market.Row{
			"ST_trend":  market.Number(1),   // +0.25
			"HMA_slope": market.Number(0.5), // +0.20
		}
		// Raw 0.45 rescales to 1.125 and clamps.
		assert.Equal(t, 1.0, s.CalculateConfidence(row))
	})

	t.Run("qqe presence without agreement still counts as available", func(t *testing.T) {
		row := market.Row{
			"ST_trend": market.Number(1),
			"QQE_long": market.Bool(false),
		}
		assert.InDelta(t, 0.25*2.5, s.CalculateConfidence(row), 1e-9)
	})

	t.Run("no sources yields zero", func(t *testing.T) {
		assert.Zero(t, s.CalculateConfidence(market.Row{}))
	})
}

func TestSignalReason(t *testing.T) {
	long := market.Row{
		"ST_trend":      market.Number(1),
		"HMA_slope":     market.Number(0.4),
		"HMA_slope_pct": market.Number(0.4),
		"RSI":           market.Number(62),
	}
	reason := signalReason(long, signal.SideLong)
	assert.Contains(t, reason, "ST↑")
	assert.Contains(t, reason, "RSI=62")

	assert.Equal(t, "signal_triggered", signalReason(market.Row{}, signal.SideLong))
}
