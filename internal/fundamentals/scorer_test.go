package fundamentals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func peers(caps ...float64) []*float64 {
	out := make([]*float64, len(caps))
	for i, c := range caps {
		out[i] = Float(c)
	}
	return out
}

// healthyRecord passes every stage against the default config.
func healthyRecord() MetricsRecord {
	return MetricsRecord{
		PE:             Float(30),
		PB:             Float(5),
		MarketCap:      Float(100e9),
		Turnover20dAvg: Float(80_000_000),
	}
}

func TestScorerWorkedExample(t *testing.T) {
	s := NewScorer(DefaultGateConfig())

	// pe=30 against pe_max=60 and pb=5 against pb_max=10 both score 0.5;
	// a 100e9 cap sits at 2-of-3 among these peers.
	res := s.Evaluate("AAPL", healthyRecord(), "US", peers(50e9, 100e9, 150e9))

	require.True(t, res.Passes)
	assert.Equal(t, ReasonPassed, res.Reason)
	assert.InDelta(t, 0.4*(2.0/3.0)+0.3*0.5+0.3*0.5, res.Score, 1e-9)
	assert.InDelta(t, 0.5667, res.Score, 0.001)
}

func TestScorerCompositeTooLow(t *testing.T) {
	s := NewScorer(DefaultGateConfig())

	m := healthyRecord()
	m.PE = Float(58)
	m.PB = Float(9)

	res := s.Evaluate("AAPL", m, "US", peers(50e9, 100e9, 150e9))

	require.False(t, res.Passes)
	assert.Equal(t, ReasonCompositeScoreLow, ReasonCode(res.Reason))
	assert.Less(t, res.Score, 0.5)
	assert.Greater(t, res.Score, 0.0)
}

func TestScorerDisabledPassesEverything(t *testing.T) {
	cfg := DefaultGateConfig()
	cfg.Enabled = false
	s := NewScorer(cfg)

	res := s.Evaluate("JUNK", MetricsRecord{}, "US", nil)

	require.True(t, res.Passes)
	assert.Equal(t, ReasonDisabled, res.Reason)
	assert.Equal(t, 1.0, res.Score)
}

func TestScorerLiquidity(t *testing.T) {
	s := NewScorer(DefaultGateConfig())

	t.Run("below threshold fails with zero score", func(t *testing.T) {
		m := healthyRecord()
		m.Turnover20dAvg = Float(1_000_000)

		res := s.Evaluate("X", m, "US", peers(50e9))
		require.False(t, res.Passes)
		assert.Equal(t, ReasonLiquidityTooLow, ReasonCode(res.Reason))
		assert.Equal(t, "liquidity_too_low:1000000<50000000", res.Reason)
		assert.Zero(t, res.Score)
	})

	t.Run("exactly at threshold passes", func(t *testing.T) {
		m := healthyRecord()
		m.Turnover20dAvg = Float(50_000_000)

		res := s.Evaluate("X", m, "US", peers(50e9, 100e9, 150e9))
		assert.True(t, res.Passes)
	})

	t.Run("missing with pass policy proceeds", func(t *testing.T) {
		m := healthyRecord()
		m.Turnover20dAvg = nil

		res := s.Evaluate("X", m, "US", peers(50e9, 100e9, 150e9))
		assert.True(t, res.Passes)
	})

	t.Run("missing with block policy fails", func(t *testing.T) {
		cfg := DefaultGateConfig()
		cfg.Missing = MissingBlock
		blocker := NewScorer(cfg)

		m := healthyRecord()
		m.Turnover20dAvg = nil

		res := blocker.Evaluate("X", m, "US", nil)
		require.False(t, res.Passes)
		assert.Equal(t, ReasonLiquidityMissing, res.Reason)
	})
}

func TestScorerValuationBoundaries(t *testing.T) {
	s := NewScorer(DefaultGateConfig())
	ps := peers(50e9, 100e9, 150e9)

	t.Run("pe at lower bound is excluded", func(t *testing.T) {
		m := healthyRecord()
		m.PE = Float(0)

		res := s.Evaluate("X", m, "US", ps)
		require.False(t, res.Passes)
		assert.Equal(t, ReasonPEOutOfRange, ReasonCode(res.Reason))
		assert.Zero(t, res.Score)
	})

	t.Run("pe at upper bound is included", func(t *testing.T) {
		m := healthyRecord()
		m.PE = Float(60)
		m.PB = Float(1) // keep the composite above min_score

		res := s.Evaluate("X", m, "US", ps)
		assert.True(t, res.Passes)
	})

	t.Run("pe above upper bound fails", func(t *testing.T) {
		m := healthyRecord()
		m.PE = Float(60.01)

		res := s.Evaluate("X", m, "US", ps)
		require.False(t, res.Passes)
		assert.Equal(t, ReasonPEOutOfRange, ReasonCode(res.Reason))
	})

	t.Run("pb at upper bound is included", func(t *testing.T) {
		m := healthyRecord()
		m.PB = Float(10)
		m.PE = Float(10) // keep the composite above min_score

		res := s.Evaluate("X", m, "US", ps)
		assert.True(t, res.Passes)
	})

	t.Run("pb above upper bound fails", func(t *testing.T) {
		m := healthyRecord()
		m.PB = Float(10.5)

		res := s.Evaluate("X", m, "US", ps)
		require.False(t, res.Passes)
		assert.Equal(t, ReasonPBTooHigh, ReasonCode(res.Reason))
		assert.Zero(t, res.Score)
	})

	t.Run("negative pe is out of range not neutral", func(t *testing.T) {
		m := healthyRecord()
		m.PE = Float(-5)

		res := s.Evaluate("X", m, "US", ps)
		require.False(t, res.Passes)
		assert.Equal(t, ReasonPEOutOfRange, ReasonCode(res.Reason))
	})
}

func TestScorerSizePercentile(t *testing.T) {
	s := NewScorer(DefaultGateConfig())

	t.Run("below minimum percentile fails but keeps the percentile score", func(t *testing.T) {
		m := healthyRecord()
		m.MarketCap = Float(10e9)

		res := s.Evaluate("X", m, "US", peers(50e9, 100e9, 150e9, 200e9))
		require.False(t, res.Passes)
		assert.Equal(t, ReasonCapPercentileLow, ReasonCode(res.Reason))
		assert.InDelta(t, 0.0, res.Score, 1e-9)
	})

	t.Run("percentile counts peers at or below own cap", func(t *testing.T) {
		m := healthyRecord()
		m.MarketCap = Float(100e9)

		// Equal peer caps count toward the percentile.
		res := s.Evaluate("X", m, "US", peers(100e9, 100e9, 200e9))
		require.True(t, res.Passes)
		assert.InDelta(t, 0.4*(2.0/3.0)+0.3*0.5+0.3*0.5, res.Score, 1e-9)
	})

	t.Run("nil peer caps are excluded from the denominator", func(t *testing.T) {
		m := healthyRecord()
		m.MarketCap = Float(100e9)

		caps := []*float64{Float(50e9), nil, nil, Float(150e9)}
		res := s.Evaluate("X", m, "US", caps)
		require.True(t, res.Passes)
		// 1 of 2 valid peers at or below.
		assert.InDelta(t, 0.4*0.5+0.3*0.5+0.3*0.5, res.Score, 1e-9)
	})

	t.Run("no valid peers yields neutral percentile", func(t *testing.T) {
		m := healthyRecord()

		res := s.Evaluate("X", m, "US", []*float64{nil, nil})
		require.True(t, res.Passes)
		assert.InDelta(t, 0.4*0.5+0.3*0.5+0.3*0.5, res.Score, 1e-9)
	})

	t.Run("missing cap with block policy fails", func(t *testing.T) {
		cfg := DefaultGateConfig()
		cfg.Missing = MissingBlock
		blocker := NewScorer(cfg)

		m := healthyRecord()
		m.MarketCap = nil

		res := blocker.Evaluate("X", m, "US", peers(50e9))
		require.False(t, res.Passes)
		assert.Equal(t, ReasonCapMissing, res.Reason)
	})

	t.Run("missing cap with pass policy scores neutral", func(t *testing.T) {
		m := healthyRecord()
		m.MarketCap = nil

		res := s.Evaluate("X", m, "US", peers(50e9))
		require.True(t, res.Passes)
		assert.InDelta(t, 0.4*0.5+0.3*0.5+0.3*0.5, res.Score, 1e-9)
	})
}

func TestScorerPercentileMonotonic(t *testing.T) {
	s := NewScorer(DefaultGateConfig())
	ps := peers(10e9, 20e9, 30e9, 40e9, 50e9, 60e9, 70e9, 80e9)

	prev := -1.0
	for _, cap := range []float64{45e9, 55e9, 65e9, 75e9, 85e9} {
		m := healthyRecord()
		m.MarketCap = Float(cap)
		res := s.Evaluate("X", m, "US", ps)
		assert.GreaterOrEqual(t, res.Score, prev, "score must not decrease as cap grows")
		prev = res.Score
	}
}

func TestScorerMarketOverrides(t *testing.T) {
	cfg := DefaultGateConfig()
	cfg.Overrides = map[string]Override{
		"HK": {PEMax: Float(30)},
	}
	s := NewScorer(cfg)
	ps := peers(50e9, 100e9, 150e9)

	m := healthyRecord()
	m.PE = Float(40)

	// 40 is fine globally but beyond the HK override.
	assert.True(t, s.Evaluate("AAPL", m, "US", ps).Passes)

	res := s.Evaluate("HK.00700", m, "HK", ps)
	require.False(t, res.Passes)
	assert.Equal(t, ReasonPEOutOfRange, ReasonCode(res.Reason))
}

func TestScorerNeutralForNonPositiveRatios(t *testing.T) {
	s := NewScorer(DefaultGateConfig())

	m := healthyRecord()
	m.PE = nil
	m.PB = nil
	m.MarketCap = Float(200e9)

	res := s.Evaluate("X", m, "US", peers(50e9, 100e9, 150e9))
	require.True(t, res.Passes)
	// Both ratios missing score a neutral 0.5 each.
	assert.InDelta(t, 0.4*1.0+0.3*0.5+0.3*0.5, res.Score, 1e-9)
}

func TestReasonCode(t *testing.T) {
	assert.Equal(t, "liquidity_too_low", ReasonCode("liquidity_too_low:123<456"))
	assert.Equal(t, "passed", ReasonCode("passed"))
	assert.Equal(t, "", ReasonCode(":detail"))
}
