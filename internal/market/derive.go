package market

// Built-in derivations. These only reshape columns the external indicator
// calculators already produced (flip flags from a trend column, strength
// flags from a threshold); the underlying indicator math stays external.

// DeriveTrendFlips adds flipUp/flipDown boolean columns marking bars where
// the trend column changed sign relative to the previous bar.
func DeriveTrendFlips(trendCol, flipUpCol, flipDownCol string) Calculator {
	return func(t *Table) error {
		prev := Missing()
		for i := 0; i < t.Len(); i++ {
			row := t.Row(i)
			cur := row.Get(trendCol)

			flipUp, flipDown := false, false
			if !cur.IsMissing() && !prev.IsMissing() {
				flipUp = cur.Float() > 0 && prev.Float() <= 0
				flipDown = cur.Float() < 0 && prev.Float() >= 0
			}
			row[flipUpCol] = Bool(flipUp)
			row[flipDownCol] = Bool(flipDown)
			prev = cur
		}
		return nil
	}
}

// DeriveThresholdFlag adds a boolean column that is true where the source
// column meets or exceeds the threshold. Missing source cells leave the flag
// missing rather than false.
func DeriveThresholdFlag(srcCol, flagCol string, threshold float64) Calculator {
	return func(t *Table) error {
		for i := 0; i < t.Len(); i++ {
			row := t.Row(i)
			v := row.Get(srcCol)
			if v.IsMissing() {
				row[flagCol] = Missing()
				continue
			}
			row[flagCol] = Bool(v.Float() >= threshold)
		}
		return nil
	}
}

// DeriveSlope adds a column holding the bar-over-bar delta of the source
// column. The first bar, and any bar whose neighbor is missing, gets a
// missing slope.
func DeriveSlope(srcCol, slopeCol string) Calculator {
	return func(t *Table) error {
		prev := Missing()
		for i := 0; i < t.Len(); i++ {
			row := t.Row(i)
			cur := row.Get(srcCol)
			if cur.IsMissing() || prev.IsMissing() {
				row[slopeCol] = Missing()
			} else {
				row[slopeCol] = Number(cur.Float() - prev.Float())
			}
			prev = cur
		}
		return nil
	}
}

// BuiltinRegistry returns a registry preloaded with the stock derivations
// used by the bundled templates: SuperTrend flip flags, the ADX strength
// flag, and the HMA slope column.
func BuiltinRegistry() *Registry {
	r := NewRegistry()
	// Registration of fresh names into a fresh registry cannot fail.
	_ = r.Register("st_flips", DeriveTrendFlips("ST_trend", "ST_flip_up", "ST_flip_down"))
	_ = r.Register("adx_strong", DeriveThresholdFlag("ADX", "ADX_strong", 25))
	_ = r.Register("hma_slope", DeriveSlope("HMA", "HMA_slope"))
	return r
}
