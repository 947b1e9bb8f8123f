package fusion

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/equitylab/stockrun/internal/market"
	"github.com/equitylab/stockrun/internal/rules"
	"github.com/equitylab/stockrun/internal/signal"
)

// FundamentalsGate is the optional hard veto checked before technical
// extraction. The fundamentals manager satisfies it.
type FundamentalsGate interface {
	Enabled() bool
	Check(ctx context.Context, symbol string) (passes bool, reason string)
}

// Strategy fuses indicator columns into the four decision columns and
// extracts the latest bar's signals. Rule trees are compiled once at
// construction; generation and extraction are pure over the input table.
type Strategy struct {
	cfg   Config
	sides map[rules.Side]rules.Node
	gate  FundamentalsGate
}

// NewStrategy compiles the configured entry/exit rules against the given
// template set. An unknown template name degrades to an unconfigured side
// with a warning; a malformed inline rule is a hard error.
func NewStrategy(cfg Config, templates map[string]rules.Template, gate FundamentalsGate) (*Strategy, error) {
	if cfg.FusionMode == "" {
		cfg.FusionMode = ModeRuleBased
	}
	if templates == nil {
		templates = rules.BuiltinTemplates()
	}

	s := &Strategy{
		cfg:   cfg,
		sides: make(map[rules.Side]rules.Node),
		gate:  gate,
	}

	for _, side := range rules.Sides {
		var sr SideRule
		var configured bool
		if isEntry(side) {
			sr, configured = cfg.EntryRules[string(side)]
		} else {
			sr, configured = cfg.ExitRules[string(side)]
		}
		if !configured {
			continue
		}

		switch {
		case sr.Template != "":
			tmpl, ok := templates[sr.Template]
			if !ok {
				log.Warn().Str("template", sr.Template).Str("side", string(side)).
					Msg("unknown signal template, side left unconfigured")
				continue
			}
			if node, ok := tmpl.Rule(side); ok {
				s.sides[side] = node
			}
		case sr.Rule != nil:
			node, err := rules.Parse(sr.Rule)
			if err != nil {
				return nil, fmt.Errorf("bad rule for %s: %w", side, err)
			}
			s.sides[side] = node
		}
	}

	return s, nil
}

func isEntry(side rules.Side) bool {
	return side == rules.LongEntry || side == rules.ShortEntry
}

// GenerateSignals returns a copy of the table with the four boolean decision
// columns populated and the entry filters applied. The input table is never
// mutated.
func (s *Strategy) GenerateSignals(t *market.Table) *market.Table {
	out := t.Clone()

	switch s.cfg.FusionMode {
	case ModeWeighted:
		s.generateWeighted(out)
	default:
		s.generateRuleBased(out)
	}

	s.applyFilters(out)
	return out
}

func (s *Strategy) generateRuleBased(t *market.Table) {
	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		for _, side := range rules.Sides {
			node, ok := s.sides[side]
			if !ok {
				row[string(side)] = market.Bool(false)
				continue
			}
			row[string(side)] = market.Bool(rules.Evaluate(row, node))
		}
	}
}

func (s *Strategy) generateWeighted(t *market.Table) {
	// Deterministic indicator order regardless of map iteration.
	names := make([]string, 0, len(s.cfg.Weights))
	for name := range s.cfg.Weights {
		names = append(names, name)
	}
	sort.Strings(names)

	threshold := s.cfg.Threshold
	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)

		strength := 0.0
		for _, name := range names {
			v := row.Get(name)
			if v.IsMissing() {
				continue
			}
			strength += v.Float() * s.cfg.Weights[name]
		}

		row[string(rules.LongEntry)] = market.Bool(strength > threshold)
		row[string(rules.ShortEntry)] = market.Bool(strength < -threshold)
		row[string(rules.LongExit)] = market.Bool(strength < -threshold/2)
		row[string(rules.ShortExit)] = market.Bool(strength > threshold/2)
	}
}

// applyFilters ANDs each enabled filter into the entry columns, in fixed
// order: ATR regime, ADX strength, minimum volume. A filter whose column is
// not present anywhere on a row is inapplicable there and passes through.
func (s *Strategy) applyFilters(t *market.Table) {
	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)

		if s.cfg.Filters.UseATRFilter && row.Has("ATR_accept") {
			andEntry(row, row.Flag("ATR_accept"))
		}
		if s.cfg.Filters.UseADXFilter && row.Has("ADX_strong") {
			andEntry(row, row.Flag("ADX_strong"))
		}
		if s.cfg.Filters.MinVolume > 0 && row.Has("volume") {
			andEntry(row, row.Num("volume", 0) >= s.cfg.Filters.MinVolume)
		}
	}
}

func andEntry(row market.Row, ok bool) {
	if ok {
		return
	}
	row[string(rules.LongEntry)] = market.Bool(false)
	row[string(rules.ShortEntry)] = market.Bool(false)
}

// ExtractLatestSignals inspects the final bar. A failing fundamentals gate
// is a hard veto: exactly one SUPPRESSED signal, no technical evaluation.
// Otherwise each entry flag on the final bar yields a signal when its
// confidence clears the configured minimum. Long and short may both fire;
// conflict resolution belongs to the emitter's consumer.
func (s *Strategy) ExtractLatestSignals(ctx context.Context, t *market.Table, symbol, timeframe string) []signal.Signal {
	if t.Len() == 0 {
		return nil
	}

	if s.gate != nil && s.gate.Enabled() {
		if passes, reason := s.gate.Check(ctx, symbol); !passes {
			return []signal.Signal{
				signal.New(time.Now(), symbol, timeframe, signal.SideSuppressed, 0, 0, reason),
			}
		}
	}

	ts, row, _ := t.Last()
	var signals []signal.Signal

	if row.Flag(string(rules.LongEntry)) {
		confidence := s.CalculateConfidence(row)
		if confidence >= s.cfg.MinConfidence {
			signals = append(signals, signal.New(
				ts, symbol, timeframe, signal.SideLong,
				row.Num("close", 0), confidence, signalReason(row, signal.SideLong)))
		}
	}
	if row.Flag(string(rules.ShortEntry)) {
		confidence := s.CalculateConfidence(row)
		if confidence >= s.cfg.MinConfidence {
			signals = append(signals, signal.New(
				ts, symbol, timeframe, signal.SideShort,
				row.Num("close", 0), confidence, signalReason(row, signal.SideShort)))
		}
	}

	return signals
}
