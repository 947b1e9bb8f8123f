package signal

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/equitylab/stockrun/internal/telemetry"
)

// Notifier delivers an emitted signal somewhere (log line, webhook, ...).
type Notifier interface {
	Notify(ctx context.Context, sig Signal) error
}

// Emitter applies cooldown dedup and fans emitted signals out to notifiers.
// Suppressed signals are logged and counted but never notified and never
// consume cooldown.
type Emitter struct {
	cooldown  *CooldownTracker
	notifiers []Notifier
	metrics   *telemetry.Metrics
}

// NewEmitter builds an emitter. cooldown may be nil to disable dedup.
func NewEmitter(cooldown *CooldownTracker, metrics *telemetry.Metrics, notifiers ...Notifier) *Emitter {
	return &Emitter{cooldown: cooldown, notifiers: notifiers, metrics: metrics}
}

// Emit processes extracted signals in order and returns the ones actually
// delivered. Conflicting long and short signals on the same bar are both
// passed through; resolving that conflict belongs to the consumer.
func (e *Emitter) Emit(ctx context.Context, signals []Signal) []Signal {
	var emitted []Signal
	for _, sig := range signals {
		if sig.Side == SideSuppressed {
			log.Info().Str("symbol", sig.Symbol).Str("timeframe", sig.Timeframe).
				Str("reason", sig.Reason).Msg("signal suppressed by fundamentals gate")
			if e.metrics != nil {
				e.metrics.SignalsSuppressed.Inc()
			}
			continue
		}

		if e.cooldown != nil && !e.cooldown.ShouldEmit(sig.Symbol, sig.Timeframe, sig.Side) {
			log.Debug().Str("symbol", sig.Symbol).Str("timeframe", sig.Timeframe).
				Str("side", string(sig.Side)).Msg("signal in cooldown, skipped")
			if e.metrics != nil {
				e.metrics.CooldownSkips.Inc()
			}
			continue
		}

		for _, n := range e.notifiers {
			if err := n.Notify(ctx, sig); err != nil {
				log.Warn().Err(err).Str("symbol", sig.Symbol).Msg("signal notification failed")
			}
		}
		if e.cooldown != nil {
			e.cooldown.Record(sig.Symbol, sig.Timeframe, sig.Side)
		}
		if e.metrics != nil {
			e.metrics.SignalsEmitted.WithLabelValues(string(sig.Side)).Inc()
		}
		emitted = append(emitted, sig)
	}
	return emitted
}
