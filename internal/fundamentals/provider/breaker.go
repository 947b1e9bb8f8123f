package provider

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/equitylab/stockrun/internal/fundamentals"
)

// Breaker wraps a provider with a circuit breaker. While the breaker is
// open, fetches return an all-absent record immediately instead of hammering
// a failing upstream.
type Breaker struct {
	inner fundamentals.Provider
	cb    *gobreaker.CircuitBreaker
}

func NewBreaker(inner fundamentals.Provider) *Breaker {
	st := gobreaker.Settings{Name: inner.Name()}
	st.Interval = 60 * time.Second
	st.Timeout = 60 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		if counts.ConsecutiveFailures >= 3 {
			return true
		}
		if counts.Requests < 20 {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > 0.05
	}
	return &Breaker{inner: inner, cb: gobreaker.NewCircuitBreaker(st)}
}

func (b *Breaker) Name() string { return b.inner.Name() }

func (b *Breaker) Fetch(ctx context.Context, symbol string) (fundamentals.MetricsRecord, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Fetch(ctx, symbol)
	})
	if err != nil {
		return fundamentals.MetricsRecord{}, err
	}
	rec, _ := out.(fundamentals.MetricsRecord)
	return rec, nil
}
