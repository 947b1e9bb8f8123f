package provider

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/equitylab/stockrun/internal/fundamentals"
)

// RateLimited wraps a provider with a token-bucket limiter so batch scans
// stay inside the upstream's request budget.
type RateLimited struct {
	inner   fundamentals.Provider
	limiter *rate.Limiter
}

func NewRateLimited(inner fundamentals.Provider, perSecond float64, burst int) *RateLimited {
	if perSecond <= 0 {
		perSecond = 5
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (r *RateLimited) Name() string { return r.inner.Name() }

func (r *RateLimited) Fetch(ctx context.Context, symbol string) (fundamentals.MetricsRecord, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return fundamentals.MetricsRecord{}, err
	}
	return r.inner.Fetch(ctx, symbol)
}
