// Package limiter paces outbound requests against the globally configured
// requests-per-second budget.

package limiter

import (
	"context"

	"golang.org/x/time/rate"
)

type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer builds a token-bucket pacer. A non-positive rps disables pacing.
func NewPacer(rps float64, burst int) *Pacer {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Pacer{
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Wait blocks until the next request fits the budget or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
