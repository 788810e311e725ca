package tabulator

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/openrcv/tabulator/internal/cvr"
)

// RateLimitedOracle wraps a TieBreakOracle with a rate limiter,
// guarding an interactive caller against being re-prompted faster
// than an operator could plausibly respond (e.g. a batch of identical
// ties across precincts in the same round).
type RateLimitedOracle struct {
	oracle  TieBreakOracle
	limiter *rate.Limiter
}

// NewRateLimitedOracle wraps oracle with a limiter permitting r
// resolutions per second with the given burst allowance.
func NewRateLimitedOracle(oracle TieBreakOracle, r rate.Limit, burst int) *RateLimitedOracle {
	return &RateLimitedOracle{oracle: oracle, limiter: rate.NewLimiter(r, burst)}
}

// Resolve implements TieBreakOracle, waiting for a limiter slot before
// delegating to the wrapped oracle.
func (o *RateLimitedOracle) Resolve(ctx context.Context, tied []cvr.CandidateID, round int, forWinner bool) (cvr.CandidateID, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return o.oracle.Resolve(ctx, tied, round, forWinner)
}
