package tabulator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/openrcv/tabulator/internal/cvr"
)

func TestRateLimitedOracleDelegatesToWrappedOracle(t *testing.T) {
	wrapped := stubOracle{choice: cvr.CandidateID("A")}
	oracle := NewRateLimitedOracle(wrapped, rate.Inf, 1)

	choice, err := oracle.Resolve(context.Background(), ids("A", "B"), 1, true)

	require.NoError(t, err)
	assert.Equal(t, cvr.CandidateID("A"), choice)
}

func TestRateLimitedOracleRespectsContextCancellation(t *testing.T) {
	wrapped := stubOracle{choice: cvr.CandidateID("A")}
	oracle := NewRateLimitedOracle(wrapped, rate.Limit(0.001), 1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// Exhaust the single burst slot first so the second call must wait
	// on the limiter rather than succeed immediately.
	_, err := oracle.Resolve(context.Background(), ids("A", "B"), 1, true)
	require.NoError(t, err)

	_, err = oracle.Resolve(ctx, ids("A", "B"), 1, true)
	assert.Error(t, err)
}
