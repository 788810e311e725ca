package tabulator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openrcv/tabulator/internal/config"
	"github.com/openrcv/tabulator/internal/cvr"
	"github.com/openrcv/tabulator/internal/decimal"
)

func candidateSet(names ...string) map[cvr.CandidateID]struct{} {
	out := make(map[cvr.CandidateID]struct{}, len(names))
	for _, n := range names {
		out[cvr.CandidateID(n)] = struct{}{}
	}
	return out
}

func TestDecideOvervoteExplicitLabel(t *testing.T) {
	always := func(cvr.CandidateID) bool { return true }

	t.Run("skip to next rank", func(t *testing.T) {
		decision := DecideOvervote(candidateSet("Alice", "overvote"), config.OvervoteAlwaysSkipToNextRank, cvr.CandidateID("overvote"), always)
		assert.Equal(t, DecisionSkip, decision)
	})

	t.Run("any other rule exhausts", func(t *testing.T) {
		decision := DecideOvervote(candidateSet("Alice", "overvote"), config.OvervoteExhaustIfAnyContinuing, cvr.CandidateID("overvote"), always)
		assert.Equal(t, DecisionExhaust, decision)
	})
}

func TestDecideOvervoteSingleCandidateNeverOvervotes(t *testing.T) {
	decision := DecideOvervote(candidateSet("Alice"), config.OvervoteExhaustImmediately, "", func(cvr.CandidateID) bool { return true })
	assert.Equal(t, DecisionNone, decision)
}

func TestDecideOvervoteUnconditionalRules(t *testing.T) {
	none := func(cvr.CandidateID) bool { return false }

	assert.Equal(t, DecisionExhaust, DecideOvervote(candidateSet("A", "B"), config.OvervoteExhaustImmediately, "", none))
	assert.Equal(t, DecisionSkip, DecideOvervote(candidateSet("A", "B"), config.OvervoteAlwaysSkipToNextRank, "", none))
}

func TestDecideOvervoteContinuingCountRules(t *testing.T) {
	tests := []struct {
		name             string
		rule             config.OvervoteRule
		continuingCount  int
		want             OvervoteDecision
	}{
		{"any-continuing, zero continuing", config.OvervoteExhaustIfAnyContinuing, 0, DecisionNone},
		{"any-continuing, one continuing", config.OvervoteExhaustIfAnyContinuing, 1, DecisionExhaust},
		{"any-continuing, two continuing", config.OvervoteExhaustIfAnyContinuing, 2, DecisionExhaust},
		{"ignore-any-continuing, one continuing", config.OvervoteIgnoreIfAnyContinuing, 1, DecisionIgnore},
		{"multiple-continuing, one continuing", config.OvervoteExhaustIfMultipleContinuing, 1, DecisionNone},
		{"multiple-continuing, two continuing", config.OvervoteExhaustIfMultipleContinuing, 2, DecisionExhaust},
		{"ignore-multiple-continuing, two continuing", config.OvervoteIgnoreIfMultipleContinuing, 2, DecisionIgnore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names := []string{"A", "B", "C"}
			candidates := candidateSet(names...)
			n := 0
			isContinuing := func(id cvr.CandidateID) bool {
				n++
				return n <= tt.continuingCount
			}
			got := DecideOvervote(candidates, tt.rule, "", isContinuing)
			assert.Equal(t, tt.want, got)
		})
	}
}

func unlimitedSkips() config.MaxSkippedRanks { return config.MaxSkippedRanks{Unlimited: true} }

func unlimitedRankings() config.MaxRankings { return config.MaxRankings{IsMax: true} }

func newRanking(byRank map[int][]string) cvr.Ranking {
	r := cvr.Ranking{}
	for rank, names := range byRank {
		set := make(map[cvr.CandidateID]struct{}, len(names))
		for _, n := range names {
			set[cvr.CandidateID(n)] = struct{}{}
		}
		r[rank] = set
	}
	return r
}

func TestApplyRoundCountsForUniqueContinuingCandidate(t *testing.T) {
	c := cvr.New("src", "1", nil, newRanking(map[int][]string{1: {"Alice"}}), "", 4)
	status := NewStatusTracker(ids("Alice", "Bob"))
	tally := map[cvr.CandidateID]decimal.Decimal{
		cvr.CandidateID("Alice"): decimal.Zero(4),
		cvr.CandidateID("Bob"):   decimal.Zero(4),
	}

	ApplyRound(c, 1, RoundRules{OvervoteRule: config.OvervoteExhaustImmediately, MaxRankingsAllowed: unlimitedRankings(), MaxSkippedRanksAllowed: unlimitedSkips(), Scale: 4}, status, tally)

	assert.False(t, c.Exhausted)
	assert.Equal(t, cvr.CandidateID("Alice"), c.CurrentRecipient)
	assert.True(t, tally[cvr.CandidateID("Alice")].Equal(decimal.NewFromInt64(1, 4)))
}

func TestApplyRoundSkipsEliminatedCandidateAndFallsToNextRank(t *testing.T) {
	c := cvr.New("src", "1", nil, newRanking(map[int][]string{1: {"Bob"}, 2: {"Alice"}}), "", 4)
	status := NewStatusTracker(ids("Alice", "Bob"))
	status.MarkEliminated(cvr.CandidateID("Bob"), 0)
	tally := map[cvr.CandidateID]decimal.Decimal{cvr.CandidateID("Alice"): decimal.Zero(4)}

	ApplyRound(c, 1, RoundRules{OvervoteRule: config.OvervoteExhaustImmediately, MaxRankingsAllowed: unlimitedRankings(), MaxSkippedRanksAllowed: unlimitedSkips(), Scale: 4}, status, tally)

	assert.Equal(t, cvr.CandidateID("Alice"), c.CurrentRecipient)
}

func TestApplyRoundExhaustsOnNoContinuingCandidate(t *testing.T) {
	c := cvr.New("src", "1", nil, newRanking(map[int][]string{1: {"Bob"}}), "", 4)
	status := NewStatusTracker(ids("Alice", "Bob"))
	status.MarkEliminated(cvr.CandidateID("Bob"), 0)
	tally := map[cvr.CandidateID]decimal.Decimal{cvr.CandidateID("Alice"): decimal.Zero(4)}

	ApplyRound(c, 1, RoundRules{OvervoteRule: config.OvervoteExhaustImmediately, MaxRankingsAllowed: unlimitedRankings(), MaxSkippedRanksAllowed: unlimitedSkips(), Scale: 4}, status, tally)

	assert.True(t, c.Exhausted)
	assert.Equal(t, cvr.ReasonNoContinuing, c.ExhaustedReason)
}

func TestApplyRoundExhaustsOnOvervote(t *testing.T) {
	c := cvr.New("src", "1", nil, newRanking(map[int][]string{1: {"Alice", "Bob"}}), "", 4)
	status := NewStatusTracker(ids("Alice", "Bob"))
	tally := map[cvr.CandidateID]decimal.Decimal{}

	ApplyRound(c, 1, RoundRules{OvervoteRule: config.OvervoteExhaustImmediately, MaxRankingsAllowed: unlimitedRankings(), MaxSkippedRanksAllowed: unlimitedSkips(), Scale: 4}, status, tally)

	assert.True(t, c.Exhausted)
	assert.Equal(t, cvr.ReasonOvervote, c.ExhaustedReason)
}

func TestApplyRoundExhaustsOnUndervoteBeyondSkipLimit(t *testing.T) {
	// Rank 2 is skipped entirely (no entry in the map), so rank 3
	// arrives two ranks past rank 1 with no skipped rank allowed.
	c := cvr.New("src", "1", nil, newRanking(map[int][]string{1: {"Zed"}, 3: {"Alice"}}), "", 4)
	status := NewStatusTracker(ids("Alice", "Zed"))
	status.MarkEliminated(cvr.CandidateID("Zed"), 0)
	tally := map[cvr.CandidateID]decimal.Decimal{cvr.CandidateID("Alice"): decimal.Zero(4)}

	ApplyRound(c, 1, RoundRules{
		OvervoteRule:           config.OvervoteExhaustImmediately,
		MaxRankingsAllowed:     unlimitedRankings(),
		MaxSkippedRanksAllowed: config.MaxSkippedRanks{N: 0},
		Scale:                  4,
	}, status, tally)

	assert.True(t, c.Exhausted)
	assert.Equal(t, cvr.ReasonUndervote, c.ExhaustedReason)
}

func TestApplyRoundExhaustsOnDuplicateCandidateWhenEnabled(t *testing.T) {
	c := cvr.New("src", "1", nil, newRanking(map[int][]string{1: {"Bob"}, 2: {"Bob"}}), "", 4)
	status := NewStatusTracker(ids("Alice", "Bob"))
	status.MarkEliminated(cvr.CandidateID("Bob"), 0)
	tally := map[cvr.CandidateID]decimal.Decimal{}

	ApplyRound(c, 1, RoundRules{
		OvervoteRule:                config.OvervoteExhaustImmediately,
		MaxRankingsAllowed:          unlimitedRankings(),
		MaxSkippedRanksAllowed:       unlimitedSkips(),
		ExhaustOnDuplicateCandidate: true,
		Scale:                       4,
	}, status, tally)

	assert.True(t, c.Exhausted)
	assert.Equal(t, cvr.ReasonDuplicate, c.ExhaustedReason)
}

func TestApplyRoundIgnoresRanksBeyondTheConfiguredCutoff(t *testing.T) {
	c := cvr.New("src", "1", nil, newRanking(map[int][]string{1: {"Bob"}, 2: {"Alice"}}), "", 4)
	status := NewStatusTracker(ids("Alice", "Bob"))
	status.MarkEliminated(cvr.CandidateID("Bob"), 0)
	tally := map[cvr.CandidateID]decimal.Decimal{cvr.CandidateID("Alice"): decimal.Zero(4)}

	ApplyRound(c, 1, RoundRules{
		OvervoteRule:           config.OvervoteExhaustImmediately,
		MaxRankingsAllowed:     config.MaxRankings{N: 1},
		MaxSkippedRanksAllowed: unlimitedSkips(),
		Scale:                  4,
	}, status, tally)

	// Rank 2, where Alice would have been found continuing, is beyond
	// the one-rank cutoff and never examined.
	assert.True(t, c.Exhausted)
	assert.Equal(t, cvr.ReasonNoContinuing, c.ExhaustedReason)
	assert.True(t, tally[cvr.CandidateID("Alice")].IsZero())
}

func TestApplyRoundIsNoOpForAlreadyExhaustedCVR(t *testing.T) {
	c := cvr.New("src", "1", nil, newRanking(map[int][]string{1: {"Alice"}}), "", 4)
	c.MarkExhausted(1, cvr.ReasonOvervote)
	status := NewStatusTracker(ids("Alice"))
	tally := map[cvr.CandidateID]decimal.Decimal{cvr.CandidateID("Alice"): decimal.Zero(4)}

	ApplyRound(c, 2, RoundRules{OvervoteRule: config.OvervoteExhaustImmediately, MaxRankingsAllowed: unlimitedRankings(), MaxSkippedRanksAllowed: unlimitedSkips(), Scale: 4}, status, tally)

	assert.True(t, tally[cvr.CandidateID("Alice")].IsZero())
	assert.Equal(t, cvr.ReasonOvervote, c.ExhaustedReason)
}
