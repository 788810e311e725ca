package tabulator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrcv/tabulator/internal/config"
	"github.com/openrcv/tabulator/internal/cvr"
)

func rankBallot(id string, ranks ...string) *cvr.CVR {
	r := cvr.Ranking{}
	for i, name := range ranks {
		r[i+1] = map[cvr.CandidateID]struct{}{cvr.CandidateID(name): {}}
	}
	return cvr.New("test.csv", id, nil, r, "", 0)
}

func baseConfig(candidates []string) *config.ContestConfig {
	cands := make([]config.Candidate, len(candidates))
	for i, n := range candidates {
		cands[i] = config.Candidate{Name: n}
	}
	return &config.ContestConfig{
		Candidates: cands,
		Rules: config.Rules{
			TiebreakMode:                   config.TiebreakRandom,
			OvervoteRule:                   config.OvervoteExhaustImmediately,
			WinnerElectionMode:             config.Standard,
			MaxRankingsAllowed:             config.MaxRankings{IsMax: true},
			MaxSkippedRanksAllowed:         config.MaxSkippedRanks{Unlimited: true},
			NumberOfWinners:                1,
			DecimalPlacesForVoteArithmetic: 0,
		},
	}
}

func TestDriverRunDeclaresImmediateMajorityWinner(t *testing.T) {
	cfg := baseConfig([]string{"Alice", "Bob"})
	ballots := []*cvr.CVR{
		rankBallot("1", "Alice"),
		rankBallot("2", "Alice"),
		rankBallot("3", "Alice"),
		rankBallot("4", "Bob"),
	}
	tieBreaker := NewTieBreaker(config.TiebreakRandom, 1, nil, ids("Alice", "Bob"))

	d := NewDriver(cfg, ballots, tieBreaker)
	summary, err := d.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.RoundsRun)
	assert.Equal(t, map[cvr.CandidateID]int{cvr.CandidateID("Alice"): 1}, summary.WinnersByRound)
}

func TestDriverRunEliminatesAndTransfersUntilAWinnerEmerges(t *testing.T) {
	cfg := baseConfig([]string{"A", "B", "C"})
	ballots := []*cvr.CVR{
		rankBallot("1", "A"),
		rankBallot("2", "A"),
		rankBallot("3", "B"),
		rankBallot("4", "C", "A"),
		rankBallot("5", "C", "B"),
	}
	tieBreaker := NewTieBreaker(config.TiebreakRandom, 1, nil, ids("A", "B", "C"))

	d := NewDriver(cfg, ballots, tieBreaker)
	summary, err := d.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, summary.RoundsRun)
	assert.Len(t, summary.WinnersByRound, 1)
	assert.Len(t, summary.EliminatedByRound, 2)
}

func TestDriverRunSingleSeatContinueUntilTwoCandidatesRemain(t *testing.T) {
	cfg := baseConfig([]string{"A", "B", "C"})
	cfg.Rules.WinnerElectionMode = config.SingleSeatContinueUntilTwoCandidatesRemain
	ballots := []*cvr.CVR{
		rankBallot("1", "A"),
		rankBallot("2", "A"),
		rankBallot("3", "B"),
		rankBallot("4", "B"),
		rankBallot("5", "C"),
	}
	tieBreaker := NewTieBreaker(config.TiebreakRandom, 1, nil, ids("A", "B", "C"))

	d := NewDriver(cfg, ballots, tieBreaker)
	summary, err := d.Run(context.Background())

	require.NoError(t, err)
	assert.Len(t, summary.WinnersByRound, 1)
	var winner cvr.CandidateID
	for id := range summary.WinnersByRound {
		winner = id
	}
	assert.Contains(t, ids("A", "B"), winner)
}

func TestDriverRunMultiSeatBottomsUpElectsRemainingAtTheFloor(t *testing.T) {
	// Three candidates split a perfectly even electorate three ways, so
	// none crosses the two-seat threshold in round 1; the tied loser is
	// eliminated, and with exactly two continuing candidates left for
	// two remaining seats, bottoms-up elects both outright in round 2
	// without either ever crossing a vote threshold.
	cfg := baseConfig([]string{"A", "B", "C"})
	cfg.Rules.WinnerElectionMode = config.MultiSeatBottomsUp
	cfg.Rules.NumberOfWinners = 2
	ballots := []*cvr.CVR{
		rankBallot("1", "A"), rankBallot("2", "A"), rankBallot("3", "A"),
		rankBallot("4", "B"), rankBallot("5", "B"), rankBallot("6", "B"),
		rankBallot("7", "C"), rankBallot("8", "C"), rankBallot("9", "C"),
	}
	tieBreaker := NewTieBreaker(config.TiebreakRandom, 1, nil, ids("A", "B", "C"))

	d := NewDriver(cfg, ballots, tieBreaker)
	summary, err := d.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.RoundsRun)
	assert.Len(t, summary.WinnersByRound, 2)
	assert.Len(t, summary.EliminatedByRound, 1)
}

func TestDriverRunSequentialWinnerTakesAllElectsOneSeatPerPass(t *testing.T) {
	cfg := baseConfig([]string{"A", "B", "C"})
	cfg.Rules.WinnerElectionMode = config.MultiSeatSequentialWinnerTakesAll
	cfg.Rules.NumberOfWinners = 2
	ballots := []*cvr.CVR{
		rankBallot("1", "A"),
		rankBallot("2", "A"),
		rankBallot("3", "A"),
		rankBallot("4", "B"),
		rankBallot("5", "B"),
	}
	tieBreaker := NewTieBreaker(config.TiebreakRandom, 1, nil, ids("A", "B", "C"))

	d := NewDriver(cfg, ballots, tieBreaker)
	summary, err := d.Run(context.Background())

	require.NoError(t, err)
	assert.Len(t, summary.WinnersByRound, 2)
	assert.Contains(t, summary.WinnersByRound, cvr.CandidateID("A"))
	assert.Contains(t, summary.WinnersByRound, cvr.CandidateID("B"))
}
