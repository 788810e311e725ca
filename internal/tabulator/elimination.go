package tabulator

import (
	"context"

	"github.com/openrcv/tabulator/internal/cvr"
	"github.com/openrcv/tabulator/internal/decimal"
)

// Elimination strategy names, recorded on EliminationRecord for audit.
const (
	StrategyDropUWI            = "drop_uwi"
	StrategyDropBelowThreshold = "drop_below_threshold"
	StrategyBatchElimination   = "batch_elimination"
	StrategyRegularElimination = "regular_elimination"
)

// EliminationRecord documents one round's elimination, including the
// batch-elimination bucket math when that strategy fired.
type EliminationRecord struct {
	Candidates       []cvr.CandidateID
	Strategy         string
	RunningTotal     decimal.Decimal
	NextHighestTally decimal.Decimal
}

// DropUWI eliminates the UWI bucket in round 1 if present with a
// positive tally.
func DropUWI(round int, uwiLabel cvr.CandidateID, status *StatusTracker, tally map[cvr.CandidateID]decimal.Decimal) *EliminationRecord {
	if round != 1 || uwiLabel == "" {
		return nil
	}
	if !status.IsContinuing(uwiLabel) {
		return nil
	}
	if tally[uwiLabel].IsZero() {
		return nil
	}
	return &EliminationRecord{Candidates: []cvr.CandidateID{uwiLabel}, Strategy: StrategyDropUWI}
}

// DropBelowThreshold eliminates every Continuing candidate whose tally
// is strictly below minimumVoteThreshold, when that floor is enabled.
func DropBelowThreshold(minimumVoteThreshold int, continuing []cvr.CandidateID, tally map[cvr.CandidateID]decimal.Decimal, scale int) *EliminationRecord {
	if minimumVoteThreshold <= 0 {
		return nil
	}
	threshold := decimal.NewFromInt64(int64(minimumVoteThreshold), scale)

	var out []cvr.CandidateID
	for _, id := range continuing {
		if tally[id].LessThan(threshold) {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return &EliminationRecord{Candidates: out, Strategy: StrategyDropBelowThreshold}
}

// BatchElimination walks buckets ascending, tracking a running total
// of tallies seen so far. Whenever the running total is less than the
// current bucket's tally, every candidate accumulated up to (not
// including) that bucket is mathematically unable to catch up and
// becomes eligible for batch elimination. The final eliminated set is
// the prefix ending at the last bucket that triggered this way — later
// triggers subsume earlier ones since they always extend the prefix.
func BatchElimination(enabled bool, buckets []TallyBucket, scale int) *EliminationRecord {
	if !enabled || len(buckets) < 2 {
		return nil
	}

	runningTotal := decimal.Zero(scale)
	lastTrigger := -1
	var triggerRunningTotal, triggerNextHighest decimal.Decimal

	for i, bucket := range buckets {
		if i > 0 && runningTotal.LessThan(bucket.Tally) {
			lastTrigger = i
			triggerRunningTotal = runningTotal
			triggerNextHighest = bucket.Tally
		}
		runningTotal = runningTotal.Add(bucket.Tally)
	}

	if lastTrigger <= 0 {
		return nil
	}

	var eliminated []cvr.CandidateID
	for _, bucket := range buckets[:lastTrigger] {
		eliminated = append(eliminated, bucket.Candidates...)
	}
	if len(eliminated) < 2 {
		return nil
	}

	return &EliminationRecord{
		Candidates:       eliminated,
		Strategy:         StrategyBatchElimination,
		RunningTotal:     triggerRunningTotal,
		NextHighestTally: triggerNextHighest,
	}
}

// RegularElimination eliminates the unique lowest-tally candidate,
// invoking the tie-breaker when the lowest bucket holds more than one.
func RegularElimination(ctx context.Context, buckets []TallyBucket, tieBreaker *TieBreaker, round int, roundHistory RoundTallyHistory) (*EliminationRecord, error) {
	if len(buckets) == 0 {
		return nil, nil
	}
	lowest := buckets[0]
	if len(lowest.Candidates) == 1 {
		return &EliminationRecord{Candidates: lowest.Candidates, Strategy: StrategyRegularElimination}, nil
	}

	loser, err := tieBreaker.Break(ctx, lowest.Candidates, round, false, roundHistory)
	if err != nil {
		return nil, err
	}
	return &EliminationRecord{Candidates: []cvr.CandidateID{loser}, Strategy: StrategyRegularElimination}, nil
}

// EliminationParams bundles the context the elimination pipeline needs.
type EliminationParams struct {
	Round                   int
	UWILabel                cvr.CandidateID
	Status                  *StatusTracker
	Tally                   map[cvr.CandidateID]decimal.Decimal
	Continuing              []cvr.CandidateID
	Scale                   int
	MinimumVoteThreshold    int
	BatchEliminationEnabled bool
	TieBreaker              *TieBreaker
	RoundHistory            RoundTallyHistory
}

// RunEliminationPipeline attempts each elimination strategy in order
// and returns the first non-empty result. It is a fatal invariant
// violation for all four to yield empty when no winner was declared.
func RunEliminationPipeline(ctx context.Context, p EliminationParams) (*EliminationRecord, error) {
	if rec := DropUWI(p.Round, p.UWILabel, p.Status, p.Tally); rec != nil {
		return rec, nil
	}
	if rec := DropBelowThreshold(p.MinimumVoteThreshold, p.Continuing, p.Tally, p.Scale); rec != nil {
		return rec, nil
	}

	buckets := InvertTally(p.Tally, p.Continuing)

	if rec := BatchElimination(p.BatchEliminationEnabled, buckets, p.Scale); rec != nil {
		return rec, nil
	}

	rec, err := RegularElimination(ctx, buckets, p.TieBreaker, p.Round, p.RoundHistory)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, NewTabulationError(ErrorKindTabulationInvariant, p.Round, "", "no elimination strategy produced a candidate", ErrAllEliminationStrategiesEmpty)
	}
	return rec, nil
}
