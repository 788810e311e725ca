package tabulator

import (
	"github.com/openrcv/tabulator/internal/config"
	"github.com/openrcv/tabulator/internal/cvr"
	"github.com/openrcv/tabulator/internal/decimal"
)

// OvervoteDecision is the result of evaluating one rank's candidate
// set against the configured overvote rule.
type OvervoteDecision int

const (
	DecisionNone OvervoteDecision = iota
	DecisionExhaust
	DecisionIgnore
	DecisionSkip
)

// DecideOvervote implements the exhaustive decision table: an explicit
// overvote label always takes the top row, then the two unconditional
// rules, then the continuing-candidate-count rules. isContinuing must
// reflect the candidate statuses at the start of the current round.
func DecideOvervote(
	candidates map[cvr.CandidateID]struct{},
	rule config.OvervoteRule,
	overvoteLabel cvr.CandidateID,
	isContinuing func(cvr.CandidateID) bool,
) OvervoteDecision {
	if overvoteLabel != "" {
		if _, ok := candidates[overvoteLabel]; ok {
			switch rule {
			case config.OvervoteAlwaysSkipToNextRank:
				return DecisionSkip
			default:
				// EXHAUST_IMMEDIATELY, and any other rule — rejected by
				// validation for use with an explicit label, but the
				// engine does not re-derive that here.
				return DecisionExhaust
			}
		}
	}

	if len(candidates) <= 1 {
		return DecisionNone
	}

	switch rule {
	case config.OvervoteExhaustImmediately:
		return DecisionExhaust
	case config.OvervoteAlwaysSkipToNextRank:
		return DecisionSkip
	}

	continuingCount := 0
	for c := range candidates {
		if isContinuing(c) {
			continuingCount++
		}
	}

	switch {
	case continuingCount == 0:
		return DecisionNone
	case rule == config.OvervoteExhaustIfAnyContinuing:
		return DecisionExhaust
	case rule == config.OvervoteIgnoreIfAnyContinuing:
		return DecisionIgnore
	case continuingCount == 1:
		return DecisionNone
	case rule == config.OvervoteExhaustIfMultipleContinuing:
		return DecisionExhaust
	case rule == config.OvervoteIgnoreIfMultipleContinuing:
		return DecisionIgnore
	default:
		return DecisionNone
	}
}

// RoundRules bundles the configuration fields the per-round vote
// application walk needs, independent of the full contest config.
type RoundRules struct {
	OvervoteRule                config.OvervoteRule
	OvervoteLabel                cvr.CandidateID
	MaxRankingsAllowed           config.MaxRankings
	MaxSkippedRanksAllowed       config.MaxSkippedRanks
	ExhaustOnDuplicateCandidate  bool
	Scale                        int
}

// ApplyRound walks one non-exhausted CVR's rankings for the current
// round, up to the configured ranking cutoff: overvote decision,
// undervote check, duplicate-candidate check, then a search for the
// unique Continuing candidate at the rank. It mutates both the CVR
// (exhaustion state, audit trail, current recipient) and the round
// tally.
//
// The walk runs rank by rank and falls through to "no continuing
// candidates" only if every rank is exhausted without a decision —
// equivalent to a pre-scan that rejects the CVR up front, since no
// rank along the way can produce a different outcome once none of
// them holds a continuing candidate.
func ApplyRound(c *cvr.CVR, round int, rules RoundRules, status *StatusTracker, tally map[cvr.CandidateID]decimal.Decimal) {
	if c.Exhausted {
		return
	}
	c.ResetForRound()

	seen := make(map[cvr.CandidateID]bool)
	lastRank := 0

	for _, rank := range c.Rankings.SortedRanks() {
		if !rules.MaxRankingsAllowed.IsMax && rank > rules.MaxRankingsAllowed.N {
			break
		}
		candidates := c.Rankings.CandidatesAt(rank)

		switch DecideOvervote(candidates, rules.OvervoteRule, rules.OvervoteLabel, status.IsContinuing) {
		case DecisionExhaust:
			c.MarkExhausted(round, cvr.ReasonOvervote)
			return
		case DecisionIgnore:
			c.RecordIgnored(round, cvr.ReasonOvervote)
			return
		case DecisionSkip:
			continue
		}

		if !rules.MaxSkippedRanksAllowed.Unlimited && rank-lastRank > rules.MaxSkippedRanksAllowed.N+1 {
			c.MarkExhausted(round, cvr.ReasonUndervote)
			return
		}

		if rules.ExhaustOnDuplicateCandidate {
			duplicate := false
			for candidate := range candidates {
				if seen[candidate] {
					duplicate = true
					break
				}
			}
			if duplicate {
				c.MarkExhausted(round, cvr.ReasonDuplicate)
				return
			}
		}
		for candidate := range candidates {
			seen[candidate] = true
		}

		if recipient, ok := uniqueContinuing(candidates, status); ok {
			tally[recipient] = tally[recipient].Add(c.FTV)
			c.RecordCountedFor(round, recipient)
			return
		}

		lastRank = rank
	}

	c.MarkExhausted(round, cvr.ReasonNoContinuing)
}

// uniqueContinuing returns the single Continuing candidate among
// candidates, if exactly one exists. An overvote decision of NONE
// guarantees at most one is ever found here.
func uniqueContinuing(candidates map[cvr.CandidateID]struct{}, status *StatusTracker) (cvr.CandidateID, bool) {
	var found cvr.CandidateID
	ok := false
	for candidate := range candidates {
		if status.IsContinuing(candidate) {
			found = candidate
			ok = true
			break
		}
	}
	return found, ok
}
