package tabulator

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/openrcv/tabulator/internal/config"
	"github.com/openrcv/tabulator/internal/cvr"
	"github.com/openrcv/tabulator/internal/decimal"
)

// TieBreakOracle resolves an INTERACTIVE tie-break by asking an
// external capability — a human operator, typically — to choose one
// candidate from the tied set. The core does not manage the I/O
// itself; it only blocks on this call.
type TieBreakOracle interface {
	Resolve(ctx context.Context, tied []cvr.CandidateID, round int, forWinner bool) (cvr.CandidateID, error)
}

// TieBreaker resolves ties per the configured tiebreak mode. It is
// constructed once per tabulation run; GENERATE_PERMUTATION's
// permutation is computed once at construction, never per tie.
type TieBreaker struct {
	Mode        config.TiebreakMode
	RandomSeed  int64
	Oracle      TieBreakOracle
	Permutation []cvr.CandidateID
}

// NewTieBreaker constructs a TieBreaker, generating the permutation up
// front when the mode requires one.
func NewTieBreaker(mode config.TiebreakMode, seed int64, oracle TieBreakOracle, candidates []cvr.CandidateID) *TieBreaker {
	tb := &TieBreaker{Mode: mode, RandomSeed: seed, Oracle: oracle}
	if mode == config.TiebreakGeneratePermutation {
		tb.Permutation = GeneratePermutation(candidates, seed)
	}
	return tb
}

// GeneratePermutation deterministically shuffles candidates using
// seed — a pure function of seed and the input list only, so repeated
// calls with the same arguments always agree.
func GeneratePermutation(candidates []cvr.CandidateID, seed int64) []cvr.CandidateID {
	perm := make([]cvr.CandidateID, len(candidates))
	copy(perm, candidates)
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(perm), func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
	return perm
}

// Break resolves a tie among tied, either picking a winner (forWinner
// = true, e.g. MULTI_SEAT_ALLOW_ONLY_ONE_WINNER_PER_ROUND) or a loser
// (forWinner = false, regular elimination). roundHistory supplies the
// prior-round tallies the PREVIOUS_ROUND_COUNTS_* modes consult.
func (tb *TieBreaker) Break(ctx context.Context, tied []cvr.CandidateID, round int, forWinner bool, roundHistory RoundTallyHistory) (cvr.CandidateID, error) {
	if len(tied) == 0 {
		return "", ErrTieUnresolved
	}
	if len(tied) == 1 {
		return tied[0], nil
	}

	switch tb.Mode {
	case config.TiebreakRandom:
		return randomPick(tied, tb.RandomSeed, round), nil
	case config.TiebreakInteractive:
		return tb.resolveInteractive(ctx, tied, round, forWinner)
	case config.TiebreakGeneratePermutation:
		return permutationPick(tied, tb.Permutation, forWinner), nil
	case config.TiebreakPreviousRoundCountsThenRandom:
		if winner, ok := previousRoundPick(tied, round, roundHistory, forWinner); ok {
			return winner, nil
		}
		return randomPick(tied, tb.RandomSeed, round), nil
	case config.TiebreakPreviousRoundCountsThenInteractive:
		if winner, ok := previousRoundPick(tied, round, roundHistory, forWinner); ok {
			return winner, nil
		}
		return tb.resolveInteractive(ctx, tied, round, forWinner)
	default:
		return "", fmt.Errorf("tabulator: unknown tiebreak mode %q", tb.Mode)
	}
}

func (tb *TieBreaker) resolveInteractive(ctx context.Context, tied []cvr.CandidateID, round int, forWinner bool) (cvr.CandidateID, error) {
	if tb.Oracle == nil {
		return "", NewTabulationError(ErrorKindTieBreakUnresolved, round, "", "interactive tiebreak mode configured with no oracle", nil)
	}
	choice, err := tb.Oracle.Resolve(ctx, tied, round, forWinner)
	if err != nil {
		return "", NewTabulationError(ErrorKindTieBreakUnresolved, round, "", "interactive tie-break oracle failed", err)
	}
	for _, id := range tied {
		if id == choice {
			return choice, nil
		}
	}
	return "", NewTabulationError(ErrorKindTieBreakUnresolved, round, string(choice), "oracle selection is not a member of the tied set", ErrTieUnresolved)
}

// randomPick seeds a PRNG from seed XOR round and picks uniformly over
// tied's order, which callers supply in declaration order.
func randomPick(tied []cvr.CandidateID, seed int64, round int) cvr.CandidateID {
	r := rand.New(rand.NewSource(seed ^ int64(round)))
	return tied[r.Intn(len(tied))]
}

// permutationPick resolves a tie using the precomputed permutation:
// the earliest-appearing candidate wins a winner tie, the
// latest-appearing candidate loses an elimination tie.
func permutationPick(tied []cvr.CandidateID, permutation []cvr.CandidateID, forWinner bool) cvr.CandidateID {
	position := make(map[cvr.CandidateID]int, len(permutation))
	for i, id := range permutation {
		position[id] = i
	}

	best := tied[0]
	for _, id := range tied[1:] {
		if forWinner && position[id] < position[best] {
			best = id
		} else if !forWinner && position[id] > position[best] {
			best = id
		}
	}
	return best
}

// previousRoundPick walks rounds backward from round-1 to round 1,
// looking for the first round where the tied set has a unique
// extremum (max for a winner tie, min for a loser tie).
func previousRoundPick(tied []cvr.CandidateID, round int, roundHistory RoundTallyHistory, forWinner bool) (cvr.CandidateID, bool) {
	for r := round - 1; r >= 1; r-- {
		tallyR, ok := roundHistory[r]
		if !ok {
			continue
		}
		if winner, unique := findExtremum(tied, tallyR, forWinner); unique {
			return winner, true
		}
	}
	return "", false
}

func findExtremum(tied []cvr.CandidateID, tallyR map[cvr.CandidateID]decimal.Decimal, forWinner bool) (cvr.CandidateID, bool) {
	best := tied[0]
	bestVal, ok := tallyR[best]
	if !ok {
		return "", false
	}
	tiedCount := 1

	for _, id := range tied[1:] {
		v, ok := tallyR[id]
		if !ok {
			continue
		}
		cmp := v.Cmp(bestVal)
		switch {
		case (forWinner && cmp > 0) || (!forWinner && cmp < 0):
			best = id
			bestVal = v
			tiedCount = 1
		case cmp == 0:
			tiedCount++
		}
	}

	if tiedCount != 1 {
		return "", false
	}
	return best, true
}
