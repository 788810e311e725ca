// Package tabulator implements the round-by-round ranked-choice
// tabulation algorithm: per-round vote application, threshold and
// winner detection, surplus transfer, and the elimination pipeline,
// driven by a single-threaded state machine with no suspension points
// inside the round loop. A Driver is single-use.
package tabulator

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/openrcv/tabulator/internal/config"
	"github.com/openrcv/tabulator/internal/cvr"
	"github.com/openrcv/tabulator/internal/decimal"
	"github.com/openrcv/tabulator/internal/tabulator/metrics"
)

// Driver owns one tabulation run. It takes exclusive ownership of the
// supplied CVRs for the run's duration; constructing a second
// tabulation over the same CVRs requires a fresh list.
type Driver struct {
	Config     *config.ContestConfig
	CVRs       []*cvr.CVR
	TieBreaker *TieBreaker
	Tracer     trace.Tracer
	Metrics    *metrics.Recorder
}

// NewDriver constructs a Driver for cfg over cvrs, using tieBreaker to
// resolve any ties the run encounters.
func NewDriver(cfg *config.ContestConfig, cvrs []*cvr.CVR, tieBreaker *TieBreaker) *Driver {
	return &Driver{Config: cfg, CVRs: cvrs, TieBreaker: tieBreaker}
}

func (d *Driver) tracer() trace.Tracer {
	if d.Tracer != nil {
		return d.Tracer
	}
	return otel.Tracer("github.com/openrcv/tabulator/internal/tabulator")
}

// Run executes the full tabulation and returns its Summary. The mode
// in Config.Rules.WinnerElectionMode selects which round-loop variant
// runs — see passOptions and runSequential.
func (d *Driver) Run(ctx context.Context) (*Summary, error) {
	mode := d.Config.Rules.WinnerElectionMode

	if mode == config.MultiSeatSequentialWinnerTakesAll {
		return d.runSequential(ctx)
	}

	excluded := map[cvr.CandidateID]bool{}
	order := d.buildCandidateOrder(excluded)

	return d.runPass(ctx, d.CVRs, order, d.Config.Rules.NumberOfWinners, passOptions{
		bypassSurplus:          mode == config.SingleSeatContinueUntilTwoCandidatesRemain || mode == config.MultiSeatBottomsUp,
		continueUntilTwoRemain: mode == config.SingleSeatContinueUntilTwoCandidatesRemain,
		bottomsUp:              mode == config.MultiSeatBottomsUp,
		onlyOneWinnerPerRound:  mode == config.MultiSeatAllowOnlyOneWinnerPerRound,
	})
}

// passOptions selects the per-mode surplus-transfer and termination
// bypass behavior for one round-loop pass.
type passOptions struct {
	bypassSurplus          bool
	continueUntilTwoRemain bool
	bottomsUp              bool
	onlyOneWinnerPerRound  bool
}

// buildCandidateOrder returns the declared, non-excluded candidate
// identifiers in configuration order, plus UWI when enabled, skipping
// any identifier in excluded (used by the sequential-winner-takes-all
// mode to retire a winner between passes).
func (d *Driver) buildCandidateOrder(excluded map[cvr.CandidateID]bool) []cvr.CandidateID {
	var order []cvr.CandidateID
	for _, c := range d.Config.Candidates {
		if c.Excluded {
			continue
		}
		id := cvr.CandidateID(c.Name)
		if excluded[id] {
			continue
		}
		order = append(order, id)
	}
	if d.Config.Rules.UsesUWI() {
		uwi := cvr.CandidateID(d.Config.Rules.UWILabel())
		if !excluded[uwi] {
			order = append(order, uwi)
		}
	}
	return order
}

// runPass executes the round loop over cvrs and order until
// seatsToElect winners are declared (or a bottoms-up/two-remain
// terminal condition fires), returning the full Summary for this pass.
func (d *Driver) runPass(ctx context.Context, cvrs []*cvr.CVR, order []cvr.CandidateID, seatsToElect int, opts passOptions) (*Summary, error) {
	scale := d.Config.Rules.DecimalPlacesForVoteArithmetic
	status := NewStatusTracker(order)
	roundHistory := RoundTallyHistory{}
	precinctHistory := PrecinctRoundTally{}
	var eliminations []EliminationRecord
	var exhaustions []RoundExhaustionSummary

	rules := RoundRules{
		OvervoteRule:                d.Config.Rules.OvervoteRule,
		OvervoteLabel:               cvr.CandidateID(d.Config.Rules.OvervoteLabel),
		MaxRankingsAllowed:          d.Config.Rules.MaxRankingsAllowed,
		MaxSkippedRanksAllowed:      d.Config.Rules.MaxSkippedRanksAllowed,
		ExhaustOnDuplicateCandidate: d.Config.Rules.ExhaustOnDuplicateCandidate,
		Scale:                       scale,
	}

	// Tabulation terminates in at most |candidates| rounds: each round
	// either elects a winner or eliminates at least one continuing
	// candidate. One extra round of slack covers bottoms-up's terminal
	// round, which elects without a further elimination.
	maxRounds := len(order) + 1
	round := 0

	for {
		if round >= maxRounds {
			return nil, NewTabulationError(ErrorKindTabulationInvariant, round, "", "tabulation did not terminate within the candidate bound", nil)
		}
		round++

		ctx, span := d.tracer().Start(ctx, "tabulator.round", trace.WithAttributes(attribute.Int("round", round)))

		tally := make(map[cvr.CandidateID]decimal.Decimal, len(order))
		for _, id := range order {
			tally[id] = decimal.Zero(scale)
		}

		exhaustCounts := map[string]int{}
		for _, c := range cvrs {
			wasExhausted := c.Exhausted
			ApplyRound(c, round, rules, status, tally)
			if !wasExhausted && c.Exhausted {
				exhaustCounts[c.ExhaustedReason]++
			}
			if c.HasPrecinct() {
				if _, ok := precinctHistory[c.Precinct]; !ok {
					precinctHistory[c.Precinct] = RoundTallyHistory{}
				}
				if c.CurrentRecipient != "" {
					mirrorPrecinct(precinctHistory, c.Precinct, round, c.CurrentRecipient, c.FTV, scale)
				}
			}
		}
		if len(exhaustCounts) > 0 {
			exhaustions = append(exhaustions, RoundExhaustionSummary{Round: round, NewlyExhausted: exhaustCounts})
			d.Metrics.ObserveExhaustions(exhaustCounts)
		}

		roundHistory[round] = tally
		d.Metrics.ObserveRound(round, tally)

		continuing := status.Continuing()

		if opts.bottomsUp && len(continuing) == seatsToElect-status.CountWinners() {
			for _, id := range continuing {
				status.MarkWinner(id, round)
				d.Metrics.ObserveWinner(round)
			}
			span.End()
			break
		}

		if opts.continueUntilTwoRemain && len(continuing) == 2 {
			winner, err := d.pickHigherOfTwo(ctx, continuing, tally, round, roundHistory)
			if err != nil {
				span.End()
				return nil, err
			}
			status.MarkWinner(winner, round)
			d.Metrics.ObserveWinner(round)
			span.End()
			break
		}

		total := SumTally(tally, continuing, scale)
		seatsRemaining := seatsToElect - status.CountWinners()
		threshold := ComputeThreshold(total, seatsRemaining, d.Config.Rules.HareQuota, scale)

		winners := DetectWinners(tally, continuing, threshold)

		if len(winners) > 0 {
			if opts.onlyOneWinnerPerRound && len(winners) > 1 {
				sole, err := d.selectHighest(ctx, winners, tally, round, roundHistory)
				if err != nil {
					span.End()
					return nil, err
				}
				winners = []cvr.CandidateID{sole}
			}

			for _, w := range winners {
				status.MarkWinner(w, round)
				d.Metrics.ObserveWinner(round)
				if !opts.bypassSurplus && status.CountWinners() < seatsToElect {
					TransferSurplus(w, tally[w], threshold, cvrs, scale)
				}
			}

			span.End()
			if status.CountWinners() >= seatsToElect {
				break
			}
			continue
		}

		record, err := RunEliminationPipeline(ctx, EliminationParams{
			Round:                   round,
			UWILabel:                cvr.CandidateID(d.Config.Rules.UWILabel()),
			Status:                  status,
			Tally:                   tally,
			Continuing:              continuing,
			Scale:                   scale,
			MinimumVoteThreshold:    d.Config.Rules.MinimumVoteThreshold,
			BatchEliminationEnabled: d.Config.Rules.BatchElimination,
			TieBreaker:              d.TieBreaker,
			RoundHistory:            roundHistory,
		})
		if err != nil {
			span.End()
			return nil, err
		}
		for _, c := range record.Candidates {
			status.MarkEliminated(c, round)
		}
		d.Metrics.ObserveElimination(record.Strategy, len(record.Candidates))
		eliminations = append(eliminations, *record)
		span.End()
	}

	return &Summary{
		WinnersByRound:    status.WinnersByRound(),
		EliminatedByRound: status.EliminatedByRound(),
		RoundTallies:      roundHistory,
		PrecinctTallies:   precinctHistory,
		Eliminations:      eliminations,
		Exhaustions:       exhaustions,
		RoundsRun:         round,
	}, nil
}

// pickHigherOfTwo implements the terminal step of
// SINGLE_SEAT_CONTINUE_UNTIL_TWO_CANDIDATES_REMAIN: the higher tally
// wins outright; an exact tie goes to the tie-breaker.
func (d *Driver) pickHigherOfTwo(ctx context.Context, continuing []cvr.CandidateID, tally map[cvr.CandidateID]decimal.Decimal, round int, roundHistory RoundTallyHistory) (cvr.CandidateID, error) {
	a, b := continuing[0], continuing[1]
	switch tally[a].Cmp(tally[b]) {
	case 0:
		return d.TieBreaker.Break(ctx, continuing, round, true, roundHistory)
	case 1:
		return a, nil
	default:
		return b, nil
	}
}

// selectHighest implements MULTI_SEAT_ALLOW_ONLY_ONE_WINNER_PER_ROUND:
// among candidates that crossed the threshold this round, only the
// single highest tally is elected; a tie at the top is resolved by the
// tie-breaker.
func (d *Driver) selectHighest(ctx context.Context, candidates []cvr.CandidateID, tally map[cvr.CandidateID]decimal.Decimal, round int, roundHistory RoundTallyHistory) (cvr.CandidateID, error) {
	best := candidates[0]
	tied := []cvr.CandidateID{best}

	for _, id := range candidates[1:] {
		switch tally[id].Cmp(tally[best]) {
		case 1:
			best = id
			tied = []cvr.CandidateID{best}
		case 0:
			tied = append(tied, id)
		}
	}
	if len(tied) == 1 {
		return best, nil
	}
	return d.TieBreaker.Break(ctx, tied, round, true, roundHistory)
}

// runSequential implements MULTI_SEAT_SEQUENTIAL_WINNER_TAKES_ALL: each
// pass runs a fresh single-winner tabulation over the full original
// CVR set (reset to FTV=1, unexhausted); after a pass elects a winner,
// that candidate is excluded and the next pass reruns from round 1.
// Round tallies and elimination history do not carry over between
// passes — only the running winner set does — so each pass's audit
// trail is self-contained; passes are distinguished in the combined
// history by a 1000x round offset so no two passes' round numbers
// collide when merged into one summary.
func (d *Driver) runSequential(ctx context.Context) (*Summary, error) {
	excluded := map[cvr.CandidateID]bool{}
	combined := &Summary{
		WinnersByRound:    map[cvr.CandidateID]int{},
		EliminatedByRound: map[cvr.CandidateID]int{},
		RoundTallies:      RoundTallyHistory{},
		PrecinctTallies:   PrecinctRoundTally{},
	}

	seats := d.Config.Rules.NumberOfWinners
	pass := 0

	for len(combined.WinnersByRound) < seats {
		pass++
		order := d.buildCandidateOrder(excluded)
		freshCVRs := cloneCVRs(d.CVRs, d.Config.Rules.DecimalPlacesForVoteArithmetic)

		passSummary, err := d.runPass(ctx, freshCVRs, order, 1, passOptions{})
		if err != nil {
			return nil, err
		}

		var winner cvr.CandidateID
		for id := range passSummary.WinnersByRound {
			winner = id
		}
		if winner == "" {
			return nil, NewTabulationError(ErrorKindTabulationInvariant, pass, "", "sequential pass produced no winner", nil)
		}

		combined.WinnersByRound[winner] = pass*1000 + passSummary.WinnersByRound[winner]
		excluded[winner] = true

		for r, tally := range passSummary.RoundTallies {
			combined.RoundTallies[pass*1000+r] = tally
		}
		for id, r := range passSummary.EliminatedByRound {
			combined.EliminatedByRound[id] = pass*1000 + r
		}
		for precinct, history := range passSummary.PrecinctTallies {
			dst, ok := combined.PrecinctTallies[precinct]
			if !ok {
				dst = RoundTallyHistory{}
				combined.PrecinctTallies[precinct] = dst
			}
			for r, tally := range history {
				dst[pass*1000+r] = tally
			}
		}
		combined.Eliminations = append(combined.Eliminations, passSummary.Eliminations...)
		combined.Exhaustions = append(combined.Exhaustions, passSummary.Exhaustions...)
		combined.RoundsRun += passSummary.RoundsRun
	}

	return combined, nil
}

// cloneCVRs rebuilds fresh CVR objects over the same immutable ballot
// data, resetting every mutable field — required between
// sequential-winner-takes-all passes, since each pass tabulates the
// full original CVR set from scratch.
func cloneCVRs(original []*cvr.CVR, scale int) []*cvr.CVR {
	out := make([]*cvr.CVR, len(original))
	for i, c := range original {
		out[i] = cvr.New(c.SourceFile, c.RecordID, c.RawData, c.Rankings, c.Precinct, scale)
	}
	return out
}

func mirrorPrecinct(history PrecinctRoundTally, precinct string, round int, candidate cvr.CandidateID, ftv decimal.Decimal, scale int) {
	roundMap, ok := history[precinct]
	if !ok {
		roundMap = RoundTallyHistory{}
		history[precinct] = roundMap
	}
	tally, ok := roundMap[round]
	if !ok {
		tally = map[cvr.CandidateID]decimal.Decimal{}
		roundMap[round] = tally
	}
	current, ok := tally[candidate]
	if !ok {
		current = decimal.Zero(scale)
	}
	tally[candidate] = current.Add(ftv)
}
