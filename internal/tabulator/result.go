package tabulator

import (
	"github.com/openrcv/tabulator/internal/cvr"
	"github.com/openrcv/tabulator/internal/decimal"
)

// RoundTallyHistory maps a 1-based round index to that round's
// candidate tally. Once written for round r, a history is never
// edited — round tallies are append-only across a run.
type RoundTallyHistory map[int]map[cvr.CandidateID]decimal.Decimal

// PrecinctRoundTally maps a precinct identifier to its own round
// tally history. A precinct appears iff at least one CVR references it.
type PrecinctRoundTally map[string]RoundTallyHistory

// RoundExhaustionSummary records how many CVRs were newly exhausted in
// one round, broken down by reason, without requiring a caller to
// re-walk every CVR's audit trail to answer "how many exhausted this
// round, and why."
type RoundExhaustionSummary struct {
	Round          int
	NewlyExhausted map[string]int
}

// Summary is the complete in-memory result of one tabulation run.
type Summary struct {
	WinnersByRound    map[cvr.CandidateID]int
	EliminatedByRound map[cvr.CandidateID]int
	RoundTallies      RoundTallyHistory
	PrecinctTallies   PrecinctRoundTally
	Eliminations      []EliminationRecord
	Exhaustions       []RoundExhaustionSummary
	RoundsRun         int
}
