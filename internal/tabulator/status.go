package tabulator

import "github.com/openrcv/tabulator/internal/cvr"

// Status is one of a candidate's three disjoint states during a
// tabulation run.
type Status int

const (
	StatusContinuing Status = iota
	StatusWinner
	StatusEliminated
)

// StatusTracker tracks each candidate's Continuing/Winner/Eliminated
// state across rounds. The candidate order is fixed at construction to
// the configured declaration order, so every order-sensitive iteration
// in the engine walks that order rather than a map's hash order.
type StatusTracker struct {
	order           []cvr.CandidateID
	status          map[cvr.CandidateID]Status
	winnerRound     map[cvr.CandidateID]int
	eliminatedRound map[cvr.CandidateID]int
}

// NewStatusTracker creates a tracker with every candidate in order
// marked Continuing.
func NewStatusTracker(order []cvr.CandidateID) *StatusTracker {
	status := make(map[cvr.CandidateID]Status, len(order))
	for _, id := range order {
		status[id] = StatusContinuing
	}
	return &StatusTracker{
		order:           order,
		status:          status,
		winnerRound:     make(map[cvr.CandidateID]int),
		eliminatedRound: make(map[cvr.CandidateID]int),
	}
}

// StatusOf returns id's current status.
func (t *StatusTracker) StatusOf(id cvr.CandidateID) Status { return t.status[id] }

// IsContinuing reports whether id is neither a winner nor eliminated.
// An id outside this tracker's order (e.g. a candidate excluded from
// the current pass entirely) is never continuing — the zero Status
// value is StatusContinuing, so an untracked id must be checked for
// map membership rather than relying on the zero value.
func (t *StatusTracker) IsContinuing(id cvr.CandidateID) bool {
	status, tracked := t.status[id]
	return tracked && status == StatusContinuing
}

// Continuing returns every Continuing candidate in declaration order.
func (t *StatusTracker) Continuing() []cvr.CandidateID {
	out := make([]cvr.CandidateID, 0, len(t.order))
	for _, id := range t.order {
		if t.status[id] == StatusContinuing {
			out = append(out, id)
		}
	}
	return out
}

// All returns every tracked candidate in declaration order.
func (t *StatusTracker) All() []cvr.CandidateID {
	out := make([]cvr.CandidateID, len(t.order))
	copy(out, t.order)
	return out
}

// MarkWinner transitions id to Winner, recording the round it won.
func (t *StatusTracker) MarkWinner(id cvr.CandidateID, round int) {
	t.status[id] = StatusWinner
	t.winnerRound[id] = round
}

// MarkEliminated transitions id to Eliminated, recording the round.
func (t *StatusTracker) MarkEliminated(id cvr.CandidateID, round int) {
	t.status[id] = StatusEliminated
	t.eliminatedRound[id] = round
}

// CountWinners returns the number of candidates currently marked Winner.
func (t *StatusTracker) CountWinners() int {
	n := 0
	for _, id := range t.order {
		if t.status[id] == StatusWinner {
			n++
		}
	}
	return n
}

// CountContinuing returns the number of candidates currently Continuing.
func (t *StatusTracker) CountContinuing() int {
	n := 0
	for _, id := range t.order {
		if t.status[id] == StatusContinuing {
			n++
		}
	}
	return n
}

// WinnersByRound returns a copy of the winner -> round map.
func (t *StatusTracker) WinnersByRound() map[cvr.CandidateID]int {
	out := make(map[cvr.CandidateID]int, len(t.winnerRound))
	for k, v := range t.winnerRound {
		out[k] = v
	}
	return out
}

// EliminatedByRound returns a copy of the eliminated -> round map.
func (t *StatusTracker) EliminatedByRound() map[cvr.CandidateID]int {
	out := make(map[cvr.CandidateID]int, len(t.eliminatedRound))
	for k, v := range t.eliminatedRound {
		out[k] = v
	}
	return out
}
