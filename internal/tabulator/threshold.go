package tabulator

import (
	"github.com/openrcv/tabulator/internal/cvr"
	"github.com/openrcv/tabulator/internal/decimal"
)

// SumTally adds every Continuing candidate's tally, in declaration
// order, so the sum is reproducible independent of map iteration.
func SumTally(tally map[cvr.CandidateID]decimal.Decimal, continuing []cvr.CandidateID, scale int) decimal.Decimal {
	total := decimal.Zero(scale)
	for _, id := range continuing {
		total = total.Add(tally[id])
	}
	return total
}

// ComputeThreshold returns the round's winning threshold: a
// Droop-style quota by default (divisor = seatsRemaining+1), or a
// Hare quota (divisor = seatsRemaining) when hareQuota is set.
func ComputeThreshold(totalVotes decimal.Decimal, seatsRemaining int, hareQuota bool, scale int) decimal.Decimal {
	divisor := seatsRemaining + 1
	if hareQuota {
		divisor = seatsRemaining
	}
	return decimal.Divide(totalVotes, decimal.NewFromInt64(int64(divisor), scale), scale)
}

// DetectWinners returns every Continuing candidate whose tally
// strictly exceeds threshold, in declaration order.
func DetectWinners(tally map[cvr.CandidateID]decimal.Decimal, continuing []cvr.CandidateID, threshold decimal.Decimal) []cvr.CandidateID {
	var winners []cvr.CandidateID
	for _, id := range continuing {
		if tally[id].GreaterThan(threshold) {
			winners = append(winners, id)
		}
	}
	return winners
}
