package tabulator

import (
	"github.com/openrcv/tabulator/internal/cvr"
	"github.com/openrcv/tabulator/internal/decimal"
)

// TransferSurplus shrinks the FTV of every CVR currently routed
// through winner: fraction = (votes - threshold) / votes, applied by
// multiplying each such CVR's FTV by fraction, rounded toward zero.
// The winner itself stays in place; subsequent rounds stop counting
// for it because continuation logic skips non-Continuing candidates.
func TransferSurplus(winner cvr.CandidateID, votes, threshold decimal.Decimal, cvrs []*cvr.CVR, scale int) {
	surplus := votes.Sub(threshold)
	fraction := decimal.Divide(surplus, votes, scale)
	for _, c := range cvrs {
		if c.CurrentRecipient == winner {
			c.ApplySurplusFraction(fraction, scale)
		}
	}
}
