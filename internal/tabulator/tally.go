package tabulator

import (
	"sort"

	"github.com/openrcv/tabulator/internal/cvr"
	"github.com/openrcv/tabulator/internal/decimal"
)

// TallyBucket groups every candidate tied at one tally value.
type TallyBucket struct {
	Tally      decimal.Decimal
	Candidates []cvr.CandidateID
}

// InvertTally turns a candidate->Decimal tally into ascending buckets
// of tied candidates. inclusion fixes both which candidates appear and
// the order candidates are grouped within a bucket — callers must pass
// a deterministic, insertion-ordered slice, never range over a map, so
// repeated calls on identical input produce identical output.
func InvertTally(tally map[cvr.CandidateID]decimal.Decimal, inclusion []cvr.CandidateID) []TallyBucket {
	buckets := make([]TallyBucket, 0, len(inclusion))
	index := make(map[string]int, len(inclusion))

	for _, id := range inclusion {
		v := tally[id]
		key := v.String()
		if i, ok := index[key]; ok {
			buckets[i].Candidates = append(buckets[i].Candidates, id)
			continue
		}
		index[key] = len(buckets)
		buckets = append(buckets, TallyBucket{Tally: v, Candidates: []cvr.CandidateID{id}})
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Tally.LessThan(buckets[j].Tally)
	})

	return buckets
}
