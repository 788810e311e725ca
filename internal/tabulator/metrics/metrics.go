// Package metrics exposes Prometheus instrumentation for the
// tabulation engine: per-round tallies, winners, eliminations, and
// exhaustions, registered through promauto so every counter and gauge
// is wired into the default registry on construction.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/openrcv/tabulator/internal/cvr"
	"github.com/openrcv/tabulator/internal/decimal"
)

// Recorder records per-round tabulation progress as Prometheus
// metrics. A Recorder is safe for the single-threaded round loop to
// call once per round; it holds no tabulation state of its own.
type Recorder struct {
	roundsTotal      prometheus.Counter
	candidateTally   *prometheus.GaugeVec
	eliminations     *prometheus.CounterVec
	winners          *prometheus.CounterVec
	newlyExhausted   *prometheus.CounterVec
}

// NewRecorder creates a Recorder and registers its metrics in the
// default Prometheus registry.
func NewRecorder(contestName string) *Recorder {
	labels := prometheus.Labels{"contest": contestName}
	return &Recorder{
		roundsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "rcv_tabulator_rounds_total",
			Help:        "Total number of tabulation rounds run.",
			ConstLabels: labels,
		}),
		candidateTally: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "rcv_tabulator_candidate_tally",
			Help:        "Current candidate tally, observed once per round.",
			ConstLabels: labels,
		}, []string{"round", "candidate"}),
		eliminations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "rcv_tabulator_eliminations_total",
			Help:        "Candidates eliminated, labeled by elimination strategy.",
			ConstLabels: labels,
		}, []string{"strategy"}),
		winners: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "rcv_tabulator_winners_total",
			Help:        "Candidates declared winners, labeled by round.",
			ConstLabels: labels,
		}, []string{"round"}),
		newlyExhausted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "rcv_tabulator_cvrs_exhausted_total",
			Help:        "CVRs newly exhausted, labeled by reason.",
			ConstLabels: labels,
		}, []string{"reason"}),
	}
}

// ObserveRound records one round's candidate tally.
func (r *Recorder) ObserveRound(round int, tally map[cvr.CandidateID]decimal.Decimal) {
	if r == nil {
		return
	}
	r.roundsTotal.Inc()
	roundLabel := strconv.Itoa(round)
	for candidate, v := range tally {
		f, _ := strconv.ParseFloat(v.String(), 64)
		r.candidateTally.WithLabelValues(roundLabel, string(candidate)).Set(f)
	}
}

// ObserveElimination records one elimination event.
func (r *Recorder) ObserveElimination(strategy string, count int) {
	if r == nil {
		return
	}
	r.eliminations.WithLabelValues(strategy).Add(float64(count))
}

// ObserveWinner records one winner declared in round.
func (r *Recorder) ObserveWinner(round int) {
	if r == nil {
		return
	}
	r.winners.WithLabelValues(strconv.Itoa(round)).Inc()
}

// ObserveExhaustions records newly exhausted CVRs by reason.
func (r *Recorder) ObserveExhaustions(byReason map[string]int) {
	if r == nil {
		return
	}
	for reason, count := range byReason {
		r.newlyExhausted.WithLabelValues(reason).Add(float64(count))
	}
}
