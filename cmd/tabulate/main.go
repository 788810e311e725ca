// Command tabulate runs the ranked-choice tabulation engine end to
// end against a YAML contest configuration and a local CVR fixture,
// for exercising the engine outside a real vendor export pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"

	"github.com/openrcv/tabulator/internal/config"
	"github.com/openrcv/tabulator/internal/cvr"
	"github.com/openrcv/tabulator/internal/decimal"
	"github.com/openrcv/tabulator/internal/tabulator"
	"github.com/openrcv/tabulator/internal/tabulator/metrics"
)

func main() {
	var (
		configPath   = flag.String("config", "", "Path to the contest configuration YAML file")
		cvrPath      = flag.String("cvr", "", "Path to a CVR fixture file (.json or .csv)")
		seedOverride = flag.Int64("seed", 0, "Override rules.random_seed for this run (0 keeps the configured seed)")
	)
	flag.Parse()

	if *configPath == "" || *cvrPath == "" {
		log.Fatal("both -config and -cvr are required")
	}

	cfg, result, err := config.NewLoader().LoadFile(*configPath)
	if err != nil {
		log.Fatalf("loading contest configuration: %v", err)
	}
	for _, w := range result.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	if !result.Valid() {
		log.Fatalf("invalid contest configuration: %v", result)
	}

	ballots, err := loadCVRFixture(*cvrPath, cfg.Rules.DecimalPlacesForVoteArithmetic)
	if err != nil {
		log.Fatalf("loading CVR fixture: %v", err)
	}

	seed := int64(1)
	if cfg.Rules.RandomSeed != nil {
		seed = *cfg.Rules.RandomSeed
	}
	if *seedOverride != 0 {
		seed = *seedOverride
	}

	tieBreaker := tabulator.NewTieBreaker(cfg.Rules.TiebreakMode, seed, nil, candidateIDs(cfg))

	driver := tabulator.NewDriver(cfg, ballots, tieBreaker)
	driver.Metrics = metrics.NewRecorder(cfg.OutputSettings.ContestName)

	summary, err := driver.Run(context.Background())
	if err != nil {
		log.Fatalf("tabulation failed: %v", err)
	}

	printSummary(cfg, summary)
}

func candidateIDs(cfg *config.ContestConfig) []cvr.CandidateID {
	names := cfg.DeclaredCandidateIDs()
	ids := make([]cvr.CandidateID, len(names))
	for i, n := range names {
		ids[i] = cvr.CandidateID(n)
	}
	return ids
}

func printSummary(cfg *config.ContestConfig, summary *tabulator.Summary) {
	fmt.Printf("contest: %s\n", cfg.OutputSettings.ContestName)
	fmt.Printf("rounds run: %d\n\n", summary.RoundsRun)

	for round := 1; round <= summary.RoundsRun; round++ {
		fmt.Printf("round %d:\n", round)
		tally := summary.RoundTallies[round]
		for _, id := range sortedByTallyDesc(tally) {
			fmt.Printf("  %-20s %s\n", id, tally[id].String())
		}
		for id, r := range summary.WinnersByRound {
			if r == round {
				fmt.Printf("  -> %s elected\n", id)
			}
		}
		for id, r := range summary.EliminatedByRound {
			if r == round {
				fmt.Printf("  -> %s eliminated\n", id)
			}
		}
	}

	fmt.Println()
	for _, exhaustion := range summary.Exhaustions {
		if len(exhaustion.NewlyExhausted) == 0 {
			continue
		}
		fmt.Printf("round %d newly exhausted:\n", exhaustion.Round)
		reasons := make([]string, 0, len(exhaustion.NewlyExhausted))
		for reason := range exhaustion.NewlyExhausted {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Printf("  %s: %d\n", reason, exhaustion.NewlyExhausted[reason])
		}
	}
}

// sortedByTallyDesc orders candidates by descending tally, breaking
// ties by name so output is deterministic across runs.
func sortedByTallyDesc(tally map[cvr.CandidateID]decimal.Decimal) []cvr.CandidateID {
	ids := make([]cvr.CandidateID, 0, len(tally))
	for id := range tally {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if cmp := tally[ids[j]].Cmp(tally[ids[i]]); cmp != 0 {
			return cmp < 0
		}
		return ids[i] < ids[j]
	})
	return ids
}
