package config

import (
	"os"
	"path/filepath"

	"github.com/agnivade/levenshtein"
	"github.com/go-playground/validator/v10"

	"github.com/openrcv/tabulator/internal/cvr"
)

var structValidator = validator.New()

// Validate runs every static check required before tabulation may
// proceed. It always runs every check to completion — no check
// short-circuits another — and returns the accumulated result.
// Tabulation must not be attempted unless result.Valid().
func Validate(cfg *ContestConfig) *ValidationResult {
	result := &ValidationResult{}

	if err := structValidator.Struct(cfg); err != nil {
		result.AddError("struct validation failed: %v", err)
	}

	checkVersion(cfg, result)
	checkCVRSources(cfg, result)
	checkCandidates(cfg, result)
	checkReservedLabels(cfg, result)
	checkEnums(cfg, result)
	checkNumericRanges(cfg, result)
	checkRankLimits(cfg, result)
	checkMultiSeatCompatibility(cfg, result)
	checkUWIRequirement(cfg, result)
	checkOvervoteLabelRuleCompatibility(cfg, result)
	warnNearDuplicateCandidateNames(cfg, result)

	return result
}

func checkVersion(cfg *ContestConfig, result *ValidationResult) {
	if cfg.TabulatorVersion != EngineVersion {
		result.AddError("tabulatorVersion %q does not match engine version %q", cfg.TabulatorVersion, EngineVersion)
	}
	if cfg.OutputSettings.ContestName == "" {
		result.AddError("outputSettings.contestName is required")
	}
}

func checkCVRSources(cfg *ContestConfig, result *ValidationResult) {
	if len(cfg.CVRFileSources) == 0 {
		result.AddError("at least one CVR source is required")
		return
	}

	seenPaths := make(map[string]bool)
	cdfCount := 0
	for i, src := range cfg.CVRFileSources {
		if src.FilePath == "" {
			result.AddError("cvrFileSources[%d].filePath is required", i)
			continue
		}

		resolved, err := filepath.Abs(src.FilePath)
		if err != nil {
			result.AddError("cvrFileSources[%d].filePath %q could not be resolved: %v", i, src.FilePath, err)
			continue
		}
		if seenPaths[resolved] {
			result.AddError("cvrFileSources[%d].filePath %q is a duplicate of an earlier source", i, src.FilePath)
		}
		seenPaths[resolved] = true

		if _, err := os.Stat(src.FilePath); err != nil {
			result.AddError("cvrFileSources[%d].filePath %q does not exist: %v", i, src.FilePath, err)
		}

		if src.IsCDF() {
			cdfCount++
			continue
		}

		if src.FirstVoteColumnIndex == 0 {
			result.AddError("cvrFileSources[%d].firstVoteColumnIndex is required for non-CDF sources", i)
		}
		if src.FirstVoteRowIndex == 0 {
			result.AddError("cvrFileSources[%d].firstVoteRowIndex is required for non-CDF sources", i)
		}
		if cfg.OutputSettings.TabulateByPrecinct && src.PrecinctColumnIndex == 0 {
			result.AddError("cvrFileSources[%d].precinctColumnIndex is required when tabulateByPrecinct is enabled", i)
		}
	}

	if cdfCount > 0 {
		if len(cfg.CVRFileSources) > 1 {
			result.AddError("a CDF source must be the only CVR source, found %d sources total", len(cfg.CVRFileSources))
		}
		if cfg.OutputSettings.TabulateByPrecinct {
			result.AddError("CDF sources are incompatible with tabulateByPrecinct")
		}
	}
}

func checkCandidates(cfg *ContestConfig, result *ValidationResult) {
	if len(cfg.Candidates) == 0 {
		result.AddError("at least one candidate is required")
		return
	}

	names := make(map[string]bool)
	codes := make(map[string]bool)
	anyHasCode := false
	nonExcluded := 0

	for _, c := range cfg.Candidates {
		if c.Name == "" {
			result.AddError("candidate name must not be empty")
			continue
		}
		if names[c.Name] {
			result.AddError("duplicate candidate name %q", c.Name)
		}
		names[c.Name] = true

		if c.Code != "" {
			anyHasCode = true
			if codes[c.Code] {
				result.AddError("duplicate candidate code %q", c.Code)
			}
			codes[c.Code] = true
		}

		if !c.Excluded {
			nonExcluded++
		}
	}

	if nonExcluded == 0 {
		result.AddError("at least one non-excluded declared candidate is required")
	}

	if anyHasCode {
		for _, c := range cfg.Candidates {
			if c.Code == "" {
				result.AddError("candidate %q is missing a code, but other candidates have one — codes must be present on every candidate or none", c.Name)
			}
		}
	}
}

func checkReservedLabels(cfg *ContestConfig, result *ValidationResult) {
	r := cfg.Rules
	labels := map[string]string{}
	if r.OvervoteLabel != "" {
		labels["overvoteLabel"] = r.OvervoteLabel
	}
	if r.UndervoteLabel != "" {
		labels["undervoteLabel"] = r.UndervoteLabel
	}
	if r.UndeclaredWriteInLabel != "" {
		labels["undeclaredWriteInLabel"] = r.UndeclaredWriteInLabel
	}

	seen := make(map[string]string) // value -> field name that first used it
	for field, value := range labels {
		if owner, exists := seen[value]; exists {
			result.AddError("%s and %s must not share the value %q", owner, field, value)
		}
		seen[value] = field
	}

	reservedTokens := map[string]bool{
		cvr.ReasonOvervote:      true,
		cvr.ReasonUndervote:     true,
		cvr.ReasonDuplicate:     true,
		cvr.ReasonNoContinuing:  true,
		cvr.ReasonSurplusRunout: true,
	}

	for _, c := range cfg.Candidates {
		if v, ok := labels["overvoteLabel"]; ok && (c.Name == v || c.Code == v) {
			result.AddError("candidate %q collides with overvoteLabel %q", c.Name, v)
		}
		if v, ok := labels["undervoteLabel"]; ok && (c.Name == v || c.Code == v) {
			result.AddError("candidate %q collides with undervoteLabel %q", c.Name, v)
		}
		if v, ok := labels["undeclaredWriteInLabel"]; ok && (c.Name == v || c.Code == v) {
			result.AddError("candidate %q collides with undeclaredWriteInLabel %q", c.Name, v)
		}
		if reservedTokens[c.Name] {
			result.AddError("candidate name %q collides with a reserved internal token", c.Name)
		}
	}

	for _, value := range labels {
		if reservedTokens[value] {
			result.AddError("configured label %q collides with a reserved internal token", value)
		}
	}
}

func checkEnums(cfg *ContestConfig, result *ValidationResult) {
	if !knownTiebreakModes[cfg.Rules.TiebreakMode] {
		result.AddError("rules.tiebreakMode %q is not a known tiebreak mode", cfg.Rules.TiebreakMode)
	}
	if !knownOvervoteRules[cfg.Rules.OvervoteRule] {
		result.AddError("rules.overvoteRule %q is not a known overvote rule", cfg.Rules.OvervoteRule)
	}
	if !knownWinnerElectionModes[cfg.Rules.WinnerElectionMode] {
		result.AddError("rules.winnerElectionMode %q is not a known winner election mode", cfg.Rules.WinnerElectionMode)
	}
	if cfg.Rules.TiebreakMode.UsesRandomSeed() && cfg.Rules.RandomSeed == nil {
		result.AddError("rules.randomSeed is required when tiebreakMode is %q", cfg.Rules.TiebreakMode)
	}
}

func checkNumericRanges(cfg *ContestConfig, result *ValidationResult) {
	r := cfg.Rules
	if r.NumberOfWinners < 1 || r.NumberOfWinners > len(cfg.Candidates) {
		result.AddError("rules.numberOfWinners (%d) must be between 1 and the number of declared candidates (%d)", r.NumberOfWinners, len(cfg.Candidates))
	}
	if r.DecimalPlacesForVoteArithmetic < 1 || r.DecimalPlacesForVoteArithmetic > 20 {
		result.AddError("rules.decimalPlacesForVoteArithmetic (%d) must be between 1 and 20", r.DecimalPlacesForVoteArithmetic)
	}
	if r.MinimumVoteThreshold < 0 || r.MinimumVoteThreshold > 1_000_000 {
		result.AddError("rules.minimumVoteThreshold (%d) must be between 0 and 1,000,000", r.MinimumVoteThreshold)
	}
}

func checkRankLimits(cfg *ContestConfig, result *ValidationResult) {
	if !cfg.Rules.MaxRankingsAllowed.IsMax && cfg.Rules.MaxRankingsAllowed.N <= 0 {
		result.AddError("rules.maxRankingsAllowed must be \"max\" or a positive integer")
	}
	if !cfg.Rules.MaxSkippedRanksAllowed.Unlimited && cfg.Rules.MaxSkippedRanksAllowed.N < 0 {
		result.AddError("rules.maxSkippedRanksAllowed must be \"unlimited\" or a non-negative integer")
	}
}

func checkMultiSeatCompatibility(cfg *ContestConfig, result *ValidationResult) {
	r := cfg.Rules
	multiSeat := r.NumberOfWinners > 1

	if r.WinnerElectionMode == SingleSeatContinueUntilTwoCandidatesRemain && multiSeat {
		result.AddError("singleSeatContinueUntilTwoCandidatesRemain is forbidden when numberOfWinners > 1")
	}
	if r.BatchElimination && multiSeat {
		result.AddError("batchElimination is forbidden when numberOfWinners > 1")
	}
	if r.WinnerElectionMode.IsMultiSeat() && !multiSeat {
		result.AddError("%s is forbidden when numberOfWinners = 1", r.WinnerElectionMode)
	}
	if r.HareQuota && !multiSeat {
		result.AddError("hareQuota is only valid when numberOfWinners > 1")
	}
	if r.BatchElimination && r.WinnerElectionMode == MultiSeatBottomsUp {
		result.AddError("batchElimination is forbidden with MULTI_SEAT_BOTTOMS_UP")
	}
}

func checkUWIRequirement(cfg *ContestConfig, result *ValidationResult) {
	if cfg.Rules.TreatBlankAsUndeclaredWriteIn && cfg.Rules.UndeclaredWriteInLabel == "" {
		result.AddError("rules.undeclaredWriteInLabel is required when treatBlankAsUndeclaredWriteIn is true")
	}
}

func checkOvervoteLabelRuleCompatibility(cfg *ContestConfig, result *ValidationResult) {
	if cfg.Rules.OvervoteLabel == "" {
		return
	}
	switch cfg.Rules.OvervoteRule {
	case OvervoteExhaustImmediately, OvervoteAlwaysSkipToNextRank:
		// compatible: these are the only two rules that define a fixed
		// decision for a rank matching the configured overvote label,
		// independent of which candidates are still continuing.
	default:
		result.AddError("rules.overvoteLabel is configured, but overvoteRule %q does not define a decision for the explicit label — use EXHAUST_IMMEDIATELY or ALWAYS_SKIP_TO_NEXT_RANK", cfg.Rules.OvervoteRule)
	}
}

// warnNearDuplicateCandidateNames flags candidate names that are
// suspiciously close to each other (a likely data-entry typo), using
// edit distance the way a ballot-design QA pass would. This is a
// warning only — only exact duplicates are rejected outright (see
// checkCandidates).
func warnNearDuplicateCandidateNames(cfg *ContestConfig, result *ValidationResult) {
	const maxSuspiciousDistance = 2

	for i := 0; i < len(cfg.Candidates); i++ {
		for j := i + 1; j < len(cfg.Candidates); j++ {
			a, b := cfg.Candidates[i].Name, cfg.Candidates[j].Name
			if a == "" || b == "" || a == b {
				continue
			}
			if dist := levenshtein.ComputeDistance(a, b); dist > 0 && dist <= maxSuspiciousDistance {
				result.AddWarning("candidate names %q and %q differ by only %d character(s) — verify these are not the same candidate", a, b, dist)
			}
		}
	}
}
