// Package config defines the contest configuration object the
// tabulator consumes, and the static validation gate that must pass
// before any tabulation is attempted.
package config

import "gopkg.in/yaml.v3"

// EngineVersion is the tabulator's embedded version string. A contest
// configuration's TabulatorVersion field must match this exactly — it
// is a process-wide read-only value, not something a caller
// configures, so a config built against a different engine version
// is rejected rather than silently tabulated under the wrong rules.
const EngineVersion = "2.1.0"

// OvervoteRule selects how the overvote decision table resolves a
// rank with more than one candidate marked.
type OvervoteRule string

// The overvote rules a contest may configure.
const (
	OvervoteExhaustImmediately          OvervoteRule = "EXHAUST_IMMEDIATELY"
	OvervoteAlwaysSkipToNextRank        OvervoteRule = "ALWAYS_SKIP_TO_NEXT_RANK"
	OvervoteExhaustIfAnyContinuing      OvervoteRule = "EXHAUST_IF_ANY_CONTINUING"
	OvervoteIgnoreIfAnyContinuing       OvervoteRule = "IGNORE_IF_ANY_CONTINUING"
	OvervoteExhaustIfMultipleContinuing OvervoteRule = "EXHAUST_IF_MULTIPLE_CONTINUING"
	OvervoteIgnoreIfMultipleContinuing  OvervoteRule = "IGNORE_IF_MULTIPLE_CONTINUING"
)

// knownOvervoteRules backs the "unknown variant" rejection every
// enum-shaped rule field applies: a value outside this closed set is
// rejected at validation time rather than tripping an unhandled case
// deep in the round loop.
var knownOvervoteRules = map[OvervoteRule]bool{
	OvervoteExhaustImmediately:          true,
	OvervoteAlwaysSkipToNextRank:        true,
	OvervoteExhaustIfAnyContinuing:      true,
	OvervoteIgnoreIfAnyContinuing:       true,
	OvervoteExhaustIfMultipleContinuing: true,
	OvervoteIgnoreIfMultipleContinuing:  true,
}

// TiebreakMode selects the tie-break policy a contest uses to resolve
// ties for a winner or an elimination.
type TiebreakMode string

// The tie-break modes a contest may configure.
const (
	TiebreakRandom                              TiebreakMode = "RANDOM"
	TiebreakInteractive                         TiebreakMode = "INTERACTIVE"
	TiebreakPreviousRoundCountsThenRandom       TiebreakMode = "PREVIOUS_ROUND_COUNTS_THEN_RANDOM"
	TiebreakPreviousRoundCountsThenInteractive  TiebreakMode = "PREVIOUS_ROUND_COUNTS_THEN_INTERACTIVE"
	TiebreakGeneratePermutation                 TiebreakMode = "GENERATE_PERMUTATION"
)

var knownTiebreakModes = map[TiebreakMode]bool{
	TiebreakRandom:                             true,
	TiebreakInteractive:                        true,
	TiebreakPreviousRoundCountsThenRandom:      true,
	TiebreakPreviousRoundCountsThenInteractive: true,
	TiebreakGeneratePermutation:                true,
}

// UsesRandomSeed reports whether this tie-break mode requires
// rules.random_seed to be set.
func (m TiebreakMode) UsesRandomSeed() bool {
	switch m {
	case TiebreakRandom, TiebreakPreviousRoundCountsThenRandom, TiebreakGeneratePermutation:
		return true
	default:
		return false
	}
}

// WinnerElectionMode selects the seat-filling strategy a contest uses
// across the round loop.
type WinnerElectionMode string

// The winner election modes a contest may configure. Standard is the
// implicit default: multiple winners may be seated in the same round
// and surplus transfers as votes come in, with no bypass.
const (
	Standard                                 WinnerElectionMode = "STANDARD"
	SingleSeatContinueUntilTwoCandidatesRemain WinnerElectionMode = "SINGLE_SEAT_CONTINUE_UNTIL_TWO_CANDIDATES_REMAIN"
	MultiSeatAllowOnlyOneWinnerPerRound       WinnerElectionMode = "MULTI_SEAT_ALLOW_ONLY_ONE_WINNER_PER_ROUND"
	MultiSeatBottomsUp                        WinnerElectionMode = "MULTI_SEAT_BOTTOMS_UP"
	MultiSeatSequentialWinnerTakesAll         WinnerElectionMode = "MULTI_SEAT_SEQUENTIAL_WINNER_TAKES_ALL"
)

var knownWinnerElectionModes = map[WinnerElectionMode]bool{
	Standard:                                    true,
	SingleSeatContinueUntilTwoCandidatesRemain: true,
	MultiSeatAllowOnlyOneWinnerPerRound:        true,
	MultiSeatBottomsUp:                          true,
	MultiSeatSequentialWinnerTakesAll:           true,
}

// IsMultiSeat reports whether this mode belongs to the MULTI_SEAT_* family.
func (m WinnerElectionMode) IsMultiSeat() bool {
	switch m {
	case MultiSeatAllowOnlyOneWinnerPerRound, MultiSeatBottomsUp, MultiSeatSequentialWinnerTakesAll:
		return true
	default:
		return false
	}
}

// Candidate is one registered candidate on the contest configuration.
type Candidate struct {
	Name     string `yaml:"name" validate:"required"`
	Code     string `yaml:"code,omitempty"`
	Excluded bool   `yaml:"excluded"`
}

// CVRSource identifies one CVR file and, for non-CDF providers, the
// column/row layout the (out-of-scope) reader needs to parse it.
type CVRSource struct {
	FilePath            string `yaml:"file_path" validate:"required"`
	Provider            string `yaml:"provider" validate:"required"`
	FirstVoteColumnIndex int   `yaml:"first_vote_column_index,omitempty" validate:"omitempty,min=1,max=1000"`
	FirstVoteRowIndex    int   `yaml:"first_vote_row_index,omitempty" validate:"omitempty,min=1,max=100000"`
	IDColumnIndex        int   `yaml:"id_column_index,omitempty" validate:"omitempty,min=1,max=1000"`
	PrecinctColumnIndex  int   `yaml:"precinct_column_index,omitempty" validate:"omitempty,min=1,max=1000"`
	// Parameters carries vendor-specific extras (e.g. sheet name, CDF
	// election index) that the out-of-scope reader interprets. Kept as
	// a raw YAML node so a new vendor's parameters never require
	// widening this struct.
	Parameters yaml.Node `yaml:"parameters,omitempty"`
}

// IsCDF reports whether this source uses the CDF (Common Data Format) provider.
func (s CVRSource) IsCDF() bool { return s.Provider == "CDF" }

// OutputSettings carries metadata and output toggles. Persistence
// itself (XLSX/CDF JSON writing) is out of scope for the core.
type OutputSettings struct {
	ContestName        string `yaml:"contest_name" validate:"required"`
	ContestJurisdiction string `yaml:"contest_jurisdiction,omitempty"`
	ContestOffice      string `yaml:"contest_office,omitempty"`
	ContestDate        string `yaml:"contest_date,omitempty"`
	OutputDirectory    string `yaml:"output_directory,omitempty"`
	TabulateByPrecinct bool   `yaml:"tabulate_by_precinct"`
	GenerateCdfJSON    bool   `yaml:"generate_cdf_json"`
}

// Rules carries every semantic tabulation option a contest configures.
type Rules struct {
	TiebreakMode                  TiebreakMode       `yaml:"tiebreak_mode" validate:"required"`
	OvervoteRule                  OvervoteRule       `yaml:"overvote_rule" validate:"required"`
	WinnerElectionMode            WinnerElectionMode `yaml:"winner_election_mode" validate:"required"`
	MaxRankingsAllowed            MaxRankings        `yaml:"max_rankings_allowed"`
	MaxSkippedRanksAllowed        MaxSkippedRanks    `yaml:"max_skipped_ranks_allowed"`
	NumberOfWinners                int               `yaml:"number_of_winners" validate:"required,min=1"`
	DecimalPlacesForVoteArithmetic int              `yaml:"decimal_places_for_vote_arithmetic" validate:"required,min=1,max=20"`
	MinimumVoteThreshold            int              `yaml:"minimum_vote_threshold" validate:"min=0,max=1000000"`
	NonIntegerWinningThreshold      bool             `yaml:"non_integer_winning_threshold"`
	HareQuota                       bool             `yaml:"hare_quota"`
	BatchElimination                bool             `yaml:"batch_elimination"`
	ExhaustOnDuplicateCandidate      bool             `yaml:"exhaust_on_duplicate_candidate"`
	TreatBlankAsUndeclaredWriteIn    bool             `yaml:"treat_blank_as_undeclared_write_in"`
	UndeclaredWriteInLabel           string           `yaml:"undeclared_write_in_label,omitempty"`
	OvervoteLabel                    string           `yaml:"overvote_label,omitempty"`
	UndervoteLabel                   string           `yaml:"undervote_label,omitempty"`
	// RandomSeed is a pointer so "unset" (nil) is distinguishable from
	// an explicit seed of 0, which several tiebreak modes require.
	RandomSeed *int64 `yaml:"random_seed,omitempty" validate:"omitempty,min=0"`
}

// UWILabel returns the undeclared-write-in bucket identifier used
// throughout the engine ("UWI"), independent of the human-facing
// label configured for input interpretation.
func (r Rules) UWILabel() string { return "UWI" }

// UsesUWI reports whether this contest treats blanks/unregistered
// write-ins as an aggregated UWI candidate.
func (r Rules) UsesUWI() bool { return r.TreatBlankAsUndeclaredWriteIn }

// ContestConfig is the top-level, validated configuration object the
// tabulator receives. It is treated as read-only for the duration of
// a tabulation.
type ContestConfig struct {
	TabulatorVersion string         `yaml:"tabulator_version" validate:"required"`
	OutputSettings   OutputSettings `yaml:"output_settings" validate:"required"`
	CVRFileSources   []CVRSource    `yaml:"cvr_file_sources" validate:"required,min=1,dive"`
	Candidates       []Candidate    `yaml:"candidates" validate:"required,min=1,dive"`
	Rules            Rules          `yaml:"rules" validate:"required"`
}

// DeclaredCandidateIDs returns every candidate name in configuration
// order, plus "UWI" appended when the contest enables undeclared
// write-ins. Every order-sensitive iteration in the engine walks this
// insertion order rather than a map's hash order.
func (c ContestConfig) DeclaredCandidateIDs() []string {
	ids := make([]string, 0, len(c.Candidates)+1)
	for _, cand := range c.Candidates {
		ids = append(ids, cand.Name)
	}
	if c.Rules.UsesUWI() {
		ids = append(ids, c.Rules.UWILabel())
	}
	return ids
}

// NonExcludedCandidateCount returns the number of declared candidates
// not marked excluded (UWI, if present, always counts as eligible).
func (c ContestConfig) NonExcludedCandidateCount() int {
	n := 0
	for _, cand := range c.Candidates {
		if !cand.Excluded {
			n++
		}
	}
	if c.Rules.UsesUWI() {
		n++
	}
	return n
}
