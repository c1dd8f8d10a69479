package qc

import (
	"goqc/domain/core"
)

// Status represents the classification of a measurement against its criterion
type Status string

const (
	StatusPass      Status = "pass"
	StatusMonitor   Status = "monitor"
	StatusMinorFail Status = "minor_fail"
	StatusMajorFail Status = "major_fail"
)

// severityRank orders statuses from least to most severe. Monitor and
// MinorFail are peers: both block a clean pass but differ only in
// reporting language.
var severityRank = map[Status]int{
	StatusPass:      0,
	StatusMonitor:   1,
	StatusMinorFail: 1,
	StatusMajorFail: 2,
}

// Severity returns the rank of a status for worst-of aggregation
func (s Status) Severity() int {
	return severityRank[s]
}

// WorseThan reports whether s is strictly more severe than other
func (s Status) WorseThan(other Status) bool {
	return s.Severity() > other.Severity()
}

// Passing reports whether the status represents a clean pass
func (s Status) Passing() bool {
	return s == StatusPass
}

// ComparisonMode determines how a measurement is classified against a criterion
type ComparisonMode string

const (
	// |measured - expected| <= tolerance
	ModeAbsoluteTolerance ComparisonMode = "absolute_tolerance"
	// value <= reference passes, <= pass/fail limit is monitor, above is major fail
	ModeTwoTierBound ComparisonMode = "two_tier_bound"
	// |measured - nominal| <= max(fraction*nominal, floor)
	ModeUpperBoundWithFloor ComparisonMode = "upper_bound_floor"
	// max peripheral-to-center difference <= fixed ceiling
	ModeRangeBand ComparisonMode = "range_band"
	// measured >= required minimum
	ModeMinimumThreshold ComparisonMode = "minimum_threshold"
	// summed ordinal severity score against fixed bands
	ModeOrdinalScore ComparisonMode = "ordinal_score"
)

// Criterion is an immutable reference record from the catalog
type Criterion struct {
	TestID   core.TestID     `json:"test_id"`
	Protocol core.ProtocolID `json:"protocol,omitempty"` // empty for protocol-independent criteria
	Mode     ComparisonMode  `json:"mode"`

	// Absolute-tolerance parameters
	Expected  float64 `json:"expected,omitempty"`
	Tolerance float64 `json:"tolerance,omitempty"`

	// Two-tier parameters; ReferenceLimit < PassFailLimit always holds
	ReferenceLimit float64 `json:"reference_limit,omitempty"`
	PassFailLimit  float64 `json:"pass_fail_limit,omitempty"`

	// Upper-bound-with-floor parameters
	Fraction float64 `json:"fraction,omitempty"`
	Floor    float64 `json:"floor,omitempty"`

	// Range-band ceiling / minimum-threshold floor
	Ceiling  float64 `json:"ceiling,omitempty"`
	Required float64 `json:"required,omitempty"`

	Unit string `json:"unit,omitempty"`
}

// Measurement is a single scalar value entered by a user for one physical
// quantity. Measurements are transient: only derived Results are persisted.
type Measurement struct {
	TestID   core.TestID     `json:"test_id"`
	Protocol core.ProtocolID `json:"protocol,omitempty"`
	Value    float64         `json:"value"`
	Unit     string          `json:"unit,omitempty"`
}

// Result is the outcome of evaluating one measurement (or a small fixed
// group) against its criterion. Status is a pure function of the measured
// value and the criterion.
type Result struct {
	TestName  string  `json:"test_name"`
	Measured  float64 `json:"measured"`
	Expected  float64 `json:"expected"`  // expected value or required limit, mode-dependent
	Deviation float64 `json:"deviation"` // signed, where applicable
	Band      string  `json:"band"`      // human-readable tolerance band, e.g. "±7 HU"
	Status    Status  `json:"status"`
	Unit      string  `json:"unit,omitempty"`
	Note      string  `json:"note,omitempty"`
}

// Verdict aggregates all results of one QC section
type Verdict struct {
	ID       core.VerdictID  `json:"id"`
	Section  core.SectionID  `json:"section"`
	Protocol core.ProtocolID `json:"protocol,omitempty"`
	Results  []Result        `json:"results"`
	Overall  Status          `json:"overall"`
	Created  core.Timestamp  `json:"created"`

	// Derived figures carried for reporting, keyed by quantity name
	// (e.g. "ctdi_w", "cnr"). Values are plain numbers so the verdict
	// round-trips through JSON without type surprises.
	Derived map[string]float64 `json:"derived,omitempty"`
}

// ArtifactSeverity is the ordinal severity scale for artifact scoring
type ArtifactSeverity string

const (
	SeverityNone  ArtifactSeverity = "None"
	SeverityMinor ArtifactSeverity = "Minor"
	SeverityMajor ArtifactSeverity = "Major"
)

// severityWeights maps ordinal severities to integer weights for scoring.
// Encoded as data rather than branching so new classes are an entry, not
// a code path.
var severityWeights = map[ArtifactSeverity]int{
	SeverityNone:  0,
	SeverityMinor: 1,
	SeverityMajor: 2,
}

// Weight returns the integer score contribution of a severity.
// Unknown severities weigh 0 and are caught upstream by validation.
func (s ArtifactSeverity) Weight() int {
	return severityWeights[s]
}

// Valid reports whether s is one of the known severity classes
func (s ArtifactSeverity) Valid() bool {
	_, ok := severityWeights[s]
	return ok
}
