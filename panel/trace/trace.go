package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures eligibility, solver and packing decisions.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// CompositionTrace collects decision records during one composition.
// A nil *CompositionTrace is valid and records nothing.
type CompositionTrace struct {
	Level       TraceLevel
	Eligibility []EligibilityRecord
	Solution    *SolutionRecord
	Packing     []PackingRecord
}

// NewCompositionTrace creates a CompositionTrace ready for recording.
func NewCompositionTrace(level TraceLevel) *CompositionTrace {
	return &CompositionTrace{
		Level:       level,
		Eligibility: make([]EligibilityRecord, 0),
		Packing:     make([]PackingRecord, 0),
	}
}

func (ct *CompositionTrace) enabled() bool {
	return ct != nil && ct.Level == TraceLevelDecisions
}

// RecordEligibility appends a candidate filter decision.
func (ct *CompositionTrace) RecordEligibility(record EligibilityRecord) {
	if ct.enabled() {
		ct.Eligibility = append(ct.Eligibility, record)
	}
}

// RecordSolution stores the graph solve outcome.
func (ct *CompositionTrace) RecordSolution(record SolutionRecord) {
	if ct.enabled() {
		ct.Solution = &record
	}
}

// RecordPacking appends a spike-in packing decision.
func (ct *CompositionTrace) RecordPacking(record PackingRecord) {
	if ct.enabled() {
		ct.Packing = append(ct.Packing, record)
	}
}
