// Package trace provides decision-trace recording for panel composition analysis.
// This package has no dependencies on panel/ or its algorithm packages; it stores pure data types.
package trace

// Candidate libraries.
const (
	LibraryInventory = "inventory"
	LibrarySpikeIn   = "spike-in"
)

// Eligibility rejection reasons.
const (
	ReasonEligible        = "eligible"
	ReasonMoleculeType    = "molecule type mismatch"
	ReasonBlendedPool     = "non-default pool concentration"
	ReasonNotSubset       = "pairs outside target"
	ReasonDuplicateDesign = "duplicate design id"
)

// EligibilityRecord captures the candidate filter decision for one library design.
type EligibilityRecord struct {
	DesignID string
	Library  string
	Eligible bool
	Reason   string
}

// SolutionRecord captures the outcome of the compatibility graph solve.
type SolutionRecord struct {
	Nodes     int      // eligible candidates in the graph
	Chosen    []string // design ids in node order
	PairCount int      // pairs covered by the chosen designs
}

// PackingRecord captures one spike-in design produced by bin packing.
type PackingRecord struct {
	DesignID string
	Pairs    int
	Genes    []string // gene keys in placement order
}
