package trace

// TraceSummary aggregates statistics from a CompositionTrace.
type TraceSummary struct {
	TotalCandidates int
	EligibleCount   int
	RejectedCount   int
	RejectReasons   map[string]int // reason → count of rejected candidates
	ChosenDesigns   int
	CoveredPairs    int
	SpikeInDesigns  int
	SpikeInPairs    int
	LargestSpikeIn  int
}

// Summarize computes aggregate statistics from a CompositionTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(ct *CompositionTrace) *TraceSummary {
	summary := &TraceSummary{
		RejectReasons: make(map[string]int),
	}
	if ct == nil {
		return summary
	}

	summary.TotalCandidates = len(ct.Eligibility)
	for _, e := range ct.Eligibility {
		if e.Eligible {
			summary.EligibleCount++
		} else {
			summary.RejectedCount++
			summary.RejectReasons[e.Reason]++
		}
	}

	if ct.Solution != nil {
		summary.ChosenDesigns = len(ct.Solution.Chosen)
		summary.CoveredPairs = ct.Solution.PairCount
	}

	summary.SpikeInDesigns = len(ct.Packing)
	for _, p := range ct.Packing {
		summary.SpikeInPairs += p.Pairs
		if p.Pairs > summary.LargestSpikeIn {
			summary.LargestSpikeIn = p.Pairs
		}
	}

	return summary
}
