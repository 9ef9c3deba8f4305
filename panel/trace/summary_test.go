package trace

import "testing"

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	ct := NewCompositionTrace(TraceLevelDecisions)

	// WHEN summarized
	summary := Summarize(ct)

	// THEN all counts are zero
	if summary.TotalCandidates != 0 {
		t.Errorf("expected 0 candidates, got %d", summary.TotalCandidates)
	}
	if summary.EligibleCount != 0 || summary.RejectedCount != 0 {
		t.Error("expected 0 eligible and rejected")
	}
	if summary.ChosenDesigns != 0 || summary.CoveredPairs != 0 {
		t.Error("expected no solution statistics")
	}
	if len(summary.RejectReasons) != 0 {
		t.Error("expected empty reject reasons")
	}
}

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary == nil || summary.TotalCandidates != 0 || summary.RejectReasons == nil {
		t.Errorf("unexpected summary for nil trace: %+v", summary)
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with mixed eligibility, a solution and two spike-ins
	ct := NewCompositionTrace(TraceLevelDecisions)
	ct.RecordEligibility(EligibilityRecord{DesignID: "a", Eligible: true, Reason: ReasonEligible})
	ct.RecordEligibility(EligibilityRecord{DesignID: "b", Eligible: false, Reason: ReasonMoleculeType})
	ct.RecordEligibility(EligibilityRecord{DesignID: "c", Eligible: false, Reason: ReasonMoleculeType})
	ct.RecordEligibility(EligibilityRecord{DesignID: "d", Eligible: false, Reason: ReasonNotSubset})
	ct.RecordSolution(SolutionRecord{Nodes: 1, Chosen: []string{"a"}, PairCount: 12})
	ct.RecordPacking(PackingRecord{DesignID: "Spike_In_1", Pairs: 550})
	ct.RecordPacking(PackingRecord{DesignID: "Spike_In_2", Pairs: 40})

	// WHEN summarized
	summary := Summarize(ct)

	// THEN counts match
	if summary.TotalCandidates != 4 {
		t.Errorf("expected 4 candidates, got %d", summary.TotalCandidates)
	}
	if summary.EligibleCount != 1 || summary.RejectedCount != 3 {
		t.Errorf("expected 1 eligible / 3 rejected, got %d / %d", summary.EligibleCount, summary.RejectedCount)
	}
	if summary.RejectReasons[ReasonMoleculeType] != 2 {
		t.Errorf("expected 2 molecule type rejections, got %d", summary.RejectReasons[ReasonMoleculeType])
	}
	if summary.ChosenDesigns != 1 || summary.CoveredPairs != 12 {
		t.Errorf("unexpected solution stats: %+v", summary)
	}
	if summary.SpikeInDesigns != 2 || summary.SpikeInPairs != 590 || summary.LargestSpikeIn != 550 {
		t.Errorf("unexpected packing stats: %+v", summary)
	}
}
