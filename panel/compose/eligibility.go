package compose

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/panelmix/panelmix/panel"
	"github.com/panelmix/panelmix/panel/trace"
)

// candidate is a library design that passed the eligibility filter.
type candidate struct {
	design  *panel.Design
	library string
}

// eligibleCandidates filters the inventoried library, then the spike-in
// library, each in design id order. A design may join the target only if it
// was validated for the workflow's molecule type, is not itself a blend, and
// every one of its pairs belongs to the target. Within one library, later
// designs reusing an accepted id are rejected; ids may repeat across libraries.
func eligibleCandidates(target *panel.Design, mt panel.MoleculeType, library, spikeIns []*panel.Design, ct *trace.CompositionTrace) []candidate {
	var out []candidate
	for _, src := range []struct {
		name    string
		designs []*panel.Design
	}{
		{trace.LibraryInventory, library},
		{trace.LibrarySpikeIn, spikeIns},
	} {
		seen := make(map[string]bool)
		for _, d := range sortedByID(src.designs) {
			reason := rejectReason(target, mt, d, seen)
			ct.RecordEligibility(trace.EligibilityRecord{
				DesignID: d.ID,
				Library:  src.name,
				Eligible: reason == trace.ReasonEligible,
				Reason:   reason,
			})
			if reason != trace.ReasonEligible {
				logrus.Debugf("compose: %s design %s rejected: %s", src.name, d.ID, reason)
				continue
			}
			seen[d.ID] = true
			out = append(out, candidate{design: d, library: src.name})
		}
	}
	return out
}

func rejectReason(target *panel.Design, mt panel.MoleculeType, d *panel.Design, seen map[string]bool) string {
	switch {
	case seen[d.ID]:
		return trace.ReasonDuplicateDesign
	case !d.HasMoleculeType(mt):
		return trace.ReasonMoleculeType
	case !d.IsDefaultPool():
		return trace.ReasonBlendedPool
	case !d.IsSubsetOf(target):
		return trace.ReasonNotSubset
	default:
		return trace.ReasonEligible
	}
}

func sortedByID(designs []*panel.Design) []*panel.Design {
	out := make([]*panel.Design, 0, len(designs))
	for _, d := range designs {
		if d != nil {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
