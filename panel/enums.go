package panel

import (
	"fmt"
	"sort"
	"strings"
)

// Channel selects one of the two gene-specific primer pools.
type Channel int

const (
	GSP1 Channel = iota + 1
	GSP2
)

// Channels lists both pools in output order.
var Channels = []Channel{GSP1, GSP2}

func (c Channel) String() string {
	switch c {
	case GSP1:
		return "gsp1"
	case GSP2:
		return "gsp2"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// PartSuffix is appended to a design's part number for this channel's pool.
func (c Channel) PartSuffix() string {
	if c == GSP2 {
		return "-2"
	}
	return "-1"
}

// MoleculeType is the nucleic acid a design is validated against.
type MoleculeType string

const (
	RNA   MoleculeType = "RNA"
	DNA   MoleculeType = "DNA"
	CTDNA MoleculeType = "CTDNA"
)

// ParseMoleculeTypes parses a comma separated header value such as "DNA, ctDNA".
// Empty entries are skipped; unknown entries are a ConfigurationError.
func ParseMoleculeTypes(value string) ([]MoleculeType, error) {
	seen := make(map[MoleculeType]bool)
	for _, raw := range strings.Split(value, ",") {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		var mt MoleculeType
		switch name {
		case "rna":
			mt = RNA
		case "dna":
			mt = DNA
		case "ctdna":
			mt = CTDNA
		default:
			return nil, &ConfigurationError{Field: "MoleculeType", Reason: fmt.Sprintf("invalid molecule type %q", name)}
		}
		seen[mt] = true
	}
	types := make([]MoleculeType, 0, len(seen))
	for mt := range seen {
		types = append(types, mt)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types, nil
}

// Workflow is the assay chemistry a panel is manufactured for.
type Workflow string

const (
	FusionPlex          Workflow = "FusionPlex"
	VariantPlexStandard Workflow = "VariantPlex Standard"
	VariantPlexHGC2     Workflow = "VariantPlex HGC2.0"
	VariantPlexHS       Workflow = "VariantPlex HS"
	VariantPlexHGC      Workflow = "VariantPlex HGC"
	LiquidPlex          Workflow = "LiquidPlex"
)

// ParseWorkflow maps a configuration name to a Workflow.
func ParseWorkflow(name string) (Workflow, error) {
	w := Workflow(strings.TrimSpace(name))
	if _, err := w.MoleculeType(); err != nil {
		return "", err
	}
	return w, nil
}

// MoleculeType returns the molecule type implied by the workflow.
func (w Workflow) MoleculeType() (MoleculeType, error) {
	switch w {
	case VariantPlexStandard, VariantPlexHGC2, VariantPlexHGC, VariantPlexHS:
		return DNA, nil
	case LiquidPlex:
		return CTDNA, nil
	case FusionPlex:
		return RNA, nil
	default:
		return "", &ConfigurationError{Field: "workflow", Reason: fmt.Sprintf("unrecognized workflow %q", string(w))}
	}
}

// IsVariantPlex reports whether w is one of the VariantPlex chemistries.
func (w Workflow) IsVariantPlex() bool {
	switch w {
	case VariantPlexStandard, VariantPlexHGC2, VariantPlexHGC, VariantPlexHS:
		return true
	}
	return false
}

// Disease is the clinical indication a panel targets.
type Disease string

const (
	SolidTumor   Disease = "Solid Tumor"
	Sarcoma      Disease = "Sarcoma"
	BloodCancers Disease = "Blood Cancers"
	Germline     Disease = "Germline"
)

var validDiseases = map[Disease]bool{
	SolidTumor: true, Sarcoma: true, BloodCancers: true, Germline: true,
}

// ParseDisease maps a configuration name to a Disease. An empty name is allowed
// and treated as non-germline.
func ParseDisease(name string) (Disease, error) {
	d := Disease(strings.TrimSpace(name))
	if d == "" || validDiseases[d] {
		return d, nil
	}
	return "", &ConfigurationError{Field: "disease", Reason: fmt.Sprintf("unrecognized disease %q; valid: Solid Tumor, Sarcoma, Blood Cancers, Germline", name)}
}
