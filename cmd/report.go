package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/panelmix/panelmix/panel"
	"github.com/panelmix/panelmix/panel/compose"
	"github.com/panelmix/panelmix/panel/manifest"
	"github.com/panelmix/panelmix/panel/spikein"
	"github.com/panelmix/panelmix/panel/trace"
)

// Report formats.
const (
	outputText = "text"
	outputJSON = "json"
)

type materialReport struct {
	PartNumber  string `json:"part_number"`
	DesignID    string `json:"design_id,omitempty"`
	VolumeML    string `json:"volume_ml"`
	CatalogPart bool   `json:"catalog_part,omitempty"`
	SpikeIn     bool   `json:"spike_in,omitempty"`
	Description string `json:"description,omitempty"`
}

type spikeInReport struct {
	ID          string `json:"id"`
	ProjectName string `json:"project_name"`
	Pairs       int    `json:"pairs"`
	New         bool   `json:"new"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Path        string `json:"path,omitempty"` // set when written to --spike-in-dir
}

type fillReport struct {
	ActualGSP1ML  string `json:"actual_gsp1_ml"`
	NominalGSP1UL string `json:"nominal_gsp1_ul"`
	ActualGSP2ML  string `json:"actual_gsp2_ml"`
	NominalGSP2UL string `json:"nominal_gsp2_ul"`
	Calculated    bool   `json:"calculated"`
}

// report is the printable outcome of one composition.
type report struct {
	Target              string              `json:"target"`
	Workflow            string              `json:"workflow"`
	Disease             string              `json:"disease,omitempty"`
	TargetPairs         int                 `json:"target_pairs"`
	GSP1ConcentrationUM string              `json:"gsp1_concentration_um"`
	GSP2ConcentrationUM string              `json:"gsp2_concentration_um"`
	InventoriedDesigns  []string            `json:"inventoried_designs"`
	SpikeIns            []spikeInReport     `json:"spike_ins"`
	Fill                fillReport          `json:"fill_volumes"`
	BulkOrder           bool                `json:"bulk_order"`
	GSP1                []materialReport    `json:"gsp1"`
	GSP2                []materialReport    `json:"gsp2"`
	Trace               *trace.TraceSummary `json:"trace_summary,omitempty"`
}

func newReport(m *manifest.Manifest, res *compose.Result, precision int32, written []string) *report {
	r := &report{
		Target:              m.Target.ID,
		Workflow:            string(m.Workflow),
		Disease:             string(m.Disease),
		TargetPairs:         m.Target.PairCount(),
		GSP1ConcentrationUM: res.GSP1Concentration.String(),
		GSP2ConcentrationUM: res.GSP2Concentration.String(),
		InventoriedDesigns:  make([]string, 0, len(res.Inventoried)),
		SpikeIns:            make([]spikeInReport, 0, len(res.SpikeIns)),
		Fill: fillReport{
			ActualGSP1ML:  res.Fill.ActualGSP1ML.StringFixed(precision),
			NominalGSP1UL: res.Fill.NominalGSP1UL.String(),
			ActualGSP2ML:  res.Fill.ActualGSP2ML.StringFixed(precision),
			NominalGSP2UL: res.Fill.NominalGSP2UL.String(),
			Calculated:    res.Fill.Calculated,
		},
		BulkOrder: res.BulkOrder,
		GSP1:      materialReports(res.GSP1, precision),
		GSP2:      materialReports(res.GSP2, precision),
	}
	for _, d := range res.Inventoried {
		r.InventoriedDesigns = append(r.InventoriedDesigns, d.ID)
	}
	isNew := make(map[*panel.Design]int, len(res.NewSpikeIns))
	for i, d := range res.NewSpikeIns {
		isNew[d] = i
	}
	for _, d := range res.SpikeIns {
		sr := spikeInReport{
			ID:          d.ID,
			ProjectName: d.Header.ProjectName,
			Pairs:       d.PairCount(),
			Fingerprint: d.Header.Extra[spikein.FingerprintHeader],
		}
		if i, ok := isNew[d]; ok {
			sr.New = true
			if i < len(written) {
				sr.Path = written[i]
			}
		}
		r.SpikeIns = append(r.SpikeIns, sr)
	}
	return r
}

func materialReports(materials []panel.RawMaterial, precision int32) []materialReport {
	out := make([]materialReport, 0, len(materials))
	for _, m := range materials {
		out = append(out, materialReport{
			PartNumber:  m.PartNumber,
			DesignID:    m.DesignID,
			VolumeML:    m.Volume.StringFixed(precision),
			CatalogPart: m.IsCatalogPart,
			SpikeIn:     m.IsSpikeIn,
			Description: m.Description,
		})
	}
	return out
}

func writeJSON(w io.Writer, r *report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

func writeText(w io.Writer, r *report) error {
	ew := &errWriter{w: w}
	ew.printf("=== Panel Composition ===\n")
	ew.printf("Target               : %s (%d pairs)\n", r.Target, r.TargetPairs)
	ew.printf("Workflow             : %s\n", r.Workflow)
	if r.Disease != "" {
		ew.printf("Disease              : %s\n", r.Disease)
	}
	ew.printf("GSP1 Concentration   : %s µM\n", r.GSP1ConcentrationUM)
	ew.printf("GSP2 Concentration   : %s µM\n", r.GSP2ConcentrationUM)
	ew.printf("Fill GSP1            : %s mL (%s µL nominal)\n", r.Fill.ActualGSP1ML, r.Fill.NominalGSP1UL)
	ew.printf("Fill GSP2            : %s mL (%s µL nominal)\n", r.Fill.ActualGSP2ML, r.Fill.NominalGSP2UL)
	ew.printf("Inventoried Designs  : %d\n", len(r.InventoriedDesigns))
	ew.printf("Spike-ins            : %d\n", len(r.SpikeIns))
	if r.BulkOrder {
		ew.printf("Bulk Order           : yes\n")
	}
	for _, s := range r.SpikeIns {
		status := "library"
		if s.New {
			status = "new"
		}
		ew.printf("  %-20s %4d pairs  %-7s %s\n", s.ID, s.Pairs, status, s.ProjectName)
	}
	for _, ch := range []struct {
		name      string
		materials []materialReport
	}{{"GSP1", r.GSP1}, {"GSP2", r.GSP2}} {
		ew.printf("\n=== %s Raw Materials ===\n", ch.name)
		for _, m := range ch.materials {
			ew.printf("%-24s %s mL", m.PartNumber, m.VolumeML)
			if m.Description != "" {
				ew.printf("  %s", m.Description)
			}
			ew.printf("\n")
		}
	}
	if r.Trace != nil {
		ew.printf("\n=== Decision Trace ===\n")
		ew.printf("Candidates           : %d (%d eligible, %d rejected)\n", r.Trace.TotalCandidates, r.Trace.EligibleCount, r.Trace.RejectedCount)
		reasons := make([]string, 0, len(r.Trace.RejectReasons))
		for reason := range r.Trace.RejectReasons {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			ew.printf("  %-30s %d\n", reason, r.Trace.RejectReasons[reason])
		}
		ew.printf("Chosen Designs       : %d covering %d pairs\n", r.Trace.ChosenDesigns, r.Trace.CoveredPairs)
		ew.printf("New Spike-ins        : %d holding %d pairs (largest %d)\n", r.Trace.SpikeInDesigns, r.Trace.SpikeInPairs, r.Trace.LargestSpikeIn)
	}
	return ew.err
}

// errWriter keeps the first write error so a report can be printed without
// checking every line.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
