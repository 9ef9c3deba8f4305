// Package testutil provides shared test infrastructure for the panel packages.
// It consolidates design builders and volume assertion helpers used across
// panel/graph, panel/spikein, panel/compose and panel/manifest tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/panelmix/panelmix/panel"
)

// Dec parses s or panics. Test inputs only.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DecPtr returns a pointer to Dec(s).
func DecPtr(s string) *decimal.Decimal {
	d := Dec(s)
	return &d
}

// Primer builds a primer whose sequence and coordinates derive from its name.
func Primer(name, boost string) panel.Primer {
	return panel.Primer{
		Start:      len(name) * 10,
		Stop:       len(name)*10 + 20,
		Name:       name,
		Sequence:   "ACGT" + name,
		BoostLevel: Dec(boost),
	}
}

// Pair builds a primer pair with boost level 1 on both primers.
func Pair(gene, gsp1, gsp2 string) panel.PrimerPair {
	return BoostedPair(gene, gsp1, "1", gsp2, "1")
}

// BoostedPair builds a primer pair with explicit boost levels.
func BoostedPair(gene, gsp1, boost1, gsp2, boost2 string) panel.PrimerPair {
	return panel.PrimerPair{
		GeneName:  gene,
		AssayType: "SNV",
		GSP1:      Primer(gsp1, boost1),
		GSP1Tail:  true,
		GSP2:      Primer(gsp2, boost2),
	}
}

// GenePairs builds n pairs for gene with primers named <gene>_<i>_1 / <gene>_<i>_2.
func GenePairs(gene string, n int) []panel.PrimerPair {
	out := make([]panel.PrimerPair, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Pair(gene, fmt.Sprintf("%s_%d_1", gene, i), fmt.Sprintf("%s_%d_2", gene, i)))
	}
	return out
}

// Header returns a DNA header at default pool concentrations.
func Header(project string) panel.Header {
	return panel.Header{
		ProjectName:   project,
		PartNumber:    "P-" + project,
		MoleculeTypes: []panel.MoleculeType{panel.DNA},
	}
}

// Design builds a design or fails the test.
func Design(t testing.TB, id string, header panel.Header, pairs ...panel.PrimerPair) *panel.Design {
	t.Helper()
	d, err := panel.NewDesign(id, "", header, pairs)
	if err != nil {
		t.Fatalf("NewDesign(%s): %v", id, err)
	}
	return d
}

// SumVolumes adds the volumes of materials.
func SumVolumes(materials []panel.RawMaterial) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range materials {
		sum = sum.Add(m.Volume)
	}
	return sum
}

// AssertFixedPrecision fails the test if any volume has more than precision decimal places.
func AssertFixedPrecision(t testing.TB, materials []panel.RawMaterial, precision int32) {
	t.Helper()
	for _, m := range materials {
		if !m.Volume.Equal(m.Volume.Truncate(precision)) {
			t.Errorf("material %s volume %s exceeds %d decimal places", m.PartNumber, m.Volume, precision)
		}
	}
}
