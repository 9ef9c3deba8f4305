package panel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func primer(name, boost string) Primer {
	return Primer{Start: 100, Stop: 120, Name: name, Sequence: "ACGT" + name, BoostLevel: dec(boost)}
}

func pair(gsp1, gsp2 string) PrimerPair {
	return PrimerPair{GeneName: "G", GSP1: primer(gsp1, "1"), GSP2: primer(gsp2, "1")}
}

func mustDesign(t *testing.T, id string, pairs ...PrimerPair) *Design {
	t.Helper()
	d, err := NewDesign(id, "", Header{MoleculeTypes: []MoleculeType{DNA}}, pairs)
	require.NoError(t, err)
	return d
}

func TestNewDesign_DedupesPrimersByName(t *testing.T) {
	// GIVEN two pairs sharing a GSP1 primer
	d := mustDesign(t, "D", pair("A_1", "A_2"), pair("A_1", "A_3"))

	// THEN GSP1 has one unique primer, GSP2 two
	assert.Equal(t, 1, d.UniqueCount(GSP1))
	assert.Equal(t, 2, d.UniqueCount(GSP2))
	assert.Equal(t, "1", d.PrimerUnits(GSP1).String())
	assert.Equal(t, "2", d.PrimerUnits(GSP2).String())
	assert.Equal(t, 2, d.PairCount())
}

func TestNewDesign_BoostLevelsSumOverUniquePrimers(t *testing.T) {
	p1 := PrimerPair{GSP1: primer("A_1", "2.5"), GSP2: primer("A_2", "1")}
	p2 := PrimerPair{GSP1: primer("B_1", "0.5"), GSP2: primer("B_2", "3")}
	d := mustDesign(t, "D", p1, p2, p1)

	assert.Equal(t, "3", d.PrimerUnits(GSP1).String())
	assert.Equal(t, "4", d.PrimerUnits(GSP2).String())
	assert.Equal(t, 2, d.PairCount())
}

func TestNewDesign_ConflictingBoostLevels_ReturnsDataConsistencyError(t *testing.T) {
	p1 := PrimerPair{GSP1: primer("A_1", "1"), GSP2: primer("A_2", "1")}
	p2 := PrimerPair{GSP1: primer("A_1", "2"), GSP2: primer("A_3", "1")}

	_, err := NewDesign("D", "designs/d.tsv", Header{}, []PrimerPair{p1, p2})

	var dce *DataConsistencyError
	require.True(t, errors.As(err, &dce), "expected DataConsistencyError, got %v", err)
	assert.Equal(t, "designs/d.tsv", dce.Source)
}

func TestDesign_CompatibleWith(t *testing.T) {
	x := mustDesign(t, "X", pair("A_1", "A_2"))
	y := mustDesign(t, "Y", pair("B_1", "B_2"))
	sharesGSP2 := mustDesign(t, "Z", pair("C_1", "A_2"))

	assert.True(t, x.CompatibleWith(y))
	assert.True(t, y.CompatibleWith(x))
	assert.False(t, x.CompatibleWith(sharesGSP2))
	assert.False(t, sharesGSP2.CompatibleWith(x))
	assert.False(t, x.CompatibleWith(x))
}

func TestDesign_SetRelations(t *testing.T) {
	a, b, c := pair("A_1", "A_2"), pair("B_1", "B_2"), pair("C_1", "C_2")
	full := mustDesign(t, "F", a, b, c)
	part := mustDesign(t, "P", a, c)
	other := mustDesign(t, "O", b)

	assert.True(t, part.IsSubsetOf(full))
	assert.False(t, full.IsSubsetOf(part))
	assert.True(t, part.IsDisjointFrom(other))
	assert.False(t, part.IsDisjointFrom(full))
	assert.True(t, full.HasPair(b.Key()))
}

func TestPrimerKey_CanonicalBoostLevel(t *testing.T) {
	assert.Equal(t, primer("A", "1.0").Key(), primer("A", "1").Key())
	assert.True(t, primer("A", "1.50").Equal(primer("A", "1.5")))
	assert.False(t, primer("A", "1").Equal(primer("A", "2")))
}

func TestPrimerPair_GeneKey(t *testing.T) {
	assert.Equal(t, "EGFR", pair("EGFR_ex19_1", "x").GeneKey())
	assert.Equal(t, "KRAS", pair("KRAS", "x").GeneKey())
}

func TestDesign_PoolConcentration(t *testing.T) {
	d := mustDesign(t, "D", pair("A_1", "A_2"))
	assert.True(t, d.IsDefaultPool())

	d.Header.TotalGSP2Concentration = decPtr("40")
	assert.Equal(t, "100", d.PoolConcentration(GSP1).String())
	assert.Equal(t, "40", d.PoolConcentration(GSP2).String())
	assert.False(t, d.IsDefaultPool())

	// an explicit 100 is still the default pool
	d.Header.TotalGSP2Concentration = decPtr("100.0")
	assert.True(t, d.IsDefaultPool())

	// the default is read-only for callers
	c := DefaultPoolConcentration()
	c = c.Add(dec("1"))
	assert.Equal(t, "101", c.String())
	assert.Equal(t, "100", DefaultPoolConcentration().String())
	assert.Equal(t, "100", d.PoolConcentration(GSP1).String())
}

func TestHeader_Clone_IsDeep(t *testing.T) {
	h := Header{
		ProjectName:            "P",
		MoleculeTypes:          []MoleculeType{DNA},
		TotalGSP1Concentration: decPtr("50"),
		Extra:                  map[string]string{"k": "v"},
	}
	c := h.Clone()
	c.MoleculeTypes[0] = RNA
	*c.TotalGSP1Concentration = dec("10")
	c.Extra["k"] = "changed"

	assert.Equal(t, DNA, h.MoleculeTypes[0])
	assert.Equal(t, "50", h.TotalGSP1Concentration.String())
	assert.Equal(t, "v", h.Extra["k"])
}
