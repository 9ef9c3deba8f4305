package panel

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Primer is a single gene-specific oligo. Two primers with identical fields
// are interchangeable.
type Primer struct {
	Start      int
	Stop       int
	Name       string
	Sequence   string
	BoostLevel decimal.Decimal // relative concentration weight within its pool
}

// PrimerKey is the comparable identity of a Primer. The boost level is held in
// canonical string form so that 1.0 and 1 compare equal.
type PrimerKey struct {
	Start      int
	Stop       int
	Name       string
	Sequence   string
	BoostLevel string
}

// Key returns the value identity of p.
func (p Primer) Key() PrimerKey {
	return PrimerKey{
		Start:      p.Start,
		Stop:       p.Stop,
		Name:       p.Name,
		Sequence:   p.Sequence,
		BoostLevel: p.BoostLevel.String(),
	}
}

// Equal reports whether p and o have identical fields.
func (p Primer) Equal(o Primer) bool {
	return p.Key() == o.Key()
}

// PairKey identifies a primer pair for set operations.
type PairKey struct {
	GSP1 PrimerKey
	GSP2 PrimerKey
}

// PrimerPair is one GSP1 primer and one GSP2 primer with descriptive target metadata.
type PrimerPair struct {
	GeneName              string
	NCBIReferenceSequence string
	TargetExon            string
	TargetChromosome      string
	TargetStart           string
	TargetStop            string
	TargetStrand          string
	TargetName            string
	AssayType             string
	Direction             string
	GSP1                  Primer
	GSP1Tail              bool
	GSP2                  Primer
	CDSOnly               bool
	PrimerPairFunctions   string
	SNPIDLocations        string
	PrimerPairNotes       string
}

// Key returns the (gsp1, gsp2) identity of the pair.
func (pp PrimerPair) Key() PairKey {
	return PairKey{GSP1: pp.GSP1.Key(), GSP2: pp.GSP2.Key()}
}

// Primer returns the pair's primer for channel ch.
func (pp PrimerPair) Primer(ch Channel) Primer {
	if ch == GSP2 {
		return pp.GSP2
	}
	return pp.GSP1
}

// GeneKey is the GSP1 primer name up to the first underscore. Spike-in packing
// groups pairs by this key.
func (pp PrimerPair) GeneKey() string {
	name, _, _ := strings.Cut(pp.GSP1.Name, "_")
	return name
}
