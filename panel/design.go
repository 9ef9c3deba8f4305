package panel

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// defaultPoolConcentration is the pool concentration (µM) of a design that does
// not declare one. Only designs at the default may be nested in another blend.
var defaultPoolConcentration = decimal.NewFromInt(100)

// DefaultPoolConcentration returns the pool concentration (µM) assumed when a
// header declares none.
func DefaultPoolConcentration() decimal.Decimal { return defaultPoolConcentration }

// Header is the descriptive metadata of a design.
type Header struct {
	ProjectName    string
	PartNumber     string
	ProjectVersion string
	MoleculeTypes  []MoleculeType
	// Pool concentration overrides in µM; nil means the default.
	TotalGSP1Concentration *decimal.Decimal
	TotalGSP2Concentration *decimal.Decimal
	Extra                  map[string]string
}

// Clone returns a deep copy of h.
func (h Header) Clone() Header {
	out := h
	out.MoleculeTypes = append([]MoleculeType(nil), h.MoleculeTypes...)
	if h.TotalGSP1Concentration != nil {
		c := *h.TotalGSP1Concentration
		out.TotalGSP1Concentration = &c
	}
	if h.TotalGSP2Concentration != nil {
		c := *h.TotalGSP2Concentration
		out.TotalGSP2Concentration = &c
	}
	if h.Extra != nil {
		out.Extra = make(map[string]string, len(h.Extra))
		for k, v := range h.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Concentration returns the declared pool concentration for ch, or nil.
func (h Header) Concentration(ch Channel) *decimal.Decimal {
	if ch == GSP2 {
		return h.TotalGSP2Concentration
	}
	return h.TotalGSP1Concentration
}

// Design is a named set of primer pairs. The derived sets are computed once by
// NewDesign; the pair list must not be modified afterwards.
type Design struct {
	ID       string
	FilePath string // empty for designs that only exist in memory
	Header   Header
	Pairs    []PrimerPair

	unique  [2][]Primer
	members [2]map[PrimerKey]struct{}
	units   [2]decimal.Decimal
	pairSet map[PairKey]struct{}
}

// NewDesign builds a Design and caches its derived sets. Two pairs that share a
// primer name with different boost levels are a DataConsistencyError.
func NewDesign(id, filePath string, header Header, pairs []PrimerPair) (*Design, error) {
	d := &Design{
		ID:       id,
		FilePath: filePath,
		Header:   header,
		Pairs:    pairs,
		pairSet:  make(map[PairKey]struct{}, len(pairs)),
	}
	for _, pp := range pairs {
		d.pairSet[pp.Key()] = struct{}{}
	}
	for _, ch := range Channels {
		if err := d.dedupe(ch); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Design) dedupe(ch Channel) error {
	idx := ch - 1
	byName := make(map[string]decimal.Decimal)
	members := make(map[PrimerKey]struct{})
	var unique []Primer
	units := decimal.Zero
	for _, pp := range d.Pairs {
		p := pp.Primer(ch)
		level, seen := byName[p.Name]
		if !seen {
			byName[p.Name] = p.BoostLevel
			members[p.Key()] = struct{}{}
			unique = append(unique, p)
			units = units.Add(p.BoostLevel)
			continue
		}
		if !level.Equal(p.BoostLevel) {
			return &DataConsistencyError{
				Source: d.source(),
				Reason: fmt.Sprintf("%s primer %s has duplicates with different boost levels (%s, %s)", ch, p.Name, level, p.BoostLevel),
			}
		}
	}
	d.unique[idx] = unique
	d.members[idx] = members
	d.units[idx] = units
	return nil
}

func (d *Design) source() string {
	if d.FilePath != "" {
		return d.FilePath
	}
	if d.ID != "" {
		return d.ID
	}
	return "[NO FILE PATH]"
}

// Unique returns the unique-by-name primers of channel ch in first-seen order.
func (d *Design) Unique(ch Channel) []Primer { return d.unique[ch-1] }

// UniqueCount returns the number of unique-by-name primers in channel ch.
func (d *Design) UniqueCount(ch Channel) int { return len(d.unique[ch-1]) }

// PrimerUnits returns the summed boost level of the unique primers in channel ch.
func (d *Design) PrimerUnits(ch Channel) decimal.Decimal { return d.units[ch-1] }

// PairSet returns the distinct pair keys. Callers must not modify the map.
func (d *Design) PairSet() map[PairKey]struct{} { return d.pairSet }

// PairCount returns the number of distinct (gsp1, gsp2) pairs.
func (d *Design) PairCount() int { return len(d.pairSet) }

// HasPair reports whether k is one of the design's pairs.
func (d *Design) HasPair(k PairKey) bool {
	_, ok := d.pairSet[k]
	return ok
}

// IsSubsetOf reports whether every pair of d is also a pair of o.
func (d *Design) IsSubsetOf(o *Design) bool {
	for k := range d.pairSet {
		if !o.HasPair(k) {
			return false
		}
	}
	return true
}

// IsDisjointFrom reports whether d and o share no pair.
func (d *Design) IsDisjointFrom(o *Design) bool {
	small, large := d, o
	if len(small.pairSet) > len(large.pairSet) {
		small, large = large, small
	}
	for k := range small.pairSet {
		if large.HasPair(k) {
			return false
		}
	}
	return true
}

// CompatibleWith reports whether d and o share neither a unique GSP1 primer nor
// a unique GSP2 primer. The relation is symmetric.
func (d *Design) CompatibleWith(o *Design) bool {
	for _, ch := range Channels {
		a, b := d.members[ch-1], o.members[ch-1]
		if len(a) > len(b) {
			a, b = b, a
		}
		for k := range a {
			if _, ok := b[k]; ok {
				return false
			}
		}
	}
	return true
}

// PoolConcentration returns the declared concentration for ch, falling back to
// DefaultPoolConcentration.
func (d *Design) PoolConcentration(ch Channel) decimal.Decimal {
	if c := d.Header.Concentration(ch); c != nil {
		return *c
	}
	return defaultPoolConcentration
}

// IsDefaultPool reports whether both channel pools are at the default
// concentration, i.e. the design is not itself a blend.
func (d *Design) IsDefaultPool() bool {
	return d.PoolConcentration(GSP1).Equal(defaultPoolConcentration) &&
		d.PoolConcentration(GSP2).Equal(defaultPoolConcentration)
}

// HasMoleculeType reports whether the header declares mt.
func (d *Design) HasMoleculeType(mt MoleculeType) bool {
	for _, m := range d.Header.MoleculeTypes {
		if m == mt {
			return true
		}
	}
	return false
}
