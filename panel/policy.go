package panel

import (
	"bytes"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ConcentrationTier is one band of the GSP2 pool concentration policy. A tier
// applies to unique GSP2 counts below Below (0 = unbounded, last tier only).
// Exactly one of Fixed or PerPrimer is set.
type ConcentrationTier struct {
	Below     int
	Fixed     *decimal.Decimal // µM regardless of count
	PerPrimer *decimal.Decimal // µM per unique GSP2 primer
}

// FillTier is one band of a fill volume table, keyed on unique GSP2 count.
type FillTier struct {
	Below     int // 0 = unbounded, last tier only
	ActualML  decimal.Decimal
	NominalUL decimal.Decimal
}

// Fill volume table names.
const (
	FillTableFusionPlex = "fusionplex"
	FillTableGermline   = "germline"
	FillTableStandard   = "standard"
)

// Policy holds the manufacturing constants used by the composition engine.
type Policy struct {
	MaxPairsPerSpikeIn int             // spike-in designs never exceed this many pairs
	Precision          int32           // decimal places of a dispensed volume
	TotalVolume        decimal.Decimal // declared total of a channel at default concentration (mL)
	GSP1Concentration  decimal.Decimal // µM when the target does not override it
	GSP2Tiers          []ConcentrationTier
	DiluentPartNumber  string
	SpikeInIDPrefix    string
	MinFillGSP2Count   int // fill volumes cannot be derived below this unique GSP2 count
	FillTables         map[string][]FillTier
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// DefaultPolicy returns the built-in manufacturing constants.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxPairsPerSpikeIn: 550,
		Precision:          5,
		TotalVolume:        dec("1.00000"),
		GSP1Concentration:  dec("100"),
		GSP2Tiers: []ConcentrationTier{
			{Below: 20, Fixed: decPtr("10")},
			{Below: 200, PerPrimer: decPtr("0.5")},
			{Fixed: decPtr("100")},
		},
		DiluentPartNumber: "DX0612",
		SpikeInIDPrefix:   "Spike_In_",
		MinFillGSP2Count:  20,
		FillTables: map[string][]FillTier{
			FillTableFusionPlex: {
				{ActualML: dec("0.02000"), NominalUL: dec("16")},
			},
			FillTableGermline: {
				{Below: 2000, ActualML: dec("0.02000"), NominalUL: dec("16")},
				{Below: 4000, ActualML: dec("0.04000"), NominalUL: dec("32")},
				{ActualML: dec("0.08000"), NominalUL: dec("64")},
			},
			FillTableStandard: {
				{Below: 1000, ActualML: dec("0.04000"), NominalUL: dec("32")},
				{Below: 3000, ActualML: dec("0.08000"), NominalUL: dec("64")},
				{Below: 8000, ActualML: dec("0.15000"), NominalUL: dec("128")},
				{ActualML: dec("0.22500"), NominalUL: dec("192")},
			},
		},
	}
}

// Increment returns the smallest dispensable volume, 10^-Precision.
func (p *Policy) Increment() decimal.Decimal {
	return decimal.New(1, -p.Precision)
}

// GSP2Concentration applies the tiered pool concentration policy to a unique
// GSP2 primer count.
func (p *Policy) GSP2Concentration(uniqueCount int) (decimal.Decimal, error) {
	for _, tier := range p.GSP2Tiers {
		if tier.Below != 0 && uniqueCount >= tier.Below {
			continue
		}
		if tier.Fixed != nil {
			return *tier.Fixed, nil
		}
		return tier.PerPrimer.Mul(decimal.NewFromInt(int64(uniqueCount))), nil
	}
	return decimal.Zero, &ConfigurationError{Field: "gsp2_concentration_tiers", Reason: fmt.Sprintf("no tier covers %d unique GSP2 primers", uniqueCount)}
}

// FillTableFor selects the fill volume table for a workflow and disease.
func FillTableFor(w Workflow, d Disease) (string, error) {
	switch {
	case w == FusionPlex:
		return FillTableFusionPlex, nil
	case w == LiquidPlex:
		return FillTableStandard, nil
	case w.IsVariantPlex() && d == Germline:
		return FillTableGermline, nil
	case w.IsVariantPlex():
		return FillTableStandard, nil
	default:
		return "", &ConfigurationError{Field: "workflow", Reason: fmt.Sprintf("unsupported workflow %q for fill volumes", string(w))}
	}
}

// FillVolumes looks up the actual (mL) and nominal (µL) fill volumes for a panel.
func (p *Policy) FillVolumes(w Workflow, d Disease, uniqueGSP2Count int) (actualML, nominalUL decimal.Decimal, err error) {
	if uniqueGSP2Count < p.MinFillGSP2Count {
		return decimal.Zero, decimal.Zero, &ConfigurationError{
			Field:  "fill_volumes",
			Reason: fmt.Sprintf("cannot calculate fill volumes when unique GSP2 count (%d) is less than %d; provide explicit fill volumes", uniqueGSP2Count, p.MinFillGSP2Count),
		}
	}
	name, err := FillTableFor(w, d)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	for _, tier := range p.FillTables[name] {
		if tier.Below == 0 || uniqueGSP2Count < tier.Below {
			return tier.ActualML, tier.NominalUL, nil
		}
	}
	return decimal.Zero, decimal.Zero, &ConfigurationError{Field: "fill_volume_tables." + name, Reason: fmt.Sprintf("no tier covers %d unique GSP2 primers", uniqueGSP2Count)}
}

// Validate checks that the policy is internally consistent.
func (p *Policy) Validate() error {
	if p.MaxPairsPerSpikeIn <= 0 {
		return &ConfigurationError{Field: "max_pairs_per_spike_in", Reason: fmt.Sprintf("must be positive, got %d", p.MaxPairsPerSpikeIn)}
	}
	if p.Precision < 0 || p.Precision > 12 {
		return &ConfigurationError{Field: "precision", Reason: fmt.Sprintf("must be in [0, 12], got %d", p.Precision)}
	}
	if !p.TotalVolume.IsPositive() {
		return &ConfigurationError{Field: "total_volume", Reason: fmt.Sprintf("must be positive, got %s", p.TotalVolume)}
	}
	if !p.TotalVolume.Equal(p.TotalVolume.Truncate(p.Precision)) {
		return &ConfigurationError{Field: "total_volume", Reason: fmt.Sprintf("%s has more than %d decimal places", p.TotalVolume, p.Precision)}
	}
	if !p.GSP1Concentration.IsPositive() {
		return &ConfigurationError{Field: "gsp1_concentration", Reason: fmt.Sprintf("must be positive, got %s", p.GSP1Concentration)}
	}
	if p.DiluentPartNumber == "" {
		return &ConfigurationError{Field: "diluent_part_number", Reason: "must not be empty"}
	}
	if p.SpikeInIDPrefix == "" {
		return &ConfigurationError{Field: "spike_in_id_prefix", Reason: "must not be empty"}
	}
	if err := validateConcentrationTiers(p.GSP2Tiers); err != nil {
		return err
	}
	for _, name := range []string{FillTableFusionPlex, FillTableGermline, FillTableStandard} {
		if err := validateFillTiers(name, p.FillTables[name]); err != nil {
			return err
		}
	}
	return nil
}

func validateConcentrationTiers(tiers []ConcentrationTier) error {
	if len(tiers) == 0 {
		return &ConfigurationError{Field: "gsp2_concentration_tiers", Reason: "at least one tier required"}
	}
	prev := 0
	for i, t := range tiers {
		field := fmt.Sprintf("gsp2_concentration_tiers[%d]", i)
		if (t.Fixed == nil) == (t.PerPrimer == nil) {
			return &ConfigurationError{Field: field, Reason: "exactly one of fixed or per_primer required"}
		}
		last := i == len(tiers)-1
		if last != (t.Below == 0) {
			return &ConfigurationError{Field: field, Reason: "only the last tier may be unbounded and it must be"}
		}
		if !last && t.Below <= prev {
			return &ConfigurationError{Field: field, Reason: fmt.Sprintf("below must increase, got %d after %d", t.Below, prev)}
		}
		prev = t.Below
	}
	return nil
}

func validateFillTiers(name string, tiers []FillTier) error {
	field := "fill_volume_tables." + name
	if len(tiers) == 0 {
		return &ConfigurationError{Field: field, Reason: "table missing"}
	}
	prev := 0
	for i, t := range tiers {
		last := i == len(tiers)-1
		if last != (t.Below == 0) {
			return &ConfigurationError{Field: fmt.Sprintf("%s[%d]", field, i), Reason: "only the last tier may be unbounded and it must be"}
		}
		if !last && t.Below <= prev {
			return &ConfigurationError{Field: fmt.Sprintf("%s[%d]", field, i), Reason: fmt.Sprintf("below must increase, got %d after %d", t.Below, prev)}
		}
		if !t.ActualML.IsPositive() || !t.NominalUL.IsPositive() {
			return &ConfigurationError{Field: fmt.Sprintf("%s[%d]", field, i), Reason: "fill volumes must be positive"}
		}
		prev = t.Below
	}
	return nil
}

// policyFile is the YAML form of a Policy. Absent keys keep their defaults.
// All sections must be listed to satisfy KnownFields(true) strict parsing.
type policyFile struct {
	MaxPairsPerSpikeIn *int                      `yaml:"max_pairs_per_spike_in"`
	Precision          *int32                    `yaml:"precision"`
	TotalVolume        string                    `yaml:"total_volume"`
	GSP1Concentration  string                    `yaml:"gsp1_concentration"`
	GSP2Tiers          []concentrationTierFile   `yaml:"gsp2_concentration_tiers"`
	DiluentPartNumber  string                    `yaml:"diluent_part_number"`
	SpikeInIDPrefix    string                    `yaml:"spike_in_id_prefix"`
	MinFillGSP2Count   *int                      `yaml:"min_fill_gsp2_count"`
	FillTables         map[string][]fillTierFile `yaml:"fill_volume_tables"`
}

type concentrationTierFile struct {
	Below     int    `yaml:"below,omitempty"`
	Fixed     string `yaml:"fixed,omitempty"`
	PerPrimer string `yaml:"per_primer,omitempty"`
}

type fillTierFile struct {
	Below     int    `yaml:"below,omitempty"`
	ActualML  string `yaml:"actual_ml"`
	NominalUL string `yaml:"nominal_ul"`
}

// LoadPolicy reads a YAML policy file and overlays it on DefaultPolicy.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy: %w", err)
	}
	var f policyFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing policy: %w", err)
	}
	p, err := f.overlay(DefaultPolicy())
	if err != nil {
		return nil, fmt.Errorf("policy %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("policy %s: %w", path, err)
	}
	return p, nil
}

func parseDecimal(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, &ConfigurationError{Field: field, Reason: fmt.Sprintf("invalid decimal %q", value)}
	}
	return d, nil
}

// MarshalYAML renders p in the policy file format accepted by LoadPolicy.
func (p *Policy) MarshalYAML() (interface{}, error) {
	maxPairs, precision, minFill := p.MaxPairsPerSpikeIn, p.Precision, p.MinFillGSP2Count
	f := policyFile{
		MaxPairsPerSpikeIn: &maxPairs,
		Precision:          &precision,
		TotalVolume:        p.TotalVolume.StringFixed(p.Precision),
		GSP1Concentration:  p.GSP1Concentration.String(),
		DiluentPartNumber:  p.DiluentPartNumber,
		SpikeInIDPrefix:    p.SpikeInIDPrefix,
		MinFillGSP2Count:   &minFill,
		FillTables:         make(map[string][]fillTierFile, len(p.FillTables)),
	}
	for _, t := range p.GSP2Tiers {
		tier := concentrationTierFile{Below: t.Below}
		if t.Fixed != nil {
			tier.Fixed = t.Fixed.String()
		}
		if t.PerPrimer != nil {
			tier.PerPrimer = t.PerPrimer.String()
		}
		f.GSP2Tiers = append(f.GSP2Tiers, tier)
	}
	for name, tiers := range p.FillTables {
		for _, t := range tiers {
			f.FillTables[name] = append(f.FillTables[name], fillTierFile{
				Below:     t.Below,
				ActualML:  t.ActualML.StringFixed(p.Precision),
				NominalUL: t.NominalUL.String(),
			})
		}
	}
	return f, nil
}

func (f *policyFile) overlay(p *Policy) (*Policy, error) {
	var err error
	if f.MaxPairsPerSpikeIn != nil {
		p.MaxPairsPerSpikeIn = *f.MaxPairsPerSpikeIn
	}
	if f.Precision != nil {
		p.Precision = *f.Precision
	}
	if f.TotalVolume != "" {
		if p.TotalVolume, err = parseDecimal("total_volume", f.TotalVolume); err != nil {
			return nil, err
		}
	}
	if f.GSP1Concentration != "" {
		if p.GSP1Concentration, err = parseDecimal("gsp1_concentration", f.GSP1Concentration); err != nil {
			return nil, err
		}
	}
	if f.GSP2Tiers != nil {
		p.GSP2Tiers = make([]ConcentrationTier, 0, len(f.GSP2Tiers))
		for i, t := range f.GSP2Tiers {
			field := fmt.Sprintf("gsp2_concentration_tiers[%d]", i)
			tier := ConcentrationTier{Below: t.Below}
			if t.Fixed != "" {
				d, err := parseDecimal(field+".fixed", t.Fixed)
				if err != nil {
					return nil, err
				}
				tier.Fixed = &d
			}
			if t.PerPrimer != "" {
				d, err := parseDecimal(field+".per_primer", t.PerPrimer)
				if err != nil {
					return nil, err
				}
				tier.PerPrimer = &d
			}
			p.GSP2Tiers = append(p.GSP2Tiers, tier)
		}
	}
	if f.DiluentPartNumber != "" {
		p.DiluentPartNumber = f.DiluentPartNumber
	}
	if f.SpikeInIDPrefix != "" {
		p.SpikeInIDPrefix = f.SpikeInIDPrefix
	}
	if f.MinFillGSP2Count != nil {
		p.MinFillGSP2Count = *f.MinFillGSP2Count
	}
	for name, tiers := range f.FillTables {
		field := "fill_volume_tables." + name
		parsed := make([]FillTier, 0, len(tiers))
		for i, t := range tiers {
			actual, err := parseDecimal(fmt.Sprintf("%s[%d].actual_ml", field, i), t.ActualML)
			if err != nil {
				return nil, err
			}
			nominal, err := parseDecimal(fmt.Sprintf("%s[%d].nominal_ul", field, i), t.NominalUL)
			if err != nil {
				return nil, err
			}
			parsed = append(parsed, FillTier{Below: t.Below, ActualML: actual, NominalUL: nominal})
		}
		p.FillTables[name] = parsed
	}
	return p, nil
}
