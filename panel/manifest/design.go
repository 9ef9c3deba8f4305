// Package manifest reads composition inputs from YAML files and writes new
// spike-in designs back in the same format.
package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/panelmix/panelmix/panel"
)

// DesignFile is the YAML form of a design.
type DesignFile struct {
	ID     string     `yaml:"id,omitempty"` // defaults to the file name without extension
	Header HeaderFile `yaml:"header"`
	Pairs  []PairFile `yaml:"pairs"`
}

// HeaderFile is the YAML form of a design header. Concentrations are decimal
// strings; empty means the default pool concentration.
type HeaderFile struct {
	ProjectName            string            `yaml:"project_name"`
	PartNumber             string            `yaml:"part_number,omitempty"`
	ProjectVersion         string            `yaml:"project_version,omitempty"`
	MoleculeType           string            `yaml:"molecule_type"` // comma separated, e.g. "DNA, ctDNA"
	TotalGSP1Concentration string            `yaml:"total_gsp1_concentration,omitempty"`
	TotalGSP2Concentration string            `yaml:"total_gsp2_concentration,omitempty"`
	Extra                  map[string]string `yaml:"extra,omitempty"`
}

// PrimerFile is the YAML form of a primer.
type PrimerFile struct {
	Start      int    `yaml:"start"`
	Stop       int    `yaml:"stop"`
	Name       string `yaml:"name"`
	Sequence   string `yaml:"sequence"`
	BoostLevel string `yaml:"boost_level,omitempty"` // default 1
}

// PairFile is the YAML form of a primer pair.
type PairFile struct {
	GeneName              string     `yaml:"gene_name"`
	NCBIReferenceSequence string     `yaml:"ncbi_reference_sequence,omitempty"`
	TargetExon            string     `yaml:"target_exon,omitempty"`
	TargetChromosome      string     `yaml:"target_chromosome,omitempty"`
	TargetStart           string     `yaml:"target_start,omitempty"`
	TargetStop            string     `yaml:"target_stop,omitempty"`
	TargetStrand          string     `yaml:"target_strand,omitempty"`
	TargetName            string     `yaml:"target_name,omitempty"`
	AssayType             string     `yaml:"assay_type,omitempty"`
	Direction             string     `yaml:"direction,omitempty"`
	GSP1                  PrimerFile `yaml:"gsp1"`
	GSP1Tail              bool       `yaml:"gsp1_tail,omitempty"`
	GSP2                  PrimerFile `yaml:"gsp2"`
	CDSOnly               bool       `yaml:"cds_only,omitempty"`
	PrimerPairFunctions   string     `yaml:"primer_pair_functions,omitempty"`
	SNPIDLocations        string     `yaml:"snp_id_locations,omitempty"`
	PrimerPairNotes       string     `yaml:"primer_pair_notes,omitempty"`
}

// decodeStrict decodes YAML into v, rejecting unknown keys.
func decodeStrict(data []byte, v any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	return decoder.Decode(v)
}

// LoadDesign reads a design file.
func LoadDesign(path string) (*panel.Design, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading design: %w", err)
	}
	var f DesignFile
	if err := decodeStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parsing design %s: %w", path, err)
	}
	if f.ID == "" {
		f.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	d, err := f.Design(path)
	if err != nil {
		return nil, fmt.Errorf("design %s: %w", path, err)
	}
	return d, nil
}

// Design converts f into a panel.Design recorded as loaded from filePath.
func (f *DesignFile) Design(filePath string) (*panel.Design, error) {
	header, err := f.Header.header()
	if err != nil {
		return nil, err
	}
	pairs := make([]panel.PrimerPair, 0, len(f.Pairs))
	for i, p := range f.Pairs {
		pp, err := p.pair()
		if err != nil {
			return nil, fmt.Errorf("pair %d: %w", i, err)
		}
		pairs = append(pairs, pp)
	}
	return panel.NewDesign(f.ID, filePath, header, pairs)
}

func (h HeaderFile) header() (panel.Header, error) {
	types, err := panel.ParseMoleculeTypes(h.MoleculeType)
	if err != nil {
		return panel.Header{}, err
	}
	out := panel.Header{
		ProjectName:    h.ProjectName,
		PartNumber:     h.PartNumber,
		ProjectVersion: h.ProjectVersion,
		MoleculeTypes:  types,
		Extra:          h.Extra,
	}
	if out.TotalGSP1Concentration, err = optionalDecimal("total_gsp1_concentration", h.TotalGSP1Concentration); err != nil {
		return panel.Header{}, err
	}
	if out.TotalGSP2Concentration, err = optionalDecimal("total_gsp2_concentration", h.TotalGSP2Concentration); err != nil {
		return panel.Header{}, err
	}
	return out, nil
}

func (p PairFile) pair() (panel.PrimerPair, error) {
	gsp1, err := p.GSP1.primer("gsp1")
	if err != nil {
		return panel.PrimerPair{}, err
	}
	gsp2, err := p.GSP2.primer("gsp2")
	if err != nil {
		return panel.PrimerPair{}, err
	}
	return panel.PrimerPair{
		GeneName:              p.GeneName,
		NCBIReferenceSequence: p.NCBIReferenceSequence,
		TargetExon:            p.TargetExon,
		TargetChromosome:      p.TargetChromosome,
		TargetStart:           p.TargetStart,
		TargetStop:            p.TargetStop,
		TargetStrand:          p.TargetStrand,
		TargetName:            p.TargetName,
		AssayType:             p.AssayType,
		Direction:             p.Direction,
		GSP1:                  gsp1,
		GSP1Tail:              p.GSP1Tail,
		GSP2:                  gsp2,
		CDSOnly:               p.CDSOnly,
		PrimerPairFunctions:   p.PrimerPairFunctions,
		SNPIDLocations:        p.SNPIDLocations,
		PrimerPairNotes:       p.PrimerPairNotes,
	}, nil
}

func (p PrimerFile) primer(field string) (panel.Primer, error) {
	if p.Name == "" {
		return panel.Primer{}, &panel.ConfigurationError{Field: field, Reason: "primer name missing"}
	}
	boost := decimal.NewFromInt(1)
	if p.BoostLevel != "" {
		var err error
		if boost, err = decimal.NewFromString(p.BoostLevel); err != nil {
			return panel.Primer{}, &panel.ConfigurationError{Field: field + ".boost_level", Reason: fmt.Sprintf("invalid decimal %q", p.BoostLevel)}
		}
	}
	if boost.IsNegative() {
		return panel.Primer{}, &panel.ConfigurationError{Field: field + ".boost_level", Reason: fmt.Sprintf("must not be negative, got %s", boost)}
	}
	return panel.Primer{Start: p.Start, Stop: p.Stop, Name: p.Name, Sequence: p.Sequence, BoostLevel: boost}, nil
}

func optionalDecimal(field, value string) (*decimal.Decimal, error) {
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, &panel.ConfigurationError{Field: field, Reason: fmt.Sprintf("invalid decimal %q", value)}
	}
	return &d, nil
}

// NewDesignFile converts d into its YAML form.
func NewDesignFile(d *panel.Design) DesignFile {
	types := make([]string, 0, len(d.Header.MoleculeTypes))
	for _, mt := range d.Header.MoleculeTypes {
		types = append(types, string(mt))
	}
	sort.Strings(types)
	f := DesignFile{
		ID: d.ID,
		Header: HeaderFile{
			ProjectName:    d.Header.ProjectName,
			PartNumber:     d.Header.PartNumber,
			ProjectVersion: d.Header.ProjectVersion,
			MoleculeType:   strings.Join(types, ", "),
			Extra:          d.Header.Extra,
		},
		Pairs: make([]PairFile, 0, len(d.Pairs)),
	}
	if c := d.Header.TotalGSP1Concentration; c != nil {
		f.Header.TotalGSP1Concentration = c.String()
	}
	if c := d.Header.TotalGSP2Concentration; c != nil {
		f.Header.TotalGSP2Concentration = c.String()
	}
	for _, pp := range d.Pairs {
		f.Pairs = append(f.Pairs, PairFile{
			GeneName:              pp.GeneName,
			NCBIReferenceSequence: pp.NCBIReferenceSequence,
			TargetExon:            pp.TargetExon,
			TargetChromosome:      pp.TargetChromosome,
			TargetStart:           pp.TargetStart,
			TargetStop:            pp.TargetStop,
			TargetStrand:          pp.TargetStrand,
			TargetName:            pp.TargetName,
			AssayType:             pp.AssayType,
			Direction:             pp.Direction,
			GSP1:                  primerFile(pp.GSP1),
			GSP1Tail:              pp.GSP1Tail,
			GSP2:                  primerFile(pp.GSP2),
			CDSOnly:               pp.CDSOnly,
			PrimerPairFunctions:   pp.PrimerPairFunctions,
			SNPIDLocations:        pp.SNPIDLocations,
			PrimerPairNotes:       pp.PrimerPairNotes,
		})
	}
	return f
}

func primerFile(p panel.Primer) PrimerFile {
	return PrimerFile{Start: p.Start, Stop: p.Stop, Name: p.Name, Sequence: p.Sequence, BoostLevel: p.BoostLevel.String()}
}

// WriteDesign writes d as YAML to path, creating parent directories.
func WriteDesign(path string, d *panel.Design) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating design directory: %w", err)
	}
	data, err := yaml.Marshal(NewDesignFile(d))
	if err != nil {
		return fmt.Errorf("encoding design %s: %w", d.ID, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing design %s: %w", d.ID, err)
	}
	return nil
}
