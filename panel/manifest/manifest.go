package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/panelmix/panelmix/panel"
	"github.com/panelmix/panelmix/panel/compose"
)

// File is the YAML form of a composition manifest. Design paths are relative
// to the manifest's directory.
type File struct {
	Workflow       string        `yaml:"workflow"`
	Disease        string        `yaml:"disease,omitempty"`
	Target         string        `yaml:"target"`
	Library        []string      `yaml:"library,omitempty"`
	SpikeInLibrary []string      `yaml:"spike_in_library,omitempty"`
	Catalog        []CatalogFile `yaml:"catalog,omitempty"`
	Fill           *FillFile     `yaml:"fill_volumes,omitempty"`
}

// CatalogFile is the YAML form of one catalog part.
type CatalogFile struct {
	DesignID  string        `yaml:"design_id"`
	GSP1Parts []SubPartFile `yaml:"gsp1_parts"`
	GSP2Parts []SubPartFile `yaml:"gsp2_parts"`
}

// SubPartFile is the YAML form of a catalog sub-part.
type SubPartFile struct {
	PartNumber    string `yaml:"part_number"`
	BoostLevelSum string `yaml:"boost_level_sum,omitempty"`
}

// FillFile holds explicit fill volumes. Omitted values stay unset.
type FillFile struct {
	ActualGSP1ML  string `yaml:"actual_gsp1_ml,omitempty"`
	NominalGSP1UL string `yaml:"nominal_gsp1_ul,omitempty"`
	ActualGSP2ML  string `yaml:"actual_gsp2_ml,omitempty"`
	NominalGSP2UL string `yaml:"nominal_gsp2_ul,omitempty"`
}

// Manifest is a loaded composition manifest.
type Manifest struct {
	Path           string
	Workflow       panel.Workflow
	Disease        panel.Disease
	Target         *panel.Design
	Library        []*panel.Design
	SpikeInLibrary []*panel.Design
	Catalog        panel.CatalogLookup
	Fill           compose.FillOverrides
}

// Load reads a manifest and every design it references.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var f File
	if err := decodeStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	m, err := f.resolve(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	m.Path = path
	logrus.Infof("manifest: loaded target %s with %d inventoried and %d spike-in library designs, %d catalog parts",
		m.Target.ID, len(m.Library), len(m.SpikeInLibrary), len(m.Catalog))
	return m, nil
}

func (f *File) resolve(dir string) (*Manifest, error) {
	m := &Manifest{Catalog: make(panel.CatalogLookup, len(f.Catalog))}
	var err error
	if m.Workflow, err = panel.ParseWorkflow(f.Workflow); err != nil {
		return nil, err
	}
	if m.Disease, err = panel.ParseDisease(f.Disease); err != nil {
		return nil, err
	}
	if f.Target == "" {
		return nil, &panel.ConfigurationError{Field: "target", Reason: "target design path missing"}
	}
	if m.Target, err = LoadDesign(relative(dir, f.Target)); err != nil {
		return nil, err
	}
	if m.Library, err = loadDesigns(dir, f.Library); err != nil {
		return nil, err
	}
	if m.SpikeInLibrary, err = loadDesigns(dir, f.SpikeInLibrary); err != nil {
		return nil, err
	}
	for i, c := range f.Catalog {
		part, err := c.part()
		if err != nil {
			return nil, fmt.Errorf("catalog[%d]: %w", i, err)
		}
		if _, dup := m.Catalog[part.DesignID]; dup {
			return nil, &panel.ConfigurationError{Field: fmt.Sprintf("catalog[%d]", i), Reason: fmt.Sprintf("duplicate design id %s", part.DesignID)}
		}
		m.Catalog[part.DesignID] = part
	}
	if f.Fill != nil {
		if m.Fill, err = f.Fill.overrides(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func relative(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func loadDesigns(dir string, paths []string) ([]*panel.Design, error) {
	designs := make([]*panel.Design, 0, len(paths))
	for _, p := range paths {
		d, err := LoadDesign(relative(dir, p))
		if err != nil {
			return nil, err
		}
		designs = append(designs, d)
	}
	return designs, nil
}

func (c CatalogFile) part() (panel.CatalogPart, error) {
	part := panel.CatalogPart{DesignID: c.DesignID}
	var err error
	if part.GSP1Parts, err = subParts("gsp1_parts", c.GSP1Parts); err != nil {
		return panel.CatalogPart{}, err
	}
	if part.GSP2Parts, err = subParts("gsp2_parts", c.GSP2Parts); err != nil {
		return panel.CatalogPart{}, err
	}
	if err := part.Validate(); err != nil {
		return panel.CatalogPart{}, err
	}
	return part, nil
}

func subParts(field string, files []SubPartFile) ([]panel.CatalogSubPart, error) {
	out := make([]panel.CatalogSubPart, 0, len(files))
	for i, sp := range files {
		sum, err := optionalDecimal(fmt.Sprintf("%s[%d].boost_level_sum", field, i), sp.BoostLevelSum)
		if err != nil {
			return nil, err
		}
		out = append(out, panel.CatalogSubPart{PartNumber: sp.PartNumber, BoostLevelSum: sum})
	}
	return out, nil
}

func (f *FillFile) overrides() (compose.FillOverrides, error) {
	var out compose.FillOverrides
	for _, v := range []struct {
		field string
		value string
		dst   **decimal.Decimal
	}{
		{"fill_volumes.actual_gsp1_ml", f.ActualGSP1ML, &out.ActualGSP1ML},
		{"fill_volumes.nominal_gsp1_ul", f.NominalGSP1UL, &out.NominalGSP1UL},
		{"fill_volumes.actual_gsp2_ml", f.ActualGSP2ML, &out.ActualGSP2ML},
		{"fill_volumes.nominal_gsp2_ul", f.NominalGSP2UL, &out.NominalGSP2UL},
	} {
		d, err := optionalDecimal(v.field, v.value)
		if err != nil {
			return compose.FillOverrides{}, err
		}
		*v.dst = d
	}
	return out, nil
}

// Request builds the composition request for m under policy.
func (m *Manifest) Request(policy *panel.Policy) compose.Request {
	return compose.Request{
		Target:         m.Target,
		Workflow:       m.Workflow,
		Disease:        m.Disease,
		Library:        m.Library,
		SpikeInLibrary: m.SpikeInLibrary,
		Catalog:        m.Catalog,
		Fill:           m.Fill,
		Policy:         policy,
	}
}
