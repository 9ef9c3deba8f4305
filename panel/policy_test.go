package panel

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultPolicy_IsValid(t *testing.T) {
	p := DefaultPolicy()
	require.NoError(t, p.Validate())
	assert.Equal(t, "0.00001", p.Increment().String())
}

func TestPolicy_GSP2Concentration_Tiers(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		count int
		want  string
	}{
		{1, "10"},
		{19, "10"},
		{20, "10"},
		{21, "10.5"},
		{199, "99.5"},
		{200, "100"},
		{5000, "100"},
	}
	for _, tc := range tests {
		got, err := p.GSP2Concentration(tc.count)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got.String(), "count %d", tc.count)
	}
}

func TestPolicy_FillVolumes(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		name     string
		workflow Workflow
		disease  Disease
		count    int
		actual   string
		nominal  string
	}{
		{"fusionplex any size", FusionPlex, "", 9000, "0.02", "16"},
		{"germline small", VariantPlexHGC, Germline, 1999, "0.02", "16"},
		{"germline medium", VariantPlexHGC, Germline, 2000, "0.04", "32"},
		{"germline large", VariantPlexHGC, Germline, 4000, "0.08", "64"},
		{"standard small", VariantPlexStandard, SolidTumor, 999, "0.04", "32"},
		{"standard medium", VariantPlexStandard, SolidTumor, 1000, "0.08", "64"},
		{"liquidplex large", LiquidPlex, "", 3000, "0.15", "128"},
		{"standard huge", VariantPlexHS, BloodCancers, 8000, "0.225", "192"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			actual, nominal, err := p.FillVolumes(tc.workflow, tc.disease, tc.count)
			require.NoError(t, err)
			assert.Equal(t, tc.actual, actual.String())
			assert.Equal(t, tc.nominal, nominal.String())
		})
	}
}

func TestPolicy_FillVolumes_TooFewPrimers_ReturnsConfigurationError(t *testing.T) {
	_, _, err := DefaultPolicy().FillVolumes(VariantPlexStandard, "", 19)
	var ce *ConfigurationError
	assert.True(t, errors.As(err, &ce), "expected ConfigurationError, got %v", err)
}

func TestPolicy_Validate_Rejects(t *testing.T) {
	tests := map[string]func(p *Policy){
		"zero capacity":         func(p *Policy) { p.MaxPairsPerSpikeIn = 0 },
		"negative precision":    func(p *Policy) { p.Precision = -1 },
		"total too precise":     func(p *Policy) { p.TotalVolume = dec("1.000001") },
		"empty diluent":         func(p *Policy) { p.DiluentPartNumber = "" },
		"unbounded middle tier": func(p *Policy) { p.GSP2Tiers[1].Below = 0 },
		"tier with both values": func(p *Policy) { p.GSP2Tiers[0].PerPrimer = decPtr("1") },
		"missing fill table":    func(p *Policy) { delete(p.FillTables, FillTableGermline) },
		"decreasing fill tiers": func(p *Policy) { p.FillTables[FillTableStandard][1].Below = 500 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			p := DefaultPolicy()
			mutate(p)
			var ce *ConfigurationError
			assert.True(t, errors.As(p.Validate(), &ce))
		})
	}
}

func writePolicy(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadPolicy_OverlaysDefaults(t *testing.T) {
	// GIVEN a policy file overriding two constants and one fill table
	path := writePolicy(t, `
max_pairs_per_spike_in: 400
diluent_part_number: DX9999
fill_volume_tables:
  fusionplex:
    - actual_ml: "0.03000"
      nominal_ul: "24"
`)

	// WHEN loaded
	p, err := LoadPolicy(path)
	require.NoError(t, err)

	// THEN the overrides apply and everything else keeps its default
	assert.Equal(t, 400, p.MaxPairsPerSpikeIn)
	assert.Equal(t, "DX9999", p.DiluentPartNumber)
	assert.Equal(t, int32(5), p.Precision)
	assert.Equal(t, "0.03", p.FillTables[FillTableFusionPlex][0].ActualML.String())
	assert.Len(t, p.FillTables[FillTableStandard], 4)
}

func TestLoadPolicy_Tiers(t *testing.T) {
	path := writePolicy(t, `
gsp2_concentration_tiers:
  - below: 50
    fixed: "20"
  - per_primer: "0.4"
`)
	p, err := LoadPolicy(path)
	require.NoError(t, err)

	got, err := p.GSP2Concentration(100)
	require.NoError(t, err)
	assert.Equal(t, "40", got.String())
}

func TestLoadPolicy_UnknownKey_ReturnsError(t *testing.T) {
	path := writePolicy(t, "max_pairs_per_spikein: 400\n")
	_, err := LoadPolicy(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_pairs_per_spikein")
}

func TestLoadPolicy_InvalidValues_ReturnConfigurationError(t *testing.T) {
	tests := map[string]string{
		"bad decimal":   "total_volume: one\n",
		"bad precision": "precision: 40\n",
		"bad tier":      "gsp2_concentration_tiers:\n  - below: 10\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadPolicy(writePolicy(t, body))
			var ce *ConfigurationError
			assert.True(t, errors.As(err, &ce), "expected ConfigurationError, got %v", err)
		})
	}
}

func TestLoadPolicy_MissingFile(t *testing.T) {
	_, err := LoadPolicy(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPolicy_MarshalYAML_LoadsBackUnchanged(t *testing.T) {
	// GIVEN a non-default policy rendered as YAML
	want := DefaultPolicy()
	want.MaxPairsPerSpikeIn = 300
	want.GSP2Tiers[1].PerPrimer = decPtr("0.25")
	data, err := yaml.Marshal(want)
	require.NoError(t, err)

	// WHEN loaded back
	got, err := LoadPolicy(writePolicy(t, string(data)))
	require.NoError(t, err)

	// THEN every constant survives
	assert.Equal(t, 300, got.MaxPairsPerSpikeIn)
	assert.True(t, got.TotalVolume.Equal(want.TotalVolume))
	for _, count := range []int{5, 20, 150, 900} {
		w, err := want.GSP2Concentration(count)
		require.NoError(t, err)
		g, err := got.GSP2Concentration(count)
		require.NoError(t, err)
		assert.True(t, g.Equal(w), "count %d: %s != %s", count, g, w)
	}
	for name, tiers := range want.FillTables {
		require.Len(t, got.FillTables[name], len(tiers), name)
		for i := range tiers {
			assert.Equal(t, tiers[i].Below, got.FillTables[name][i].Below)
			assert.True(t, tiers[i].ActualML.Equal(got.FillTables[name][i].ActualML))
			assert.True(t, tiers[i].NominalUL.Equal(got.FillTables[name][i].NominalUL))
		}
	}
}
