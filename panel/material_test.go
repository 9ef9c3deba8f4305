package panel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDesignPartNumber(t *testing.T) {
	tests := []struct {
		id   string
		ch   Channel
		want string
	}{
		{"1234", GSP1, "AD1234-1"},
		{"001234", GSP2, "AD1234-2"},
		{"000", GSP1, "AD0-1"},
		{"Spike_In_1", GSP1, "Spike_In_1-1"},
		{"SK0042", GSP2, "SK0042-2"},
		{"99999999999999999999999", GSP1, "AD99999999999999999999999-1"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, DesignPartNumber(tc.id, tc.ch), "id %q", tc.id)
	}
}

func TestCatalogPart_Validate(t *testing.T) {
	ok := CatalogPart{
		DesignID:  "CAT",
		GSP1Parts: []CatalogSubPart{{PartNumber: "A", BoostLevelSum: decPtr("1")}, {PartNumber: "B", BoostLevelSum: decPtr("2")}},
		GSP2Parts: []CatalogSubPart{{PartNumber: "C"}},
	}
	assert.NoError(t, ok.Validate())

	tests := map[string]CatalogPart{
		"no design id":       {GSP1Parts: ok.GSP1Parts, GSP2Parts: ok.GSP2Parts},
		"missing gsp2 parts": {DesignID: "CAT", GSP1Parts: ok.GSP1Parts},
		"empty part number":  {DesignID: "CAT", GSP1Parts: []CatalogSubPart{{}}, GSP2Parts: ok.GSP2Parts},
		"multi-part without boost": {
			DesignID:  "CAT",
			GSP1Parts: []CatalogSubPart{{PartNumber: "A"}, {PartNumber: "B"}},
			GSP2Parts: ok.GSP2Parts,
		},
	}
	for name, part := range tests {
		t.Run(name, func(t *testing.T) {
			var ce *ConfigurationError
			assert.True(t, errors.As(part.Validate(), &ce))
		})
	}
}
