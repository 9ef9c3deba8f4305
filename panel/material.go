package panel

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RawMaterial is one line of a channel's bill of materials.
type RawMaterial struct {
	PartNumber    string
	DesignID      string // empty for materials not backed by a design (diluent)
	Volume        decimal.Decimal
	IsCatalogPart bool
	IsSpikeIn     bool
	Description   string // set for spike-ins only
}

// DesignPartNumber returns the pool part number of a non-catalog design.
// Numeric ids are assay designer ids and get an "AD" prefix with leading
// zeros removed.
func DesignPartNumber(designID string, ch Channel) string {
	if designID != "" && isDigits(designID) {
		n := strings.TrimLeft(designID, "0")
		if n == "" {
			n = "0"
		}
		return "AD" + n + ch.PartSuffix()
	}
	return designID + ch.PartSuffix()
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// CatalogSubPart is one inventoried sub-component of a catalog panel.
type CatalogSubPart struct {
	PartNumber string
	// BoostLevelSum is the sub-part's share of the design's channel units.
	// Only consulted when a channel has more than one sub-part.
	BoostLevelSum *decimal.Decimal
}

// CatalogPart maps a catalog design to its per-channel sub-parts.
type CatalogPart struct {
	DesignID  string
	GSP1Parts []CatalogSubPart
	GSP2Parts []CatalogSubPart
}

// SubParts returns the sub-parts for channel ch.
func (c CatalogPart) SubParts(ch Channel) []CatalogSubPart {
	if ch == GSP2 {
		return c.GSP2Parts
	}
	return c.GSP1Parts
}

// Validate checks that every channel has at least one sub-part, that part
// numbers are present, and that multi-part channels carry boost level sums.
func (c CatalogPart) Validate() error {
	if c.DesignID == "" {
		return &ConfigurationError{Field: "catalog", Reason: "catalog part without design id"}
	}
	for _, ch := range Channels {
		parts := c.SubParts(ch)
		if len(parts) == 0 {
			return &ConfigurationError{Field: "catalog." + c.DesignID, Reason: fmt.Sprintf("%s part number missing", ch)}
		}
		for i, p := range parts {
			if p.PartNumber == "" {
				return &ConfigurationError{Field: "catalog." + c.DesignID, Reason: fmt.Sprintf("%s part number missing at index %d", ch, i)}
			}
			if len(parts) > 1 && (p.BoostLevelSum == nil || p.BoostLevelSum.IsZero()) {
				return &ConfigurationError{Field: "catalog." + c.DesignID, Reason: fmt.Sprintf("%s boost level missing for %s", ch, p.PartNumber)}
			}
		}
	}
	return nil
}

// CatalogLookup maps design ids to catalog parts.
type CatalogLookup map[string]CatalogPart
