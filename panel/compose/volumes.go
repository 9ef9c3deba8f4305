package compose

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/panelmix/panelmix/panel"
	"github.com/panelmix/panelmix/panel/apportion"
)

// divPrecision is the number of decimal places kept by intermediate divisions.
const divPrecision = 28

var hundred = decimal.NewFromInt(100)

// contribution is one design blended into the target.
type contribution struct {
	design  *panel.Design
	spikeIn bool
}

// channelMaterials computes the dispensed raw materials of one channel: each
// contribution gets a volume proportional to its primer units, scaled by the
// pool concentration. GSP2 is topped up with diluent to the policy total.
// Volumes are apportioned to the policy precision and sorted by volume
// descending, ties by part number.
func channelMaterials(ch panel.Channel, contributions []contribution, catalog panel.CatalogLookup, concentration decimal.Decimal, policy *panel.Policy) ([]panel.RawMaterial, error) {
	totalUnits := decimal.Zero
	for _, c := range contributions {
		totalUnits = totalUnits.Add(c.design.PrimerUnits(ch))
	}
	if !totalUnits.IsPositive() {
		return nil, &panel.DataConsistencyError{
			Source: ch.String(),
			Reason: fmt.Sprintf("total primer units %s across %d designs must be positive", totalUnits, len(contributions)),
		}
	}
	// volume = units / totalUnits × concentration / 100 × total volume
	scale := concentration.Mul(policy.TotalVolume)
	denominator := totalUnits.Mul(hundred)
	volumeOf := func(units decimal.Decimal) decimal.Decimal {
		return units.Mul(scale).DivRound(denominator, divPrecision)
	}

	var materials []panel.RawMaterial
	var nominal []decimal.Decimal
	for _, c := range contributions {
		d := c.design
		if c.spikeIn {
			materials = append(materials, panel.RawMaterial{
				PartNumber:  panel.DesignPartNumber(d.ID, ch),
				DesignID:    d.ID,
				IsSpikeIn:   true,
				Description: spikeInDescription(d),
			})
			nominal = append(nominal, volumeOf(d.PrimerUnits(ch)))
			continue
		}
		part, ok := catalog[d.ID]
		if !ok {
			materials = append(materials, panel.RawMaterial{
				PartNumber: panel.DesignPartNumber(d.ID, ch),
				DesignID:   d.ID,
			})
			nominal = append(nominal, volumeOf(d.PrimerUnits(ch)))
			continue
		}
		if err := part.Validate(); err != nil {
			return nil, err
		}
		subParts := part.SubParts(ch)
		if len(subParts) == 1 {
			materials = append(materials, panel.RawMaterial{
				PartNumber:    subParts[0].PartNumber,
				DesignID:      d.ID,
				IsCatalogPart: true,
			})
			nominal = append(nominal, volumeOf(d.PrimerUnits(ch)))
			continue
		}
		subTotal := decimal.Zero
		for _, sp := range subParts {
			subTotal = subTotal.Add(*sp.BoostLevelSum)
		}
		if !subTotal.Equal(d.PrimerUnits(ch)) {
			return nil, &panel.DataConsistencyError{
				Source: "catalog." + d.ID,
				Reason: fmt.Sprintf("%s sub-part boost levels sum to %s but the design has %s primer units", ch, subTotal, d.PrimerUnits(ch)),
			}
		}
		for _, sp := range subParts {
			materials = append(materials, panel.RawMaterial{
				PartNumber:    sp.PartNumber,
				DesignID:      d.ID,
				IsCatalogPart: true,
			})
			nominal = append(nominal, volumeOf(*sp.BoostLevelSum))
		}
	}

	total := policy.TotalVolume
	if ch == panel.GSP2 {
		diluent := total.Sub(sumOf(nominal))
		switch {
		case diluent.RoundBank(policy.Precision).IsZero():
			logrus.Debugf("compose: %s diluent %s rounds to zero, omitted", ch, diluent)
		case diluent.IsNegative():
			return nil, &panel.ConfigurationError{
				Field:  "TotalGSP2Concentration",
				Reason: fmt.Sprintf("pool concentration %s µM leaves negative diluent volume %s", concentration, diluent),
			}
		default:
			materials = append(materials, panel.RawMaterial{PartNumber: policy.DiluentPartNumber})
			nominal = append(nominal, diluent)
		}
	} else {
		total = scale.DivRound(hundred, divPrecision).RoundBank(policy.Precision)
	}

	volumes, err := apportion.Apportion(total, nominal, policy.Precision)
	if err != nil {
		return nil, fmt.Errorf("apportioning %d materials to %s: %w", len(nominal), total, err)
	}
	for i := range materials {
		materials[i].Volume = volumes[i]
	}
	sort.SliceStable(materials, func(i, j int) bool {
		if !materials[i].Volume.Equal(materials[j].Volume) {
			return materials[i].Volume.GreaterThan(materials[j].Volume)
		}
		return materials[i].PartNumber < materials[j].PartNumber
	})
	logrus.Debugf("compose: %s has %d materials totalling %s", ch, len(materials), total)
	return materials, nil
}

func spikeInDescription(d *panel.Design) string {
	if d.Header.ProjectName != "" {
		return d.Header.ProjectName
	}
	return "Spike-in " + d.ID
}

func sumOf(values []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum
}
