package compose

import (
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/panelmix/panelmix/panel"
)

// PoolConcentrations returns the GSP1 and GSP2 pool concentrations (µM) of
// target. Header overrides win; otherwise GSP1 uses the policy default and
// GSP2 follows the policy tiers on the target's unique GSP2 primer count.
func PoolConcentrations(target *panel.Design, policy *panel.Policy) (gsp1, gsp2 decimal.Decimal, err error) {
	gsp1 = policy.GSP1Concentration
	if c := target.Header.TotalGSP1Concentration; c != nil {
		gsp1 = *c
	}
	if c := target.Header.TotalGSP2Concentration; c != nil {
		gsp2 = *c
	} else if gsp2, err = policy.GSP2Concentration(target.UniqueCount(panel.GSP2)); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if !gsp1.IsPositive() {
		return decimal.Zero, decimal.Zero, &panel.ConfigurationError{Field: "TotalGSP1Concentration", Reason: "must be positive, got " + gsp1.String()}
	}
	if !gsp2.IsPositive() {
		return decimal.Zero, decimal.Zero, &panel.ConfigurationError{Field: "TotalGSP2Concentration", Reason: "must be positive, got " + gsp2.String()}
	}
	return gsp1, gsp2, nil
}

// FillOverrides are caller-provided fill volumes. Either all four are set or
// none is; none means derive them from the policy fill tables.
type FillOverrides struct {
	ActualGSP1ML  *decimal.Decimal
	NominalGSP1UL *decimal.Decimal
	ActualGSP2ML  *decimal.Decimal
	NominalGSP2UL *decimal.Decimal
}

func (f FillOverrides) count() int {
	n := 0
	for _, v := range []*decimal.Decimal{f.ActualGSP1ML, f.NominalGSP1UL, f.ActualGSP2ML, f.NominalGSP2UL} {
		if v != nil {
			n++
		}
	}
	return n
}

// FillVolumes are the per-tube fill volumes of the manufactured pools.
type FillVolumes struct {
	ActualGSP1ML  decimal.Decimal
	NominalGSP1UL decimal.Decimal
	ActualGSP2ML  decimal.Decimal
	NominalGSP2UL decimal.Decimal
	Calculated    bool // derived from the policy tables rather than provided
}

func resolveFill(req Request, policy *panel.Policy) (FillVolumes, error) {
	switch req.Fill.count() {
	case 4:
		return FillVolumes{
			ActualGSP1ML:  *req.Fill.ActualGSP1ML,
			NominalGSP1UL: *req.Fill.NominalGSP1UL,
			ActualGSP2ML:  *req.Fill.ActualGSP2ML,
			NominalGSP2UL: *req.Fill.NominalGSP2UL,
		}, nil
	case 0:
		count := req.Target.UniqueCount(panel.GSP2)
		actual, nominal, err := policy.FillVolumes(req.Workflow, req.Disease, count)
		if err != nil {
			return FillVolumes{}, err
		}
		logrus.Debugf("compose: fill volumes %s mL / %s µL for %d unique GSP2 primers", actual, nominal, count)
		return FillVolumes{
			ActualGSP1ML:  actual,
			NominalGSP1UL: nominal,
			ActualGSP2ML:  actual,
			NominalGSP2UL: nominal,
			Calculated:    true,
		}, nil
	default:
		return FillVolumes{}, &panel.ConfigurationError{
			Field:  "fill_volumes",
			Reason: "cannot use a partial set of fill volumes; provide all four or none",
		}
	}
}
