// Package compose assembles a target design from inventoried designs and new
// spike-ins, and computes the per-channel raw material volumes of the blend.
//
// Compose drives the whole pipeline:
//
//	candidates → graph.Solve → spikein.Pack → nominal volumes → apportion → sorted materials
//
// Each call builds its own graph and intermediate sets; inputs are read-only.
package compose

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/panelmix/panelmix/panel"
	"github.com/panelmix/panelmix/panel/graph"
	"github.com/panelmix/panelmix/panel/spikein"
	"github.com/panelmix/panelmix/panel/trace"
)

// Request is the input of one composition.
type Request struct {
	Target         *panel.Design
	Workflow       panel.Workflow
	Disease        panel.Disease
	Library        []*panel.Design // inventoried designs
	SpikeInLibrary []*panel.Design // previously synthesized spike-ins
	Catalog        panel.CatalogLookup
	Fill           FillOverrides // zero value = derive from the policy fill tables
	Policy         *panel.Policy // nil = panel.DefaultPolicy()
	Trace          *trace.CompositionTrace
}

// Result is the output of one composition.
type Result struct {
	GSP1 []panel.RawMaterial
	GSP2 []panel.RawMaterial

	Solution    []*panel.Design // chosen compatible designs, node order
	Inventoried []*panel.Design // Solution members from the inventoried library
	SpikeIns    []*panel.Design // Solution members from the spike-in library, then NewSpikeIns
	NewSpikeIns []*panel.Design // designs the caller must persist and order

	GSP1Concentration decimal.Decimal // µM
	GSP2Concentration decimal.Decimal // µM
	Fill              FillVolumes
	// BulkOrder is set when nothing from inventory could be reused and the
	// whole panel fits one spike-in, so it can be ordered as a bulk pool.
	BulkOrder bool
}

// Materials returns the raw materials of channel ch.
func (r *Result) Materials(ch panel.Channel) []panel.RawMaterial {
	if ch == panel.GSP2 {
		return r.GSP2
	}
	return r.GSP1
}

// Compose runs the full composition pipeline for req.
func Compose(req Request) (*Result, error) {
	if req.Target == nil {
		return nil, &panel.ConfigurationError{Field: "target", Reason: "no target design"}
	}
	if req.Target.PairCount() == 0 {
		return nil, &panel.ConfigurationError{Field: "target", Reason: fmt.Sprintf("design %s has no primer pairs", req.Target.ID)}
	}
	policy := req.Policy
	if policy == nil {
		policy = panel.DefaultPolicy()
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	moleculeType, err := req.Workflow.MoleculeType()
	if err != nil {
		return nil, err
	}
	logrus.Infof("compose: target %s (%d pairs, %d unique GSP1, %d unique GSP2), workflow %s",
		req.Target.ID, req.Target.PairCount(), req.Target.UniqueCount(panel.GSP1), req.Target.UniqueCount(panel.GSP2), req.Workflow)

	candidates := eligibleCandidates(req.Target, moleculeType, req.Library, req.SpikeInLibrary, req.Trace)

	g := graph.New()
	fromSpikeInLibrary := make(map[*panel.Design]bool)
	for _, c := range candidates {
		if _, err := g.Add(c.design); err != nil {
			return nil, fmt.Errorf("building compatibility graph: %w", err)
		}
		if c.library == trace.LibrarySpikeIn {
			fromSpikeInLibrary[c.design] = true
		}
	}
	solution := g.Solve()
	req.Trace.RecordSolution(trace.SolutionRecord{
		Nodes:     g.Len(),
		Chosen:    designIDs(solution),
		PairCount: graph.PairCount(solution),
	})
	logrus.Infof("compose: %d eligible candidates, %d chosen covering %d of %d pairs",
		g.Len(), len(solution), graph.PairCount(solution), req.Target.PairCount())

	packOpts := spikein.OptionsFromPolicy(policy)
	packOpts.ReservedIDs = reservedIDs(req)
	newSpikeIns, err := spikein.Pack(req.Target, spikein.Uncovered(req.Target, solution), packOpts)
	if err != nil {
		return nil, fmt.Errorf("packing spike-ins: %w", err)
	}
	for _, d := range newSpikeIns {
		req.Trace.RecordPacking(trace.PackingRecord{DesignID: d.ID, Pairs: len(d.Pairs), Genes: geneKeys(d)})
	}

	result := &Result{Solution: solution, NewSpikeIns: newSpikeIns}
	for _, d := range solution {
		if fromSpikeInLibrary[d] {
			result.SpikeIns = append(result.SpikeIns, d)
		} else {
			result.Inventoried = append(result.Inventoried, d)
		}
	}
	result.SpikeIns = append(result.SpikeIns, newSpikeIns...)

	if result.GSP1Concentration, result.GSP2Concentration, err = PoolConcentrations(req.Target, policy); err != nil {
		return nil, err
	}
	if result.Fill, err = resolveFill(req, policy); err != nil {
		return nil, err
	}

	contributions := make([]contribution, 0, len(result.Inventoried)+len(result.SpikeIns))
	for _, d := range result.Inventoried {
		contributions = append(contributions, contribution{design: d})
	}
	for _, d := range result.SpikeIns {
		contributions = append(contributions, contribution{design: d, spikeIn: true})
	}

	// The channels only read immutable inputs, so they are computed concurrently.
	var eg errgroup.Group
	lists := make([][]panel.RawMaterial, len(panel.Channels))
	for i, ch := range panel.Channels {
		conc := result.GSP1Concentration
		if ch == panel.GSP2 {
			conc = result.GSP2Concentration
		}
		eg.Go(func() error {
			materials, err := channelMaterials(ch, contributions, req.Catalog, conc, policy)
			if err != nil {
				return fmt.Errorf("%s materials: %w", ch, err)
			}
			lists[i] = materials
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	result.GSP1, result.GSP2 = lists[0], lists[1]

	if len(result.GSP1) == 1 && len(result.GSP2) == 1 && len(result.SpikeIns) == 1 {
		logrus.Warnf("compose: no inventoried parts could be used, but the panel has at most %d pairs and can be ordered as bulk", policy.MaxPairsPerSpikeIn)
		result.BulkOrder = true
	}
	return result, nil
}

// reservedIDs collects every design id the request already uses, so new
// spike-ins never share a part number or file name with one of them.
func reservedIDs(req Request) map[string]bool {
	out := map[string]bool{req.Target.ID: true}
	for _, lib := range [][]*panel.Design{req.Library, req.SpikeInLibrary} {
		for _, d := range lib {
			if d != nil {
				out[d.ID] = true
			}
		}
	}
	return out
}

func designIDs(designs []*panel.Design) []string {
	out := make([]string, 0, len(designs))
	for _, d := range designs {
		out = append(out, d.ID)
	}
	return out
}

func geneKeys(d *panel.Design) []string {
	var out []string
	seen := make(map[string]bool)
	for _, pp := range d.Pairs {
		if g := pp.GeneKey(); !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}
