// Package spikein packs primer pairs that no inventoried design covers into
// new, bounded-size spike-in designs.
package spikein

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/panelmix/panelmix/panel"
)

// FingerprintHeader is the Header.Extra key holding a spike-in's content fingerprint.
const FingerprintHeader = "SpikeInFingerprint"

// fingerprintSpace namespaces spike-in fingerprints.
var fingerprintSpace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("panelmix/spike-in"))

// Options controls packing.
type Options struct {
	MaxPairs int    // bin capacity in primer pairs
	IDPrefix string // new design ids are IDPrefix + a 1-based pool number
	// ReservedIDs are ids already in use; pool numbers that would produce
	// one of them are skipped.
	ReservedIDs map[string]bool
}

// OptionsFromPolicy derives packing options from a policy.
func OptionsFromPolicy(p *panel.Policy) Options {
	return Options{MaxPairs: p.MaxPairsPerSpikeIn, IDPrefix: p.SpikeInIDPrefix}
}

// Uncovered returns the target's pairs, in target order, that appear in none of
// the given designs.
func Uncovered(target *panel.Design, covering []*panel.Design) []panel.PrimerPair {
	covered := make(map[panel.PairKey]struct{})
	for _, d := range covering {
		for k := range d.PairSet() {
			covered[k] = struct{}{}
		}
	}
	var out []panel.PrimerPair
	for _, pp := range target.Pairs {
		if _, ok := covered[pp.Key()]; !ok {
			out = append(out, pp)
		}
	}
	return out
}

// chunk is a run of pairs from a single gene that must stay together.
type chunk struct {
	gene  string
	pairs []panel.PrimerPair
}

// Pack groups uncovered pairs by gene, splits genes larger than MaxPairs into
// full chunks plus a remainder, and first-fit-decreasing packs the chunks into
// as few designs as it can. Each bin becomes a design inheriting target's header.
func Pack(target *panel.Design, uncovered []panel.PrimerPair, opts Options) ([]*panel.Design, error) {
	if opts.MaxPairs <= 0 {
		return nil, &panel.ConfigurationError{Field: "max_pairs_per_spike_in", Reason: fmt.Sprintf("must be positive, got %d", opts.MaxPairs)}
	}
	if len(uncovered) == 0 {
		return nil, nil
	}

	chunks := splitChunks(groupByGene(uncovered), opts.MaxPairs)
	sort.SliceStable(chunks, func(i, j int) bool {
		return len(chunks[i].pairs) > len(chunks[j].pairs)
	})

	var bins [][]panel.PrimerPair
	for _, c := range chunks {
		placed := false
		for b := range bins {
			if opts.MaxPairs-len(bins[b]) >= len(c.pairs) {
				bins[b] = append(bins[b], c.pairs...)
				placed = true
				break
			}
		}
		if !placed {
			bins = append(bins, append([]panel.PrimerPair(nil), c.pairs...))
		}
	}

	designs := make([]*panel.Design, 0, len(bins))
	n := 0
	for _, pairs := range bins {
		n++
		for opts.ReservedIDs[fmt.Sprintf("%s%d", opts.IDPrefix, n)] {
			n++
		}
		d, err := panel.NewDesign(fmt.Sprintf("%s%d", opts.IDPrefix, n), "", spikeInHeader(target.Header, n, pairs), pairs)
		if err != nil {
			return nil, fmt.Errorf("building spike-in %d: %w", n, err)
		}
		designs = append(designs, d)
	}
	logrus.Infof("spike-in: packed %d uncovered pairs from %d chunks into %d designs", len(uncovered), len(chunks), len(designs))
	return designs, nil
}

// groupByGene buckets pairs by gene key, keeping first-seen gene order and
// target order within a gene.
func groupByGene(pairs []panel.PrimerPair) []chunk {
	index := make(map[string]int)
	var groups []chunk
	for _, pp := range pairs {
		gene := pp.GeneKey()
		i, ok := index[gene]
		if !ok {
			i = len(groups)
			index[gene] = i
			groups = append(groups, chunk{gene: gene})
		}
		groups[i].pairs = append(groups[i].pairs, pp)
	}
	return groups
}

func splitChunks(groups []chunk, max int) []chunk {
	var out []chunk
	for _, g := range groups {
		for start := 0; start < len(g.pairs); start += max {
			end := min(start+max, len(g.pairs))
			out = append(out, chunk{gene: g.gene, pairs: g.pairs[start:end]})
		}
	}
	return out
}

func spikeInHeader(base panel.Header, n int, pairs []panel.PrimerPair) panel.Header {
	h := base.Clone()
	h.ProjectName = strings.TrimSpace(fmt.Sprintf("Spike In Pool %d %s", n, base.ProjectName))
	h.PartNumber = ""
	h.ProjectVersion = ""
	gsp1 := panel.DefaultPoolConcentration()
	gsp2 := panel.DefaultPoolConcentration()
	h.TotalGSP1Concentration = &gsp1
	h.TotalGSP2Concentration = &gsp2
	if h.Extra == nil {
		h.Extra = make(map[string]string)
	}
	h.Extra[FingerprintHeader] = Fingerprint(pairs).String()
	return h
}

// Fingerprint returns a name-based UUID over the sorted pair keys, so the same
// set of pairs always yields the same fingerprint regardless of order.
func Fingerprint(pairs []panel.PrimerPair) uuid.UUID {
	keys := make([]string, 0, len(pairs))
	for _, pp := range pairs {
		k := pp.Key()
		keys = append(keys, fmt.Sprintf("%d:%d:%s:%s:%s|%d:%d:%s:%s:%s",
			k.GSP1.Start, k.GSP1.Stop, k.GSP1.Name, k.GSP1.Sequence, k.GSP1.BoostLevel,
			k.GSP2.Start, k.GSP2.Stop, k.GSP2.Name, k.GSP2.Sequence, k.GSP2.BoostLevel))
	}
	sort.Strings(keys)
	return uuid.NewSHA1(fingerprintSpace, []byte(strings.Join(keys, "\n")))
}
