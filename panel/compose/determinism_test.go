package compose

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/panelmix/panelmix/panel"
	"github.com/panelmix/panelmix/panel/internal/testutil"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

// snapshot is the comparable projection of a Result.
type snapshot struct {
	GSP1, GSP2        []panel.RawMaterial
	Solution          []string
	SpikeIns          []string
	NewSpikeInPairs   [][]panel.PrimerPair
	NewSpikeInHeaders []panel.Header
	Fill              FillVolumes
	BulkOrder         bool
}

func snap(r *Result) snapshot {
	s := snapshot{
		GSP1:      r.GSP1,
		GSP2:      r.GSP2,
		Solution:  ids(r.Solution),
		SpikeIns:  ids(r.SpikeIns),
		Fill:      r.Fill,
		BulkOrder: r.BulkOrder,
	}
	for _, d := range r.NewSpikeIns {
		s.NewSpikeInPairs = append(s.NewSpikeInPairs, d.Pairs)
		s.NewSpikeInHeaders = append(s.NewSpikeInHeaders, d.Header)
	}
	return s
}

func determinismRequest(t *testing.T) Request {
	t.Helper()
	var pairs []panel.PrimerPair
	for g := 0; g < 12; g++ {
		pairs = append(pairs, testutil.GenePairs(fmt.Sprintf("GENE%d", g), 40+g*15)...)
	}
	target := testutil.Design(t, "T", testutil.Header("Determinism"), pairs...)
	var lib []*panel.Design
	for i := 0; i < 9; i++ {
		start := i * 70
		lib = append(lib, testutil.Design(t, fmt.Sprintf("%04d", 10+i), testutil.Header("Lib"), target.Pairs[start:start+60]...))
	}
	return Request{Target: target, Workflow: panel.VariantPlexStandard, Disease: panel.SolidTumor, Library: lib}
}

func TestCompose_RepeatedRuns_IdenticalResults(t *testing.T) {
	// GIVEN the same request composed twice
	req := determinismRequest(t)
	first, err := Compose(req)
	require.NoError(t, err)
	second, err := Compose(req)
	require.NoError(t, err)

	// THEN the results are identical
	if diff := cmp.Diff(snap(first), snap(second), decimalEqual); diff != "" {
		t.Errorf("repeated Compose differs (-first +second):\n%s", diff)
	}
}

func TestCompose_LibraryOrder_DoesNotChangeResult(t *testing.T) {
	req := determinismRequest(t)
	want, err := Compose(req)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 5; trial++ {
		// GIVEN the library in a different order
		shuffled := append([]*panel.Design(nil), req.Library...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		req.Library = shuffled

		got, err := Compose(req)
		require.NoError(t, err)

		// THEN candidates are visited in id order and nothing changes
		if diff := cmp.Diff(snap(want), snap(got), decimalEqual); diff != "" {
			t.Errorf("trial %d: shuffled library changed the result (-want +got):\n%s", trial, diff)
		}
	}
}
