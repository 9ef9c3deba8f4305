package graph

import (
	"math/bits"
	"strings"
)

// nodeSet is a set of node indices backed by 64-bit words. Its key() is the
// canonical memoization key of a subgraph.
type nodeSet []uint64

func newNodeSet(n int) nodeSet {
	return make(nodeSet, (n+63)/64)
}

func (s nodeSet) add(i int) { s[i/64] |= 1 << uint(i%64) }

func (s nodeSet) len() int {
	n := 0
	for _, w := range s {
		n += bits.OnesCount64(w)
	}
	return n
}

func (s nodeSet) intersect(o nodeSet) nodeSet {
	out := make(nodeSet, len(s))
	for i := range s {
		out[i] = s[i] & o[i]
	}
	return out
}

func (s nodeSet) union(o nodeSet) nodeSet {
	out := make(nodeSet, len(s))
	for i := range s {
		out[i] = s[i] | o[i]
	}
	return out
}

// members returns the indices in ascending order.
func (s nodeSet) members() []int {
	out := make([]int, 0, s.len())
	for wi, w := range s {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			out = append(out, wi*64+b)
			w &= w - 1
		}
	}
	return out
}

func (s nodeSet) key() string {
	var b strings.Builder
	b.Grow(len(s) * 8)
	for _, w := range s {
		for k := 0; k < 8; k++ {
			b.WriteByte(byte(w >> (8 * k)))
		}
	}
	return b.String()
}
