// Package graph finds the largest set of mutually compatible designs.
//
// Each node is a design; an edge joins two designs whose unique GSP1 primer
// sets and unique GSP2 primer sets are both disjoint. Solve returns a clique of
// this graph chosen by a deterministic recursive decomposition. It is not a
// general maximum-weight clique solver and must not be replaced by one without
// checking output parity.
package graph

import (
	"github.com/sirupsen/logrus"

	"github.com/panelmix/panelmix/panel"
)

// Graph is a compatibility graph over designs. Node identity is the *Design
// pointer: two distinct instances with identical content are distinct nodes.
// A Graph is not safe for concurrent mutation.
type Graph struct {
	nodes     []*panel.Design
	index     map[*panel.Design]int
	neighbors []map[int]struct{}
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{index: make(map[*panel.Design]int)}
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns the design at index i.
func (g *Graph) Node(i int) *panel.Design { return g.nodes[i] }

// Add inserts d and computes its edges against every existing node. It returns
// the new node index. Adding the same design instance twice is a
// GraphIntegrityError.
func (g *Graph) Add(d *panel.Design) (int, error) {
	if d == nil {
		return -1, &panel.GraphIntegrityError{Reason: "nil design"}
	}
	if _, dup := g.index[d]; dup {
		name := d.FilePath
		if name == "" {
			name = "[NO FILE PATH]"
		}
		return -1, &panel.GraphIntegrityError{DesignID: d.ID, Reason: "cannot add same design " + name + " twice"}
	}
	idx := len(g.nodes)
	adj := make(map[int]struct{})
	for j, other := range g.nodes {
		if d.CompatibleWith(other) {
			adj[j] = struct{}{}
			g.neighbors[j][idx] = struct{}{}
		}
	}
	g.nodes = append(g.nodes, d)
	g.neighbors = append(g.neighbors, adj)
	g.index[d] = idx
	return idx, nil
}

// Compatible reports whether nodes i and j share an edge.
func (g *Graph) Compatible(i, j int) bool {
	_, ok := g.neighbors[i][j]
	return ok
}

// PairCount returns the total primer pair count of the given designs.
func PairCount(designs []*panel.Design) int {
	n := 0
	for _, d := range designs {
		n += d.PairCount()
	}
	return n
}

// Solve returns the chosen clique in ascending node order.
func (g *Graph) Solve() []*panel.Design {
	if len(g.nodes) == 0 {
		return nil
	}
	s := &solver{
		g:      g,
		adj:    make([]nodeSet, len(g.nodes)),
		weight: make([]int, len(g.nodes)),
		memo:   make(map[string]nodeSet),
	}
	for i := range g.nodes {
		s.adj[i] = newNodeSet(len(g.nodes))
		for j := range g.neighbors[i] {
			s.adj[i].add(j)
		}
		s.weight[i] = g.nodes[i].PairCount()
	}
	all := newNodeSet(len(g.nodes))
	for i := range g.nodes {
		all.add(i)
	}
	best := s.solve(all)
	logrus.Debugf("graph: solved %d nodes, %d distinct subgraphs, clique of %d", len(g.nodes), len(s.memo), best.len())

	out := make([]*panel.Design, 0, best.len())
	for _, i := range best.members() {
		out = append(out, g.nodes[i])
	}
	return out
}

type solver struct {
	g      *Graph
	adj    []nodeSet
	weight []int
	memo   map[string]nodeSet
}

func (s *solver) solve(sub nodeSet) nodeSet {
	key := sub.key()
	if cached, ok := s.memo[key]; ok {
		return cached
	}

	members := sub.members()
	base := newNodeSet(len(s.g.nodes))
	var best nodeSet
	for _, node := range members {
		adjacent := s.adj[node].intersect(sub)
		switch n := adjacent.len(); {
		case n == len(members)-1:
			// adjacent to every other node: in every clique of this subgraph
			base.add(node)
		case n == 0:
			single := newNodeSet(len(s.g.nodes))
			single.add(node)
			best = s.better(best, single)
		default:
			// the node plus its neighbours, edges restricted to that set
			adjacent.add(node)
			best = s.better(best, s.solve(adjacent))
		}
	}

	result := base
	if best != nil {
		result = base.union(best)
	}
	s.memo[key] = result
	return result
}

// better returns the preferred of two candidate cliques: more primer pairs,
// then fewer designs, then the lexicographically smaller index list.
func (s *solver) better(cur, cand nodeSet) nodeSet {
	if cur == nil {
		return cand
	}
	cw, nw := s.pairs(cur), s.pairs(cand)
	if nw != cw {
		if nw > cw {
			return cand
		}
		return cur
	}
	cm, nm := cur.members(), cand.members()
	if len(nm) != len(cm) {
		if len(nm) < len(cm) {
			return cand
		}
		return cur
	}
	for i := range cm {
		if nm[i] != cm[i] {
			if nm[i] < cm[i] {
				return cand
			}
			return cur
		}
	}
	return cur
}

func (s *solver) pairs(set nodeSet) int {
	n := 0
	for _, i := range set.members() {
		n += s.weight[i]
	}
	return n
}
