package graph

import (
	"math"

	"github.com/paulmach/osm"
)

// dsu is a disjoint-set forest with path halving and union by size.
type dsu struct {
	parent []uint32
	size   []uint32
}

func newDSU(n uint32) *dsu {
	d := &dsu{parent: make([]uint32, n), size: make([]uint32, n)}
	for i := range n {
		d.parent[i] = i
		d.size[i] = 1
	}
	return d
}

func (d *dsu) find(x uint32) uint32 {
	for d.parent[x] != x {
		d.parent[x] = d.parent[d.parent[x]]
		x = d.parent[x]
	}
	return x
}

func (d *dsu) union(x, y uint32) {
	rx, ry := d.find(x), d.find(y)
	if rx == ry {
		return
	}
	if d.size[rx] < d.size[ry] {
		rx, ry = ry, rx
	}
	d.parent[ry] = rx
	d.size[rx] += d.size[ry]
}

// LargestComponent returns, in ascending order, the nodes of the largest
// weakly connected component. On a tie the component holding the lowest
// node index wins.
func LargestComponent(g *Graph) []uint32 {
	if g.NumNodes == 0 {
		return nil
	}

	d := newDSU(g.NumNodes)
	for u := range g.NumNodes {
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			d.union(u, g.Head[e])
		}
	}

	best := d.find(0)
	for i := uint32(1); i < g.NumNodes; i++ {
		if r := d.find(i); d.size[r] > d.size[best] {
			best = r
		}
	}

	nodes := make([]uint32, 0, d.size[best])
	for i := range g.NumNodes {
		if d.find(i) == best {
			nodes = append(nodes, i)
		}
	}
	return nodes
}

// FilterToComponent returns the subgraph induced by nodes, renumbered in the
// order given. Edges leaving the set are dropped.
func FilterToComponent(g *Graph, nodes []uint32) *Graph {
	if len(nodes) == 0 {
		return &Graph{}
	}

	const absent = math.MaxUint32
	renumber := make([]uint32, g.NumNodes)
	for i := range renumber {
		renumber[i] = absent
	}
	for newIdx, oldIdx := range nodes {
		renumber[oldIdx] = uint32(newIdx)
	}

	n := uint32(len(nodes))
	sub := &Graph{
		NumNodes: n,
		NodeID:   make([]osm.NodeID, n),
		NodeLat:  make([]float64, n),
		NodeLon:  make([]float64, n),
	}
	var arcs []arc
	for newIdx, oldIdx := range nodes {
		if len(g.NodeID) > 0 {
			sub.NodeID[newIdx] = g.NodeID[oldIdx]
		}
		sub.NodeLat[newIdx] = g.NodeLat[oldIdx]
		sub.NodeLon[newIdx] = g.NodeLon[oldIdx]

		start, end := g.EdgesFrom(oldIdx)
		for e := start; e < end; e++ {
			if to := renumber[g.Head[e]]; to != absent {
				arcs = append(arcs, arc{from: uint32(newIdx), to: to, meters: g.Weight[e]})
			}
		}
	}
	sub.FirstOut, sub.Head, sub.Weight = assemble(n, arcs)
	sub.NumEdges = uint32(len(sub.Head))
	return sub
}
