package graph

import (
	"sort"

	"github.com/paulmach/osm"
)

// Graph is a directed road graph in CSR (Compressed Sparse Row) form.
// Node indices are compact; NodeID maps them back to OSM.
type Graph struct {
	NumNodes uint32
	NumEdges uint32
	FirstOut []uint32     // len: NumNodes + 1; FirstOut[i]..FirstOut[i+1] are edges from node i
	Head     []uint32     // len: NumEdges; target node for each edge
	Weight   []uint32     // len: NumEdges; distance in meters
	NodeID   []osm.NodeID // len: NumNodes
	NodeLat  []float64    // len: NumNodes
	NodeLon  []float64    // len: NumNodes
}

// EdgesFrom returns the range of edge indices for edges originating from node u.
func (g *Graph) EdgesFrom(u uint32) (start, end uint32) {
	return g.FirstOut[u], g.FirstOut[u+1]
}

// arc is a directed edge between compact node indices.
type arc struct {
	from, to, meters uint32
}

// assemble lays arcs out in CSR order for n nodes. Parallel arcs between the
// same ordered pair collapse to the shortest. arcs is sorted in place.
func assemble(n uint32, arcs []arc) (firstOut, head, weight []uint32) {
	sort.Slice(arcs, func(i, j int) bool {
		a, b := arcs[i], arcs[j]
		if a.from != b.from {
			return a.from < b.from
		}
		if a.to != b.to {
			return a.to < b.to
		}
		return a.meters < b.meters
	})

	firstOut = make([]uint32, n+1)
	head = make([]uint32, 0, len(arcs))
	weight = make([]uint32, 0, len(arcs))
	for i, a := range arcs {
		if i > 0 && arcs[i-1].from == a.from && arcs[i-1].to == a.to {
			continue
		}
		head = append(head, a.to)
		weight = append(weight, a.meters)
		firstOut[a.from+1]++
	}
	for i := uint32(1); i <= n; i++ {
		firstOut[i] += firstOut[i-1]
	}
	return firstOut, head, weight
}
