package graph

import (
	"github.com/paulmach/osm"

	osmparser "github.com/Ashish-Rautela/Disaster-Managment/pkg/osm"
)

// Build compacts parsed road segments into a Graph. Nodes are numbered in
// order of first appearance. Self loops are dropped and parallel segments
// keep the shortest.
func Build(result *osmparser.ParseResult) *Graph {
	index := make(map[osm.NodeID]uint32)
	var ids []osm.NodeID
	compact := func(id osm.NodeID) uint32 {
		if idx, ok := index[id]; ok {
			return idx
		}
		idx := uint32(len(ids))
		index[id] = idx
		ids = append(ids, id)
		return idx
	}

	arcs := make([]arc, 0, len(result.Edges))
	for _, e := range result.Edges {
		if e.FromNodeID == e.ToNodeID {
			continue
		}
		from := compact(e.FromNodeID)
		to := compact(e.ToNodeID)
		arcs = append(arcs, arc{from: from, to: to, meters: e.Meters})
	}

	n := uint32(len(ids))
	g := &Graph{
		NumNodes: n,
		NodeID:   ids,
		NodeLat:  make([]float64, n),
		NodeLon:  make([]float64, n),
	}
	for i, id := range ids {
		g.NodeLat[i] = result.NodeLat[id]
		g.NodeLon[i] = result.NodeLon[id]
	}
	g.FirstOut, g.Head, g.Weight = assemble(n, arcs)
	g.NumEdges = uint32(len(g.Head))
	return g
}
