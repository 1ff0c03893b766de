package graph

import (
	"slices"
	"testing"

	"github.com/paulmach/osm"

	osmparser "github.com/Ashish-Rautela/Disaster-Managment/pkg/osm"
)

// twoIslands is a one-way triangle 10->20->30->10 and a separate pair 40->50.
func twoIslands() *Graph {
	return Build(&osmparser.ParseResult{
		Edges: []osmparser.RawEdge{
			{FromNodeID: 40, ToNodeID: 50, Meters: 400},
			{FromNodeID: 10, ToNodeID: 20, Meters: 100},
			{FromNodeID: 20, ToNodeID: 30, Meters: 200},
			{FromNodeID: 30, ToNodeID: 10, Meters: 300},
		},
		NodeLat: map[osm.NodeID]float64{10: 19.0, 20: 19.1, 30: 19.2, 40: 21.0, 50: 21.1},
		NodeLon: map[osm.NodeID]float64{10: 72.8, 20: 72.9, 30: 73.0, 40: 79.0, 50: 79.1},
	})
}

func TestDSU(t *testing.T) {
	d := newDSU(5)
	d.union(0, 1)
	d.union(2, 3)
	if d.find(0) != d.find(1) || d.find(2) != d.find(3) {
		t.Fatal("unioned pairs not merged")
	}
	if d.find(0) == d.find(2) {
		t.Error("0 and 2 merged early")
	}
	d.union(1, 3)
	if d.find(0) != d.find(3) {
		t.Error("0 and 3 should share a set")
	}
	if d.size[d.find(0)] != 4 {
		t.Errorf("merged size = %d, want 4", d.size[d.find(0)])
	}
	if d.find(4) != 4 {
		t.Error("4 should stay alone")
	}
}

func TestLargestComponent(t *testing.T) {
	g := twoIslands()
	// Compact order: 40, 50, 10, 20, 30.
	got := LargestComponent(g)
	if !slices.Equal(got, []uint32{2, 3, 4}) {
		t.Errorf("LargestComponent = %v, want [2 3 4]", got)
	}
}

func TestLargestComponentTie(t *testing.T) {
	g := Build(&osmparser.ParseResult{
		Edges: []osmparser.RawEdge{
			{FromNodeID: 1, ToNodeID: 2, Meters: 1},
			{FromNodeID: 3, ToNodeID: 4, Meters: 1},
		},
	})
	if got := LargestComponent(g); !slices.Equal(got, []uint32{0, 1}) {
		t.Errorf("LargestComponent = %v, want the component of node 0", got)
	}
}

func TestFilterToComponent(t *testing.T) {
	g := twoIslands()
	sub := FilterToComponent(g, LargestComponent(g))
	checkCSR(t, sub)

	if sub.NumNodes != 3 || sub.NumEdges != 3 {
		t.Fatalf("got %d nodes, %d edges, want 3, 3", sub.NumNodes, sub.NumEdges)
	}
	if !slices.Equal(sub.NodeID, []osm.NodeID{10, 20, 30}) {
		t.Errorf("NodeID = %v, want [10 20 30]", sub.NodeID)
	}
	if sub.NodeLat[0] != 19.0 || sub.NodeLon[2] != 73.0 {
		t.Error("coordinates not carried over")
	}
	if w := weightOf(sub, 2, 0); w != 300 {
		t.Errorf("30->10 = %d, want 300", w)
	}

	var total uint32
	for _, w := range sub.Weight {
		total += w
	}
	if total != 600 {
		t.Errorf("total weight = %d, want 600", total)
	}
}

func TestFilterToComponentEmptyGraph(t *testing.T) {
	g := &Graph{}
	if nodes := LargestComponent(g); nodes != nil {
		t.Errorf("expected nil for empty graph, got %v", nodes)
	}
	sub := FilterToComponent(g, nil)
	if sub.NumNodes != 0 || sub.NumEdges != 0 {
		t.Errorf("expected empty graph, got %d nodes, %d edges", sub.NumNodes, sub.NumEdges)
	}
}
