package routing

import (
	"errors"
	"fmt"
	"math"

	"github.com/Ashish-Rautela/Disaster-Managment/pkg/network"
)

// Unreachable is the distance of a city that has no road path from the source.
const Unreachable = math.MaxInt

// NoParent marks the source and unreachable cities in Tree.Parent.
const NoParent = -1

// ErrInvalidSource is returned when the source index is out of range.
var ErrInvalidSource = errors.New("routing: invalid source")

// Graph is the adjacency view a search needs. *network.Network satisfies it.
type Graph interface {
	Len() int
	Arcs(u int) []network.Arc
}

// HeapItem is an indexed heap entry.
type HeapItem struct {
	Vertex int
	Dist   int
}

// IndexedMinHeap is a binary min-heap keyed by distance that also tracks the
// heap position of every vertex, so DecreaseKey runs in O(log V).
// pos[v] is -1 once v has been extracted or if it was never pushed.
type IndexedMinHeap struct {
	items []HeapItem
	pos   []int
}

// NewIndexedMinHeap creates a heap for vertices 0..n-1.
func NewIndexedMinHeap(n int) *IndexedMinHeap {
	pos := make([]int, n)
	for i := range pos {
		pos[i] = -1
	}
	return &IndexedMinHeap{
		items: make([]HeapItem, 0, n),
		pos:   pos,
	}
}

func (h *IndexedMinHeap) Len() int { return len(h.items) }

// Contains reports whether v is currently in the heap.
func (h *IndexedMinHeap) Contains(v int) bool {
	return v >= 0 && v < len(h.pos) && h.pos[v] >= 0
}

// Push inserts v with the given distance. v must not already be in the heap.
func (h *IndexedMinHeap) Push(v, dist int) {
	h.items = append(h.items, HeapItem{Vertex: v, Dist: dist})
	h.pos[v] = len(h.items) - 1
	h.siftUp(len(h.items) - 1)
}

// ExtractMin removes and returns the entry with the smallest distance.
func (h *IndexedMinHeap) ExtractMin() (HeapItem, bool) {
	n := len(h.items)
	if n == 0 {
		return HeapItem{}, false
	}
	item := h.items[0]
	h.swap(0, n-1)
	h.items = h.items[:n-1]
	h.pos[item.Vertex] = -1
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return item, true
}

// DecreaseKey lowers the distance of v and restores heap order.
// It is a no-op if v is not in the heap or dist is not smaller.
func (h *IndexedMinHeap) DecreaseKey(v, dist int) {
	if !h.Contains(v) {
		return
	}
	i := h.pos[v]
	if dist >= h.items[i].Dist {
		return
	}
	h.items[i].Dist = dist
	h.siftUp(i)
}

func (h *IndexedMinHeap) swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.pos[h.items[i].Vertex] = i
	h.pos[h.items[j].Vertex] = j
}

func (h *IndexedMinHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[i].Dist >= h.items[parent].Dist {
			break
		}
		h.swap(i, parent)
		i = parent
	}
}

func (h *IndexedMinHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2
		if left < n && h.items[left].Dist < h.items[smallest].Dist {
			smallest = left
		}
		if right < n && h.items[right].Dist < h.items[smallest].Dist {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.swap(i, smallest)
		i = smallest
	}
}

// Tree is the result of a single-source search.
type Tree struct {
	Source int
	Dist   []int // Unreachable if no path
	Parent []int // NoParent for source and unreachable cities
}

// ShortestPaths runs Dijkstra from source over non-negative road distances.
// Every city starts in the heap at Unreachable except the source at 0.
func ShortestPaths(g Graph, source int) (*Tree, error) {
	n := g.Len()
	if source < 0 || source >= n {
		return nil, fmt.Errorf("%w: %d (have %d cities)", ErrInvalidSource, source, n)
	}

	dist := make([]int, n)
	parent := make([]int, n)
	heap := NewIndexedMinHeap(n)
	for v := 0; v < n; v++ {
		dist[v] = Unreachable
		parent[v] = NoParent
		heap.Push(v, Unreachable)
	}
	dist[source] = 0
	heap.DecreaseKey(source, 0)

	for heap.Len() > 0 {
		item, _ := heap.ExtractMin()
		u := item.Vertex
		if dist[u] == Unreachable {
			// Everything left in the heap is unreachable too.
			continue
		}

		for _, arc := range g.Arcs(u) {
			v := arc.To
			if nd := addDist(dist[u], arc.Distance); nd < dist[v] {
				dist[v] = nd
				parent[v] = u
				heap.DecreaseKey(v, nd)
			}
		}
	}

	return &Tree{Source: source, Dist: dist, Parent: parent}, nil
}

// addDist adds a non-negative road length to a reachable distance, saturating
// just below Unreachable so long roads never wrap or read as unreachable.
func addDist(d, w int) int {
	if w > Unreachable-1-d {
		return Unreachable - 1
	}
	return d + w
}
