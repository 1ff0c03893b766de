package graph

import "math"

// NoTarget marks road nodes that are not a settlement in a target table.
const NoTarget = -1

// MinHeap is a concrete-typed min-heap for the road search priority queue.
// Stale entries are skipped on pop instead of decreasing keys.
type MinHeap struct {
	items []PQItem
}

// PQItem is a priority queue entry.
type PQItem struct {
	Node uint32
	Dist uint32
}

func (h *MinHeap) Len() int { return len(h.items) }

func (h *MinHeap) Push(node, dist uint32) {
	h.items = append(h.items, PQItem{node, dist})
	h.siftUp(len(h.items) - 1)
}

func (h *MinHeap) Pop() PQItem {
	n := len(h.items)
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return item
}

func (h *MinHeap) Reset() {
	h.items = h.items[:0]
}

func (h *MinHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[i].Dist >= h.items[parent].Dist {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *MinHeap) siftDown(i int) {
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
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}

// SearchState holds per-search scratch space. It is reset between searches
// by clearing only the touched entries, so one state can serve many searches
// over the same graph.
type SearchState struct {
	Dist    []uint32
	Touched []uint32
	PQ      MinHeap
}

// NewSearchState creates a state for a graph with n nodes.
func NewSearchState(n uint32) *SearchState {
	dist := make([]uint32, n)
	for i := range dist {
		dist[i] = math.MaxUint32
	}
	return &SearchState{
		Dist:    dist,
		Touched: make([]uint32, 0, 1024),
		PQ:      MinHeap{items: make([]PQItem, 0, 256)},
	}
}

// Reset clears only the touched entries for fast reuse.
func (s *SearchState) Reset() {
	for _, node := range s.Touched {
		s.Dist[node] = math.MaxUint32
	}
	s.Touched = s.Touched[:0]
	s.PQ.Reset()
}

func (s *SearchState) relax(node, dist uint32) {
	if s.Dist[node] == math.MaxUint32 {
		s.Touched = append(s.Touched, node)
	}
	s.Dist[node] = dist
	s.PQ.Push(node, dist)
}

// Hit is a settlement reached by a NeighbourSearch.
type Hit struct {
	Target int
	Meters uint32
}

// NeighbourSearch runs Dijkstra from source and reports every settlement
// reachable without passing through another settlement. targets maps road
// nodes to settlement indices (NoTarget elsewhere); reached settlements are
// recorded but not expanded. The search stops at maxMeters (0 = no limit).
func NeighbourSearch(g *Graph, s *SearchState, targets []int32, source uint32, maxMeters uint32) []Hit {
	s.Reset()
	if maxMeters == 0 {
		maxMeters = math.MaxUint32 - 1
	}

	var hits []Hit
	s.relax(source, 0)
	for s.PQ.Len() > 0 {
		item := s.PQ.Pop()
		if item.Dist > s.Dist[item.Node] {
			continue // stale
		}
		if item.Node != source && targets[item.Node] != NoTarget {
			hits = append(hits, Hit{Target: int(targets[item.Node]), Meters: item.Dist})
			continue
		}

		start, end := g.EdgesFrom(item.Node)
		for e := start; e < end; e++ {
			v := g.Head[e]
			nd := item.Dist + g.Weight[e]
			if nd < item.Dist || nd > maxMeters {
				continue // overflow or out of range
			}
			if nd < s.Dist[v] {
				s.relax(v, nd)
			}
		}
	}
	return hits
}
