package network

import "sort"

// unionFind is a disjoint-set over city indices with path halving and
// union by rank.
type unionFind struct {
	parent []int
	rank   []byte
	size   []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	size := make([]int, n)
	for i := range n {
		parent[i] = i
		size[i] = 1
	}
	return &unionFind{
		parent: parent,
		rank:   make([]byte, n),
		size:   size,
	}
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(x, y int) {
	rx, ry := uf.find(x), uf.find(y)
	if rx == ry {
		return
	}
	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
}

// Components groups cities that can reach each other by road.
// Groups are ordered largest first, ties by smallest member; members ascend.
// A city in a different group than a disaster city can never donate to it.
func (n *Network) Components() [][]int {
	if len(n.cities) == 0 {
		return nil
	}

	uf := newUnionFind(len(n.cities))
	for _, r := range n.roads {
		uf.union(r.From, r.To)
	}

	byRoot := make(map[int][]int)
	var roots []int
	for i := range n.cities {
		root := uf.find(i)
		if _, ok := byRoot[root]; !ok {
			roots = append(roots, root)
		}
		byRoot[root] = append(byRoot[root], i)
	}

	groups := make([][]int, 0, len(roots))
	for _, root := range roots {
		groups = append(groups, byRoot[root])
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return len(groups[i]) > len(groups[j])
	})
	return groups
}
