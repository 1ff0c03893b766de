package routing

import (
	"errors"
	"fmt"

	"github.com/Ashish-Rautela/Disaster-Managment/pkg/network"
)

// ErrNoRoute is returned when no road path exists between the two cities.
var ErrNoRoute = errors.New("routing: no route found")

// RouteResult is the output of a city-to-city route query.
type RouteResult struct {
	From       string   `json:"from"`
	To         string   `json:"to"`
	DistanceKm int      `json:"distance_km"`
	Cities     []string `json:"cities"`
}

// Reachable reports whether v has a road path from the source.
func (t *Tree) Reachable(v int) bool {
	return v >= 0 && v < len(t.Dist) && t.Dist[v] != Unreachable
}

// Path returns the city indices from the source to dest, inclusive.
func (t *Tree) Path(dest int) ([]int, error) {
	if dest < 0 || dest >= len(t.Dist) {
		return nil, fmt.Errorf("%w: destination %d", ErrInvalidSource, dest)
	}
	if dest != t.Source && t.Parent[dest] == NoParent {
		return nil, ErrNoRoute
	}

	// Walk back to the source, then reverse.
	var path []int
	for v := dest; v != NoParent; v = t.Parent[v] {
		path = append(path, v)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// Route computes the shortest road route between two cities by index.
func Route(net *network.Network, from, to int) (*RouteResult, error) {
	tree, err := ShortestPaths(net, from)
	if err != nil {
		return nil, err
	}
	path, err := tree.Path(to)
	if err != nil {
		return nil, fmt.Errorf("%s to %s: %w", net.Name(from), net.Name(to), err)
	}

	names := make([]string, len(path))
	for i, id := range path {
		names[i] = net.Name(id)
	}
	return &RouteResult{
		From:       net.Name(from),
		To:         net.Name(to),
		DistanceKm: tree.Dist[to],
		Cities:     names,
	}, nil
}
