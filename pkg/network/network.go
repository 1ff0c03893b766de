package network

import (
	"errors"
	"fmt"
)

// Errors returned by Network mutations. All of them are detected before any
// state changes.
var (
	ErrCapacityExceeded = errors.New("network: capacity exceeded")
	ErrInvalidIndex     = errors.New("network: invalid city index")
	ErrInvalidCity      = errors.New("network: invalid city")
	ErrDuplicateCity    = errors.New("network: duplicate city name")
	ErrInvalidDistance  = errors.New("network: invalid distance")
	ErrInsufficient     = errors.New("network: insufficient resources")
)

// MaxDamage is the top of the damage scale.
const MaxDamage = 10

// MaxDistance is the longest road accepted, in km. A path through any
// realistic number of cities stays far below the int range.
const MaxDistance = 1_000_000

// CityInfo holds the attributes supplied when a city is added.
type CityInfo struct {
	Name       string
	Population int
	Damage     int
	Resources  int
	Lat        float64
	Lon        float64
}

// City is a settlement in the network. ID is its stable index.
type City struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Population int     `json:"population"`
	Damage     int     `json:"damage"`
	Resources  int     `json:"resources"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

// Arc is one traversal direction of a road.
type Arc struct {
	To       int
	Distance int
}

// Edge is an undirected road between two cities, distance in km.
type Edge struct {
	From     int `json:"from"`
	To       int `json:"to"`
	Distance int `json:"distance"`
}

// Network owns the cities and the symmetric adjacency between them.
// Adjacency is one growable slice per city, traversed in insertion order.
type Network struct {
	maxCities int
	maxRoads  int // 0 = unlimited
	cities    []City
	adj       [][]Arc
	roads     []Edge
}

// New creates an empty network that accepts at most maxCities cities and,
// when maxRoads > 0, at most maxRoads roads.
func New(maxCities, maxRoads int) *Network {
	return &Network{
		maxCities: maxCities,
		maxRoads:  maxRoads,
		cities:    make([]City, 0, maxCities),
		adj:       make([][]Arc, 0, maxCities),
	}
}

// AddCity appends a city and returns its index.
func (n *Network) AddCity(info CityInfo) (int, error) {
	if len(n.cities) >= n.maxCities {
		return -1, fmt.Errorf("%w: %d cities", ErrCapacityExceeded, n.maxCities)
	}
	if info.Name == "" {
		return -1, fmt.Errorf("%w: empty name", ErrInvalidCity)
	}
	if info.Damage < 0 || info.Damage > MaxDamage {
		return -1, fmt.Errorf("%w: damage %d outside 0-%d", ErrInvalidCity, info.Damage, MaxDamage)
	}
	if info.Resources < 0 {
		return -1, fmt.Errorf("%w: negative resources", ErrInvalidCity)
	}
	if _, ok := n.FindByName(info.Name); ok {
		return -1, fmt.Errorf("%w: %q", ErrDuplicateCity, info.Name)
	}

	id := len(n.cities)
	n.cities = append(n.cities, City{
		ID:         id,
		Name:       info.Name,
		Population: info.Population,
		Damage:     info.Damage,
		Resources:  info.Resources,
		Lat:        info.Lat,
		Lon:        info.Lon,
	})
	n.adj = append(n.adj, nil)
	return id, nil
}

// AddEdge adds a road between u and v. Both directions get the same weight.
// Parallel roads are kept as separate arcs.
func (n *Network) AddEdge(u, v, distance int) error {
	if !n.valid(u) || !n.valid(v) {
		return fmt.Errorf("%w: %d-%d (have %d cities)", ErrInvalidIndex, u, v, len(n.cities))
	}
	if distance < 0 || distance > MaxDistance {
		return fmt.Errorf("%w: %d outside 0-%d", ErrInvalidDistance, distance, MaxDistance)
	}
	if n.maxRoads > 0 && len(n.roads) >= n.maxRoads {
		return fmt.Errorf("%w: %d roads", ErrCapacityExceeded, n.maxRoads)
	}

	n.adj[u] = append(n.adj[u], Arc{To: v, Distance: distance})
	n.adj[v] = append(n.adj[v], Arc{To: u, Distance: distance})
	n.roads = append(n.roads, Edge{From: u, To: v, Distance: distance})
	return nil
}

// FindByName returns the index of the named city. Linear scan.
func (n *Network) FindByName(name string) (int, bool) {
	for i := range n.cities {
		if n.cities[i].Name == name {
			return i, true
		}
	}
	return -1, false
}

// City returns a copy of the city at id.
func (n *Network) City(id int) (City, error) {
	if !n.valid(id) {
		return City{}, fmt.Errorf("%w: %d", ErrInvalidIndex, id)
	}
	return n.cities[id], nil
}

// Cities returns a copy of all cities in index order.
func (n *Network) Cities() []City {
	out := make([]City, len(n.cities))
	copy(out, n.cities)
	return out
}

// Name returns the name of city id, or "" if id is out of range.
func (n *Network) Name(id int) string {
	if !n.valid(id) {
		return ""
	}
	return n.cities[id].Name
}

// Len returns the number of cities.
func (n *Network) Len() int { return len(n.cities) }

// Capacity returns the maximum number of cities.
func (n *Network) Capacity() int { return n.maxCities }

// Roads returns a copy of all roads in insertion order.
func (n *Network) Roads() []Edge {
	out := make([]Edge, len(n.roads))
	copy(out, n.roads)
	return out
}

// Arcs returns the outgoing arcs of u. The slice must not be modified.
func (n *Network) Arcs(u int) []Arc {
	if !n.valid(u) {
		return nil
	}
	return n.adj[u]
}

// Withdraw removes amount units from the resources of city id.
func (n *Network) Withdraw(id, amount int) error {
	if !n.valid(id) {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, id)
	}
	if amount < 0 || amount > n.cities[id].Resources {
		return fmt.Errorf("%w: %s has %d, asked %d", ErrInsufficient, n.cities[id].Name, n.cities[id].Resources, amount)
	}
	n.cities[id].Resources -= amount
	return nil
}

func (n *Network) valid(id int) bool {
	return id >= 0 && id < len(n.cities)
}
