// Package importer turns a parsed OpenStreetMap extract into a seed network:
// one city per settlement and one road per pair of settlements joined by a
// road that passes through no other settlement.
package importer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"
	log "github.com/sirupsen/logrus"

	"github.com/Ashish-Rautela/Disaster-Managment/pkg/config"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/geo"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/graph"
	osmparser "github.com/Ashish-Rautela/Disaster-Managment/pkg/osm"
)

// Options tunes an import. Zero fields take the defaults below.
type Options struct {
	Workers       int     // search goroutines; defaults to GOMAXPROCS
	MaxSnapMeters float64 // settlements further than this from any road are dropped
	MaxRoadMeters uint32  // longest road kept between two settlements; 0 = unlimited
	Resources     int     // stock given to every imported city
	MaxCities     int     // keep only the most populous settlements; 0 = all
}

const (
	DefaultMaxSnapMeters = 2000
	DefaultResources     = 500
)

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.MaxSnapMeters <= 0 {
		o.MaxSnapMeters = DefaultMaxSnapMeters
	}
	if o.Resources <= 0 {
		o.Resources = DefaultResources
	}
	return o
}

// ErrNoSettlements is returned when nothing could be snapped to the road graph.
var ErrNoSettlements = errors.New("importer: no settlements on the road network")

type snapped struct {
	osmparser.Settlement
	node uint32
}

type pairKey struct{ a, b int }

// Import builds a seed from a parse result. Cities are ordered by descending
// population then name; roads by endpoint order.
func Import(ctx context.Context, result *osmparser.ParseResult, opts Options) (config.Seed, error) {
	opts = opts.withDefaults()

	g := graph.Build(result)
	log.Infof("Road graph: %d nodes, %d edges", g.NumNodes, g.NumEdges)
	if g.NumNodes == 0 {
		return config.Seed{}, ErrNoSettlements
	}
	g = graph.FilterToComponent(g, graph.LargestComponent(g))
	log.Infof("Largest component: %d nodes, %d edges", g.NumNodes, g.NumEdges)

	places := snap(g, result.Settlements, opts.MaxSnapMeters)
	if len(places) == 0 {
		return config.Seed{}, ErrNoSettlements
	}
	log.Infof("Snapped %d of %d settlements", len(places), len(result.Settlements))
	if opts.MaxCities > 0 && len(places) > opts.MaxCities {
		log.Warnf("Keeping the %d most populous of %d settlements", opts.MaxCities, len(places))
		places = places[:opts.MaxCities]
	}

	targets := make([]int32, g.NumNodes)
	for i := range targets {
		targets[i] = graph.NoTarget
	}
	for i, p := range places {
		targets[p.node] = int32(i)
	}

	roads, err := searchAll(ctx, g, places, targets, opts)
	if err != nil {
		return config.Seed{}, err
	}

	seed := config.Seed{Cities: make([]config.SeedCity, len(places))}
	for i, p := range places {
		seed.Cities[i] = config.SeedCity{
			Name:       p.Name,
			Population: p.Population,
			Resources:  opts.Resources,
			Lat:        p.Lat,
			Lon:        p.Lon,
		}
	}

	keys := make([]pairKey, 0, len(roads))
	for k := range roads {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		return keys[i].b < keys[j].b
	})
	for _, k := range keys {
		seed.Roads = append(seed.Roads, config.SeedRoad{
			From:       places[k.a].Name,
			To:         places[k.b].Name,
			DistanceKm: geo.Km(float64(roads[k])),
		})
	}
	log.Infof("Import produced %d cities, %d roads", len(seed.Cities), len(seed.Roads))
	return seed, nil
}

// snap attaches every settlement to its nearest road node. When two
// settlements share a node or a name, the more populous one is kept.
func snap(g *graph.Graph, settlements []osmparser.Settlement, maxMeters float64) []snapped {
	ix := geo.NewIndex()
	for i := uint32(0); i < g.NumNodes; i++ {
		ix.Insert(int(i), g.NodeLat[i], g.NodeLon[i])
	}

	ordered := make([]osmparser.Settlement, len(settlements))
	copy(ordered, settlements)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Population != ordered[j].Population {
			return ordered[i].Population > ordered[j].Population
		}
		return ordered[i].Name < ordered[j].Name
	})

	byNode := make(map[uint32]bool)
	byName := make(map[string]bool)
	var out []snapped
	var far, dup int
	for _, s := range ordered {
		id, meters, ok := ix.Nearest(s.Lat, s.Lon)
		if !ok {
			break
		}
		if meters > maxMeters {
			far++
			log.Debugf("Dropping %s: %.0f m from the nearest road", s.Name, meters)
			continue
		}
		node := uint32(id)
		if byNode[node] || byName[s.Name] {
			dup++
			continue
		}
		byNode[node] = true
		byName[s.Name] = true
		out = append(out, snapped{Settlement: s, node: node})
	}
	if far > 0 {
		log.Warnf("Dropped %d settlements further than %.0f m from a road", far, maxMeters)
	}
	if dup > 0 {
		log.Warnf("Dropped %d settlements sharing a road node or name with a larger one", dup)
	}
	return out
}

// searchAll runs one NeighbourSearch per settlement on an ants pool and
// returns the shortest road found for every unordered settlement pair.
func searchAll(ctx context.Context, g *graph.Graph, places []snapped, targets []int32, opts Options) (map[pairKey]uint32, error) {
	var (
		mu    sync.Mutex
		roads = make(map[pairKey]uint32)
		wg    sync.WaitGroup
	)
	states := sync.Pool{New: func() any { return graph.NewSearchState(g.NumNodes) }}

	pool, err := ants.NewPoolWithFunc(opts.Workers, func(arg interface{}) {
		defer wg.Done()
		from := arg.(int)
		if ctx.Err() != nil {
			return
		}
		s := states.Get().(*graph.SearchState)
		hits := graph.NeighbourSearch(g, s, targets, places[from].node, opts.MaxRoadMeters)
		states.Put(s)

		mu.Lock()
		defer mu.Unlock()
		for _, h := range hits {
			k := pairKey{from, h.Target}
			if k.a > k.b {
				k.a, k.b = k.b, k.a
			}
			if cur, ok := roads[k]; !ok || h.Meters < cur {
				roads[k] = h.Meters
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create search pool: %w", err)
	}
	defer pool.Release()

	for i := range places {
		wg.Add(1)
		if err := pool.Invoke(i); err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("submit search %d: %w", i, err)
		}
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return roads, nil
}
