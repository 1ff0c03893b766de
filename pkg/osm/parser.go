package osm

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	log "github.com/sirupsen/logrus"

	"github.com/Ashish-Rautela/Disaster-Managment/pkg/geo"
)

// RawEdge represents a directed road segment parsed from OSM data.
type RawEdge struct {
	FromNodeID osm.NodeID
	ToNodeID   osm.NodeID
	Meters     uint32
}

// Settlement is a named place node.
type Settlement struct {
	NodeID     osm.NodeID
	Name       string
	Place      string
	Population int
	Lat        float64
	Lon        float64
}

// ParseResult holds the output of parsing an OSM PBF file.
type ParseResult struct {
	Edges       []RawEdge
	Settlements []Settlement
	NodeLat     map[osm.NodeID]float64
	NodeLon     map[osm.NodeID]float64
}

// carHighways lists highway tag values a relief convoy can use.
// Service and living streets are left out; they never link settlements.
var carHighways = map[string]bool{
	"motorway":       true,
	"motorway_link":  true,
	"trunk":          true,
	"trunk_link":     true,
	"primary":        true,
	"primary_link":   true,
	"secondary":      true,
	"secondary_link": true,
	"tertiary":       true,
	"tertiary_link":  true,
	"unclassified":   true,
	"residential":    true,
}

// settlementPlaces lists the place tag values imported as cities.
var settlementPlaces = map[string]bool{
	"city":    true,
	"town":    true,
	"village": true,
}

// isCarAccessible returns true if the way is drivable by car.
func isCarAccessible(tags osm.Tags) bool {
	hw := tags.Find("highway")
	if !carHighways[hw] {
		return false
	}
	if tags.Find("area") == "yes" {
		return false
	}
	access := tags.Find("access")
	if access == "no" || access == "private" {
		return false
	}
	if tags.Find("motor_vehicle") == "no" {
		return false
	}
	return true
}

// directionFlags returns (forward, backward) based on highway type and oneway tags.
func directionFlags(tags osm.Tags) (forward, backward bool) {
	forward = true
	backward = true

	hw := tags.Find("highway")
	if hw == "motorway" || hw == "motorway_link" || tags.Find("junction") == "roundabout" {
		backward = false
	}

	switch tags.Find("oneway") {
	case "yes", "true", "1":
		forward = true
		backward = false
	case "-1", "reverse":
		forward = false
		backward = true
	case "no":
		forward = true
		backward = true
	case "reversible":
		// Time-dependent; skip entirely.
		forward = false
		backward = false
	}
	return forward, backward
}

// settlementFrom returns the settlement described by a place node.
func settlementFrom(n *osm.Node) (Settlement, bool) {
	place := n.Tags.Find("place")
	if !settlementPlaces[place] {
		return Settlement{}, false
	}
	name := n.Tags.Find("name:en")
	if name == "" {
		name = n.Tags.Find("name")
	}
	if name == "" {
		return Settlement{}, false
	}
	return Settlement{
		NodeID:     n.ID,
		Name:       name,
		Place:      place,
		Population: parsePopulation(n.Tags.Find("population")),
		Lat:        n.Lat,
		Lon:        n.Lon,
	}, true
}

// parsePopulation reads values such as "12,442,373" or "3 124 458".
// Anything unparseable counts as 0.
func parsePopulation(s string) int {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ',' || r == ' ' || r == '.' || r == '_':
		default:
			return 0
		}
	}
	v, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return v
}

// wayInfo holds parsed way data collected during Pass 1.
type wayInfo struct {
	NodeIDs  []osm.NodeID
	Forward  bool
	Backward bool
}

// BBox defines a geographic bounding box for filtering.
// If non-zero, only edges and settlements inside the box are kept.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// IsZero returns true if the bbox is unset.
func (b BBox) IsZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLng == 0 && b.MaxLng == 0
}

// Contains returns true if the point is inside the bounding box.
func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// ParseOptions configures the OSM parser.
type ParseOptions struct {
	BBox BBox // if non-zero, filter to this bounding box
}

// Parse reads an OSM PBF file and returns road segments and settlements.
// The reader is consumed twice (seeks back to start for the second pass),
// so it must implement io.ReadSeeker.
func Parse(ctx context.Context, rs io.ReadSeeker, opts ...ParseOptions) (*ParseResult, error) {
	var opt ParseOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	// Pass 1: settlements from place nodes, drivable ways.
	referencedNodes := make(map[osm.NodeID]struct{})
	var ways []wayInfo
	var settlements []Settlement

	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipRelations = true

	for scanner.Scan() {
		switch obj := scanner.Object().(type) {
		case *osm.Node:
			s, ok := settlementFrom(obj)
			if !ok {
				continue
			}
			if !opt.BBox.IsZero() && !opt.BBox.Contains(s.Lat, s.Lon) {
				continue
			}
			settlements = append(settlements, s)

		case *osm.Way:
			if !isCarAccessible(obj.Tags) || len(obj.Nodes) < 2 {
				continue
			}
			fwd, bwd := directionFlags(obj.Tags)
			if !fwd && !bwd {
				continue
			}
			nodeIDs := make([]osm.NodeID, len(obj.Nodes))
			for i, wn := range obj.Nodes {
				nodeIDs[i] = wn.ID
				referencedNodes[wn.ID] = struct{}{}
			}
			ways = append(ways, wayInfo{NodeIDs: nodeIDs, Forward: fwd, Backward: bwd})
		}
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 1 (ways, places): %w", err)
	}
	scanner.Close()

	log.Infof("Pass 1 complete: %d ways, %d referenced nodes, %d settlements", len(ways), len(referencedNodes), len(settlements))

	// Pass 2: coordinates for referenced road nodes only.
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	nodeLat := make(map[osm.NodeID]float64, len(referencedNodes))
	nodeLon := make(map[osm.NodeID]float64, len(referencedNodes))

	scanner = osmpbf.New(ctx, rs, 1)
	scanner.SkipWays = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, needed := referencedNodes[n.ID]; !needed {
			continue
		}
		nodeLat[n.ID] = n.Lat
		nodeLon[n.ID] = n.Lon
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	scanner.Close()

	log.Infof("Pass 2 complete: %d node coordinates collected", len(nodeLat))

	return &ParseResult{
		Edges:       buildEdges(ways, nodeLat, nodeLon, opt.BBox),
		Settlements: settlements,
		NodeLat:     nodeLat,
		NodeLon:     nodeLon,
	}, nil
}

// buildEdges splits ways into directed segments weighted in meters.
func buildEdges(ways []wayInfo, nodeLat, nodeLon map[osm.NodeID]float64, bbox BBox) []RawEdge {
	var edges []RawEdge
	var skippedEdges, bboxFiltered int

	for _, w := range ways {
		for i := 0; i < len(w.NodeIDs)-1; i++ {
			fromID := w.NodeIDs[i]
			toID := w.NodeIDs[i+1]

			fromLat, fromOk := nodeLat[fromID]
			fromLon := nodeLon[fromID]
			toLat, toOk := nodeLat[toID]
			toLon := nodeLon[toID]
			if !fromOk || !toOk {
				skippedEdges++
				continue
			}
			if !bbox.IsZero() && (!bbox.Contains(fromLat, fromLon) || !bbox.Contains(toLat, toLon)) {
				bboxFiltered++
				continue
			}

			meters := uint32(math.Round(geo.Haversine(fromLat, fromLon, toLat, toLon)))
			if meters == 0 {
				meters = 1 // avoid zero-weight edges
			}
			if w.Forward {
				edges = append(edges, RawEdge{FromNodeID: fromID, ToNodeID: toID, Meters: meters})
			}
			if w.Backward {
				edges = append(edges, RawEdge{FromNodeID: toID, ToNodeID: fromID, Meters: meters})
			}
		}
	}

	if skippedEdges > 0 {
		log.Warnf("Skipped %d edges due to missing node coordinates", skippedEdges)
	}
	if bboxFiltered > 0 {
		log.Infof("Filtered %d edges outside bounding box", bboxFiltered)
	}
	log.Infof("Built %d directed edges", len(edges))
	return edges
}
