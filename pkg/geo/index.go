package geo

import (
	"math"

	"github.com/tidwall/rtree"
)

// Index is a nearest-point lookup over integer-keyed coordinates.
// Points are stored as [lon, lat] boxes of zero size.
type Index struct {
	tr rtree.RTreeG[int]
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{}
}

// Insert adds a point. IDs are not checked for uniqueness.
func (ix *Index) Insert(id int, lat, lon float64) {
	p := [2]float64{lon, lat}
	ix.tr.Insert(p, p, id)
}

// Len returns the number of points.
func (ix *Index) Len() int { return ix.tr.Len() }

// Nearest returns the id of the point closest to (lat, lon) and its distance
// in meters. ok is false when the index is empty.
//
// The tree ranks candidates by planar degree distance, which overstates
// east-west separation away from the equator, so candidates are rechecked
// with EquirectangularDist until the planar bound can no longer win.
func (ix *Index) Nearest(lat, lon float64) (id int, meters float64, ok bool) {
	p := [2]float64{lon, lat}
	best := math.Inf(1)
	ix.tr.Nearby(
		rtree.BoxDist[float64, int](p, p, nil),
		func(pt, _ [2]float64, data int, dist float64) bool {
			planar := math.Sqrt(dist)
			if planar*lowerScale(lat, planar) > best {
				return false
			}
			d := EquirectangularDist(lat, lon, pt[1], pt[0])
			if d < best {
				best, id, ok = d, data, true
			}
			return true
		},
	)
	if !ok {
		return 0, 0, false
	}
	return id, best, true
}

// lowerScale is the fewest meters per planar degree for points within planar
// degrees of lat.
func lowerScale(lat, planar float64) float64 {
	mid := math.Min(math.Abs(lat)+planar/2, 89)
	return degToMeters * math.Cos(mid*math.Pi/180)
}
