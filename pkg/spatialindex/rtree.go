// Package spatialindex provides an R-tree prefilter over course segments.
//
// Interception testing solves a geodesic problem per segment, which is
// expensive on long courses. The index lets a waypoint query skip every
// segment whose padded bounding box cannot contain an intercept.
package spatialindex

import (
	"math"
	"sort"

	"github.com/tidwall/rtree"
	"go.uber.org/zap"

	"github.com/mshroyer/coursepointer/pkg/geo"
)

type SegmentIndex struct {
	tr *rtree.RTreeG[int]
}

func NewSegmentIndex() *SegmentIndex {
	var tr rtree.RTreeG[int]
	return &SegmentIndex{
		tr: &tr,
	}
}

// Build indexes the segments between consecutive points. Each segment's
// bounding box is padded by paddingMeter on every side, so a query point
// within paddingMeter of a segment is guaranteed to hit its box.
func (si *SegmentIndex) Build(points []geo.Coordinate, paddingMeter float64, log *zap.Logger) {
	for i := 0; i+1 < len(points); i++ {
		from := points[i]
		to := points[i+1]

		lowerFromLat, lowerFromLon := geo.DestinationPoint(from.GetLat(), from.GetLon(), 225, paddingMeter)
		upperFromLat, upperFromLon := geo.DestinationPoint(from.GetLat(), from.GetLon(), 45, paddingMeter)

		lowerToLat, lowerToLon := geo.DestinationPoint(to.GetLat(), to.GetLon(), 225, paddingMeter)
		upperToLat, upperToLon := geo.DestinationPoint(to.GetLat(), to.GetLon(), 45, paddingMeter)

		minLat := math.Min(lowerFromLat, lowerToLat)
		minLon := math.Min(lowerFromLon, lowerToLon)
		maxLat := math.Max(upperFromLat, upperToLat)
		maxLon := math.Max(upperFromLon, upperToLon)

		si.tr.Insert([2]float64{minLon, minLat}, [2]float64{maxLon, maxLat}, i)
	}
	log.Debug("built segment spatial index", zap.Int("segments", max(len(points)-1, 0)))
}

// Search returns the indices of all segments whose padded bounding box
// contains the query point, in ascending order.
func (si *SegmentIndex) Search(q geo.Coordinate) []int {
	results := make([]int, 0, 10)
	si.tr.Search([2]float64{q.GetLon(), q.GetLat()}, [2]float64{q.GetLon(), q.GetLat()},
		func(min, max [2]float64, data int) bool {
			results = append(results, data)
			return true
		})

	// rtree search order follows the tree, not insertion order. Contiguity
	// of segment indices matters to callers.
	sort.Ints(results)
	return results
}
