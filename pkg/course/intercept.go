package course

import (
	"math"

	"github.com/mshroyer/coursepointer/pkg/geo"
	"github.com/mshroyer/coursepointer/pkg/util"
)

// segmentPaddingFactor widens the spatial index's bounding boxes beyond the
// interception threshold. The index pads corners diagonally, giving sqrt(2)
// less per axis, and the padding itself is a spherical approximation, so a
// box padded by exactly the threshold could clip a true intercept.
const segmentPaddingFactor = math.Sqrt2 * 1.1

// intercept is one qualifying interception of the course by a waypoint.
type intercept struct {
	// point is the position on the course closest to the waypoint.
	point geo.Coordinate

	// separation is the geodesic distance from the waypoint to point.
	separation float64

	// courseDistance is the distance along the whole course at which point
	// appears.
	courseDistance float64

	segment int
}

// findIntercepts returns the waypoint's qualifying interceptions of the
// course, one per contiguous run of segments within the threshold, in course
// order. A run's representative is the segment with the smallest separation,
// so that a course passing the waypoint once yields one intercept even when
// several consecutive segments are nearby.
func (sc *segmentedCourse) findIntercepts(waypoint geo.Coordinate, thresholdMeter float64) ([]intercept, error) {
	var (
		intercepts []intercept
		run        *intercept
		prevSeg    = -2
	)
	flush := func() {
		if run != nil {
			intercepts = append(intercepts, *run)
			run = nil
		}
	}

	for _, seg := range sc.index.Search(waypoint) {
		if seg != prevSeg+1 {
			// A gap in the candidate segments means every segment in
			// between was beyond the index padding, which exceeds the
			// threshold. The run is broken either way.
			flush()
		}
		prevSeg = seg

		in, ok, err := sc.solveIntercept(seg, waypoint, thresholdMeter)
		if err != nil {
			return nil, err
		}
		if !ok {
			flush()
			continue
		}
		if run == nil || in.separation < run.separation {
			inCopy := in
			run = &inCopy
		}
	}
	flush()
	return intercepts, nil
}

// solveIntercept finds the waypoint's closest approach to one segment. The
// second return value reports whether the approach is within the threshold.
func (sc *segmentedCourse) solveIntercept(seg int, waypoint geo.Coordinate, thresholdMeter float64) (intercept, bool, error) {
	start := sc.records[seg].Point
	end := sc.records[seg+1].Point

	closest := geo.ProjectPointToSegment(start, end, waypoint)
	separation, err := geo.VincentyInverse(waypoint, closest)
	if err != nil {
		return intercept{}, false, err
	}
	if math.IsNaN(separation) {
		return intercept{}, false, util.WrapErrorf(nil, util.ErrGeodesic,
			"separation distance is NaN at segment %d", seg)
	}
	if separation > thresholdMeter {
		return intercept{}, false, nil
	}

	offset, err := geo.VincentyInverse(start, closest)
	if err != nil {
		return intercept{}, false, err
	}
	// The closest point lies on the segment, but its geodesic offset can
	// come out a hair past the segment's geodesic length.
	offset = math.Min(offset, sc.segmentLengths[seg])

	return intercept{
		point:          closest,
		separation:     separation,
		courseDistance: sc.records[seg].CumulativeDistance + offset,
		segment:        seg,
	}, true, nil
}
