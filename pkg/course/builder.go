package course

import (
	"sort"

	"go.uber.org/zap"

	"github.com/mshroyer/coursepointer/pkg"
	"github.com/mshroyer/coursepointer/pkg/geo"
	"github.com/mshroyer/coursepointer/pkg/spatialindex"
	"github.com/mshroyer/coursepointer/pkg/util"
)

// Options controls how waypoints intercept courses.
type Options struct {
	// ThresholdMeter is the separation below which a waypoint is considered
	// to intercept the course. Inclusive.
	ThresholdMeter float64

	// Strategy picks among duplicate intercepts of a single waypoint.
	Strategy Strategy
}

func DefaultOptions() Options {
	return Options{
		ThresholdMeter: pkg.DefaultThresholdMeter,
		Strategy:       StrategyNearest,
	}
}

// SetBuilder accumulates courses and waypoints, then resolves waypoints into
// course points in Build. All geodesic calculations are deferred to Build.
type SetBuilder struct {
	options   Options
	builders  []*CourseBuilder
	waypoints []Waypoint
	logger    *zap.Logger
}

func NewSetBuilder(options Options, logger *zap.Logger) *SetBuilder {
	return &SetBuilder{
		options: options,
		logger:  logger,
	}
}

// AddCourse starts a new course and returns its builder.
func (sb *SetBuilder) AddCourse() *CourseBuilder {
	cb := newCourseBuilder()
	sb.builders = append(sb.builders, cb)
	return cb
}

// CurrentCourse returns the most recently added course builder.
func (sb *SetBuilder) CurrentCourse() (*CourseBuilder, error) {
	if len(sb.builders) == 0 {
		return nil, util.WrapErrorf(nil, util.ErrNoRoute, "no course has been added")
	}
	return sb.builders[len(sb.builders)-1], nil
}

func (sb *SetBuilder) AddWaypoint(w Waypoint) *SetBuilder {
	sb.waypoints = append(sb.waypoints, w)
	return sb
}

func (sb *SetBuilder) NumCourses() int {
	return len(sb.builders)
}

// Build segments every course, resolves waypoints against each one, and
// returns the finished courses.
func (sb *SetBuilder) Build() ([]*Course, error) {
	courses := make([]*Course, 0, len(sb.builders))
	for _, cb := range sb.builders {
		sc, err := cb.segment(sb.options.ThresholdMeter, sb.logger)
		if err != nil {
			return nil, err
		}
		if err := sb.processWaypoints(sc); err != nil {
			return nil, err
		}
		courses = append(courses, sc.build(sb.logger))
	}
	return courses, nil
}

func (sb *SetBuilder) processWaypoints(sc *segmentedCourse) error {
	for _, waypoint := range sb.waypoints {
		intercepts, err := sc.findIntercepts(waypoint.Point, sb.options.ThresholdMeter)
		if err != nil {
			return err
		}
		sb.logger.Debug("processed waypoint",
			zap.String("name", waypoint.Name),
			zap.Int("intercepts", len(intercepts)))
		if len(intercepts) == 0 {
			continue
		}

		switch sb.options.Strategy {
		case StrategyNearest:
			best := intercepts[0]
			for _, in := range intercepts[1:] {
				if in.separation < best.separation {
					best = in
				}
			}
			sc.addCoursePoint(best, waypoint)

		case StrategyFirst:
			sc.addCoursePoint(intercepts[0], waypoint)

		case StrategyAll:
			for _, in := range intercepts {
				sc.addCoursePoint(in, waypoint)
			}
		}
	}
	return nil
}

// CourseBuilder composes a single course. Obtain one from
// SetBuilder.AddCourse.
type CourseBuilder struct {
	routePoints       []Record
	name              string
	numRepeatedPoints int
}

func newCourseBuilder() *CourseBuilder {
	return &CourseBuilder{}
}

func (cb *CourseBuilder) WithName(name string) *CourseBuilder {
	cb.name = name
	return cb
}

// AddRoutePoint appends a point in order of traversal. A point identical to
// its predecessor would form a zero-length segment, so it is skipped.
func (cb *CourseBuilder) AddRoutePoint(point geo.Coordinate, ele float64, hasEle bool) *CourseBuilder {
	if n := len(cb.routePoints); n > 0 && cb.routePoints[n-1].Point == point {
		cb.numRepeatedPoints++
		return cb
	}
	cb.routePoints = append(cb.routePoints, Record{
		Point:  point,
		Ele:    ele,
		HasEle: hasEle,
	})
	return cb
}

func (cb *CourseBuilder) NumRoutePoints() int {
	return len(cb.routePoints)
}

// segment solves the inverse geodesic problem between adjacent points,
// accumulating cumulative distances, and indexes the segments for waypoint
// queries.
func (cb *CourseBuilder) segment(thresholdMeter float64, logger *zap.Logger) (*segmentedCourse, error) {
	sc := &segmentedCourse{
		records: make([]Record, len(cb.routePoints)),
		name:    cb.name,
		skipped: cb.numRepeatedPoints,
	}
	copy(sc.records, cb.routePoints)

	var cumulative float64
	for i := 0; i+1 < len(sc.records); i++ {
		length, err := geo.VincentyInverse(sc.records[i].Point, sc.records[i+1].Point)
		if err != nil {
			return nil, err
		}
		sc.records[i].CumulativeDistance = cumulative
		sc.segmentLengths = append(sc.segmentLengths, length)
		cumulative += length
	}
	if n := len(sc.records); n > 0 {
		sc.records[n-1].CumulativeDistance = cumulative
	}

	points := make([]geo.Coordinate, len(sc.records))
	for i, r := range sc.records {
		points[i] = r.Point
	}
	sc.index = spatialindex.NewSegmentIndex()
	sc.index.Build(points, thresholdMeter*segmentPaddingFactor, logger)

	return sc, nil
}

// segmentedCourse is the intermediate stage between a CourseBuilder and a
// Course: segments and distances are known, and course points are being
// gathered.
type segmentedCourse struct {
	records        []Record
	segmentLengths []float64
	index          *spatialindex.SegmentIndex
	name           string
	points         []CoursePoint
	skipped        int
}

func (sc *segmentedCourse) addCoursePoint(in intercept, waypoint Waypoint) {
	sc.points = append(sc.points, CoursePoint{
		Point:    in.point,
		Distance: in.courseDistance,
		Type:     waypoint.Type,
		Name:     waypoint.Name,
	})
}

func (sc *segmentedCourse) build(logger *zap.Logger) *Course {
	logger.Info("building course",
		zap.String("name", sc.name),
		zap.Int("records", len(sc.records)),
		zap.Int("coursePoints", len(sc.points)),
		zap.Int("repeatedPointsSkipped", sc.skipped))

	sort.SliceStable(sc.points, func(i, j int) bool {
		return sc.points[i].Distance < sc.points[j].Distance
	})

	return &Course{
		Records: sc.records,
		Points:  sc.points,
		Name:    sc.name,
	}
}
