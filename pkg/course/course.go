// Package course models navigation courses and turns nearby waypoints into
// course points.
//
// A Course holds the records (positions with cumulative distances) that
// define a route, plus the course points derived from waypoints found to lie
// within a threshold distance of it. Courses are assembled through a
// SetBuilder, which runs the geodesic work in its Build step.
package course

import (
	"fmt"
	"strings"

	"github.com/mshroyer/coursepointer/pkg/geo"
	"github.com/mshroyer/coursepointer/pkg/util"
)

// Strategy selects which of a waypoint's intercepts become course points
// when the course passes the waypoint more than once, as on an out-and-back
// route.
type Strategy int

const (
	// StrategyNearest keeps the intercept with the smallest separation from
	// the waypoint.
	StrategyNearest Strategy = iota
	// StrategyFirst keeps the intercept that comes first by distance along
	// the course.
	StrategyFirst
	// StrategyAll keeps every intercept, as duplicate course points.
	StrategyAll
)

func (s Strategy) String() string {
	switch s {
	case StrategyNearest:
		return "nearest"
	case StrategyFirst:
		return "first"
	case StrategyAll:
		return "all"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nearest":
		return StrategyNearest, nil
	case "first":
		return StrategyFirst, nil
	case "all":
		return StrategyAll, nil
	}
	return 0, util.WrapErrorf(nil, util.ErrBadStrategy, "unknown intercept strategy %q", s)
}

// Record is one position along a course, in order of traversal.
type Record struct {
	Point              geo.Coordinate
	Ele                float64
	HasEle             bool
	CumulativeDistance float64 // meters from the start of the course
}

// Waypoint is a candidate course point. Unlike a CoursePoint it is not known
// to lie near the course and has no course distance yet.
type Waypoint struct {
	Point geo.Coordinate
	Type  PointType
	Name  string
}

// CoursePoint is a waypoint that intercepted the course.
type CoursePoint struct {
	// Point is the position of the interception, on the course.
	Point geo.Coordinate

	// Distance along the whole course at which the point appears, in meters.
	Distance float64

	Type PointType
	Name string
}

// Course is a course for navigation. It carries the distance data needed for
// a FIT course file but no speeds or timestamps.
type Course struct {
	Records []Record
	Points  []CoursePoint
	Name    string
}

// TotalDistance returns the course's length in meters.
func (c *Course) TotalDistance() float64 {
	if len(c.Records) == 0 {
		return 0
	}
	return c.Records[len(c.Records)-1].CumulativeDistance
}

// HasElevation reports whether every record carries elevation data.
func (c *Course) HasElevation() bool {
	for _, r := range c.Records {
		if !r.HasEle {
			return false
		}
	}
	return true
}
