// Package converter runs the GPX to FIT course conversion pipeline: parse
// the input, build the course and its course points, and encode the result.
package converter

import (
	"io"
	"time"

	"github.com/twpayne/go-polyline"
	"go.uber.org/zap"

	"github.com/mshroyer/coursepointer/pkg"
	"github.com/mshroyer/coursepointer/pkg/course"
	"github.com/mshroyer/coursepointer/pkg/fit"
	"github.com/mshroyer/coursepointer/pkg/geo"
	"github.com/mshroyer/coursepointer/pkg/gpx"
	"github.com/mshroyer/coursepointer/pkg/util"
)

// ConversionInfo summarizes a completed conversion.
type ConversionInfo struct {
	// CourseName is the name encoded into the output.
	CourseName string

	// TotalDistanceMeter is the course's length.
	TotalDistanceMeter float64

	// NumRecords is the number of track positions written.
	NumRecords int

	// NumWaypoints is the number of waypoints read from the input.
	NumWaypoints int

	// NumCoursePoints is the number of waypoints that intercepted the
	// course.
	NumCoursePoints int

	// TrackPolyline is a Google polyline encoding of the course's records,
	// for previewing the route.
	TrackPolyline string
}

type Converter struct {
	logger *zap.Logger
}

func NewConverter(logger *zap.Logger) *Converter {
	return &Converter{
		logger: logger,
	}
}

// Convert reads a GPX document from r and writes a FIT course file to w.
// The input must contain exactly one route or track, with at least one
// point.
func (cv *Converter) Convert(r io.Reader, w io.Writer, opts Options) (*ConversionInfo, error) {
	if err := checkOptions(opts); err != nil {
		return nil, err
	}

	builder := course.NewSetBuilder(course.Options{
		ThresholdMeter: opts.ThresholdMeter,
		Strategy:       opts.Strategy,
	}, cv.logger)

	reader := gpx.NewReader(r)
	numWaypoints, err := cv.readInput(reader, builder)
	if err != nil {
		return nil, err
	}

	c, err := cv.singleCourse(builder)
	if err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		name = c.Name
	}
	c.Name = name

	startTime := opts.StartTime
	if startTime.IsZero() {
		startTime = time.Now().UTC()
	}
	fitOptions := fit.DefaultCourseOptions().
		WithSpeed(pkg.KmhToMs(opts.SpeedKmh)).
		WithStartTime(startTime).
		WithSport(opts.Sport).
		WithProductName(pkg.ProductName).
		WithSoftwareVersion(pkg.SoftwareVersion).
		WithBigEndian(opts.BigEndian)
	if err := fit.NewCourseFile(c, fitOptions).Encode(w); err != nil {
		return nil, err
	}

	info := &ConversionInfo{
		CourseName:         c.Name,
		TotalDistanceMeter: c.TotalDistance(),
		NumRecords:         len(c.Records),
		NumWaypoints:       numWaypoints,
		NumCoursePoints:    len(c.Points),
		TrackPolyline:      encodeTrackPolyline(c.Records),
	}
	cv.logger.Info("conversion complete",
		zap.String("course", info.CourseName),
		zap.Float64("distanceMeter", info.TotalDistanceMeter),
		zap.Int("records", info.NumRecords),
		zap.Int("coursePoints", info.NumCoursePoints))
	return info, nil
}

// readInput drives the GPX reader, feeding routes and waypoints into the
// builder. Returns the number of waypoints read.
func (cv *Converter) readInput(reader *gpx.Reader, builder *course.SetBuilder) (int, error) {
	numWaypoints := 0
	for {
		item, err := reader.Next()
		if err == io.EOF {
			return numWaypoints, nil
		}
		if err != nil {
			return 0, err
		}

		switch item.Kind {
		case gpx.ItemRoute:
			builder.AddCourse()

		case gpx.ItemRouteName:
			cb, err := builder.CurrentCourse()
			if err != nil {
				return 0, err
			}
			cb.WithName(item.Name)

		case gpx.ItemRoutePoint:
			cb, err := builder.CurrentCourse()
			if err != nil {
				return 0, err
			}
			point, err := geo.NewCoordinate(item.Lat, item.Lon)
			if err != nil {
				return 0, err
			}
			cb.AddRoutePoint(point, item.Ele, item.HasEle)

		case gpx.ItemWaypoint:
			point, err := geo.NewCoordinate(item.Lat, item.Lon)
			if err != nil {
				return 0, err
			}
			numWaypoints++
			builder.AddWaypoint(course.Waypoint{
				Point: point,
				Type:  course.PointTypeFor(course.DetectCreator(reader.Creator()), item.Type),
				Name:  item.Name,
			})
		}
	}
}

// singleCourse enforces the exactly-one-non-empty-route contract and builds
// the course.
func (cv *Converter) singleCourse(builder *course.SetBuilder) (*course.Course, error) {
	switch n := builder.NumCourses(); {
	case n == 0:
		return nil, util.WrapErrorf(nil, util.ErrNoRoute, "the input contains no routes or tracks")
	case n > 1:
		return nil, util.WrapErrorf(nil, util.ErrRouteCount,
			"expected exactly one route or track, found %d", n)
	}
	cb, err := builder.CurrentCourse()
	if err != nil {
		return nil, err
	}
	if cb.NumRoutePoints() == 0 {
		return nil, util.WrapErrorf(nil, util.ErrNoRoute, "the route contains no points")
	}

	courses, err := builder.Build()
	if err != nil {
		return nil, err
	}
	return courses[0], nil
}

func encodeTrackPolyline(records []course.Record) string {
	coords := make([][]float64, len(records))
	for i, r := range records {
		coords[i] = []float64{r.Point.GetLat(), r.Point.GetLon()}
	}
	return string(polyline.EncodeCoords(coords))
}
