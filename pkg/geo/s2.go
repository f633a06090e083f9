package geo

import (
	"github.com/golang/geo/s2"
)

// ProjectPointToSegment returns the point on the segment (pointA, pointB)
// closest to snap, treating the segment as a local straight chord. The result
// is clamped to the segment's endpoints when the perpendicular foot falls
// outside it.
func ProjectPointToSegment(pointA Coordinate, pointB Coordinate,
	snap Coordinate) Coordinate {
	pointAS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(pointA.Lat, pointA.Lon))
	pointBS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(pointB.Lat, pointB.Lon))
	snapS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(snap.Lat, snap.Lon))
	projection := s2.Project(snapS2, pointAS2, pointBS2)
	projectLatLng := s2.LatLngFromPoint(projection)
	return Coordinate{
		Lat: projectLatLng.Lat.Degrees(),
		Lon: projectLatLng.Lng.Degrees(),
	}
}

// PointSegmentDistance returns the geodesic separation in meters between snap
// and its closest point on the segment (pointA, pointB).
func PointSegmentDistance(pointA Coordinate, pointB Coordinate,
	snap Coordinate) (float64, error) {
	projectionPoint := ProjectPointToSegment(pointA, pointB, snap)
	return VincentyInverse(snap, projectionPoint)
}
