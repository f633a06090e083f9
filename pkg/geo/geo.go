package geo

import (
	"github.com/mshroyer/coursepointer/pkg/util"
)

// Coordinate is a point on the surface of the WGS84 ellipsoid.
// Invariant: -90 <= lat <= 90 and -180 < lon <= 180.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c Coordinate) GetLat() float64 {
	return c.Lat
}

func (c Coordinate) GetLon() float64 {
	return c.Lon
}

func NewCoordinate(lat, lon float64) (Coordinate, error) {
	if lat < -90.0 || lat > 90.0 {
		return Coordinate{}, util.WrapErrorf(nil, util.ErrBadCoordinate,
			"latitude %v out of range [-90, 90]", lat)
	}
	if lon <= -180.0 || lon > 180.0 {
		return Coordinate{}, util.WrapErrorf(nil, util.ErrBadCoordinate,
			"longitude %v out of range (-180, 180]", lon)
	}
	return Coordinate{
		Lat: lat,
		Lon: lon,
	}, nil
}

func NewCoordinates(lat, lon []float64) ([]Coordinate, error) {
	coords := make([]Coordinate, len(lat))
	for i := range lat {
		c, err := NewCoordinate(lat[i], lon[i])
		if err != nil {
			return nil, err
		}
		coords[i] = c
	}
	return coords, nil
}
