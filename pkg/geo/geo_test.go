package geo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshroyer/coursepointer/pkg/util"
)

func TestNewCoordinate(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		wantErr  bool
	}{
		{"origin", 0, 0, false},
		{"north pole", 90, 0, false},
		{"south pole", -90, 0, false},
		{"antimeridian", 0, 180, false},
		{"lat too high", 90.0001, 0, true},
		{"lat too low", -90.0001, 0, true},
		{"lon at -180 excluded", 0, -180, true},
		{"lon too high", 0, 180.0001, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCoordinate(tt.lat, tt.lon)
			if tt.wantErr {
				assert.True(t, errors.Is(err, util.ErrBadCoordinate))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func coord(t *testing.T, lat, lon float64) Coordinate {
	t.Helper()
	c, err := NewCoordinate(lat, lon)
	require.NoError(t, err)
	return c
}

func TestVincentyInverseKnownDistances(t *testing.T) {
	tests := []struct {
		name   string
		p1, p2 Coordinate
		want   float64 // meters
		tol    float64
	}{
		{"degree of longitude on the equator", coord(t, 0, 0), coord(t, 0, 1), 111319.491, 0.01},
		{"degree of latitude from the equator", coord(t, 0, 0), coord(t, 1, 0), 110574.389, 0.01},
		{"ten degrees of longitude", coord(t, 0, 10), coord(t, 0, 20), 1113194.908, 0.1},
		{"mid-latitude pair", coord(t, 37, -122), coord(t, 37.01, -122), 1109.75, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VincentyInverse(tt.p1, tt.p2)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, tt.tol)

			// The inverse problem is symmetric.
			rev, err := VincentyInverse(tt.p2, tt.p1)
			require.NoError(t, err)
			assert.InDelta(t, got, rev, 1e-6)
		})
	}
}

func TestVincentyInverseCoincident(t *testing.T) {
	p := coord(t, 35.951314, -94.973085)
	got, err := VincentyInverse(p, p)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestVincentyDirectInverseRoundTrip(t *testing.T) {
	start := coord(t, 37.0, -122.0)
	for _, bearing := range []float64{0, 45, 90, 135, 200, 300} {
		dest, err := VincentyDirect(start, bearing, 5000)
		require.NoError(t, err)
		dist, err := VincentyInverse(start, dest)
		require.NoError(t, err)
		assert.InDelta(t, 5000, dist, 0.001)
	}
}

func TestVincentyDirectAcrossAntimeridian(t *testing.T) {
	start := coord(t, 0, 179.999)
	dest, err := VincentyDirect(start, 90, 1000)
	require.NoError(t, err)
	assert.Greater(t, dest.GetLon(), -180.0)
	assert.LessOrEqual(t, dest.GetLon(), 180.0)
}

func TestDestinationPoint(t *testing.T) {
	// Spherical approximation, so just sanity-check direction and rough
	// magnitude against the ellipsoidal solution.
	lat, lon := DestinationPoint(0, 0, 90, 111319.491)
	assert.InDelta(t, 0, lat, 1e-6)
	assert.InDelta(t, 1.0, lon, 0.005)

	lat, _ = DestinationPoint(0, 0, 0, 110574.389)
	assert.InDelta(t, 1.0, lat, 0.005)
}

func TestProjectPointToSegment(t *testing.T) {
	a := coord(t, 0, 0)
	b := coord(t, 0, 0.01)

	// Perpendicular foot inside the segment.
	p := ProjectPointToSegment(a, b, coord(t, 0.0001, 0.005))
	assert.InDelta(t, 0.005, p.GetLon(), 1e-6)
	assert.InDelta(t, 0, p.GetLat(), 1e-6)

	// Foot beyond an endpoint clamps to it.
	p = ProjectPointToSegment(a, b, coord(t, 0.0001, 0.02))
	assert.InDelta(t, 0.01, p.GetLon(), 1e-6)
}

func TestPointSegmentDistance(t *testing.T) {
	a := coord(t, 0, 0)
	b := coord(t, 0, 0.01)

	d, err := PointSegmentDistance(a, b, coord(t, 0.0001, 0.005))
	require.NoError(t, err)
	// 0.0001 degrees of latitude.
	assert.InDelta(t, 11.057, d, 0.01)

	d, err = PointSegmentDistance(a, b, coord(t, 0, 0.005))
	require.NoError(t, err)
	assert.InDelta(t, 0, d, 1e-6)
}
