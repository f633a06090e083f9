package geo

import (
	"math"

	"github.com/mshroyer/coursepointer/pkg"
	"github.com/mshroyer/coursepointer/pkg/util"
)

const (
	vincentyTolerance     = 1e-12
	vincentyMaxIterations = 200
)

// VincentyInverse solves the inverse geodesic problem on the WGS84 ellipsoid:
// the length in meters of the shortest surface path between two coordinates.
// Accurate to well under a centimeter for route-scale distances. Coincident
// inputs return exactly zero.
//
// https://en.wikipedia.org/wiki/Vincenty%27s_formulae
func VincentyInverse(p1, p2 Coordinate) (float64, error) {
	if p1 == p2 {
		return 0, nil
	}

	a := pkg.WGS84SemiMajorAxis
	b := pkg.WGS84SemiMinorAxis
	f := pkg.WGS84Flattening

	lRad := util.DegreeToRadians(p2.Lon - p1.Lon)
	u1 := math.Atan((1 - f) * math.Tan(util.DegreeToRadians(p1.Lat)))
	u2 := math.Atan((1 - f) * math.Tan(util.DegreeToRadians(p2.Lat)))
	sinU1, cosU1 := math.Sincos(u1)
	sinU2, cosU2 := math.Sincos(u2)

	lambda := lRad
	var sinSigma, cosSigma, sigma, cosSqAlpha, cos2SigmaM float64
	converged := false
	for i := 0; i < vincentyMaxIterations; i++ {
		sinLambda, cosLambda := math.Sincos(lambda)
		sinSigma = math.Sqrt(
			(cosU2*sinLambda)*(cosU2*sinLambda) +
				(cosU1*sinU2-sinU1*cosU2*cosLambda)*(cosU1*sinU2-sinU1*cosU2*cosLambda))
		if sinSigma == 0 {
			// Coincident or numerically indistinguishable points.
			return 0, nil
		}
		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma = math.Atan2(sinSigma, cosSigma)
		sinAlpha := cosU1 * cosU2 * sinLambda / sinSigma
		cosSqAlpha = 1 - sinAlpha*sinAlpha
		if cosSqAlpha == 0 {
			// Equatorial line.
			cos2SigmaM = 0
		} else {
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cosSqAlpha
		}
		c := f / 16 * cosSqAlpha * (4 + f*(4-3*cosSqAlpha))
		lambdaPrev := lambda
		lambda = lRad + (1-c)*f*sinAlpha*
			(sigma+c*sinSigma*(cos2SigmaM+c*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))
		if math.Abs(lambda-lambdaPrev) < vincentyTolerance {
			converged = true
			break
		}
	}
	if !converged {
		// Near-antipodal points; routes never span these distances.
		return 0, util.WrapErrorf(nil, util.ErrGeodesic,
			"inverse solution did not converge for (%v, %v) -> (%v, %v)",
			p1.Lat, p1.Lon, p2.Lat, p2.Lon)
	}

	uSq := cosSqAlpha * (a*a - b*b) / (b * b)
	bigA := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
	bigB := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))
	deltaSigma := bigB * sinSigma *
		(cos2SigmaM + bigB/4*
			(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
				bigB/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))

	dist := b * bigA * (sigma - deltaSigma)
	if math.IsNaN(dist) {
		return 0, util.WrapErrorf(nil, util.ErrGeodesic,
			"inverse solution is NaN for (%v, %v) -> (%v, %v)",
			p1.Lat, p1.Lon, p2.Lat, p2.Lon)
	}
	return dist, nil
}

// VincentyDirect solves the direct geodesic problem: the coordinate reached by
// travelling dist meters from p along the initial bearing (degrees clockwise
// from north).
func VincentyDirect(p Coordinate, bearing, dist float64) (Coordinate, error) {
	a := pkg.WGS84SemiMajorAxis
	b := pkg.WGS84SemiMinorAxis
	f := pkg.WGS84Flattening

	alpha1 := util.DegreeToRadians(bearing)
	sinAlpha1, cosAlpha1 := math.Sincos(alpha1)

	tanU1 := (1 - f) * math.Tan(util.DegreeToRadians(p.Lat))
	cosU1 := 1 / math.Sqrt(1+tanU1*tanU1)
	sinU1 := tanU1 * cosU1

	sigma1 := math.Atan2(tanU1, cosAlpha1)
	sinAlpha := cosU1 * sinAlpha1
	cosSqAlpha := 1 - sinAlpha*sinAlpha
	uSq := cosSqAlpha * (a*a - b*b) / (b * b)
	bigA := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
	bigB := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))

	sigma := dist / (b * bigA)
	var sinSigma, cosSigma, cos2SigmaM float64
	for i := 0; i < vincentyMaxIterations; i++ {
		cos2SigmaM = math.Cos(2*sigma1 + sigma)
		sinSigma, cosSigma = math.Sincos(sigma)
		deltaSigma := bigB * sinSigma *
			(cos2SigmaM + bigB/4*
				(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
					bigB/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))
		sigmaPrev := sigma
		sigma = dist/(b*bigA) + deltaSigma
		if math.Abs(sigma-sigmaPrev) < vincentyTolerance {
			break
		}
	}

	tmp := sinU1*sinSigma - cosU1*cosSigma*cosAlpha1
	lat2 := math.Atan2(sinU1*cosSigma+cosU1*sinSigma*cosAlpha1,
		(1-f)*math.Sqrt(sinAlpha*sinAlpha+tmp*tmp))
	lambda := math.Atan2(sinSigma*sinAlpha1, cosU1*cosSigma-sinU1*sinSigma*cosAlpha1)
	c := f / 16 * cosSqAlpha * (4 + f*(4-3*cosSqAlpha))
	lDiff := lambda - (1-c)*f*sinAlpha*
		(sigma+c*sinSigma*(cos2SigmaM+c*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))

	lon2 := normalizeLongitude(p.Lon + util.RadiansToDegree(lDiff))
	return NewCoordinate(util.RadiansToDegree(lat2), lon2)
}

const earthRadiusKM = 6371.0

// DestinationPoint returns the point reached from (lat, lon) given a bearing
// and a distance in meters, on a spherical earth. Only used for padding
// bounding boxes, where spherical accuracy is plenty.
func DestinationPoint(lat, lon float64, bearing, distMeter float64) (float64, float64) {
	dr := distMeter / pkg.MetersPerKilometer / earthRadiusKM

	bearing = util.DegreeToRadians(bearing)
	lat = util.DegreeToRadians(lat)
	lon = util.DegreeToRadians(lon)

	lat2Part1 := math.Sin(lat) * math.Cos(dr)
	lat2Part2 := math.Cos(lat) * math.Sin(dr) * math.Cos(bearing)

	lat2 := math.Asin(lat2Part1 + lat2Part2)

	lon2Part1 := math.Sin(bearing) * math.Sin(dr) * math.Cos(lat)
	lon2Part2 := math.Cos(dr) - (math.Sin(lat) * math.Sin(lat2))

	lon2 := lon + math.Atan2(lon2Part1, lon2Part2)

	return util.RadiansToDegree(lat2), normalizeLongitude(util.RadiansToDegree(lon2))
}

// normalizeLongitude. long in degree, mapped into (-180, 180]
func normalizeLongitude(long float64) float64 {
	l := math.Mod(long+540, 360) - 180.0
	if l == -180.0 {
		return 180.0
	}
	return l
}
