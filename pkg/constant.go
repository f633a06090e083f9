package pkg

// WGS84 reference ellipsoid.
const (
	WGS84SemiMajorAxis = 6378137.0
	WGS84Flattening    = 1.0 / 298.257223563
	WGS84SemiMinorAxis = WGS84SemiMajorAxis * (1.0 - WGS84Flattening)
)

const (
	MetersPerKilometer  = 1000.0
	SecondsPerHour      = 3600.0
	CentimetersPerMeter = 100.0
)

// Converter defaults, overridable from the CLI or a config file.
const (
	DefaultThresholdMeter = 35.0
	DefaultSpeedKmh       = 20.0
)

// Identity recorded in generated course files.
const (
	ProductName     = "coursepointer"
	SoftwareVersion = 100 // two major digits followed by two minor
)

const (
	DEBUG = false
)

// KmhToMs converts a speed in km/h to m/s.
func KmhToMs(speedKmh float64) float64 {
	return speedKmh * MetersPerKilometer / SecondsPerHour
}
