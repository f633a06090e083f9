package util

import (
	"errors"
	"fmt"
	"math"
)

// error

type Error struct {
	orig error
	msg  string
	code error
}

func (e *Error) Error() string {
	if e.orig != nil {
		return fmt.Sprintf("%s: %s", e.msg, e.orig)
	}

	return e.msg
}

func (e *Error) Unwrap() error {
	return e.orig
}

func (e *Error) Is(target error) bool {
	return e.code == target
}

func WrapErrorf(orig error, code error, format string, a ...interface{}) error {
	return &Error{
		code: code,
		orig: orig,
		msg:  fmt.Sprintf(format, a...),
	}
}

func (e *Error) Code() error {
	return e.code
}

// The conversion failure taxonomy. Every stage wraps its failures with one of
// these codes so the CLI can render consistent diagnostics.
var (
	ErrReadingInput      = errors.New("reading the input file")
	ErrInvalidDocument   = errors.New("the input is not a valid GPX document")
	ErrNoRoute           = errors.New("no route was found")
	ErrRouteCount        = errors.New("an unexpected number of routes was found")
	ErrOutputExists      = errors.New("the output file already exists")
	ErrWritingOutput     = errors.New("writing the output file")
	ErrNegativeThreshold = errors.New("the threshold distance is negative")
	ErrSpeedTooLow       = errors.New("the average speed is too low")
	ErrBadStrategy       = errors.New("unknown interception strategy")
	ErrBadCoordinate     = errors.New("coordinate out of range")
	ErrGeodesic          = errors.New("geodesic computation failed")
	ErrEncodingCourse    = errors.New("encoding the course file")
	ErrDecodingCourse    = errors.New("the file is not a valid course file")
)

func DegreeToRadians(angle float64) float64 {
	return angle * (math.Pi / 180.0)
}

func RadiansToDegree(rad float64) float64 {
	return 180.0 * rad / math.Pi
}

func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

func Abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
