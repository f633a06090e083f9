package converter

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mshroyer/coursepointer/pkg"
	"github.com/mshroyer/coursepointer/pkg/course"
	"github.com/mshroyer/coursepointer/pkg/fit"
	"github.com/mshroyer/coursepointer/pkg/util"
)

// Options is the conversion configuration surface.
type Options struct {
	// ThresholdMeter is the maximum separation at which a waypoint
	// intercepts the route.
	ThresholdMeter float64 `mapstructure:"threshold" validate:"gte=0"`

	// SpeedKmh is the assumed average speed used to synthesize record
	// timestamps.
	SpeedKmh float64 `mapstructure:"speed" validate:"gt=0"`

	// Strategy picks among duplicate intercepts of a waypoint.
	Strategy course.Strategy

	// Name overrides the course name declared by the input.
	Name string

	// StartTime is the course's start. The current time is used if unset.
	StartTime time.Time

	Sport fit.Sport

	// Force overwrites an existing output file.
	Force bool

	// BigEndian encodes data frames in big-endian architecture.
	BigEndian bool
}

func DefaultOptions() Options {
	return Options{
		ThresholdMeter: pkg.DefaultThresholdMeter,
		SpeedKmh:       pkg.DefaultSpeedKmh,
		Strategy:       course.StrategyNearest,
		Sport:          fit.SportCycling,
	}
}

var validate = validator.New()

// checkOptions validates the configuration before any input is read, so bad
// configuration fails fast.
func checkOptions(o Options) error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, ferr := range verrs {
			switch ferr.StructField() {
			case "ThresholdMeter":
				return util.WrapErrorf(nil, util.ErrNegativeThreshold,
					"threshold %f m must not be negative", o.ThresholdMeter)
			case "SpeedKmh":
				return util.WrapErrorf(nil, util.ErrSpeedTooLow,
					"speed %f km/h must be positive", o.SpeedKmh)
			}
		}
	}
	return util.WrapErrorf(err, util.ErrSpeedTooLow, "invalid conversion options")
}
