package fit

import (
	"math"
	"time"
	"unicode/utf8"

	"github.com/mshroyer/coursepointer/pkg/util"
)

// ProfileVersion is the version of the Garmin SDK whose profile the encoder
// follows, represented in base 10 as two major digits followed by three
// minor digits.
const ProfileVersion uint16 = 21158

const protocolVersion10 = 0x10

// garminEpoch is the zero of FIT date_time values.
var garminEpoch = time.Date(1989, time.December, 31, 0, 0, 0, 0, time.UTC)

// garminDateTimeMin is the minimum value of an absolute date_time. Values
// below it are interpreted as relative offsets rather than times since the
// Garmin epoch.
const garminDateTimeMin = 0x10000000

// dateTime converts a wall-clock time to a FIT date_time value.
func dateTime(t time.Time) (uint32, error) {
	ts := int64(t.Sub(garminEpoch) / time.Second)
	if ts < garminDateTimeMin {
		return 0, util.WrapErrorf(nil, util.ErrEncodingCourse,
			"time %v is too early to encode as a date_time", t)
	}
	if ts > math.MaxUint32 {
		return 0, util.WrapErrorf(nil, util.ErrEncodingCourse,
			"time %v is too late to encode as a date_time", t)
	}
	return uint32(ts), nil
}

// semicircles converts decimal degrees to the FIT fixed-point angular unit
// of 2^31/180 degrees, rounding to nearest. +180 degrees rounds one past
// MaxInt32 and is clamped.
func semicircles(degrees float64) int32 {
	s := math.Round(degrees * (1 << 31) / 180)
	if s > math.MaxInt32 {
		return math.MaxInt32
	}
	if s < math.MinInt32 {
		return math.MinInt32
	}
	return int32(s)
}

// semicirclesToDegrees is the inverse conversion, used by the reference
// decoder.
func semicirclesToDegrees(s int32) float64 {
	return float64(s) * 180 / (1 << 31)
}

// centimeters converts meters to the fixed-point distance unit, truncating.
func centimeters(meters float64) (uint32, error) {
	cm := meters * 100
	if cm < 0 || cm > math.MaxUint32 {
		return 0, util.WrapErrorf(nil, util.ErrEncodingCourse,
			"distance %f m is out of range", meters)
	}
	return uint32(cm), nil
}

// milliseconds converts a duration to the fixed-point time unit, truncating.
func milliseconds(d time.Duration) (uint32, error) {
	ms := d.Milliseconds()
	if ms < 0 || ms > math.MaxUint32 {
		return 0, util.WrapErrorf(nil, util.ErrEncodingCourse,
			"duration %v is out of range", d)
	}
	return uint32(ms), nil
}

// appendString appends s as a fixed-size NUL-terminated field. Strings
// longer than fieldSize-1 bytes are truncated at a rune boundary, never
// rejected.
func appendString(buf []byte, s string, fieldSize int) []byte {
	b := truncateToRuneBoundary(s, fieldSize-1)
	buf = append(buf, b...)
	for i := len(b); i < fieldSize; i++ {
		buf = append(buf, 0)
	}
	return buf
}

func truncateToRuneBoundary(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	end := maxBytes
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end]
}

// Sport numbering from the Garmin profile.
type Sport uint8

const (
	SportGeneric          Sport = 0
	SportRunning          Sport = 1
	SportCycling          Sport = 2
	SportTransition       Sport = 3
	SportFitnessEquipment Sport = 4
	SportSwimming         Sport = 5
	SportBasketball       Sport = 6
	SportSoccer           Sport = 7
	SportTennis           Sport = 8
	SportAmericanFootball Sport = 9
	SportTraining         Sport = 10
	SportWalking          Sport = 11
	SportCrossCountrySki  Sport = 12
	SportAlpineSkiing     Sport = 13
	SportSnowboarding     Sport = 14
	SportRowing           Sport = 15
	SportMountaineering   Sport = 16
	SportHiking           Sport = 17
	SportMultisport       Sport = 18
	SportPaddling         Sport = 19
	SportFlying           Sport = 20
	SportEBiking          Sport = 21
	SportMotorcycling     Sport = 22
	SportBoating          Sport = 23
	SportDriving          Sport = 24
	SportGolf             Sport = 25
	SportHangGliding      Sport = 26
	SportHorsebackRiding  Sport = 27
	SportHunting          Sport = 28
	SportFishing          Sport = 29
	SportInlineSkating    Sport = 30
	SportRockClimbing     Sport = 31
	SportSailing          Sport = 32
	SportIceSkating       Sport = 33
	SportSkyDiving        Sport = 34
	SportSnowshoeing      Sport = 35
	SportSnowmobiling     Sport = 36
)

var sportNames = map[string]Sport{
	"generic":              SportGeneric,
	"running":              SportRunning,
	"cycling":              SportCycling,
	"transition":           SportTransition,
	"fitness_equipment":    SportFitnessEquipment,
	"swimming":             SportSwimming,
	"basketball":           SportBasketball,
	"soccer":               SportSoccer,
	"tennis":               SportTennis,
	"american_football":    SportAmericanFootball,
	"training":             SportTraining,
	"walking":              SportWalking,
	"cross_country_skiing": SportCrossCountrySki,
	"alpine_skiing":        SportAlpineSkiing,
	"snowboarding":         SportSnowboarding,
	"rowing":               SportRowing,
	"mountaineering":       SportMountaineering,
	"hiking":               SportHiking,
	"multisport":           SportMultisport,
	"paddling":             SportPaddling,
	"flying":               SportFlying,
	"e_biking":             SportEBiking,
	"motorcycling":         SportMotorcycling,
	"boating":              SportBoating,
	"driving":              SportDriving,
	"golf":                 SportGolf,
	"hang_gliding":         SportHangGliding,
	"horseback_riding":     SportHorsebackRiding,
	"hunting":              SportHunting,
	"fishing":              SportFishing,
	"inline_skating":       SportInlineSkating,
	"rock_climbing":        SportRockClimbing,
	"sailing":              SportSailing,
	"ice_skating":          SportIceSkating,
	"sky_diving":           SportSkyDiving,
	"snowshoeing":          SportSnowshoeing,
	"snowmobiling":         SportSnowmobiling,
}

// ParseSport parses a snake_case sport name from the Garmin profile.
func ParseSport(s string) (Sport, error) {
	if sport, ok := sportNames[s]; ok {
		return sport, nil
	}
	return 0, util.WrapErrorf(nil, util.ErrEncodingCourse, "unknown sport %q", s)
}
