package fit

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshroyer/coursepointer/pkg/course"
	"github.com/mshroyer/coursepointer/pkg/geo"
	"github.com/mshroyer/coursepointer/pkg/util"
)

func TestCrcKnownHeader(t *testing.T) {
	// A header from a FIT file exported from Garmin Connect, minus its CRC
	// bytes. The expected sum is the header's last two bytes, little endian.
	var crc Crc
	crc.AddBytes([]byte{
		0x0e, 0x10, 0xb2, 0x52, 0x88, 0x42, 0x00, 0x00, 0x2e, 0x46, 0x49, 0x54,
	})
	assert.Equal(t, uint16(0xf94b), crc.Sum())
}

func TestFileHeaderEncode(t *testing.T) {
	var buf bytes.Buffer
	w := newCrcWriter(&buf)
	_, err := w.Write(fileHeader{dataSize: 17032}.appendTo(nil))
	require.NoError(t, err)
	_, err = w.finish()
	require.NoError(t, err)

	assert.Equal(t, []byte{
		0x0e, 0x10, 0xa6, 0x52, 0x88, 0x42, 0x00, 0x00, 0x2e, 0x46, 0x49, 0x54, 0x0b, 0xb9,
	}, buf.Bytes())
}

func TestSemicircles(t *testing.T) {
	assert.Equal(t, int32(0), semicircles(0))
	assert.Equal(t, int32(1<<30), semicircles(90))
	assert.Equal(t, int32(-1<<30), semicircles(-90))
	// +180 would round one past MaxInt32.
	assert.Equal(t, int32(1<<31-1), semicircles(180))

	// Round trips stay within one unit of resolution.
	for _, deg := range []float64{37.42836, -122.08532, -0.0001, 89.999999} {
		got := semicirclesToDegrees(semicircles(deg))
		assert.InDelta(t, deg, got, 180.0/(1<<31))
	}
}

func TestAppendStringTruncatesAtRuneBoundary(t *testing.T) {
	// 15 bytes of content for a 16-byte field fits exactly, leaving one
	// byte for the terminator.
	buf := appendString(nil, "caférestaurant", 16)
	require.Len(t, buf, 16)
	assert.Equal(t, byte(0), buf[15])
	assert.Equal(t, "caférestaurant", string(buf[:bytes.IndexByte(buf, 0)]))

	long := "séparation houte" // 17 bytes
	buf = appendString(nil, long, 16)
	require.Len(t, buf, 16)
	assert.Equal(t, "séparation hou", string(buf[:bytes.IndexByte(buf, 0)]))

	// The two-byte "é" straddles the 15-byte limit and must not be split.
	boundary := "abcdefghijklmné!"
	buf = appendString(nil, boundary, 16)
	require.Len(t, buf, 16)
	assert.Equal(t, "abcdefghijklmn", string(buf[:bytes.IndexByte(buf, 0)]))
}

func TestDateTime(t *testing.T) {
	got, err := dateTime(time.Date(1989, time.December, 31, 0, 0, 1, 0, time.UTC))
	assert.True(t, errors.Is(err, util.ErrEncodingCourse))
	assert.Zero(t, got)

	got, err = dateTime(time.Date(2019, time.November, 23, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	// 0x10000000 seconds past the Garmin epoch is mid-1998, so any recent
	// date is valid.
	assert.Greater(t, got, uint32(garminDateTimeMin))
}

func mustCoord(t *testing.T, lat, lon float64) geo.Coordinate {
	t.Helper()
	c, err := geo.NewCoordinate(lat, lon)
	require.NoError(t, err)
	return c
}

func testCourse(t *testing.T) *course.Course {
	t.Helper()
	return &course.Course{
		Name: "Morning ride",
		Records: []course.Record{
			{Point: mustCoord(t, 37.0, -122.0), CumulativeDistance: 0},
			{Point: mustCoord(t, 37.01, -122.0), CumulativeDistance: 1109.5},
			{Point: mustCoord(t, 37.02, -122.0), CumulativeDistance: 2219.0},
		},
		Points: []course.CoursePoint{
			{
				Point:    mustCoord(t, 37.005, -122.0),
				Distance: 554.75,
				Type:     course.PointTypeWater,
				Name:     "Water stop",
			},
		},
	}
}

func encodeCourse(t *testing.T, c *course.Course, options CourseOptions) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, NewCourseFile(c, options).Encode(&buf))
	return buf.Bytes()
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := testCourse(t)
	options := DefaultCourseOptions().WithSpeed(10).WithProductName("coursepointer")
	raw := encodeCourse(t, c, options)

	d, err := Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, ProfileVersion, d.ProfileVersion)

	fileIDs := d.ByGlobal(uint16(globalFileID))
	require.Len(t, fileIDs, 1)
	assert.Equal(t, uint8(fileTypeCourse), fileIDs[0].Fields[0].Uint8())
	assert.Equal(t, uint16(manufacturerDevelopment), fileIDs[0].Fields[1].Uint16())
	assert.Equal(t, "coursepointer", fileIDs[0].Fields[8].String())

	courses := d.ByGlobal(uint16(globalCourse))
	require.Len(t, courses, 1)
	assert.Equal(t, "Morning ride", courses[0].Fields[5].String())
	assert.Equal(t, uint8(SportCycling), courses[0].Fields[4].Uint8())

	laps := d.ByGlobal(uint16(globalLap))
	require.Len(t, laps, 1)
	assert.Equal(t, uint32(221900), laps[0].Fields[9].Uint32())
	assert.InDelta(t, 37.0, laps[0].Fields[3].Degrees(), 1e-7)
	assert.InDelta(t, 37.02, laps[0].Fields[5].Degrees(), 1e-7)
	// Elapsed and timer durations are equal: 2219 m at 10 m/s is 221.9 s.
	assert.InDelta(t, 221900, laps[0].Fields[7].Uint32(), 1)
	assert.Equal(t, laps[0].Fields[7].Uint32(), laps[0].Fields[8].Uint32())

	records := d.ByGlobal(uint16(globalRecord))
	require.Len(t, records, 3)
	for i, r := range records {
		assert.InDelta(t, c.Records[i].Point.GetLat(), r.Fields[0].Degrees(), 1e-7)
		assert.InDelta(t, c.Records[i].Point.GetLon(), r.Fields[1].Degrees(), 1e-7)
		assert.Equal(t, uint32(c.Records[i].CumulativeDistance*100), r.Fields[5].Uint32())
	}
	// Record timestamps advance with distance.
	assert.Less(t, records[0].Fields[253].Uint32(), records[2].Fields[253].Uint32())

	points := d.ByGlobal(uint16(globalCoursePoint))
	require.Len(t, points, 1)
	assert.Equal(t, "Water stop", points[0].Fields[6].String())
	assert.Equal(t, uint8(course.PointTypeWater), points[0].Fields[5].Uint8())
	assert.Equal(t, uint32(55475), points[0].Fields[4].Uint32())

	events := d.ByGlobal(uint16(globalEvent))
	require.Len(t, events, 2)
	assert.Equal(t, uint8(eventTypeStart), events[0].Fields[1].Uint8())
	assert.Equal(t, uint8(eventTypeStop), events[1].Fields[1].Uint8())

	creators := d.ByGlobal(uint16(globalFileCreator))
	require.Len(t, creators, 1)
}

func TestEncodeBigEndianDecodes(t *testing.T) {
	c := testCourse(t)
	rawLE := encodeCourse(t, c, DefaultCourseOptions())
	rawBE := encodeCourse(t, c, DefaultCourseOptions().WithBigEndian(true))
	assert.NotEqual(t, rawLE, rawBE)

	dLE, err := Decode(bytes.NewReader(rawLE))
	require.NoError(t, err)
	dBE, err := Decode(bytes.NewReader(rawBE))
	require.NoError(t, err)

	// Same logical content regardless of the wire architecture.
	lapsLE := dLE.ByGlobal(uint16(globalLap))
	lapsBE := dBE.ByGlobal(uint16(globalLap))
	require.Len(t, lapsLE, 1)
	require.Len(t, lapsBE, 1)
	assert.Equal(t, lapsLE[0].Fields[9].Uint32(), lapsBE[0].Fields[9].Uint32())
	assert.Equal(t, lapsLE[0].Fields[3].Int32(), lapsBE[0].Fields[3].Int32())
}

func TestEncodeDeterministic(t *testing.T) {
	c := testCourse(t)
	options := DefaultCourseOptions()
	assert.Equal(t, encodeCourse(t, c, options), encodeCourse(t, c, options))
}

func TestEncodeDeclaredDataSize(t *testing.T) {
	raw := encodeCourse(t, testCourse(t), DefaultCourseOptions())
	declared := int(uint32(raw[4]) | uint32(raw[5])<<8 | uint32(raw[6])<<16 | uint32(raw[7])<<24)
	// header + header CRC + data + data CRC
	assert.Equal(t, 14+2+declared+2, len(raw))
}

func TestEncodeLongNamesTruncated(t *testing.T) {
	c := testCourse(t)
	c.Name = "A very long course name that exceeds the thirty-two byte field"
	c.Points[0].Name = "A very long course point name"
	raw := encodeCourse(t, c, DefaultCourseOptions())

	d, err := Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	courses := d.ByGlobal(uint16(globalCourse))
	require.Len(t, courses, 1)
	assert.Equal(t, "A very long course name that ex", courses[0].Fields[5].String())
	points := d.ByGlobal(uint16(globalCoursePoint))
	require.Len(t, points, 1)
	assert.Equal(t, "A very long cou", points[0].Fields[6].String())
}

func TestEncodeRejectsEmptyCourse(t *testing.T) {
	var buf bytes.Buffer
	err := NewCourseFile(&course.Course{Name: "empty"}, DefaultCourseOptions()).Encode(&buf)
	assert.True(t, errors.Is(err, util.ErrEncodingCourse))
	assert.Zero(t, buf.Len())
}

func TestEncodeRejectsNonPositiveSpeed(t *testing.T) {
	var buf bytes.Buffer
	err := NewCourseFile(testCourse(t), DefaultCourseOptions().WithSpeed(0)).Encode(&buf)
	assert.True(t, errors.Is(err, util.ErrSpeedTooLow))
}

func TestValidateOrdering(t *testing.T) {
	ms := &messageSet{}
	ms.add(&courseMessage{name: "x"})
	ms.add(&fileIDMessage{})
	ms.add(&lapMessage{})
	err := ms.validate()
	assert.True(t, errors.Is(err, util.ErrEncodingCourse))

	ms = &messageSet{}
	ms.add(&fileIDMessage{})
	ms.add(&courseMessage{name: "x"})
	err = ms.validate()
	assert.True(t, errors.Is(err, util.ErrEncodingCourse)) // no lap

	ms.add(&lapMessage{})
	assert.NoError(t, ms.validate())
}

func TestDecodeRejectsCorruptCrc(t *testing.T) {
	raw := encodeCourse(t, testCourse(t), DefaultCourseOptions())
	raw[len(raw)-3] ^= 0xFF
	_, err := Decode(bytes.NewReader(raw))
	assert.True(t, errors.Is(err, util.ErrDecodingCourse))
}

func TestParseSport(t *testing.T) {
	s, err := ParseSport("hiking")
	require.NoError(t, err)
	assert.Equal(t, SportHiking, s)
	_, err = ParseSport("quidditch")
	assert.Error(t, err)
}
