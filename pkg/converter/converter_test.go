package converter

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dsnet/compress/bzip2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mshroyer/coursepointer/pkg/course"
	"github.com/mshroyer/coursepointer/pkg/fit"
	"github.com/mshroyer/coursepointer/pkg/util"
)

const rideDoc = `<?xml version="1.0" encoding="UTF-8"?>
<gpx xmlns="http://www.topografix.com/GPX/1/1" version="1.1" creator="http://ridewithgps.com/">
  <wpt lat="0.0001" lon="0.005">
    <name>Water stop</name>
    <type>water</type>
  </wpt>
  <wpt lat="0.5" lon="0.5">
    <name>Far away</name>
  </wpt>
  <trk>
    <name>Test ride</name>
    <trkseg>
      <trkpt lat="0" lon="0"/>
      <trkpt lat="0" lon="0.005"/>
      <trkpt lat="0" lon="0.01"/>
    </trkseg>
  </trk>
</gpx>`

func testOptions() Options {
	opts := DefaultOptions()
	opts.StartTime = time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	return opts
}

func convertString(t *testing.T, doc string, opts Options) (*ConversionInfo, []byte, error) {
	t.Helper()
	var out bytes.Buffer
	info, err := NewConverter(zaptest.NewLogger(t)).Convert(strings.NewReader(doc), &out, opts)
	return info, out.Bytes(), err
}

func TestConvertEndToEnd(t *testing.T) {
	info, raw, err := convertString(t, rideDoc, testOptions())
	require.NoError(t, err)

	assert.Equal(t, "Test ride", info.CourseName)
	assert.Equal(t, 3, info.NumRecords)
	assert.Equal(t, 2, info.NumWaypoints)
	assert.Equal(t, 1, info.NumCoursePoints)
	// 0.01 degrees of longitude along the equator.
	assert.InDelta(t, 1113.2, info.TotalDistanceMeter, 1.0)
	assert.NotEmpty(t, info.TrackPolyline)

	d, err := fit.Decode(bytes.NewReader(raw))
	require.NoError(t, err)

	courses := d.ByGlobal(31)
	require.Len(t, courses, 1)
	assert.Equal(t, "Test ride", courses[0].Fields[5].String())

	points := d.ByGlobal(32)
	require.Len(t, points, 1)
	assert.Equal(t, "Water stop", points[0].Fields[6].String())
	assert.Equal(t, uint8(course.PointTypeWater), points[0].Fields[5].Uint8())
	// Halfway along the course.
	assert.InDelta(t, 55660, points[0].Fields[4].Uint32(), 100)

	records := d.ByGlobal(20)
	require.Len(t, records, 3)
}

func TestConvertOverridesName(t *testing.T) {
	opts := testOptions()
	opts.Name = "Renamed"
	info, _, err := convertString(t, rideDoc, opts)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", info.CourseName)
}

func TestConvertNegativeThresholdFailsBeforeParsing(t *testing.T) {
	opts := testOptions()
	opts.ThresholdMeter = -5
	// Invalid markup, which must never be reached.
	_, _, err := convertString(t, "<gpx><trk", opts)
	assert.True(t, errors.Is(err, util.ErrNegativeThreshold))
}

func TestConvertZeroSpeedRejected(t *testing.T) {
	opts := testOptions()
	opts.SpeedKmh = 0
	_, _, err := convertString(t, rideDoc, opts)
	assert.True(t, errors.Is(err, util.ErrSpeedTooLow))
}

func TestConvertNoRoute(t *testing.T) {
	_, _, err := convertString(t, `<gpx version="1.1"></gpx>`, testOptions())
	assert.True(t, errors.Is(err, util.ErrNoRoute))
}

func TestConvertEmptyRoute(t *testing.T) {
	doc := `<gpx version="1.1"><trk><trkseg></trkseg></trk></gpx>`
	_, out, err := convertString(t, doc, testOptions())
	assert.True(t, errors.Is(err, util.ErrNoRoute))
	assert.Empty(t, out)
}

func TestConvertMultipleRoutes(t *testing.T) {
	doc := `<gpx version="1.1">
  <trk><trkseg><trkpt lat="0" lon="0"/></trkseg></trk>
  <trk><trkseg><trkpt lat="1" lon="1"/></trkseg></trk>
</gpx>`
	_, _, err := convertString(t, doc, testOptions())
	assert.True(t, errors.Is(err, util.ErrRouteCount))
}

func TestConvertInvalidDocument(t *testing.T) {
	_, _, err := convertString(t, `<gpx version="1.1"><trk>`, testOptions())
	assert.True(t, errors.Is(err, util.ErrInvalidDocument))
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "ride.gpx")
	output := filepath.Join(dir, "ride.fit")
	require.NoError(t, os.WriteFile(input, []byte(rideDoc), 0o644))

	cv := NewConverter(zaptest.NewLogger(t))
	info, err := cv.ConvertFile(input, output, testOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, info.NumCoursePoints)

	raw, err := os.ReadFile(output)
	require.NoError(t, err)
	_, err = fit.Decode(bytes.NewReader(raw))
	assert.NoError(t, err)

	// The output now exists, so converting again must fail unless forced.
	_, err = cv.ConvertFile(input, output, testOptions())
	assert.True(t, errors.Is(err, util.ErrOutputExists))

	opts := testOptions()
	opts.Force = true
	_, err = cv.ConvertFile(input, output, opts)
	assert.NoError(t, err)
}

func TestConvertFileBzip2(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "ride.gpx.bz2")
	output := filepath.Join(dir, "ride.fit")

	f, err := os.Create(input)
	require.NoError(t, err)
	bw, err := bzip2.NewWriter(f, nil)
	require.NoError(t, err)
	_, err = bw.Write([]byte(rideDoc))
	require.NoError(t, err)
	require.NoError(t, bw.Close())
	require.NoError(t, f.Close())

	info, err := NewConverter(zaptest.NewLogger(t)).ConvertFile(input, output, testOptions())
	require.NoError(t, err)
	assert.Equal(t, "Test ride", info.CourseName)
}

func TestConvertFileMissingInput(t *testing.T) {
	dir := t.TempDir()
	cv := NewConverter(zaptest.NewLogger(t))
	_, err := cv.ConvertFile(filepath.Join(dir, "nope.gpx"), filepath.Join(dir, "out.fit"), testOptions())
	assert.True(t, errors.Is(err, util.ErrReadingInput))
}
