package fit

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/mshroyer/coursepointer/pkg/course"
	"github.com/mshroyer/coursepointer/pkg/util"
)

// fileHeader is the 14-byte lead-in of a FIT file, followed on the wire by
// its own two-byte CRC. Multi-byte header fields are always little endian,
// regardless of the architecture of the data frames.
type fileHeader struct {
	dataSize uint32
}

func (h fileHeader) appendTo(buf []byte) []byte {
	buf = append(buf, 14, protocolVersion10)
	buf = binary.LittleEndian.AppendUint16(buf, ProfileVersion)
	buf = binary.LittleEndian.AppendUint32(buf, h.dataSize)
	return append(buf, ".FIT"...)
}

// CourseOptions configures course file encoding.
type CourseOptions struct {
	speed           float64 // meters per second
	startTime       time.Time
	sport           Sport
	productName     string
	softwareVersion uint16
	hardwareVersion uint8
	bigEndian       bool
}

// DefaultCourseOptions returns options with an 8 m/s speed and a fixed
// start time, so encoding is reproducible when the caller doesn't specify
// one.
func DefaultCourseOptions() CourseOptions {
	return CourseOptions{
		speed:     8.0,
		startTime: time.Date(2019, time.November, 23, 0, 0, 0, 0, time.UTC),
		sport:     SportCycling,
	}
}

// WithSpeed sets the assumed speed, in meters per second, used to derive
// record timestamps. On compatible devices this sets the Virtual Partner's
// pace.
func (o CourseOptions) WithSpeed(speed float64) CourseOptions {
	o.speed = speed
	return o
}

// WithStartTime sets the timestamp at which the course starts, controlling
// the timestamps of the lap, event, and record messages.
func (o CourseOptions) WithStartTime(t time.Time) CourseOptions {
	o.startTime = t
	return o
}

// WithSport sets the course's sport. Defaults to cycling.
func (o CourseOptions) WithSport(sport Sport) CourseOptions {
	o.sport = sport
	return o
}

// WithProductName sets the product name recorded in the file_id message.
// Only the first 13 bytes are encoded.
func (o CourseOptions) WithProductName(name string) CourseOptions {
	o.productName = name
	return o
}

// WithSoftwareVersion sets the file_creator message's software version.
func (o CourseOptions) WithSoftwareVersion(v uint16) CourseOptions {
	o.softwareVersion = v
	return o
}

// WithHardwareVersion sets the file_creator message's hardware version.
func (o CourseOptions) WithHardwareVersion(v uint8) CourseOptions {
	o.hardwareVersion = v
	return o
}

// WithBigEndian encodes data frames in big-endian architecture instead of
// the default little endian. Decoders must accept either.
func (o CourseOptions) WithBigEndian(bigEndian bool) CourseOptions {
	o.bigEndian = bigEndian
	return o
}

// CourseFile is a write-only FIT course file.
type CourseFile struct {
	course  *course.Course
	options CourseOptions
}

func NewCourseFile(c *course.Course, options CourseOptions) *CourseFile {
	return &CourseFile{
		course:  c,
		options: options,
	}
}

// Encode serializes the course file: assembles the message set, validates
// it, and writes the header and data, each followed by its CRC.
func (f *CourseFile) Encode(w io.Writer) error {
	ms, err := f.buildMessages()
	if err != nil {
		return err
	}
	if err := ms.validate(); err != nil {
		return err
	}

	bo := binary.AppendByteOrder(binary.LittleEndian)
	if f.options.bigEndian {
		bo = binary.BigEndian
	}

	hw := newCrcWriter(w)
	header := fileHeader{dataSize: uint32(ms.dataSize())}
	if _, err := hw.Write(header.appendTo(nil)); err != nil {
		return util.WrapErrorf(err, util.ErrWritingOutput, "writing file header")
	}
	if _, err := hw.finish(); err != nil {
		return util.WrapErrorf(err, util.ErrWritingOutput, "writing header checksum")
	}

	dw := newCrcWriter(w)
	if _, err := dw.Write(ms.appendTo(nil, bo)); err != nil {
		return util.WrapErrorf(err, util.ErrWritingOutput, "writing file data")
	}
	if _, err := dw.finish(); err != nil {
		return util.WrapErrorf(err, util.ErrWritingOutput, "writing data checksum")
	}
	return nil
}

func (f *CourseFile) buildMessages() (*messageSet, error) {
	// A course with no records would serialize to a structurally valid but
	// meaningless container, so refuse it here.
	if len(f.course.Records) == 0 {
		return nil, util.WrapErrorf(nil, util.ErrEncodingCourse,
			"course has no records")
	}
	if f.options.speed <= 0 {
		return nil, util.WrapErrorf(nil, util.ErrSpeedTooLow,
			"speed %f m/s is not positive", f.options.speed)
	}

	startTime, err := dateTime(f.options.startTime)
	if err != nil {
		return nil, err
	}
	totalDistance, err := centimeters(f.course.TotalDistance())
	if err != nil {
		return nil, err
	}
	totalDuration, err := milliseconds(f.durationAt(f.course.TotalDistance()))
	if err != nil {
		return nil, err
	}
	stopTime, err := dateTime(f.options.startTime.Add(f.durationAt(f.course.TotalDistance())))
	if err != nil {
		return nil, err
	}

	name := f.course.Name
	if name == "" {
		name = "Untitled course"
	}

	ms := &messageSet{}
	ms.add(&fileIDMessage{
		fileType:     fileTypeCourse,
		manufacturer: manufacturerDevelopment,
		timeCreated:  startTime,
		productName:  f.options.productName,
	})
	ms.add(&courseMessage{
		name:  name,
		sport: f.options.sport,
	})
	startRecord := f.course.Records[0]
	endRecord := f.course.Records[len(f.course.Records)-1]
	ms.add(&lapMessage{
		startTime: startTime,
		duration:  totalDuration,
		distance:  totalDistance,
		startPos:  toSurfacePoint(startRecord),
		endPos:    toSurfacePoint(endRecord),
	})
	ms.add(&eventMessage{
		timestamp: startTime,
		event:     eventTimer,
		eventType: eventTypeStart,
	})

	for _, r := range f.course.Records {
		distance, err := centimeters(r.CumulativeDistance)
		if err != nil {
			return nil, err
		}
		timestamp, err := dateTime(f.options.startTime.Add(f.durationAt(r.CumulativeDistance)))
		if err != nil {
			return nil, err
		}
		ms.add(&recordMessage{
			position:  toSurfacePoint(r),
			distance:  distance,
			timestamp: timestamp,
		})
	}

	for _, cp := range f.course.Points {
		distance, err := centimeters(cp.Distance)
		if err != nil {
			return nil, err
		}
		timestamp, err := dateTime(f.options.startTime.Add(f.durationAt(cp.Distance)))
		if err != nil {
			return nil, err
		}
		ms.add(&coursePointMessage{
			timestamp: timestamp,
			position: surfacePoint{
				lat: semicircles(cp.Point.GetLat()),
				lon: semicircles(cp.Point.GetLon()),
			},
			distance:  distance,
			pointType: cp.Type,
			name:      cp.Name,
		})
	}

	ms.add(&eventMessage{
		timestamp: stopTime,
		event:     eventTimer,
		eventType: eventTypeStop,
	})
	ms.add(&fileCreatorMessage{
		softwareVersion: f.options.softwareVersion,
		hardwareVersion: f.options.hardwareVersion,
	})
	return ms, nil
}

// durationAt returns the time to reach the given course distance at the
// configured speed.
func (f *CourseFile) durationAt(distanceMeter float64) time.Duration {
	return time.Duration(distanceMeter / f.options.speed * float64(time.Second))
}

func toSurfacePoint(r course.Record) surfacePoint {
	return surfacePoint{
		lat: semicircles(r.Point.GetLat()),
		lon: semicircles(r.Point.GetLon()),
	}
}
