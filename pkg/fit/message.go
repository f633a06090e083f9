package fit

import (
	"encoding/binary"

	"github.com/mshroyer/coursepointer/pkg/course"
	"github.com/mshroyer/coursepointer/pkg/util"
)

// Base type numbers from the FIT protocol.
const (
	baseTypeEnum   = 0
	baseTypeUint8  = 2
	baseTypeString = 7
	baseTypeSint32 = 133
	baseTypeUint16 = 132
	baseTypeUint32 = 134
)

type globalMessage uint16

const (
	globalFileID      globalMessage = 0
	globalLap         globalMessage = 19
	globalRecord      globalMessage = 20
	globalEvent       globalMessage = 21
	globalCourse      globalMessage = 31
	globalCoursePoint globalMessage = 32
	globalFileCreator globalMessage = 49
)

type fieldDefinition struct {
	number   uint8
	size     uint8
	baseType uint8
}

// message is one FIT data message. Its definition frame is derived from its
// field definitions, and its data frame from appendData.
type message interface {
	global() globalMessage
	localType() uint8
	fieldDefinitions() []fieldDefinition

	// appendData appends the message's data frame, including the record
	// header byte, in the given byte order.
	appendData(buf []byte, bo binary.AppendByteOrder) []byte
}

func appendDefinition(buf []byte, m message, bo binary.AppendByteOrder) []byte {
	buf = append(buf, 0x40|(m.localType()&0x0F))
	buf = append(buf, 0x00) // reserved
	if bo == binary.BigEndian {
		buf = append(buf, 0x01)
	} else {
		buf = append(buf, 0x00)
	}
	buf = bo.AppendUint16(buf, uint16(m.global()))
	defs := m.fieldDefinitions()
	buf = append(buf, uint8(len(defs)))
	for _, def := range defs {
		buf = append(buf, def.number, def.size, def.baseType)
	}
	return buf
}

func appendDataHeader(buf []byte, m message) []byte {
	return append(buf, m.localType()&0x0F)
}

// definitionSize is the encoded size of a definition frame with the given
// number of field definitions, assuming no developer fields.
func definitionSize(numDefs int) int {
	return 6 + 3*numDefs
}

// dataSize is the encoded size of one data frame of the message.
func dataSize(m message) int {
	sz := 1
	for _, def := range m.fieldDefinitions() {
		sz += int(def.size)
	}
	return sz
}

// surfacePoint is a position as stored in a FIT file, in semicircles.
type surfacePoint struct {
	lat int32
	lon int32
}

func appendSurfacePoint(buf []byte, p surfacePoint, bo binary.AppendByteOrder) []byte {
	buf = bo.AppendUint32(buf, uint32(p.lat))
	return bo.AppendUint32(buf, uint32(p.lon))
}

const (
	fileTypeCourse           = 6
	manufacturerDevelopment  = 255
	productNameFieldSize     = 14
	courseNameFieldSize      = 32
	coursePointNameFieldSize = 16
)

type fileIDMessage struct {
	fileType     uint8
	manufacturer uint16
	timeCreated  uint32
	productName  string
}

func (m *fileIDMessage) global() globalMessage { return globalFileID }
func (m *fileIDMessage) localType() uint8      { return 0 }

func (m *fileIDMessage) fieldDefinitions() []fieldDefinition {
	return []fieldDefinition{
		{0, 1, baseTypeEnum},                           // type
		{1, 2, baseTypeUint16},                         // manufacturer
		{4, 4, baseTypeUint32},                         // time_created
		{8, productNameFieldSize, baseTypeString},      // product_name
	}
}

func (m *fileIDMessage) appendData(buf []byte, bo binary.AppendByteOrder) []byte {
	buf = appendDataHeader(buf, m)
	buf = append(buf, m.fileType)
	buf = bo.AppendUint16(buf, m.manufacturer)
	buf = bo.AppendUint32(buf, m.timeCreated)
	return appendString(buf, m.productName, productNameFieldSize)
}

type courseMessage struct {
	name  string
	sport Sport
}

func (m *courseMessage) global() globalMessage { return globalCourse }
func (m *courseMessage) localType() uint8      { return 1 }

func (m *courseMessage) fieldDefinitions() []fieldDefinition {
	return []fieldDefinition{
		{5, courseNameFieldSize, baseTypeString}, // name
		{4, 1, baseTypeEnum},                     // sport
	}
}

func (m *courseMessage) appendData(buf []byte, bo binary.AppendByteOrder) []byte {
	buf = appendDataHeader(buf, m)
	buf = appendString(buf, m.name, courseNameFieldSize)
	return append(buf, uint8(m.sport))
}

type lapMessage struct {
	startTime uint32
	duration  uint32 // milliseconds
	distance  uint32 // centimeters
	startPos  surfacePoint
	endPos    surfacePoint
}

func (m *lapMessage) global() globalMessage { return globalLap }
func (m *lapMessage) localType() uint8      { return 2 }

func (m *lapMessage) fieldDefinitions() []fieldDefinition {
	return []fieldDefinition{
		{2, 4, baseTypeUint32},   // start_time
		{253, 4, baseTypeUint32}, // timestamp
		{7, 4, baseTypeUint32},   // total_elapsed_time
		{8, 4, baseTypeUint32},   // total_timer_time
		{9, 4, baseTypeUint32},   // total_distance
		{3, 4, baseTypeSint32},   // start_position_lat
		{4, 4, baseTypeSint32},   // start_position_long
		{5, 4, baseTypeSint32},   // end_position_lat
		{6, 4, baseTypeSint32},   // end_position_long
	}
}

func (m *lapMessage) appendData(buf []byte, bo binary.AppendByteOrder) []byte {
	buf = appendDataHeader(buf, m)
	buf = bo.AppendUint32(buf, m.startTime)
	buf = bo.AppendUint32(buf, m.startTime)
	// No pause semantics, so elapsed and timer durations are equal.
	buf = bo.AppendUint32(buf, m.duration)
	buf = bo.AppendUint32(buf, m.duration)
	buf = bo.AppendUint32(buf, m.distance)
	buf = appendSurfacePoint(buf, m.startPos, bo)
	return appendSurfacePoint(buf, m.endPos, bo)
}

const (
	eventTimer     = 0
	eventTypeStart = 0
	eventTypeStop  = 1
)

type eventMessage struct {
	timestamp  uint32
	event      uint8
	eventType  uint8
	eventGroup uint8
}

func (m *eventMessage) global() globalMessage { return globalEvent }
func (m *eventMessage) localType() uint8      { return 3 }

func (m *eventMessage) fieldDefinitions() []fieldDefinition {
	return []fieldDefinition{
		{253, 4, baseTypeUint32}, // timestamp
		{0, 1, baseTypeEnum},     // event
		{4, 1, baseTypeUint8},    // event_group
		{1, 1, baseTypeEnum},     // event_type
	}
}

func (m *eventMessage) appendData(buf []byte, bo binary.AppendByteOrder) []byte {
	buf = appendDataHeader(buf, m)
	buf = bo.AppendUint32(buf, m.timestamp)
	return append(buf, m.event, m.eventGroup, m.eventType)
}

type recordMessage struct {
	position  surfacePoint
	distance  uint32 // centimeters, cumulative
	timestamp uint32
}

func (m *recordMessage) global() globalMessage { return globalRecord }
func (m *recordMessage) localType() uint8      { return 4 }

func (m *recordMessage) fieldDefinitions() []fieldDefinition {
	return []fieldDefinition{
		{0, 4, baseTypeSint32},   // position_lat
		{1, 4, baseTypeSint32},   // position_long
		{5, 4, baseTypeUint32},   // distance
		{253, 4, baseTypeUint32}, // timestamp
	}
}

func (m *recordMessage) appendData(buf []byte, bo binary.AppendByteOrder) []byte {
	buf = appendDataHeader(buf, m)
	buf = appendSurfacePoint(buf, m.position, bo)
	buf = bo.AppendUint32(buf, m.distance)
	return bo.AppendUint32(buf, m.timestamp)
}

type coursePointMessage struct {
	timestamp uint32
	position  surfacePoint
	distance  uint32 // centimeters
	pointType course.PointType
	name      string
}

func (m *coursePointMessage) global() globalMessage { return globalCoursePoint }
func (m *coursePointMessage) localType() uint8      { return 5 }

func (m *coursePointMessage) fieldDefinitions() []fieldDefinition {
	return []fieldDefinition{
		{1, 4, baseTypeUint32},                        // timestamp
		{2, 4, baseTypeSint32},                        // position_lat
		{3, 4, baseTypeSint32},                        // position_long
		{4, 4, baseTypeUint32},                        // distance
		{5, 1, baseTypeEnum},                          // type
		{6, coursePointNameFieldSize, baseTypeString}, // name
	}
}

func (m *coursePointMessage) appendData(buf []byte, bo binary.AppendByteOrder) []byte {
	buf = appendDataHeader(buf, m)
	buf = bo.AppendUint32(buf, m.timestamp)
	buf = appendSurfacePoint(buf, m.position, bo)
	buf = bo.AppendUint32(buf, m.distance)
	buf = append(buf, uint8(m.pointType))
	return appendString(buf, m.name, coursePointNameFieldSize)
}

type fileCreatorMessage struct {
	softwareVersion uint16
	hardwareVersion uint8
}

func (m *fileCreatorMessage) global() globalMessage { return globalFileCreator }
func (m *fileCreatorMessage) localType() uint8      { return 6 }

func (m *fileCreatorMessage) fieldDefinitions() []fieldDefinition {
	return []fieldDefinition{
		{0, 2, baseTypeUint16}, // software_version
		{1, 1, baseTypeUint8},  // hardware_version
	}
}

func (m *fileCreatorMessage) appendData(buf []byte, bo binary.AppendByteOrder) []byte {
	buf = appendDataHeader(buf, m)
	buf = bo.AppendUint16(buf, m.softwareVersion)
	return append(buf, m.hardwareVersion)
}

// messageSet accumulates the messages of a course file and validates them
// against the profile before serialization.
type messageSet struct {
	msgs []message
}

func (ms *messageSet) add(m message) {
	ms.msgs = append(ms.msgs, m)
}

// rank assigns each message its place in a course file's canonical message
// order. Timer events bracket the records, so their rank depends on the
// event type.
func rank(m message) int {
	switch t := m.(type) {
	case *fileIDMessage:
		return 0
	case *courseMessage:
		return 1
	case *lapMessage:
		return 2
	case *eventMessage:
		if t.eventType == eventTypeStop {
			return 6
		}
		return 3
	case *recordMessage:
		return 4
	case *coursePointMessage:
		return 5
	case *fileCreatorMessage:
		return 7
	}
	return -1
}

// validate checks the profile's minimum content and ordering rules: at least
// one file_id, course, and lap message, a file_id first, and every message
// in canonical order.
func (ms *messageSet) validate() error {
	var haveFileID, haveCourse, haveLap bool
	prev := 0
	for i, m := range ms.msgs {
		r := rank(m)
		if r < 0 {
			return util.WrapErrorf(nil, util.ErrEncodingCourse,
				"unknown message type at index %d", i)
		}
		if r < prev {
			return util.WrapErrorf(nil, util.ErrEncodingCourse,
				"message %d for global type %d is out of order", i, m.global())
		}
		prev = r

		switch m.(type) {
		case *fileIDMessage:
			haveFileID = true
		case *courseMessage:
			haveCourse = true
		case *lapMessage:
			haveLap = true
		}
	}
	if !haveFileID {
		return util.WrapErrorf(nil, util.ErrEncodingCourse, "missing file_id message")
	}
	if !haveCourse {
		return util.WrapErrorf(nil, util.ErrEncodingCourse, "missing course message")
	}
	if !haveLap {
		return util.WrapErrorf(nil, util.ErrEncodingCourse, "missing lap message")
	}
	if rank(ms.msgs[0]) != 0 {
		return util.WrapErrorf(nil, util.ErrEncodingCourse, "first message is not file_id")
	}
	return nil
}

// dataSize is the serialized size of all definition and data frames.
func (ms *messageSet) dataSize() int {
	sz := 0
	defined := make(map[uint8]bool)
	for _, m := range ms.msgs {
		if !defined[m.localType()] {
			sz += definitionSize(len(m.fieldDefinitions()))
			defined[m.localType()] = true
		}
		sz += dataSize(m)
	}
	return sz
}

// appendTo serializes the message set, emitting each local type's
// definition frame ahead of its first data frame.
func (ms *messageSet) appendTo(buf []byte, bo binary.AppendByteOrder) []byte {
	defined := make(map[uint8]bool)
	for _, m := range ms.msgs {
		if !defined[m.localType()] {
			buf = appendDefinition(buf, m, bo)
			defined[m.localType()] = true
		}
		buf = m.appendData(buf, bo)
	}
	return buf
}
