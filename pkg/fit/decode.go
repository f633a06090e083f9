package fit

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/mshroyer/coursepointer/pkg/util"
)

// The decoder exists to verify encoded output. It reads normal definition
// and data frames in either architecture, checks both CRCs, and surfaces
// fields as raw values for inspection.

// DecodedMessage is one data message, keyed by its global message number.
type DecodedMessage struct {
	Global uint16
	Fields map[uint8]Value
}

// Value is a single decoded field.
type Value struct {
	baseType uint8
	raw      []byte
	bo       binary.ByteOrder
}

func (v Value) Uint8() uint8 {
	return v.raw[0]
}

func (v Value) Uint16() uint16 {
	return v.bo.Uint16(v.raw)
}

func (v Value) Uint32() uint32 {
	return v.bo.Uint32(v.raw)
}

func (v Value) Int32() int32 {
	return int32(v.bo.Uint32(v.raw))
}

// String returns a string field's contents up to its NUL terminator.
func (v Value) String() string {
	if i := bytes.IndexByte(v.raw, 0); i >= 0 {
		return string(v.raw[:i])
	}
	return string(v.raw)
}

// Degrees interprets the field as semicircles.
func (v Value) Degrees() float64 {
	return semicirclesToDegrees(v.Int32())
}

// Decoded is the parsed content of a course file.
type Decoded struct {
	ProfileVersion uint16
	Messages       []DecodedMessage
}

// ByGlobal returns the decoded messages with the given global number, in
// file order.
func (d *Decoded) ByGlobal(global uint16) []DecodedMessage {
	var out []DecodedMessage
	for _, m := range d.Messages {
		if m.Global == global {
			out = append(out, m)
		}
	}
	return out
}

type definition struct {
	global uint16
	bo     binary.ByteOrder
	fields []fieldDefinition
}

// Decode parses a FIT file, verifying the header and data CRCs.
func Decode(r io.Reader) (*Decoded, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrReadingInput, "reading course file")
	}
	if len(raw) < 16 {
		return nil, util.WrapErrorf(nil, util.ErrDecodingCourse, "file too short")
	}

	headerSize := int(raw[0])
	if headerSize != 14 {
		return nil, util.WrapErrorf(nil, util.ErrDecodingCourse,
			"unsupported header size %d", headerSize)
	}
	if string(raw[8:12]) != ".FIT" {
		return nil, util.WrapErrorf(nil, util.ErrDecodingCourse, "missing .FIT tag")
	}
	var headerCrc Crc
	headerCrc.AddBytes(raw[:12])
	if headerCrc.Sum() != binary.LittleEndian.Uint16(raw[12:14]) {
		return nil, util.WrapErrorf(nil, util.ErrDecodingCourse, "header checksum mismatch")
	}

	dataSize := int(binary.LittleEndian.Uint32(raw[4:8]))
	if len(raw) < 16+dataSize+2 {
		return nil, util.WrapErrorf(nil, util.ErrDecodingCourse,
			"truncated file: header declares %d data bytes", dataSize)
	}
	data := raw[16 : 16+dataSize]
	var dataCrc Crc
	dataCrc.AddBytes(data)
	if dataCrc.Sum() != binary.LittleEndian.Uint16(raw[16+dataSize:16+dataSize+2]) {
		return nil, util.WrapErrorf(nil, util.ErrDecodingCourse, "data checksum mismatch")
	}

	d := &Decoded{
		ProfileVersion: binary.LittleEndian.Uint16(raw[2:4]),
	}
	defs := make(map[uint8]definition)
	for off := 0; off < len(data); {
		hdr := data[off]
		off++
		if hdr&0x80 != 0 {
			return nil, util.WrapErrorf(nil, util.ErrDecodingCourse,
				"compressed timestamp headers are not supported")
		}
		local := hdr & 0x0F

		if hdr&0x40 != 0 {
			def, n, err := parseDefinition(data[off:])
			if err != nil {
				return nil, err
			}
			defs[local] = def
			off += n
			continue
		}

		def, ok := defs[local]
		if !ok {
			return nil, util.WrapErrorf(nil, util.ErrDecodingCourse,
				"data message for undefined local type %d", local)
		}
		msg := DecodedMessage{
			Global: def.global,
			Fields: make(map[uint8]Value, len(def.fields)),
		}
		for _, f := range def.fields {
			if off+int(f.size) > len(data) {
				return nil, util.WrapErrorf(nil, util.ErrDecodingCourse,
					"truncated data message for global type %d", def.global)
			}
			msg.Fields[f.number] = Value{
				baseType: f.baseType,
				raw:      data[off : off+int(f.size)],
				bo:       def.bo,
			}
			off += int(f.size)
		}
		d.Messages = append(d.Messages, msg)
	}
	return d, nil
}

func parseDefinition(data []byte) (definition, int, error) {
	if len(data) < 5 {
		return definition{}, 0, util.WrapErrorf(nil, util.ErrDecodingCourse,
			"truncated definition frame")
	}
	var bo binary.ByteOrder
	switch data[1] {
	case 0x00:
		bo = binary.LittleEndian
	case 0x01:
		bo = binary.BigEndian
	default:
		return definition{}, 0, util.WrapErrorf(nil, util.ErrDecodingCourse,
			"unknown architecture %#02x", data[1])
	}

	def := definition{
		global: bo.Uint16(data[2:4]),
		bo:     bo,
	}
	numFields := int(data[4])
	if len(data) < 5+3*numFields {
		return definition{}, 0, util.WrapErrorf(nil, util.ErrDecodingCourse,
			"truncated definition frame")
	}
	for i := 0; i < numFields; i++ {
		base := 5 + 3*i
		def.fields = append(def.fields, fieldDefinition{
			number:   data[base],
			size:     data[base+1],
			baseType: data[base+2],
		})
	}
	return def, 5 + 3*numFields, nil
}
