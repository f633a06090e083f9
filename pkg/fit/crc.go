// Package fit encodes Garmin FIT course files.
//
// A course file is a 14-byte header followed by self-describing message
// frames and a trailing CRC. Messages are accumulated in a set, validated
// against the course-file profile's ordering and minimum-content rules, and
// serialized in one pass.
package fit

import "io"

// crcTable drives Garmin's 16-bit FIT checksum, per the reference
// implementation at https://developer.garmin.com/fit/protocol/
var crcTable = [16]uint16{
	0x0000, 0xCC01, 0xD801, 0x1400, 0xF001, 0x3C00, 0x2800, 0xE401,
	0xA001, 0x6C00, 0x7800, 0xB401, 0x5000, 0x9C01, 0x8801, 0x4400,
}

// Crc accumulates the FIT checksum. The zero value is ready to use; the
// starting sum is zero.
type Crc struct {
	sum uint16
}

func (c *Crc) AddByte(b byte) {
	// lower four bits
	tmp := crcTable[c.sum&0x0F]
	c.sum = (c.sum >> 4) & 0x0FFF
	c.sum = c.sum ^ tmp ^ crcTable[b&0x0F]

	// upper four bits
	tmp = crcTable[c.sum&0x0F]
	c.sum = (c.sum >> 4) & 0x0FFF
	c.sum = c.sum ^ tmp ^ crcTable[b>>4]
}

func (c *Crc) AddBytes(p []byte) {
	for _, b := range p {
		c.AddByte(b)
	}
}

func (c *Crc) Sum() uint16 {
	return c.sum
}

// crcWriter wraps a Writer and checksums everything written through it.
type crcWriter struct {
	crc  Crc
	base io.Writer
	n    int
}

func newCrcWriter(base io.Writer) *crcWriter {
	return &crcWriter{base: base}
}

func (w *crcWriter) Write(p []byte) (int, error) {
	w.crc.AddBytes(p)
	w.n += len(p)
	return w.base.Write(p)
}

// finish appends the accumulated CRC, little endian, to the stream.
func (w *crcWriter) finish() (int, error) {
	sum := w.crc.Sum()
	if _, err := w.base.Write([]byte{byte(sum), byte(sum >> 8)}); err != nil {
		return w.n, err
	}
	return w.n, nil
}
