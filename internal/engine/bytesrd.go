package engine

import "encoding/binary"

// byteReader is a bounded, little-endian cursor over a byte slice. All
// accessors return ok=false instead of panicking when the read would run
// past the end of the buffer, so callers can terminate traversal on
// truncated input rather than recovering from a panic.
type byteReader struct {
	data []byte
	pos  int
}

func newByteReader(data []byte) *byteReader {
	return &byteReader{data: data}
}

func (r *byteReader) remaining() int { return len(r.data) - r.pos }

func (r *byteReader) u8() (byte, bool) {
	if r.pos+1 > len(r.data) {
		return 0, false
	}
	v := r.data[r.pos]
	r.pos++
	return v, true
}

func (r *byteReader) u16() (uint16, bool) {
	if r.pos+2 > len(r.data) {
		return 0, false
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos : r.pos+2])
	r.pos += 2
	return v, true
}

func (r *byteReader) u32() (uint32, bool) {
	if r.pos+4 > len(r.data) {
		return 0, false
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos : r.pos+4])
	r.pos += 4
	return v, true
}

func (r *byteReader) i32() (int32, bool) {
	v, ok := r.u32()
	return int32(v), ok
}

func (r *byteReader) bytes(n int) ([]byte, bool) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, false
	}
	v := r.data[r.pos : r.pos+n]
	r.pos += n
	return v, true
}

func (r *byteReader) skip(n int) bool {
	if n < 0 || r.pos+n > len(r.data) {
		return false
	}
	r.pos += n
	return true
}

// le16 and le32 read little-endian integers directly out of a slice at a
// given offset without a cursor, for call sites that already validated
// bounds (e.g. fixed-layout header fields).
func le16(b []byte, off int) uint16 { return binary.LittleEndian.Uint16(b[off : off+2]) }
func le32(b []byte, off int) uint32 { return binary.LittleEndian.Uint32(b[off : off+4]) }
