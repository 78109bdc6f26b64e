package codec

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// reader is a little-endian cursor over a packet body. The first failed read
// latches a ShortReadError; subsequent reads return zero values so decoders
// can stay branch-free and check r.err once at the end.
type reader struct {
	data []byte
	off  int
	err  error
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.off+n > len(r.data) {
		r.err = &ShortReadError{Offset: r.off, Want: n, Have: len(r.data) - r.off}
		return false
	}
	return true
}

func (r *reader) u8() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

func (r *reader) i8() int8 {
	return int8(r.u8())
}

func (r *reader) u16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

func (r *reader) i16() int16 {
	return int16(r.u16())
}

func (r *reader) u32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

func (r *reader) u64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v
}

// f32 decodes an IEEE-754 32-bit float. NaN and infinities are mapped to zero
// at this edge so they never propagate into the race model or analytics.
func (r *reader) f32() float32 {
	if !r.need(4) {
		return 0
	}
	bits := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	v := math.Float32frombits(bits)
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return 0
	}
	return v
}

// f64 decodes an IEEE-754 64-bit float with the same NaN/Inf sanitation as f32.
func (r *reader) f64() float64 {
	if !r.need(8) {
		return 0
	}
	bits := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	v := math.Float64frombits(bits)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// skip advances past n bytes the caller does not surface.
func (r *reader) skip(n int) {
	if r.need(n) {
		r.off += n
	}
}

// ascii4 reads a 4-byte ASCII code such as an event string code.
func (r *reader) ascii4() string {
	if !r.need(4) {
		return ""
	}
	v := string(r.data[r.off : r.off+4])
	r.off += 4
	return v
}

// str reads a fixed-length NUL-padded string field. The result is trimmed at
// the first NUL and validated as UTF-8; invalid bytes fall back to a Latin-1
// reinterpretation.
func (r *reader) str(n int) string {
	if !r.need(n) {
		return ""
	}
	raw := r.data[r.off : r.off+n]
	r.off += n

	end := len(raw)
	for i, b := range raw {
		if b == 0 {
			end = i
			break
		}
	}
	raw = raw[:end]

	if utf8.Valid(raw) {
		return string(raw)
	}
	return latin1ToString(raw)
}

func latin1ToString(raw []byte) string {
	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return string(runes)
}
