package wire

import (
	"encoding/binary"
	"math"
)

// TextPolicy decides what PutText does with a value wider than its field.
type TextPolicy uint8

const (
	// Truncate keeps the first Width bytes and reports how many were dropped.
	Truncate TextPolicy = iota
	// Reject leaves the field untouched and returns *FieldWidthOverflowError.
	Reject
)

func (p TextPolicy) String() string {
	if p == Reject {
		return "reject"
	}
	return "truncate"
}

// Region is one record's bytes, obtained from Layout.Window. Field reads
// and writes index straight into it; the window already guarantees every
// field of the layout is in range.
type Region []byte

func (r Region) Int64(f Field) int64 {
	return int64(binary.BigEndian.Uint64(r[f.Offset:]))
}

func (r Region) PutInt64(f Field, v int64) {
	binary.BigEndian.PutUint64(r[f.Offset:], uint64(v))
}

func (r Region) Int32(f Field) int32 {
	return int32(binary.BigEndian.Uint32(r[f.Offset:]))
}

func (r Region) PutInt32(f Field, v int32) {
	binary.BigEndian.PutUint32(r[f.Offset:], uint32(v))
}

func (r Region) Float64(f Field) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(r[f.Offset:]))
}

func (r Region) PutFloat64(f Field, v float64) {
	binary.BigEndian.PutUint64(r[f.Offset:], math.Float64bits(v))
}

func (r Region) Tag(f Field) byte { return r[f.Offset] }

func (r Region) PutTag(f Field, v byte) { r[f.Offset] = v }

// Text returns the field with trailing NUL and whitespace trimmed. The
// slice aliases the region.
func (r Region) Text(f Field) []byte {
	b := r[f.Offset:f.End()]
	n := len(b)
	for n > 0 && b[n-1] <= ' ' {
		n--
	}
	return b[:n]
}

// PutText copies s into the field and zero-pads the rest. Bytes are copied
// verbatim; callers supply ASCII.
func (r Region) PutText(f Field, s string, p TextPolicy) (dropped int, err error) {
	if len(s) > f.Width && p == Reject {
		return 0, &FieldWidthOverflowError{Field: f.Name, Width: f.Width, Len: len(s)}
	}
	dst := r[f.Offset:f.End()]
	n := copy(dst, s)
	clear(dst[n:])
	return len(s) - n, nil
}

// Zero clears a single field.
func (r Region) Zero(f Field) { clear(r[f.Offset:f.End()]) }

// Clear zeroes the whole record.
func (r Region) Clear() { clear(r) }
