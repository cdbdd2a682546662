// Package wire holds the pieces shared by every fixed-layout record codec:
// the layout table (field name -> offset, width, encoding) and the
// bounds-checked byte region that all encoders, decoders and direct
// accessors read and write through.
//
// A Layout is validated once when it is built. After that, every typed
// accessor on a Region is a fixed-offset big-endian load or store with no
// lookup and no allocation; the only runtime bounds check happens when a
// Region is windowed out of a caller's buffer.
//
// Regions are not synchronized. Two goroutines must not encode into and
// decode from the same bytes at the same time.
package wire
