package journal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// Kind tags what a frame's payload holds.
type Kind uint8

const (
	// KindOrder carries the full image of one order record after a
	// placement or mutation. Replay keeps the last image per order id.
	KindOrder Kind = iota + 1
	// KindQuotes carries a packed market-data batch.
	KindQuotes
)

func (k Kind) String() string {
	switch k {
	case KindOrder:
		return "order"
	case KindQuotes:
		return "quotes"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Frame:
// [kind:1][seq:8][time:8][len:4][payload][crc:4]
const (
	headerSize  = 1 + 8 + 8 + 4
	trailerSize = 4
	// MaxPayload bounds a single frame so a corrupt length cannot force a
	// huge allocation during replay.
	MaxPayload = 64 << 20
)

var (
	ErrCorrupt       = errors.New("journal: corrupt frame")
	ErrNonMonotonic  = errors.New("journal: non-monotonic sequence")
	ErrClosed        = errors.New("journal: closed")
	ErrPayloadTooBig = errors.New("journal: payload too large")
)

// Entry is one decoded frame. Payload aliases the replay buffer and is
// only valid for the duration of the handler call.
type Entry struct {
	Kind    Kind
	Seq     int64
	Time    int64
	Payload []byte
}

func checksum(b []byte) uint32 {
	return crc32.ChecksumIEEE(b)
}

// appendFrame encodes e onto dst.
func appendFrame(dst []byte, e Entry) []byte {
	n := len(dst)
	need := headerSize + len(e.Payload) + trailerSize
	if cap(dst)-n < need {
		grown := make([]byte, n, n+need)
		copy(grown, dst)
		dst = grown
	}
	dst = dst[:n+need]
	f := dst[n:]

	f[0] = byte(e.Kind)
	binary.BigEndian.PutUint64(f[1:9], uint64(e.Seq))
	binary.BigEndian.PutUint64(f[9:17], uint64(e.Time))
	binary.BigEndian.PutUint32(f[17:21], uint32(len(e.Payload)))
	copy(f[headerSize:], e.Payload)

	end := headerSize + len(e.Payload)
	binary.BigEndian.PutUint32(f[end:], checksum(f[:end]))
	return dst
}

// frameReader decodes frames from one segment reusing a single buffer.
type frameReader struct {
	r   io.Reader
	buf []byte
}

// next returns io.EOF at a clean frame boundary and io.ErrUnexpectedEOF
// when the segment ends inside a frame.
func (fr *frameReader) next() (Entry, error) {
	if cap(fr.buf) < headerSize {
		fr.buf = make([]byte, headerSize, 4096)
	}
	hdr := fr.buf[:headerSize]
	if _, err := io.ReadFull(fr.r, hdr); err != nil {
		return Entry{}, err
	}

	l := binary.BigEndian.Uint32(hdr[17:21])
	if l > MaxPayload {
		return Entry{}, fmt.Errorf("%w: payload length %d", ErrCorrupt, l)
	}

	total := headerSize + int(l) + trailerSize
	if cap(fr.buf) < total {
		grown := make([]byte, total)
		copy(grown, hdr)
		fr.buf = grown
	}
	frame := fr.buf[:total]
	if _, err := io.ReadFull(fr.r, frame[headerSize:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Entry{}, err
	}

	end := headerSize + int(l)
	if checksum(frame[:end]) != binary.BigEndian.Uint32(frame[end:]) {
		return Entry{}, fmt.Errorf("%w: crc mismatch", ErrCorrupt)
	}

	return Entry{
		Kind:    Kind(frame[0]),
		Seq:     int64(binary.BigEndian.Uint64(frame[1:9])),
		Time:    int64(binary.BigEndian.Uint64(frame[9:17])),
		Payload: frame[headerSize:end],
	}, nil
}
