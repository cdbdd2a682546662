package journal

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Handler receives frames in sequence order. Returning an error stops the
// replay.
type Handler func(Entry) error

// Replay reads every segment in dir in order. A frame cut short at the end
// of a segment is a torn write from a crash and ends that segment; a CRC
// mismatch or a sequence that does not increase is an error.
func Replay(dir string, fn Handler) (lastSeq int64, err error) {
	files, err := segments(dir)
	if err != nil {
		return 0, err
	}

	var buf []byte
	for _, path := range files {
		lastSeq, buf, err = replaySegment(path, lastSeq, buf, fn)
		if err != nil {
			return lastSeq, err
		}
	}
	return lastSeq, nil
}

func replaySegment(path string, lastSeq int64, buf []byte, fn Handler) (int64, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return lastSeq, buf, err
	}
	defer f.Close()

	fr := frameReader{r: f, buf: buf}
	for {
		e, err := fr.next()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return lastSeq, fr.buf, nil
			}
			return lastSeq, fr.buf, fmt.Errorf("%s: %w", path, err)
		}

		if e.Seq <= lastSeq {
			return lastSeq, fr.buf, fmt.Errorf("%w: %d after %d in %s", ErrNonMonotonic, e.Seq, lastSeq, path)
		}
		lastSeq = e.Seq

		if err := fn(e); err != nil {
			return lastSeq, fr.buf, err
		}
	}
}
