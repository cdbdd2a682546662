package journal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

const (
	segmentGlob = "segment-*.jrn"
	// watermarkName holds the highest sequence ever truncated away, so
	// numbering survives the removal of every closed segment.
	watermarkName = "watermark"
)

func segmentPath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("segment-%06d.jrn", index))
}

// segments lists segment files in index order.
func segments(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, segmentGlob))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func segmentIndex(path string) (int, error) {
	var idx int
	if _, err := fmt.Sscanf(filepath.Base(path), "segment-%06d.jrn", &idx); err != nil {
		return 0, fmt.Errorf("journal: bad segment name %q: %w", path, err)
	}
	return idx, nil
}

type segment struct {
	file   *os.File
	index  int
	offset int64
}

func openSegment(dir string, index int) (*segment, error) {
	f, err := os.OpenFile(segmentPath(dir, index), os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &segment{file: f, index: index, offset: st.Size()}, nil
}

func (s *segment) append(b []byte) error {
	n, err := s.file.Write(b)
	s.offset += int64(n)
	return err
}

func (s *segment) sync() error {
	return s.file.Sync()
}

func (s *segment) close() error {
	return s.file.Close()
}

// maxSeqInSegment scans a segment and returns the highest sequence found.
// A torn tail ends the scan without error.
func maxSeqInSegment(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	fr := frameReader{r: f}
	var max int64
	for {
		e, err := fr.next()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return max, nil
			}
			return max, err
		}
		if e.Seq > max {
			max = e.Seq
		}
	}
}

// readWatermark returns 0 when no segment was ever truncated.
func readWatermark(dir string) (int64, error) {
	raw, err := os.ReadFile(filepath.Join(dir, watermarkName))
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("%w: watermark is %d bytes", ErrCorrupt, len(raw))
	}
	return int64(binary.BigEndian.Uint64(raw)), nil
}

// writeWatermark replaces the watermark via tmp + fsync + rename.
func writeWatermark(dir string, seq int64) error {
	var raw [8]byte
	binary.BigEndian.PutUint64(raw[:], uint64(seq))

	tmp := filepath.Join(dir, watermarkName+".tmp")
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(raw[:]); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(dir, watermarkName))
}
