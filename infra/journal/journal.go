package journal

import (
	"os"
	"sync"
	"time"

	"hftwire/infra/sequence"
)

type Config struct {
	Dir             string
	SegmentSize     int64
	SegmentDuration time.Duration
	// SyncEveryAppend fsyncs after each frame.
	SyncEveryAppend bool
	Clock           sequence.Clock
}

// Journal is an append-only log of framed records split into numbered
// segments. Append is safe for concurrent use.
type Journal struct {
	mu  sync.Mutex
	cfg Config

	seq        *sequence.Sequencer
	clock      sequence.Clock
	current    *segment
	lastRotate time.Time
	scratch    []byte
	closed     bool

	wmMu      sync.Mutex
	watermark int64
}

// Open resumes the journal in dir. Appends go to a fresh segment after the
// highest existing one so a torn tail is never extended, and sequence
// numbers continue from the highest one on disk or in the truncation
// watermark, whichever is greater.
func Open(cfg Config) (*Journal, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = sequence.NewMonotonicClock()
	}

	files, err := segments(cfg.Dir)
	if err != nil {
		return nil, err
	}

	wm, err := readWatermark(cfg.Dir)
	if err != nil {
		return nil, err
	}
	last := wm
	next := 0
	if len(files) > 0 {
		tail := files[len(files)-1]
		idx, err := segmentIndex(tail)
		if err != nil {
			return nil, err
		}
		next = idx + 1
		for _, path := range files {
			top, err := maxSeqInSegment(path)
			if err != nil {
				return nil, err
			}
			last = max(last, top)
		}
	}

	seg, err := openSegment(cfg.Dir, next)
	if err != nil {
		return nil, err
	}

	return &Journal{
		cfg:        cfg,
		seq:        sequence.New(last),
		clock:      cfg.Clock,
		current:    seg,
		lastRotate: time.Now(),
		scratch:    make([]byte, 0, 4096),
		watermark:  wm,
	}, nil
}

// Append writes payload as one frame and returns its sequence number.
func (j *Journal) Append(kind Kind, payload []byte) (int64, error) {
	if len(payload) > MaxPayload {
		return 0, ErrPayloadTooBig
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return 0, ErrClosed
	}

	seq := j.seq.Next()
	j.scratch = appendFrame(j.scratch[:0], Entry{
		Kind:    kind,
		Seq:     seq,
		Time:    j.clock.Nanos(),
		Payload: payload,
	})

	if err := j.current.append(j.scratch); err != nil {
		return 0, err
	}
	if j.cfg.SyncEveryAppend {
		if err := j.current.sync(); err != nil {
			return 0, err
		}
	}

	if j.shouldRotate() {
		if err := j.rotate(); err != nil {
			return seq, err
		}
	}
	return seq, nil
}

func (j *Journal) shouldRotate() bool {
	if j.cfg.SegmentSize > 0 && j.current.offset >= j.cfg.SegmentSize {
		return true
	}
	return j.cfg.SegmentDuration > 0 && time.Since(j.lastRotate) >= j.cfg.SegmentDuration
}

func (j *Journal) rotate() error {
	if err := j.current.sync(); err != nil {
		return err
	}
	_ = j.current.close()

	seg, err := openSegment(j.cfg.Dir, j.current.index+1)
	if err != nil {
		return err
	}
	j.current = seg
	j.lastRotate = time.Now()
	return nil
}

// LastSeq is the sequence of the most recent frame.
func (j *Journal) LastSeq() int64 {
	return j.seq.Current()
}

func (j *Journal) Dir() string { return j.cfg.Dir }

func (j *Journal) Sync() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}
	return j.current.sync()
}

// TruncateBefore removes closed segments whose frames all have sequence
// <= seq. The active segment is never removed. The highest removed
// sequence is persisted first so a reopened journal never reuses it.
func (j *Journal) TruncateBefore(seq int64) (removed int, err error) {
	j.mu.Lock()
	active := j.current.index
	j.mu.Unlock()

	files, err := segments(j.cfg.Dir)
	if err != nil {
		return 0, err
	}

	var doomed []string
	var high int64
	for _, path := range files {
		idx, err := segmentIndex(path)
		if err != nil || idx >= active {
			continue
		}
		top, err := maxSeqInSegment(path)
		if err != nil {
			continue
		}
		if top <= seq {
			doomed = append(doomed, path)
			high = max(high, top)
		}
	}
	if len(doomed) == 0 {
		return 0, nil
	}

	j.wmMu.Lock()
	defer j.wmMu.Unlock()
	if high > j.watermark {
		if err := writeWatermark(j.cfg.Dir, high); err != nil {
			return 0, err
		}
		j.watermark = high
	}

	for _, path := range doomed {
		if err := os.Remove(path); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	if err := j.current.sync(); err != nil {
		_ = j.current.close()
		return err
	}
	return j.current.close()
}
