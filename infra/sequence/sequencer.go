package sequence

import "sync/atomic"

// Sequencer issues strictly increasing int64 sequence numbers. Market-data
// records carry them in their sequenceNumber field and the journal stamps
// every frame with one.
type Sequencer struct {
	last atomic.Int64
}

// New creates a sequencer whose first Next returns start+1.
// On fresh start → start = 0
// On replay → start = last replayed seq
func New(start int64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(start)
	return s
}

func (s *Sequencer) Next() int64 {
	return s.last.Add(1)
}

// Block reserves n consecutive numbers and returns the first. A batch of
// quotes takes its numbers with a single atomic add.
func (s *Sequencer) Block(n int) int64 {
	if n <= 0 {
		return s.last.Load() + 1
	}
	return s.last.Add(int64(n)) - int64(n) + 1
}

// Current returns the last issued sequence.
func (s *Sequencer) Current() int64 {
	return s.last.Load()
}

// Observe advances the sequencer to at least v. Replay feeds every
// journaled sequence through it.
func (s *Sequencer) Observe(v int64) {
	for {
		cur := s.last.Load()
		if v <= cur || s.last.CompareAndSwap(cur, v) {
			return
		}
	}
}

// Reset sets the sequencer to a specific value.
// This is ONLY used after journal replay.
func (s *Sequencer) Reset(v int64) {
	s.last.Store(v)
}
