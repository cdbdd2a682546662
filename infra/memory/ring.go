package memory

import "sync/atomic"

// RecordRing is a lock-free SPSC queue of fixed-size records. The
// producer encodes into Reserve and calls Commit; the consumer reads Peek
// and calls Release. Exactly one goroutine may produce and exactly one
// may consume.
type RecordRing struct {
	head  atomic.Uint64 // next slot the producer commits
	_pad1 [56]byte
	tail  atomic.Uint64 // next slot the consumer releases
	_pad2 [56]byte
	arena []byte
	size  int
	mask  uint64
	slots uint64
}

func NewRecordRing(slots uint64, recordSize int) *RecordRing {
	if slots == 0 || slots&(slots-1) != 0 {
		panic("RecordRing slots must be a power of two")
	}
	if recordSize <= 0 {
		panic("RecordRing record size must be positive")
	}
	return &RecordRing{
		arena: make([]byte, int(slots)*recordSize),
		size:  recordSize,
		mask:  slots - 1,
		slots: slots,
	}
}

func (r *RecordRing) slot(i uint64) []byte {
	off := int(i&r.mask) * r.size
	return r.arena[off : off+r.size : off+r.size]
}

// Reserve returns the next free slot, or nil when the ring is full. The
// slot is not visible to the consumer until Commit.
func (r *RecordRing) Reserve() []byte {
	h := r.head.Load()
	if h-r.tail.Load() == r.slots {
		return nil
	}
	return r.slot(h)
}

// Commit publishes the slot returned by the last Reserve.
func (r *RecordRing) Commit() {
	r.head.Add(1)
}

// Peek returns the oldest committed slot, or nil when empty.
func (r *RecordRing) Peek() []byte {
	t := r.tail.Load()
	if t == r.head.Load() {
		return nil
	}
	return r.slot(t)
}

// Release hands the slot returned by Peek back to the producer.
func (r *RecordRing) Release() {
	r.tail.Add(1)
}

// Len is the number of committed, unreleased records.
func (r *RecordRing) Len() int {
	return int(r.head.Load() - r.tail.Load())
}

func (r *RecordRing) Cap() int { return int(r.slots) }
