package memory

import "sync"

// Pool is a typed sync.Pool.
type Pool[T any] struct {
	p *sync.Pool
}

func NewPool[T any](ctor func() *T) *Pool[T] {
	return &Pool[T]{
		p: &sync.Pool{
			New: func() any { return ctor() },
		},
	}
}

func (p *Pool[T]) Get() *T {
	return p.p.Get().(*T)
}

func (p *Pool[T]) Put(v *T) {
	p.p.Put(v)
}

// Buffers hands out scratch slices sized in whole records. Get and Put
// pass *[]byte so the slice header does not escape on every round trip.
type Buffers struct {
	recordSize int
	pool       *Pool[[]byte]
}

// NewBuffers pools buffers that start with room for records records.
func NewBuffers(recordSize, records int) *Buffers {
	if recordSize <= 0 || records <= 0 {
		panic("memory.Buffers: record size and count must be positive")
	}
	return &Buffers{
		recordSize: recordSize,
		pool: NewPool(func() *[]byte {
			b := make([]byte, 0, recordSize*records)
			return &b
		}),
	}
}

func (b *Buffers) RecordSize() int { return b.recordSize }

// Get returns a buffer of exactly n records. Its contents are undefined;
// encoders overwrite every byte.
func (b *Buffers) Get(n int) *[]byte {
	buf := b.pool.Get()
	need := n * b.recordSize
	if cap(*buf) < need {
		*buf = make([]byte, need)
	}
	*buf = (*buf)[:need]
	return buf
}

func (b *Buffers) Put(buf *[]byte) {
	if buf == nil {
		return
	}
	*buf = (*buf)[:0]
	b.pool.Put(buf)
}
