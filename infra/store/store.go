// Package store keeps order records in pebble as their raw 64-byte wire
// image, next to an outbox that tracks which records still need to be
// broadcast.
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"hftwire/codec/order"
)

var (
	ErrNotFound     = errors.New("store: order not found")
	ErrExists       = errors.New("store: order already exists")
	ErrRecordLength = errors.New("store: record is not one order record long")
)

type options struct {
	fs vfs.FS
}

type Option func(*options)

// InMemory backs the store with pebble's in-memory filesystem.
func InMemory() Option {
	return func(o *options) { o.fs = vfs.NewMem() }
}

// Store is safe for concurrent use. Read-modify-write operations on a
// record are serialized.
type Store struct {
	db *pebble.DB
	mu sync.Mutex
}

func Open(dir string, opts ...Option) (*Store, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	po := &pebble.Options{}
	if o.fs != nil {
		po.FS = o.fs
	}
	db, err := pebble.Open(dir, po)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func checkLen(rec []byte) error {
	if len(rec) != order.RecordSize {
		return fmt.Errorf("%w: got %d bytes", ErrRecordLength, len(rec))
	}
	return nil
}

func idOf(rec []byte) (int64, error) {
	if err := checkLen(rec); err != nil {
		return 0, err
	}
	return order.OrderIDAt(rec, 0)
}

// Insert stores a new record and queues it for broadcast. The order id is
// read from the record itself.
func (s *Store) Insert(rec []byte) (int64, error) {
	id, err := idOf(rec)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, closer, err := s.db.Get(key(orderPrefix, id))
	if err == nil {
		closer.Close()
		return id, fmt.Errorf("%w: %d", ErrExists, id)
	}
	if !errors.Is(err, pebble.ErrNotFound) {
		return id, err
	}

	return id, s.commit(id, rec, true)
}

// Put upserts a record without touching the outbox. Restore and replay
// use it.
func (s *Store) Put(rec []byte) error {
	id, err := idOf(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(id, rec, false)
}

func (s *Store) commit(id int64, rec []byte, outbox bool) error {
	b := s.db.NewBatch()
	defer b.Close()

	if err := b.Set(key(orderPrefix, id), rec, nil); err != nil {
		return err
	}
	if outbox {
		if err := b.Set(key(outboxPrefix, id), encodeOutbox(OutboxEntry{State: OutboxNew}), nil); err != nil {
			return err
		}
	}
	return b.Commit(pebble.Sync)
}

// Get copies the record for id into dst, which must be one record long.
func (s *Store) Get(id int64, dst []byte) error {
	if err := checkLen(dst); err != nil {
		return err
	}
	val, closer, err := s.db.Get(key(orderPrefix, id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return err
	}
	defer closer.Close()

	if err := checkLen(val); err != nil {
		return err
	}
	copy(dst, val)
	return nil
}

// Update loads the record for id, lets fn mutate it in place, and persists
// the result with a fresh outbox entry. If fn fails nothing is written.
// dst receives the record image as fn left it and must be one record long.
func (s *Store) Update(id int64, dst []byte, fn func(order.Record) error) error {
	if err := checkLen(dst); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Get(id, dst); err != nil {
		return err
	}
	rec, err := order.View(dst, 0)
	if err != nil {
		return err
	}
	if err := fn(rec); err != nil {
		return err
	}
	return s.commit(id, dst, true)
}

// Scan visits every stored record in key order. rec is only valid during
// the call.
func (s *Store) Scan(fn func(id int64, rec []byte) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: orderPrefix,
		UpperBound: upperBound(orderPrefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		id, err := parseKey(orderPrefix, iter.Key())
		if err != nil {
			return err
		}
		if err := fn(id, iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// -------------------- Outbox --------------------

func (s *Store) Outbox(id int64) (OutboxEntry, error) {
	val, closer, err := s.db.Get(key(outboxPrefix, id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return OutboxEntry{}, fmt.Errorf("%w: outbox %d", ErrNotFound, id)
		}
		return OutboxEntry{}, err
	}
	defer closer.Close()
	return decodeOutbox(val)
}

// MarkOutbox records a delivery attempt.
func (s *Store) MarkOutbox(id int64, state OutboxState, retries uint32) error {
	e := OutboxEntry{
		State:       state,
		Retries:     retries,
		LastAttempt: time.Now().UnixNano(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Set(key(outboxPrefix, id), encodeOutbox(e), pebble.Sync)
}

// AckOutbox removes an entry marked SENT. A record mutated after it was
// marked has a fresh NEW entry, which is kept for the next delivery.
func (s *Store) AckOutbox(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.Outbox(id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if cur.State != OutboxSent {
		return nil
	}
	return s.db.Delete(key(outboxPrefix, id), pebble.Sync)
}

// ScanOutbox visits outbox entries in any of the given states.
func (s *Store) ScanOutbox(fn func(id int64, e OutboxEntry) error, states ...OutboxState) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: outboxPrefix,
		UpperBound: upperBound(outboxPrefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		e, err := decodeOutbox(iter.Value())
		if err != nil {
			return err
		}
		if !stateIn(e.State, states) {
			continue
		}
		id, err := parseKey(outboxPrefix, iter.Key())
		if err != nil {
			return err
		}
		if err := fn(id, e); err != nil {
			return err
		}
	}
	return iter.Error()
}

func stateIn(s OutboxState, states []OutboxState) bool {
	if len(states) == 0 {
		return true
	}
	for _, st := range states {
		if s == st {
			return true
		}
	}
	return false
}
