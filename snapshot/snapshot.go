package snapshot

import (
	"errors"
	"fmt"
	"time"

	"hftwire/codec/order"
	"hftwire/infra/store"
)

var ErrMismatch = errors.New("snapshot: records do not match header")

// Snapshot is gob-encoded. Records is a packed order batch of Count
// records, exactly as the codec lays them out.
type Snapshot struct {
	Seq int64
	// QuoteSeq is the last market-data sequence number handed out, so
	// quote sequencing survives journal truncation.
	QuoteSeq int64
	Created  time.Time
	Layout   string
	Count    int
	Records  []byte
}

func (s *Snapshot) validate() error {
	if s.Layout != order.Layout().Name() {
		return fmt.Errorf("%w: layout %q", ErrMismatch, s.Layout)
	}
	if len(s.Records) != s.Count*order.RecordSize {
		return fmt.Errorf("%w: %d bytes for %d records", ErrMismatch, len(s.Records), s.Count)
	}
	return nil
}

// Record returns a view of the i-th record.
func (s *Snapshot) Record(i int) (order.Record, error) {
	return order.View(s.Records, i*order.RecordSize)
}

// Apply puts every record into st and returns how many were written.
func (s *Snapshot) Apply(st *store.Store) (int, error) {
	for i := 0; i < s.Count; i++ {
		rec, err := s.Record(i)
		if err != nil {
			return i, err
		}
		if err := st.Put(rec.Bytes()); err != nil {
			return i, err
		}
	}
	return s.Count, nil
}
