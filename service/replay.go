package service

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"hftwire/codec/marketdata"
	"hftwire/infra/journal"
	"hftwire/infra/logger"
	"hftwire/infra/sequence"
	"hftwire/infra/store"
	"hftwire/snapshot"
)

// ReplayTarget says what a journal replay rebuilds. A nil field skips
// that kind of frame.
type ReplayTarget struct {
	// Orders receives the last journaled image of every order.
	Orders *store.Store
	// Quotes is advanced past every journaled quote sequence number.
	Quotes *sequence.Sequencer
	// FromSeq skips order frames at or below it, those already covered
	// by a restored snapshot. Quote frames are never skipped.
	FromSeq int64
}

type ReplayStats struct {
	LastSeq int64
	Orders  int
	Quotes  int
	Skipped int
}

/*
ReplayFromJournal rebuilds state from the journal.

IMPORTANT:
- This MUST run before accepting traffic
- Order images are applied in journal order, so the last one wins
- The outbox is NOT repopulated
*/
func ReplayFromJournal(dir string, t ReplayTarget, log *zap.Logger) (ReplayStats, error) {
	log = logger.OrNop(log)

	var stats ReplayStats
	last, err := journal.Replay(dir, func(e journal.Entry) error {
		switch e.Kind {
		case journal.KindOrder:
			if t.Orders == nil {
				return nil
			}
			if e.Seq <= t.FromSeq {
				stats.Skipped++
				return nil
			}
			if err := t.Orders.Put(e.Payload); err != nil {
				return fmt.Errorf("replay order at seq %d: %w", e.Seq, err)
			}
			stats.Orders++

		case journal.KindQuotes:
			size := marketdata.RecordSize
			if len(e.Payload)%size != 0 || len(e.Payload) == 0 {
				return fmt.Errorf("replay quotes at seq %d: %w", e.Seq, ErrRaggedBatch)
			}
			n := len(e.Payload) / size
			if t.Quotes != nil {
				seq, err := marketdata.SequenceAt(e.Payload, (n-1)*size)
				if err != nil {
					return err
				}
				t.Quotes.Observe(seq)
			}
			stats.Quotes += n

		default:
			log.Warn("unknown journal frame", zap.Stringer("kind", e.Kind), zap.Int64("seq", e.Seq))
		}
		return nil
	})
	stats.LastSeq = last
	if err != nil {
		return stats, err
	}

	log.Info("journal replay completed",
		zap.Int64("last_seq", last),
		zap.Int("orders", stats.Orders),
		zap.Int("quotes", stats.Quotes),
		zap.Int("skipped", stats.Skipped),
	)
	return stats, nil
}

// storeEmpty reports whether st holds no order records.
func storeEmpty(st *store.Store) (bool, error) {
	empty := true
	err := st.Scan(func(int64, []byte) error {
		empty = false
		return errStopScan
	})
	if errors.Is(err, errStopScan) {
		err = nil
	}
	return empty, err
}

var errStopScan = errors.New("stop scan")

// Recover prepares the order store and quote sequencer at startup. An
// empty store is rebuilt from the newest snapshot plus the journal frames
// after it. A populated store is already ahead of the journal, so only
// quote sequencing is recovered.
func Recover(st *store.Store, snapshotDir, journalDir string, quotes *sequence.Sequencer, log *zap.Logger) (ReplayStats, error) {
	log = logger.OrNop(log)

	empty, err := storeEmpty(st)
	if err != nil {
		return ReplayStats{}, err
	}

	snap, err := snapshot.Latest(snapshotDir)
	if err != nil {
		return ReplayStats{}, fmt.Errorf("load snapshot: %w", err)
	}

	t := ReplayTarget{Quotes: quotes}
	if snap != nil && quotes != nil {
		quotes.Observe(snap.QuoteSeq)
	}
	if empty {
		t.Orders = st
		if snap != nil {
			n, err := snap.Apply(st)
			if err != nil {
				return ReplayStats{}, fmt.Errorf("restore snapshot: %w", err)
			}
			t.FromSeq = snap.Seq
			log.Info("snapshot restored", zap.Int64("seq", snap.Seq), zap.Int("orders", n))
		}
	}
	return ReplayFromJournal(journalDir, t, log)
}
