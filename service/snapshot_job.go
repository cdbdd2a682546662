package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"hftwire/infra/journal"
	"hftwire/infra/logger"
	"hftwire/infra/sequence"
	"hftwire/infra/store"
	"hftwire/snapshot"
)

// SnapshotJob periodically dumps the order store and drops journal
// segments the dump covers.
type SnapshotJob struct {
	writer  *snapshot.Writer
	store   *store.Store
	journal *journal.Journal
	quotes  *sequence.Sequencer
	log     *zap.Logger
}

func NewSnapshotJob(dir string, st *store.Store, j *journal.Journal, quotes *sequence.Sequencer, log *zap.Logger) *SnapshotJob {
	return &SnapshotJob{
		writer:  &snapshot.Writer{Dir: dir},
		store:   st,
		journal: j,
		quotes:  quotes,
		log:     logger.OrNop(log).Named("snapshot"),
	}
}

// RunOnce writes one snapshot and truncates the journal up to it.
//
// The journal sequence is read before the scan: every frame at or below
// it is already in the store, so the snapshot is never behind its tag.
func (s *SnapshotJob) RunOnce() (string, error) {
	seq := s.journal.LastSeq()
	var quoteSeq int64
	if s.quotes != nil {
		quoteSeq = s.quotes.Current()
	}

	path, err := s.writer.Write(seq, quoteSeq, s.store)
	if err != nil {
		return "", err
	}

	removed, err := s.journal.TruncateBefore(seq)
	if err != nil {
		return path, err
	}
	s.log.Info("snapshot written", zap.String("path", path), zap.Int64("seq", seq), zap.Int("segments_removed", removed))
	return path, nil
}

func (s *SnapshotJob) Start(ctx context.Context, interval time.Duration) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if _, err := s.RunOnce(); err != nil {
					s.log.Error("snapshot failed", zap.Error(err))
				}
			}
		}
	}()
}
