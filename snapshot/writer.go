package snapshot

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hftwire/codec/order"
	"hftwire/infra/store"
)

const keep = 2

func fileName(seq int64) string {
	return fmt.Sprintf("snapshot-%020d.bin", seq)
}

type Writer struct {
	Dir string
}

// Write dumps every stored record as of journal sequence seq. The file is written under a
// temporary name and renamed so a crash never leaves a partial snapshot;
// older snapshots beyond the last two are pruned.
func (w *Writer) Write(seq, quoteSeq int64, st *store.Store) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", err
	}

	s := Snapshot{
		Seq:      seq,
		QuoteSeq: quoteSeq,
		Created:  time.Now(),
		Layout:   order.Layout().Name(),
		Records:  make([]byte, 0, 1024*order.RecordSize),
	}
	err := st.Scan(func(_ int64, rec []byte) error {
		s.Records = append(s.Records, rec...)
		s.Count++
		return nil
	})
	if err != nil {
		return "", err
	}

	path := filepath.Join(w.Dir, fileName(seq))
	tmp, err := os.CreateTemp(w.Dir, "snapshot-*.tmp")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(&s); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}

	return path, w.prune()
}

func (w *Writer) prune() error {
	files, err := list(w.Dir)
	if err != nil {
		return err
	}
	for len(files) > keep {
		if err := os.Remove(files[0]); err != nil {
			return err
		}
		files = files[1:]
	}
	return nil
}
