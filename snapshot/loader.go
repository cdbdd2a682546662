package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"sort"

	"hftwire/infra/store"
)

func list(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "snapshot-*.bin"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Latest returns the newest snapshot in dir, or nil when there is none.
func Latest(dir string) (*Snapshot, error) {
	files, err := list(dir)
	if err != nil || len(files) == 0 {
		return nil, err
	}
	return Load(files[len(files)-1])
}

func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var s Snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return nil, err
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Restore applies the newest snapshot in dir to st. It returns nil when
// there is no snapshot.
func Restore(dir string, st *store.Store) (*Snapshot, error) {
	s, err := Latest(dir)
	if err != nil || s == nil {
		return nil, err
	}
	if _, err := s.Apply(st); err != nil {
		return s, err
	}
	return s, nil
}
