package store

import (
	"bytes"
	"fmt"
	"strconv"
)

var (
	orderPrefix  = []byte("order/")
	outboxPrefix = []byte("outbox/")
)

// Ids are stored as their uint64 bit pattern so every int64 has a key of
// the same width.
func key(prefix []byte, id int64) []byte {
	return fmt.Appendf(append([]byte(nil), prefix...), "%020d", uint64(id))
}

func parseKey(prefix, k []byte) (int64, error) {
	u, err := strconv.ParseUint(string(bytes.TrimPrefix(k, prefix)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("store: bad key %q: %w", k, err)
	}
	return int64(u), nil
}

// upperBound is the first key after every key with prefix.
func upperBound(prefix []byte) []byte {
	ub := append([]byte(nil), prefix...)
	ub[len(ub)-1]++
	return ub
}
