package store

import (
	"encoding/binary"
	"errors"
)

// OutboxState tracks delivery of a stored record to downstream consumers.
type OutboxState uint8

const (
	OutboxNew OutboxState = iota
	OutboxSent
	OutboxAcked
	OutboxFailed
)

func (s OutboxState) String() string {
	switch s {
	case OutboxNew:
		return "NEW"
	case OutboxSent:
		return "SENT"
	case OutboxAcked:
		return "ACKED"
	case OutboxFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

type OutboxEntry struct {
	State       OutboxState
	Retries     uint32
	LastAttempt int64
}

const outboxEntrySize = 1 + 4 + 8

var errOutboxLength = errors.New("store: invalid outbox entry length")

// [state:1][retries:4][lastAttempt:8]
func encodeOutbox(e OutboxEntry) []byte {
	buf := make([]byte, outboxEntrySize)
	buf[0] = byte(e.State)
	binary.BigEndian.PutUint32(buf[1:5], e.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(e.LastAttempt))
	return buf
}

func decodeOutbox(b []byte) (OutboxEntry, error) {
	if len(b) != outboxEntrySize {
		return OutboxEntry{}, errOutboxLength
	}
	return OutboxEntry{
		State:       OutboxState(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
	}, nil
}
