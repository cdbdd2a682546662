package wire

import (
	"errors"
	"fmt"
)

var (
	ErrTruncatedRecord        = errors.New("wire: truncated record")
	ErrShortBatch             = errors.New("wire: short batch")
	ErrFieldWidthOverflow     = errors.New("wire: field width overflow")
	ErrInvalidStateTransition = errors.New("wire: invalid state transition")
)

// TruncatedRecordError reports a source or sink with fewer than one
// record's bytes at the requested base.
type TruncatedRecordError struct {
	Layout string
	Base   int
	Need   int
	Have   int
}

func (e *TruncatedRecordError) Error() string {
	return fmt.Sprintf("wire: truncated %s record at %d: need %d bytes, have %d", e.Layout, e.Base, e.Need, e.Have)
}

func (e *TruncatedRecordError) Unwrap() error { return ErrTruncatedRecord }

// ShortBatchError reports a region shorter than count*recordSize.
type ShortBatchError struct {
	Layout string
	Count  int
	Need   int
	Have   int
}

func (e *ShortBatchError) Error() string {
	return fmt.Sprintf("wire: short %s batch of %d: need %d bytes, have %d", e.Layout, e.Count, e.Need, e.Have)
}

func (e *ShortBatchError) Unwrap() error { return ErrShortBatch }

// FieldWidthOverflowError is only returned under the Reject text policy.
type FieldWidthOverflowError struct {
	Field string
	Width int
	Len   int
}

func (e *FieldWidthOverflowError) Error() string {
	return fmt.Sprintf("wire: %s is %d bytes, field holds %d", e.Field, e.Len, e.Width)
}

func (e *FieldWidthOverflowError) Unwrap() error { return ErrFieldWidthOverflow }

// InvalidStateTransitionError reports a mutation attempted on a record
// whose lifecycle no longer allows it. The record is left unchanged.
type InvalidStateTransitionError struct {
	Op   string
	From string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("wire: cannot %s a %s record", e.Op, e.From)
}

func (e *InvalidStateTransitionError) Unwrap() error { return ErrInvalidStateTransition }

// LayoutError is raised while a Layout is built, never by a codec call.
type LayoutError struct {
	Layout string
	Field  string
	Reason string
}

func (e *LayoutError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("wire: layout %s: %s", e.Layout, e.Reason)
	}
	return fmt.Sprintf("wire: layout %s: field %s: %s", e.Layout, e.Field, e.Reason)
}
