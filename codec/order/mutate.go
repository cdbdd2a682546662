package order

import (
	"errors"
	"fmt"

	"hftwire/codec/wire"
	"hftwire/domain/message"
)

var (
	ErrNegativeFill  = errors.New("order: negative fill quantity")
	ErrUnknownStatus = errors.New("order: unknown status tag")
	ErrFillRange     = errors.New("order: filled quantity out of range")
)

// Fill adds qty to the filled quantity, clamped to the order quantity, and
// flips the status to filled once nothing remains. It returns the new
// filled quantity. Only a new order can be filled.
func (rec Record) Fill(qty int32) (int32, error) {
	filled := rec.FilledQuantity()
	if qty < 0 {
		return filled, ErrNegativeFill
	}
	if st := rec.Status(); st != message.StatusNew {
		return filled, &wire.InvalidStateTransitionError{Op: "fill", From: st.String()}
	}

	total := rec.Quantity()
	next := min(int64(filled)+int64(qty), int64(total))
	rec.r.PutInt32(fields.filled, int32(next))
	if int32(next) == total {
		rec.r.PutTag(fields.status, byte(message.StatusFilled))
	}
	return int32(next), nil
}

// Cancel abandons whatever is unfilled. The filled quantity is kept.
func (rec Record) Cancel() error {
	if st := rec.Status(); st != message.StatusNew {
		return &wire.InvalidStateTransitionError{Op: "cancel", From: st.String()}
	}
	rec.r.PutTag(fields.status, byte(message.StatusCancelled))
	return nil
}

// SetStatus overwrites the status tag without running the lifecycle. It is
// meant for restoring records from an external source of truth.
func (rec Record) SetStatus(s message.Status) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownStatus, s)
	}
	rec.r.PutTag(fields.status, byte(s))
	return nil
}

// SetFilledQuantity overwrites the filled quantity; it must stay within
// [0, quantity].
func (rec Record) SetFilledQuantity(q int32) error {
	if q < 0 || q > rec.Quantity() {
		return fmt.Errorf("%w: %d of %d", ErrFillRange, q, rec.Quantity())
	}
	rec.r.PutInt32(fields.filled, q)
	return nil
}

// Fill applies a fill to the record at base. See Record.Fill.
func Fill(buf []byte, base int, qty int32) (int32, error) {
	rec, err := View(buf, base)
	if err != nil {
		return 0, err
	}
	return rec.Fill(qty)
}

// Cancel cancels the record at base. See Record.Cancel.
func Cancel(buf []byte, base int) error {
	rec, err := View(buf, base)
	if err != nil {
		return err
	}
	return rec.Cancel()
}

func SetStatusAt(buf []byte, base int, s message.Status) error {
	rec, err := View(buf, base)
	if err != nil {
		return err
	}
	return rec.SetStatus(s)
}

func SetFilledQuantityAt(buf []byte, base int, q int32) error {
	rec, err := View(buf, base)
	if err != nil {
		return err
	}
	return rec.SetFilledQuantity(q)
}
