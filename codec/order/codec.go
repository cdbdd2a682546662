package order

import (
	"fmt"
	"slices"

	"hftwire/codec/wire"
	"hftwire/domain/message"
)

// Codec encodes orders. The default truncates symbols longer than 8 bytes.
type Codec struct {
	text wire.TextPolicy
}

type Option func(*Codec)

func WithTextPolicy(p wire.TextPolicy) Option {
	return func(c *Codec) { c.text = p }
}

func NewCodec(opts ...Option) *Codec {
	c := &Codec{text: wire.Truncate}
	for _, o := range opts {
		o(c)
	}
	return c
}

var Default = NewCodec()

func (c *Codec) Layout() *wire.Layout { return layout }

func (c *Codec) TextPolicy() wire.TextPolicy { return c.text }

// Put writes o into r in offset order. Under the Reject policy an
// oversized symbol is caught before any byte is written.
func (c *Codec) Put(r wire.Region, o message.Order) (dropped int, err error) {
	if c.text == wire.Reject && len(o.Symbol) > fields.symbol.Width {
		return 0, &wire.FieldWidthOverflowError{Field: fields.symbol.Name, Width: fields.symbol.Width, Len: len(o.Symbol)}
	}
	r.PutInt64(fields.id, o.OrderID)
	dropped, _ = r.PutText(fields.symbol, o.Symbol, wire.Truncate)
	r.PutTag(fields.side, byte(o.Side))
	r.PutFloat64(fields.price, o.Price)
	r.PutInt32(fields.quantity, o.Quantity)
	r.PutInt32(fields.filled, o.FilledQuantity)
	r.PutTag(fields.typ, byte(o.Type))
	r.PutTag(fields.tif, byte(o.TimeInForce))
	r.PutInt64(fields.timestamp, o.Timestamp)
	r.PutInt64(fields.clientID, o.ClientOrderID)
	r.PutTag(fields.status, byte(o.Status))
	r.Zero(fields.reserved)
	return dropped, nil
}

// Encode writes o into dst[0:RecordSize].
func (c *Codec) Encode(o message.Order, dst []byte) error {
	r, err := layout.Window(dst, 0)
	if err != nil {
		return err
	}
	_, err = c.Put(r, o)
	return err
}

func (c *Codec) Append(dst []byte, o message.Order) ([]byte, error) {
	n := len(dst)
	dst = slices.Grow(dst, RecordSize)[:n+RecordSize]
	if err := c.Encode(o, dst[n:]); err != nil {
		return dst[:n], err
	}
	return dst, nil
}

// EncodeBatch packs orders back-to-back into dst and returns the bytes written.
// Under the Reject policy every symbol is checked first, so a rejected
// batch leaves dst untouched and reports the offending index.
func (c *Codec) EncodeBatch(orders []message.Order, dst []byte) (int, error) {
	if err := layout.Batch(dst, len(orders)); err != nil {
		return 0, err
	}
	if err := c.checkSymbols(orders); err != nil {
		return 0, err
	}
	for i := range orders {
		if err := c.Encode(orders[i], dst[i*RecordSize:]); err != nil {
			return i * RecordSize, err
		}
	}
	return len(orders) * RecordSize, nil
}

func (c *Codec) AppendBatch(dst []byte, orders []message.Order) ([]byte, error) {
	n := len(dst)
	dst = slices.Grow(dst, len(orders)*RecordSize)[:n+len(orders)*RecordSize]
	if _, err := c.EncodeBatch(orders, dst[n:]); err != nil {
		return dst[:n], err
	}
	return dst, nil
}

func Encode(o message.Order, dst []byte) error { return Default.Encode(o, dst) }

func Append(dst []byte, o message.Order) ([]byte, error) { return Default.Append(dst, o) }

func EncodeBatch(orders []message.Order, dst []byte) (int, error) {
	return Default.EncodeBatch(orders, dst)
}

func AppendBatch(dst []byte, orders []message.Order) ([]byte, error) {
	return Default.AppendBatch(dst, orders)
}

// checkSymbols finds the first symbol the Reject policy refuses.
func (c *Codec) checkSymbols(orders []message.Order) error {
	if c.text != wire.Reject {
		return nil
	}
	for i := range orders {
		if n := len(orders[i].Symbol); n > fields.symbol.Width {
			return fmt.Errorf("record %d: %w", i, &wire.FieldWidthOverflowError{Field: fields.symbol.Name, Width: fields.symbol.Width, Len: n})
		}
	}
	return nil
}
