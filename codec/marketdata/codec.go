package marketdata

import (
	"fmt"
	"slices"

	"hftwire/codec/wire"
	"hftwire/domain/message"
)

// Codec encodes market data. The zero configuration truncates symbols
// longer than 8 bytes.
type Codec struct {
	text wire.TextPolicy
}

type Option func(*Codec)

// WithTextPolicy selects what happens to a symbol wider than its field.
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

// Default is the truncating codec used by the package-level functions.
var Default = NewCodec()

func (c *Codec) Layout() *wire.Layout { return layout }

func (c *Codec) TextPolicy() wire.TextPolicy { return c.text }

// Put writes every byte of m into r in offset order and returns the number
// of symbol bytes dropped by truncation.
func (c *Codec) Put(r wire.Region, m message.MarketData) (dropped int, err error) {
	if dropped, err = r.PutText(fields.symbol, m.Symbol, c.text); err != nil {
		return 0, err
	}
	r.PutFloat64(fields.bidPrice, m.BidPrice)
	r.PutFloat64(fields.askPrice, m.AskPrice)
	r.PutInt32(fields.bidSize, m.BidSize)
	r.PutInt32(fields.askSize, m.AskSize)
	r.PutFloat64(fields.lastPrice, m.LastPrice)
	r.PutInt32(fields.lastSize, m.LastSize)
	r.PutInt64(fields.timestamp, m.Timestamp)
	r.PutInt64(fields.sequence, m.SequenceNumber)
	r.PutTag(fields.kind, byte(m.Kind))
	r.Zero(fields.reserved)
	return dropped, nil
}

// Encode writes m into dst[0:RecordSize]. dst may be a reused scratch
// buffer; nothing outside the first RecordSize bytes is touched.
func (c *Codec) Encode(m message.MarketData, dst []byte) error {
	r, err := layout.Window(dst, 0)
	if err != nil {
		return err
	}
	_, err = c.Put(r, m)
	return err
}

// Append encodes m after the end of dst and returns the extended slice.
func (c *Codec) Append(dst []byte, m message.MarketData) ([]byte, error) {
	n := len(dst)
	dst = slices.Grow(dst, RecordSize)[:n+RecordSize]
	if err := c.Encode(m, dst[n:]); err != nil {
		return dst[:n], err
	}
	return dst, nil
}

// EncodeBatch packs msgs back-to-back into dst and returns the bytes written.
// Under the Reject policy every symbol is checked first, so a rejected
// batch leaves dst untouched and reports the offending index.
func (c *Codec) EncodeBatch(msgs []message.MarketData, dst []byte) (int, error) {
	if err := layout.Batch(dst, len(msgs)); err != nil {
		return 0, err
	}
	if err := c.checkSymbols(msgs); err != nil {
		return 0, err
	}
	for i := range msgs {
		r, _ := layout.Window(dst, i*RecordSize)
		if _, err := c.Put(r, msgs[i]); err != nil {
			return i * RecordSize, err
		}
	}
	return len(msgs) * RecordSize, nil
}

// AppendBatch packs msgs after the end of dst.
func (c *Codec) AppendBatch(dst []byte, msgs []message.MarketData) ([]byte, error) {
	n := len(dst)
	dst = slices.Grow(dst, len(msgs)*RecordSize)[:n+len(msgs)*RecordSize]
	if _, err := c.EncodeBatch(msgs, dst[n:]); err != nil {
		return dst[:n], err
	}
	return dst, nil
}

func Encode(m message.MarketData, dst []byte) error { return Default.Encode(m, dst) }

func Append(dst []byte, m message.MarketData) ([]byte, error) { return Default.Append(dst, m) }

func EncodeBatch(msgs []message.MarketData, dst []byte) (int, error) {
	return Default.EncodeBatch(msgs, dst)
}

func AppendBatch(dst []byte, msgs []message.MarketData) ([]byte, error) {
	return Default.AppendBatch(dst, msgs)
}

// checkSymbols finds the first symbol the Reject policy refuses.
func (c *Codec) checkSymbols(msgs []message.MarketData) error {
	if c.text != wire.Reject {
		return nil
	}
	for i := range msgs {
		if n := len(msgs[i].Symbol); n > fields.symbol.Width {
			return fmt.Errorf("record %d: %w", i, &wire.FieldWidthOverflowError{Field: fields.symbol.Name, Width: fields.symbol.Width, Len: n})
		}
	}
	return nil
}
