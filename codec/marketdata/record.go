package marketdata

import (
	"hftwire/codec/wire"
	"hftwire/domain/message"
)

// Record reads and writes single fields of an encoded record in place.
type Record struct {
	r wire.Region
}

// View bounds-checks the record at base once; the Record's methods then
// read without further checks.
func View(buf []byte, base int) (Record, error) {
	r, err := layout.Window(buf, base)
	if err != nil {
		return Record{}, err
	}
	return Record{r: r}, nil
}

// Bytes is the record's underlying 64 bytes.
func (rec Record) Bytes() []byte { return rec.r }

func (rec Record) Symbol() string { return string(rec.r.Text(fields.symbol)) }

// SymbolBytes is the trimmed symbol aliasing the record.
func (rec Record) SymbolBytes() []byte { return rec.r.Text(fields.symbol) }

func (rec Record) BidPrice() float64  { return rec.r.Float64(fields.bidPrice) }
func (rec Record) AskPrice() float64  { return rec.r.Float64(fields.askPrice) }
func (rec Record) BidSize() int32     { return rec.r.Int32(fields.bidSize) }
func (rec Record) AskSize() int32     { return rec.r.Int32(fields.askSize) }
func (rec Record) LastPrice() float64 { return rec.r.Float64(fields.lastPrice) }
func (rec Record) LastSize() int32    { return rec.r.Int32(fields.lastSize) }
func (rec Record) Timestamp() int64   { return rec.r.Int64(fields.timestamp) }
func (rec Record) Sequence() int64    { return rec.r.Int64(fields.sequence) }

func (rec Record) Kind() message.MarketDataKind {
	return message.MarketDataKind(rec.r.Tag(fields.kind))
}

func (rec Record) MidPrice() float64 { return message.Mid(rec.BidPrice(), rec.AskPrice()) }

func (rec Record) Spread() float64 { return rec.AskPrice() - rec.BidPrice() }

func (rec Record) SpreadBps() float64 { return message.SpreadBps(rec.BidPrice(), rec.AskPrice()) }

func (rec Record) SetSequence(seq int64) { rec.r.PutInt64(fields.sequence, seq) }

func (rec Record) SetTimestamp(ts int64) { rec.r.PutInt64(fields.timestamp, ts) }

// Decode materializes the full value, reading fields in offset order.
func (rec Record) Decode() message.MarketData {
	return message.MarketData{
		Symbol:         rec.Symbol(),
		BidPrice:       rec.BidPrice(),
		AskPrice:       rec.AskPrice(),
		BidSize:        rec.BidSize(),
		AskSize:        rec.AskSize(),
		LastPrice:      rec.LastPrice(),
		LastSize:       rec.LastSize(),
		Timestamp:      rec.Timestamp(),
		SequenceNumber: rec.Sequence(),
		Kind:           rec.Kind(),
	}
}

func at[T any](buf []byte, base int, get func(Record) T) (T, error) {
	rec, err := View(buf, base)
	if err != nil {
		var zero T
		return zero, err
	}
	return get(rec), nil
}

func SymbolAt(buf []byte, base int) (string, error)     { return at(buf, base, Record.Symbol) }
func BidPriceAt(buf []byte, base int) (float64, error)  { return at(buf, base, Record.BidPrice) }
func AskPriceAt(buf []byte, base int) (float64, error)  { return at(buf, base, Record.AskPrice) }
func BidSizeAt(buf []byte, base int) (int32, error)     { return at(buf, base, Record.BidSize) }
func AskSizeAt(buf []byte, base int) (int32, error)     { return at(buf, base, Record.AskSize) }
func LastPriceAt(buf []byte, base int) (float64, error) { return at(buf, base, Record.LastPrice) }
func LastSizeAt(buf []byte, base int) (int32, error)    { return at(buf, base, Record.LastSize) }
func TimestampAt(buf []byte, base int) (int64, error)   { return at(buf, base, Record.Timestamp) }
func SequenceAt(buf []byte, base int) (int64, error)    { return at(buf, base, Record.Sequence) }

func KindAt(buf []byte, base int) (message.MarketDataKind, error) {
	return at(buf, base, Record.Kind)
}

// MidPriceAt, SpreadAt and SpreadBpsAt combine two field reads; no value
// is decoded.
func MidPriceAt(buf []byte, base int) (float64, error)  { return at(buf, base, Record.MidPrice) }
func SpreadAt(buf []byte, base int) (float64, error)    { return at(buf, base, Record.Spread) }
func SpreadBpsAt(buf []byte, base int) (float64, error) { return at(buf, base, Record.SpreadBps) }

// SetSequenceAt re-stamps the sequence number of an encoded record.
func SetSequenceAt(buf []byte, base int, seq int64) error {
	rec, err := View(buf, base)
	if err != nil {
		return err
	}
	rec.SetSequence(seq)
	return nil
}

func SetTimestampAt(buf []byte, base int, ts int64) error {
	rec, err := View(buf, base)
	if err != nil {
		return err
	}
	rec.SetTimestamp(ts)
	return nil
}
