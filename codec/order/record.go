package order

import (
	"hftwire/codec/wire"
	"hftwire/domain/message"
)

// Record is an encoded order read and mutated in place.
type Record struct {
	r wire.Region
}

func View(buf []byte, base int) (Record, error) {
	r, err := layout.Window(buf, base)
	if err != nil {
		return Record{}, err
	}
	return Record{r: r}, nil
}

func (rec Record) Bytes() []byte { return rec.r }

func (rec Record) OrderID() int64          { return rec.r.Int64(fields.id) }
func (rec Record) Symbol() string          { return string(rec.r.Text(fields.symbol)) }
func (rec Record) SymbolBytes() []byte     { return rec.r.Text(fields.symbol) }
func (rec Record) Side() message.Side      { return message.Side(rec.r.Tag(fields.side)) }
func (rec Record) Price() float64          { return rec.r.Float64(fields.price) }
func (rec Record) Quantity() int32         { return rec.r.Int32(fields.quantity) }
func (rec Record) FilledQuantity() int32   { return rec.r.Int32(fields.filled) }
func (rec Record) Type() message.OrderType { return message.OrderType(rec.r.Tag(fields.typ)) }
func (rec Record) Timestamp() int64        { return rec.r.Int64(fields.timestamp) }
func (rec Record) ClientOrderID() int64    { return rec.r.Int64(fields.clientID) }
func (rec Record) Status() message.Status  { return message.Status(rec.r.Tag(fields.status)) }

func (rec Record) TimeInForce() message.TimeInForce {
	return message.TimeInForce(rec.r.Tag(fields.tif))
}

func (rec Record) Remaining() int32 { return rec.Quantity() - rec.FilledQuantity() }

func (rec Record) IsFilled() bool { return rec.FilledQuantity() >= rec.Quantity() }

// Decode materializes the full value, reading fields in offset order.
func (rec Record) Decode() message.Order {
	return message.Order{
		OrderID:        rec.OrderID(),
		Symbol:         rec.Symbol(),
		Side:           rec.Side(),
		Price:          rec.Price(),
		Quantity:       rec.Quantity(),
		FilledQuantity: rec.FilledQuantity(),
		Type:           rec.Type(),
		TimeInForce:    rec.TimeInForce(),
		Timestamp:      rec.Timestamp(),
		ClientOrderID:  rec.ClientOrderID(),
		Status:         rec.Status(),
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

func OrderIDAt(buf []byte, base int) (int64, error)     { return at(buf, base, Record.OrderID) }
func SymbolAt(buf []byte, base int) (string, error)     { return at(buf, base, Record.Symbol) }
func SideAt(buf []byte, base int) (message.Side, error) { return at(buf, base, Record.Side) }
func PriceAt(buf []byte, base int) (float64, error)     { return at(buf, base, Record.Price) }
func QuantityAt(buf []byte, base int) (int32, error)    { return at(buf, base, Record.Quantity) }
func FilledQuantityAt(buf []byte, base int) (int32, error) {
	return at(buf, base, Record.FilledQuantity)
}
func TimestampAt(buf []byte, base int) (int64, error)     { return at(buf, base, Record.Timestamp) }
func ClientOrderIDAt(buf []byte, base int) (int64, error) { return at(buf, base, Record.ClientOrderID) }
func RemainingAt(buf []byte, base int) (int32, error)     { return at(buf, base, Record.Remaining) }
func IsFilledAt(buf []byte, base int) (bool, error)       { return at(buf, base, Record.IsFilled) }

func OrderTypeAt(buf []byte, base int) (message.OrderType, error) {
	return at(buf, base, Record.Type)
}

func TimeInForceAt(buf []byte, base int) (message.TimeInForce, error) {
	return at(buf, base, Record.TimeInForce)
}

func StatusAt(buf []byte, base int) (message.Status, error) {
	return at(buf, base, Record.Status)
}
