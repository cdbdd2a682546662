// Package order encodes orders as 64-byte fixed-layout records and
// advances their lifecycle in place.
//
//	orderId         0  8  int64
//	symbol          8  8  text
//	side           16  1  'B' / 'S'
//	price          17  8  float64
//	quantity       25  4  int32
//	filledQuantity 29  4  int32
//	orderType      33  1  'M' / 'L'
//	timeInForce    34  1  'D' / 'I' / 'F'
//	timestamp      35  8  int64
//	clientOrderId  43  8  int64
//	status         51  1  'N' / 'F' / 'C'
//	reserved       52 12  zero
//
// Status moves N -> F through Fill or N -> C through Cancel. F and C are
// terminal: Fill and Cancel on a terminal record return
// *wire.InvalidStateTransitionError and leave every byte as it was.
package order

import "hftwire/codec/wire"

// RecordSize is the canonical record size.
const RecordSize = 64

var layout = wire.MustLayout("order", RecordSize,
	wire.Field{Name: "orderId", Offset: 0, Width: 8, Kind: wire.Int64},
	wire.Field{Name: "symbol", Offset: 8, Width: 8, Kind: wire.Text},
	wire.Field{Name: "side", Offset: 16, Width: 1, Kind: wire.Tag},
	wire.Field{Name: "price", Offset: 17, Width: 8, Kind: wire.Float64},
	wire.Field{Name: "quantity", Offset: 25, Width: 4, Kind: wire.Int32},
	wire.Field{Name: "filledQuantity", Offset: 29, Width: 4, Kind: wire.Int32},
	wire.Field{Name: "orderType", Offset: 33, Width: 1, Kind: wire.Tag},
	wire.Field{Name: "timeInForce", Offset: 34, Width: 1, Kind: wire.Tag},
	wire.Field{Name: "timestamp", Offset: 35, Width: 8, Kind: wire.Int64},
	wire.Field{Name: "clientOrderId", Offset: 43, Width: 8, Kind: wire.Int64},
	wire.Field{Name: "status", Offset: 51, Width: 1, Kind: wire.Tag},
	wire.Field{Name: "reserved", Offset: 52, Width: 12, Kind: wire.Reserved},
)

var fields = struct {
	id, symbol, side, price, quantity, filled, typ, tif,
	timestamp, clientID, status, reserved wire.Field
}{
	id:        layout.MustField("orderId"),
	symbol:    layout.MustField("symbol"),
	side:      layout.MustField("side"),
	price:     layout.MustField("price"),
	quantity:  layout.MustField("quantity"),
	filled:    layout.MustField("filledQuantity"),
	typ:       layout.MustField("orderType"),
	tif:       layout.MustField("timeInForce"),
	timestamp: layout.MustField("timestamp"),
	clientID:  layout.MustField("clientOrderId"),
	status:    layout.MustField("status"),
	reserved:  layout.MustField("reserved"),
}

// Layout returns the order field table.
func Layout() *wire.Layout { return layout }
