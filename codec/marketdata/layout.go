// Package marketdata encodes quotes and trade prints as 64-byte
// fixed-layout records and reads single fields back in place.
//
//	symbol          0  8  text
//	bidPrice        8  8  float64
//	askPrice       16  8  float64
//	bidSize        24  4  int32
//	askSize        28  4  int32
//	lastPrice      32  8  float64
//	lastSize       40  4  int32
//	timestamp      44  8  int64
//	sequenceNumber 52  8  int64
//	kindTag        60  1  'Q' quote / 'T' trade
//	reserved       61  3  zero
package marketdata

import "hftwire/codec/wire"

// RecordSize is the canonical record size.
const RecordSize = 64

var layout = wire.MustLayout("marketdata", RecordSize,
	wire.Field{Name: "symbol", Offset: 0, Width: 8, Kind: wire.Text},
	wire.Field{Name: "bidPrice", Offset: 8, Width: 8, Kind: wire.Float64},
	wire.Field{Name: "askPrice", Offset: 16, Width: 8, Kind: wire.Float64},
	wire.Field{Name: "bidSize", Offset: 24, Width: 4, Kind: wire.Int32},
	wire.Field{Name: "askSize", Offset: 28, Width: 4, Kind: wire.Int32},
	wire.Field{Name: "lastPrice", Offset: 32, Width: 8, Kind: wire.Float64},
	wire.Field{Name: "lastSize", Offset: 40, Width: 4, Kind: wire.Int32},
	wire.Field{Name: "timestamp", Offset: 44, Width: 8, Kind: wire.Int64},
	wire.Field{Name: "sequenceNumber", Offset: 52, Width: 8, Kind: wire.Int64},
	wire.Field{Name: "kindTag", Offset: 60, Width: 1, Kind: wire.Tag},
	wire.Field{Name: "reserved", Offset: 61, Width: 3, Kind: wire.Reserved},
)

// fields are resolved once so the hot path never looks anything up.
var fields = struct {
	symbol, bidPrice, askPrice, bidSize, askSize, lastPrice, lastSize,
	timestamp, sequence, kind, reserved wire.Field
}{
	symbol:    layout.MustField("symbol"),
	bidPrice:  layout.MustField("bidPrice"),
	askPrice:  layout.MustField("askPrice"),
	bidSize:   layout.MustField("bidSize"),
	askSize:   layout.MustField("askSize"),
	lastPrice: layout.MustField("lastPrice"),
	lastSize:  layout.MustField("lastSize"),
	timestamp: layout.MustField("timestamp"),
	sequence:  layout.MustField("sequenceNumber"),
	kind:      layout.MustField("kindTag"),
	reserved:  layout.MustField("reserved"),
}

// Layout returns the market-data field table.
func Layout() *wire.Layout { return layout }
