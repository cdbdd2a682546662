package message

import "fmt"

// Trade reports an execution against an order record.
type Trade struct {
	TradeID     int64
	Symbol      string
	Price       float64
	Quantity    int32
	Timestamp   int64
	BuyOrderID  int64
	SellOrderID int64
	Aggressor   Side
}

func (t Trade) Notional() float64 { return t.Price * float64(t.Quantity) }

func (t Trade) String() string {
	return fmt.Sprintf("[TRADE] %s: %.4f x %d (id=%d, buy=%d, sell=%d, aggressor=%c, notional=%.2f)",
		t.Symbol, t.Price, t.Quantity, t.TradeID, t.BuyOrderID, t.SellOrderID, t.Aggressor, t.Notional())
}
