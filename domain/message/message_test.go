package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteDerivedValues(t *testing.T) {
	q := NewQuote("AAPL", 150.25, 150.27, 1000, 1500, 12345, 7)

	assert.Equal(t, Quote, q.Kind)
	assert.InDelta(t, 150.26, q.MidPrice(), 1e-9)
	assert.InDelta(t, 0.02, q.Spread(), 1e-9)
	assert.InDelta(t, 1.331, q.SpreadBps(), 1e-3)
	assert.Contains(t, q.String(), "AAPL: 150.2500 x 1000 | 150.2700 x 1500 (seq=12345)")
}

func TestTradePrint(t *testing.T) {
	tr := NewTrade("MSFT", 410.5, 200, 9, 11)

	assert.Equal(t, TradePrint, tr.Kind)
	assert.Zero(t, tr.BidPrice)
	assert.Equal(t, "[T] MSFT: 410.5000 x 200 (seq=9)", tr.String())
}

func TestOrderHelpers(t *testing.T) {
	o := NewBuyOrder(1, "AAPL", 150, 1000, LimitOrder, 77, 5)

	assert.True(t, o.IsBuy())
	assert.False(t, o.IsSell())
	assert.Equal(t, StatusNew, o.Status)
	assert.Equal(t, Day, o.TimeInForce)
	assert.Equal(t, int32(1000), o.Remaining())
	assert.False(t, o.IsFilled())

	o.FilledQuantity = 1000
	assert.True(t, o.IsFilled())
	assert.Zero(t, o.Remaining())

	s := NewSellOrder(2, "AAPL", 151, 10, MarketOrder, 78, 6)
	assert.True(t, s.IsSell())
}

func TestStatusLifecycle(t *testing.T) {
	assert.False(t, StatusNew.Terminal())
	assert.True(t, StatusFilled.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, Status(0).Valid())
	assert.Equal(t, "CANCELLED", StatusCancelled.String())
	assert.Equal(t, "STATUS('X')", Status('X').String())
}

func TestTradeNotional(t *testing.T) {
	tr := Trade{TradeID: 3, Symbol: "AAPL", Price: 150.5, Quantity: 400, Aggressor: Buy}
	assert.InDelta(t, 60200.0, tr.Notional(), 1e-9)
}
