package order

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hftwire/codec/wire"
	"hftwire/domain/message"
)

func buyOrder() message.Order {
	return message.NewBuyOrder(1001, "AAPL", 150.25, 1000, message.LimitOrder, 555, 123456789)
}

func encoded(t *testing.T, o message.Order) []byte {
	t.Helper()
	buf := make([]byte, RecordSize)
	require.NoError(t, Encode(o, buf))
	return buf
}

func TestLayoutMatchesWireTable(t *testing.T) {
	want := map[string][2]int{
		"orderId": {0, 8}, "symbol": {8, 8}, "side": {16, 1}, "price": {17, 8},
		"quantity": {25, 4}, "filledQuantity": {29, 4}, "orderType": {33, 1},
		"timeInForce": {34, 1}, "timestamp": {35, 8}, "clientOrderId": {43, 8},
		"status": {51, 1}, "reserved": {52, 12},
	}
	l := Layout()
	assert.Equal(t, RecordSize, l.Size())
	require.Len(t, l.Fields(), len(want))
	for name, ow := range want {
		off, ok := l.OffsetOf(name)
		require.True(t, ok, name)
		assert.Equal(t, ow[0], off, name)
		f, _ := l.Field(name)
		assert.Equal(t, ow[1], f.Width, name)
	}
}

func TestRoundTrip(t *testing.T) {
	orders := []message.Order{
		buyOrder(),
		message.NewSellOrder(-7, "X", -0.01, 1, message.MarketOrder, math.MinInt64, 0),
		{OrderID: math.MaxInt64, Symbol: "ABCDEFGH", Side: message.Sell, Price: 1e-9, Quantity: math.MaxInt32,
			FilledQuantity: 12, Type: message.LimitOrder, TimeInForce: message.FOK, Timestamp: math.MaxInt64,
			ClientOrderID: 3, Status: message.StatusCancelled},
	}
	for _, o := range orders {
		got, err := Decode(encoded(t, o))
		require.NoError(t, err)
		assert.Equal(t, o, got)
	}
}

func TestSymbolTruncationAndPadding(t *testing.T) {
	o := buyOrder()
	o.Symbol = "GOOGL.CLASSA"
	buf := encoded(t, o)
	got, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, "GOOGL.CL", got.Symbol)
	assert.Equal(t, byte('B'), buf[16], "side follows the symbol field intact")

	buf = encoded(t, buyOrder())
	assert.Equal(t, []byte{'A', 'A', 'P', 'L', 0, 0, 0, 0}, buf[8:16])
	assert.Equal(t, make([]byte, 12), buf[52:64])

	c := NewCodec(WithTextPolicy(wire.Reject))
	scratch := make([]byte, RecordSize)
	err = c.Encode(o, scratch)
	assert.ErrorIs(t, err, wire.ErrFieldWidthOverflow)
	assert.Equal(t, make([]byte, RecordSize), scratch)
}

func TestRejectedBatchWritesNothing(t *testing.T) {
	c := NewCodec(WithTextPolicy(wire.Reject))
	orders := []message.Order{buyOrder(), buyOrder(), buyOrder()}
	orders[2].Symbol = "GOOGL.CLASSA"

	buf := make([]byte, len(orders)*RecordSize)
	n, err := c.EncodeBatch(orders, buf)
	assert.ErrorIs(t, err, wire.ErrFieldWidthOverflow)
	var overflow *wire.FieldWidthOverflowError
	require.ErrorAs(t, err, &overflow)
	assert.Equal(t, 12, overflow.Len)
	assert.Zero(t, n)
	assert.Equal(t, make([]byte, len(buf)), buf, "earlier records are not written either")

	n, err = Default.EncodeBatch(orders, buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
}

func TestDirectAccessorsAgreeWithDecode(t *testing.T) {
	o := buyOrder()
	o.TimeInForce = message.IOC
	o.FilledQuantity = 250
	buf := append([]byte{9, 9}, encoded(t, o)...)
	d, err := DecodeAt(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, o, d)

	id, _ := OrderIDAt(buf, 2)
	sym, _ := SymbolAt(buf, 2)
	side, _ := SideAt(buf, 2)
	px, _ := PriceAt(buf, 2)
	qty, _ := QuantityAt(buf, 2)
	filled, _ := FilledQuantityAt(buf, 2)
	typ, _ := OrderTypeAt(buf, 2)
	tif, _ := TimeInForceAt(buf, 2)
	ts, _ := TimestampAt(buf, 2)
	cid, _ := ClientOrderIDAt(buf, 2)
	st, _ := StatusAt(buf, 2)
	rem, _ := RemainingAt(buf, 2)
	done, err := IsFilledAt(buf, 2)
	require.NoError(t, err)

	assert.Equal(t, d.OrderID, id)
	assert.Equal(t, d.Symbol, sym)
	assert.Equal(t, d.Side, side)
	assert.Equal(t, d.Price, px)
	assert.Equal(t, d.Quantity, qty)
	assert.Equal(t, d.FilledQuantity, filled)
	assert.Equal(t, d.Type, typ)
	assert.Equal(t, d.TimeInForce, tif)
	assert.Equal(t, d.Timestamp, ts)
	assert.Equal(t, d.ClientOrderID, cid)
	assert.Equal(t, d.Status, st)
	assert.Equal(t, d.Remaining(), rem)
	assert.Equal(t, d.IsFilled(), done)
}

func TestFillClampsAndCompletes(t *testing.T) {
	buf := encoded(t, buyOrder())

	filled, err := Fill(buf, 0, 400)
	require.NoError(t, err)
	assert.Equal(t, int32(400), filled)
	st, _ := StatusAt(buf, 0)
	assert.Equal(t, message.StatusNew, st)

	filled, err = Fill(buf, 0, 700)
	require.NoError(t, err)
	assert.Equal(t, int32(1000), filled)

	got, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, int32(1000), got.FilledQuantity)
	assert.Equal(t, message.StatusFilled, got.Status)
	assert.True(t, got.IsFilled())
}

func TestFillMonotonic(t *testing.T) {
	o := buyOrder()
	o.Quantity = 97
	buf := encoded(t, o)

	prev := int32(0)
	for _, q := range []int32{0, 5, 0, 13, 40, 1, 100, 3} {
		filled, err := Fill(buf, 0, q)
		if err != nil {
			assert.ErrorIs(t, err, wire.ErrInvalidStateTransition)
		}
		got, _ := FilledQuantityAt(buf, 0)
		assert.Equal(t, filled, got)
		assert.GreaterOrEqual(t, got, prev)
		assert.LessOrEqual(t, got, o.Quantity)
		st, _ := StatusAt(buf, 0)
		assert.Equal(t, got == o.Quantity, st == message.StatusFilled)
		prev = got
	}
	assert.Equal(t, o.Quantity, prev)
}

func TestFillDoesNotOverflow(t *testing.T) {
	o := buyOrder()
	o.Quantity = math.MaxInt32
	o.FilledQuantity = math.MaxInt32 - 1
	buf := encoded(t, o)

	filled, err := Fill(buf, 0, math.MaxInt32)
	require.NoError(t, err)
	assert.Equal(t, int32(math.MaxInt32), filled)
}

func TestFillZeroQuantityOrder(t *testing.T) {
	o := buyOrder()
	o.Quantity = 0
	buf := encoded(t, o)

	filled, err := Fill(buf, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, filled)
	st, _ := StatusAt(buf, 0)
	assert.Equal(t, message.StatusFilled, st)
}

func TestNegativeFillRejected(t *testing.T) {
	buf := encoded(t, buyOrder())
	before := append([]byte(nil), buf...)

	_, err := Fill(buf, 0, -1)
	assert.ErrorIs(t, err, ErrNegativeFill)
	assert.Equal(t, before, buf)
}

func TestCancelKeepsFilledQuantity(t *testing.T) {
	buf := encoded(t, buyOrder())
	_, err := Fill(buf, 0, 300)
	require.NoError(t, err)

	require.NoError(t, Cancel(buf, 0))
	got, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, message.StatusCancelled, got.Status)
	assert.Equal(t, int32(300), got.FilledQuantity)
}

func TestTerminalRecordsAreFrozen(t *testing.T) {
	cancelled := encoded(t, buyOrder())
	_, _ = Fill(cancelled, 0, 300)
	require.NoError(t, Cancel(cancelled, 0))

	filled := encoded(t, buyOrder())
	_, _ = Fill(filled, 0, 5000)

	for name, buf := range map[string][]byte{"cancelled": cancelled, "filled": filled} {
		t.Run(name, func(t *testing.T) {
			before := append([]byte(nil), buf...)

			n, err := Fill(buf, 0, 10)
			var se *wire.InvalidStateTransitionError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "fill", se.Op)
			got, _ := FilledQuantityAt(buf, 0)
			assert.Equal(t, got, n)

			err = Cancel(buf, 0)
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "cancel", se.Op)

			assert.Equal(t, before, buf, "terminal record must not change")
		})
	}
}

func TestUnknownStatusIsNotMutable(t *testing.T) {
	o := buyOrder()
	o.Status = 'X'
	buf := encoded(t, o)

	_, err := Fill(buf, 0, 1)
	assert.ErrorIs(t, err, wire.ErrInvalidStateTransition)
	assert.ErrorIs(t, Cancel(buf, 0), wire.ErrInvalidStateTransition)
}

func TestRawSetters(t *testing.T) {
	buf := encoded(t, buyOrder())

	require.NoError(t, SetFilledQuantityAt(buf, 0, 999))
	require.NoError(t, SetStatusAt(buf, 0, message.StatusCancelled))
	got, _ := Decode(buf)
	assert.Equal(t, int32(999), got.FilledQuantity)
	assert.Equal(t, message.StatusCancelled, got.Status)

	assert.ErrorIs(t, SetFilledQuantityAt(buf, 0, 1001), ErrFillRange)
	assert.ErrorIs(t, SetFilledQuantityAt(buf, 0, -1), ErrFillRange)
	assert.ErrorIs(t, SetStatusAt(buf, 0, 'Z'), ErrUnknownStatus)
	assert.ErrorIs(t, SetStatusAt(buf[:1], 0, message.StatusNew), wire.ErrTruncatedRecord)
	assert.ErrorIs(t, SetFilledQuantityAt(buf[:1], 0, 1), wire.ErrTruncatedRecord)
}

func TestMutatorsOnTruncatedRegion(t *testing.T) {
	buf := encoded(t, buyOrder())

	_, err := Fill(buf[:RecordSize-1], 0, 1)
	assert.ErrorIs(t, err, wire.ErrTruncatedRecord)
	assert.ErrorIs(t, Cancel(buf, 1), wire.ErrTruncatedRecord)
	_, err = Decode(buf[:10])
	assert.ErrorIs(t, err, wire.ErrTruncatedRecord)
}

func TestBatchRoundTripAndInPlaceFill(t *testing.T) {
	orders := make([]message.Order, 4)
	for i := range orders {
		orders[i] = buyOrder()
		orders[i].OrderID = int64(i + 1)
		orders[i].Quantity = int32(100 * (i + 1))
	}
	buf, err := AppendBatch(nil, orders)
	require.NoError(t, err)
	require.Len(t, buf, 4*RecordSize)

	_, err = Fill(buf, 2*RecordSize, 300)
	require.NoError(t, err)

	got, err := DecodeBatch(buf, 4)
	require.NoError(t, err)
	orders[2].FilledQuantity = 300
	orders[2].Status = message.StatusFilled
	assert.Equal(t, orders, got)

	into := make([]message.Order, 4)
	require.NoError(t, DecodeBatchInto(buf, into))
	assert.Equal(t, orders, into)

	_, err = DecodeBatch(buf, 5)
	assert.ErrorIs(t, err, wire.ErrShortBatch)
	n, err := EncodeBatch(orders, make([]byte, 3*RecordSize))
	assert.ErrorIs(t, err, wire.ErrShortBatch)
	assert.Zero(t, n)
}

func TestFillDoesNotAllocate(t *testing.T) {
	buf := encoded(t, buyOrder())
	allocs := testing.AllocsPerRun(100, func() {
		_ = SetStatusAt(buf, 0, message.StatusNew)
		_ = SetFilledQuantityAt(buf, 0, 0)
		_, _ = Fill(buf, 0, 1)
		_, _ = StatusAt(buf, 0)
	})
	assert.Zero(t, allocs)
}

func FuzzFillSequence(f *testing.F) {
	f.Add(int32(1000), int32(400), int32(700), int32(0))
	f.Add(int32(0), int32(0), int32(1), int32(2))
	f.Add(int32(math.MaxInt32), int32(math.MaxInt32), int32(math.MaxInt32), int32(1))
	f.Fuzz(func(t *testing.T, qty, a, b, c int32) {
		if qty < 0 {
			qty = -(qty + 1)
		}
		o := buyOrder()
		o.Quantity = qty
		buf := make([]byte, RecordSize)
		require.NoError(t, Encode(o, buf))

		prev := int32(0)
		for _, q := range []int32{a, b, c} {
			if q < 0 {
				continue
			}
			_, _ = Fill(buf, 0, q)
			got, _ := FilledQuantityAt(buf, 0)
			require.GreaterOrEqual(t, got, prev)
			require.LessOrEqual(t, got, qty)
			st, _ := StatusAt(buf, 0)
			require.Equal(t, got == qty, st == message.StatusFilled)
			prev = got
		}
	})
}

func BenchmarkFill(b *testing.B) {
	buf := make([]byte, RecordSize)
	o := buyOrder()
	o.Quantity = math.MaxInt32
	_ = Encode(o, buf)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = Fill(buf, 0, 1)
	}
}
