package marketdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hftwire/codec/wire"
	"hftwire/domain/message"
)

func sampleQuote() message.MarketData {
	return message.NewQuote("AAPL", 150.25, 150.27, 1000, 1500, 12345, 987654321)
}

func samples() []message.MarketData {
	return []message.MarketData{
		sampleQuote(),
		message.NewTrade("MSFT", 410.5, 200, 12346, 987654400),
		{Symbol: "BRK.A", BidPrice: -1, AskPrice: 0, BidSize: -5, AskSize: 2147483647,
			LastPrice: 1e300, LastSize: -2147483648, Timestamp: -1, SequenceNumber: 1 << 62, Kind: message.Quote},
		{Symbol: "", Kind: message.TradePrint},
		{Symbol: "EIGHTCHR", BidPrice: 1, AskPrice: 2, Kind: message.Quote},
	}
}

func TestLayoutMatchesWireTable(t *testing.T) {
	want := map[string][2]int{
		"symbol": {0, 8}, "bidPrice": {8, 8}, "askPrice": {16, 8}, "bidSize": {24, 4},
		"askSize": {28, 4}, "lastPrice": {32, 8}, "lastSize": {40, 4}, "timestamp": {44, 8},
		"sequenceNumber": {52, 8}, "kindTag": {60, 1}, "reserved": {61, 3},
	}
	l := Layout()
	assert.Equal(t, RecordSize, l.Size())
	require.Len(t, l.Fields(), len(want))
	for name, ow := range want {
		f, ok := l.Field(name)
		require.True(t, ok, name)
		assert.Equal(t, ow[0], f.Offset, name)
		assert.Equal(t, ow[1], f.Width, name)
	}
}

func TestQuoteExample(t *testing.T) {
	buf := make([]byte, RecordSize)
	require.NoError(t, Encode(sampleQuote(), buf))

	got, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", got.Symbol)
	assert.Equal(t, 150.25, got.BidPrice)
	assert.Equal(t, 150.27, got.AskPrice)
	assert.Equal(t, int32(1000), got.BidSize)
	assert.Equal(t, int32(1500), got.AskSize)
	assert.Equal(t, int64(12345), got.SequenceNumber)
	assert.Equal(t, message.Quote, got.Kind)
	assert.InDelta(t, 150.26, got.MidPrice(), 1e-9)
	assert.InDelta(t, 1.33, got.SpreadBps(), 0.01)

	mid, err := MidPriceAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, got.MidPrice(), mid)
	bps, err := SpreadBpsAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, got.SpreadBps(), bps)
	spread, err := SpreadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, got.Spread(), spread)
}

func TestRoundTrip(t *testing.T) {
	buf := make([]byte, RecordSize)
	for _, m := range samples() {
		require.NoError(t, Encode(m, buf))
		got, err := Decode(buf)
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
}

func TestRoundTripTruncatesLongSymbol(t *testing.T) {
	m := sampleQuote()
	m.Symbol = "VERYLONGSYMBOL"

	buf := make([]byte, RecordSize)
	require.NoError(t, Encode(m, buf))
	got, err := Decode(buf)
	require.NoError(t, err)

	m.Symbol = "VERYLONG"
	assert.Equal(t, m, got)
}

func TestRejectedBatchWritesNothing(t *testing.T) {
	c := NewCodec(WithTextPolicy(wire.Reject))
	msgs := samples()
	msgs[1].Symbol = "TOOLONGSYM"

	buf := make([]byte, len(msgs)*RecordSize)
	n, err := c.EncodeBatch(msgs, buf)
	assert.ErrorIs(t, err, wire.ErrFieldWidthOverflow)
	assert.ErrorContains(t, err, "record 1")
	assert.Zero(t, n)
	assert.Equal(t, make([]byte, len(buf)), buf)

	out, err := c.AppendBatch([]byte{7}, msgs)
	require.Error(t, err)
	assert.Equal(t, []byte{7}, out)
}

func TestRejectPolicy(t *testing.T) {
	c := NewCodec(WithTextPolicy(wire.Reject))
	assert.Equal(t, wire.Reject, c.TextPolicy())

	buf := make([]byte, RecordSize)
	m := sampleQuote()
	m.Symbol = "TOOLONGSYM"
	err := c.Encode(m, buf)
	assert.ErrorIs(t, err, wire.ErrFieldWidthOverflow)
	assert.Equal(t, make([]byte, RecordSize), buf, "rejected encode writes nothing")

	r, _ := Layout().Window(buf, 0)
	dropped, err := Default.Put(r, m)
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
}

func TestEncodeIsFixedSizeAndZeroFills(t *testing.T) {
	buf := make([]byte, RecordSize+8)
	for i := range buf {
		buf[i] = 0xAB
	}
	m := sampleQuote()
	require.NoError(t, Encode(m, buf))

	assert.Equal(t, []byte{'A', 'A', 'P', 'L', 0, 0, 0, 0}, buf[0:8], "symbol padding")
	assert.Equal(t, []byte{0, 0, 0}, buf[61:64], "reserved bytes")
	assert.Equal(t, byte('Q'), buf[60])
	for i := RecordSize; i < len(buf); i++ {
		assert.Equal(t, byte(0xAB), buf[i], "byte %d past the record", i)
	}

	out, err := Append(nil, m)
	require.NoError(t, err)
	assert.Len(t, out, RecordSize)
	assert.Equal(t, buf[:RecordSize], out)
}

func TestDirectAccessorsAgreeWithDecode(t *testing.T) {
	buf := make([]byte, 3+RecordSize)
	for _, m := range samples() {
		require.NoError(t, Encode(m, buf[3:]))
		d, err := DecodeAt(buf, 3)
		require.NoError(t, err)

		sym, _ := SymbolAt(buf, 3)
		bid, _ := BidPriceAt(buf, 3)
		ask, _ := AskPriceAt(buf, 3)
		bs, _ := BidSizeAt(buf, 3)
		as, _ := AskSizeAt(buf, 3)
		lp, _ := LastPriceAt(buf, 3)
		ls, _ := LastSizeAt(buf, 3)
		ts, _ := TimestampAt(buf, 3)
		seq, _ := SequenceAt(buf, 3)
		kind, err := KindAt(buf, 3)
		require.NoError(t, err)

		assert.Equal(t, d.Symbol, sym)
		assert.Equal(t, d.BidPrice, bid)
		assert.Equal(t, d.AskPrice, ask)
		assert.Equal(t, d.BidSize, bs)
		assert.Equal(t, d.AskSize, as)
		assert.Equal(t, d.LastPrice, lp)
		assert.Equal(t, d.LastSize, ls)
		assert.Equal(t, d.Timestamp, ts)
		assert.Equal(t, d.SequenceNumber, seq)
		assert.Equal(t, d.Kind, kind)
	}
}

func TestTruncatedSource(t *testing.T) {
	buf := make([]byte, RecordSize)
	require.NoError(t, Encode(sampleQuote(), buf))

	_, err := Decode(buf[:RecordSize-1])
	var te *wire.TruncatedRecordError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "marketdata", te.Layout)
	assert.Equal(t, RecordSize-1, te.Have)

	_, err = BidPriceAt(buf, 1)
	assert.ErrorIs(t, err, wire.ErrTruncatedRecord)
	_, err = MidPriceAt(buf, -1)
	assert.ErrorIs(t, err, wire.ErrTruncatedRecord)
	assert.ErrorIs(t, Encode(sampleQuote(), make([]byte, 10)), wire.ErrTruncatedRecord)
}

func TestSetSequenceAndTimestamp(t *testing.T) {
	buf := make([]byte, RecordSize)
	require.NoError(t, Encode(sampleQuote(), buf))

	require.NoError(t, SetSequenceAt(buf, 0, 99))
	require.NoError(t, SetTimestampAt(buf, 0, 42))

	got, err := Decode(buf)
	require.NoError(t, err)
	want := sampleQuote()
	want.SequenceNumber, want.Timestamp = 99, 42
	assert.Equal(t, want, got)

	assert.ErrorIs(t, SetSequenceAt(buf[:8], 0, 1), wire.ErrTruncatedRecord)
	assert.ErrorIs(t, SetTimestampAt(buf[:8], 0, 1), wire.ErrTruncatedRecord)
}

func TestBatchRoundTrip(t *testing.T) {
	msgs := samples()
	buf := make([]byte, len(msgs)*RecordSize)

	n, err := EncodeBatch(msgs, buf)
	require.NoError(t, err)
	assert.Equal(t, len(msgs)*RecordSize, n)

	got, err := DecodeBatch(buf, len(msgs))
	require.NoError(t, err)
	assert.Equal(t, msgs, got)

	for i := range msgs {
		seq, err := SequenceAt(buf, i*RecordSize)
		require.NoError(t, err)
		assert.Equal(t, msgs[i].SequenceNumber, seq)
	}

	into := make([]message.MarketData, 2)
	require.NoError(t, DecodeBatchInto(buf, into))
	assert.Equal(t, msgs[:2], into)

	packed, err := AppendBatch([]byte{1, 2}, msgs)
	require.NoError(t, err)
	assert.Equal(t, buf, packed[2:])
}

func TestShortBatch(t *testing.T) {
	msgs := samples()
	buf := make([]byte, len(msgs)*RecordSize)
	_, err := EncodeBatch(msgs, buf)
	require.NoError(t, err)

	_, err = DecodeBatch(buf[:len(buf)-1], len(msgs))
	var se *wire.ShortBatchError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, len(msgs)*RecordSize, se.Need)

	_, err = EncodeBatch(msgs, buf[:RecordSize])
	assert.ErrorIs(t, err, wire.ErrShortBatch)

	assert.ErrorIs(t, DecodeBatchInto(buf[:RecordSize], make([]message.MarketData, 2)), wire.ErrShortBatch)

	got, err := DecodeBatch(nil, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHotPathDoesNotAllocate(t *testing.T) {
	buf := make([]byte, RecordSize)
	m := sampleQuote()

	allocs := testing.AllocsPerRun(100, func() {
		_ = Encode(m, buf)
		_, _ = MidPriceAt(buf, 0)
		_, _ = SequenceAt(buf, 0)
		rec, _ := View(buf, 0)
		_ = rec.SymbolBytes()
	})
	assert.Zero(t, allocs)
}

func FuzzRoundTrip(f *testing.F) {
	f.Add("AAPL", 150.25, 150.27, int32(1000), int32(1500), int64(1), int64(2), byte('Q'))
	f.Add("LONGERSYMBOL", -1.0, 0.0, int32(-1), int32(0), int64(-9), int64(0), byte('T'))
	f.Fuzz(func(t *testing.T, sym string, bid, ask float64, bs, as int32, ts, seq int64, kind byte) {
		m := message.MarketData{Symbol: sym, BidPrice: bid, AskPrice: ask, BidSize: bs, AskSize: as,
			LastPrice: ask, LastSize: bs, Timestamp: ts, SequenceNumber: seq, Kind: message.MarketDataKind(kind)}
		buf := make([]byte, RecordSize)
		require.NoError(t, Encode(m, buf))
		got, err := Decode(buf)
		require.NoError(t, err)

		rec, _ := View(buf, 0)
		assert.Equal(t, string(rec.SymbolBytes()), got.Symbol)
		assert.LessOrEqual(t, len(got.Symbol), 8)
		assert.Equal(t, m.BidSize, got.BidSize)
		assert.Equal(t, m.Timestamp, got.Timestamp)
		assert.Equal(t, m.SequenceNumber, got.SequenceNumber)
		assert.Equal(t, m.Kind, got.Kind)
	})
}

func BenchmarkEncode(b *testing.B) {
	buf := make([]byte, RecordSize)
	m := sampleQuote()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Encode(m, buf)
	}
}

func BenchmarkMidPriceAt(b *testing.B) {
	buf := make([]byte, RecordSize)
	_ = Encode(sampleQuote(), buf)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = MidPriceAt(buf, 0)
	}
}

func BenchmarkDecodeBatch(b *testing.B) {
	msgs := make([]message.MarketData, 256)
	for i := range msgs {
		msgs[i] = sampleQuote()
		msgs[i].SequenceNumber = int64(i)
	}
	buf, _ := AppendBatch(nil, msgs)
	out := make([]message.MarketData, len(msgs))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = DecodeBatchInto(buf, out)
	}
}
