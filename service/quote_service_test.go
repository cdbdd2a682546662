package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"hftwire/codec/marketdata"
	"hftwire/codec/wire"
	"hftwire/domain/message"
	"hftwire/infra/journal"
	"hftwire/infra/sequence"
)

type captureSink struct {
	mu      sync.Mutex
	batches [][]byte
	err     error
}

func (c *captureSink) SendBatch(_ context.Context, _ []byte, batch []byte, count int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.batches = append(c.batches, append([]byte(nil), batch[:count*marketdata.RecordSize]...))
	return nil
}

func (c *captureSink) records() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, b := range c.batches {
		n += len(b) / marketdata.RecordSize
	}
	return n
}

func newQuoteFixture(t *testing.T, cfg QuoteConfig) (*QuoteService, *captureSink, *journal.Journal) {
	t.Helper()
	j, err := journal.Open(journal.Config{Dir: t.TempDir(), SegmentSize: 1 << 20})
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	sink := &captureSink{}
	svc := NewQuoteService(sequence.New(0), j, sink, zaptest.NewLogger(t),
		WithQuoteClock(sequence.NewManualClock(t0)),
		WithQuoteConfig(cfg),
	)
	return svc, sink, j
}

func TestPublishAssignsSequence(t *testing.T) {
	svc, sink, j := newQuoteFixture(t, QuoteConfig{})
	ctx := context.Background()

	first, last, err := svc.Publish(ctx, []message.MarketData{
		message.NewQuote("AAPL", 150.25, 150.27, 1000, 500, 999, 0),
		message.NewTrade("AAPL", 150.26, 100, 999, 42),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), last)

	require.Len(t, sink.batches, 1)
	got, err := marketdata.DecodeBatch(sink.batches[0], 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got[0].SequenceNumber)
	assert.Equal(t, t0, got[0].Timestamp)
	assert.Equal(t, int64(2), got[1].SequenceNumber)
	assert.Equal(t, int64(42), got[1].Timestamp, "explicit timestamp kept")
	assert.Equal(t, message.TradePrint, got[1].Kind)
	assert.Equal(t, int64(1), j.LastSeq())

	first, _, err = svc.Publish(ctx, []message.MarketData{message.NewQuote("MSFT", 1, 2, 1, 1, 0, 0)})
	require.NoError(t, err)
	assert.Equal(t, int64(3), first)

	first, last, err = svc.Publish(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, first)
	assert.Zero(t, last)
}

func TestPublishRejectBurnsNoSequence(t *testing.T) {
	j, err := journal.Open(journal.Config{Dir: t.TempDir(), SegmentSize: 1 << 20})
	require.NoError(t, err)
	defer j.Close()

	seq := sequence.New(0)
	svc := NewQuoteService(seq, j, nil, nil, WithQuoteCodec(marketdata.NewCodec(marketdata.WithTextPolicy(wire.Reject))))
	_, _, err = svc.Publish(context.Background(), []message.MarketData{
		message.NewQuote("TOOLONGSYM", 1, 2, 1, 1, 0, 0),
	})
	assert.ErrorIs(t, err, wire.ErrFieldWidthOverflow)
	assert.Zero(t, seq.Current())
	assert.Zero(t, j.LastSeq())
}

func TestPublishSinkError(t *testing.T) {
	svc, sink, _ := newQuoteFixture(t, QuoteConfig{})
	sink.err = errors.New("broker down")
	_, _, err := svc.Publish(context.Background(), []message.MarketData{message.NewQuote("A", 1, 2, 1, 1, 0, 0)})
	assert.ErrorIs(t, err, sink.err)
}

func TestPublishPacked(t *testing.T) {
	svc, sink, _ := newQuoteFixture(t, QuoteConfig{})
	batch, err := marketdata.AppendBatch(nil, []message.MarketData{
		message.NewQuote("AAPL", 1, 2, 1, 1, 0, 0),
		message.NewQuote("MSFT", 3, 4, 1, 1, 0, 7),
	})
	require.NoError(t, err)

	first, last, err := svc.PublishPacked(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), last)

	ts, err := marketdata.TimestampAt(sink.batches[0], 0)
	require.NoError(t, err)
	assert.Equal(t, t0, ts)
	ts, err = marketdata.TimestampAt(sink.batches[0], marketdata.RecordSize)
	require.NoError(t, err)
	assert.Equal(t, int64(7), ts)

	_, _, err = svc.PublishPacked(context.Background(), batch[:100])
	assert.ErrorIs(t, err, ErrRaggedBatch)
}

func TestSubmitAndDrain(t *testing.T) {
	svc, sink, _ := newQuoteFixture(t, QuoteConfig{RingSize: 8, MaxBatch: 3})

	for i := 0; i < 8; i++ {
		require.NoError(t, svc.Submit(message.NewQuote("AAPL", 100+float64(i), 101+float64(i), 1, 1, 0, 0)))
	}
	assert.ErrorIs(t, svc.Submit(message.NewQuote("AAPL", 1, 2, 1, 1, 0, 0)), ErrBackpressure)
	assert.Equal(t, 8, svc.Pending())

	svc.Flush(context.Background())
	assert.Zero(t, svc.Pending())
	require.Len(t, sink.batches, 3, "3 + 3 + 2")
	assert.Equal(t, 8, sink.records())

	var seqs []int64
	for _, b := range sink.batches {
		for off := 0; off < len(b); off += marketdata.RecordSize {
			s, err := marketdata.SequenceAt(b, off)
			require.NoError(t, err)
			seqs = append(seqs, s)
		}
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8}, seqs)
}

func TestRunFlushesOnShutdown(t *testing.T) {
	svc, sink, _ := newQuoteFixture(t, QuoteConfig{RingSize: 16, MaxBatch: 16, FlushInterval: 1 << 40})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Submit(message.NewQuote("AAPL", 1, 2, 1, 1, 0, 0)))
	}
	cancel()
	<-done
	assert.Equal(t, 5, sink.records())
}

func TestHandleBatchKeepsLatest(t *testing.T) {
	svc, _, _ := newQuoteFixture(t, QuoteConfig{})
	batch, err := marketdata.AppendBatch(nil, []message.MarketData{
		message.NewQuote("AAPL", 150.25, 150.27, 1000, 500, 5, 1),
		message.NewQuote("AAPL", 150.00, 150.10, 10, 10, 3, 2),
		message.NewTrade("AAPL", 150.5, 10, 6, 3),
		message.NewQuote("MSFT", 410.10, 410.14, 200, 300, 4, 4),
	})
	require.NoError(t, err)
	require.NoError(t, svc.HandleBatch(context.Background(), batch, 4))

	top, ok := svc.Top("AAPL")
	require.True(t, ok)
	assert.Equal(t, int64(5), top.Sequence, "older sequence ignored")
	assert.InDelta(t, 150.26, top.Mid, 1e-9)
	assert.InDelta(t, 0.02/150.26*10_000, top.SpreadBps, 1e-6)
	assert.Equal(t, int32(1000), top.BidSize)

	_, ok = svc.Top("GOOG")
	assert.False(t, ok)

	assert.ErrorIs(t, svc.HandleBatch(context.Background(), batch[:64], 2), wire.ErrShortBatch)
}
