package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"hftwire/codec/marketdata"
	"hftwire/domain/message"
	"hftwire/infra/journal"
	"hftwire/infra/logger"
	"hftwire/infra/memory"
	"hftwire/infra/metrics"
	"hftwire/infra/sequence"
)

const kindQuote = "marketdata"

// BatchSink receives packed market-data batches. infra/kafka.Producer
// satisfies it.
type BatchSink interface {
	SendBatch(ctx context.Context, key []byte, batch []byte, count int) error
}

type QuoteConfig struct {
	// RingSize is the number of record slots between Submit and the
	// batcher; a power of two.
	RingSize uint64
	// MaxBatch caps how many records go into one published batch.
	MaxBatch      int
	FlushInterval time.Duration
}

const (
	DefaultRingSize      = 4096
	DefaultMaxBatch      = 256
	DefaultFlushInterval = 5 * time.Millisecond
)

// QuoteService stamps, packs and publishes market data, and keeps the
// latest top of book per symbol from consumed batches.
type QuoteService struct {
	codec   *marketdata.Codec
	seq     *sequence.Sequencer
	clock   sequence.Clock
	journal *journal.Journal
	sink    BatchSink
	bufs    *memory.Buffers
	cfg     QuoteConfig
	log     *zap.Logger
	metrics *metrics.Metrics

	// Submit is the ring's only producer and drain its only consumer.
	submitMu sync.Mutex
	drainMu  sync.Mutex
	ring     *memory.RecordRing

	// publishMu keeps journal order and sink order identical to sequence
	// order.
	publishMu sync.Mutex

	bookMu sync.RWMutex
	book   map[string]Top
}

// Top is the latest quote seen for a symbol.
type Top struct {
	Symbol    string
	Bid       float64
	Ask       float64
	BidSize   int32
	AskSize   int32
	Mid       float64
	SpreadBps float64
	Sequence  int64
	Timestamp int64
}

type QuoteOption func(*QuoteService)

func WithQuoteCodec(c *marketdata.Codec) QuoteOption {
	return func(s *QuoteService) { s.codec = c }
}

func WithQuoteClock(c sequence.Clock) QuoteOption {
	return func(s *QuoteService) { s.clock = c }
}

func WithQuoteConfig(cfg QuoteConfig) QuoteOption {
	return func(s *QuoteService) { s.cfg = cfg }
}

func WithQuoteMetrics(m *metrics.Metrics) QuoteOption {
	return func(s *QuoteService) { s.metrics = m }
}

// NewQuoteService wires the publisher. j and sink may each be nil.
func NewQuoteService(seq *sequence.Sequencer, j *journal.Journal, sink BatchSink, log *zap.Logger, opts ...QuoteOption) *QuoteService {
	s := &QuoteService{
		codec:   marketdata.Default,
		seq:     seq,
		clock:   sequence.NewMonotonicClock(),
		journal: j,
		sink:    sink,
		cfg: QuoteConfig{
			RingSize:      DefaultRingSize,
			MaxBatch:      DefaultMaxBatch,
			FlushInterval: DefaultFlushInterval,
		},
		log:  logger.OrNop(log).Named("quotes"),
		book: make(map[string]Top),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop()
	}
	if s.cfg.RingSize == 0 {
		s.cfg.RingSize = DefaultRingSize
	}
	if s.cfg.MaxBatch <= 0 {
		s.cfg.MaxBatch = DefaultMaxBatch
	}
	if s.cfg.FlushInterval <= 0 {
		s.cfg.FlushInterval = DefaultFlushInterval
	}
	s.ring = memory.NewRecordRing(s.cfg.RingSize, marketdata.RecordSize)
	s.bufs = memory.NewBuffers(marketdata.RecordSize, s.cfg.MaxBatch)
	return s
}

//
// ──────────────────────────────────────────────────────────
// Publishing
// ──────────────────────────────────────────────────────────
//

// Publish packs msgs into one batch and publishes it. Sequence numbers
// are assigned here, overriding whatever msgs carry; a zero timestamp is
// stamped from the clock. It returns the first and last sequence used.
func (s *QuoteService) Publish(ctx context.Context, msgs []message.MarketData) (first, last int64, err error) {
	if len(msgs) == 0 {
		return 0, 0, nil
	}

	buf := s.bufs.Get(len(msgs))
	defer s.bufs.Put(buf)

	now := s.clock.Nanos()
	for i := range msgs {
		if err := s.put((*buf)[i*marketdata.RecordSize:], msgs[i], now); err != nil {
			return 0, 0, fmt.Errorf("quote %d: %w", i, err)
		}
	}
	return s.publishPacked(ctx, *buf, len(msgs))
}

// PublishPacked publishes a caller-packed batch. Records are re-sequenced
// in place, and a zero timestamp is stamped from the clock.
func (s *QuoteService) PublishPacked(ctx context.Context, batch []byte) (first, last int64, err error) {
	size := marketdata.RecordSize
	if len(batch)%size != 0 {
		return 0, 0, fmt.Errorf("%w: %d bytes", ErrRaggedBatch, len(batch))
	}
	count := len(batch) / size
	if count == 0 {
		return 0, 0, nil
	}

	now := s.clock.Nanos()
	for i := 0; i < count; i++ {
		rec, err := marketdata.View(batch, i*size)
		if err != nil {
			return 0, 0, err
		}
		if rec.Timestamp() == 0 {
			rec.SetTimestamp(now)
		}
	}
	s.metrics.RecordsDecoded.WithLabelValues(kindQuote).Add(float64(count))
	return s.publishPacked(ctx, batch, count)
}

func (s *QuoteService) put(dst []byte, m message.MarketData, now int64) error {
	if m.Timestamp == 0 {
		m.Timestamp = now
	}
	if m.Kind == 0 {
		m.Kind = message.Quote
	}
	r, err := marketdata.Layout().Window(dst, 0)
	if err != nil {
		return err
	}
	dropped, err := s.codec.Put(r, m)
	if err != nil {
		return err
	}
	s.metrics.RecordsEncoded.WithLabelValues(kindQuote).Inc()
	if dropped > 0 {
		s.metrics.SymbolTruncations.WithLabelValues(kindQuote).Inc()
	}
	return nil
}

func (s *QuoteService) publishPacked(ctx context.Context, batch []byte, count int) (first, last int64, err error) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	first = s.seq.Block(count)
	for i := 0; i < count; i++ {
		if err := marketdata.SetSequenceAt(batch, i*marketdata.RecordSize, first+int64(i)); err != nil {
			return 0, 0, err
		}
	}
	last = first + int64(count) - 1
	batch = batch[:count*marketdata.RecordSize]

	if s.journal != nil {
		if _, err := s.journal.Append(journal.KindQuotes, batch); err != nil {
			return first, last, fmt.Errorf("journal: %w", err)
		}
		s.metrics.JournalAppends.Inc()
	}

	if s.sink != nil {
		if err := s.sink.SendBatch(ctx, nil, batch, count); err != nil {
			s.metrics.PublishErrors.WithLabelValues("kafka").Inc()
			return first, last, fmt.Errorf("publish: %w", err)
		}
		s.metrics.BatchesPublished.WithLabelValues("kafka").Inc()
	}

	s.log.Debug("batch published", zap.Int("count", count), zap.Int64("first_seq", first), zap.Int64("last_seq", last))
	return first, last, nil
}

//
// ──────────────────────────────────────────────────────────
// Streaming path
// ──────────────────────────────────────────────────────────
//

// Submit encodes m straight into the next ring slot. It never blocks:
// when the batcher has fallen behind it returns ErrBackpressure.
func (s *QuoteService) Submit(m message.MarketData) error {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	slot := s.ring.Reserve()
	if slot == nil {
		return ErrBackpressure
	}
	if err := s.put(slot, m, s.clock.Nanos()); err != nil {
		return err
	}
	s.ring.Commit()
	return nil
}

// Run drains the ring into batches of at most MaxBatch records until ctx
// is done, then flushes whatever is left.
func (s *QuoteService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.drain(context.WithoutCancel(ctx))
			return
		case <-ticker.C:
			s.drain(ctx)
		}
	}
}

// Flush publishes everything currently in the ring.
func (s *QuoteService) Flush(ctx context.Context) {
	s.drain(ctx)
}

func (s *QuoteService) drain(ctx context.Context) {
	s.drainMu.Lock()
	defer s.drainMu.Unlock()

	for s.ring.Len() > 0 {
		buf := s.bufs.Get(s.cfg.MaxBatch)
		n := 0
		for n < s.cfg.MaxBatch {
			slot := s.ring.Peek()
			if slot == nil {
				break
			}
			copy((*buf)[n*marketdata.RecordSize:], slot)
			s.ring.Release()
			n++
		}
		if _, _, err := s.publishPacked(ctx, *buf, n); err != nil {
			s.log.Error("batch publish failed", zap.Int("count", n), zap.Error(err))
		}
		s.bufs.Put(buf)
	}
}

// Pending is the number of submitted quotes not yet batched.
func (s *QuoteService) Pending() int { return s.ring.Len() }

//
// ──────────────────────────────────────────────────────────
// Consuming
// ──────────────────────────────────────────────────────────
//

// HandleBatch folds a consumed batch into the top-of-book view, reading
// each field in place. Records older than what is already held for the
// symbol are ignored. It matches infra/kafka.BatchHandler.
func (s *QuoteService) HandleBatch(_ context.Context, batch []byte, count int) error {
	if err := marketdata.Layout().Batch(batch, count); err != nil {
		return err
	}

	s.bookMu.Lock()
	defer s.bookMu.Unlock()

	for i := 0; i < count; i++ {
		rec, err := marketdata.View(batch, i*marketdata.RecordSize)
		if err != nil {
			return err
		}
		if rec.Kind() != message.Quote {
			continue
		}
		sym := rec.SymbolBytes()
		cur, ok := s.book[string(sym)]
		if ok && rec.Sequence() <= cur.Sequence {
			continue
		}
		s.book[string(sym)] = Top{
			Symbol:    string(sym),
			Bid:       rec.BidPrice(),
			Ask:       rec.AskPrice(),
			BidSize:   rec.BidSize(),
			AskSize:   rec.AskSize(),
			Mid:       rec.MidPrice(),
			SpreadBps: rec.SpreadBps(),
			Sequence:  rec.Sequence(),
			Timestamp: rec.Timestamp(),
		}
	}
	s.metrics.RecordsDecoded.WithLabelValues(kindQuote).Add(float64(count))
	return nil
}

func (s *QuoteService) Top(symbol string) (Top, bool) {
	s.bookMu.RLock()
	defer s.bookMu.RUnlock()
	t, ok := s.book[symbol]
	return t, ok
}

// LastSequence is the last sequence number handed out.
func (s *QuoteService) LastSequence() int64 { return s.seq.Current() }
