package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"hftwire/codec/order"
	"hftwire/domain/message"
	"hftwire/infra/journal"
	"hftwire/infra/logger"
	"hftwire/infra/memory"
	"hftwire/infra/metrics"
	"hftwire/infra/sequence"
	"hftwire/infra/store"
)

const kindOrder = "order"

/*
OrderService is the ONLY write entry point for order records.

Every placement and mutation:
- runs against the 64-byte record image, never a decoded copy
- is committed to the store together with an outbox entry
- is then appended to the journal as the full record image
*/
type OrderService struct {
	// writeMu spans a store commit and its journal append, so the journal
	// holds images in the order the store committed them.
	writeMu sync.Mutex

	store   *store.Store
	journal *journal.Journal
	codec   *order.Codec
	clock   sequence.Clock
	trades  *sequence.Sequencer
	bufs    *memory.Buffers
	onTrade func(message.Trade)
	log     *zap.Logger
	metrics *metrics.Metrics
}

type OrderOption func(*OrderService)

func WithOrderCodec(c *order.Codec) OrderOption {
	return func(s *OrderService) { s.codec = c }
}

func WithClock(c sequence.Clock) OrderOption {
	return func(s *OrderService) { s.clock = c }
}

// WithTradeHandler receives every trade produced by a fill, after the
// fill is durable.
func WithTradeHandler(fn func(message.Trade)) OrderOption {
	return func(s *OrderService) { s.onTrade = fn }
}

func WithOrderMetrics(m *metrics.Metrics) OrderOption {
	return func(s *OrderService) { s.metrics = m }
}

// NewOrderService wires all dependencies. j may be nil to run without a
// journal.
func NewOrderService(st *store.Store, j *journal.Journal, log *zap.Logger, opts ...OrderOption) *OrderService {
	s := &OrderService{
		store:   st,
		journal: j,
		codec:   order.Default,
		clock:   sequence.NewMonotonicClock(),
		trades:  sequence.New(0),
		bufs:    memory.NewBuffers(order.RecordSize, 1),
		log:     logger.OrNop(log).Named("orders"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop()
	}
	return s
}

//
// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────
//

// PlaceOrder encodes o and stores it as a new record. A zero timestamp is
// stamped from the clock and a zero status becomes NEW.
func (s *OrderService) PlaceOrder(ctx context.Context, o message.Order) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if o.Timestamp == 0 {
		o.Timestamp = s.clock.Nanos()
	}
	if o.Status == 0 {
		o.Status = message.StatusNew
	}
	if o.TimeInForce == 0 {
		o.TimeInForce = message.Day
	}
	if err := validate(o); err != nil {
		return 0, err
	}

	buf := s.bufs.Get(1)
	defer s.bufs.Put(buf)
	rec := *buf

	r, err := order.Layout().Window(rec, 0)
	if err != nil {
		return 0, err
	}
	dropped, err := s.codec.Put(r, o)
	if err != nil {
		return 0, err
	}
	s.metrics.RecordsEncoded.WithLabelValues(kindOrder).Inc()
	if dropped > 0 {
		s.metrics.SymbolTruncations.WithLabelValues(kindOrder).Inc()
		s.log.Debug("symbol truncated", zap.Int64("order_id", o.OrderID), zap.String("symbol", o.Symbol), zap.Int("dropped", dropped))
	}

	id, err := s.commit(func() (int64, error) { return s.store.Insert(rec) }, rec)
	if err != nil {
		s.metrics.OrderMutations.WithLabelValues("place", "error").Inc()
		return id, err
	}

	s.metrics.OrderMutations.WithLabelValues("place", "ok").Inc()
	s.log.Debug("order placed", zap.Int64("order_id", id), zap.Stringer("side", o.Side), zap.Int32("qty", o.Quantity))
	return id, nil
}

// PlaceRecord stores a caller-encoded order record. The record is decoded
// once for validation and then re-encoded so the stored image is canonical.
func (s *OrderService) PlaceRecord(ctx context.Context, rec []byte) (int64, error) {
	if len(rec) != order.RecordSize {
		return 0, fmt.Errorf("%w: record is %d bytes, want %d", ErrInvalidOrder, len(rec), order.RecordSize)
	}
	o, err := order.Decode(rec)
	if err != nil {
		return 0, err
	}
	s.metrics.RecordsDecoded.WithLabelValues(kindOrder).Inc()
	return s.PlaceOrder(ctx, o)
}

// Fill applies an execution of qty at the order's price. It returns the
// updated order and the trade, whose quantity is what was actually
// applied after clamping to the remaining quantity.
func (s *OrderService) Fill(ctx context.Context, id int64, qty int32) (message.Order, message.Trade, error) {
	if err := ctx.Err(); err != nil {
		return message.Order{}, message.Trade{}, err
	}

	buf := s.bufs.Get(1)
	defer s.bufs.Put(buf)

	var before, after int32
	_, err := s.commit(func() (int64, error) {
		return id, s.store.Update(id, *buf, func(r order.Record) error {
			before = r.FilledQuantity()
			var err error
			after, err = r.Fill(qty)
			return err
		})
	}, *buf)
	if err != nil {
		s.metrics.OrderMutations.WithLabelValues("fill", "error").Inc()
		return message.Order{}, message.Trade{}, err
	}
	s.metrics.OrderMutations.WithLabelValues("fill", "ok").Inc()

	rec, err := order.View(*buf, 0)
	if err != nil {
		return message.Order{}, message.Trade{}, err
	}
	o := rec.Decode()
	t := s.tradeFor(o, after-before)

	if t.Quantity > 0 && s.onTrade != nil {
		s.onTrade(t)
	}
	s.log.Debug("order filled", zap.Int64("order_id", id), zap.Int32("filled", after), zap.Stringer("status", o.Status))
	return o, t, nil
}

// tradeFor builds the execution report for a fill. The record's order is
// the resting side; the aggressor is its counterparty.
func (s *OrderService) tradeFor(o message.Order, qty int32) message.Trade {
	t := message.Trade{
		Symbol:    o.Symbol,
		Price:     o.Price,
		Quantity:  qty,
		Timestamp: s.clock.Nanos(),
	}
	if qty > 0 {
		t.TradeID = s.trades.Next()
	}
	if o.IsBuy() {
		t.BuyOrderID = o.OrderID
		t.Aggressor = message.Sell
	} else {
		t.SellOrderID = o.OrderID
		t.Aggressor = message.Buy
	}
	return t
}

// Cancel abandons the unfilled remainder of an order.
func (s *OrderService) Cancel(ctx context.Context, id int64) (message.Order, error) {
	if err := ctx.Err(); err != nil {
		return message.Order{}, err
	}

	buf := s.bufs.Get(1)
	defer s.bufs.Put(buf)

	_, err := s.commit(func() (int64, error) {
		return id, s.store.Update(id, *buf, order.Record.Cancel)
	}, *buf)
	if err != nil {
		s.metrics.OrderMutations.WithLabelValues("cancel", "error").Inc()
		return message.Order{}, err
	}
	s.metrics.OrderMutations.WithLabelValues("cancel", "ok").Inc()

	o, err := order.Decode(*buf)
	if err != nil {
		return message.Order{}, err
	}
	s.log.Debug("order cancelled", zap.Int64("order_id", id), zap.Int32("filled", o.FilledQuantity))
	return o, nil
}

// commit runs write and then journals rec, which write must have filled
// with the committed image.
func (s *OrderService) commit(write func() (int64, error), rec []byte) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	id, err := write()
	if err != nil {
		return id, err
	}
	return id, s.appendJournal(rec)
}

func (s *OrderService) appendJournal(rec []byte) error {
	if s.journal == nil {
		return nil
	}
	if _, err := s.journal.Append(journal.KindOrder, rec); err != nil {
		s.log.Error("journal append failed", zap.Error(err))
		return fmt.Errorf("journal: %w", err)
	}
	s.metrics.JournalAppends.Inc()
	return nil
}

//
// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────
//

// Record copies the stored record image for id into dst.
func (s *OrderService) Record(ctx context.Context, id int64, dst []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.Get(id, dst)
}

func (s *OrderService) Get(ctx context.Context, id int64) (message.Order, error) {
	buf := s.bufs.Get(1)
	defer s.bufs.Put(buf)

	if err := s.Record(ctx, id, *buf); err != nil {
		return message.Order{}, err
	}
	s.metrics.RecordsDecoded.WithLabelValues(kindOrder).Inc()
	return order.Decode(*buf)
}

// Status reads only the status tag of the stored record.
func (s *OrderService) Status(ctx context.Context, id int64) (message.Status, error) {
	buf := s.bufs.Get(1)
	defer s.bufs.Put(buf)

	if err := s.Record(ctx, id, *buf); err != nil {
		return 0, err
	}
	return order.StatusAt(*buf, 0)
}

func validate(o message.Order) error {
	switch {
	case o.Side != message.Buy && o.Side != message.Sell:
		return fmt.Errorf("%w: side %q", ErrInvalidOrder, byte(o.Side))
	case o.Type != message.MarketOrder && o.Type != message.LimitOrder:
		return fmt.Errorf("%w: order type %q", ErrInvalidOrder, byte(o.Type))
	case o.Quantity < 0:
		return fmt.Errorf("%w: negative quantity %d", ErrInvalidOrder, o.Quantity)
	case o.FilledQuantity < 0 || o.FilledQuantity > o.Quantity:
		return fmt.Errorf("%w: filled %d of %d", ErrInvalidOrder, o.FilledQuantity, o.Quantity)
	case !o.Status.Valid():
		return fmt.Errorf("%w: status %q", ErrInvalidOrder, byte(o.Status))
	}
	return nil
}
