// Package broadcaster publishes order records from the store outbox to
// Kafka. Each message value is one 64-byte order record.
package broadcaster

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"hftwire/codec/order"
	"hftwire/infra/logger"
	"hftwire/infra/metrics"
	"hftwire/infra/store"
)

const sink = "broadcaster"

type Config struct {
	Topic    string
	Interval time.Duration
	// MaxRetry is how many failed sends an entry gets before it is left
	// in FAILED for an operator.
	MaxRetry int
}

type Broadcaster struct {
	store    *store.Store
	producer sarama.SyncProducer
	cfg      Config
	log      *zap.Logger
	metrics  *metrics.Metrics
}

// ------------------------------------------------
// CONSTRUCTOR
// ------------------------------------------------

// NewProducer dials a sync producer with the acks the outbox relies on.
func NewProducer(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	return sarama.NewSyncProducer(brokers, cfg)
}

func New(st *store.Store, producer sarama.SyncProducer, cfg Config, log *zap.Logger, m *metrics.Metrics) *Broadcaster {
	if m == nil {
		m = metrics.Nop()
	}
	return &Broadcaster{
		store:    st,
		producer: producer,
		cfg:      cfg,
		log:      logger.OrNop(log).Named("broadcaster"),
		metrics:  m,
	}
}

// ------------------------------------------------
// START LOOP
// ------------------------------------------------

func (b *Broadcaster) Start(ctx context.Context) {
	b.log.Info("started", zap.String("topic", b.cfg.Topic), zap.Duration("interval", b.cfg.Interval))

	go func() {
		ticker := time.NewTicker(b.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := b.DeliverOnce(); err != nil {
					b.log.Error("outbox scan failed", zap.Error(err))
				}
			}
		}
	}()
}

// ------------------------------------------------
// DELIVERY
// ------------------------------------------------

type pending struct {
	id    int64
	entry store.OutboxEntry
}

// DeliverOnce sends every NEW or retryable FAILED entry and returns how
// many were acknowledged by Kafka.
func (b *Broadcaster) DeliverOnce() (int, error) {
	var todo []pending
	err := b.store.ScanOutbox(func(id int64, e store.OutboxEntry) error {
		if e.State == store.OutboxFailed && int(e.Retries) >= b.cfg.MaxRetry {
			return nil
		}
		todo = append(todo, pending{id: id, entry: e})
		return nil
	}, store.OutboxNew, store.OutboxFailed)
	if err != nil {
		return 0, err
	}

	rec := make([]byte, order.RecordSize)
	sent := 0
	for _, p := range todo {
		if b.deliver(p, rec) {
			sent++
		}
	}
	return sent, nil
}

func (b *Broadcaster) deliver(p pending, rec []byte) bool {
	log := b.log.With(zap.Int64("order_id", p.id))

	// 1. Mark SENT first; a mutation after this point re-queues as NEW.
	if err := b.store.MarkOutbox(p.id, store.OutboxSent, p.entry.Retries); err != nil {
		log.Error("mark sent", zap.Error(err))
		return false
	}

	// 2. Read the latest image. It may be newer than what queued the entry.
	if err := b.store.Get(p.id, rec); err != nil {
		b.fail(p, log)
		log.Error("load record", zap.Error(err))
		return false
	}

	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(p.id))
	msg := &sarama.ProducerMessage{
		Topic: b.cfg.Topic,
		Key:   sarama.ByteEncoder(key),
		Value: sarama.ByteEncoder(append([]byte(nil), rec...)),
		Headers: []sarama.RecordHeader{
			{Key: []byte("layout"), Value: []byte(order.Layout().Name())},
		},
	}

	// 3. Publish
	partition, offset, err := b.producer.SendMessage(msg)
	if err != nil {
		b.metrics.PublishErrors.WithLabelValues(sink).Inc()
		retries := b.fail(p, log)
		log.Warn("publish failed", zap.Uint32("retries", retries), zap.Error(err))
		return false
	}

	// 4. Ack
	b.metrics.BatchesPublished.WithLabelValues(sink).Inc()
	if err := b.store.AckOutbox(p.id); err != nil {
		log.Error("ack", zap.Error(err))
	}
	log.Debug("published", zap.Int32("partition", partition), zap.Int64("offset", offset))
	return true
}

// fail puts an entry left SENT back as FAILED so a later pass retries it.
func (b *Broadcaster) fail(p pending, log *zap.Logger) uint32 {
	retries := p.entry.Retries + 1
	if err := b.store.MarkOutbox(p.id, store.OutboxFailed, retries); err != nil {
		log.Error("mark failed", zap.Error(err))
	}
	return retries
}

// ------------------------------------------------
// SHUTDOWN
// ------------------------------------------------

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
