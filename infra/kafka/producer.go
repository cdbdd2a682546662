// Package kafka moves packed record batches through Kafka. A message value
// is the batch exactly as the codec laid it out, count*recordSize bytes,
// so consumers can read fields in place without decoding.
package kafka

import (
	"context"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"hftwire/codec/wire"
)

const (
	HeaderLayout = "layout"
	HeaderCount  = "count"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer messageWriter
	layout *wire.Layout
}

func NewProducer(brokers []string, topic string, layout *wire.Layout, batchTimeout time.Duration) *Producer {
	return newProducer(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		BatchTimeout: batchTimeout,
	}, layout)
}

func newProducer(w messageWriter, layout *wire.Layout) *Producer {
	return &Producer{writer: w, layout: layout}
}

// SendBatch publishes count packed records from batch as one message.
// The batch must hold at least count records; only those are sent.
func (p *Producer) SendBatch(ctx context.Context, key []byte, batch []byte, count int) error {
	if err := p.layout.Batch(batch, count); err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: batch[:count*p.layout.Size()],
		Headers: []kafka.Header{
			{Key: HeaderLayout, Value: []byte(p.layout.Name())},
			{Key: HeaderCount, Value: strconv.AppendInt(nil, int64(count), 10)},
		},
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
