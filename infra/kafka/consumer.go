package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"hftwire/codec/wire"
	"hftwire/infra/logger"
)

// ErrRaggedBatch marks a message whose value is not a whole number of
// records.
var ErrRaggedBatch = errors.New("kafka: batch is not a whole number of records")

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// BatchHandler receives the packed records of one message. batch is only
// valid during the call.
type BatchHandler func(ctx context.Context, batch []byte, count int) error

type Consumer struct {
	reader messageReader
	layout *wire.Layout
	log    *zap.Logger
}

func NewConsumer(brokers []string, topic, groupID string, layout *wire.Layout, log *zap.Logger) *Consumer {
	return newConsumer(kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	}), layout, log)
}

func newConsumer(r messageReader, layout *wire.Layout, log *zap.Logger) *Consumer {
	return &Consumer{reader: r, layout: layout, log: logger.OrNop(log).Named("kafka-consumer")}
}

// Run fetches messages until ctx is done. Ragged batches and handler
// errors are logged and committed past so one bad message cannot wedge
// the partition.
func (c *Consumer) Run(ctx context.Context, h BatchHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch: %w", err)
		}

		if err := c.handle(ctx, msg, h); err != nil {
			c.log.Warn("skipping batch",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit: %w", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message, h BatchHandler) error {
	size := c.layout.Size()
	if len(msg.Value)%size != 0 {
		return fmt.Errorf("%w: %d bytes, record is %d", ErrRaggedBatch, len(msg.Value), size)
	}
	for _, hdr := range msg.Headers {
		if hdr.Key == HeaderLayout && string(hdr.Value) != c.layout.Name() {
			return fmt.Errorf("kafka: message carries %q records, want %q", hdr.Value, c.layout.Name())
		}
	}
	return h(ctx, msg.Value, c.layout.Count(msg.Value))
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
