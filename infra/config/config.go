// Package config loads the server configuration from YAML and
// HFTWIRE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"hftwire/codec/wire"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Store       StoreConfig       `mapstructure:"store"`
	Journal     JournalConfig     `mapstructure:"journal"`
	Snapshot    SnapshotConfig    `mapstructure:"snapshot"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Quotes      QuotesConfig      `mapstructure:"quotes"`
	Broadcaster BroadcasterConfig `mapstructure:"broadcaster"`
	Codec       CodecConfig       `mapstructure:"codec"`
	Log         LogConfig         `mapstructure:"log"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

type ServerConfig struct {
	GRPCAddr string `mapstructure:"grpc_addr"`
}

type StoreConfig struct {
	Dir string `mapstructure:"dir"`
}

type JournalConfig struct {
	Dir             string        `mapstructure:"dir"`
	SegmentSize     int64         `mapstructure:"segment_size"`
	SegmentDuration time.Duration `mapstructure:"segment_duration"`
}

type SnapshotConfig struct {
	Dir      string        `mapstructure:"dir"`
	Interval time.Duration `mapstructure:"interval"`
}

type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	QuoteTopic   string        `mapstructure:"quote_topic"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	// GroupID enables the quote consumer when set.
	GroupID string `mapstructure:"group_id"`
}

type QuotesConfig struct {
	RingSize      uint64        `mapstructure:"ring_size"`
	MaxBatch      int           `mapstructure:"max_batch"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

type BroadcasterConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Topic    string        `mapstructure:"topic"`
	Interval time.Duration `mapstructure:"interval"`
	MaxRetry int           `mapstructure:"max_retry"`
}

type CodecConfig struct {
	TextPolicy string `mapstructure:"text_policy"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
	Path string `mapstructure:"path"`
}

const (
	DefaultGRPCAddr        = ":50051"
	DefaultStoreDir        = "./data/orders"
	DefaultJournalDir      = "./data/journal"
	DefaultSegmentSize     = 2 * 1024 * 1024
	DefaultSegmentDuration = time.Minute
	DefaultSnapshotDir     = "./data/snapshots"
	DefaultSnapshotEvery   = time.Minute
	DefaultBroker          = "localhost:9092"
	DefaultQuoteTopic      = "marketdata.quotes"
	DefaultOrderTopic      = "orders.records"
	DefaultBatchTimeout    = 10 * time.Millisecond
	DefaultRingSize        = 4096
	DefaultMaxBatch        = 256
	DefaultFlushInterval   = 5 * time.Millisecond
	DefaultBroadcastEvery  = 250 * time.Millisecond
	DefaultMaxRetry        = 5
	DefaultTextPolicy      = "truncate"
	DefaultLogLevel        = "info"
	DefaultMetricsAddr     = ":9090"
	DefaultMetricsPath     = "/metrics"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.grpc_addr", DefaultGRPCAddr)
	v.SetDefault("store.dir", DefaultStoreDir)
	v.SetDefault("journal.dir", DefaultJournalDir)
	v.SetDefault("journal.segment_size", DefaultSegmentSize)
	v.SetDefault("journal.segment_duration", DefaultSegmentDuration)
	v.SetDefault("snapshot.dir", DefaultSnapshotDir)
	v.SetDefault("snapshot.interval", DefaultSnapshotEvery)
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{DefaultBroker})
	v.SetDefault("kafka.quote_topic", DefaultQuoteTopic)
	v.SetDefault("kafka.batch_timeout", DefaultBatchTimeout)
	v.SetDefault("kafka.group_id", "")
	v.SetDefault("quotes.ring_size", DefaultRingSize)
	v.SetDefault("quotes.max_batch", DefaultMaxBatch)
	v.SetDefault("quotes.flush_interval", DefaultFlushInterval)
	v.SetDefault("broadcaster.enabled", false)
	v.SetDefault("broadcaster.topic", DefaultOrderTopic)
	v.SetDefault("broadcaster.interval", DefaultBroadcastEvery)
	v.SetDefault("broadcaster.max_retry", DefaultMaxRetry)
	v.SetDefault("codec.text_policy", DefaultTextPolicy)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("metrics.addr", DefaultMetricsAddr)
	v.SetDefault("metrics.path", DefaultMetricsPath)
}

// Load reads path (optional) and applies env overrides such as
// HFTWIRE_KAFKA_QUOTE_TOPIC.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("HFTWIRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.GRPCAddr == "" {
		errs = append(errs, errors.New("server.grpc_addr is required"))
	}
	if c.Store.Dir == "" {
		errs = append(errs, errors.New("store.dir is required"))
	}
	if c.Journal.Dir == "" {
		errs = append(errs, errors.New("journal.dir is required"))
	}
	if c.Journal.SegmentSize <= 0 {
		errs = append(errs, fmt.Errorf("journal.segment_size must be positive, got %d", c.Journal.SegmentSize))
	}
	if (c.Kafka.Enabled || c.Broadcaster.Enabled) && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers is required when kafka or the broadcaster is enabled"))
	}
	if r := c.Quotes.RingSize; r == 0 || r&(r-1) != 0 {
		errs = append(errs, fmt.Errorf("quotes.ring_size must be a power of two, got %d", r))
	}
	if c.Quotes.MaxBatch <= 0 {
		errs = append(errs, fmt.Errorf("quotes.max_batch must be positive, got %d", c.Quotes.MaxBatch))
	}
	if c.Broadcaster.Enabled && c.Broadcaster.Interval <= 0 {
		errs = append(errs, errors.New("broadcaster.interval must be positive"))
	}
	if _, err := c.Codec.Policy(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Policy maps codec.text_policy onto the codec setting.
func (c CodecConfig) Policy() (wire.TextPolicy, error) {
	switch strings.ToLower(c.TextPolicy) {
	case "", "truncate":
		return wire.Truncate, nil
	case "reject":
		return wire.Reject, nil
	default:
		return wire.Truncate, fmt.Errorf("codec.text_policy %q: want truncate or reject", c.TextPolicy)
	}
}
