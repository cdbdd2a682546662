package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"hftwire/api/grpcserver"
	"hftwire/codec/marketdata"
	"hftwire/codec/order"
	"hftwire/domain/message"
	"hftwire/infra/config"
	"hftwire/infra/journal"
	"hftwire/infra/kafka"
	"hftwire/infra/logger"
	"hftwire/infra/metrics"
	"hftwire/infra/sequence"
	"hftwire/infra/store"
	"hftwire/jobs/broadcaster"
	"hftwire/service"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// ---------------- Config ----------------

	cfg, err := config.Load(*configPath)
	if err != nil {
		// No logger yet.
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	policy, err := cfg.Codec.Policy()
	if err != nil {
		return err
	}

	// ---------------- Metrics ----------------

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	metricsSrv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", zap.Error(err))
		}
	}()

	// ---------------- Store ----------------

	st, err := store.Open(cfg.Store.Dir)
	if err != nil {
		return err
	}
	defer st.Close()

	// ---------------- Journal ----------------

	j, err := journal.Open(journal.Config{
		Dir:             cfg.Journal.Dir,
		SegmentSize:     cfg.Journal.SegmentSize,
		SegmentDuration: cfg.Journal.SegmentDuration,
	})
	if err != nil {
		return err
	}
	defer j.Close()

	// ---------------- Recovery ----------------

	quoteSeq := sequence.New(0)
	stats, err := service.Recover(st, cfg.Snapshot.Dir, cfg.Journal.Dir, quoteSeq, log)
	if err != nil {
		return err
	}
	log.Info("recovered", zap.Int64("journal_seq", stats.LastSeq), zap.Int64("quote_seq", quoteSeq.Current()))

	// ---------------- Kafka ----------------

	var sink service.BatchSink
	if cfg.Kafka.Enabled {
		p := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.QuoteTopic, marketdata.Layout(), cfg.Kafka.BatchTimeout)
		defer p.Close()
		sink = p
	}

	// ---------------- Services ----------------

	clock := sequence.NewMonotonicClock()
	orders := service.NewOrderService(st, j, log,
		service.WithOrderCodec(order.NewCodec(order.WithTextPolicy(policy))),
		service.WithClock(clock),
		service.WithOrderMetrics(m),
		service.WithTradeHandler(func(t message.Trade) {
			log.Info("trade", zap.Stringer("trade", t))
		}),
	)
	quotes := service.NewQuoteService(quoteSeq, j, sink, log,
		service.WithQuoteCodec(marketdata.NewCodec(marketdata.WithTextPolicy(policy))),
		service.WithQuoteClock(clock),
		service.WithQuoteMetrics(m),
		service.WithQuoteConfig(service.QuoteConfig{
			RingSize:      cfg.Quotes.RingSize,
			MaxBatch:      cfg.Quotes.MaxBatch,
			FlushInterval: cfg.Quotes.FlushInterval,
		}),
	)

	// ---------------- Background Jobs ----------------

	batcherDone := make(chan struct{})
	go func() {
		quotes.Run(ctx)
		close(batcherDone)
	}()

	if cfg.Snapshot.Interval > 0 {
		service.NewSnapshotJob(cfg.Snapshot.Dir, st, j, quoteSeq, log).Start(ctx, cfg.Snapshot.Interval)
	}

	if cfg.Broadcaster.Enabled {
		producer, err := broadcaster.NewProducer(cfg.Kafka.Brokers)
		if err != nil {
			return err
		}
		bc := broadcaster.New(st, producer, broadcaster.Config{
			Topic:    cfg.Broadcaster.Topic,
			Interval: cfg.Broadcaster.Interval,
			MaxRetry: cfg.Broadcaster.MaxRetry,
		}, log, m)
		defer bc.Close()
		bc.Start(ctx)
	}

	if cfg.Kafka.Enabled && cfg.Kafka.GroupID != "" {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.QuoteTopic, cfg.Kafka.GroupID, marketdata.Layout(), log)
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx, quotes.HandleBatch); err != nil {
				log.Error("quote consumer stopped", zap.Error(err))
			}
		}()
	}

	// ---------------- gRPC ----------------

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return err
	}

	grpcSrv := grpc.NewServer(grpc.UnaryInterceptor(grpcserver.LoggingInterceptor(log)))
	grpcserver.Register(grpcSrv, grpcserver.NewServer(orders, quotes, log))

	serveErr := make(chan error, 1)
	go func() { serveErr <- grpcSrv.Serve(lis) }()
	log.Info("hftwire running",
		zap.String("grpc", cfg.Server.GRPCAddr),
		zap.String("metrics", cfg.Metrics.Addr+cfg.Metrics.Path),
		zap.Stringer("text_policy", policy),
	)

	// ---------------- Shutdown ----------------

	var serveFailure error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case serveFailure = <-serveErr:
		stop()
	}

	grpcSrv.GracefulStop()
	<-batcherDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)

	if serveFailure != nil {
		return serveFailure
	}
	return j.Sync()
}
