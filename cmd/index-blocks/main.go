package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/config"
	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/bitcoin"
	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/pipeline"
	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/repository/postgres"
	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/metrics"
	"github.com/goodnatureofminers/blockinsight7000-indexer/pkg/batcher"
	"github.com/goodnatureofminers/blockinsight7000-indexer/pkg/safe"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type options struct {
	ConfigPath  string `long:"config" env:"INDEXER_CONFIG" description:"path to the YAML config" default:"config/indexer.yaml"`
	PostgresDSN string `long:"postgres-dsn" env:"INDEXER_POSTGRES_DSN" description:"PostgreSQL DSN" required:"true"`
	From        int64  `long:"from" env:"INDEX_BLOCKS_FROM" description:"first height to index" default:"0"`
	To          int64  `long:"to" env:"INDEX_BLOCKS_TO" description:"last height to index, negative means the node tip" default:"-1"`
	MetricsAddr string `long:"metrics-addr" env:"INDEX_BLOCKS_METRICS_ADDR" description:"address for metrics server" default:":2112"`
}

func main() {
	opts := options{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if _, err := flags.ParseArgs(&opts, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	if err := run(ctx, opts, logger); err != nil {
		logger.Fatal("block indexing failed", zap.Error(err))
	}
}

func run(ctx context.Context, opts options, logger *zap.Logger) error {
	cfg, err := config.LoadIndexing(opts.ConfigPath)
	if err != nil {
		return err
	}
	params, err := cfg.Indexer.ChainParams()
	if err != nil {
		return err
	}

	startMetricsServer(ctx, opts.MetricsAddr, logger)

	client, err := bitcoin.NewClient(cfg.RPC.ClientConfig(), metrics.NewRPCClient(cfg.RPC.NodeID))
	if err != nil {
		return fmt.Errorf("init rpc client: %w", err)
	}

	to := opts.To
	if to < 0 {
		if to, err = client.GetBlockCount(ctx); err != nil {
			return fmt.Errorf("get tip height: %w", err)
		}
	}
	heights, err := heightRange(opts.From, to)
	if err != nil {
		return err
	}

	maxConns, err := poolSize(cfg.Indexer.Concurrency)
	if err != nil {
		return err
	}
	pool, err := postgres.Connect(ctx, postgres.PoolConfig{DSN: opts.PostgresDSN, MaxConns: maxConns}, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo, err := postgres.NewRepository(pool, metrics.NewPostgresRepository())
	if err != nil {
		return err
	}
	pipelineMetrics := metrics.NewBlockPipeline(params.Name)
	persister, err := pipeline.NewBlockPipeline(repo, pipelineMetrics, cfg.Indexer.Concurrency.DBWriterParallelism, logger)
	if err != nil {
		return err
	}
	indexer, err := pipeline.NewIndexerService(client, persister, pipelineMetrics, cfg.Indexer.Concurrency.RPCParallelism, logger)
	if err != nil {
		return err
	}

	logger.Info("indexing blocks",
		zap.String("network", params.Name),
		zap.Int64("from", opts.From),
		zap.Int64("to", to),
	)
	started := time.Now()
	err = batcher.Run(ctx, heights, cfg.Indexer.Batching.BlocksPerBatch, func(ctx context.Context, batch []int64) error {
		if err := indexer.IndexHeights(ctx, batch); err != nil {
			return err
		}
		logger.Info("batch indexed", zap.Int64("from", batch[0]), zap.Int64("to", batch[len(batch)-1]))
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("blocks indexed", zap.Int("count", len(heights)), zap.Duration("took", time.Since(started)))
	return nil
}

// poolSize fits every writer of every in-flight block plus one spare connection.
func poolSize(c config.Concurrency) (int32, error) {
	size, err := safe.Int32(c.RPCParallelism*c.DBWriterParallelism + 1)
	if err != nil {
		return 0, fmt.Errorf("pool size for %d blocks x %d writers: %w", c.RPCParallelism, c.DBWriterParallelism, err)
	}
	return size, nil
}

func heightRange(from, to int64) ([]int64, error) {
	if from < 0 {
		return nil, fmt.Errorf("from height %d is negative", from)
	}
	if to < from {
		return nil, fmt.Errorf("to height %d is below from height %d", to, from)
	}
	heights := make([]int64, 0, to-from+1)
	for h := from; h <= to; h++ {
		heights = append(heights, h)
	}
	return heights, nil
}

func startMetricsServer(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting metrics server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}()
}
