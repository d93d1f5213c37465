package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/config"
	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/jobs"
	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/repository/postgres"
	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/metrics"
	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/transport"
	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/transport/httpapi"
	blockinsight7000v1 "github.com/goodnatureofminers/blockinsight7000-proto/pkg/blockinsight7000/v1"
	grpcMiddleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpcZap "github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	grpcRecovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	grpcCtxTags "github.com/grpc-ecosystem/go-grpc-middleware/tags"
	grpcPrometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	gwruntime "github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var options struct {
	ConfigPath  string `long:"config" env:"INDEXER_CONFIG" description:"path to the YAML config" default:"config/indexer.yaml"`
	PostgresDSN string `long:"postgres-dsn" env:"INDEXER_POSTGRES_DSN" description:"PostgreSQL DSN" required:"true"`
	MaxConns    int32  `long:"postgres-max-conns" env:"INDEXER_POSTGRES_MAX_CONNS" description:"connection pool size" default:"10"`
	GRPCAddr    string `long:"grpc-addr" env:"INDEXER_GRPC_ADDR" description:"health gRPC addr" default:"127.0.0.1:9000"`
	OpsAddr     string `long:"ops-addr" env:"INDEXER_OPS_ADDR" description:"health gateway and metrics addr" default:":9001"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()
	grpcZap.ReplaceGrpcLoggerV2(logger)
	if _, err := flags.ParseArgs(&options, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("Failed to parse arguments", zap.Error(err))
	}

	if err := run(ctx, logger); err != nil {
		logger.Fatal("indexer failed", zap.Error(err))
	}
}

func run(ctx context.Context, logger *zap.Logger) error {
	cfg, err := config.Load(options.ConfigPath)
	if err != nil {
		return err
	}
	params, err := cfg.Indexer.ChainParams()
	if err != nil {
		return err
	}
	logger.Info("config loaded",
		zap.String("path", options.ConfigPath),
		zap.String("chain", cfg.Indexer.Chain),
		zap.String("network", params.Name),
		zap.Int("jobs", len(cfg.Jobs)),
	)

	pool, err := postgres.Connect(ctx, postgres.PoolConfig{DSN: options.PostgresDSN, MaxConns: options.MaxConns}, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo, err := postgres.NewRepository(pool, metrics.NewPostgresRepository())
	if err != nil {
		return err
	}
	jobService, err := jobs.NewService(repo, logger)
	if err != nil {
		return err
	}
	specs, err := cfg.JobSpecs()
	if err != nil {
		return err
	}
	if err := jobService.SyncFromConfig(ctx, specs); err != nil {
		return err
	}

	health, err := transport.NewHealthHandler(pool, logger)
	if err != nil {
		return err
	}
	if err := startOpsServers(ctx, health, logger); err != nil {
		return err
	}

	api, err := httpapi.NewServer(jobService, httpapi.Options{
		Username:       cfg.Server.Auth.Basic.Username,
		Password:       cfg.Server.Auth.Basic.Password,
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
	}, metrics.NewHTTPAPI(), logger)
	if err != nil {
		return err
	}

	s := newHTTPServer(cfg.Server.Addr(), api.Handler())
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down the control API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shutdown control API", zap.Error(err))
		}
	}()

	logger.Info("Starting control API", zap.String("addr", s.Addr))
	if err := s.ListenAndServeTLS(cfg.Server.TLS.CertPath, cfg.Server.TLS.KeyPath); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// startOpsServers runs the health gRPC service and its REST gateway next to /metrics.
func startOpsServers(ctx context.Context, health blockinsight7000v1.ExplorerServiceServer, logger *zap.Logger) error {
	chain := []grpc.UnaryServerInterceptor{
		grpcRecovery.UnaryServerInterceptor(),
		grpcCtxTags.UnaryServerInterceptor(),
		grpcPrometheus.UnaryServerInterceptor,
		grpcZap.UnaryServerInterceptor(logger),
	}
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(grpcMiddleware.ChainUnaryServer(chain...)),
	)
	grpcPrometheus.EnableHandlingTimeHistogram()
	blockinsight7000v1.RegisterExplorerServiceServer(grpcServer, health)
	grpcPrometheus.Register(grpcServer)

	socket, err := net.Listen("tcp", options.GRPCAddr)
	if err != nil {
		return err
	}
	go func() {
		if serveErr := grpcServer.Serve(socket); serveErr != nil {
			logger.Error("gRPC server stopped", zap.Error(serveErr))
		}
	}()
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down gRPC server")
		grpcServer.GracefulStop()
	}()

	gw := gwruntime.NewServeMux()
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if err := blockinsight7000v1.RegisterExplorerServiceHandlerFromEndpoint(ctx, gw, options.GRPCAddr, opts); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/", gw)
	mux.Handle("/metrics", promhttp.Handler())

	s := newHTTPServer(options.OpsAddr, cors.Default().Handler(mux))
	go func() {
		<-ctx.Done()
		if err := s.Shutdown(context.Background()); err != nil {
			logger.Error("Failed to shutdown ops server", zap.Error(err))
		}
	}()
	go func() {
		logger.Info("Starting ops server", zap.String("addr", options.OpsAddr))
		if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Failed to listen and serve", zap.Error(err))
		}
	}()
	return nil
}

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}
}
