// Package transport exposes gRPC/HTTP handlers.
package transport

import (
	"context"
	"errors"
	"time"

	blockinsight7000v1 "github.com/goodnatureofminers/blockinsight7000-proto/pkg/blockinsight7000/v1"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

// Pinger checks a dependency the indexer cannot serve without.
type Pinger interface {
	Ping(ctx context.Context) error
}

const pingTimeout = 2 * time.Second

// HealthHandler reports indexer health over the explorer gRPC service.
// The indexer is healthy while its database answers pings.
type HealthHandler struct {
	blockinsight7000v1.UnimplementedExplorerServiceServer
	db     Pinger
	logger *zap.Logger
}

// NewHealthHandler returns a HealthHandler instance.
func NewHealthHandler(db Pinger, logger *zap.Logger) (*HealthHandler, error) {
	if db == nil {
		return nil, errors.New("health pinger is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{db: db, logger: logger.Named("health")}, nil
}

// Health reports server health.
func (h *HealthHandler) Health(ctx context.Context, _ *blockinsight7000v1.HealthRequest) (*blockinsight7000v1.HealthResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("database ping failed", zap.Error(err))
		return nil, status.Error(codes.Unavailable, "database unavailable")
	}
	return &blockinsight7000v1.HealthResponse{
		Status:      blockinsight7000v1.HealthStatus_HEALTH_STATUS_HEALTHY,
		Description: "database reachable",
	}, nil
}
