package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-indexer/pkg/workerpool"
	"go.uber.org/zap"
)

// IndexerService fetches blocks by height from the node and persists them.
type IndexerService struct {
	source      BlockSource
	persister   BlockPersister
	metrics     Metrics
	parallelism int
	logger      *zap.Logger
}

// NewIndexerService creates an indexer; parallelism bounds in-flight heights and
// therefore in-flight RPC calls.
func NewIndexerService(
	source BlockSource,
	persister BlockPersister,
	metrics Metrics,
	parallelism int,
	logger *zap.Logger,
) (*IndexerService, error) {
	if source == nil {
		return nil, errors.New("indexer block source is required")
	}
	if persister == nil {
		return nil, errors.New("indexer block persister is required")
	}
	if metrics == nil {
		return nil, errors.New("indexer metrics is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if parallelism < 1 {
		parallelism = 1
	}
	return &IndexerService{
		source:      source,
		persister:   persister,
		metrics:     metrics,
		parallelism: parallelism,
		logger:      logger.Named("indexer"),
	}, nil
}

// IndexHeight resolves the block hash at height, fetches the block with
// decoded transactions and persists it.
func (s *IndexerService) IndexHeight(ctx context.Context, height int64) error {
	hash, err := s.source.GetBlockHash(ctx, height)
	if err != nil {
		return fmt.Errorf("get block hash %d: %w", height, err)
	}

	block, err := s.source.GetBlockVerboseTx(ctx, hash)
	if err != nil {
		return fmt.Errorf("get block %s: %w", hash, err)
	}

	if err := s.persister.PersistBlock(ctx, block); err != nil {
		return fmt.Errorf("index height %d: %w", height, err)
	}
	return nil
}

// IndexHeights indexes every height; the first failure cancels the remaining work.
func (s *IndexerService) IndexHeights(ctx context.Context, heights []int64) (err error) {
	defer func() {
		s.metrics.ObserveIndexBatch(err, len(heights))
	}()

	if len(heights) == 0 {
		return nil
	}

	s.logger.Info("indexing heights",
		zap.Int64("from", heights[0]),
		zap.Int64("to", heights[len(heights)-1]),
		zap.Int("count", len(heights)),
		zap.Int("parallelism", s.parallelism),
	)

	return workerpool.Process(ctx, s.parallelism, heights, s.IndexHeight, func() {
		s.logger.Warn("indexing canceled after failure")
	})
}
