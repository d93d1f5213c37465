// Package pipeline turns decoded node blocks into persisted rows.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/bitcoin"
	"github.com/goodnatureofminers/blockinsight7000-indexer/pkg/workerpool"
	"go.uber.org/zap"
)

// rowWrite is one insert-if-absent statement for an input or output row.
type rowWrite func(ctx context.Context) error

// BlockPipeline writes one block at a time. Writes are ordered block row,
// then transaction rows, then input and output rows, and are not wrapped in a
// database transaction: every write is idempotent, so re-running a block converges.
type BlockPipeline struct {
	repo    Repository
	metrics Metrics
	writers int
	logger  *zap.Logger
}

// NewBlockPipeline creates a pipeline; writers bounds concurrent input/output inserts.
func NewBlockPipeline(repo Repository, metrics Metrics, writers int, logger *zap.Logger) (*BlockPipeline, error) {
	if repo == nil {
		return nil, errors.New("pipeline repository is required")
	}
	if metrics == nil {
		return nil, errors.New("pipeline metrics is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if writers < 1 {
		writers = 1
	}
	return &BlockPipeline{
		repo:    repo,
		metrics: metrics,
		writers: writers,
		logger:  logger.Named("block_pipeline"),
	}, nil
}

// PersistBlock decodes a getblock verbosity 2 result and stores it.
// Decoding fails before any write. The first failing write aborts the rest.
func (p *BlockPipeline) PersistBlock(ctx context.Context, src *bitcoin.VerboseBlock) (err error) {
	started := time.Now()
	var height int64
	if src != nil {
		height = src.Height
	}
	defer func() {
		p.metrics.ObservePersistBlock(err, height, started)
	}()

	decoded, err := bitcoin.DecodeBlock(src)
	if err != nil {
		return fmt.Errorf("decode block: %w", err)
	}

	if err = p.repo.UpsertBlock(ctx, decoded.Block); err != nil {
		return fmt.Errorf("persist block %s: %w", decoded.Block.Hash, err)
	}

	for _, tx := range decoded.Txs {
		if err = p.repo.UpsertTransaction(ctx, tx); err != nil {
			return fmt.Errorf("persist block %s: %w", decoded.Block.Hash, err)
		}
	}

	writes := make([]rowWrite, 0, len(decoded.Inputs)+len(decoded.Outputs))
	for _, input := range decoded.Inputs {
		input := input
		writes = append(writes, func(ctx context.Context) error {
			return p.repo.InsertTransactionInput(ctx, input)
		})
	}
	for _, output := range decoded.Outputs {
		output := output
		writes = append(writes, func(ctx context.Context) error {
			return p.repo.InsertTransactionOutput(ctx, output)
		})
	}

	if err = workerpool.Process(ctx, p.writers, writes,
		func(ctx context.Context, write rowWrite) error {
			return write(ctx)
		},
		func() {
			p.logger.Warn("aborting row writes", zap.String("hash", decoded.Block.Hash), zap.Int64("height", height))
		},
	); err != nil {
		return fmt.Errorf("persist block %s: %w", decoded.Block.Hash, err)
	}

	p.logger.Debug("block persisted",
		zap.Int64("height", height),
		zap.String("hash", decoded.Block.Hash),
		zap.Int("txs", len(decoded.Txs)),
		zap.Int("inputs", len(decoded.Inputs)),
		zap.Int("outputs", len(decoded.Outputs)),
	)
	return nil
}
