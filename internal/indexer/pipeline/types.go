package pipeline

import (
	"context"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/bitcoin"
	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Repository interface {
		UpsertBlock(ctx context.Context, block model.Block) error
		UpsertTransaction(ctx context.Context, tx model.Transaction) error
		InsertTransactionInput(ctx context.Context, input model.TransactionInput) error
		InsertTransactionOutput(ctx context.Context, output model.TransactionOutput) error
	}
	BlockSource interface {
		GetBlockHash(ctx context.Context, height int64) (string, error)
		GetBlockVerboseTx(ctx context.Context, hash string) (*bitcoin.VerboseBlock, error)
	}
	BlockPersister interface {
		PersistBlock(ctx context.Context, block *bitcoin.VerboseBlock) error
	}
	Metrics interface {
		ObservePersistBlock(err error, height int64, started time.Time)
		ObserveIndexBatch(err error, heights int)
	}
)
