package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/model"
)

const upsertBlockQuery = `
INSERT INTO blocks (
	hash,
	height,
	prev_hash,
	time,
	status,
	meta,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, NOW())
ON CONFLICT (hash) DO UPDATE SET
	height = EXCLUDED.height,
	prev_hash = EXCLUDED.prev_hash,
	time = EXCLUDED.time,
	status = EXCLUDED.status,
	meta = EXCLUDED.meta,
	updated_at = NOW()`

var emptyDocument = json.RawMessage(`{}`)

// UpsertBlock inserts a block or overwrites the row with the same hash.
func (r *Repository) UpsertBlock(ctx context.Context, block model.Block) (err error) {
	started := time.Now()
	defer func() {
		r.metrics.Observe("upsert_block", err, started)
	}()

	meta := block.Meta
	if len(meta) == 0 {
		meta = emptyDocument
	}

	if _, err = r.db.Exec(ctx, upsertBlockQuery,
		block.Hash,
		block.Height,
		block.PrevHash,
		block.Time,
		string(block.Status),
		meta,
	); err != nil {
		return &model.StorageError{Op: "upsert block " + block.Hash, Err: err}
	}
	return nil
}
