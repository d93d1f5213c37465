package postgres

import (
	"context"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/model"
)

const upsertTransactionQuery = `
INSERT INTO transactions (
	txid,
	block_height,
	block_hash,
	time,
	status,
	decoded,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, NOW())
ON CONFLICT (txid) DO UPDATE SET
	block_height = EXCLUDED.block_height,
	block_hash = EXCLUDED.block_hash,
	time = EXCLUDED.time,
	status = EXCLUDED.status,
	decoded = EXCLUDED.decoded,
	updated_at = NOW()`

const insertTransactionInputQuery = `
INSERT INTO tx_inputs (
	txid,
	vin,
	prev_txid,
	prev_vout,
	sequence
) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (txid, vin) DO NOTHING`

const insertTransactionOutputQuery = `
INSERT INTO tx_outputs (
	txid,
	vout,
	value_sats,
	script_type,
	address,
	script_hex
) VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (txid, vout) DO NOTHING`

// UpsertTransaction inserts a transaction or overwrites the row with the same txid.
func (r *Repository) UpsertTransaction(ctx context.Context, tx model.Transaction) (err error) {
	started := time.Now()
	defer func() {
		r.metrics.Observe("upsert_transaction", err, started)
	}()

	decoded := tx.Decoded
	if len(decoded) == 0 {
		decoded = emptyDocument
	}

	if _, err = r.db.Exec(ctx, upsertTransactionQuery,
		tx.TxID,
		tx.BlockHeight,
		tx.BlockHash,
		tx.Time,
		string(tx.Status),
		decoded,
	); err != nil {
		return &model.StorageError{Op: "upsert transaction " + tx.TxID, Err: err}
	}
	return nil
}

// InsertTransactionInput records a spend once; an existing (txid, vin) row is left untouched.
func (r *Repository) InsertTransactionInput(ctx context.Context, input model.TransactionInput) (err error) {
	started := time.Now()
	defer func() {
		r.metrics.Observe("insert_transaction_input", err, started)
	}()

	if _, err = r.db.Exec(ctx, insertTransactionInputQuery,
		input.TxID,
		input.Index,
		input.PrevTxID,
		input.PrevVout,
		input.Sequence,
	); err != nil {
		return &model.StorageError{Op: "insert transaction input " + input.TxID, Err: err}
	}
	return nil
}

// InsertTransactionOutput records an output once; an existing (txid, vout) row is left untouched.
func (r *Repository) InsertTransactionOutput(ctx context.Context, output model.TransactionOutput) (err error) {
	started := time.Now()
	defer func() {
		r.metrics.Observe("insert_transaction_output", err, started)
	}()

	if _, err = r.db.Exec(ctx, insertTransactionOutputQuery,
		output.TxID,
		output.Index,
		output.ValueSats,
		output.ScriptType,
		output.Address,
		output.ScriptHex,
	); err != nil {
		return &model.StorageError{Op: "insert transaction output " + output.TxID, Err: err}
	}
	return nil
}
