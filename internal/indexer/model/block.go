// Package model defines domain models for block indexing and job control.
package model

import "encoding/json"

// BlockStatus describes chain status of a block record.
type BlockStatus string

var (
	// BlockCanonical marks a block that belongs to the accepted chain.
	BlockCanonical BlockStatus = "canonical"
)

// Block represents a block row persisted to the blocks table.
type Block struct {
	Height   int64
	Hash     string
	PrevHash string
	Time     int64
	Status   BlockStatus
	Meta     json.RawMessage
}

// DecodedBlock groups a block with the rows derived from its transactions.
type DecodedBlock struct {
	Block   Block
	Txs     []Transaction
	Inputs  []TransactionInput
	Outputs []TransactionOutput
}
