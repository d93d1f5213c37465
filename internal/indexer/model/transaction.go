package model

import "encoding/json"

// TransactionStatus describes confirmation status of a transaction record.
type TransactionStatus string

var (
	// TransactionConfirmed marks a transaction included in a block.
	TransactionConfirmed TransactionStatus = "confirmed"
)

// Transaction represents a transaction row with its full decoded payload.
type Transaction struct {
	TxID        string
	BlockHeight *int64
	BlockHash   *string
	Time        int64
	Status      TransactionStatus
	Decoded     json.RawMessage
}

// TransactionInput describes a spend of a previous transaction output.
type TransactionInput struct {
	TxID     string
	Index    int32
	PrevTxID string
	PrevVout int32
	Sequence int64
}

// TransactionOutput represents an output created by a transaction.
type TransactionOutput struct {
	TxID       string
	Index      int32
	ValueSats  int64
	ScriptType string
	Address    *string
	ScriptHex  string
}
