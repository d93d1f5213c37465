package bitcoin

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/model"
	"github.com/goodnatureofminers/blockinsight7000-indexer/pkg/safe"
)

// VerboseBlock is a getblock verbosity 2 result. RawTx keeps every transaction
// exactly as the node sent it, including fields btcjson does not model.
type VerboseBlock struct {
	btcjson.GetBlockVerboseTxResult
	RawTx []json.RawMessage
}

// UnmarshalJSON decodes the typed block and captures the raw tx array next to it.
func (b *VerboseBlock) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &b.GetBlockVerboseTxResult); err != nil {
		return err
	}
	var raw struct {
		Tx []json.RawMessage `json:"tx"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.RawTx = raw.Tx
	return nil
}

type blockMeta struct {
	Version    int32   `json:"version"`
	MerkleRoot string  `json:"merkleroot"`
	Bits       string  `json:"bits"`
	Nonce      uint32  `json:"nonce"`
	Difficulty float64 `json:"difficulty"`
	Size       int32   `json:"size"`
	Weight     int32   `json:"weight"`
	TxCount    int     `json:"tx_count"`
}

// DecodeBlock maps a getblock verbosity 2 result into row sets.
// Rows keep source order: transactions, and per transaction its inputs and outputs.
// The stored transaction document is the node's raw JSON when RawTx lines up with Tx.
func DecodeBlock(src *VerboseBlock) (model.DecodedBlock, error) {
	if src == nil {
		return model.DecodedBlock{}, fmt.Errorf("decode block: nil block")
	}
	if src.RawTx != nil && len(src.RawTx) != len(src.Tx) {
		return model.DecodedBlock{}, fmt.Errorf("block %s has %d raw txs for %d decoded", src.Hash, len(src.RawTx), len(src.Tx))
	}
	if _, err := chainhash.NewHashFromStr(src.Hash); err != nil {
		return model.DecodedBlock{}, fmt.Errorf("block %d hash %q: %w", src.Height, src.Hash, err)
	}
	if src.Height < 0 {
		return model.DecodedBlock{}, fmt.Errorf("block %s negative height %d", src.Hash, src.Height)
	}

	meta, err := json.Marshal(blockMeta{
		Version:    src.Version,
		MerkleRoot: src.MerkleRoot,
		Bits:       src.Bits,
		Nonce:      src.Nonce,
		Difficulty: src.Difficulty,
		Size:       src.Size,
		Weight:     src.Weight,
		TxCount:    len(src.Tx),
	})
	if err != nil {
		return model.DecodedBlock{}, fmt.Errorf("block %s meta: %w", src.Hash, err)
	}

	decoded := model.DecodedBlock{
		Block: model.Block{
			Height:   src.Height,
			Hash:     src.Hash,
			PrevHash: src.PreviousHash,
			Time:     src.Time,
			Status:   model.BlockCanonical,
			Meta:     meta,
		},
		Txs: make([]model.Transaction, 0, len(src.Tx)),
	}

	height := src.Height
	blockHash := src.Hash
	for i := range src.Tx {
		tx := &src.Tx[i]
		if _, err := chainhash.NewHashFromStr(tx.Txid); err != nil {
			return model.DecodedBlock{}, fmt.Errorf("block %s tx %d txid %q: %w", src.Hash, i, tx.Txid, err)
		}

		document, err := txDocument(src, i)
		if err != nil {
			return model.DecodedBlock{}, fmt.Errorf("tx %s document: %w", tx.Txid, err)
		}
		decoded.Txs = append(decoded.Txs, model.Transaction{
			TxID:        tx.Txid,
			BlockHeight: &height,
			BlockHash:   &blockHash,
			Time:        src.Time,
			Status:      model.TransactionConfirmed,
			Decoded:     document,
		})

		inputs, err := decodeInputs(tx)
		if err != nil {
			return model.DecodedBlock{}, err
		}
		decoded.Inputs = append(decoded.Inputs, inputs...)

		outputs, err := decodeOutputs(tx)
		if err != nil {
			return model.DecodedBlock{}, err
		}
		decoded.Outputs = append(decoded.Outputs, outputs...)
	}
	return decoded, nil
}

func txDocument(src *VerboseBlock, i int) (json.RawMessage, error) {
	if src.RawTx != nil {
		return src.RawTx[i], nil
	}
	return json.Marshal(&src.Tx[i])
}

func decodeInputs(tx *btcjson.TxRawResult) ([]model.TransactionInput, error) {
	inputs := make([]model.TransactionInput, 0, len(tx.Vin))
	for idx := range tx.Vin {
		vin := &tx.Vin[idx]
		// coinbase inputs do not reference a previous output
		if vin.IsCoinBase() || vin.Txid == "" {
			continue
		}

		index, err := safe.Int32(idx)
		if err != nil {
			return nil, fmt.Errorf("tx %s input index overflow: %w", tx.Txid, err)
		}
		prevVout, err := safe.Int32(vin.Vout)
		if err != nil {
			return nil, fmt.Errorf("tx %s input %d prev vout overflow: %w", tx.Txid, idx, err)
		}

		inputs = append(inputs, model.TransactionInput{
			TxID:     tx.Txid,
			Index:    index,
			PrevTxID: vin.Txid,
			PrevVout: prevVout,
			Sequence: int64(vin.Sequence),
		})
	}
	return inputs, nil
}

func decodeOutputs(tx *btcjson.TxRawResult) ([]model.TransactionOutput, error) {
	outputs := make([]model.TransactionOutput, 0, len(tx.Vout))
	for _, vout := range tx.Vout {
		if vout.Value < 0 || math.IsNaN(vout.Value) || math.IsInf(vout.Value, 0) {
			return nil, fmt.Errorf("tx %s output %d invalid value: %f", tx.Txid, vout.N, vout.Value)
		}

		index, err := safe.Int32(vout.N)
		if err != nil {
			return nil, fmt.Errorf("tx %s output index overflow: %w", tx.Txid, err)
		}
		value, err := BtcToSatoshis(vout.Value)
		if err != nil {
			return nil, fmt.Errorf("tx %s output %d value: %w", tx.Txid, vout.N, err)
		}

		outputs = append(outputs, model.TransactionOutput{
			TxID:       tx.Txid,
			Index:      index,
			ValueSats:  value,
			ScriptType: vout.ScriptPubKey.Type,
			Address:    ResolveAddress(vout.ScriptPubKey),
			ScriptHex:  vout.ScriptPubKey.Hex,
		})
	}
	return outputs, nil
}
