package postgres

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/model"
)

func (s *RepositorySuite) TestUpsertTransactionIdempotent() {
	height := int64(10)
	hash := strings.Repeat("c", 64)
	tx := model.Transaction{
		TxID:        strings.Repeat("d", 64),
		BlockHeight: &height,
		BlockHash:   &hash,
		Time:        1700000000,
		Status:      model.TransactionConfirmed,
		Decoded:     json.RawMessage(`{"version":1}`),
	}

	s.Require().NoError(s.repo.UpsertTransaction(s.testCtx, tx))
	s.Require().NoError(s.repo.UpsertTransaction(s.testCtx, tx))
	s.Equal(int64(1), s.countRows("transactions"))
}

func (s *RepositorySuite) TestInsertTransactionOutputKeepsFirstWrite() {
	address := "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"
	output := model.TransactionOutput{
		TxID:       strings.Repeat("e", 64),
		Index:      1,
		ValueSats:  5000,
		ScriptType: "witness_v0_keyhash",
		Address:    &address,
		ScriptHex:  "0014e8df018c7e326cc253faac7e46cdc51e68542c42",
	}
	s.Require().NoError(s.repo.InsertTransactionOutput(s.testCtx, output))

	changed := output
	changed.ValueSats = 1
	changed.Address = nil
	s.Require().NoError(s.repo.InsertTransactionOutput(s.testCtx, changed))

	var (
		value int64
		addr  *string
	)
	err := s.pool.QueryRow(s.testCtx,
		`SELECT value_sats, address FROM tx_outputs WHERE txid = $1 AND vout = $2`,
		output.TxID, output.Index,
	).Scan(&value, &addr)
	s.Require().NoError(err)
	s.Equal(int64(5000), value)
	s.Require().NotNil(addr)
	s.Equal(address, *addr)
	s.Equal(int64(1), s.countRows("tx_outputs"))
}

func (s *RepositorySuite) TestInsertTransactionOutputRejectsNegativeValue() {
	err := s.repo.InsertTransactionOutput(s.testCtx, model.TransactionOutput{
		TxID:       strings.Repeat("f", 64),
		Index:      0,
		ValueSats:  -1,
		ScriptType: "nonstandard",
		ScriptHex:  "",
	})
	var storageErr *model.StorageError
	s.Require().True(errors.As(err, &storageErr), "got %v", err)
}

func (s *RepositorySuite) TestInsertTransactionInputIdempotent() {
	input := model.TransactionInput{
		TxID:     strings.Repeat("1", 64),
		Index:    0,
		PrevTxID: strings.Repeat("2", 64),
		PrevVout: 3,
		Sequence: 4294967295,
	}
	s.Require().NoError(s.repo.InsertTransactionInput(s.testCtx, input))
	s.Require().NoError(s.repo.InsertTransactionInput(s.testCtx, input))
	s.Equal(int64(1), s.countRows("tx_inputs"))
}
