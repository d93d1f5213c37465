package postgres

import (
	"encoding/json"
	"strings"

	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/model"
)

func (s *RepositorySuite) TestUpsertBlockOverwritesByHash() {
	block := model.Block{
		Height:   100,
		Hash:     strings.Repeat("a", 64),
		PrevHash: strings.Repeat("b", 64),
		Time:     1700000000,
		Status:   model.BlockCanonical,
	}
	s.Require().NoError(s.repo.UpsertBlock(s.testCtx, block))

	block.Time = 1700000600
	block.Meta = json.RawMessage(`{"tx_count":3}`)
	s.Require().NoError(s.repo.UpsertBlock(s.testCtx, block))

	s.Equal(int64(1), s.countRows("blocks"))

	var (
		gotTime int64
		gotMeta json.RawMessage
	)
	err := s.pool.QueryRow(s.testCtx, `SELECT time, meta FROM blocks WHERE hash = $1`, block.Hash).Scan(&gotTime, &gotMeta)
	s.Require().NoError(err)
	s.Equal(int64(1700000600), gotTime)
	s.JSONEq(`{"tx_count":3}`, string(gotMeta))
}

func (s *RepositorySuite) TestUpsertBlockWithoutPrevHash() {
	block := model.Block{
		Height: 0,
		Hash:   strings.Repeat("0", 64),
		Time:   1231006505,
		Status: model.BlockCanonical,
	}
	s.Require().NoError(s.repo.UpsertBlock(s.testCtx, block))

	var prev string
	err := s.pool.QueryRow(s.testCtx, `SELECT prev_hash FROM blocks WHERE hash = $1`, block.Hash).Scan(&prev)
	s.Require().NoError(err)
	s.Empty(prev)
}
