package redis

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
)

type LedgerTestSuite struct {
	suite.Suite
	mock   redismock.ClientMock
	ledger *DeliveryLedger
}

func (s *LedgerTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	s.ledger = NewDeliveryLedger(newClientWith(db, "test", logging.NewNopLogger()))
}

func (s *LedgerTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func (s *LedgerTestSuite) TestRecord() {
	at := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	member := strconv.FormatInt(at.UnixNano(), 10)

	s.mock.ExpectTxPipeline()
	s.mock.ExpectZAdd("test:ledger:wl-1", redis.Z{
		Score:  float64(at.UnixNano()),
		Member: member,
	}).SetVal(1)
	s.mock.ExpectExpire("test:ledger:wl-1", ledgerTTL).SetVal(true)
	s.mock.ExpectTxPipelineExec()

	err := s.ledger.Record(context.Background(), common.ID("wl-1"), at)
	assert.NoError(s.T(), err)
}

func (s *LedgerTestSuite) TestCountSince_EvictsThenCounts() {
	since := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	min := strconv.FormatInt(since.UnixNano(), 10)

	s.mock.ExpectZRemRangeByScore("test:ledger:wl-1", "-inf", "("+min).SetVal(3)
	s.mock.ExpectZCount("test:ledger:wl-1", min, "+inf").SetVal(7)

	n, err := s.ledger.CountSince(context.Background(), common.ID("wl-1"), since)
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), 7, n)
}

func (s *LedgerTestSuite) TestCountSince_WrapsRedisError() {
	since := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	min := strconv.FormatInt(since.UnixNano(), 10)

	s.mock.ExpectZRemRangeByScore("test:ledger:wl-1", "-inf", "("+min).
		SetErr(assert.AnError)

	_, err := s.ledger.CountSince(context.Background(), common.ID("wl-1"), since)
	assert.Error(s.T(), err)
	assert.True(s.T(), errors.IsCode(err, errors.ErrCodeCacheError))
}

func TestLedgerTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}
