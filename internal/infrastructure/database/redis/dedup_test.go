package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
)

type DedupTestSuite struct {
	suite.Suite
	mock  redismock.ClientMock
	index *DedupIndex
}

func (s *DedupTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	s.index = NewDedupIndex(newClientWith(db, "test", logging.NewNopLogger()), 24*time.Hour)
}

func (s *DedupTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func (s *DedupTestSuite) TestSeen_FirstOccurrence() {
	s.mock.ExpectSetNX("test:dedup:wl-1:US12345678", "1", 24*time.Hour).SetVal(true)

	seen, err := s.index.Seen(context.Background(), common.ID("wl-1"), "US12345678", time.Now())
	assert.NoError(s.T(), err)
	assert.False(s.T(), seen)
}

func (s *DedupTestSuite) TestSeen_Duplicate() {
	s.mock.ExpectSetNX("test:dedup:wl-1:US12345678", "1", 24*time.Hour).SetVal(false)

	seen, err := s.index.Seen(context.Background(), common.ID("wl-1"), "US12345678", time.Now())
	assert.NoError(s.T(), err)
	assert.True(s.T(), seen)
}

func (s *DedupTestSuite) TestSeen_DisabledWindow() {
	disabled := NewDedupIndex(s.index.client, -1)

	seen, err := disabled.Seen(context.Background(), common.ID("wl-1"), "US12345678", time.Now())
	assert.NoError(s.T(), err)
	assert.False(s.T(), seen)
}

func TestDedupTestSuite(t *testing.T) {
	suite.Run(t, new(DedupTestSuite))
}
