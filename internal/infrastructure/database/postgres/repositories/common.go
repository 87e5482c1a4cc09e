// Package repositories provides the PostgreSQL implementations of the
// watchlist, rule, competitor, and alert repository contracts.
package repositories

import (
	"encoding/json"
	stderrors "errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/turtacn/KeyIP-Sentinel/internal/domain/watchlist"
	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a duplicate-key insert.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// statsRecord is the JSONB persistence form of watchlist statistics.  The
// seen-patent set does not marshal on the domain type, so it rides alongside
// as a plain list.
type statsRecord struct {
	watchlist.Stats
	SeenPatents []string `json:"seen_patents,omitempty"`
}

func encodeStats(s watchlist.Stats) ([]byte, error) {
	rec := statsRecord{Stats: s}
	for id := range s.SeenPatents {
		rec.SeenPatents = append(rec.SeenPatents, id)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "postgres: encode stats failed")
	}
	return data, nil
}

func decodeStats(data []byte) (watchlist.Stats, error) {
	var rec statsRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return watchlist.Stats{}, errors.Wrap(err, errors.ErrCodeSerialization, "postgres: decode stats failed")
	}
	s := rec.Stats
	s.SeenPatents = make(map[string]struct{}, len(rec.SeenPatents))
	for _, id := range rec.SeenPatents {
		s.SeenPatents[id] = struct{}{}
	}
	if s.ByType == nil {
		s.ByType = make(map[mtypes.AlertType]int64)
	}
	return s, nil
}
