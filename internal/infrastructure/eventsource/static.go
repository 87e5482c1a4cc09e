package eventsource

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"time"

	"github.com/turtacn/KeyIP-Sentinel/internal/domain/event"
	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
)

// StaticSource replays a JSON fixture file.  It exists for demos and
// integration tests where neither Kafka nor an upstream API is available.
type StaticSource struct {
	events []event.PatentEvent
}

// NewStaticSource loads and orders the fixture.  The file holds a JSON array
// of patent events.
func NewStaticSource(path string) (*StaticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "eventsource: read fixture failed")
	}
	var events []event.PatentEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "eventsource: parse fixture failed")
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OccurredAt.Before(events[j].OccurredAt)
	})
	return &StaticSource{events: events}, nil
}

// Poll returns fixture events strictly after since.
func (s *StaticSource) Poll(ctx context.Context, since time.Time) ([]event.PatentEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []event.PatentEvent
	for _, evt := range s.events {
		if evt.OccurredAt.After(since) {
			out = append(out, evt)
		}
	}
	return out, nil
}
