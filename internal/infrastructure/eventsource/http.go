package eventsource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/turtacn/KeyIP-Sentinel/internal/config"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/event"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
)

const (
	defaultHTTPTimeout = 15 * time.Second
	defaultPageSize    = 100
	maxPages           = 50
)

// eventsPage is the wire shape of one page from the upstream registry API.
type eventsPage struct {
	Events  []event.PatentEvent `json:"events"`
	HasMore bool                `json:"has_more"`
}

// HTTPSource polls an upstream patent-registry API for events.  Failures are
// transient: the scheduler retries the same window on its next tick.
type HTTPSource struct {
	baseURL  string
	apiKey   string
	pageSize int
	client   *http.Client
	logger   logging.Logger
}

// NewHTTPSource builds a source polling cfg.BaseURL/events.
func NewHTTPSource(cfg config.EventSourceConfig, logger logging.Logger) *HTTPSource {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HTTPSource{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		pageSize: pageSize,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.Named("http-source"),
	}
}

// Poll pages through /events until the upstream reports no more, returning
// events strictly after since, oldest first.
func (s *HTTPSource) Poll(ctx context.Context, since time.Time) ([]event.PatentEvent, error) {
	var all []event.PatentEvent
	for page := 1; page <= maxPages; page++ {
		pg, err := s.fetchPage(ctx, since, page)
		if err != nil {
			return nil, err
		}
		for _, evt := range pg.Events {
			if evt.OccurredAt.After(since) && evt.Kind.IsValid() {
				all = append(all, evt)
			}
		}
		if !pg.HasMore {
			break
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].OccurredAt.Before(all[j].OccurredAt)
	})
	return all, nil
}

func (s *HTTPSource) fetchPage(ctx context.Context, since time.Time, page int) (*eventsPage, error) {
	q := url.Values{}
	q.Set("since", since.UTC().Format(time.RFC3339Nano))
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(s.pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/events?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "eventsource: build request failed")
	}
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.TransientSource("eventsource: poll request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.TransientSource(
			fmt.Sprintf("eventsource: upstream returned %d", resp.StatusCode), nil)
	}

	var pg eventsPage
	if err := json.NewDecoder(resp.Body).Decode(&pg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "eventsource: decode page failed")
	}
	return &pg, nil
}
