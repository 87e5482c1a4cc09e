package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

func TestWebhookChannel_PostsPayload(t *testing.T) {
	var got deliveryPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	ch := NewWebhookChannel(time.Second, logging.NewNopLogger())
	d := testDelivery(testAlertFor("New Patent Filed: Solid-State Battery", mtypes.SeverityHigh))
	d.Channel = mtypes.ChannelWebhook
	d.Target = srv.URL

	require.NoError(t, ch.Send(context.Background(), d))
	assert.Equal(t, "wl-1", got.WatchlistID)
	assert.Equal(t, 1, got.AlertCount)
	require.Len(t, got.Alerts, 1)
	assert.Equal(t, "New Patent Filed: Solid-State Battery", got.Alerts[0].Title)
	assert.Equal(t, "high", got.Alerts[0].Severity)
}

func TestWebhookChannel_NoTarget(t *testing.T) {
	ch := NewWebhookChannel(time.Second, logging.NewNopLogger())
	err := ch.Send(context.Background(), testDelivery(testAlertFor("x", mtypes.SeverityLow)))
	assert.Error(t, err)
}

func TestWebhookChannel_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ch := NewWebhookChannel(time.Second, logging.NewNopLogger())
	d := testDelivery(testAlertFor("x", mtypes.SeverityLow))
	d.Target = srv.URL
	assert.Error(t, ch.Send(context.Background(), d))
}

func TestPushChannel_PostsToGateway(t *testing.T) {
	var got deliveryPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	ch := NewPushChannel(srv.URL, time.Second, logging.NewNopLogger())
	d := testDelivery(testAlertFor("Patent Granted: Cathode Mix", mtypes.SeverityMedium))
	d.Channel = mtypes.ChannelPush

	require.NoError(t, ch.Send(context.Background(), d))
	assert.Equal(t, "Battery Watch", got.WatchlistName)
}

func TestPushChannel_NoEndpoint(t *testing.T) {
	ch := NewPushChannel("", time.Second, logging.NewNopLogger())
	assert.Error(t, ch.Send(context.Background(), testDelivery(testAlertFor("x", mtypes.SeverityLow))))
}
