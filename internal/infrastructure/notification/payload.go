// Package notification implements the delivery channels the dispatcher fans
// alerts out to (email, push, webhook) and the Kafka publisher that mirrors
// every stored alert onto the downstream alert topic.
package notification

import (
	"fmt"
	"time"

	"github.com/turtacn/KeyIP-Sentinel/internal/application/monitoring"
)

// alertPayload is the wire form of one alert inside a push, webhook, or
// alert-topic message.
type alertPayload struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Type         string    `json:"type"`
	Severity     string    `json:"severity"`
	PatentID     string    `json:"patent_id,omitempty"`
	PatentNumber string    `json:"patent_number,omitempty"`
	Applicant    string    `json:"applicant,omitempty"`
	Technology   string    `json:"technology,omitempty"`
	Jurisdiction string    `json:"jurisdiction,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// deliveryPayload is the wire form of one delivery.
type deliveryPayload struct {
	WatchlistID   string         `json:"watchlist_id"`
	WatchlistName string         `json:"watchlist_name"`
	Digest        bool           `json:"digest"`
	Frequency     string         `json:"frequency,omitempty"`
	AlertCount    int            `json:"alert_count"`
	Alerts        []alertPayload `json:"alerts"`
}

func toPayload(d monitoring.Delivery) deliveryPayload {
	out := deliveryPayload{
		WatchlistID:   string(d.WatchlistID),
		WatchlistName: d.WatchlistName,
		Digest:        d.Digest,
		AlertCount:    len(d.Alerts),
		Alerts:        make([]alertPayload, 0, len(d.Alerts)),
	}
	if d.Digest {
		out.Frequency = string(d.Frequency)
	}
	for _, a := range d.Alerts {
		out.Alerts = append(out.Alerts, alertPayload{
			ID:           string(a.ID),
			Title:        a.Title,
			Description:  a.Description,
			Type:         string(a.Type),
			Severity:     string(a.Severity),
			PatentID:     a.PatentID,
			PatentNumber: a.PatentNumber,
			Applicant:    a.Applicant,
			Technology:   a.Technology,
			Jurisdiction: a.Jurisdiction,
			CreatedAt:    a.CreatedAt,
		})
	}
	return out
}

// subject renders the email subject line for a delivery.
func subject(d monitoring.Delivery) string {
	if d.Digest {
		return fmt.Sprintf("[%s] %s digest: %d alerts", d.WatchlistName, d.Frequency, len(d.Alerts))
	}
	if len(d.Alerts) == 1 {
		return fmt.Sprintf("[%s] %s", d.WatchlistName, d.Alerts[0].Title)
	}
	return fmt.Sprintf("[%s] %d new alerts", d.WatchlistName, len(d.Alerts))
}
