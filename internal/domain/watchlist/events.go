package watchlist

import (
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
)

type WatchlistCreatedEvent struct {
	common.BaseEvent
	Name    string        `json:"name"`
	OwnerID common.UserID `json:"owner_id"`
	Active  bool          `json:"active"`
}

func NewWatchlistCreatedEvent(w *Watchlist) *WatchlistCreatedEvent {
	return &WatchlistCreatedEvent{
		BaseEvent: common.NewBaseEvent(string(w.ID)),
		Name:      w.Name,
		OwnerID:   w.OwnerID,
		Active:    w.Active,
	}
}

type WatchlistUpdatedEvent struct {
	common.BaseEvent
	Name    string `json:"name"`
	Active  bool   `json:"active"`
	Version int    `json:"version"`
}

func NewWatchlistUpdatedEvent(w *Watchlist) *WatchlistUpdatedEvent {
	return &WatchlistUpdatedEvent{
		BaseEvent: common.NewBaseEvent(string(w.ID)),
		Name:      w.Name,
		Active:    w.Active,
		Version:   w.Version,
	}
}

type WatchlistDeletedEvent struct {
	common.BaseEvent
	Name string `json:"name"`
}

func NewWatchlistDeletedEvent(w *Watchlist) *WatchlistDeletedEvent {
	return &WatchlistDeletedEvent{
		BaseEvent: common.NewBaseEvent(string(w.ID)),
		Name:      w.Name,
	}
}
