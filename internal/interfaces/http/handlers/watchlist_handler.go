package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/KeyIP-Sentinel/internal/application/monitoring"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/watchlist"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
)

// WatchlistHandler serves the watchlist resource, including the manual
// start/stop monitoring overrides.
type WatchlistHandler struct {
	engine *monitoring.Engine
}

// NewWatchlistHandler constructs the handler.
func NewWatchlistHandler(engine *monitoring.Engine) *WatchlistHandler {
	return &WatchlistHandler{engine: engine}
}

type createWatchlistRequest struct {
	Name         string                   `json:"name" binding:"required"`
	Description  string                   `json:"description"`
	OwnerID      string                   `json:"owner_id" binding:"required"`
	Filters      watchlist.FilterCriteria `json:"filters"`
	Settings     *watchlist.AlertSettings `json:"settings"`
	PollInterval *time.Duration           `json:"poll_interval"`
	Active       *bool                    `json:"active"`
}

// Create handles POST /watchlists.
func (h *WatchlistHandler) Create(c *gin.Context) {
	var req createWatchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}
	input := monitoring.CreateWatchlistInput{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     common.UserID(req.OwnerID),
		Filters:     req.Filters,
		Settings:    req.Settings,
		Active:      req.Active,
	}
	if req.PollInterval != nil {
		input.PollInterval = *req.PollInterval
	}
	w, err := h.engine.CreateWatchlist(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

// List handles GET /watchlists, optionally filtered by owner_id.
func (h *WatchlistHandler) List(c *gin.Context) {
	ws, err := h.engine.ListWatchlists(c.Request.Context(), common.UserID(c.Query("owner_id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Items: ws, Total: int64(len(ws))})
}

// Get handles GET /watchlists/:id.
func (h *WatchlistHandler) Get(c *gin.Context) {
	w, err := h.engine.GetWatchlist(c.Request.Context(), pathID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

type updateWatchlistRequest struct {
	Name         *string                   `json:"name"`
	Description  *string                   `json:"description"`
	Active       *bool                     `json:"active"`
	Filters      *watchlist.FilterCriteria `json:"filters"`
	Settings     *watchlist.AlertSettings  `json:"settings"`
	PollInterval *time.Duration            `json:"poll_interval"`
}

// Update handles PUT /watchlists/:id with partial semantics.
func (h *WatchlistHandler) Update(c *gin.Context) {
	var req updateWatchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}
	w, err := h.engine.UpdateWatchlist(c.Request.Context(), pathID(c), watchlist.Update{
		Name:         req.Name,
		Description:  req.Description,
		Active:       req.Active,
		Filters:      req.Filters,
		Settings:     req.Settings,
		PollInterval: req.PollInterval,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// Delete handles DELETE /watchlists/:id, cascading to rules and alerts.
func (h *WatchlistHandler) Delete(c *gin.Context) {
	if err := h.engine.DeleteWatchlist(c.Request.Context(), pathID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Start handles POST /watchlists/:id/start.
func (h *WatchlistHandler) Start(c *gin.Context) {
	if err := h.engine.StartMonitoring(c.Request.Context(), pathID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"monitoring": true})
}

// Stop handles POST /watchlists/:id/stop.
func (h *WatchlistHandler) Stop(c *gin.Context) {
	if err := h.engine.StopMonitoring(c.Request.Context(), pathID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"monitoring": false})
}
