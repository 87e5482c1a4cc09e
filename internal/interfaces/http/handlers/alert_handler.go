package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/KeyIP-Sentinel/internal/application/monitoring"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/alert"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

const defaultAlertPageSize = 20

// AlertHandler serves the alert resource.
type AlertHandler struct {
	engine *monitoring.Engine
}

// NewAlertHandler constructs the handler.
func NewAlertHandler(engine *monitoring.Engine) *AlertHandler {
	return &AlertHandler{engine: engine}
}

// List handles GET /alerts with watchlist_id, unread, severity, type,
// limit, and offset query parameters.
func (h *AlertHandler) List(c *gin.Context) {
	f := alert.ListFilter{
		WatchlistID: common.ID(c.Query("watchlist_id")),
		UnreadOnly:  c.Query("unread") == "true",
		Severity:    mtypes.AlertSeverity(c.Query("severity")),
		Type:        mtypes.AlertType(c.Query("type")),
		Limit:       queryInt(c, "limit", defaultAlertPageSize),
		Offset:      queryInt(c, "offset", 0),
	}
	alerts, total, err := h.engine.ListAlerts(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Items: alerts, Total: total})
}

// Get handles GET /alerts/:id.
func (h *AlertHandler) Get(c *gin.Context) {
	a, err := h.engine.GetAlert(c.Request.Context(), pathID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// MarkRead handles POST /alerts/:id/read; repeating it is a no-op.
func (h *AlertHandler) MarkRead(c *gin.Context) {
	a, err := h.engine.MarkAlertRead(c.Request.Context(), pathID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// MarkAllRead handles POST /alerts/read-all, optionally scoped by
// watchlist_id.
func (h *AlertHandler) MarkAllRead(c *gin.Context) {
	n, err := h.engine.MarkAllAlertsRead(c.Request.Context(), common.ID(c.Query("watchlist_id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": n})
}

// UnreadCount handles GET /alerts/unread-count, optionally scoped by
// watchlist_id.
func (h *AlertHandler) UnreadCount(c *gin.Context) {
	n, err := h.engine.UnreadAlertCount(c.Request.Context(), common.ID(c.Query("watchlist_id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}

// Delete handles DELETE /alerts/:id.
func (h *AlertHandler) Delete(c *gin.Context) {
	if err := h.engine.DeleteAlert(c.Request.Context(), pathID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
