package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/KeyIP-Sentinel/internal/application/monitoring"
)

// DashboardHandler serves the aggregated monitoring dashboard.
type DashboardHandler struct {
	engine *monitoring.Engine
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(engine *monitoring.Engine) *DashboardHandler {
	return &DashboardHandler{engine: engine}
}

// Get handles GET /dashboard.  The trend window is tunable via
// trend_window_days; everything else uses engine defaults.
func (h *DashboardHandler) Get(c *gin.Context) {
	var opts monitoring.DashboardOptions
	if days := queryInt(c, "trend_window_days", 0); days > 0 {
		opts.TrendWindow = time.Duration(days) * 24 * time.Hour
	}
	opts.RecentAlerts = queryInt(c, "recent_alerts", 0)
	d, err := h.engine.Dashboard(c.Request.Context(), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
