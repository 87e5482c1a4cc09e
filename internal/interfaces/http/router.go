// Package http wires the REST surface: route tree, middleware stack, and the
// server lifecycle around them.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Sentinel/internal/interfaces/http/handlers"
	"github.com/turtacn/KeyIP-Sentinel/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies needed to
// build the complete route tree.  Nil handlers leave their routes unregistered,
// which keeps tests free to mount only the slice they exercise.
type RouterConfig struct {
	WatchlistHandler  *handlers.WatchlistHandler
	RuleHandler       *handlers.RuleHandler
	AlertHandler      *handlers.AlertHandler
	CompetitorHandler *handlers.CompetitorHandler
	DashboardHandler  *handlers.DashboardHandler
	HealthHandler     *handlers.HealthHandler

	// MetricsHandler, when set, is mounted at /metrics.
	MetricsHandler http.Handler

	Logger logging.Logger
}

// NewRouter constructs the route tree with the global middleware stack
// applied.  Gin's mode should be set by the caller before this runs.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recovery(logger))

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	api := r.Group("/api/v1")

	if h := cfg.WatchlistHandler; h != nil {
		api.POST("/watchlists", h.Create)
		api.GET("/watchlists", h.List)
		api.GET("/watchlists/:id", h.Get)
		api.PUT("/watchlists/:id", h.Update)
		api.DELETE("/watchlists/:id", h.Delete)
		api.POST("/watchlists/:id/start", h.Start)
		api.POST("/watchlists/:id/stop", h.Stop)
	}

	if h := cfg.RuleHandler; h != nil {
		api.POST("/watchlists/:id/rules", h.Create)
		api.GET("/watchlists/:id/rules", h.ListByWatchlist)
		api.GET("/rules/:id", h.Get)
		api.PUT("/rules/:id", h.Update)
		api.DELETE("/rules/:id", h.Delete)
	}

	if h := cfg.AlertHandler; h != nil {
		api.GET("/alerts", h.List)
		api.GET("/alerts/unread-count", h.UnreadCount)
		api.POST("/alerts/read-all", h.MarkAllRead)
		api.GET("/alerts/:id", h.Get)
		api.POST("/alerts/:id/read", h.MarkRead)
		api.DELETE("/alerts/:id", h.Delete)
	}

	if h := cfg.CompetitorHandler; h != nil {
		api.POST("/competitors", h.Create)
		api.GET("/competitors", h.List)
		api.GET("/competitors/:id", h.Get)
		api.PUT("/competitors/:id", h.Update)
		api.DELETE("/competitors/:id", h.Delete)
	}

	if h := cfg.DashboardHandler; h != nil {
		api.GET("/dashboard", h.Get)
	}

	return r
}
