package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ReadinessCheck reports whether a named dependency can serve traffic.
type ReadinessCheck struct {
	Name  string
	Check func(c *gin.Context) error
}

// HealthHandler serves liveness and readiness probes.  Liveness always
// succeeds while the process is up; readiness runs the registered
// dependency checks and fails if any of them do.
type HealthHandler struct {
	checks []ReadinessCheck
}

// NewHealthHandler constructs the handler with the given readiness checks.
func NewHealthHandler(checks ...ReadinessCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Liveness handles GET /healthz.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

// Readiness handles GET /readyz.
func (h *HealthHandler) Readiness(c *gin.Context) {
	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for _, chk := range h.checks {
		if err := chk.Check(c); err != nil {
			deps[chk.Name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[chk.Name] = "ok"
	}
	body := gin.H{"status": "ok"}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(deps) > 0 {
		body["dependencies"] = deps
	}
	c.JSON(status, body)
}
