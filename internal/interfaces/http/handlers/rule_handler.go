package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/KeyIP-Sentinel/internal/application/monitoring"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/watchlist"
)

// RuleHandler serves alert rules nested under their watchlist.
type RuleHandler struct {
	engine *monitoring.Engine
}

// NewRuleHandler constructs the handler.
func NewRuleHandler(engine *monitoring.Engine) *RuleHandler {
	return &RuleHandler{engine: engine}
}

type createRuleRequest struct {
	Name       string                    `json:"name" binding:"required"`
	Conditions []watchlist.RuleCondition `json:"conditions" binding:"required"`
	Actions    []watchlist.RuleAction    `json:"actions"`
	Active     *bool                     `json:"active"`
}

// Create handles POST /watchlists/:id/rules.
func (h *RuleHandler) Create(c *gin.Context) {
	var req createRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}
	r, err := h.engine.CreateRule(c.Request.Context(), monitoring.CreateRuleInput{
		WatchlistID: pathID(c),
		Name:        req.Name,
		Conditions:  req.Conditions,
		Actions:     req.Actions,
		Active:      req.Active,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// ListByWatchlist handles GET /watchlists/:id/rules.
func (h *RuleHandler) ListByWatchlist(c *gin.Context) {
	rules, err := h.engine.ListRules(c.Request.Context(), pathID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Items: rules, Total: int64(len(rules))})
}

// Get handles GET /rules/:id.
func (h *RuleHandler) Get(c *gin.Context) {
	r, err := h.engine.GetRule(c.Request.Context(), pathID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

type updateRuleRequest struct {
	Name       *string                   `json:"name"`
	Active     *bool                     `json:"active"`
	Conditions []watchlist.RuleCondition `json:"conditions"`
	Actions    []watchlist.RuleAction    `json:"actions"`
}

// Update handles PUT /rules/:id with partial semantics.
func (h *RuleHandler) Update(c *gin.Context) {
	var req updateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}
	r, err := h.engine.UpdateRule(c.Request.Context(), monitoring.UpdateRuleInput{
		ID:         pathID(c),
		Name:       req.Name,
		Active:     req.Active,
		Conditions: req.Conditions,
		Actions:    req.Actions,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// Delete handles DELETE /rules/:id.
func (h *RuleHandler) Delete(c *gin.Context) {
	if err := h.engine.DeleteRule(c.Request.Context(), pathID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
