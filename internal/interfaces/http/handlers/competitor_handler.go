package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/KeyIP-Sentinel/internal/application/monitoring"
	"github.com/turtacn/KeyIP-Sentinel/internal/domain/watchlist"
	mtypes "github.com/turtacn/KeyIP-Sentinel/pkg/types/monitoring"
)

// CompetitorHandler serves competitor profiles, whose aliases feed the
// filter matcher.
type CompetitorHandler struct {
	engine *monitoring.Engine
}

// NewCompetitorHandler constructs the handler.
func NewCompetitorHandler(engine *monitoring.Engine) *CompetitorHandler {
	return &CompetitorHandler{engine: engine}
}

type createCompetitorRequest struct {
	Name          string                      `json:"name" binding:"required"`
	Aliases       []string                    `json:"aliases"`
	Priority      mtypes.PriorityLevel        `json:"priority"`
	PortfolioSize int                         `json:"portfolio_size"`
	Tracking      *watchlist.TrackingSettings `json:"tracking"`
}

// Create handles POST /competitors.
func (h *CompetitorHandler) Create(c *gin.Context) {
	var req createCompetitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}
	profile, err := h.engine.CreateCompetitor(c.Request.Context(), monitoring.CreateCompetitorInput{
		Name:          req.Name,
		Aliases:       req.Aliases,
		Priority:      req.Priority,
		PortfolioSize: req.PortfolioSize,
		Tracking:      req.Tracking,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

// List handles GET /competitors.
func (h *CompetitorHandler) List(c *gin.Context) {
	profiles, err := h.engine.ListCompetitors(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Items: profiles, Total: int64(len(profiles))})
}

// Get handles GET /competitors/:id.
func (h *CompetitorHandler) Get(c *gin.Context) {
	profile, err := h.engine.GetCompetitor(c.Request.Context(), pathID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type updateCompetitorRequest struct {
	Name          *string                     `json:"name"`
	Aliases       []string                    `json:"aliases"`
	Priority      *mtypes.PriorityLevel       `json:"priority"`
	PortfolioSize *int                        `json:"portfolio_size"`
	Tracking      *watchlist.TrackingSettings `json:"tracking"`
}

// Update handles PUT /competitors/:id with partial semantics.
func (h *CompetitorHandler) Update(c *gin.Context) {
	var req updateCompetitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}
	profile, err := h.engine.UpdateCompetitor(c.Request.Context(), monitoring.UpdateCompetitorInput{
		ID:            pathID(c),
		Name:          req.Name,
		Aliases:       req.Aliases,
		Priority:      req.Priority,
		PortfolioSize: req.PortfolioSize,
		Tracking:      req.Tracking,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Delete handles DELETE /competitors/:id.
func (h *CompetitorHandler) Delete(c *gin.Context) {
	if err := h.engine.DeleteCompetitor(c.Request.Context(), pathID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
