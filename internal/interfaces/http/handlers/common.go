// Package handlers implements the REST resource handlers for watchlists,
// rules, alerts, competitors, and the dashboard.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
	"github.com/turtacn/KeyIP-Sentinel/pkg/types/common"
)

// errorResponse is the standard error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondError maps an application error onto its HTTP status.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	code := errors.GetCode(err)
	c.JSON(code.HTTPStatus(), errorResponse{
		Code:    string(code),
		Message: err.Error(),
	})
}

// respondInvalid rejects a malformed request body or parameter.
func respondInvalid(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{
		Code:    string(errors.CodeInvalidParam),
		Message: err.Error(),
	})
}

// pathID extracts the :id path parameter.
func pathID(c *gin.Context) common.ID {
	return common.ID(c.Param("id"))
}

// queryInt parses an integer query parameter, falling back on absence or
// garbage.
func queryInt(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// listResponse wraps collection responses with the pre-pagination total.
type listResponse struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
}
