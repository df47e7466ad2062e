// Package handlers provides HTTP request handlers.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cpstock/internal/core/apperror"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler (single source of truth).
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// ParseDateParam parses a YYYY-MM-DD path parameter. Returns false after
// registering a validation error.
func (h *BaseHandler) ParseDateParam(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Param(name)
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid date parameter").
			WithDetail("param", name).
			WithDetail("value", raw))
		return time.Time{}, false
	}
	return parsed, true
}
