package handlers

import (
	"github.com/gin-gonic/gin"

	"cpstock/internal/domain/pipeline"
	"cpstock/internal/infrastructure/http/v1/dto"
)

// SnapshotHandler serves the snapshot report reads. All reads go through the
// pipeline engine so the zero-error validation gate applies uniformly.
type SnapshotHandler struct {
	*BaseHandler
	engine *pipeline.Engine
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(base *BaseHandler, engine *pipeline.Engine) *SnapshotHandler {
	return &SnapshotHandler{
		BaseHandler: base,
		engine:      engine,
	}
}

// GetSnapshot handles GET /snapshot/:date
// Returns 422 VALIDATION_BLOCKED while the snapshot carries validation errors.
func (h *SnapshotHandler) GetSnapshot(c *gin.Context) {
	jobDate, ok := h.ParseDateParam(c, "date")
	if !ok {
		return
	}

	rows, err := h.engine.GetSnapshot(c.Request.Context(), jobDate)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSnapshotRows(jobDate, rows))
}

// GetValidation handles GET /snapshot/:date/validation
// Returns the recorded validation result, including warnings.
func (h *SnapshotHandler) GetValidation(c *gin.Context) {
	jobDate, ok := h.ParseDateParam(c, "date")
	if !ok {
		return
	}

	result, err := h.engine.GetValidation(jobDate)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}
