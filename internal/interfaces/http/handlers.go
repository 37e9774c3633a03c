package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/budget-approval/internal/application/service"
	"github.com/garyjia/budget-approval/internal/domain/entity"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	approvalService service.ApprovalService
	probe           HealthProbe
	logger          Logger
}

// NewHandlers creates the handlers. probe may be nil.
func NewHandlers(approvalService service.ApprovalService, probe HealthProbe, logger Logger) *Handlers {
	return &Handlers{
		approvalService: approvalService,
		probe:           probe,
		logger:          logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Components interface{} `json:"components,omitempty"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	code := http.StatusOK
	if h.probe != nil {
		healthy, detail := h.probe()
		resp.Components = detail
		if !healthy {
			resp.Status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}
	c.JSON(code, Response{Success: code == http.StatusOK, Data: resp})
}

// ListUnsettled handles GET /api/v1/records/unsettled
func (h *Handlers) ListUnsettled(c *gin.Context) {
	records, err := h.approvalService.ListUnsettled(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list unsettled records", "request_id", requestID(c), "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve records",
		})
		return
	}
	if records == nil {
		records = []*entity.ExpenseRecord{}
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    records,
	})
}

// GetRecord handles GET /api/v1/records/:id
func (h *Handlers) GetRecord(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid record ID",
		})
		return
	}

	detail, err := h.approvalService.GetRecord(c.Request.Context(), id)
	switch {
	case errors.Is(err, entity.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "record not found",
		})
		return
	case err != nil:
		h.logger.Error("Failed to get record", "request_id", requestID(c), "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve record",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    detail,
	})
}
