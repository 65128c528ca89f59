package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/filterhub/filterhub-api/internal/service"
	"github.com/filterhub/filterhub-api/pkg/response"
)

// MetricsHandler exposes the aggregated system metrics snapshot.
type MetricsHandler struct {
	metrics *service.MetricsService
}

// NewMetricsHandler constructs MetricsHandler.
func NewMetricsHandler(metrics *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Snapshot godoc
// @Summary Aggregated system metrics snapshot
// @Tags Metrics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /metrics/snapshot [get]
func (h *MetricsHandler) Snapshot(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
