package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/filterhub/filterhub-api/internal/models"
	"github.com/filterhub/filterhub-api/internal/service"
	"github.com/filterhub/filterhub-api/pkg/response"
)

// DashboardHandler exposes the subscribed-filters view and account rollups.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Search godoc
// @Summary Search the provider's subscribed filters
// @Tags Dashboard
// @Produce json
// @Param q query string false "Free text query"
// @Param sort query string false "Sort spec, e.g. name:asc"
// @Param page query int false "Zero-based page"
// @Param per_page query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /dashboard/filters [get]
func (h *DashboardHandler) Search(c *gin.Context) {
	params := models.DashboardSearchParams{
		ProviderID: providerIDFromContext(c),
		Query:      strings.TrimSpace(c.Query("q")),
		Sort:       parseSort(c.Query("sort")),
	}
	params.Page, params.PerPage = parsePage(c)

	result, err := h.dashboard.Search(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{Page: params.Page, PageSize: params.PerPage, TotalCount: result.Total}
	response.JSON(c, http.StatusOK, result.Filters, pagination)
}

// Stats godoc
// @Summary Account-level rollups over the subscribed set
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context(), providerIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
