package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/filterhub/filterhub-api/internal/models"
	"github.com/filterhub/filterhub-api/internal/service"
	appErrors "github.com/filterhub/filterhub-api/pkg/errors"
	"github.com/filterhub/filterhub-api/pkg/response"
)

// FilterHandler exposes filter catalog endpoints.
type FilterHandler struct {
	filters *service.FilterService
	cids    *service.CidService
}

// NewFilterHandler constructs FilterHandler.
func NewFilterHandler(filters *service.FilterService, cids *service.CidService) *FilterHandler {
	return &FilterHandler{filters: filters, cids: cids}
}

// Create godoc
// @Summary Create a filter list
// @Tags Filters
// @Accept json
// @Produce json
// @Param payload body models.CreateFilterRequest true "Filter payload"
// @Success 201 {object} response.Envelope
// @Router /filters [post]
func (h *FilterHandler) Create(c *gin.Context) {
	var req models.CreateFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	filter, err := h.filters.Create(c.Request.Context(), providerIDFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, filter)
}

// List godoc
// @Summary List the provider's own filters
// @Tags Filters
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /filters [get]
func (h *FilterHandler) List(c *gin.Context) {
	filters, err := h.filters.ListOwned(c.Request.Context(), providerIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, filters, nil)
}

// Get godoc
// @Summary Get an owned filter with its identifiers
// @Tags Filters
// @Produce json
// @Param id path int true "Filter ID"
// @Success 200 {object} response.Envelope
// @Router /filters/{id} [get]
func (h *FilterHandler) Get(c *gin.Context) {
	filterID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	providerID := providerIDFromContext(c)
	filter, err := h.filters.GetOwned(c.Request.Context(), providerID, filterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	cids, err := h.cids.ListByFilter(c.Request.Context(), providerID, filterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"filter": filter, "cids": cids}, nil)
}

// Update godoc
// @Summary Patch an owned filter
// @Tags Filters
// @Accept json
// @Produce json
// @Param id path int true "Filter ID"
// @Param payload body models.FilterPatch true "Filter patch"
// @Success 200 {object} response.Envelope
// @Router /filters/{id} [put]
func (h *FilterHandler) Update(c *gin.Context) {
	filterID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var patch models.FilterPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	filter, err := h.filters.Update(c.Request.Context(), providerIDFromContext(c), filterID, patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, filter, nil)
}

// Delete godoc
// @Summary Delete an owned filter
// @Tags Filters
// @Produce json
// @Param id path int true "Filter ID"
// @Success 204
// @Router /filters/{id} [delete]
func (h *FilterHandler) Delete(c *gin.Context) {
	filterID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.filters.Delete(c.Request.Context(), providerIDFromContext(c), filterID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Search godoc
// @Summary Search public filters
// @Tags Filters
// @Produce json
// @Param q query string false "Free text query"
// @Param sort query string false "Sort spec, e.g. name:asc,subs_count:desc"
// @Param page query int false "Zero-based page"
// @Param per_page query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /filters/search [get]
func (h *FilterHandler) Search(c *gin.Context) {
	params := models.PublicSearchParams{
		ProviderID: providerIDFromContext(c),
		Query:      strings.TrimSpace(c.Query("q")),
		Sort:       parseSort(c.Query("sort")),
	}
	params.Page, params.PerPage = parsePage(c)

	result, err := h.filters.SearchPublic(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{Page: params.Page, PageSize: params.PerPage, TotalCount: result.Total}
	response.JSON(c, http.StatusOK, result.Filters, pagination)
}

// GetByShareID godoc
// @Summary Resolve a share token
// @Tags Filters
// @Produce json
// @Param shareId path string true "Share token"
// @Success 200 {object} response.Envelope
// @Router /filters/share/{shareId} [get]
func (h *FilterHandler) GetByShareID(c *gin.Context) {
	row, err := h.filters.GetByShareID(c.Request.Context(), providerIDFromContext(c), c.Param("shareId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// GetByName godoc
// @Summary Find a filter by exact name
// @Tags Filters
// @Produce json
// @Param name query string true "Filter name"
// @Success 200 {object} response.Envelope
// @Router /filters/lookup [get]
func (h *FilterHandler) GetByName(c *gin.Context) {
	filter, err := h.filters.GetByName(c.Request.Context(), strings.TrimSpace(c.Query("name")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, filter, nil)
}

// parseSort parses "field:dir,field2:dir" sort specifications. Direction
// defaults to ascending; unknown fields are resolved by the query layer.
func parseSort(raw string) []models.SortField {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	fields := make([]models.SortField, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field := part
		desc := false
		if idx := strings.IndexByte(part, ':'); idx >= 0 {
			field = part[:idx]
			desc = strings.EqualFold(part[idx+1:], "desc")
		}
		fields = append(fields, models.SortField{Field: field, Descending: desc})
	}
	return fields
}

func parsePage(c *gin.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "0"))
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	return page, perPage
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Validationf(name, "%s must be a positive integer", name)
	}
	return id, nil
}
