package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/filterhub/filterhub-api/internal/models"
	"github.com/filterhub/filterhub-api/internal/service"
	appErrors "github.com/filterhub/filterhub-api/pkg/errors"
	"github.com/filterhub/filterhub-api/pkg/response"
)

// ProviderHandler exposes account, settings, export and deal endpoints.
type ProviderHandler struct {
	providers *service.ProviderService
	exports   *service.ExportService
	deals     *service.DealService
}

// NewProviderHandler constructs ProviderHandler.
func NewProviderHandler(providers *service.ProviderService, exports *service.ExportService, deals *service.DealService) *ProviderHandler {
	return &ProviderHandler{providers: providers, exports: exports, deals: deals}
}

// Me godoc
// @Summary Get the authenticated provider profile
// @Tags Providers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /providers/me [get]
func (h *ProviderHandler) Me(c *gin.Context) {
	provider, err := h.providers.Get(c.Request.Context(), providerIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, provider, nil)
}

// Update godoc
// @Summary Update the provider's business metadata
// @Tags Providers
// @Accept json
// @Produce json
// @Param payload body service.ProviderUpdateRequest true "Provider payload"
// @Success 200 {object} response.Envelope
// @Router /providers/me [put]
func (h *ProviderHandler) Update(c *gin.Context) {
	var req service.ProviderUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	provider, err := h.providers.Update(c.Request.Context(), providerIDFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, provider, nil)
}

// GetConfig godoc
// @Summary Get the provider's settings
// @Tags Providers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /providers/me/config [get]
func (h *ProviderHandler) GetConfig(c *gin.Context) {
	cfg, err := h.providers.GetConfig(c.Request.Context(), providerIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// UpdateConfig godoc
// @Summary Replace the provider's settings
// @Tags Providers
// @Accept json
// @Produce json
// @Param payload body models.ProviderConfig true "Settings payload"
// @Success 200 {object} response.Envelope
// @Router /providers/me/config [put]
func (h *ProviderHandler) UpdateConfig(c *gin.Context) {
	var cfg models.ProviderConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	updated, err := h.providers.UpdateConfig(c.Request.Context(), providerIDFromContext(c), cfg)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// Delete godoc
// @Summary Delete a provider account and everything it owns
// @Tags Providers
// @Produce json
// @Param wallet path string true "Hashed wallet address"
// @Success 204
// @Router /providers/{wallet} [delete]
func (h *ProviderHandler) Delete(c *gin.Context) {
	if err := h.providers.Delete(c.Request.Context(), providerIDFromContext(c), c.Param("wallet")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Queue an account export archive
// @Tags Exports
// @Produce json
// @Param wallet path string true "Hashed wallet address"
// @Success 202 {object} response.Envelope
// @Router /providers/{wallet}/export [post]
func (h *ProviderHandler) Export(c *gin.Context) {
	job, err := h.exports.Enqueue(c.Request.Context(), providerIDFromContext(c), c.Param("wallet"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// ExportStatus godoc
// @Summary Get export job status
// @Tags Exports
// @Produce json
// @Param jobId path string true "Export job ID"
// @Success 200 {object} response.Envelope
// @Router /exports/{jobId} [get]
func (h *ProviderHandler) ExportStatus(c *gin.Context) {
	job, err := h.exports.GetJob(providerIDFromContext(c), c.Param("jobId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// ExportDownload godoc
// @Summary Download an export archive via a signed token
// @Tags Exports
// @Produce application/zip
// @Param token query string true "Signed download token"
// @Success 200
// @Router /exports/download [get]
func (h *ProviderHandler) ExportDownload(c *gin.Context) {
	file, err := h.exports.OpenDownload(c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", `attachment; filename="account-export.zip"`)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}

// Manifest godoc
// @Summary Render a filter's identifier manifest as CSV or PDF
// @Tags Exports
// @Produce text/csv
// @Param id path int true "Filter ID"
// @Param format query string false "csv or pdf"
// @Success 200
// @Router /filters/{id}/manifest [get]
func (h *ProviderHandler) Manifest(c *gin.Context) {
	filterID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	format := models.ManifestFormat(c.DefaultQuery("format", "csv"))
	payload, filename, err := h.exports.RenderManifest(c.Request.Context(), providerIDFromContext(c), filterID, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	contentType := "text/csv"
	if format == models.ManifestFormatPDF {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}

// Decide godoc
// @Summary Record a retrieval decision for a cid
// @Tags Deals
// @Accept json
// @Produce json
// @Param payload body object true "Deal payload"
// @Success 201 {object} response.Envelope
// @Router /deals [post]
func (h *ProviderHandler) Decide(c *gin.Context) {
	var req struct {
		Cid string `json:"cid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	deal, err := h.deals.Decide(c.Request.Context(), providerIDFromContext(c), req.Cid)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, deal)
}

// ListDeals godoc
// @Summary List the provider's recorded deals
// @Tags Deals
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /deals [get]
func (h *ProviderHandler) ListDeals(c *gin.Context) {
	deals, err := h.deals.List(c.Request.Context(), providerIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deals, nil)
}
