package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/filterhub/filterhub-api/internal/models"
	"github.com/filterhub/filterhub-api/internal/service"
	appErrors "github.com/filterhub/filterhub-api/pkg/errors"
	"github.com/filterhub/filterhub-api/pkg/response"
)

// CidHandler exposes identifier endpoints including conflict detection.
type CidHandler struct {
	cids *service.CidService
}

// NewCidHandler constructs CidHandler.
func NewCidHandler(cids *service.CidService) *CidHandler {
	return &CidHandler{cids: cids}
}

type cidUpdateRequest struct {
	Cid      string `json:"cid"`
	RefURL   string `json:"ref_url"`
	FilterID int64  `json:"filter_id"`
}

// Create godoc
// @Summary Add an identifier to an owned filter
// @Tags Cids
// @Accept json
// @Produce json
// @Param id path int true "Filter ID"
// @Param payload body models.CidInput true "Identifier payload"
// @Success 201 {object} response.Envelope
// @Router /filters/{id}/cids [post]
func (h *CidHandler) Create(c *gin.Context) {
	filterID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var input models.CidInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	cid, err := h.cids.Create(c.Request.Context(), providerIDFromContext(c), filterID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cid)
}

// Update godoc
// @Summary Edit or re-parent an identifier
// @Tags Cids
// @Accept json
// @Produce json
// @Param id path int true "Cid ID"
// @Param payload body cidUpdateRequest true "Identifier payload"
// @Success 200 {object} response.Envelope
// @Router /cids/{id} [put]
func (h *CidHandler) Update(c *gin.Context) {
	cidID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req cidUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	cid, err := h.cids.Update(c.Request.Context(), providerIDFromContext(c), cidID, req.Cid, req.RefURL, req.FilterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cid, nil)
}

// Move godoc
// @Summary Move an identifier to another owned filter
// @Tags Cids
// @Produce json
// @Param id path int true "Cid ID"
// @Param filterId path int true "Destination filter ID"
// @Success 200 {object} response.Envelope
// @Router /cids/{id}/move/{filterId} [post]
func (h *CidHandler) Move(c *gin.Context) {
	cidID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	targetID, err := pathID(c, "filterId")
	if err != nil {
		response.Error(c, err)
		return
	}
	cid, err := h.cids.Move(c.Request.Context(), providerIDFromContext(c), cidID, targetID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cid, nil)
}

// Delete godoc
// @Summary Delete an identifier
// @Tags Cids
// @Produce json
// @Param id path int true "Cid ID"
// @Success 204
// @Router /cids/{id} [delete]
func (h *CidHandler) Delete(c *gin.Context) {
	cidID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.cids.Delete(c.Request.Context(), providerIDFromContext(c), cidID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Conflict godoc
// @Summary Count identifier overlap across the provider's filters
// @Tags Cids
// @Produce json
// @Param filterId query int true "Candidate filter ID"
// @Param cid query string true "Identifier value"
// @Success 200 {object} response.Envelope
// @Router /cids/conflict [get]
func (h *CidHandler) Conflict(c *gin.Context) {
	filterID, _ := strconv.ParseInt(c.Query("filterId"), 10, 64)
	counts, err := h.cids.CheckConflict(c.Request.Context(), providerIDFromContext(c), filterID, c.Query("cid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}
