package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/filterhub/filterhub-api/internal/models"
	"github.com/filterhub/filterhub-api/internal/service"
	appErrors "github.com/filterhub/filterhub-api/pkg/errors"
	"github.com/filterhub/filterhub-api/pkg/response"
)

// SubscriptionHandler exposes subscription ledger endpoints.
type SubscriptionHandler struct {
	subscriptions *service.SubscriptionService
}

// NewSubscriptionHandler constructs SubscriptionHandler.
func NewSubscriptionHandler(subscriptions *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

type subscribeRequest struct {
	FilterID int64  `json:"filter_id"`
	ShareID  string `json:"share_id"`
	Active   *bool  `json:"active"`
	Notes    string `json:"notes"`
}

type setEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// Subscribe godoc
// @Summary Import a filter by id or share token
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param payload body subscribeRequest true "Subscription payload"
// @Success 201 {object} response.Envelope
// @Router /subscriptions [post]
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	providerID := providerIDFromContext(c)

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	var row *models.ProviderFilter
	var err error
	if req.ShareID != "" {
		row, err = h.subscriptions.SubscribeByShareID(c.Request.Context(), providerID, req.ShareID, active, req.Notes)
	} else {
		row, err = h.subscriptions.Subscribe(c.Request.Context(), providerID, req.FilterID, active, req.Notes)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, row)
}

// Update godoc
// @Summary Toggle enforcement or edit notes for a subscription
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param filterId path int true "Filter ID"
// @Param payload body models.SubscriptionPatch true "Subscription patch"
// @Success 200 {object} response.Envelope
// @Router /subscriptions/{filterId} [put]
func (h *SubscriptionHandler) Update(c *gin.Context) {
	filterID, err := pathID(c, "filterId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var patch models.SubscriptionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	row, err := h.subscriptions.Update(c.Request.Context(), providerIDFromContext(c), filterID, patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// SetEnabledForAll godoc
// @Summary Toggle a filter for every subscriber (owner only)
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param filterId path int true "Filter ID"
// @Param payload body setEnabledRequest true "Enablement payload"
// @Success 204
// @Router /subscriptions/{filterId}/enabled [put]
func (h *SubscriptionHandler) SetEnabledForAll(c *gin.Context) {
	filterID, err := pathID(c, "filterId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req setEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		response.Error(c, appErrors.Validationf("enabled", "enabled boolean is required"))
		return
	}
	if err := h.subscriptions.SetEnabledForAll(c.Request.Context(), providerIDFromContext(c), filterID, *req.Enabled); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Unsubscribe godoc
// @Summary Remove a subscription
// @Tags Subscriptions
// @Produce json
// @Param filterId path int true "Filter ID"
// @Success 204
// @Router /subscriptions/{filterId} [delete]
func (h *SubscriptionHandler) Unsubscribe(c *gin.Context) {
	filterID, err := pathID(c, "filterId")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.subscriptions.Unsubscribe(c.Request.Context(), providerIDFromContext(c), filterID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
