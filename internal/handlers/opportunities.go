package handlers

import (
	"errors"
	"net/http"

	"offer-calculator/internal/crm"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// OpportunitiesHandler proxies CRM opportunity operations so the bearer
// credential stays server-side.
type OpportunitiesHandler struct {
	crm *crm.Client
	log *logrus.Logger
}

// NewOpportunitiesHandler creates the CRM proxy handler.
func NewOpportunitiesHandler(client *crm.Client, log *logrus.Logger) *OpportunitiesHandler {
	return &OpportunitiesHandler{crm: client, log: log}
}

// writeCRMError maps CRM client failures onto proxy responses. Missing
// credentials become a generic 500 so nothing about the server-side
// setup leaks; upstream failures mirror the upstream status.
func (h *OpportunitiesHandler) writeCRMError(c *gin.Context, err error) {
	if errors.Is(err, crm.ErrNotConfigured) {
		h.log.Error("[crm-proxy] credentials missing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server misconfigured"})
		return
	}

	var upstream *crm.UpstreamError
	if errors.As(err, &upstream) {
		h.log.Warnf("[crm-proxy] Warning: upstream returned %d", upstream.StatusCode)
		c.JSON(upstream.StatusCode, gin.H{"error": "CRM request failed"})
		return
	}

	h.log.Errorf("[crm-proxy] request failed: %v", err)
	c.JSON(http.StatusBadGateway, gin.H{"error": "CRM request failed"})
}

// Search handles GET /api/opportunities?q=
func (h *OpportunitiesHandler) Search(c *gin.Context) {
	query := c.Query("q")

	opportunities, err := h.crm.SearchOpportunities(c.Request.Context(), query)
	if err != nil {
		h.writeCRMError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"opportunities": opportunities,
		"count":         len(opportunities),
	})
}

// UpdateFieldRequest is the field-update proxy body.
type UpdateFieldRequest struct {
	OpportunityID string  `json:"opportunityId" binding:"required"`
	CustomFieldID string  `json:"customFieldId" binding:"required"`
	FieldValue    float64 `json:"field_value"`
}

// UpdateField handles POST /api/opportunities
func (h *OpportunitiesHandler) UpdateField(c *gin.Context) {
	var req UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "opportunityId and customFieldId are required"})
		return
	}

	err := h.crm.UpdateOpportunityField(c.Request.Context(), req.OpportunityID, req.CustomFieldID, req.FieldValue)
	if err != nil {
		h.writeCRMError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
