package handlers

import (
	"net/http"
	"time"

	"offer-calculator/internal/lifecycle"
	"offer-calculator/internal/models"
	"offer-calculator/internal/property"

	"github.com/gin-gonic/gin"
)

// SessionHandler exposes the offer-building session: strategy, source
// mode, property selection, and the debounced CRM search.
type SessionHandler struct {
	session  *lifecycle.Session
	debounce *property.DebouncedSearch
}

// NewSessionHandler wires the session endpoints. Query updates flow
// through the debouncer so a typing burst reaches the CRM once.
func NewSessionHandler(session *lifecycle.Session, source *property.Source, delay time.Duration) *SessionHandler {
	h := &SessionHandler{session: session}
	h.debounce = source.Debounced(delay, func(query string, results []models.Property) {
		session.SetSearchResults(query, results)
	})
	return h
}

// Get handles GET /api/session
func (h *SessionHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.View())
}

// UpdateSessionRequest carries partial session updates; absent fields
// are left untouched.
type UpdateSessionRequest struct {
	OfferType         *models.OfferType  `json:"offerType"`
	SearchMode        *models.SearchMode `json:"searchMode"`
	Notes             *string            `json:"notes"`
	ManualDownPayment *float64           `json:"manualDownPayment"`
	ClearDownPayment  bool               `json:"clearManualDownPayment"`
	SearchQuery       *string            `json:"searchQuery"`
}

// Update handles PUT /api/session
func (h *SessionHandler) Update(c *gin.Context) {
	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session update"})
		return
	}

	if req.OfferType != nil {
		if !req.OfferType.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown offer type"})
			return
		}
		h.session.SetOfferType(*req.OfferType)
	}
	if req.SearchMode != nil {
		if !req.SearchMode.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown search mode"})
			return
		}
		h.session.SetSearchMode(*req.SearchMode)
	}
	if req.Notes != nil {
		h.session.SetNotes(*req.Notes)
	}
	if req.ClearDownPayment {
		h.session.SetManualDownPayment(nil)
	} else if req.ManualDownPayment != nil {
		h.session.SetManualDownPayment(req.ManualDownPayment)
	}
	if req.SearchQuery != nil {
		h.debounce.SetQuery(*req.SearchQuery)
	}

	c.JSON(http.StatusOK, h.session.View())
}

// SelectPropertyRequest picks a CRM candidate by id or replaces the
// manual-entry form wholesale.
type SelectPropertyRequest struct {
	ID     *string                `json:"id"`
	Manual *property.ManualFields `json:"manual"`
}

// SelectProperty handles POST /api/session/property
func (h *SessionHandler) SelectProperty(c *gin.Context) {
	var req SelectPropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property selection"})
		return
	}

	switch {
	case req.ID != nil:
		if !h.session.Select(*req.ID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "opportunity not in current results"})
			return
		}
	case req.Manual != nil:
		h.session.SetManualFields(*req.Manual)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "id or manual fields required"})
		return
	}

	c.JSON(http.StatusOK, h.session.View())
}

// ClearProperty handles DELETE /api/session/property
func (h *SessionHandler) ClearProperty(c *gin.Context) {
	h.session.ClearSelection()
	c.JSON(http.StatusOK, h.session.View())
}

// Close stops the debounce timer.
func (h *SessionHandler) Close() {
	h.debounce.Stop()
}
