package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"offer-calculator/internal/lifecycle"
	"offer-calculator/internal/models"
	"offer-calculator/internal/notify"
	"offer-calculator/internal/search"
	"offer-calculator/internal/store"
	"offer-calculator/internal/syncqueue"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// OffersHandler exposes offer generation and the saved-offer history.
// searchClient and queue are optional; nil disables those features.
type OffersHandler struct {
	lifecycle    *lifecycle.Lifecycle
	store        *store.OfferStore
	searchClient *search.SearchClient
	feed         *notify.Feed
	queue        *syncqueue.Queue
	log          *logrus.Logger
}

func NewOffersHandler(lc *lifecycle.Lifecycle, offerStore *store.OfferStore,
	searchClient *search.SearchClient, feed *notify.Feed, queue *syncqueue.Queue,
	log *logrus.Logger) *OffersHandler {
	return &OffersHandler{
		lifecycle:    lc,
		store:        offerStore,
		searchClient: searchClient,
		feed:         feed,
		queue:        queue,
		log:          log,
	}
}

// Generate handles POST /api/offers/generate. A rejected validation is
// an inert trigger (204, no body); an in-flight run answers 409.
func (h *OffersHandler) Generate(c *gin.Context) {
	offer, err := h.lifecycle.Generate(c.Request.Context())
	switch {
	case errors.Is(err, lifecycle.ErrNotReady):
		c.Status(http.StatusNoContent)
	case errors.Is(err, lifecycle.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "Offer generation already in progress"})
	case err != nil:
		h.log.Errorf("[offers] generate failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate offer"})
	default:
		c.JSON(http.StatusOK, gin.H{"offer": offer})
	}
}

// Save handles POST /api/offers/save
func (h *OffersHandler) Save(c *gin.Context) {
	offer, err := h.lifecycle.Save()
	if errors.Is(err, lifecycle.ErrNoPreview) {
		c.JSON(http.StatusConflict, gin.H{"error": "No generated offer to save"})
		return
	}
	if err != nil {
		h.log.Errorf("[offers] save failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save offer"})
		return
	}

	if h.searchClient != nil {
		if err := h.searchClient.IndexOffer(offer); err != nil {
			h.log.Warnf("[offers] Warning: failed to index saved offer: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"offer": offer})
}

// Discard handles POST /api/offers/discard
func (h *OffersHandler) Discard(c *gin.Context) {
	if err := h.lifecycle.Discard(); errors.Is(err, lifecycle.ErrNoPreview) {
		c.JSON(http.StatusConflict, gin.H{"error": "No generated offer to discard"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// List handles GET /api/offers?type=&sort=&q=
func (h *OffersHandler) List(c *gin.Context) {
	filter := store.ListFilter{
		Type:   models.OfferType(c.Query("type")),
		SortBy: c.Query("sort"),
		Query:  c.Query("q"),
	}
	if filter.Type != "" && !filter.Type.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown offer type"})
		return
	}

	offers := h.listOffers(filter)
	c.JSON(http.StatusOK, gin.H{
		"offers": offers,
		"count":  len(offers),
	})
}

// listOffers prefers the search index for free-text queries and falls
// back to the in-memory filter when the index is unavailable.
func (h *OffersHandler) listOffers(filter store.ListFilter) []models.Offer {
	if h.searchClient != nil && filter.Query != "" {
		offers, err := h.searchClient.SearchOffers(filter, 0)
		if err == nil {
			return offers
		}
		h.log.Warnf("[offers] Warning: index search failed, using in-memory filter: %v", err)
	}
	return h.store.List(filter)
}

// Delete handles DELETE /api/offers/:id
func (h *OffersHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	ok, err := h.store.Delete(id)
	if err != nil {
		h.log.Errorf("[offers] delete failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete offer"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Offer not found"})
		return
	}

	if h.searchClient != nil {
		if err := h.searchClient.RemoveOffer(id); err != nil {
			h.log.Warnf("[offers] Warning: failed to deindex offer %s: %v", id, err)
		}
	}

	h.feed.Push(notify.LevelSuccess, "Offer deleted.")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Clear handles DELETE /api/offers
func (h *OffersHandler) Clear(c *gin.Context) {
	if err := h.store.Clear(); err != nil {
		h.log.Errorf("[offers] clear failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear offers"})
		return
	}

	if h.searchClient != nil {
		if err := h.searchClient.ClearIndex(); err != nil {
			h.log.Warnf("[offers] Warning: failed to clear search index: %v", err)
		}
	}

	h.feed.Push(notify.LevelSuccess, "Offer history cleared.")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Export handles GET /api/offers/:id/export — a plain-text offer sheet.
func (h *OffersHandler) Export(c *gin.Context) {
	offer := h.store.Get(c.Param("id"))
	if offer == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Offer not found"})
		return
	}

	filename := fmt.Sprintf("offer-%s-%d.txt", slugify(offer.Address), offer.CreatedAt.Unix())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(renderOfferSheet(offer)))
}

// renderOfferSheet formats one offer as a shareable text document.
func renderOfferSheet(o *models.Offer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "OFFER SUMMARY\n")
	fmt.Fprintf(&b, "=============\n\n")
	fmt.Fprintf(&b, "Property:   %s\n", o.Address)
	fmt.Fprintf(&b, "Strategy:   %s\n", o.OfferType.Label())
	fmt.Fprintf(&b, "Date:       %s\n\n", o.CreatedAt.Format("January 2, 2006"))

	if o.OfferType == models.OfferTypeCreative {
		fmt.Fprintf(&b, "Monthly Payment: $%.2f\n", o.OfferAmount)
	} else {
		fmt.Fprintf(&b, "Offer Amount:    $%.0f\n", o.OfferAmount)
	}

	if o.OfferType.UsesAsIsValue() {
		if o.AsIsValue != nil {
			fmt.Fprintf(&b, "As-Is Value:     $%.0f\n", *o.AsIsValue)
		}
	} else {
		fmt.Fprintf(&b, "ARV:             $%.0f\n", o.ARV)
		fmt.Fprintf(&b, "Repairs:         $%.0f\n", o.Repairs)
	}

	if o.DownPayment != nil {
		fmt.Fprintf(&b, "Down Payment:    $%.0f\n", *o.DownPayment)
	}
	if o.Price != nil {
		fmt.Fprintf(&b, "Purchase Price:  $%.0f\n", *o.Price)
	}
	if o.MonthlyPayment != nil {
		fmt.Fprintf(&b, "Monthly:         $%.2f\n", *o.MonthlyPayment)
	}
	if o.LongLengthInMonths != nil {
		fmt.Fprintf(&b, "Term:            %d months\n", *o.LongLengthInMonths)
	}

	if o.Notes != "" {
		fmt.Fprintf(&b, "\nNotes:\n%s\n", o.Notes)
	}
	return b.String()
}

// slugify lowercases the address and keeps only filename-safe runes.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Notifications handles GET /api/notifications — drains the feed.
func (h *OffersHandler) Notifications(c *gin.Context) {
	notifications := h.feed.Drain()
	if notifications == nil {
		notifications = []notify.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// SyncStats handles GET /api/sync/stats
func (h *OffersHandler) SyncStats(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Sync queue not available (MySQL backend required)",
		})
		return
	}
	c.JSON(http.StatusOK, h.queue.Stats())
}
