package store

import (
	"sort"
	"strings"

	"offer-calculator/internal/models"
)

// ListFilter narrows and orders the saved-offer history.
type ListFilter struct {
	Type   models.OfferType // empty matches all strategies
	SortBy string           // newest, oldest, amount-high, amount-low
	Query  string           // free-text match over address and notes
}

// List applies the filter to a snapshot of the history. The default
// order is newest first, which is already the stored order.
func (s *OfferStore) List(f ListFilter) []models.Offer {
	offers := s.LoadAll()

	if f.Type != "" {
		filtered := offers[:0]
		for _, o := range offers {
			if o.OfferType == f.Type {
				filtered = append(filtered, o)
			}
		}
		offers = filtered
	}

	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		filtered := offers[:0]
		for _, o := range offers {
			if strings.Contains(strings.ToLower(o.Address), q) ||
				strings.Contains(strings.ToLower(o.Notes), q) {
				filtered = append(filtered, o)
			}
		}
		offers = filtered
	}

	switch f.SortBy {
	case "oldest":
		sort.SliceStable(offers, func(i, j int) bool {
			return offers[i].CreatedAt.Before(offers[j].CreatedAt)
		})
	case "amount-high":
		sort.SliceStable(offers, func(i, j int) bool {
			return offers[i].OfferAmount > offers[j].OfferAmount
		})
	case "amount-low":
		sort.SliceStable(offers, func(i, j int) bool {
			return offers[i].OfferAmount < offers[j].OfferAmount
		})
	case "newest", "":
		// Stored newest-first; re-sort anyway in case timestamps were
		// edited out of band.
		sort.SliceStable(offers, func(i, j int) bool {
			return offers[i].CreatedAt.After(offers[j].CreatedAt)
		})
	}

	return offers
}
