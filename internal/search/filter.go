package search

import (
	"fmt"

	"offer-calculator/internal/models"
	"offer-calculator/internal/store"

	"github.com/meilisearch/meilisearch-go"
)

// sortClause maps the history view's sort keys onto index attributes.
func sortClause(sortBy string) []string {
	switch sortBy {
	case "oldest":
		return []string{"createdAt:asc"}
	case "amount-high":
		return []string{"offerAmount:desc"}
	case "amount-low":
		return []string{"offerAmount:asc"}
	default:
		return []string{"createdAt:desc"}
	}
}

// SearchOffers runs the history filter against the index and returns
// matching offers in the requested order.
func (s *SearchClient) SearchOffers(f store.ListFilter, limit int64) ([]models.Offer, error) {
	if limit == 0 {
		limit = 100
	}

	req := &meilisearch.SearchRequest{
		Limit: limit,
		Sort:  sortClause(f.SortBy),
	}
	if f.Type != "" {
		req.Filter = fmt.Sprintf("offerType = '%s'", f.Type)
	}

	res, err := s.client.Index(s.index).Search(f.Query, req)
	if err != nil {
		return nil, err
	}

	offers := make([]models.Offer, 0, len(res.Hits))
	for _, hit := range res.Hits {
		offer, err := parseOfferFromHit(hit)
		if err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}
	return offers, nil
}
