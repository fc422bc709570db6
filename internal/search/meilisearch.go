package search

import (
	"encoding/json"

	"offer-calculator/internal/models"

	"github.com/meilisearch/meilisearch-go"
)

// SearchClient keeps the saved-offer history in a Meilisearch index so
// long histories stay queryable by free text. The JSON document store
// remains the source of truth; the index is rebuilt from it on demand.
type SearchClient struct {
	client *meilisearch.Client
	index  string
}

func NewSearchClient(host, apiKey string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &SearchClient{
		client: client,
		index:  "offers",
	}
}

// InitIndex creates the offers index and configures its attributes.
func (s *SearchClient) InitIndex() error {
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && err.Error() != "index already exists" {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSearchableAttributes(&[]string{
		"address",
		"notes",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateFilterableAttributes(&[]string{
		"id",
		"offerType",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSortableAttributes(&[]string{
		"createdAt",
		"offerAmount",
	})
	if err != nil {
		return err
	}

	return nil
}

// IndexOffer adds or replaces one offer document.
func (s *SearchClient) IndexOffer(offer *models.Offer) error {
	_, err := s.client.Index(s.index).AddDocuments([]models.Offer{*offer})
	return err
}

// IndexOffers adds or replaces multiple offer documents.
func (s *SearchClient) IndexOffers(offers []models.Offer) error {
	if len(offers) == 0 {
		return nil
	}
	_, err := s.client.Index(s.index).AddDocuments(offers)
	return err
}

// RemoveOffer deletes one offer document from the index.
func (s *SearchClient) RemoveOffer(id string) error {
	_, err := s.client.Index(s.index).DeleteDocument(id)
	return err
}

// ClearIndex drops every offer document.
func (s *SearchClient) ClearIndex() error {
	_, err := s.client.Index(s.index).DeleteAllDocuments()
	return err
}

// parseOfferFromHit converts a search hit back into an Offer via its
// JSON form; the index stores the same shape the document store does.
func parseOfferFromHit(hit interface{}) (models.Offer, error) {
	var offer models.Offer
	raw, err := json.Marshal(hit)
	if err != nil {
		return offer, err
	}
	err = json.Unmarshal(raw, &offer)
	return offer, err
}
