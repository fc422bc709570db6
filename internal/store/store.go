package store

import (
	"encoding/json"
	"sync"

	"offer-calculator/internal/models"

	"github.com/sirupsen/logrus"
)

// OfferStore keeps the saved-offer history in memory and rewrites the
// full JSON document under one storage key on every mutation. A corrupt
// or unreadable document degrades to an empty history rather than an
// error.
type OfferStore struct {
	mu      sync.Mutex
	backend Backend
	key     string
	offers  []models.Offer
	log     *logrus.Logger
}

// NewOfferStore loads the existing history once at construction.
func NewOfferStore(backend Backend, key string, log *logrus.Logger) *OfferStore {
	s := &OfferStore{
		backend: backend,
		key:     key,
		log:     log,
	}
	s.load()
	return s
}

func (s *OfferStore) load() {
	data, err := s.backend.Load(s.key)
	if err != nil {
		s.log.Warnf("[store] Warning: failed to load offers: %v", err)
		s.offers = nil
		return
	}
	if len(data) == 0 {
		s.offers = nil
		return
	}
	var offers []models.Offer
	if err := json.Unmarshal(data, &offers); err != nil {
		s.log.Warnf("[store] Warning: corrupt offer history, starting empty: %v", err)
		s.offers = nil
		return
	}
	s.offers = offers
}

// persist rewrites the full document. Caller holds the lock.
func (s *OfferStore) persist() error {
	data, err := json.Marshal(s.offers)
	if err != nil {
		return err
	}
	return s.backend.Save(s.key, data)
}

// Append prepends the offer so the history stays newest-first.
func (s *OfferStore) Append(offer models.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.offers = append([]models.Offer{offer}, s.offers...)
	return s.persist()
}

// Delete removes the offer with the given id. Returns false when no
// offer matched.
func (s *OfferStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, o := range s.offers {
		if o.ID == id {
			s.offers = append(s.offers[:i], s.offers[i+1:]...)
			return true, s.persist()
		}
	}
	return false, nil
}

// Clear drops the whole history and removes the storage key.
func (s *OfferStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.offers = nil
	return s.backend.Delete(s.key)
}

// Get returns the offer with the given id, or nil.
func (s *OfferStore) Get(id string) *models.Offer {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.offers {
		if s.offers[i].ID == id {
			o := s.offers[i]
			return &o
		}
	}
	return nil
}

// LoadAll returns a copy of the history, newest first.
func (s *OfferStore) LoadAll() []models.Offer {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Offer, len(s.offers))
	copy(out, s.offers)
	return out
}

// Count returns the number of saved offers.
func (s *OfferStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.offers)
}
