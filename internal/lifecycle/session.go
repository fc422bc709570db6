package lifecycle

import (
	"sync"

	"offer-calculator/internal/models"
	"offer-calculator/internal/property"
)

// Session is the explicit state container for one offer-building
// session: the chosen strategy, the property source mode, the selected
// or manually entered property, and the current preview. All mutation
// goes through methods so invariants hold under concurrent handlers.
type Session struct {
	mu sync.Mutex

	offerType  models.OfferType
	searchMode models.SearchMode
	selected   *models.Property
	manual     property.ManualFields
	notes      string

	manualDownPayment *float64

	searchQuery   string
	searchResults []models.Property

	current    *models.Offer
	processing bool
}

// NewSession starts in search mode with the cash strategy selected.
func NewSession() *Session {
	return &Session{
		offerType:  models.OfferTypeCash,
		searchMode: models.SearchModeSearch,
	}
}

// SetOfferType switches the pricing strategy. A manual-entry property
// is re-derived because each strategy requires different fields.
func (s *Session) SetOfferType(t models.OfferType) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.offerType = t
	if s.searchMode == models.SearchModeManual {
		s.selected = property.FromManualEntry(s.manual, t)
	}
}

// SetSearchMode switches between CRM search and manual entry. Entering
// manual mode drops any CRM selection; the manual form state is kept so
// a round trip does not lose typed values.
func (s *Session) SetSearchMode(m models.SearchMode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.searchMode == m {
		return
	}
	s.searchMode = m
	if m == models.SearchModeManual {
		s.selected = property.FromManualEntry(s.manual, s.offerType)
		s.searchResults = nil
		s.searchQuery = ""
	} else {
		s.selected = nil
	}
}

// SetManualFields replaces the manual form state and re-derives the
// property record wholesale. An incomplete form yields no selection.
func (s *Session) SetManualFields(f property.ManualFields) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.manual = f
	if s.searchMode == models.SearchModeManual {
		s.selected = property.FromManualEntry(f, s.offerType)
	}
}

// Select picks a property out of the last search results by id.
// Returns false when the id is not in the current result set.
func (s *Session) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.searchResults {
		if s.searchResults[i].ID == id {
			p := s.searchResults[i]
			s.selected = &p
			return true
		}
	}
	return false
}

// ClearSelection drops the selected property.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
}

// SetSearchResults records the latest CRM results for a query.
func (s *Session) SetSearchResults(query string, results []models.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchQuery = query
	s.searchResults = results
}

// SetNotes attaches free-text notes carried onto generated offers.
func (s *Session) SetNotes(notes string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = notes
}

// SetManualDownPayment overrides the derived down payment for the cash
// strategy. Nil restores the derived value.
func (s *Session) SetManualDownPayment(amount *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if amount == nil {
		s.manualDownPayment = nil
		return
	}
	v := *amount
	s.manualDownPayment = &v
}

// snapshot copies the fields Generate needs under one lock acquisition.
func (s *Session) snapshot() (models.OfferType, models.SearchMode, *models.Property, string, *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var selected *models.Property
	if s.selected != nil {
		p := *s.selected
		selected = &p
	}
	var down *float64
	if s.manualDownPayment != nil {
		v := *s.manualDownPayment
		down = &v
	}
	return s.offerType, s.searchMode, selected, s.notes, down
}

// beginProcessing flips the guard; false means a generation is already
// in flight and the caller must back off.
func (s *Session) beginProcessing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processing {
		return false
	}
	s.processing = true
	return true
}

func (s *Session) endProcessing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processing = false
}

// setCurrent stores the preview offer.
func (s *Session) setCurrent(o *models.Offer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = o
}

// Current returns a copy of the preview offer, or nil.
func (s *Session) Current() *models.Offer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	o := *s.current
	return &o
}

// State is a serializable view of the session for the client.
type State struct {
	OfferType     models.OfferType      `json:"offerType"`
	SearchMode    models.SearchMode     `json:"searchMode"`
	Selected      *models.Property      `json:"selected,omitempty"`
	Manual        property.ManualFields `json:"manual"`
	Notes         string                `json:"notes,omitempty"`
	SearchQuery   string                `json:"searchQuery,omitempty"`
	SearchResults []models.Property     `json:"searchResults,omitempty"`
	Current       *models.Offer         `json:"current,omitempty"`
	Processing    bool                  `json:"processing"`
}

// View returns the current session state.
func (s *Session) View() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		OfferType:     s.offerType,
		SearchMode:    s.searchMode,
		Manual:        s.manual,
		Notes:         s.notes,
		SearchQuery:   s.searchQuery,
		SearchResults: s.searchResults,
		Processing:    s.processing,
	}
	if s.selected != nil {
		p := *s.selected
		st.Selected = &p
	}
	if s.current != nil {
		o := *s.current
		st.Current = &o
	}
	return st
}
