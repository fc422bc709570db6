package property

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"offer-calculator/internal/config"
	"offer-calculator/internal/models"

	"github.com/sirupsen/logrus"
)

type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	opps    []models.Opportunity
	err     error
}

func (f *fakeSearcher) SearchOpportunities(ctx context.Context, query string) ([]models.Opportunity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.opps, f.err
}

func (f *fakeSearcher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.queries...)
}

func fieldIDs() config.CustomFieldsCfg {
	return config.CustomFieldsCfg{
		ARV:       "arv-field",
		Repairs:   "repairs-field",
		AsIsValue: "asis-field",
		Offer:     "offer-field",
	}
}

func newTestSource(crm OpportunitySearcher) *Source {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewSource(crm, config.SearchConfig{MinQueryLength: 3, DebounceMillis: 400}, fieldIDs(), log)
}

func num(f float64) *float64 { return &f }

func TestSearchSuppressesShortQueries(t *testing.T) {
	crm := &fakeSearcher{}
	src := newTestSource(crm)

	for _, q := range []string{"", "a", "ab"} {
		if got := src.Search(context.Background(), q); got != nil {
			t.Errorf("Search(%q) = %v, want nil", q, got)
		}
	}
	if calls := crm.calls(); len(calls) != 0 {
		t.Errorf("CRM received %v, want no lookups for short queries", calls)
	}
}

func TestSearchMapsCustomFields(t *testing.T) {
	crm := &fakeSearcher{
		opps: []models.Opportunity{
			{
				ID:   "opp-1",
				Name: "123 Main St, Phoenix, AZ",
				CustomFields: []models.CustomField{
					{ID: "arv-field", FieldValueNumber: num(325000)},
					{ID: "repairs-field", FieldValueNumber: num(45000)},
					{ID: "asis-field", FieldValueNumber: num(280000)},
					{ID: "unrelated", FieldValueNumber: num(1)},
				},
			},
			{
				ID:           "opp-2",
				Name:         "456 Oak Ave",
				CustomFields: nil, // all fields missing
			},
		},
	}
	src := newTestSource(crm)

	props := src.Search(context.Background(), "main")
	if len(props) != 2 {
		t.Fatalf("got %d properties, want 2", len(props))
	}

	first := props[0]
	if first.ID != "opp-1" || first.Address != "123 Main St, Phoenix, AZ" || first.Name != first.Address {
		t.Errorf("mapped identity fields wrong: %+v", first)
	}
	if first.ARV != 325000 || first.Repairs != 45000 {
		t.Errorf("arv/repairs = %v/%v", first.ARV, first.Repairs)
	}
	if first.AsIsValue == nil || *first.AsIsValue != 280000 {
		t.Errorf("asIsValue = %v, want 280000", first.AsIsValue)
	}

	second := props[1]
	if second.ARV != 0 || second.Repairs != 0 || second.AsIsValue != nil {
		t.Errorf("missing fields must default to zero/unset: %+v", second)
	}
}

func TestSearchDegradesToEmptyOnError(t *testing.T) {
	crm := &fakeSearcher{err: errors.New("upstream down")}
	src := newTestSource(crm)

	if got := src.Search(context.Background(), "main st"); len(got) != 0 {
		t.Errorf("Search = %v, want empty on CRM failure", got)
	}
}

func TestFromManualEntryCash(t *testing.T) {
	complete := ManualFields{Address: "123 Main St", ARV: num(250000), Repairs: num(20000)}

	p := FromManualEntry(complete, models.OfferTypeCash)
	if p == nil {
		t.Fatal("complete cash fields must produce a record")
	}
	if p.ID != models.ManualEntryID {
		t.Errorf("id = %q, want sentinel", p.ID)
	}
	if p.ARV != 250000 || p.Repairs != 20000 || p.AsIsValue != nil {
		t.Errorf("unexpected record: %+v", p)
	}

	incomplete := []ManualFields{
		{ARV: num(250000), Repairs: num(20000)},          // no address
		{Address: "123 Main St", Repairs: num(20000)},    // no arv
		{Address: "123 Main St", ARV: num(250000)},       // no repairs
	}
	for i, f := range incomplete {
		if FromManualEntry(f, models.OfferTypeCash) != nil {
			t.Errorf("case %d: incomplete fields must produce nil", i)
		}
	}
}

func TestFromManualEntryAsIsStrategies(t *testing.T) {
	for _, strategy := range []models.OfferType{models.OfferTypeCreative, models.OfferTypeNovation, models.OfferTypeZestimate} {
		p := FromManualEntry(ManualFields{Address: "123 Main St", AsIsValue: num(250000)}, strategy)
		if p == nil || p.AsIsValue == nil || *p.AsIsValue != 250000 {
			t.Fatalf("%s: record = %+v", strategy, p)
		}
		if p.ARV != 0 || p.Repairs != 0 {
			t.Errorf("%s: arv/repairs must be zero for as-is entry", strategy)
		}
		if FromManualEntry(ManualFields{Address: "123 Main St"}, strategy) != nil {
			t.Errorf("%s: missing as-is value must produce nil", strategy)
		}
	}
}

func TestDebouncedSearchCoalesces(t *testing.T) {
	crm := &fakeSearcher{opps: []models.Opportunity{{ID: "opp-1", Name: "match"}}}
	src := newTestSource(crm)

	done := make(chan string, 4)
	ds := src.Debounced(20*time.Millisecond, func(query string, results []models.Property) {
		done <- query
	})
	defer ds.Stop()

	// A burst of edits; only the final query should reach the CRM.
	ds.SetQuery("mai")
	ds.SetQuery("main")
	ds.SetQuery("main st")

	select {
	case q := <-done:
		if q != "main st" {
			t.Errorf("delivered query = %q, want final query only", q)
		}
	case <-time.After(time.Second):
		t.Fatal("debounced search never fired")
	}

	if calls := crm.calls(); len(calls) != 1 || calls[0] != "main st" {
		t.Errorf("CRM lookups = %v, want single coalesced lookup", calls)
	}
}

func TestDebouncedSearchClearsOnShortQuery(t *testing.T) {
	crm := &fakeSearcher{}
	src := newTestSource(crm)

	done := make(chan []models.Property, 1)
	ds := src.Debounced(20*time.Millisecond, func(query string, results []models.Property) {
		done <- results
	})
	defer ds.Stop()

	ds.SetQuery("ab")

	select {
	case results := <-done:
		if results != nil {
			t.Errorf("results = %v, want nil for short query", results)
		}
	case <-time.After(time.Second):
		t.Fatal("short query never delivered")
	}
	if calls := crm.calls(); len(calls) != 0 {
		t.Errorf("CRM lookups = %v, want none", calls)
	}
}
