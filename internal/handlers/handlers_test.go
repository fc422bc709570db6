package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"offer-calculator/internal/config"
	"offer-calculator/internal/crm"
	"offer-calculator/internal/lifecycle"
	"offer-calculator/internal/models"
	"offer-calculator/internal/notify"
	"offer-calculator/internal/pricing"
	"offer-calculator/internal/property"
	"offer-calculator/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// newTestRouter wires the full handler stack against a file-backed
// store and the given CRM base URL (empty means unconfigured).
func newTestRouter(t *testing.T, crmBaseURL string) (*gin.Engine, *lifecycle.Session) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := testLogger()

	cfg := config.DefaultConfig()
	cfg.CRM.BaseURL = crmBaseURL
	if crmBaseURL != "" {
		cfg.CRM.APIKey = "test-key"
		cfg.CRM.LocationID = "loc-1"
	}

	client := crm.NewClient(cfg.CRM)
	source := property.NewSource(client, cfg.Search, cfg.CRM.Fields, log)

	backend, err := store.NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	offerStore := store.NewOfferStore(backend, cfg.Storage.Key, log)

	feed := notify.NewFeed(10)
	engine := pricing.NewEngine(cfg.Pricing.CashDeduction, cfg.Pricing.MinOffer)
	session := lifecycle.NewSession()
	retry := crm.RetryPolicy{
		MaxAttempts: cfg.Sync.MaxAttempts,
		Backoff:     crm.LinearBackoff(time.Millisecond),
		Sleep:       func(time.Duration) {},
		Log:         log,
	}
	lc := lifecycle.New(session, engine, client, retry, nil, offerStore, feed, log)

	opps := NewOpportunitiesHandler(client, log)
	sess := NewSessionHandler(session, source, time.Millisecond)
	offers := NewOffersHandler(lc, offerStore, nil, feed, nil, log)

	r := gin.New()
	r.GET("/api/opportunities", opps.Search)
	r.POST("/api/opportunities", opps.UpdateField)
	r.GET("/api/session", sess.Get)
	r.PUT("/api/session", sess.Update)
	r.POST("/api/session/property", sess.SelectProperty)
	r.DELETE("/api/session/property", sess.ClearProperty)
	r.POST("/api/offers/generate", offers.Generate)
	r.POST("/api/offers/save", offers.Save)
	r.POST("/api/offers/discard", offers.Discard)
	r.GET("/api/offers", offers.List)
	r.DELETE("/api/offers/:id", offers.Delete)
	r.DELETE("/api/offers", offers.Clear)
	r.GET("/api/offers/:id/export", offers.Export)
	r.GET("/api/notifications", offers.Notifications)
	r.GET("/api/sync/stats", offers.SyncStats)

	return r, session
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func enterManualProperty(t *testing.T, r *gin.Engine) {
	t.Helper()
	w := doJSON(t, r, http.MethodPut, "/api/session", map[string]interface{}{
		"searchMode": "manual",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("session update: status %d body %s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodPost, "/api/session/property", map[string]interface{}{
		"manual": map[string]interface{}{
			"address": "123 Main St",
			"arv":     250000,
			"repairs": 20000,
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("property select: status %d body %s", w.Code, w.Body.String())
	}
}

func TestGenerateWithManualEntry(t *testing.T) {
	r, _ := newTestRouter(t, "")
	enterManualProperty(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/offers/generate", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("generate: status %d body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Offer models.Offer `json:"offer"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Offer.OfferAmount != 155000 {
		t.Errorf("expected offer 155000, got %v", resp.Offer.OfferAmount)
	}
	if !strings.HasPrefix(resp.Offer.ID, "preview-") {
		t.Errorf("expected preview id, got %q", resp.Offer.ID)
	}
}

func TestGenerateWithoutInputsIsInert(t *testing.T) {
	r, _ := newTestRouter(t, "")

	w := doJSON(t, r, http.MethodPost, "/api/offers/generate", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for unready inputs, got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", w.Body.String())
	}
}

func TestSaveThenListAndExport(t *testing.T) {
	r, _ := newTestRouter(t, "")
	enterManualProperty(t, r)

	if w := doJSON(t, r, http.MethodPost, "/api/offers/generate", nil); w.Code != http.StatusOK {
		t.Fatalf("generate: %d", w.Code)
	}
	w := doJSON(t, r, http.MethodPost, "/api/offers/save", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("save: status %d body %s", w.Code, w.Body.String())
	}

	var saveResp struct {
		Offer models.Offer `json:"offer"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &saveResp); err != nil {
		t.Fatalf("decode save: %v", err)
	}
	if saveResp.Offer.Status != models.OfferStatusActive {
		t.Errorf("expected active status, got %q", saveResp.Offer.Status)
	}

	// Double save answers 409 once the preview is consumed.
	if w := doJSON(t, r, http.MethodPost, "/api/offers/save", nil); w.Code != http.StatusConflict {
		t.Errorf("expected 409 on double save, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/offers", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d", w.Code)
	}
	var listResp struct {
		Offers []models.Offer `json:"offers"`
		Count  int            `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if listResp.Count != 1 {
		t.Fatalf("expected 1 offer, got %d", listResp.Count)
	}

	w = doJSON(t, r, http.MethodGet, "/api/offers/"+saveResp.Offer.ID+"/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "123 Main St") {
		t.Errorf("export missing address: %s", w.Body.String())
	}
	if disp := w.Header().Get("Content-Disposition"); !strings.Contains(disp, "offer-123-main-st-") {
		t.Errorf("unexpected filename: %s", disp)
	}
}

func TestListFilterByTypeAndQuery(t *testing.T) {
	r, _ := newTestRouter(t, "")

	// Save a cash offer for Main St and a novation offer for Oak Ave.
	enterManualProperty(t, r)
	doJSON(t, r, http.MethodPost, "/api/offers/generate", nil)
	doJSON(t, r, http.MethodPost, "/api/offers/save", nil)

	doJSON(t, r, http.MethodPut, "/api/session", map[string]interface{}{"offerType": "novation"})
	doJSON(t, r, http.MethodPost, "/api/session/property", map[string]interface{}{
		"manual": map[string]interface{}{"address": "9 Oak Ave", "asIsValue": 300000},
	})
	doJSON(t, r, http.MethodPost, "/api/offers/generate", nil)
	doJSON(t, r, http.MethodPost, "/api/offers/save", nil)

	tests := []struct {
		path string
		want int
	}{
		{"/api/offers", 2},
		{"/api/offers?type=cash", 1},
		{"/api/offers?type=novation", 1},
		{"/api/offers?q=oak", 1},
		{"/api/offers?type=cash&q=oak", 0},
	}
	for _, tt := range tests {
		w := doJSON(t, r, http.MethodGet, tt.path, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status %d", tt.path, w.Code)
		}
		var resp struct {
			Count int `json:"count"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: decode: %v", tt.path, err)
		}
		if resp.Count != tt.want {
			t.Errorf("%s: expected %d offers, got %d", tt.path, tt.want, resp.Count)
		}
	}

	if w := doJSON(t, r, http.MethodGet, "/api/offers?type=flip", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown type, got %d", w.Code)
	}
}

func TestDiscardPreview(t *testing.T) {
	r, _ := newTestRouter(t, "")
	enterManualProperty(t, r)

	doJSON(t, r, http.MethodPost, "/api/offers/generate", nil)
	if w := doJSON(t, r, http.MethodPost, "/api/offers/discard", nil); w.Code != http.StatusOK {
		t.Fatalf("discard: %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/api/offers/discard", nil); w.Code != http.StatusConflict {
		t.Errorf("expected 409 on empty discard, got %d", w.Code)
	}

	w := doJSON(t, r, http.MethodGet, "/api/offers", nil)
	var resp struct {
		Count int `json:"count"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Count != 0 {
		t.Errorf("discarded preview must not persist, got %d offers", resp.Count)
	}
}

func TestOpportunityProxyMisconfigured(t *testing.T) {
	r, _ := newTestRouter(t, "")

	w := doJSON(t, r, http.MethodGet, "/api/opportunities?q=main", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without credentials, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Server misconfigured") {
		t.Errorf("expected generic message, got %s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "api key") {
		t.Error("error body must not mention credentials")
	}
}

func TestOpportunityProxyMirrorsUpstreamStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"rate limited"}`))
	}))
	defer upstream.Close()

	r, _ := newTestRouter(t, upstream.URL)

	w := doJSON(t, r, http.MethodGet, "/api/opportunities?q=main", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected mirrored 429, got %d", w.Code)
	}
}

func TestOpportunityProxySearchAndUpdate(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch {
		case req.Method == http.MethodGet && strings.HasPrefix(req.URL.Path, "/opportunities/search"):
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"opportunities":[{"id":"opp-1","name":"123 Main St"}]}`))
		case req.Method == http.MethodPut && strings.HasPrefix(req.URL.Path, "/opportunities/"):
			w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer upstream.Close()

	r, _ := newTestRouter(t, upstream.URL)

	w := doJSON(t, r, http.MethodGet, "/api/opportunities?q=main", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search: status %d body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("expected 1 opportunity, got %d", resp.Count)
	}

	w = doJSON(t, r, http.MethodPost, "/api/opportunities", map[string]interface{}{
		"opportunityId": "opp-1",
		"customFieldId": "field-1",
		"field_value":   155000,
	})
	if w.Code != http.StatusOK {
		t.Errorf("update: status %d body %s", w.Code, w.Body.String())
	}

	// Missing required fields.
	w = doJSON(t, r, http.MethodPost, "/api/opportunities", map[string]interface{}{
		"field_value": 155000,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing ids, got %d", w.Code)
	}
}

func TestNotificationsDrain(t *testing.T) {
	// Upstream that always fails pushes so the sync warning fires.
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"opportunities":[{"id":"opp-1","name":"123 Main St","customFields":[{"id":"wuSG63CwYz9EksTUtgH1","fieldValueNumber":250000},{"id":"had1BxDw5o9zd9i63jrq","fieldValueNumber":20000}]}]}`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	r, session := newTestRouter(t, upstream.URL)

	session.SetSearchResults("main", []models.Property{
		{ID: "opp-1", Name: "123 Main St", Address: "123 Main St", ARV: 250000, Repairs: 20000},
	})
	doJSON(t, r, http.MethodPost, "/api/session/property", map[string]interface{}{"id": "opp-1"})

	if w := doJSON(t, r, http.MethodPost, "/api/offers/generate", nil); w.Code != http.StatusOK {
		t.Fatalf("generate survives sync failure, got %d", w.Code)
	}

	w := doJSON(t, r, http.MethodGet, "/api/notifications", nil)
	var resp struct {
		Notifications []notify.Notification `json:"notifications"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Notifications) != 1 {
		t.Fatalf("expected one sync warning, got %d", len(resp.Notifications))
	}
	if resp.Notifications[0].Level != notify.LevelWarning {
		t.Errorf("expected warning, got %q", resp.Notifications[0].Level)
	}

	// Drained: the second poll is empty.
	w = doJSON(t, r, http.MethodGet, "/api/notifications", nil)
	resp.Notifications = nil
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Notifications) != 0 {
		t.Errorf("expected drained feed, got %d", len(resp.Notifications))
	}
}

func TestSyncStatsUnavailableWithoutQueue(t *testing.T) {
	r, _ := newTestRouter(t, "")

	w := doJSON(t, r, http.MethodGet, "/api/sync/stats", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without MySQL queue, got %d", w.Code)
	}
}
