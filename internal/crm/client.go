package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"offer-calculator/internal/config"
	"offer-calculator/internal/models"
)

// ErrNotConfigured is returned when the CRM credentials are missing
// from the server-side configuration.
var ErrNotConfigured = errors.New("crm: missing api key or location id")

// UpstreamError carries the status of a failed CRM call so the proxy
// layer can mirror it without leaking upstream details to the browser.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("crm: upstream returned status %d", e.StatusCode)
}

// Client talks to the upstream CRM HTTP API. The bearer credential and
// location id never leave this package.
type Client struct {
	baseURL    string
	apiKey     string
	locationID string
	apiVersion string
	offerField string
	httpClient *http.Client
}

// NewClient creates a CRM client from configuration. Credentials may be
// empty; calls fail with ErrNotConfigured until both are present.
func NewClient(cfg config.CRMConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		locationID: cfg.LocationID,
		apiVersion: cfg.APIVersion,
		offerField: cfg.Fields.Offer,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether the server-side credentials are present.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.locationID != ""
}

// OfferFieldID returns the custom-field id computed offers are written to.
func (c *Client) OfferFieldID() string {
	return c.offerField
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Version", c.apiVersion)
	req.Header.Set("Content-Type", "application/json")
}

// SearchOpportunities queries the CRM opportunity search for the given
// free-text query.
func (c *Client) SearchOpportunities(ctx context.Context, query string) ([]models.Opportunity, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	searchURL := fmt.Sprintf("%s/opportunities/search?location_id=%s&q=%s",
		c.baseURL, url.QueryEscape(c.locationID), url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crm: search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result models.OpportunitySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("crm: failed to decode search response: %w", err)
	}

	return result.Opportunities, nil
}

// UpdateOpportunityField writes a numeric value to one custom field on
// an opportunity record.
func (c *Client) UpdateOpportunityField(ctx context.Context, opportunityID, customFieldID string, value float64) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	payload := map[string]interface{}{
		"customFields": []map[string]interface{}{
			{
				"id":          customFieldID,
				"field_value": value,
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	updateURL := fmt.Sprintf("%s/opportunities/%s", c.baseURL, url.PathEscape(opportunityID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, updateURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("crm: update request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return &UpstreamError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return nil
}

// PushOfferAmount writes a computed offer amount to the well-known
// offer custom field on the opportunity.
func (c *Client) PushOfferAmount(ctx context.Context, opportunityID string, amount float64) error {
	return c.UpdateOpportunityField(ctx, opportunityID, c.offerField, amount)
}
