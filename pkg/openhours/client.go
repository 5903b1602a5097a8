// Package openhours is a Go SDK for the openhours-server HTTP API.
package openhours

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client provides a Go SDK for interacting with the openhours-server API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new openhours API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openhours: HTTP %d: %s", e.StatusCode, e.Message)
}

// Health checks the server.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Facilities lists the served facilities.
func (c *Client) Facilities(ctx context.Context) ([]Facility, error) {
	var out FacilitiesResponse
	if err := c.do(ctx, http.MethodGet, "/api/facilities", nil, &out); err != nil {
		return nil, err
	}
	return out.Facilities, nil
}

// Status resolves a facility's opening status at the given instant. A zero
// at asks for the server's current time.
func (c *Client) Status(ctx context.Context, facility string, at time.Time) (*StatusResponse, error) {
	path := "/api/facilities/" + url.PathEscape(facility) + "/status"
	if !at.IsZero() {
		path += "?at=" + url.QueryEscape(at.Format(time.RFC3339))
	}
	var out StatusResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Rules lists a facility's rules in registration order.
func (c *Client) Rules(ctx context.Context, facility string) ([]Rule, error) {
	var out RulesResponse
	if err := c.do(ctx, http.MethodGet, "/api/facilities/"+url.PathEscape(facility)+"/rules", nil, &out); err != nil {
		return nil, err
	}
	return out.Rules, nil
}

// PutRule creates or replaces the rule with the given ID.
func (c *Client) PutRule(ctx context.Context, facility string, rule Rule) (*Rule, error) {
	if rule.ID == "" {
		return nil, fmt.Errorf("PutRule: empty rule id")
	}
	path := "/api/facilities/" + url.PathEscape(facility) + "/rules/" + url.PathEscape(rule.ID)
	var out Rule
	if err := c.do(ctx, http.MethodPut, path, rule, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteRule removes a rule.
func (c *Client) DeleteRule(ctx context.Context, facility, id string) error {
	path := "/api/facilities/" + url.PathEscape(facility) + "/rules/" + url.PathEscape(id)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e ErrorResponse
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(data))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}
	return nil
}
