package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pinetelecom/connect-crm-lambdas/internal/faults"
	"github.com/pinetelecom/connect-crm-lambdas/internal/logging"
)

// customerPath is the CRM REST resource for customer lookups.
const customerPath = "/services/apexrest/customer"

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Customer holds the identifying fields read from a lookup response.
type Customer struct {
	CustID    string `json:"CustId"`
	FirstName string `json:"FirstName"`
	Email     string `json:"Email"`
}

// LookupResult is the decoded backend response for a customer lookup.
// The backend returns either a single object or a list; for a list the first
// element is kept and FieldCount counts its fields.
type LookupResult struct {
	Customer   Customer
	FieldCount int
}

// Matched reports whether the response carries a non-empty customer identifier.
func (r *LookupResult) Matched() bool {
	return r != nil && r.Customer.CustID != ""
}

// Client performs customer lookups against the CRM REST endpoint.
type Client struct {
	logger  *logging.Logger
	client  HTTPClient
	baseURL string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithTimeout sets a fixed timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client = &http.Client{Timeout: d}
	}
}

// NewClient creates a CRM client for the given instance base URL.
func NewClient(logger *logging.Logger, baseURL string, opts ...Option) *Client {
	c := &Client{
		logger:  logger,
		client:  http.DefaultClient,
		baseURL: baseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup POSTs the payload to the customer endpoint with a bearer token and
// decodes the response. Communication and decode failures are returned as
// backend faults; "no match" is a normal result, not an error.
func (c *Client) Lookup(ctx context.Context, token string, payload LookupPayload) (*LookupResult, error) {
	body, err := c.post(ctx, c.baseURL+customerPath, token, payload)
	if err != nil {
		return nil, err
	}

	result, err := decodeLookupResult(body)
	if err != nil {
		return nil, faults.Backend(err)
	}
	c.logger.Debugf("Lookup response: %+v (fields: %d)", result.Customer, result.FieldCount)
	return result, nil
}

func (c *Client) post(ctx context.Context, url, token string, payload any) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshalling payload: %v", err)
	}
	c.logger.Debugf("Sending request to %s with payload: %s", url, string(jsonData))

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}
	if token == "" {
		return nil, fmt.Errorf("bearer token must be provided")
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, faults.Backend(fmt.Errorf("error making HTTP request: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, faults.Backend(fmt.Errorf("request returned non-200 status: %d, body: %s", resp.StatusCode, string(body)))
	}

	return io.ReadAll(resp.Body)
}

// decodeLookupResult accepts either a single JSON object or a list of
// objects; a list keeps its first element.
func decodeLookupResult(body []byte) (*LookupResult, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("error parsing response JSON: %v", err)
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		list, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("unexpected response shape: %s", string(body))
		}
		if len(list) == 0 {
			return &LookupResult{}, nil
		}
		obj, ok = list[0].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("unexpected list element shape: %s", string(body))
		}
	}

	result := &LookupResult{FieldCount: len(obj)}
	result.Customer.CustID = stringField(obj, "CustId")
	result.Customer.FirstName = stringField(obj, "FirstName")
	result.Customer.Email = stringField(obj, "Email")
	return result, nil
}

func stringField(obj map[string]any, key string) string {
	if v, ok := obj[key].(string); ok {
		return v
	}
	return ""
}
