// Package azion is a client for the Azion Intelligent DNS v3 API and the
// transformation of zone-file records into its wire format.
package azion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kreigan/zone-importer/internal/logger"
)

// DefaultBaseURL is the public Azion API endpoint.
const DefaultBaseURL = "https://api.azionapi.net"

const (
	acceptHeader   = "application/json; version=3"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 200
)

// Client is an Azion Intelligent DNS API client for API version 3
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a new Azion client.
// baseURL may be empty to use DefaultBaseURL.
func NewClient(baseURL, token string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        log,
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		c.httpClient = hc
	}
}

// doRequest performs an HTTP request against the API.
// Failures to obtain a response are returned as *TransportError.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	target := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Authorization", "Token "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.HTTPRequest(method, target)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("HTTP request failed: %s %s: %v", method, target, err)
		return nil, &TransportError{Method: method, URL: target, Err: err}
	}

	c.log.HTTPResponse(method, target, resp.StatusCode, time.Since(start))
	return resp, nil
}

// handleError converts a non-2xx response into an *APIError.
func (c *Client) handleError(method, path string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var envelope errorEnvelope
	detail := ""
	if err := json.Unmarshal(body, &envelope); err == nil {
		detail = envelope.message()
	}
	if detail == "" {
		detail = strings.TrimSpace(string(body))
		if len(detail) > maxErrorBody {
			detail = detail[:maxErrorBody] + "..."
		}
	}

	c.log.Debug("API error: %s %s -> %d: %s", method, path, resp.StatusCode, detail)
	return &APIError{StatusCode: resp.StatusCode, Detail: detail}
}

func decodeBody(resp *http.Response, v interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// FindZoneByName returns the id of the zone named name.
// GET /intelligent_dns?name={name}
// Returns ErrZoneNotFound when no zone's name or domain matches.
func (c *Client) FindZoneByName(ctx context.Context, name string) (string, error) {
	path := "/intelligent_dns?name=" + url.QueryEscape(name)
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrZoneNotFound
	}
	if !isSuccess(resp.StatusCode) {
		return "", c.handleError(http.MethodGet, path, resp)
	}

	var list listResponse[Zone]
	if err := decodeBody(resp, &list); err != nil {
		return "", err
	}

	for _, z := range list.Results {
		if strings.EqualFold(z.Name, name) || strings.EqualFold(z.Domain, name) {
			return z.IDString(), nil
		}
	}
	return "", ErrZoneNotFound
}

// CreateZone creates a zone serving domain and returns its id.
// POST /intelligent_dns
func (c *Client) CreateZone(ctx context.Context, domain string) (string, error) {
	path := "/intelligent_dns"
	resp, err := c.doRequest(ctx, http.MethodPost, path, zoneRequest{Name: domain, Domain: domain})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return "", c.handleError(http.MethodPost, path, resp)
	}

	var created singleResponse[Zone]
	if err := decodeBody(resp, &created); err != nil {
		return "", err
	}
	if created.Results.ID == 0 {
		return "", fmt.Errorf("zone creation response carries no id")
	}
	return created.Results.IDString(), nil
}

// CreateRecord adds rec to the zone.
// POST /intelligent_dns/{zone_id}/records
func (c *Client) CreateRecord(ctx context.Context, zoneID string, rec Record) (*Record, error) {
	path := fmt.Sprintf("/intelligent_dns/%s/records", url.PathEscape(zoneID))
	resp, err := c.doRequest(ctx, http.MethodPost, path, requestBody(rec))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, c.handleError(http.MethodPost, path, resp)
	}

	var created singleResponse[Record]
	if err := decodeBody(resp, &created); err != nil {
		return nil, err
	}
	return &created.Results, nil
}

// ListRecords returns all records of the zone.
// GET /intelligent_dns/{zone_id}/records
func (c *Client) ListRecords(ctx context.Context, zoneID string) ([]Record, error) {
	path := fmt.Sprintf("/intelligent_dns/%s/records", url.PathEscape(zoneID))
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, c.handleError(http.MethodGet, path, resp)
	}

	var page singleResponse[recordsPage]
	if err := decodeBody(resp, &page); err != nil {
		return nil, err
	}
	return page.Results.Records, nil
}

// UpdateRecord replaces the record recordID with rec.
// PUT /intelligent_dns/{zone_id}/records/{record_id}
func (c *Client) UpdateRecord(ctx context.Context, zoneID string, recordID int64, rec Record) (*Record, error) {
	path := fmt.Sprintf("/intelligent_dns/%s/records/%s",
		url.PathEscape(zoneID), strconv.FormatInt(recordID, 10))
	resp, err := c.doRequest(ctx, http.MethodPut, path, requestBody(rec))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, c.handleError(http.MethodPut, path, resp)
	}

	var updated singleResponse[Record]
	if err := decodeBody(resp, &updated); err != nil {
		return nil, err
	}
	return &updated.Results, nil
}

// requestBody strips read-only fields from rec.
func requestBody(rec Record) Record {
	rec.ID = 0
	rec.RecordID = 0
	return rec
}
