package azion

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Zone represents an Intelligent DNS zone.
// See: https://api.azion.com/v3#intelligent-dns
type Zone struct {
	// Name is the display name of the zone
	Name string `json:"name"`
	// Domain is the apex domain the zone serves
	Domain string `json:"domain"`
	// ID is assigned by the server (read-only)
	ID int64 `json:"id,omitempty"`
	// IsActive reports whether the zone answers queries (read-only)
	IsActive bool `json:"is_active,omitempty"`
}

// IDString returns the zone identifier in the form used in request paths.
func (z Zone) IDString() string {
	return strconv.FormatInt(z.ID, 10)
}

// Record is a single Intelligent DNS record, the wire form of a zone-file record.
type Record struct {
	// RecordType is the DNS type, e.g. "A", "MX"
	RecordType string `json:"record_type"`
	// Entry is the owner name relative to or equal to the zone apex
	Entry string `json:"entry"`
	// AnswersList holds the record data; it is never empty
	AnswersList []string `json:"answers_list"`
	// TTL in seconds
	TTL int `json:"ttl"`
	// ID is returned on creation (read-only)
	ID int64 `json:"id,omitempty"`
	// RecordID is returned when listing records (read-only)
	RecordID int64 `json:"record_id,omitempty"`
}

// Identifier returns the server-assigned record id from whichever field carried it.
func (r Record) Identifier() int64 {
	if r.RecordID != 0 {
		return r.RecordID
	}
	return r.ID
}

// zoneRequest is the POST body for zone creation.
type zoneRequest struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// listResponse is the envelope of collection reads.
type listResponse[T any] struct {
	Results []T `json:"results"`
	Total   int `json:"total,omitempty"`
}

// singleResponse is the envelope of single-object responses.
type singleResponse[T any] struct {
	Results T `json:"results"`
}

// recordsPage is the results payload of a record listing.
type recordsPage struct {
	Records []Record `json:"records"`
}

// errorEnvelope is the body of a non-2xx response.
type errorEnvelope struct {
	Detail string          `json:"detail"`
	Errors json.RawMessage `json:"errors"`
}

// message returns the most specific text the envelope carries.
func (e errorEnvelope) message() string {
	if e.Detail != "" {
		return e.Detail
	}
	if len(e.Errors) == 0 {
		return ""
	}

	var list []string
	if err := json.Unmarshal(e.Errors, &list); err == nil {
		return strings.Join(list, "; ")
	}

	var objects []map[string]interface{}
	if err := json.Unmarshal(e.Errors, &objects); err == nil {
		parts := make([]string, 0, len(objects))
		for _, obj := range objects {
			parts = append(parts, describeErrorObject(obj))
		}
		return strings.Join(parts, "; ")
	}

	var single string
	if err := json.Unmarshal(e.Errors, &single); err == nil {
		return single
	}
	return string(e.Errors)
}

func describeErrorObject(obj map[string]interface{}) string {
	for _, key := range []string{"detail", "message", "title"} {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	data, _ := json.Marshal(obj)
	return string(data)
}

// ErrZoneNotFound is returned when a zone lookup matches nothing.
var ErrZoneNotFound = errors.New("zone not found")

// APIError is a non-2xx response from the destination API.
type APIError struct {
	Detail     string
	StatusCode int
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("API error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Detail)
}

// IsClientError reports whether the status is in the 400 class.
func (e *APIError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// TransportError is a failure to get any response from the destination API.
type TransportError struct {
	Err    error
	Method string
	URL    string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
