// Package models defines request and response types for the zone importer HTTP API.
package models

import (
	"errors"

	"github.com/kreigan/zone-importer/internal/azion"
	"github.com/kreigan/zone-importer/internal/zonefile"
)

// ErrNoInput is returned when a request carries neither zone text nor records.
var ErrNoInput = errors.New("either content or records is required")

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse represents a simple status response.
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// ParseRequest carries zone text for JSON clients.
type ParseRequest struct {
	Content string `json:"content" binding:"required"`
}

// DroppedLine is a zone-file line the parser could not use.
type DroppedLine struct {
	Line  int    `json:"line"`
	Text  string `json:"text"`
	Error string `json:"error"`
}

// ParseResponse lists the parsed records.
type ParseResponse struct {
	Apex    string            `json:"apex,omitempty"`
	Records []zonefile.Record `json:"records"`
	Dropped []DroppedLine     `json:"dropped"`
	Count   int               `json:"count"`
	Valid   int               `json:"valid"`
}

// RecordsRequest selects the records to work on: either zone text, which is
// parsed and filtered to its valid records, or records from an earlier parse.
// Those are narrowed down to exactly the Selected ids, valid or not, or to the
// valid ones when nothing is selected.
type RecordsRequest struct {
	Content  string            `json:"content,omitempty"`
	Records  []zonefile.Record `json:"records,omitempty"`
	Selected []string          `json:"selected,omitempty"`
}

// Resolve returns the records the request refers to.
func (r RecordsRequest) Resolve() ([]zonefile.Record, error) {
	switch {
	case len(r.Records) > 0:
		if len(r.Selected) > 0 {
			return zonefile.Select(r.Records, r.Selected), nil
		}
		return zonefile.Valid(r.Records), nil
	case r.Content != "":
		return zonefile.Valid(zonefile.Parse(r.Content).Records), nil
	default:
		return nil, ErrNoInput
	}
}

// TransformResponse lists the wire records that an import would create.
type TransformResponse struct {
	Records []azion.Record `json:"records"`
	Count   int            `json:"count"`
}

// ImportRequest starts an import.
type ImportRequest struct {
	RecordsRequest
	ZoneID string `json:"zoneId,omitempty"`
}
