// Package zonefile parses BIND-style zone text into typed, validated DNS records.
package zonefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultLabel is the textual form of a TTL left to the destination default.
const DefaultLabel = "Default"

// TTL is a tagged option: either the destination default or an explicit
// number of seconds. The zero value is the default.
type TTL struct {
	seconds uint32
	set     bool
}

// DefaultTTL is the TTL of a record that did not carry one.
var DefaultTTL = TTL{}

// Seconds returns an explicit TTL of n seconds.
func Seconds(n uint32) TTL {
	return TTL{seconds: n, set: true}
}

// IsDefault reports whether the TTL was left unset.
func (t TTL) IsDefault() bool {
	return !t.set
}

// Value returns the explicit seconds and whether they were set.
func (t TTL) Value() (uint32, bool) {
	return t.seconds, t.set
}

// Or returns the explicit seconds, or def when the TTL is the default.
func (t TTL) Or(def uint32) uint32 {
	if !t.set {
		return def
	}
	return t.seconds
}

func (t TTL) String() string {
	if !t.set {
		return DefaultLabel
	}
	return strconv.FormatUint(uint64(t.seconds), 10)
}

// MarshalJSON encodes the TTL as "Default" or as its decimal string.
func (t TTL) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts "Default", a decimal string or a JSON number.
func (t *TTL) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		*t = DefaultTTL
	case string:
		if v == "" || strings.EqualFold(v, DefaultLabel) {
			*t = DefaultTTL
			return nil
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid ttl %q: %w", v, err)
		}
		*t = Seconds(uint32(n))
	case float64:
		if v < 0 || v > float64(^uint32(0)) || v != float64(uint32(v)) {
			return fmt.Errorf("invalid ttl %v", v)
		}
		*t = Seconds(uint32(v))
	default:
		return fmt.Errorf("unsupported ttl type %T", raw)
	}
	return nil
}

// Record is one parsed zone-file record.
type Record struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Value   string `json:"value"`
	Error   string `json:"error,omitempty"`
	TTL     TTL    `json:"ttl"`
	IsValid bool   `json:"isValid"`
}

func newRecord(id, name, recordType, value string, ttl TTL) Record {
	rec := Record{
		ID:    id,
		Name:  strings.TrimSuffix(name, "."),
		Type:  recordType,
		Value: value,
		TTL:   ttl,
	}

	var missing []string
	if rec.Name == "" {
		missing = append(missing, "name")
	}
	if rec.Type == "" {
		missing = append(missing, "type")
	}
	if rec.Value == "" {
		missing = append(missing, "value")
	}

	rec.IsValid = len(missing) == 0
	if !rec.IsValid {
		rec.Error = "incomplete record: missing " + strings.Join(missing, ", ")
	}
	return rec
}

// ErrInvalidTTL is returned for a numeric TTL token that does not fit in 32 bits.
var ErrInvalidTTL = errors.New("ttl out of range")

// LineError describes a line the parser had to drop.
type LineError struct {
	Err  error
	Text string
	Line int
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Valid returns the valid records in their original order.
func Valid(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.IsValid {
			out = append(out, r)
		}
	}
	return out
}

// Select returns the records whose ID is listed, in their original order.
// Invalid records are returned too when selected explicitly.
func Select(records []Record, ids []string) []Record {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	out := make([]Record, 0, len(ids))
	for _, r := range records {
		if _, ok := wanted[r.ID]; ok {
			out = append(out, r)
		}
	}
	return out
}
