package zonefile

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// minFields is the smallest token count that can describe a record.
const minFields = 3

// classIN is the only class tag recognized between owner and type.
const classIN = "IN"

// Result is the outcome of one parse.
type Result struct {
	// Apex is the zone apex taken from the first SOA line, trailing dot removed.
	Apex string
	// Records are the recognized lines in input order.
	Records []Record
	// Dropped are the lines that failed to parse.
	Dropped []LineError
}

// ParseOption configures Parse.
type ParseOption func(*parser)

// WithLogger sends one diagnostic per dropped line to log.
func WithLogger(log logr.Logger) ParseOption {
	return func(p *parser) {
		p.log = log
	}
}

// WithIDGenerator replaces the uuid generator used for record IDs.
func WithIDGenerator(fn func() string) ParseOption {
	return func(p *parser) {
		if fn != nil {
			p.newID = fn
		}
	}
}

type parser struct {
	log   logr.Logger
	newID func() string
}

// ParseFile reads path and parses its content.
func ParseFile(path string, opts ...ParseOption) (*Result, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is from CLI argument
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(string(data), opts...), nil
}

// Parse converts zone text into records. It never fails as a whole: lines
// that cannot be parsed are reported in Result.Dropped and skipped.
func Parse(text string, opts ...ParseOption) *Result {
	p := &parser{
		log:   logr.Discard(),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}

	res := &Result{Records: []Record{}}
	apexSeen := false

	for i, raw := range strings.Split(text, "\n") {
		line := stripComment(raw)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		if !apexSeen && hasToken(fields, "SOA") {
			apexSeen = true
			if fields[0] != "@" {
				res.Apex = strings.TrimSuffix(fields[0], ".")
			}
		}

		if strings.HasPrefix(line, "$") {
			continue
		}

		rec, ok, err := p.parseLine(fields, res.Apex)
		if err != nil {
			res.Dropped = append(res.Dropped, LineError{Line: i + 1, Text: line, Err: err})
			p.log.Info("dropping unparsable line",
				"severity", "warning", "code", "parse_error", "line", i+1, "error", err.Error())
			continue
		}
		if ok {
			res.Records = append(res.Records, rec)
		}
	}

	p.log.V(1).Info("parsed zone text",
		"records", len(res.Records), "dropped", len(res.Dropped), "apex", res.Apex)
	return res
}

func (p *parser) parseLine(fields []string, apex string) (Record, bool, error) {
	if len(fields) < minFields {
		return Record{}, false, nil
	}

	name := fields[0]
	if name == "@" {
		name = apex
	}

	idx := 1
	classSeen := false
	if strings.EqualFold(fields[idx], classIN) {
		classSeen = true
		idx++
	}

	ttl := DefaultTTL
	if idx < len(fields) && isDecimal(fields[idx]) {
		n, err := strconv.ParseUint(fields[idx], 10, 32)
		if err != nil {
			return Record{}, false, fmt.Errorf("%w: %s", ErrInvalidTTL, fields[idx])
		}
		ttl = Seconds(uint32(n))
		idx++
	}

	if !classSeen && idx < len(fields) && strings.EqualFold(fields[idx], classIN) {
		idx++
	}

	if idx >= len(fields) {
		return Record{}, false, nil
	}
	recordType := strings.ToUpper(fields[idx])
	idx++

	value := composeValue(recordType, fields[idx:])
	return newRecord(p.newID(), name, recordType, value, ttl), true, nil
}

// composeValue builds the textual payload for recordType from the tokens
// following the type.
func composeValue(recordType string, rest []string) string {
	switch recordType {
	case "A", "AAAA", "CNAME", "NS":
		return tokenAt(rest, 0)
	case "MX":
		// priority and exchange
		return strings.TrimSpace(tokenAt(rest, 0) + " " + tokenAt(rest, 1))
	case "TXT":
		return stripQuotes(strings.Join(rest, " "))
	default:
		// SOA stays one opaque blob, like any type without a dedicated rule.
		return strings.Join(rest, " ")
	}
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

func hasToken(fields []string, token string) bool {
	for _, f := range fields {
		if strings.EqualFold(f, token) {
			return true
		}
	}
	return false
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func tokenAt(tokens []string, i int) string {
	if i < len(tokens) {
		return tokens[i]
	}
	return ""
}

func stripQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
