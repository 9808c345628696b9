package azion

import (
	"strings"

	"github.com/kreigan/zone-importer/internal/zonefile"
)

// DefaultTTL is applied to records whose TTL was left to the default.
const DefaultTTL = 3600

// Supported reports whether the destination accepts records of recordType.
// SOA and NS are managed by the platform itself.
func Supported(recordType string) bool {
	switch strings.ToUpper(recordType) {
	case "SOA", "NS":
		return false
	default:
		return true
	}
}

// Transform converts records into wire records, in order. Unsupported types
// and records that would carry no answer are dropped.
func Transform(records []zonefile.Record) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if wire, ok := TransformRecord(rec); ok {
			out = append(out, wire)
		}
	}
	return out
}

// TransformRecord converts one record. ok is false if the record is dropped.
// The record type is matched and sent in upper case.
func TransformRecord(rec zonefile.Record) (wire Record, ok bool) {
	rec.Type = strings.ToUpper(strings.TrimSpace(rec.Type))
	if !Supported(rec.Type) {
		return Record{}, false
	}

	answers := answersFor(rec)
	if len(answers) == 0 {
		return Record{}, false
	}

	return Record{
		RecordType:  rec.Type,
		Entry:       rec.Name,
		AnswersList: answers,
		TTL:         int(rec.TTL.Or(DefaultTTL)),
	}, true
}

func answersFor(rec zonefile.Record) []string {
	var answer string

	switch rec.Type {
	case "A", "AAAA":
		answer = strings.TrimSpace(rec.Value)
	case "CNAME":
		answer = strings.TrimSuffix(strings.TrimSpace(rec.Value), ".")
		if answer == "@" {
			answer = rec.Name
		}
	case "MX":
		fields := strings.Fields(rec.Value)
		if len(fields) < 2 {
			return nil
		}
		host := strings.TrimSuffix(strings.Join(fields[1:], " "), ".")
		answer = fields[0] + " " + host
	case "TXT":
		answer = strings.TrimSpace(rec.Value)
		answer = strings.TrimSpace(strings.TrimPrefix(answer, "TXT "))
		answer = stripWrappingQuotes(answer)
	default:
		answer = strings.TrimSpace(rec.Value)
	}

	if answer == "" {
		return nil
	}
	return []string{answer}
}

func stripWrappingQuotes(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}
