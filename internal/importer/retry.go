package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/kreigan/zone-importer/internal/azion"
)

// User-facing messages for known destination rejections.
const (
	msgDuplicateRecord = "a record with this name and type already exists in the zone"
	msgInvalidFQDN     = "the record name is not a valid fully qualified domain name"
)

// RecordSink performs one network call per record.
type RecordSink interface {
	CreateRecord(ctx context.Context, zoneID string, rec azion.Record) (*azion.Record, error)
}

// RecordStore is a RecordSink that can also find and replace existing records.
type RecordStore interface {
	RecordSink
	ListRecords(ctx context.Context, zoneID string) ([]azion.Record, error)
	UpdateRecord(ctx context.Context, zoneID string, recordID int64, rec azion.Record) (*azion.Record, error)
}

// RecordError is the settled failure of one record.
type RecordError struct {
	Err     error
	Message string
	Record  azion.Record
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Record.Entry, e.Record.RecordType, e.Message)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// RetryingSink applies the per-record retry policy on top of a RecordSink.
type RetryingSink struct {
	sink RecordSink
	log  logr.Logger
	cfg  Config
}

// NewRetryingSink wraps sink.
func NewRetryingSink(sink RecordSink, cfg Config, log logr.Logger) *RetryingSink {
	return &RetryingSink{sink: sink, cfg: cfg.normalize(), log: log}
}

// Put creates rec in the zone. Transport failures are retried with a linear
// backoff; API rejections are final. Every failure is a *RecordError.
func (s *RetryingSink) Put(ctx context.Context, zoneID string, rec azion.Record) error {
	if err := s.cfg.Sleep(ctx, s.cfg.InitialDelay); err != nil {
		return &RecordError{Record: rec, Message: err.Error(), Err: err}
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		_, err := s.sink.CreateRecord(ctx, zoneID, rec)
		if err == nil {
			return nil
		}

		var transportErr *azion.TransportError
		if !errors.As(err, &transportErr) {
			return s.settle(ctx, zoneID, rec, err)
		}
		if ctx.Err() != nil {
			return &RecordError{Record: rec, Message: ctx.Err().Error(), Err: ctx.Err()}
		}

		lastErr = err
		s.log.V(1).Info("transport failure",
			"entry", rec.Entry, "type", rec.RecordType, "attempt", attempt, "error", err.Error())
		if attempt == s.cfg.MaxAttempts {
			break
		}
		wait := s.cfg.RetryBackoff * time.Duration(attempt)
		if err := s.cfg.Sleep(ctx, wait); err != nil {
			return &RecordError{Record: rec, Message: err.Error(), Err: err}
		}
	}

	return &RecordError{Record: rec, Message: lastErr.Error(), Err: lastErr}
}

// settle turns a non-transport failure into the record's final outcome.
func (s *RetryingSink) settle(ctx context.Context, zoneID string, rec azion.Record, err error) error {
	var apiErr *azion.APIError
	if !errors.As(err, &apiErr) {
		return &RecordError{Record: rec, Message: err.Error(), Err: err}
	}

	if !apiErr.IsClientError() {
		return &RecordError{Record: rec, Message: fmt.Sprintf("API error: status %d", apiErr.StatusCode), Err: err}
	}

	if isDuplicate(apiErr.Detail) && s.cfg.OnDuplicate == DuplicateReplace {
		if replaceErr := s.replace(ctx, zoneID, rec); replaceErr != nil {
			return &RecordError{Record: rec, Message: replaceErr.Error(), Err: replaceErr}
		}
		return nil
	}

	return &RecordError{Record: rec, Message: translate(apiErr), Err: err}
}

// replace overwrites the existing record with the same entry and type.
func (s *RetryingSink) replace(ctx context.Context, zoneID string, rec azion.Record) error {
	store, ok := s.sink.(RecordStore)
	if !ok {
		return errors.New(msgDuplicateRecord)
	}

	existing, err := store.ListRecords(ctx, zoneID)
	if err != nil {
		return fmt.Errorf("failed to list records for replacement: %w", err)
	}

	for _, candidate := range existing {
		if strings.EqualFold(candidate.Entry, rec.Entry) && strings.EqualFold(candidate.RecordType, rec.RecordType) {
			if _, err := store.UpdateRecord(ctx, zoneID, candidate.Identifier(), rec); err != nil {
				return fmt.Errorf("failed to replace record: %w", err)
			}
			s.log.V(1).Info("replaced existing record", "entry", rec.Entry, "type", rec.RecordType)
			return nil
		}
	}
	return errors.New(msgDuplicateRecord + " but could not be found for replacement")
}

func isDuplicate(detail string) bool {
	return strings.Contains(strings.ToLower(detail), "already another record")
}

// translate maps known destination errors to user-facing messages.
func translate(apiErr *azion.APIError) string {
	switch {
	case isDuplicate(apiErr.Detail):
		return msgDuplicateRecord
	case strings.Contains(apiErr.Detail, "FQDN"):
		return msgInvalidFQDN
	case apiErr.Detail != "":
		return apiErr.Detail
	default:
		return fmt.Sprintf("API error: status %d", apiErr.StatusCode)
	}
}
