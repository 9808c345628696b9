package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"github.com/kreigan/zone-importer/internal/azion"
)

// ErrNoRecords is returned when there is nothing to import.
var ErrNoRecords = errors.New("no importable records")

// ErrTooManyEmptyChunks is returned when the empty-chunk policy aborts a run.
var ErrTooManyEmptyChunks = errors.New("too many consecutive chunks without a successful record")

// RecordFailure describes one record that could not be imported.
type RecordFailure struct {
	Entry      string `json:"entry"`
	RecordType string `json:"recordType"`
	Message    string `json:"message"`
}

// AggregateFailure is returned when a run ends without a single imported record.
type AggregateFailure struct {
	Failures []RecordFailure
	Total    int
}

func (e *AggregateFailure) Error() string {
	if len(e.Failures) == 0 {
		return fmt.Sprintf("no records were imported (%d attempted)", e.Total)
	}
	return fmt.Sprintf("no records were imported (%d attempted): %s", e.Total, e.Failures[0].Message)
}

// Result summarizes an import run. It is returned on failure too.
type Result struct {
	Status      Status          `json:"status"`
	ZoneID      string          `json:"zoneId"`
	Failures    []RecordFailure `json:"failures,omitempty"`
	Total       int             `json:"total"`
	Imported    int             `json:"imported"`
	Chunks      int             `json:"chunks"`
	ZoneCreated bool            `json:"zoneCreated"`
}

// Shortfall is the number of records that were not imported.
func (r *Result) Shortfall() int {
	return r.Total - r.Imported
}

// Progress is the imported share in percent, capped at 100.
func (r *Result) Progress() float64 {
	return progress(r.Imported, r.Total)
}

func progress(imported, total int) float64 {
	if total == 0 {
		return 0
	}
	p := float64(imported) / float64(total) * 100
	if p > 100 {
		return 100
	}
	return p
}

// session is the mutable state of one Import call.
type session struct {
	zoneID      string
	status      Status
	chunks      [][]azion.Record
	total       int
	imported    int
	emptyInARow int
}

func newSession(zoneID string, records []azion.Record, size int) *session {
	return &session{
		zoneID: zoneID,
		chunks: chunk(records, size),
		total:  len(records),
		status: StatusImporting,
	}
}

// chunk splits records into groups of at most size, keeping order.
func chunk(records []azion.Record, size int) [][]azion.Record {
	chunks := make([][]azion.Record, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		chunks = append(chunks, records[start:end])
	}
	return chunks
}

// BatchImporter dispatches wire records to a sink chunk by chunk.
type BatchImporter struct {
	sink *RetryingSink
	log  logr.Logger
	cfg  Config
}

// NewBatchImporter creates a batch importer writing through sink.
func NewBatchImporter(sink RecordSink, cfg Config, log logr.Logger) *BatchImporter {
	cfg = cfg.normalize()
	return &BatchImporter{
		sink: NewRetryingSink(sink, cfg, log),
		cfg:  cfg,
		log:  log,
	}
}

// Import sends records to zoneID. Records inside a chunk are sent
// concurrently; chunks are sent one after the other. onEvent may be nil.
func (b *BatchImporter) Import(
	ctx context.Context,
	zoneID string,
	records []azion.Record,
	onEvent EventFunc,
) (*Result, error) {
	return b.run(ctx, zoneID, records, newEmitter(onEvent), &Result{})
}

func (b *BatchImporter) run(
	ctx context.Context,
	zoneID string,
	records []azion.Record,
	em *emitter,
	res *Result,
) (*Result, error) {
	s := newSession(zoneID, records, b.cfg.ChunkSize)
	res.ZoneID = zoneID
	res.Total = s.total
	res.Chunks = len(s.chunks)
	res.Status = s.status

	if s.total == 0 {
		return b.fail(res, em, ErrNoRecords)
	}

	b.log.Info("importing records", "zoneId", zoneID, "records", s.total, "chunks", len(s.chunks))

	for i, c := range s.chunks {
		if i > 0 {
			if err := b.cfg.Sleep(ctx, b.cfg.ChunkDelay); err != nil {
				return b.fail(res, em, err)
			}
		}

		succeeded, failures := b.dispatch(ctx, s.zoneID, c)
		s.imported += succeeded
		res.Imported = s.imported
		res.Failures = append(res.Failures, failures...)

		b.log.V(1).Info("chunk settled",
			"chunk", i+1, "size", len(c), "succeeded", succeeded, "imported", s.imported)
		em.emit(Event{
			Kind:     EventProgress,
			Status:   StatusImporting,
			ZoneID:   s.zoneID,
			Percent:  progress(s.imported, s.total),
			Imported: s.imported,
			Total:    s.total,
			Chunk:    i + 1,
		})

		if ctx.Err() != nil {
			return b.fail(res, em, ctx.Err())
		}

		if succeeded > 0 {
			s.emptyInARow = 0
			continue
		}
		s.emptyInARow++
		if i > 0 {
			msg := fmt.Sprintf("every record of chunk %d failed, the API may be failing", i+1)
			b.log.Info(msg, "severity", "warning", "code", "chunk_failed", "chunk", i+1)
			em.emit(Event{Kind: EventWarning, Status: StatusImporting, ZoneID: s.zoneID, Message: msg,
				Imported: s.imported, Total: s.total, Chunk: i + 1})
		}
		if b.cfg.MaxEmptyChunks > 0 && s.emptyInARow >= b.cfg.MaxEmptyChunks {
			return b.fail(res, em, fmt.Errorf("%w: %d", ErrTooManyEmptyChunks, s.emptyInARow))
		}
	}

	if s.imported == 0 {
		return b.fail(res, em, &AggregateFailure{Total: s.total, Failures: res.Failures})
	}

	s.status = StatusSuccess
	res.Status = s.status

	msg := fmt.Sprintf("all %d records were imported", s.total)
	if res.Shortfall() > 0 {
		msg = fmt.Sprintf("only %d of %d records were imported", s.imported, s.total)
		b.log.Info(msg, "severity", "warning", "code", "partial_import", "failed", res.Shortfall())
		em.emit(Event{Kind: EventWarning, Status: StatusSuccess, ZoneID: s.zoneID, Message: msg,
			Percent: res.Progress(), Imported: s.imported, Total: s.total})
	} else {
		b.log.Info(msg, "zoneId", s.zoneID)
	}

	em.emit(Event{
		Kind:     EventComplete,
		Status:   StatusSuccess,
		ZoneID:   s.zoneID,
		Message:  msg,
		Percent:  res.Progress(),
		Imported: s.imported,
		Total:    s.total,
	})
	return res, nil
}

// dispatch sends every record of c concurrently and waits for all of them.
func (b *BatchImporter) dispatch(ctx context.Context, zoneID string, c []azion.Record) (int, []RecordFailure) {
	errs := make([]error, len(c))

	var wg sync.WaitGroup
	for i := range c {
		wg.Go(func() {
			errs[i] = b.sink.Put(ctx, zoneID, c[i])
		})
	}
	wg.Wait()

	succeeded := 0
	var failures []RecordFailure
	for i, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		msg := err.Error()
		var recErr *RecordError
		if errors.As(err, &recErr) {
			msg = recErr.Message
		}
		b.log.V(1).Info("record failed", "entry", c[i].Entry, "type", c[i].RecordType, "error", msg)
		failures = append(failures, RecordFailure{Entry: c[i].Entry, RecordType: c[i].RecordType, Message: msg})
	}
	return succeeded, failures
}

// fail marks the run as failed and emits the terminal error event.
func (b *BatchImporter) fail(res *Result, em *emitter, err error) (*Result, error) {
	res.Status = StatusError
	b.log.Error(err, "import failed", "zoneId", res.ZoneID, "imported", res.Imported, "total", res.Total)
	em.emit(Event{
		Kind:     EventError,
		Status:   StatusError,
		ZoneID:   res.ZoneID,
		Message:  err.Error(),
		Percent:  res.Progress(),
		Imported: res.Imported,
		Total:    res.Total,
	})
	return res, err
}
