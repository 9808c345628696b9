// Package importer resolves the destination zone and pushes wire records to it
// in throttled, retried chunks, reporting progress as a stream of events.
package importer

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/kreigan/zone-importer/internal/azion"
	"github.com/kreigan/zone-importer/internal/zonefile"
)

// API is everything an import run needs from the destination.
type API interface {
	ZoneAPI
	RecordStore
}

// Importer runs complete imports: transform, zone resolution, batch import.
type Importer struct {
	resolver *ZoneResolver
	batch    *BatchImporter
	log      logr.Logger
}

// New creates an importer talking to api.
func New(api API, cfg Config, log logr.Logger) *Importer {
	return &Importer{
		resolver: NewZoneResolver(api, log.WithName("zone")),
		batch:    NewBatchImporter(api, cfg, log.WithName("batch")),
		log:      log,
	}
}

// RunOptions contains options for the Run operation.
type RunOptions struct {
	// ZoneID skips zone resolution when set.
	ZoneID string
	// OnEvent receives the event stream of the run. May be nil.
	OnEvent EventFunc
}

// Run imports exactly the given records, which the caller has already
// selected; invalid records included here are sent as well. Zone resolution
// looks at the same records. The returned Result is never nil.
func (i *Importer) Run(ctx context.Context, records []zonefile.Record, opts RunOptions) (*Result, error) {
	em := newEmitter(opts.OnEvent)
	res := &Result{Status: StatusImporting, ZoneID: opts.ZoneID}

	wire := azion.Transform(records)
	res.Total = len(wire)
	em.emit(Event{Kind: EventStarted, Status: StatusImporting, ZoneID: opts.ZoneID, Total: res.Total})

	i.log.V(1).Info("transformed records", "selected", len(records), "importable", len(wire))
	if len(wire) == 0 {
		return i.batch.fail(res, em, ErrNoRecords)
	}

	zone, err := i.resolver.Resolve(ctx, records, opts.ZoneID)
	if err != nil {
		return i.batch.fail(res, em, err)
	}
	res.ZoneID = zone.ZoneID
	res.ZoneCreated = zone.Created

	em.emit(Event{
		Kind:    EventZoneResolved,
		Status:  StatusImporting,
		ZoneID:  zone.ZoneID,
		Message: describeResolution(zone, opts.ZoneID),
		Total:   res.Total,
	})
	if zone.Created {
		em.emit(Event{
			Kind:    EventZoneCreated,
			Status:  StatusImporting,
			ZoneID:  zone.ZoneID,
			Message: fmt.Sprintf("created zone %s", zone.Apex),
			Total:   res.Total,
		})
	}

	return i.batch.run(ctx, zone.ZoneID, wire, em, res)
}

func describeResolution(zone Resolution, supplied string) string {
	switch {
	case supplied != "":
		return fmt.Sprintf("using zone %s", zone.ZoneID)
	case zone.Created:
		return fmt.Sprintf("created zone %s (%s)", zone.Apex, zone.ZoneID)
	default:
		return fmt.Sprintf("found zone %s (%s)", zone.Apex, zone.ZoneID)
	}
}
