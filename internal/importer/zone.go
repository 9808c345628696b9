package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/miekg/dns"

	"github.com/kreigan/zone-importer/internal/azion"
	"github.com/kreigan/zone-importer/internal/zonefile"
)

// ZoneAPI looks up and creates destination zones.
type ZoneAPI interface {
	FindZoneByName(ctx context.Context, name string) (string, error)
	CreateZone(ctx context.Context, domain string) (string, error)
}

// ErrNoApex is wrapped by ZoneResolutionError when no apex can be derived.
var ErrNoApex = errors.New("cannot determine the apex domain of the records")

// ErrInvalidApex is wrapped by ZoneResolutionError when the derived apex is
// not a domain name.
var ErrInvalidApex = errors.New("derived apex is not a valid domain name")

// ZoneResolutionError means no destination zone could be found or created.
type ZoneResolutionError struct {
	Err  error
	Apex string
}

func (e *ZoneResolutionError) Error() string {
	if e.Apex == "" {
		return fmt.Sprintf("zone resolution failed: %v", e.Err)
	}
	return fmt.Sprintf("zone resolution failed for %q: %v", e.Apex, e.Err)
}

func (e *ZoneResolutionError) Unwrap() error {
	return e.Err
}

// Resolution is the outcome of ZoneResolver.Resolve.
type Resolution struct {
	ZoneID  string
	Apex    string
	Created bool
}

// ZoneResolver decides which destination zone receives an import.
type ZoneResolver struct {
	api ZoneAPI
	log logr.Logger
}

// NewZoneResolver creates a resolver using api.
func NewZoneResolver(api ZoneAPI, log logr.Logger) *ZoneResolver {
	return &ZoneResolver{api: api, log: log}
}

// Resolve returns zoneID unchanged when it is set. Otherwise it looks the zone
// up by the SOA owner name and, failing that, creates a zone for the apex.
func (r *ZoneResolver) Resolve(ctx context.Context, records []zonefile.Record, zoneID string) (Resolution, error) {
	if zoneID != "" {
		return Resolution{ZoneID: zoneID}, nil
	}

	if soa, ok := findType(records, "SOA"); ok {
		id, err := r.api.FindZoneByName(ctx, soa.Name)
		switch {
		case err == nil && id != "":
			r.log.V(1).Info("found existing zone", "zone", soa.Name, "zoneId", id)
			return Resolution{ZoneID: id, Apex: soa.Name}, nil
		case err == nil, errors.Is(err, azion.ErrZoneNotFound):
			r.log.V(1).Info("zone not found, creating it", "zone", soa.Name)
		default:
			r.log.Info("zone lookup failed, creating it",
				"severity", "warning", "code", "zone_lookup_failed", "zone", soa.Name, "error", err.Error())
		}
	}

	apex := ApexDomain(records)
	if apex == "" {
		return Resolution{}, &ZoneResolutionError{Err: ErrNoApex}
	}
	if _, ok := dns.IsDomainName(apex); !ok {
		return Resolution{}, &ZoneResolutionError{Apex: apex, Err: ErrInvalidApex}
	}

	id, err := r.api.CreateZone(ctx, apex)
	if err != nil {
		return Resolution{}, &ZoneResolutionError{Apex: apex, Err: err}
	}
	if id == "" {
		return Resolution{}, &ZoneResolutionError{Apex: apex, Err: errors.New("created zone has no id")}
	}

	r.log.Info("created zone", "zone", apex, "zoneId", id)
	return Resolution{ZoneID: id, Apex: apex, Created: true}, nil
}

// ApexDomain infers the zone apex: the SOA owner, else the first NS owner,
// else the shortest A/AAAA owner (first one wins a tie), else "".
// Records without an owner name are ignored.
func ApexDomain(records []zonefile.Record) string {
	if soa, ok := findType(records, "SOA"); ok {
		return soa.Name
	}
	if ns, ok := findType(records, "NS"); ok {
		return ns.Name
	}

	shortest := ""
	found := false
	for _, rec := range records {
		if rec.Name == "" || (rec.Type != "A" && rec.Type != "AAAA") {
			continue
		}
		if !found || len(rec.Name) < len(shortest) {
			shortest = rec.Name
			found = true
		}
	}
	return shortest
}

func findType(records []zonefile.Record, recordType string) (zonefile.Record, bool) {
	for _, rec := range records {
		if rec.Type == recordType && rec.Name != "" {
			return rec, true
		}
	}
	return zonefile.Record{}, false
}
