package importer

// Status is the state of an import run as shown to callers.
type Status string

// Statuses.
const (
	StatusIdle      Status = "idle"
	StatusImporting Status = "importing"
	StatusSuccess   Status = "success"
	StatusError     Status = "error"
)

// EventKind identifies an Event.
type EventKind string

// Event kinds, in the order a run may emit them:
// started, zone_resolved, zone_created, progress and warning (repeated),
// then exactly one of complete or error.
const (
	EventStarted      EventKind = "started"
	EventZoneResolved EventKind = "zone_resolved"
	EventZoneCreated  EventKind = "zone_created"
	EventProgress     EventKind = "progress"
	EventWarning      EventKind = "warning"
	EventComplete     EventKind = "complete"
	EventError        EventKind = "error"
)

// Terminal reports whether no event can follow k.
func (k EventKind) Terminal() bool {
	return k == EventComplete || k == EventError
}

// Event is one notification of an import run.
type Event struct {
	Kind     EventKind `json:"kind"`
	Status   Status    `json:"status"`
	ZoneID   string    `json:"zoneId,omitempty"`
	Message  string    `json:"message,omitempty"`
	Percent  float64   `json:"progress"`
	Imported int       `json:"imported"`
	Total    int       `json:"total"`
	Chunk    int       `json:"chunk,omitempty"`
}

// EventFunc receives events synchronously, from the goroutine running the import.
type EventFunc func(Event)

// emitter enforces a single terminal event and non-decreasing progress.
type emitter struct {
	fn         EventFunc
	percent    float64
	terminated bool
}

func newEmitter(fn EventFunc) *emitter {
	return &emitter{fn: fn}
}

func (e *emitter) emit(ev Event) {
	if e.terminated {
		return
	}
	if ev.Kind.Terminal() {
		e.terminated = true
	}
	if ev.Percent < e.percent {
		ev.Percent = e.percent
	}
	e.percent = ev.Percent
	if e.fn != nil {
		e.fn(ev)
	}
}
