package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kreigan/zone-importer/internal/azion"
	"github.com/kreigan/zone-importer/internal/zonefile"
)

// MockAPI implements API for testing
type MockAPI struct {
	mu sync.Mutex

	zones         map[string]string
	findErr       error
	createZoneErr error
	nextZoneID    string

	// recordErr decides the outcome of every CreateRecord call; attempt
	// counts the calls for the same entry, starting at 1.
	recordErr func(rec azion.Record, attempt int) error
	attempts  map[string]int
	created   []azion.Record
	existing  []azion.Record
	updated   []int64

	findCalls   []string
	createCalls []string
	recordCalls int

	// gate, when set, holds every CreateRecord call until gateSize calls are in flight.
	gate        chan struct{}
	gateSize    int
	inFlight    int
	maxInFlight int
}

func NewMockAPI() *MockAPI {
	return &MockAPI{
		zones:      make(map[string]string),
		attempts:   make(map[string]int),
		nextZoneID: "1001",
	}
}

func (m *MockAPI) FindZoneByName(_ context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalls = append(m.findCalls, name)
	if m.findErr != nil {
		return "", m.findErr
	}
	if id, ok := m.zones[name]; ok {
		return id, nil
	}
	return "", azion.ErrZoneNotFound
}

func (m *MockAPI) CreateZone(_ context.Context, domain string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls = append(m.createCalls, domain)
	if m.createZoneErr != nil {
		return "", m.createZoneErr
	}
	m.zones[domain] = m.nextZoneID
	return m.nextZoneID, nil
}

func (m *MockAPI) CreateRecord(_ context.Context, _ string, rec azion.Record) (*azion.Record, error) {
	m.mu.Lock()
	m.recordCalls++
	m.attempts[rec.Entry]++
	attempt := m.attempts[rec.Entry]
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	gate := m.gate
	if gate != nil && m.inFlight == m.gateSize {
		close(gate)
		m.gate = nil
	}
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-time.After(2 * time.Second):
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--
	if m.recordErr != nil {
		if err := m.recordErr(rec, attempt); err != nil {
			return nil, err
		}
	}
	m.created = append(m.created, rec)
	created := rec
	created.ID = int64(len(m.created))
	return &created, nil
}

func (m *MockAPI) ListRecords(_ context.Context, _ string) ([]azion.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.existing, nil
}

func (m *MockAPI) UpdateRecord(_ context.Context, _ string, recordID int64, rec azion.Record) (*azion.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated = append(m.updated, recordID)
	updated := rec
	updated.ID = recordID
	return &updated, nil
}

// sinkOnly hides everything but CreateRecord.
type sinkOnly struct {
	api *MockAPI
}

func (s sinkOnly) CreateRecord(ctx context.Context, zoneID string, rec azion.Record) (*azion.Record, error) {
	return s.api.CreateRecord(ctx, zoneID, rec)
}

// sleepRecorder replaces real delays and remembers what was asked for.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) nonZero() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []time.Duration
	for _, d := range s.waits {
		if d > 0 {
			out = append(out, d)
		}
	}
	return out
}

type eventLog struct {
	events []Event
}

func (l *eventLog) record(ev Event) {
	l.events = append(l.events, ev)
}

func (l *eventLog) kinds() []EventKind {
	kinds := make([]EventKind, 0, len(l.events))
	for _, ev := range l.events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

func (l *eventLog) ofKind(kind EventKind) []Event {
	var out []Event
	for _, ev := range l.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// assertWellFormed checks the stream invariants every run must hold.
func (l *eventLog) assertWellFormed(t *testing.T) {
	t.Helper()
	require.NotEmpty(t, l.events)

	terminals := 0
	last := 0.0
	for i, ev := range l.events {
		if ev.Kind.Terminal() {
			terminals++
			assert.Equal(t, len(l.events)-1, i, "terminal event must be last")
		}
		assert.GreaterOrEqual(t, ev.Percent, last, "progress went backwards at event %d", i)
		last = ev.Percent
	}
	assert.Equal(t, 1, terminals, "exactly one terminal event")
}

func testConfig(rec *sleepRecorder) Config {
	return Config{
		Sleep:       rec.sleep,
		ChunkSize:   DefaultChunkSize,
		MaxAttempts: DefaultMaxAttempts,
	}
}

func wireRecords(n int) []azion.Record {
	records := make([]azion.Record, 0, n)
	for i := range n {
		records = append(records, azion.Record{
			RecordType:  "A",
			Entry:       fmt.Sprintf("host%d", i),
			AnswersList: []string{fmt.Sprintf("192.0.2.%d", i+1)},
			TTL:         300,
		})
	}
	return records
}

func zoneRecords(t *testing.T, n int) []zonefile.Record {
	t.Helper()
	var b strings.Builder
	b.WriteString("example.com. 3600 IN SOA ns1.example.com. admin.example.com. 1 7200 3600 1209600 3600\n")
	for i := range n {
		fmt.Fprintf(&b, "host%d 300 IN A 192.0.2.%d\n", i, i+1)
	}
	res := zonefile.Parse(b.String())
	require.Len(t, res.Records, n+1)
	return res.Records
}

func clientError(detail string) error {
	return &azion.APIError{StatusCode: 400, Detail: detail}
}

func transportError() error {
	return &azion.TransportError{Method: "POST", URL: "/intelligent_dns/1/records", Err: errors.New("connection reset")}
}

func TestChunk(t *testing.T) {
	chunks := chunk(wireRecords(23), 10)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 10)
	assert.Len(t, chunks[1], 10)
	assert.Len(t, chunks[2], 3)
	assert.Equal(t, "host10", chunks[1][0].Entry)

	assert.Empty(t, chunk(nil, 10))
	assert.Len(t, chunk(wireRecords(10), 10), 1)
}

func TestConfig_Normalize(t *testing.T) {
	cfg := Config{ChunkSize: -1, ChunkDelay: -time.Second}.normalize()
	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, DuplicateFail, cfg.OnDuplicate)
	assert.Zero(t, cfg.ChunkDelay)
	assert.Zero(t, cfg.InitialDelay)
	assert.NotNil(t, cfg.Sleep)

	def := DefaultConfig()
	assert.Equal(t, 300*time.Millisecond, def.ChunkDelay)
	assert.Equal(t, time.Second, def.InitialDelay)
	assert.Equal(t, 2*time.Second, def.RetryBackoff)
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleepContext(context.Background(), 0))
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))
}

func TestEmitter(t *testing.T) {
	var got []Event
	em := newEmitter(func(ev Event) { got = append(got, ev) })

	em.emit(Event{Kind: EventProgress, Percent: 50})
	em.emit(Event{Kind: EventWarning, Percent: 0})
	em.emit(Event{Kind: EventError, Percent: 10})
	em.emit(Event{Kind: EventComplete, Percent: 100})

	require.Len(t, got, 3)
	assert.Equal(t, 50.0, got[1].Percent, "progress must not decrease")
	assert.Equal(t, EventError, got[2].Kind)

	// nil callback is allowed
	newEmitter(nil).emit(Event{Kind: EventStarted})
}

func TestBatchImporter_ChunksAndProgress(t *testing.T) {
	api := NewMockAPI()
	sleeps := &sleepRecorder{}
	cfg := testConfig(sleeps)
	cfg.ChunkDelay = 300 * time.Millisecond
	events := &eventLog{}

	res, err := NewBatchImporter(api, cfg, logr.Discard()).Import(context.Background(), "77", wireRecords(23), events.record)
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "77", res.ZoneID)
	assert.Equal(t, 23, res.Imported)
	assert.Equal(t, 23, res.Total)
	assert.Equal(t, 3, res.Chunks)
	assert.Equal(t, 100.0, res.Progress())
	assert.Zero(t, res.Shortfall())
	assert.Empty(t, res.Failures)
	assert.Len(t, api.created, 23)

	progress := events.ofKind(EventProgress)
	require.Len(t, progress, 3)
	for i, want := range []int{10, 20, 23} {
		assert.Equal(t, want, progress[i].Imported)
		assert.Equal(t, i+1, progress[i].Chunk)
		assert.Equal(t, 23, progress[i].Total)
	}
	assert.InDelta(t, 43.478, progress[0].Percent, 0.01)

	events.assertWellFormed(t)
	final := events.events[len(events.events)-1]
	assert.Equal(t, EventComplete, final.Kind)
	assert.Equal(t, 100.0, final.Percent)
	assert.Equal(t, 23, final.Imported)

	// chunk delay only between chunks
	assert.Equal(t, []time.Duration{300 * time.Millisecond, 300 * time.Millisecond}, sleeps.nonZero())
}

func TestBatchImporter_AllFail(t *testing.T) {
	api := NewMockAPI()
	api.recordErr = func(azion.Record, int) error { return clientError("Invalid answer") }
	events := &eventLog{}

	res, err := NewBatchImporter(api, testConfig(&sleepRecorder{}), logr.Discard()).
		Import(context.Background(), "77", wireRecords(23), events.record)
	require.Error(t, err)

	var aggErr *AggregateFailure
	require.ErrorAs(t, err, &aggErr)
	assert.Equal(t, 23, aggErr.Total)
	assert.Len(t, aggErr.Failures, 23)
	assert.Contains(t, err.Error(), "Invalid answer")

	require.NotNil(t, res)
	assert.Equal(t, StatusError, res.Status)
	assert.Zero(t, res.Imported)
	assert.Equal(t, "Invalid answer", res.Failures[0].Message)
	assert.Equal(t, "host0", res.Failures[0].Entry)
	assert.Equal(t, "A", res.Failures[0].RecordType)

	// no retries on client errors
	assert.Equal(t, 23, api.recordCalls)

	// the first chunk never warns
	warnings := events.ofKind(EventWarning)
	require.Len(t, warnings, 2)
	assert.Equal(t, 2, warnings[0].Chunk)
	assert.Equal(t, 3, warnings[1].Chunk)

	events.assertWellFormed(t)
	assert.Equal(t, EventError, events.events[len(events.events)-1].Kind)
}

func TestBatchImporter_PartialSuccess(t *testing.T) {
	api := NewMockAPI()
	failing := map[string]bool{"host0": true, "host3": true, "host12": true, "host21": true, "host22": true}
	api.recordErr = func(rec azion.Record, _ int) error {
		if failing[rec.Entry] {
			return clientError("Invalid answer")
		}
		return nil
	}
	events := &eventLog{}

	res, err := NewBatchImporter(api, testConfig(&sleepRecorder{}), logr.Discard()).
		Import(context.Background(), "77", wireRecords(23), events.record)
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 18, res.Imported)
	assert.Equal(t, 5, res.Shortfall())
	assert.Len(t, res.Failures, 5)

	warnings := events.ofKind(EventWarning)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "only 18 of 23")

	events.assertWellFormed(t)
	final := events.events[len(events.events)-1]
	assert.Equal(t, EventComplete, final.Kind)
	assert.InDelta(t, 78.26, final.Percent, 0.01)
}

func TestBatchImporter_MaxEmptyChunks(t *testing.T) {
	api := NewMockAPI()
	api.recordErr = func(azion.Record, int) error { return clientError("Invalid answer") }
	cfg := testConfig(&sleepRecorder{})
	cfg.MaxEmptyChunks = 2
	events := &eventLog{}

	res, err := NewBatchImporter(api, cfg, logr.Discard()).
		Import(context.Background(), "77", wireRecords(23), events.record)
	require.ErrorIs(t, err, ErrTooManyEmptyChunks)
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, 20, api.recordCalls, "third chunk must not be sent")
	events.assertWellFormed(t)
}

func TestBatchImporter_NoRecords(t *testing.T) {
	events := &eventLog{}
	res, err := NewBatchImporter(NewMockAPI(), testConfig(&sleepRecorder{}), logr.Discard()).
		Import(context.Background(), "77", nil, events.record)
	require.ErrorIs(t, err, ErrNoRecords)
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, []EventKind{EventError}, events.kinds())
}

func TestBatchImporter_ConcurrentWithinChunk(t *testing.T) {
	api := NewMockAPI()
	api.gate = make(chan struct{})
	api.gateSize = 5
	cfg := testConfig(&sleepRecorder{})
	cfg.ChunkSize = 5

	res, err := NewBatchImporter(api, cfg, logr.Discard()).
		Import(context.Background(), "77", wireRecords(10), nil)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Imported)
	assert.Equal(t, 5, api.maxInFlight, "a whole chunk is in flight at once, never more")
}

func TestRetryingSink_RetriesTransportFailures(t *testing.T) {
	api := NewMockAPI()
	api.recordErr = func(_ azion.Record, attempt int) error {
		if attempt < 3 {
			return transportError()
		}
		return nil
	}
	sleeps := &sleepRecorder{}
	cfg := testConfig(sleeps)
	cfg.InitialDelay = time.Second
	cfg.RetryBackoff = 2 * time.Second

	err := NewRetryingSink(api, cfg, logr.Discard()).Put(context.Background(), "77", wireRecords(1)[0])
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, sleeps.waits)
	assert.Equal(t, 3, api.recordCalls)
}

func TestRetryingSink_ExhaustedReturnsTransportError(t *testing.T) {
	api := NewMockAPI()
	api.recordErr = func(azion.Record, int) error { return transportError() }
	sleeps := &sleepRecorder{}
	cfg := testConfig(sleeps)
	cfg.InitialDelay = time.Second
	cfg.RetryBackoff = 2 * time.Second

	err := NewRetryingSink(api, cfg, logr.Discard()).Put(context.Background(), "77", wireRecords(1)[0])
	require.Error(t, err)

	var transportErr *azion.TransportError
	assert.ErrorAs(t, err, &transportErr)
	var recErr *RecordError
	require.ErrorAs(t, err, &recErr)
	assert.Contains(t, recErr.Message, "connection reset")
	assert.Equal(t, 3, api.recordCalls)
	// no wait after the final attempt
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, sleeps.waits)
}

func TestRetryingSink_ClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{
			name:    "duplicate record",
			err:     clientError("There is already another record with the same entry and type"),
			message: msgDuplicateRecord,
		},
		{
			name:    "invalid fqdn",
			err:     clientError("Entry must be a valid FQDN"),
			message: msgInvalidFQDN,
		},
		{
			name:    "raw detail",
			err:     clientError("answers_list: invalid IPv4 address"),
			message: "answers_list: invalid IPv4 address",
		},
		{
			name:    "client error without detail",
			err:     &azion.APIError{StatusCode: 422},
			message: "API error: status 422",
		},
		{
			name:    "server error",
			err:     &azion.APIError{StatusCode: 500, Detail: "internal"},
			message: "API error: status 500",
		},
		{
			name:    "unknown error",
			err:     errors.New("boom"),
			message: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := NewMockAPI()
			api.recordErr = func(azion.Record, int) error { return tt.err }

			err := NewRetryingSink(api, testConfig(&sleepRecorder{}), logr.Discard()).
				Put(context.Background(), "77", wireRecords(1)[0])

			var recErr *RecordError
			require.ErrorAs(t, err, &recErr)
			assert.Equal(t, tt.message, recErr.Message)
			assert.Equal(t, "host0", recErr.Record.Entry)
			assert.Equal(t, 1, api.recordCalls, "should not retry")
		})
	}
}

func TestRetryingSink_ReplaceDuplicate(t *testing.T) {
	api := NewMockAPI()
	api.existing = []azion.Record{
		{RecordType: "MX", Entry: "host0", RecordID: 41},
		{RecordType: "A", Entry: "HOST0", RecordID: 42},
	}
	api.recordErr = func(azion.Record, int) error {
		return clientError("There is already another record with the same entry and type")
	}
	cfg := testConfig(&sleepRecorder{})
	cfg.OnDuplicate = DuplicateReplace

	err := NewRetryingSink(api, cfg, logr.Discard()).Put(context.Background(), "77", wireRecords(1)[0])
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, api.updated)
}

func TestRetryingSink_ReplaceDuplicateNotFound(t *testing.T) {
	api := NewMockAPI()
	api.recordErr = func(azion.Record, int) error {
		return clientError("There is already another record with the same entry and type")
	}
	cfg := testConfig(&sleepRecorder{})
	cfg.OnDuplicate = DuplicateReplace

	err := NewRetryingSink(api, cfg, logr.Discard()).Put(context.Background(), "77", wireRecords(1)[0])
	var recErr *RecordError
	require.ErrorAs(t, err, &recErr)
	assert.Contains(t, recErr.Message, msgDuplicateRecord)
	assert.Empty(t, api.updated)
}

func TestRetryingSink_ReplaceNeedsRecordStore(t *testing.T) {
	api := NewMockAPI()
	api.recordErr = func(azion.Record, int) error {
		return clientError("There is already another record with the same entry and type")
	}
	cfg := testConfig(&sleepRecorder{})
	cfg.OnDuplicate = DuplicateReplace

	err := NewRetryingSink(sinkOnly{api: api}, cfg, logr.Discard()).Put(context.Background(), "77", wireRecords(1)[0])
	var recErr *RecordError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, msgDuplicateRecord, recErr.Message)
}

func TestZoneResolver_SuppliedZoneID(t *testing.T) {
	api := NewMockAPI()
	res, err := NewZoneResolver(api, logr.Discard()).Resolve(context.Background(), zoneRecords(t, 1), "555")
	require.NoError(t, err)
	assert.Equal(t, Resolution{ZoneID: "555"}, res)
	assert.Empty(t, api.findCalls)
	assert.Empty(t, api.createCalls)
}

func TestZoneResolver_FindsExistingZone(t *testing.T) {
	api := NewMockAPI()
	api.zones["example.com"] = "321"

	res, err := NewZoneResolver(api, logr.Discard()).Resolve(context.Background(), zoneRecords(t, 1), "")
	require.NoError(t, err)
	assert.Equal(t, "321", res.ZoneID)
	assert.False(t, res.Created)
	assert.Equal(t, []string{"example.com"}, api.findCalls)
	assert.Empty(t, api.createCalls)
}

func TestZoneResolver_SOABeatsNSWhenLookupFails(t *testing.T) {
	api := NewMockAPI()
	api.findErr = transportError()
	records := []zonefile.Record{
		{Name: "other.org", Type: "NS", Value: "ns1.other.org.", IsValid: true},
		{Name: "example.com", Type: "SOA", Value: "ns1 admin 1 2 3 4 5", IsValid: true},
		{Name: "a.example.com", Type: "A", Value: "192.0.2.1", IsValid: true},
	}

	res, err := NewZoneResolver(api, logr.Discard()).Resolve(context.Background(), records, "")
	require.NoError(t, err)
	assert.Equal(t, "1001", res.ZoneID)
	assert.True(t, res.Created)
	assert.Equal(t, []string{"example.com"}, api.createCalls)
}

func TestZoneResolver_NoSOACreatesFromNS(t *testing.T) {
	api := NewMockAPI()
	records := []zonefile.Record{
		{Name: "www.example.com", Type: "A", Value: "192.0.2.1", IsValid: true},
		{Name: "example.com", Type: "NS", Value: "ns1.example.com.", IsValid: true},
	}

	res, err := NewZoneResolver(api, logr.Discard()).Resolve(context.Background(), records, "")
	require.NoError(t, err)
	assert.Equal(t, "example.com", res.Apex)
	assert.Empty(t, api.findCalls, "lookup needs an SOA record")
	assert.Equal(t, []string{"example.com"}, api.createCalls)
}

func TestZoneResolver_Errors(t *testing.T) {
	t.Run("no apex", func(t *testing.T) {
		records := []zonefile.Record{{Name: "www", Type: "TXT", Value: "hello", IsValid: true}}
		_, err := NewZoneResolver(NewMockAPI(), logr.Discard()).Resolve(context.Background(), records, "")

		var zoneErr *ZoneResolutionError
		require.ErrorAs(t, err, &zoneErr)
		assert.ErrorIs(t, err, ErrNoApex)
	})

	t.Run("invalid apex", func(t *testing.T) {
		api := NewMockAPI()
		records := []zonefile.Record{{Name: strings.Repeat("a", 64) + ".com", Type: "A", Value: "192.0.2.1", IsValid: true}}
		_, err := NewZoneResolver(api, logr.Discard()).Resolve(context.Background(), records, "")

		assert.ErrorIs(t, err, ErrInvalidApex)
		assert.Empty(t, api.createCalls)
	})

	t.Run("create fails", func(t *testing.T) {
		api := NewMockAPI()
		api.createZoneErr = clientError("zone already exists")
		_, err := NewZoneResolver(api, logr.Discard()).Resolve(context.Background(), zoneRecords(t, 1), "")

		var zoneErr *ZoneResolutionError
		require.ErrorAs(t, err, &zoneErr)
		assert.Equal(t, "example.com", zoneErr.Apex)
		var apiErr *azion.APIError
		assert.ErrorAs(t, err, &apiErr)
	})
}

func TestApexDomain(t *testing.T) {
	tests := []struct {
		name    string
		records []zonefile.Record
		want    string
	}{
		{
			name: "soa owner",
			records: []zonefile.Record{
				{Name: "ns.example.net", Type: "NS"},
				{Name: "example.com", Type: "SOA"},
			},
			want: "example.com",
		},
		{
			name: "first ns owner",
			records: []zonefile.Record{
				{Name: "example.net", Type: "NS"},
				{Name: "example.org", Type: "NS"},
			},
			want: "example.net",
		},
		{
			name: "shortest address owner, first wins ties",
			records: []zonefile.Record{
				{Name: "www.example.com", Type: "A"},
				{Name: "abc.com", Type: "AAAA"},
				{Name: "xyz.com", Type: "A"},
				{Name: "x.com", Type: "TXT"},
			},
			want: "abc.com",
		},
		{
			name: "unnamed records are skipped",
			records: []zonefile.Record{
				{Name: "", Type: "SOA"},
				{Name: "", Type: "A"},
				{Name: "example.net", Type: "NS"},
			},
			want: "example.net",
		},
		{
			name:    "nothing to go on",
			records: []zonefile.Record{{Name: "mail", Type: "MX"}},
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ApexDomain(tt.records))
		})
	}
}

func TestImporter_Run_CreatesZoneAndImports(t *testing.T) {
	api := NewMockAPI()
	events := &eventLog{}

	res, err := New(api, testConfig(&sleepRecorder{}), logr.Discard()).
		Run(context.Background(), zoneRecords(t, 23), RunOptions{OnEvent: events.record})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "1001", res.ZoneID)
	assert.True(t, res.ZoneCreated)
	assert.Equal(t, 23, res.Imported)
	assert.Equal(t, 23, res.Total, "SOA is not importable")
	assert.Equal(t, []string{"example.com"}, api.findCalls)
	assert.Equal(t, []string{"example.com"}, api.createCalls)

	assert.Equal(t, []EventKind{
		EventStarted, EventZoneResolved, EventZoneCreated,
		EventProgress, EventProgress, EventProgress,
		EventComplete,
	}, events.kinds())
	events.assertWellFormed(t)

	for _, ev := range events.events[1:] {
		assert.Equal(t, "1001", ev.ZoneID)
	}
}

func TestImporter_Run_SuppliedZone(t *testing.T) {
	api := NewMockAPI()
	events := &eventLog{}

	res, err := New(api, testConfig(&sleepRecorder{}), logr.Discard()).
		Run(context.Background(), zoneRecords(t, 3), RunOptions{ZoneID: "9", OnEvent: events.record})
	require.NoError(t, err)

	assert.Equal(t, "9", res.ZoneID)
	assert.False(t, res.ZoneCreated)
	assert.Empty(t, api.findCalls)
	assert.Empty(t, api.createCalls)
	assert.Equal(t, []EventKind{EventStarted, EventZoneResolved, EventProgress, EventComplete}, events.kinds())
}

func TestImporter_Run_SendsRecordsAsGiven(t *testing.T) {
	api := NewMockAPI()
	records := zoneRecords(t, 1)
	records = append(records, zonefile.Record{
		ID: "x", Name: "@", Type: "A", Value: "192.0.2.9",
		Error: "incomplete record: missing name",
	})

	res, err := New(api, testConfig(&sleepRecorder{}), logr.Discard()).
		Run(context.Background(), records, RunOptions{ZoneID: "9"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	require.Len(t, api.created, 2)
	assert.Contains(t, api.created, azion.Record{
		RecordType: "A", Entry: "@", AnswersList: []string{"192.0.2.9"}, TTL: azion.DefaultTTL,
	})
}

func TestImporter_Run_UnnamedSOAFallsBackToNS(t *testing.T) {
	parsed := zonefile.Parse(strings.Join([]string{
		"@ 3600 IN SOA ns1.example.com. admin.example.com. 1 7200 3600 1209600 3600",
		"example.com. IN NS ns1.example.com.",
		"www.example.com. 300 IN A 192.0.2.1",
	}, "\n"))
	require.Len(t, parsed.Records, 3)
	require.False(t, parsed.Records[0].IsValid)

	for name, records := range map[string][]zonefile.Record{
		"all":   parsed.Records,
		"valid": zonefile.Valid(parsed.Records),
	} {
		t.Run(name, func(t *testing.T) {
			api := NewMockAPI()

			res, err := New(api, testConfig(&sleepRecorder{}), logr.Discard()).
				Run(context.Background(), records, RunOptions{})
			require.NoError(t, err)
			assert.Equal(t, "example.com", ApexDomain(records))
			assert.Empty(t, api.findCalls)
			assert.Equal(t, []string{"example.com"}, api.createCalls)
			assert.True(t, res.ZoneCreated)
			assert.Equal(t, 1, res.Imported)
		})
	}
}

func TestImporter_Run_NothingImportable(t *testing.T) {
	api := NewMockAPI()
	events := &eventLog{}
	res := zonefile.Parse(strings.Join([]string{
		"example.com. 3600 IN SOA ns1.example.com. admin.example.com. 1 7200 3600 1209600 3600",
		"@ 3600 IN NS ns1.example.com.",
	}, "\n"))

	result, err := New(api, testConfig(&sleepRecorder{}), logr.Discard()).
		Run(context.Background(), res.Records, RunOptions{OnEvent: events.record})
	require.ErrorIs(t, err, ErrNoRecords)
	require.NotNil(t, result)
	assert.Equal(t, StatusError, result.Status)
	assert.Empty(t, api.findCalls)
	assert.Equal(t, []EventKind{EventStarted, EventError}, events.kinds())
}

func TestImporter_Run_ZoneResolutionFails(t *testing.T) {
	api := NewMockAPI()
	api.createZoneErr = transportError()
	events := &eventLog{}

	res, err := New(api, testConfig(&sleepRecorder{}), logr.Discard()).
		Run(context.Background(), zoneRecords(t, 2), RunOptions{OnEvent: events.record})

	var zoneErr *ZoneResolutionError
	require.ErrorAs(t, err, &zoneErr)
	assert.Equal(t, StatusError, res.Status)
	assert.Zero(t, api.recordCalls)
	assert.Equal(t, []EventKind{EventStarted, EventError}, events.kinds())
}

func TestImporter_Run_Cancelled(t *testing.T) {
	api := NewMockAPI()
	events := &eventLog{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := New(api, testConfig(&sleepRecorder{}), logr.Discard()).
		Run(ctx, zoneRecords(t, 3), RunOptions{ZoneID: "9", OnEvent: events.record})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusError, res.Status)
	assert.Zero(t, api.recordCalls)
	events.assertWellFormed(t)
	assert.Equal(t, EventError, events.events[len(events.events)-1].Kind)
}
