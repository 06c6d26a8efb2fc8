package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/common"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/interfaces"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/models"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/storage/badger"
)

func testLogger() arbor.ILogger {
	return arbor.NewLogger()
}

// fakeReportStore is an in-memory ReportStore with the same upsert and
// conditional-update semantics as the SQLite implementation.
type fakeReportStore struct {
	mu          sync.Mutex
	nextID      int64
	records     map[string]*models.ReportRecord // key: symbol|date
	upsertCalls int
	updateCalls int
	scanCalls   int
	scannedDate string
	failUpserts bool
	zeroRows    bool
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{records: map[string]*models.ReportRecord{}}
}

func storeKey(symbol, date string) string { return symbol + "|" + date }

func (f *fakeReportStore) UpsertReport(ctx context.Context, rec *models.ReportRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertCalls++

	if f.failUpserts {
		return 0, fmt.Errorf("store unavailable")
	}
	if f.zeroRows {
		return 0, nil
	}

	key := storeKey(rec.Symbol, rec.ReportDate)
	if existing, ok := f.records[key]; ok {
		rec.ID = existing.ID
		// pdf fields survive content updates
		if rec.PDFKey == "" {
			rec.PDFKey = existing.PDFKey
			rec.PDFGeneratedAt = existing.PDFGeneratedAt
		}
	} else {
		f.nextID++
		rec.ID = f.nextID
	}
	clone := *rec
	f.records[key] = &clone
	return 1, nil
}

func (f *fakeReportStore) GetReport(ctx context.Context, id int64) (*models.ReportRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records {
		if rec.ID == id {
			clone := *rec
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("report %d not found", id)
}

func (f *fakeReportStore) GetReportBySymbolDate(ctx context.Context, symbol, reportDate string) (*models.ReportRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.records[storeKey(symbol, reportDate)]; ok {
		clone := *rec
		return &clone, nil
	}
	return nil, fmt.Errorf("report %s/%s not found", symbol, reportDate)
}

func (f *fakeReportStore) GetReportsNeedingPDF(ctx context.Context, reportDate string) ([]models.ReportRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scanCalls++
	f.scannedDate = reportDate

	var refs []models.ReportRef
	for _, rec := range f.records {
		if rec.ReportDate == reportDate && rec.Status == models.ReportStatusCompleted && rec.PDFKey == "" {
			refs = append(refs, models.ReportRef{ID: rec.ID, Symbol: rec.Symbol, ReportDate: rec.ReportDate})
		}
	}
	return refs, nil
}

func (f *fakeReportStore) UpdatePDFMetadata(ctx context.Context, id int64, pdfKey string, generatedAt time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++

	for _, rec := range f.records {
		if rec.ID == id {
			if rec.PDFKey != "" {
				return 0, nil // already delivered
			}
			rec.PDFKey = pdfKey
			ts := generatedAt
			rec.PDFGeneratedAt = &ts
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeReportStore) VerifySchemaContract(ctx context.Context) error { return nil }
func (f *fakeReportStore) Close() error                                   { return nil }

func (f *fakeReportStore) get(symbol, date string) *models.ReportRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[storeKey(symbol, date)]
}

func (f *fakeReportStore) seed(rec models.ReportRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	rec.ID = f.nextID
	f.records[storeKey(rec.Symbol, rec.ReportDate)] = &rec
}

// fakeCache serves series from a map keyed by symbol and report date, the
// same scoping the Badger cache uses.
type fakeCache struct {
	mu     sync.Mutex
	series map[string]*interfaces.OHLCVSeries
}

// marketToday is the business date the worker derives for its fixtures.
func marketToday() string {
	loc, err := time.LoadLocation("Australia/Sydney")
	if err != nil {
		panic(err)
	}
	return common.ReportDateIn(time.Now().UTC(), loc)
}

func newFakeCache(symbols ...string) *fakeCache {
	c := &fakeCache{series: map[string]*interfaces.OHLCVSeries{}}
	for _, s := range symbols {
		c.seed(s, marketToday(), time.Now().UTC())
	}
	return c
}

// seed installs a series fetched for the given report date.
func (c *fakeCache) seed(symbol, reportDate string, fetchedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.series[symbol+"|"+reportDate] = &interfaces.OHLCVSeries{
		Symbol:     symbol,
		ReportDate: reportDate,
		Bars: []interfaces.OHLCVBar{
			{Date: fetchedAt.AddDate(0, 0, -1), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 1000},
		},
		FetchedAt: fetchedAt,
	}
}

func (c *fakeCache) SaveSeries(ctx context.Context, series *interfaces.OHLCVSeries) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.series[series.Symbol+"|"+series.ReportDate] = series
	return nil
}

func (c *fakeCache) GetSeries(ctx context.Context, symbol, reportDate string) (*interfaces.OHLCVSeries, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.series[symbol+"|"+reportDate]; ok {
		return s, nil
	}
	return nil, badger.ErrNotCached
}

func (c *fakeCache) Close() error { return nil }

// fakeGenerator fails for configured symbols, optionally transiently for the
// first N calls per symbol.
type fakeGenerator struct {
	mu             sync.Mutex
	permanentFails map[string]bool
	transientFails map[string]int
	calls          map[string]int
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{
		permanentFails: map[string]bool{},
		transientFails: map[string]int{},
		calls:          map[string]int{},
	}
}

func (g *fakeGenerator) Generate(ctx context.Context, series *interfaces.OHLCVSeries) (*interfaces.GeneratedReport, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[series.Symbol]++

	if g.permanentFails[series.Symbol] {
		return nil, fmt.Errorf("model refused the prompt")
	}
	if remaining := g.transientFails[series.Symbol]; remaining > 0 {
		g.transientFails[series.Symbol] = remaining - 1
		return nil, Transient(fmt.Errorf("upstream throttled"))
	}

	return &interfaces.GeneratedReport{
		Markdown:       "# Daily Report: " + series.Symbol + "\n\nSteady.",
		Structured:     `{"symbol":"` + series.Symbol + `"}`,
		ChartPNG:       []byte{0x89, 'P', 'N', 'G'},
		GenerationTime: 5 * time.Millisecond,
	}, nil
}

// fakePDF renders a marker document.
type fakePDF struct {
	mu      sync.Mutex
	renders int
	fail    bool
}

func (p *fakePDF) RenderReport(markdown string, chartPNG []byte, title string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.renders++
	if p.fail {
		return nil, fmt.Errorf("render failed")
	}
	return []byte("%PDF-1.4 " + title), nil
}

// fakeObjects is an in-memory write-if-absent object store.
type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
	writes  int
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}}
}

func (o *fakeObjects) Put(ctx context.Context, key string, data []byte) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.puts++
	if _, ok := o.objects[key]; ok {
		return false, nil
	}
	o.objects[key] = data
	o.writes++
	return true, nil
}

func (o *fakeObjects) Get(ctx context.Context, key string) ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if data, ok := o.objects[key]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("object %s not found", key)
}

func (o *fakeObjects) Exists(ctx context.Context, key string) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.objects[key]
	return ok, nil
}

// fakeEvents records published events and delivers synchronously to
// subscribers.
type fakeEvents struct {
	mu        sync.Mutex
	handlers  map[interfaces.EventType][]interfaces.EventHandler
	published []interfaces.Event
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{handlers: map[interfaces.EventType][]interfaces.EventHandler{}}
}

func (e *fakeEvents) Subscribe(eventType interfaces.EventType, handler interfaces.EventHandler) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[eventType] = append(e.handlers[eventType], handler)
	return nil
}

func (e *fakeEvents) Publish(ctx context.Context, event interfaces.Event) error {
	return e.PublishSync(ctx, event)
}

func (e *fakeEvents) PublishSync(ctx context.Context, event interfaces.Event) error {
	e.mu.Lock()
	e.published = append(e.published, event)
	handlers := append([]interfaces.EventHandler(nil), e.handlers[event.Type]...)
	e.mu.Unlock()

	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (e *fakeEvents) Close() error { return nil }

func (e *fakeEvents) eventsOfType(t interfaces.EventType) []interfaces.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []interfaces.Event
	for _, ev := range e.published {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
