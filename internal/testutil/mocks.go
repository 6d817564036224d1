package testutil

import (
	"fmt"
	"predictor/internal/models"
	"predictor/internal/providers"
	"sync"
	"time"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns how many entries were logged at level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Logs {
		if e.Level == level {
			n++
		}
	}
	return n
}

// MockMetrics implements providers.MetricsProviderInterface and keeps the
// counters the workflow tests care about.
type MockMetrics struct {
	mu               sync.Mutex
	CacheHits        int
	CacheMisses      int
	UpstreamCalls    map[string]int
	GateTransitions  []string
	StaleResponses   map[string]int
	Workspaces       int
	PersistenceCalls int
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}
func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}
func (m *MockMetrics) ObserveUpstreamCall(endpoint string, status int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpstreamCalls == nil {
		m.UpstreamCalls = make(map[string]int)
	}
	m.UpstreamCalls[fmt.Sprintf("%s %d", endpoint, status)]++
}
func (m *MockMetrics) IncGateTransition(from, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GateTransitions = append(m.GateTransitions, from+"->"+to)
}
func (m *MockMetrics) IncStaleResponses(view string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StaleResponses == nil {
		m.StaleResponses = make(map[string]int)
	}
	m.StaleResponses[view]++
}
func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PersistenceCalls++
}
func (m *MockMetrics) SetWorkspacesTotal(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Workspaces = count
}

func (m *MockMetrics) Stale(view string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.StaleResponses[view]
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {}

// Rows builds n cutoff rows with opening ranks 100, 200, ... and closing
// ranks 150, 250, ...
func Rows(n int, category string) []models.CutoffRow {
	rows := make([]models.CutoffRow, n)
	for i := range rows {
		rows[i] = models.CutoffRow{
			Institute:           fmt.Sprintf("Institute %d", i+1),
			AcademicProgramName: "Computer Science and Engineering",
			Category:            category,
			Gender:              "Gender-Neutral",
			Year:                2025,
			Round:               6,
			OpeningRank:         models.Rank((i + 1) * 100),
			ClosingRank:         models.Rank((i+1)*100 + 50),
			QuotaType:           "AI",
		}
	}
	return rows
}

// Page wraps rows in a result page with the given pagination flags.
func Page(rows []models.CutoffRow, current, total, totalRecords int) *models.PredictionResultPage {
	return &models.PredictionResultPage{
		Data:         rows,
		TotalRecords: totalRecords,
		CurrentPage:  current,
		TotalPages:   total,
		HasPrevPage:  current > 1,
		HasNextPage:  current < total,
	}
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
