package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/eddiefleurent/pmcc_scout/internal/scan"
)

// MockStorage is an in-memory Interface implementation for tests.
type MockStorage struct {
	mu      sync.RWMutex
	records []ScanRecord
	nextID  int

	// SaveErr, when set, is returned by SaveScan to exercise error paths.
	SaveErr error
}

// Ensure MockStorage implements Interface
var _ Interface = (*MockStorage)(nil)

// NewMockStorage creates an empty in-memory store.
func NewMockStorage() *MockStorage {
	return &MockStorage{}
}

// SaveScan appends the result with a sequential ID.
func (m *MockStorage) SaveScan(result *scan.ScanResult) (string, error) {
	if m.SaveErr != nil {
		return "", m.SaveErr
	}
	if result == nil {
		return "", fmt.Errorf("nil scan result")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	record := ScanRecord{
		ID:        fmt.Sprintf("mock-%d", m.nextID),
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}
	m.records = append(m.records, record)
	return record.ID, nil
}

// LatestScan returns the newest record for symbol.
func (m *MockStorage) LatestScan(symbol string) (*ScanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].Result.Symbol == symbol {
			record := m.records[i]
			return &record, nil
		}
	}
	return nil, ErrNoScans
}

// ScanHistory returns up to limit records for symbol, newest first.
func (m *MockStorage) ScanHistory(symbol string, limit int) []ScanRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var history []ScanRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].Result.Symbol != symbol {
			continue
		}
		history = append(history, m.records[i])
		if limit > 0 && len(history) == limit {
			break
		}
	}
	return history
}

// LatestBySymbol returns the newest record per symbol, ordered by symbol.
func (m *MockStorage) LatestBySymbol() []ScanRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	latest := make(map[string]ScanRecord)
	for _, record := range m.records {
		latest[record.Result.Symbol] = record
	}

	symbols := make([]string, 0, len(latest))
	for symbol := range latest {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	records := make([]ScanRecord, 0, len(symbols))
	for _, symbol := range symbols {
		records = append(records, latest[symbol])
	}
	return records
}

// GetStatistics recomputes aggregates over the in-memory records.
func (m *MockStorage) GetStatistics() *Statistics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Statistics{}
	symbols := make(map[string]struct{})
	for _, record := range m.records {
		stats.TotalScans++
		stats.TotalOpportunities += len(record.Result.Opportunities)
		if record.Result.Feasibility != nil && record.Result.Feasibility.IsPMCCFeasible {
			stats.FeasibleScans++
		}
		symbols[record.Result.Symbol] = struct{}{}
		if record.CreatedAt.After(stats.LastScanAt) {
			stats.LastScanAt = record.CreatedAt
		}
	}
	stats.SymbolsSeen = len(symbols)
	return stats
}

// Save is a no-op for the in-memory store.
func (m *MockStorage) Save() error { return nil }

// Load is a no-op for the in-memory store.
func (m *MockStorage) Load() error { return nil }
