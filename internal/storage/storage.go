package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eddiefleurent/pmcc_scout/internal/scan"
)

// maxHistoryRecords bounds the on-disk history; the oldest records are
// dropped first.
const maxHistoryRecords = 500

// JSONStorage persists scan records to a single JSON file. Writes go through
// a temp file and an atomic rename so a crash mid-save never corrupts the
// history.
type JSONStorage struct {
	mu       sync.RWMutex
	filepath string
	data     *storageData
}

type storageData struct {
	Records     []ScanRecord `json:"records"`
	Statistics  *Statistics  `json:"statistics"`
	LastUpdated time.Time    `json:"last_updated"`
}

// NewJSONStorage opens (or creates) the storage file at filepath.
func NewJSONStorage(filepath string) (*JSONStorage, error) {
	s := &JSONStorage{
		filepath: filepath,
		data: &storageData{
			Statistics: &Statistics{},
		},
	}

	if _, err := os.Stat(filepath); err == nil {
		if err := s.Load(); err != nil {
			return nil, fmt.Errorf("loading storage: %w", err)
		}
	}

	return s, nil
}

// Load reads the storage file into memory, replacing current state.
func (s *JSONStorage) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.filepath)
	if err != nil {
		return err
	}

	loaded := &storageData{}
	if err := json.Unmarshal(raw, loaded); err != nil {
		return err
	}
	if loaded.Statistics == nil {
		loaded.Statistics = &Statistics{}
	}
	s.data = loaded
	return nil
}

// Save writes the current state to disk.
func (s *JSONStorage) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *JSONStorage) saveLocked() error {
	s.data.LastUpdated = time.Now().UTC()

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	tmpFile := s.filepath + ".tmp"
	if err := os.WriteFile(tmpFile, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpFile, s.filepath)
}

// SaveScan appends one scan result, refreshes statistics, and persists.
func (s *JSONStorage) SaveScan(result *scan.ScanResult) (string, error) {
	if result == nil {
		return "", fmt.Errorf("nil scan result")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record := ScanRecord{
		ID:        uuid.NewString(),
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}
	s.data.Records = append(s.data.Records, record)
	if len(s.data.Records) > maxHistoryRecords {
		s.data.Records = s.data.Records[len(s.data.Records)-maxHistoryRecords:]
	}

	s.recomputeStatisticsLocked()

	if err := s.saveLocked(); err != nil {
		return "", err
	}
	return record.ID, nil
}

// LatestScan returns the newest record for symbol.
func (s *JSONStorage) LatestScan(symbol string) (*ScanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.data.Records) - 1; i >= 0; i-- {
		if s.data.Records[i].Result != nil && s.data.Records[i].Result.Symbol == symbol {
			record := s.data.Records[i]
			return &record, nil
		}
	}
	return nil, ErrNoScans
}

// ScanHistory returns up to limit records for symbol, newest first.
func (s *JSONStorage) ScanHistory(symbol string, limit int) []ScanRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var history []ScanRecord
	for i := len(s.data.Records) - 1; i >= 0; i-- {
		if s.data.Records[i].Result == nil || s.data.Records[i].Result.Symbol != symbol {
			continue
		}
		history = append(history, s.data.Records[i])
		if limit > 0 && len(history) == limit {
			break
		}
	}
	return history
}

// LatestBySymbol returns the newest record for every scanned symbol, ordered
// by symbol for stable output.
func (s *JSONStorage) LatestBySymbol() []ScanRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[string]ScanRecord)
	for _, record := range s.data.Records {
		if record.Result == nil {
			continue
		}
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

// GetStatistics returns a copy of the aggregate scan statistics.
func (s *JSONStorage) GetStatistics() *Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := *s.data.Statistics
	return &stats
}

func (s *JSONStorage) recomputeStatisticsLocked() {
	stats := &Statistics{}
	symbols := make(map[string]struct{})

	for _, record := range s.data.Records {
		if record.Result == nil {
			continue
		}
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
	s.data.Statistics = stats
}
