// Package storage persists scan results and aggregate statistics between
// scanner runs.
package storage

import (
	"time"

	"github.com/eddiefleurent/pmcc_scout/internal/scan"
)

// ScanRecord is one persisted scan result.
type ScanRecord struct {
	ID        string           `json:"id"`
	Result    *scan.ScanResult `json:"result"`
	CreatedAt time.Time        `json:"created_at"`
}

// Statistics aggregates scan activity across the stored history.
type Statistics struct {
	TotalScans         int       `json:"total_scans"`
	FeasibleScans      int       `json:"feasible_scans"`
	TotalOpportunities int       `json:"total_opportunities"`
	SymbolsSeen        int       `json:"symbols_seen"`
	LastScanAt         time.Time `json:"last_scan_at"`
}

// Interface defines the contract for scan result persistence.
//
// Implementations must be safe for concurrent use; the scanner writes results
// while the dashboard reads them.
type Interface interface {
	// SaveScan appends one scan result and persists. Returns the record ID.
	SaveScan(result *scan.ScanResult) (string, error)

	// LatestScan returns the most recent record for a symbol, or ErrNoScans.
	LatestScan(symbol string) (*ScanRecord, error)
	// ScanHistory returns up to limit records for a symbol, newest first.
	// limit <= 0 means no limit.
	ScanHistory(symbol string, limit int) []ScanRecord
	// LatestBySymbol returns the newest record per scanned symbol.
	LatestBySymbol() []ScanRecord

	GetStatistics() *Statistics

	// Data persistence
	Save() error
	Load() error
}

// NewStorage creates the default storage implementation (currently JSON-based).
func NewStorage(filepath string) (Interface, error) {
	return NewJSONStorage(filepath)
}

// Ensure JSONStorage implements Interface
var _ Interface = (*JSONStorage)(nil)
