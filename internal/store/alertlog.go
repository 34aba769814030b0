package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// maxAlertRecordsPerUser caps the per-user history to keep the log file from
// growing without bound.
const maxAlertRecordsPerUser = 1000

// AlertRecord is one dispatched alert, logged for the user's history view.
type AlertRecord struct {
	Timestamp       time.Time `json:"timestamp"`
	Kind            string    `json:"type"`
	ContractAddress string    `json:"ca"`
	Symbol          string    `json:"symbol,omitempty"`
	ListName        string    `json:"list,omitempty"`
	MarketCap       float64   `json:"mc,omitempty"`
}

// AlertLogStats summarizes a user's alert history.
type AlertLogStats struct {
	TotalAlerts     int            `json:"total_alerts"`
	AlertsByKind    map[string]int `json:"alerts_by_type"`
	MostAlertedCoin string         `json:"most_alerted_coin,omitempty"`
}

// AlertLog records fired alerts per user and persists them beside the
// dataset. Safe for concurrent use.
type AlertLog struct {
	logger *zap.Logger
	store  *FileStore

	mu      sync.Mutex
	records map[string][]AlertRecord // user ID -> records, oldest first
}

// NewAlertLog creates an alert log persisted at the given path.
func NewAlertLog(logger *zap.Logger, path string) *AlertLog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertLog{
		logger:  logger,
		store:   NewFileStore(logger, path),
		records: make(map[string][]AlertRecord),
	}
}

// Load reads previously persisted records. A missing file starts fresh.
func (al *AlertLog) Load() error {
	raw, err := os.ReadFile(al.store.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read alert log: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}

	var records map[string][]AlertRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return fmt.Errorf("parse alert log: %w", err)
	}

	al.mu.Lock()
	al.records = records
	al.mu.Unlock()
	return nil
}

// Save persists all records atomically.
func (al *AlertLog) Save() error {
	al.mu.Lock()
	raw, err := json.MarshalIndent(al.records, "", "  ")
	al.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal alert log: %w", err)
	}
	return al.store.writeAtomic(raw)
}

// Append logs a fired alert for a user, evicting the oldest entries past the
// per-user cap.
func (al *AlertLog) Append(userID string, rec AlertRecord) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	al.mu.Lock()
	defer al.mu.Unlock()

	records := append(al.records[userID], rec)
	if len(records) > maxAlertRecordsPerUser {
		records = records[len(records)-maxAlertRecordsPerUser:]
	}
	al.records[userID] = records
}

// UserHistory returns a user's alerts, most recent first. A limit of 0
// returns everything.
func (al *AlertLog) UserHistory(userID string, limit int) []AlertRecord {
	al.mu.Lock()
	records := al.records[userID]
	out := make([]AlertRecord, len(records))
	copy(out, records)
	al.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Stats aggregates a user's alert history.
func (al *AlertLog) Stats(userID string) AlertLogStats {
	al.mu.Lock()
	records := al.records[userID]
	stats := AlertLogStats{AlertsByKind: make(map[string]int)}
	coinCounts := make(map[string]int)
	for _, rec := range records {
		stats.TotalAlerts++
		stats.AlertsByKind[rec.Kind]++
		coinCounts[rec.ContractAddress]++
	}
	al.mu.Unlock()

	best := 0
	for ca, n := range coinCounts {
		if n > best || (n == best && ca < stats.MostAlertedCoin) {
			best = n
			stats.MostAlertedCoin = ca
		}
	}
	return stats
}

// Clear drops a user's history. Returns true if anything was removed.
func (al *AlertLog) Clear(userID string) bool {
	al.mu.Lock()
	defer al.mu.Unlock()
	if _, ok := al.records[userID]; !ok {
		return false
	}
	delete(al.records, userID)
	return true
}
