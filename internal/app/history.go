package app

import (
	"time"
	"trenchwatch/internal/store"
)

// HistoryTracker appends market-data observations to a coin's rolling history
// and maintains its range extrema.
type HistoryTracker struct {
	retention time.Duration
}

func NewHistoryTracker(retention time.Duration) *HistoryTracker {
	return &HistoryTracker{retention: retention}
}

// Update records an observation for the coin: extrema first, then append,
// then prune anything older than the retention window. After Update,
// low <= obs.MarketCap <= ath always holds.
func (h *HistoryTracker) Update(coin *store.TrackedCoin, obs store.Observation) {
	mc := obs.MarketCap

	if coin.ATHMarketCap == 0 && coin.LowMarketCap == 0 && len(coin.History) == 0 {
		coin.ATHMarketCap = mc
		coin.LowMarketCap = mc
	}
	if mc > coin.ATHMarketCap {
		coin.ATHMarketCap = mc
	}
	if mc < coin.LowMarketCap {
		coin.LowMarketCap = mc
	}

	coin.History = append(coin.History, obs)

	cutoff := obs.Timestamp.Add(-h.retention)
	first := 0
	for first < len(coin.History) && !coin.History[first].Timestamp.After(cutoff) {
		first++
	}
	if first > 0 {
		coin.History = append(coin.History[:0], coin.History[first:]...)
	}
}

// RecentWindow returns the observations within the given window of now,
// preserving order.
func RecentWindow(history []store.Observation, now time.Time, window time.Duration) []store.Observation {
	cutoff := now.Add(-window)
	first := len(history)
	for i, obs := range history {
		if obs.Timestamp.After(cutoff) {
			first = i
			break
		}
	}
	return history[first:]
}
