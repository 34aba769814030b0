package app

import (
	"sync"
	"time"
)

// PassStats tracks monitor counters for the stats endpoint. Safe for
// concurrent use: the monitor writes, the HTTP server reads.
type PassStats struct {
	mu sync.Mutex

	startedAt    time.Time
	passes       int64
	lastPassAt   time.Time
	lastPassTook time.Duration
	alertsFired  int64
	alertsByKind map[string]int64
	suppressed   int64
}

func NewPassStats() *PassStats {
	return &PassStats{
		startedAt:    time.Now(),
		alertsByKind: make(map[string]int64),
	}
}

func (s *PassStats) PassCompleted(took time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passes++
	s.lastPassAt = time.Now()
	s.lastPassTook = took
}

func (s *PassStats) AlertFired(kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alertsFired++
	s.alertsByKind[kind]++
}

func (s *PassStats) AlertSuppressed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suppressed++
}

// StatsSnapshot is the JSON shape served by the stats endpoint.
type StatsSnapshot struct {
	UptimeSeconds    float64          `json:"uptime_seconds"`
	Passes           int64            `json:"passes"`
	LastPassAt       time.Time        `json:"last_pass_at,omitempty"`
	LastPassSeconds  float64          `json:"last_pass_seconds"`
	AlertsFired      int64            `json:"alerts_fired"`
	AlertsByKind     map[string]int64 `json:"alerts_by_kind"`
	AlertsSuppressed int64            `json:"alerts_suppressed"`
}

func (s *PassStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	byKind := make(map[string]int64, len(s.alertsByKind))
	for k, v := range s.alertsByKind {
		byKind[k] = v
	}

	return StatsSnapshot{
		UptimeSeconds:    time.Since(s.startedAt).Seconds(),
		Passes:           s.passes,
		LastPassAt:       s.lastPassAt,
		LastPassSeconds:  s.lastPassTook.Seconds(),
		AlertsFired:      s.alertsFired,
		AlertsByKind:     byKind,
		AlertsSuppressed: s.suppressed,
	}
}
