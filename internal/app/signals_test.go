package app

import (
	"math"
	"testing"
	"time"
	"trenchwatch/internal/store"
)

func TestRangePosition(t *testing.T) {
	tests := []struct {
		name     string
		mc       float64
		low      float64
		high     float64
		expected float64
	}{
		{"at low", 50_000, 50_000, 200_000, 0},
		{"at high", 200_000, 50_000, 200_000, 1},
		{"upper range", 150_000, 50_000, 200_000, 0.6667},
		{"degenerate equal bounds", 100_000, 75_000, 75_000, 0.5},
		{"zero high", 100_000, 0, 0, 0.5},
		{"negative low", 100_000, -5, 200_000, 0.5},
		{"overshoot above clamps to 1", 500_000, 50_000, 200_000, 1},
		{"overshoot below clamps to 0", 10_000, 50_000, 200_000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RangePosition(tt.mc, tt.low, tt.high)
			if math.Abs(got-tt.expected) > 0.001 {
				t.Errorf("RangePosition(%v, %v, %v) = %v, want %v", tt.mc, tt.low, tt.high, got, tt.expected)
			}
		})
	}
}

func TestRangePosition_Idempotent(t *testing.T) {
	first := RangePosition(150_000, 50_000, 200_000)
	second := RangePosition(150_000, 50_000, 200_000)
	if first != second {
		t.Errorf("same inputs produced %v then %v", first, second)
	}
}

func TestRangeDescription_UpperBand(t *testing.T) {
	// 150k in a 50k..200k range sits at ~0.667
	pos := RangePosition(150_000, 50_000, 200_000)
	desc := RangeDescription(pos)
	if desc != "upper 35% 📈" {
		t.Errorf("expected upper band description, got %q", desc)
	}
}

func TestQualityScore(t *testing.T) {
	tests := []struct {
		name      string
		liquidity float64
		volume    float64
		mc        float64
		expected  int
	}{
		{"all strong", 100_000, 200_000, 500_000, 3},
		{"exactly at thresholds scores zero", 20_000, 0, 50_000, 0},
		{"just above thresholds", 20_001, 15_001, 50_001, 3},
		{"low everything", 5_000, 1_000, 10_000, 0},
		{"liquidity only", 25_000, 0, 10_000, 1},
		{"volume ratio only", 0, 40_000, 100_000, 2}, // volume point + mc point
		{"negative inputs floored", -5, -5, -5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QualityScore(tt.liquidity, tt.volume, tt.mc)
			if got != tt.expected {
				t.Errorf("QualityScore(%v, %v, %v) = %d, want %d", tt.liquidity, tt.volume, tt.mc, got, tt.expected)
			}
		})
	}
}

func obsSeries(mcs ...float64) []store.Observation {
	base := time.Now()
	out := make([]store.Observation, len(mcs))
	for i, mc := range mcs {
		out[i] = store.Observation{MarketCap: mc, Timestamp: base.Add(time.Duration(i) * time.Second)}
	}
	return out
}

func TestMomentum(t *testing.T) {
	tests := []struct {
		name        string
		history     []store.Observation
		expectedDir string
		expectedStr float64
	}{
		{"empty history", nil, MomentumStable, 0},
		{"single point", obsSeries(100), MomentumStable, 0},
		{"strong up", obsSeries(100, 110, 125), MomentumUp, 1.0}, // +25% capped at 1.0 via /20
		{"mild up within band", obsSeries(100, 103), MomentumStable, 0.15},
		{"down", obsSeries(100, 95, 90), MomentumDown, 0.5},
		{"zero caps ignored", obsSeries(0, 0, 100), MomentumStable, 0},
		{"only last five considered", obsSeries(10, 100, 100, 100, 100, 100), MomentumStable, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, strength := Momentum(tt.history)
			if dir != tt.expectedDir {
				t.Errorf("direction = %q, want %q", dir, tt.expectedDir)
			}
			if math.Abs(strength-tt.expectedStr) > 0.001 {
				t.Errorf("strength = %v, want %v", strength, tt.expectedStr)
			}
		})
	}
}

func TestAverageVolume(t *testing.T) {
	base := time.Now()
	mk := func(vols ...float64) []store.Observation {
		out := make([]store.Observation, len(vols))
		for i, v := range vols {
			out[i] = store.Observation{Volume24h: v, MarketCap: 100, Timestamp: base.Add(time.Duration(i) * time.Second)}
		}
		return out
	}

	tests := []struct {
		name     string
		history  []store.Observation
		expected float64
	}{
		{"too short", mk(100), 0},
		{"excludes current sample", mk(100, 200, 900), 150},
		{"window capped at five", mk(1, 1, 10, 10, 10, 10, 10, 999), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AverageVolume(tt.history, avgVolumeWindow)
			if math.Abs(got-tt.expected) > 0.001 {
				t.Errorf("AverageVolume = %v, want %v", got, tt.expected)
			}
		})
	}
}
