package app

import (
	"math"
	"trenchwatch/internal/store"
)

// Momentum direction labels.
const (
	MomentumUp     = "up"
	MomentumDown   = "down"
	MomentumStable = "stable"
)

// RangePosition computes where a market cap sits in the observed [low, high]
// range, 0 at the low, 1 at the high. The input is clamped to 0.5*low..2*high
// before normalizing: a brief overshoot past the observed range still reads
// as "pinned at the edge" rather than producing values outside [0,1]. This
// asymmetric allowance is intentional.
//
// Degenerate ranges (high == low, or either bound <= 0) return 0.5.
func RangePosition(mc, low, high float64) float64 {
	if high == low || high <= 0 || low <= 0 {
		return 0.5
	}

	mc = math.Max(math.Min(mc, high*2), low*0.5)

	position := (mc - low) / (high - low)
	return math.Max(0, math.Min(1, position))
}

// RangeDescription renders a range position as a human-readable band label.
// Display only, never a control-flow input.
func RangeDescription(position float64) string {
	switch {
	case position < 0.15:
		return "near bottom 15% 🔴"
	case position < 0.35:
		return "lower 35% 📉"
	case position < 0.65:
		return "middle range ➡️"
	case position < 0.85:
		return "upper 35% 📈"
	default:
		return "near top 15% 🟢"
	}
}

// QualityScore rates signal reliability 0-3: one point each for liquidity
// above $20k, 24h volume above 30% of MC, and MC above $50k. All strict
// comparisons; inputs floored at 0. Thresholds are policy constants tuned
// against illiquid or manipulated tokens.
func QualityScore(liquidity, volume24h, mc float64) int {
	liquidity = math.Max(0, liquidity)
	volume24h = math.Max(0, volume24h)
	mc = math.Max(0, mc)

	score := 0
	if liquidity > 20_000 {
		score++
	}
	if mc > 0 && volume24h > mc*0.3 {
		score++
	}
	if mc > 50_000 {
		score++
	}
	return score
}

// Momentum looks at up to the last 5 observations with a positive market cap
// and classifies the move from first to last. Strength is |pct|/20 capped at
// 1.0, so a 20% move reads as full strength. Fewer than 2 valid points is
// (stable, 0).
func Momentum(history []store.Observation) (string, float64) {
	if len(history) < 2 {
		return MomentumStable, 0.0
	}

	start := len(history) - 5
	if start < 0 {
		start = 0
	}
	var prices []float64
	for _, obs := range history[start:] {
		if obs.MarketCap > 0 {
			prices = append(prices, obs.MarketCap)
		}
	}
	if len(prices) < 2 {
		return MomentumStable, 0.0
	}

	first := prices[0]
	if first <= 0 {
		return MomentumStable, 0.0
	}

	pctChange := (prices[len(prices)-1] - first) / first * 100
	strength := math.Min(math.Abs(pctChange)/20, 1.0)

	switch {
	case pctChange > 5:
		return MomentumUp, strength
	case pctChange < -5:
		return MomentumDown, strength
	default:
		return MomentumStable, strength
	}
}

// AverageVolume returns the mean 24h volume over up to the last n
// observations preceding the most recent one. The current sample is already
// appended when rules run, so it is excluded from its own baseline.
func AverageVolume(history []store.Observation, n int) float64 {
	if len(history) < 2 {
		return 0
	}
	prior := history[:len(history)-1]
	start := len(prior) - n
	if start < 0 {
		start = 0
	}
	window := prior[start:]

	var sum float64
	for _, obs := range window {
		sum += obs.Volume24h
	}
	return sum / float64(len(window))
}
