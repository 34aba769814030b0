package app

import (
	"time"
	"trenchwatch/config"
	"trenchwatch/internal/store"
)

// PatternKindBounce is the kind string for the dump/stabilize/bounce pattern.
const PatternKindBounce = "dump_stabilize_bounce"

// PatternDetector recognizes the dump -> stabilize -> bounce shape: a coin
// well off its ATH that has flattened out and is starting to recover with
// volume behind it.
type PatternDetector struct {
	window       time.Duration
	dumpPct      float64
	stabilizePct float64
	bouncePct    float64
}

func NewPatternDetector(cfg config.IntelConfig) *PatternDetector {
	return &PatternDetector{
		window:       cfg.PatternWindow,
		dumpPct:      cfg.DumpPct,
		stabilizePct: cfg.StabilizePct,
		bouncePct:    cfg.BouncePct,
	}
}

// Detect runs the gates in order, short-circuiting on the first failure:
// enough recent history, dumped hard from ATH, price flat in a tight band,
// volume not fading, and current price bounced off the local low.
func (d *PatternDetector) Detect(coin *store.TrackedCoin, mc, volume24h float64, now time.Time) (bool, string) {
	if len(coin.History) < 3 || coin.ATHMarketCap <= 0 || mc <= 0 {
		return false, ""
	}

	recent := RecentWindow(coin.History, now, d.window)
	if len(recent) < 3 {
		return false, ""
	}

	// Dump: far enough below ATH
	dumpPercent := (coin.ATHMarketCap - mc) / coin.ATHMarketCap * 100
	if dumpPercent < d.dumpPct {
		return false, ""
	}

	// Stabilize: recent prices in a tight band
	var prices []float64
	for _, obs := range recent {
		if obs.MarketCap > 0 {
			prices = append(prices, obs.MarketCap)
		}
	}
	if len(prices) == 0 {
		return false, ""
	}

	minPrice, maxPrice := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < minPrice {
			minPrice = p
		}
		if p > maxPrice {
			maxPrice = p
		}
	}
	if minPrice <= 0 {
		return false, ""
	}
	priceRange := (maxPrice - minPrice) / minPrice * 100
	if priceRange > d.stabilizePct {
		return false, ""
	}

	// Volume not fading: most recent sample vs the third most recent
	if len(recent) >= 3 {
		recentVol := recent[len(recent)-1].Volume24h
		olderVol := recent[len(recent)-3].Volume24h
		if olderVol > 0 && recentVol < olderVol {
			return false, ""
		}
	}

	// Bounce: recovered off the local low
	recentLow := minPrice
	if recentLow > 0 && mc > recentLow*(1+d.bouncePct/100) {
		return true, PatternKindBounce
	}

	return false, ""
}
