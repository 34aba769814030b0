package app

import (
	"math"
	"time"
	"trenchwatch/clients/notifier"
	"trenchwatch/config"
	"trenchwatch/internal/store"
)

// avgVolumeWindow is how many prior observations feed the rolling volume
// average used by the spike rules.
const avgVolumeWindow = 5

// AlertRuleEngine evaluates every alert rule for a coin against its newest
// observation. Rules are pure predicates gated by the coin's one-shot
// triggered latches; the engine collects every rule that fires rather than
// stopping at the first.
type AlertRuleEngine struct {
	cfg        config.IntelConfig
	detector   *PatternDetector
	suppressor *QualitySuppressor
}

func NewAlertRuleEngine(cfg config.IntelConfig, quality config.QualityConfig) *AlertRuleEngine {
	return &AlertRuleEngine{
		cfg:        cfg,
		detector:   NewPatternDetector(cfg),
		suppressor: NewQualitySuppressor(quality),
	}
}

// Suppressed reports whether the quality veto withholds all rules for this
// coin this pass.
func (e *AlertRuleEngine) Suppressed(obs store.Observation, mode store.Mode) bool {
	return e.suppressor.ShouldSuppress(obs, mode)
}

// Evaluate runs all simple rules in priority order: bounce pattern, volume
// spike, liquidity drop, mc target, pct move, x multiple, reclaim. The
// quality veto must be checked by the caller first (Suppressed); Evaluate
// assumes it passed. Every firing rule is returned; the caller dispatches
// them all and sets the latches.
func (e *AlertRuleEngine) Evaluate(coin *store.TrackedCoin, obs store.Observation, now time.Time) []notifier.CoinAlert {
	var fired []notifier.CoinAlert

	if alert, ok := e.evalBounce(coin, obs, now); ok {
		fired = append(fired, alert)
	}
	if alert, ok := e.evalVolumeSpike(coin, obs); ok {
		fired = append(fired, alert)
	}
	if alert, ok := e.evalLiquidityDrop(coin, obs); ok {
		fired = append(fired, alert)
	}
	if alert, ok := e.evalMCTarget(coin, obs); ok {
		fired = append(fired, alert)
	}
	if alert, ok := e.evalPctMove(coin, obs); ok {
		fired = append(fired, alert)
	}
	if alert, ok := e.evalMultiple(coin, obs); ok {
		fired = append(fired, alert)
	}
	if alert, ok := e.evalReclaim(coin, obs); ok {
		fired = append(fired, alert)
	}

	return fired
}

func (e *AlertRuleEngine) evalBounce(coin *store.TrackedCoin, obs store.Observation, now time.Time) (notifier.CoinAlert, bool) {
	if coin.IsTriggered(string(notifier.AlertKindBounce)) {
		return notifier.CoinAlert{}, false
	}
	detected, _ := e.detector.Detect(coin, obs.MarketCap, obs.Volume24h, now)
	if !detected {
		return notifier.CoinAlert{}, false
	}
	alert := e.baseAlert(notifier.AlertKindBounce, coin, obs)
	return alert, true
}

func (e *AlertRuleEngine) evalVolumeSpike(coin *store.TrackedCoin, obs store.Observation) (notifier.CoinAlert, bool) {
	if coin.IsTriggered(string(notifier.AlertKindVolumeSpike)) || len(coin.History) < 3 {
		return notifier.CoinAlert{}, false
	}
	avg := AverageVolume(coin.History, avgVolumeWindow)
	if avg <= 0 || obs.Volume24h <= avg*e.cfg.VolumeSpikeMultiplier {
		return notifier.CoinAlert{}, false
	}
	alert := e.baseAlert(notifier.AlertKindVolumeSpike, coin, obs)
	alert.AvgVolume = avg
	alert.Threshold = e.cfg.VolumeSpikeMultiplier
	return alert, true
}

func (e *AlertRuleEngine) evalLiquidityDrop(coin *store.TrackedCoin, obs store.Observation) (notifier.CoinAlert, bool) {
	if coin.IsTriggered(string(notifier.AlertKindLiquidityDrop)) || len(coin.History) < 2 {
		return notifier.CoinAlert{}, false
	}
	prev := coin.History[len(coin.History)-2].Liquidity
	if prev <= 0 {
		return notifier.CoinAlert{}, false
	}
	dropPct := (obs.Liquidity - prev) / prev * 100
	if dropPct >= e.cfg.LiquidityDropPct {
		return notifier.CoinAlert{}, false
	}
	alert := e.baseAlert(notifier.AlertKindLiquidityDrop, coin, obs)
	alert.LiquidityDropPct = dropPct
	alert.Threshold = e.cfg.LiquidityDropPct
	return alert, true
}

func (e *AlertRuleEngine) evalMCTarget(coin *store.TrackedCoin, obs store.Observation) (notifier.CoinAlert, bool) {
	target := coin.Alerts.MarketCapTarget
	if target == nil || coin.IsTriggered(string(notifier.AlertKindMCTarget)) {
		return notifier.CoinAlert{}, false
	}
	// Drop-to-target semantics: fires when MC falls to the level.
	if obs.MarketCap > *target {
		return notifier.CoinAlert{}, false
	}
	alert := e.baseAlert(notifier.AlertKindMCTarget, coin, obs)
	alert.Threshold = *target
	return alert, true
}

func (e *AlertRuleEngine) evalPctMove(coin *store.TrackedCoin, obs store.Observation) (notifier.CoinAlert, bool) {
	target := coin.Alerts.PercentMove
	if target == nil || coin.IsTriggered(string(notifier.AlertKindPctMove)) || coin.StartMarketCap <= 0 {
		return notifier.CoinAlert{}, false
	}
	pctChange := (obs.MarketCap - coin.StartMarketCap) / coin.StartMarketCap * 100
	if math.Abs(pctChange) < *target {
		return notifier.CoinAlert{}, false
	}
	alert := e.baseAlert(notifier.AlertKindPctMove, coin, obs)
	alert.Threshold = *target
	return alert, true
}

func (e *AlertRuleEngine) evalMultiple(coin *store.TrackedCoin, obs store.Observation) (notifier.CoinAlert, bool) {
	target := coin.Alerts.Multiple
	if target == nil || coin.IsTriggered(string(notifier.AlertKindMultiple)) || coin.StartMarketCap <= 0 {
		return notifier.CoinAlert{}, false
	}
	multiple := obs.MarketCap / coin.StartMarketCap
	if multiple < *target {
		return notifier.CoinAlert{}, false
	}
	alert := e.baseAlert(notifier.AlertKindMultiple, coin, obs)
	alert.Threshold = *target
	return alert, true
}

func (e *AlertRuleEngine) evalReclaim(coin *store.TrackedCoin, obs store.Observation) (notifier.CoinAlert, bool) {
	if !coin.Alerts.Reclaim || coin.IsTriggered(string(notifier.AlertKindReclaim)) {
		return notifier.CoinAlert{}, false
	}
	reclaimLevel := coin.ATHMarketCap * e.cfg.ReclaimFraction
	if coin.ATHMarketCap <= 0 || obs.MarketCap < reclaimLevel {
		return notifier.CoinAlert{}, false
	}
	alert := e.baseAlert(notifier.AlertKindReclaim, coin, obs)
	alert.Threshold = e.cfg.ReclaimFraction
	return alert, true
}

// baseAlert fills the coin identity and derived context shared by every
// per-coin alert.
func (e *AlertRuleEngine) baseAlert(kind notifier.AlertKind, coin *store.TrackedCoin, obs store.Observation) notifier.CoinAlert {
	alert := notifier.CoinAlert{
		Kind:            kind,
		Symbol:          coin.Symbol,
		ContractAddress: coin.ContractAddress,
		MarketCap:       obs.MarketCap,
		StartMarketCap:  coin.StartMarketCap,
		ATHMarketCap:    coin.ATHMarketCap,
		Volume24h:       obs.Volume24h,
		Liquidity:       obs.Liquidity,
		QualityScore:    QualityScore(obs.Liquidity, obs.Volume24h, obs.MarketCap),
		Timestamp:       obs.Timestamp,
	}

	if coin.StartMarketCap > 0 {
		alert.PctChange = (obs.MarketCap - coin.StartMarketCap) / coin.StartMarketCap * 100
		alert.Multiple = obs.MarketCap / coin.StartMarketCap
	}
	if coin.ATHMarketCap > 0 {
		alert.DrawdownPct = (coin.ATHMarketCap - obs.MarketCap) / coin.ATHMarketCap * 100
	}

	position := RangePosition(obs.MarketCap, coin.LowMarketCap, coin.ATHMarketCap)
	alert.RangeDescription = RangeDescription(position)
	alert.MomentumDirection, alert.MomentumStrength = Momentum(coin.History)

	return alert
}
