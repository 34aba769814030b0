package app

import (
	"math"
	"trenchwatch/clients/notifier"
	"trenchwatch/internal/store"
)

// defaultVolumeMultiplier applies when an mc_volume combo does not override
// the spike multiplier.
const defaultVolumeMultiplier = 3.0

// EvaluateCombos checks every configured combination alert for the coin.
// Each combo is independently one-shot via the combo latches; all that fire
// are returned.
func (e *AlertRuleEngine) EvaluateCombos(coin *store.TrackedCoin, obs store.Observation) []notifier.CoinAlert {
	var fired []notifier.CoinAlert

	avgVolume := AverageVolume(coin.History, avgVolumeWindow)

	if alert, ok := e.evalMCVolume(coin, obs, avgVolume); ok {
		fired = append(fired, alert)
	}
	if alert, ok := e.evalPctVolume(coin, obs); ok {
		fired = append(fired, alert)
	}
	if alert, ok := e.evalXLiquidity(coin, obs); ok {
		fired = append(fired, alert)
	}
	if alert, ok := e.evalTriple(coin, obs); ok {
		fired = append(fired, alert)
	}

	return fired
}

func (e *AlertRuleEngine) evalMCVolume(coin *store.TrackedCoin, obs store.Observation, avgVolume float64) (notifier.CoinAlert, bool) {
	combo := coin.Combos.MCVolume
	if combo == nil || coin.IsComboTriggered(string(notifier.AlertKindMCVolume)) {
		return notifier.CoinAlert{}, false
	}

	multiplier := combo.VolumeMultiplier
	if multiplier <= 0 {
		multiplier = defaultVolumeMultiplier
	}

	mcMet := obs.MarketCap >= combo.MCTarget
	volumeSpike := avgVolume > 0 && obs.Volume24h >= avgVolume*multiplier
	if !mcMet || !volumeSpike {
		return notifier.CoinAlert{}, false
	}

	alert := e.baseAlert(notifier.AlertKindMCVolume, coin, obs)
	alert.Threshold = combo.MCTarget
	alert.AvgVolume = avgVolume
	return alert, true
}

func (e *AlertRuleEngine) evalPctVolume(coin *store.TrackedCoin, obs store.Observation) (notifier.CoinAlert, bool) {
	combo := coin.Combos.PctVolume
	if combo == nil || coin.IsComboTriggered(string(notifier.AlertKindPctVolume)) || coin.StartMarketCap == 0 {
		return notifier.CoinAlert{}, false
	}

	pctChange := math.Abs((obs.MarketCap - coin.StartMarketCap) / coin.StartMarketCap * 100)
	if pctChange < combo.PctTarget || obs.Volume24h < combo.MinVolume {
		return notifier.CoinAlert{}, false
	}

	alert := e.baseAlert(notifier.AlertKindPctVolume, coin, obs)
	alert.Threshold = combo.PctTarget
	alert.SecondaryValue = combo.MinVolume
	return alert, true
}

func (e *AlertRuleEngine) evalXLiquidity(coin *store.TrackedCoin, obs store.Observation) (notifier.CoinAlert, bool) {
	combo := coin.Combos.XLiquidity
	if combo == nil || coin.IsComboTriggered(string(notifier.AlertKindXLiquidity)) || coin.StartMarketCap == 0 {
		return notifier.CoinAlert{}, false
	}

	multiple := obs.MarketCap / coin.StartMarketCap
	if multiple < combo.XTarget || obs.Liquidity < combo.MinLiquidity {
		return notifier.CoinAlert{}, false
	}

	alert := e.baseAlert(notifier.AlertKindXLiquidity, coin, obs)
	alert.Threshold = combo.XTarget
	alert.SecondaryValue = combo.MinLiquidity
	return alert, true
}

func (e *AlertRuleEngine) evalTriple(coin *store.TrackedCoin, obs store.Observation) (notifier.CoinAlert, bool) {
	combo := coin.Combos.Triple
	if combo == nil || coin.IsComboTriggered(string(notifier.AlertKindTriple)) || coin.StartMarketCap == 0 {
		return notifier.CoinAlert{}, false
	}

	mcMet := obs.MarketCap >= combo.MCTarget
	pctChange := math.Abs((obs.MarketCap - coin.StartMarketCap) / coin.StartMarketCap * 100)
	pctMet := pctChange >= combo.PctTarget
	volumeMet := obs.Volume24h >= combo.MinVolume
	if !mcMet || !pctMet || !volumeMet {
		return notifier.CoinAlert{}, false
	}

	alert := e.baseAlert(notifier.AlertKindTriple, coin, obs)
	alert.Threshold = combo.MCTarget
	alert.SecondaryValue = combo.MinVolume
	return alert, true
}
