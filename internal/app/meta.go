package app

import (
	"time"
	"trenchwatch/clients/notifier"
	"trenchwatch/config"
	"trenchwatch/internal/store"
)

// MetaEvaluator runs the list-level rules: n_pumping, total_mc and avg_pct.
// A list fires at most one meta alert per pass (first match in that order),
// each kind is one-shot per list, and a cooldown guards the whole list after
// any meta alert so a narrative rotation doesn't spam.
type MetaEvaluator struct {
	defaultPct float64
	cooldown   time.Duration
}

func NewMetaEvaluator(cfg config.IntelConfig) *MetaEvaluator {
	return &MetaEvaluator{
		defaultPct: cfg.NPumpingDefaultPct,
		cooldown:   cfg.MetaCooldown,
	}
}

// Evaluate checks a list's meta rules against the quotes gathered during the
// pass. Quotes are keyed by contract address; list members with no quote this
// pass are skipped, not failed.
func (m *MetaEvaluator) Evaluate(list *store.WatchList, user *store.UserData, quotes map[string]store.Observation, now time.Time) (notifier.CoinAlert, bool) {
	if list == nil || len(list.Coins) == 0 {
		return notifier.CoinAlert{}, false
	}
	if !list.LastMetaAlert.IsZero() && now.Sub(list.LastMetaAlert) < m.cooldown {
		return notifier.CoinAlert{}, false
	}

	if alert, ok := m.evalNPumping(list, user, quotes, now); ok {
		return alert, true
	}
	if alert, ok := m.evalTotalMC(list, quotes, now); ok {
		return alert, true
	}
	if alert, ok := m.evalAvgPct(list, user, quotes, now); ok {
		return alert, true
	}
	return notifier.CoinAlert{}, false
}

func (m *MetaEvaluator) evalNPumping(list *store.WatchList, user *store.UserData, quotes map[string]store.Observation, now time.Time) (notifier.CoinAlert, bool) {
	cfg := list.MetaAlerts.NPumping
	if cfg == nil || list.IsMetaTriggered(string(notifier.AlertKindNPumping)) {
		return notifier.CoinAlert{}, false
	}

	pctThreshold := cfg.PctThreshold
	if pctThreshold <= 0 {
		pctThreshold = m.defaultPct
	}

	var pumping []notifier.PumpingCoin
	for _, ca := range list.Coins {
		obs, ok := quotes[ca]
		if !ok || obs.MarketCap <= 0 {
			continue
		}
		coin := user.Coin(ca)
		if coin == nil || coin.StartMarketCap == 0 {
			continue
		}

		pctChange := (obs.MarketCap - coin.StartMarketCap) / coin.StartMarketCap * 100
		if pctChange >= pctThreshold {
			pumping = append(pumping, notifier.PumpingCoin{
				Symbol:          coin.Symbol,
				ContractAddress: ca,
				PctChange:       pctChange,
				MarketCap:       obs.MarketCap,
			})
		}
	}

	if len(pumping) < cfg.MinCoins {
		return notifier.CoinAlert{}, false
	}

	return notifier.CoinAlert{
		Kind:         notifier.AlertKindNPumping,
		ListName:     list.Name,
		PumpingCoins: pumping,
		Threshold:    pctThreshold,
		Timestamp:    now,
	}, true
}

func (m *MetaEvaluator) evalTotalMC(list *store.WatchList, quotes map[string]store.Observation, now time.Time) (notifier.CoinAlert, bool) {
	threshold := list.MetaAlerts.TotalMC
	if threshold == nil || list.IsMetaTriggered(string(notifier.AlertKindTotalMC)) {
		return notifier.CoinAlert{}, false
	}

	var total float64
	for _, ca := range list.Coins {
		if obs, ok := quotes[ca]; ok && obs.MarketCap > 0 {
			total += obs.MarketCap
		}
	}

	if total < *threshold {
		return notifier.CoinAlert{}, false
	}

	return notifier.CoinAlert{
		Kind:           notifier.AlertKindTotalMC,
		ListName:       list.Name,
		TotalMarketCap: total,
		Threshold:      *threshold,
		Timestamp:      now,
	}, true
}

func (m *MetaEvaluator) evalAvgPct(list *store.WatchList, user *store.UserData, quotes map[string]store.Observation, now time.Time) (notifier.CoinAlert, bool) {
	threshold := list.MetaAlerts.AvgPct
	if threshold == nil || list.IsMetaTriggered(string(notifier.AlertKindAvgPct)) {
		return notifier.CoinAlert{}, false
	}

	var totalPct float64
	count := 0
	for _, ca := range list.Coins {
		obs, ok := quotes[ca]
		if !ok || obs.MarketCap <= 0 {
			continue
		}
		coin := user.Coin(ca)
		if coin == nil || coin.StartMarketCap == 0 {
			continue
		}
		totalPct += (obs.MarketCap - coin.StartMarketCap) / coin.StartMarketCap * 100
		count++
	}
	if count == 0 {
		return notifier.CoinAlert{}, false
	}

	avg := totalPct / float64(count)
	if avg < *threshold {
		return notifier.CoinAlert{}, false
	}

	return notifier.CoinAlert{
		Kind:      notifier.AlertKindAvgPct,
		ListName:  list.Name,
		AvgPct:    avg,
		Threshold: *threshold,
		Timestamp: now,
	}, true
}
