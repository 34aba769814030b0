package app

import (
	"trenchwatch/config"
	"trenchwatch/internal/store"
)

// QualitySuppressor is the global alert veto: when a coin's current signal
// quality is below the floor for the user's mode, no rule evaluates for that
// coin this pass. Total suppression is the observed product behavior; the
// check is kept isolated here so it could be scoped per rule kind later.
type QualitySuppressor struct {
	modes config.QualityConfig
}

func NewQualitySuppressor(modes config.QualityConfig) *QualitySuppressor {
	return &QualitySuppressor{modes: modes}
}

// ShouldSuppress reports whether alerts for the coin should be withheld this
// pass given the observation and the user's mode.
func (q *QualitySuppressor) ShouldSuppress(obs store.Observation, mode store.Mode) bool {
	score := QualityScore(obs.Liquidity, obs.Volume24h, obs.MarketCap)
	return score < q.modes.Thresholds(string(mode)).MinQualityScore
}
