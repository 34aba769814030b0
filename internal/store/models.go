package store

import (
	"encoding/json"
	"sort"
	"time"
)

// Mode selects how aggressively alerts are filtered for a user.
type Mode string

const (
	ModeConservative Mode = "conservative"
	ModeAggressive   Mode = "aggressive"
	ModeSniper       Mode = "sniper"
)

// AlertModeLoud and AlertModeSilent control whether delivered alerts
// make noise on the user's device.
const (
	AlertModeLoud   = "loud"
	AlertModeSilent = "silent"
)

// Observation is a single market-data sample for a tracked coin.
// Observations are immutable once appended to history.
type Observation struct {
	MarketCap float64   `json:"mc"`
	Volume24h float64   `json:"volume"`
	Liquidity float64   `json:"liquidity"`
	Timestamp time.Time `json:"ts"`
}

// AlertConfig holds the user-configured simple alert thresholds for a coin.
// Nil pointer / false means the alert is not configured.
type AlertConfig struct {
	MarketCapTarget *float64 `json:"mc,omitempty"`  // fires when MC drops to this level
	PercentMove     *float64 `json:"pct,omitempty"` // bidirectional % move from start MC
	Multiple        *float64 `json:"x,omitempty"`   // multiple of start MC
	Reclaim         bool     `json:"reclaim,omitempty"`
}

// MCVolumeCombo fires when an MC target is reached while volume spikes
// above the rolling average.
type MCVolumeCombo struct {
	MCTarget         float64 `json:"mc_target"`
	VolumeMultiplier float64 `json:"volume_multiplier,omitempty"` // default 3x
}

// PctVolumeCombo fires when a % move lands with volume above a floor.
type PctVolumeCombo struct {
	PctTarget float64 `json:"pct_target"`
	MinVolume float64 `json:"min_volume"`
}

// XLiquidityCombo fires when a multiple is hit with liquidity above a floor.
type XLiquidityCombo struct {
	XTarget      float64 `json:"x_target"`
	MinLiquidity float64 `json:"min_liquidity"`
}

// TripleCombo fires when MC target, % move and volume floor all hold at once.
type TripleCombo struct {
	MCTarget  float64 `json:"mc_target"`
	PctTarget float64 `json:"pct_target"`
	MinVolume float64 `json:"min_volume"`
}

// ComboConfig holds the configured combination alerts for a coin.
type ComboConfig struct {
	MCVolume   *MCVolumeCombo   `json:"mc_volume,omitempty"`
	PctVolume  *PctVolumeCombo  `json:"pct_volume,omitempty"`
	XLiquidity *XLiquidityCombo `json:"x_liquidity,omitempty"`
	Triple     *TripleCombo     `json:"triple,omitempty"`
}

// TrackedCoin is one user's subscription to a token.
type TrackedCoin struct {
	ContractAddress string  `json:"ca"`
	Symbol          string  `json:"symbol,omitempty"`
	StartMarketCap  float64 `json:"start_mc"` // set at add time, never changes
	ATHMarketCap    float64 `json:"ath_mc"`
	LowMarketCap    float64 `json:"low_mc"`

	History []Observation `json:"history,omitempty"`

	Alerts    AlertConfig     `json:"alerts"`
	Triggered map[string]bool `json:"triggered,omitempty"`

	Combos         ComboConfig     `json:"combo_alerts"`
	ComboTriggered map[string]bool `json:"combo_triggered,omitempty"`

	// Paused coins are skipped entirely by the monitor: no history update,
	// no rule evaluation.
	Paused bool `json:"paused,omitempty"`
}

// IsTriggered reports whether the one-shot latch for a rule kind is set.
func (c *TrackedCoin) IsTriggered(kind string) bool {
	return c.Triggered[kind]
}

// MarkTriggered sets the one-shot latch for a rule kind. Once set, the rule
// never fires again for this coin.
func (c *TrackedCoin) MarkTriggered(kind string) {
	if c.Triggered == nil {
		c.Triggered = make(map[string]bool)
	}
	c.Triggered[kind] = true
}

// ResetTriggered clears the latch for a rule kind. The monitor never calls
// this; it exists so a future re-arm policy can be layered on.
func (c *TrackedCoin) ResetTriggered(kind string) {
	delete(c.Triggered, kind)
}

// IsComboTriggered reports whether a combination alert has already fired.
func (c *TrackedCoin) IsComboTriggered(kind string) bool {
	return c.ComboTriggered[kind]
}

// MarkComboTriggered sets the one-shot latch for a combination alert.
func (c *TrackedCoin) MarkComboTriggered(kind string) {
	if c.ComboTriggered == nil {
		c.ComboTriggered = make(map[string]bool)
	}
	c.ComboTriggered[kind] = true
}

// NPumpingMeta configures the "N coins in the list are pumping" meta rule.
type NPumpingMeta struct {
	MinCoins     int     `json:"n"`
	PctThreshold float64 `json:"pct,omitempty"` // default 10%
}

// MetaAlertConfig holds list-level alert thresholds.
type MetaAlertConfig struct {
	NPumping *NPumpingMeta `json:"n_pumping,omitempty"`
	TotalMC  *float64      `json:"total_mc,omitempty"`
	AvgPct   *float64      `json:"avg_pct,omitempty"`
}

// WatchList groups coins under a narrative and carries list-level alerts.
type WatchList struct {
	Name          string          `json:"name"`
	Coins         []string        `json:"coins"` // contract addresses
	MetaAlerts    MetaAlertConfig `json:"meta_alerts"`
	MetaTriggered map[string]bool `json:"meta_triggered,omitempty"`
	LastMetaAlert time.Time       `json:"last_meta_alert,omitempty"`
}

// IsMetaTriggered reports whether a meta rule has already fired for the list.
func (l *WatchList) IsMetaTriggered(kind string) bool {
	return l.MetaTriggered[kind]
}

// MarkMetaTriggered sets the one-shot latch for a meta rule.
func (l *WatchList) MarkMetaTriggered(kind string, now time.Time) {
	if l.MetaTriggered == nil {
		l.MetaTriggered = make(map[string]bool)
	}
	l.MetaTriggered[kind] = true
	l.LastMetaAlert = now
}

// UserProfile holds per-user monitoring preferences.
type UserProfile struct {
	Mode      Mode   `json:"mode"`
	AlertMode string `json:"alert_mode,omitempty"` // loud (default) or silent
}

// QualityMode returns the profile's mode, defaulting to aggressive for
// unset or unknown values.
func (p UserProfile) QualityMode() Mode {
	switch p.Mode {
	case ModeConservative, ModeAggressive, ModeSniper:
		return p.Mode
	default:
		return ModeAggressive
	}
}

// Silent reports whether alerts for this user should be delivered quietly.
func (p UserProfile) Silent() bool {
	return p.AlertMode == AlertModeSilent
}

// UserData is everything tracked for a single user.
type UserData struct {
	Coins   []*TrackedCoin        `json:"coins"`
	Lists   map[string]*WatchList `json:"lists,omitempty"`
	Profile UserProfile           `json:"profile"`
}

// UnmarshalJSON accepts both the canonical object shape and the legacy
// on-disk format where a user's entry was a bare array of coins. The core
// only ever sees the canonical shape.
func (u *UserData) UnmarshalJSON(data []byte) error {
	var legacy []*TrackedCoin
	if err := json.Unmarshal(data, &legacy); err == nil {
		u.Coins = legacy
		u.Profile = UserProfile{Mode: ModeAggressive}
		return nil
	}

	type userData UserData // drop methods to avoid recursion
	var v userData
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*u = UserData(v)
	if u.Profile.Mode == "" {
		u.Profile.Mode = ModeAggressive
	}
	return nil
}

// Coin returns the tracked coin with the given contract address, or nil.
func (u *UserData) Coin(ca string) *TrackedCoin {
	for _, c := range u.Coins {
		if c.ContractAddress == ca {
			return c
		}
	}
	return nil
}

// Dataset is the full persisted state: user ID -> user data.
type Dataset map[string]*UserData

// UserIDs returns all user IDs in deterministic order.
func (d Dataset) UserIDs() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
