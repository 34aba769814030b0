package notifier

import (
	"fmt"
	"time"
)

// AlertKind identifies which rule produced an alert. The string values are
// also the keys used for the per-coin one-shot triggered latches.
type AlertKind string

const (
	AlertKindMCTarget      AlertKind = "mc"
	AlertKindPctMove       AlertKind = "pct"
	AlertKindMultiple      AlertKind = "x"
	AlertKindReclaim       AlertKind = "reclaim"
	AlertKindVolumeSpike   AlertKind = "volume_spike"
	AlertKindLiquidityDrop AlertKind = "liquidity_drop"
	AlertKindBounce        AlertKind = "bounce"

	// Combination alerts (AND-composed conditions)
	AlertKindMCVolume   AlertKind = "mc_volume"
	AlertKindPctVolume  AlertKind = "pct_volume"
	AlertKindXLiquidity AlertKind = "x_liquidity"
	AlertKindTriple     AlertKind = "triple"

	// List-level meta alerts
	AlertKindNPumping AlertKind = "n_pumping"
	AlertKindTotalMC  AlertKind = "total_mc"
	AlertKindAvgPct   AlertKind = "avg_pct"
)

// PumpingCoin is one qualifying member of an n_pumping meta alert payload.
type PumpingCoin struct {
	Symbol          string
	ContractAddress string
	PctChange       float64
	MarketCap       float64
}

// CoinAlert contains all the data needed for an alert notification.
// Channel clients format it themselves (Markdown for Telegram, embeds for
// Discord).
type CoinAlert struct {
	Kind AlertKind

	// Coin info
	Symbol          string
	ContractAddress string
	MarketCap       float64
	StartMarketCap  float64
	ATHMarketCap    float64

	// Derived signals for context lines
	PctChange         float64 // % move from start MC
	Multiple          float64 // current MC / start MC
	DrawdownPct       float64 // % down from ATH
	RangeDescription  string
	MomentumDirection string // up, down, stable
	MomentumStrength  float64
	QualityScore      int

	// Rule-specific values
	Threshold        float64 // primary configured threshold that was crossed
	SecondaryValue   float64 // combo secondary threshold (min volume/liquidity)
	Volume24h        float64
	AvgVolume        float64
	Liquidity        float64
	LiquidityDropPct float64

	// List-level payload
	ListName       string
	PumpingCoins   []PumpingCoin
	TotalMarketCap float64
	AvgPct         float64

	// Delivery options
	Silent    bool // deliver without sound
	Timestamp time.Time
}

// Title returns the headline for an alert kind.
func (a CoinAlert) Title() string {
	switch a.Kind {
	case AlertKindMCTarget:
		return "🚨 MC ALERT"
	case AlertKindPctMove:
		return "📈 % CHANGE ALERT"
	case AlertKindMultiple:
		return "🚀 X ALERT"
	case AlertKindReclaim:
		return "🔥 ATH RECLAIM"
	case AlertKindVolumeSpike:
		return "📊 VOLUME SPIKE"
	case AlertKindLiquidityDrop:
		return "⚠️ LIQUIDITY DROP"
	case AlertKindBounce:
		return "🚀 BOUNCE PATTERN DETECTED"
	case AlertKindMCVolume:
		return "🎯 COMBO: MC + VOLUME SPIKE"
	case AlertKindPctVolume:
		return "🎯 COMBO: % MOVE + VOLUME"
	case AlertKindXLiquidity:
		return "🎯 COMBO: MULTIPLE + LIQUIDITY"
	case AlertKindTriple:
		return "🎯 TRIPLE COMBO"
	case AlertKindNPumping:
		return fmt.Sprintf("🔥 META HEATING UP: %s", a.ListName)
	case AlertKindTotalMC:
		return fmt.Sprintf("💰 LIST MC TARGET: %s", a.ListName)
	case AlertKindAvgPct:
		return fmt.Sprintf("📈 LIST MOVING: %s", a.ListName)
	default:
		return "🚨 ALERT"
	}
}

// IsMeta reports whether the alert is a list-level meta alert.
func (a CoinAlert) IsMeta() bool {
	switch a.Kind {
	case AlertKindNPumping, AlertKindTotalMC, AlertKindAvgPct:
		return true
	}
	return false
}

// Notifier is the interface for sending coin alerts to a delivery channel.
type Notifier interface {
	// SendCoinAlert delivers an alert to the given recipient. A failure is
	// logged-and-skipped by the caller; it never blocks marking the rule
	// triggered.
	SendCoinAlert(recipientID string, alert CoinAlert) error

	// Close cleans up any resources.
	Close() error
}

// MultiNotifier broadcasts alerts to multiple notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a MultiNotifier, dropping nil entries.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	var active []Notifier
	for _, n := range notifiers {
		if n != nil {
			active = append(active, n)
		}
	}
	return &MultiNotifier{notifiers: active}
}

// SendCoinAlert sends the alert to all registered notifiers. Every channel
// is attempted even if an earlier one fails; the last error is returned.
func (m *MultiNotifier) SendCoinAlert(recipientID string, alert CoinAlert) error {
	var lastErr error
	for _, n := range m.notifiers {
		if err := n.SendCoinAlert(recipientID, alert); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Close closes all registered notifiers.
func (m *MultiNotifier) Close() error {
	var lastErr error
	for _, n := range m.notifiers {
		if err := n.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Count returns the number of active notifiers.
func (m *MultiNotifier) Count() int {
	return len(m.notifiers)
}
