package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"trenchwatch/clients/notifier"
	"trenchwatch/config"

	"go.uber.org/zap"
)

const telegramAPIPath = "%s/bot%s/%s"

// TelegramClient sends alerts to Telegram.
// Implements notifier.Notifier interface.
type TelegramClient struct {
	logger   *zap.Logger
	apiURL   string
	botToken string
	client   *http.Client
}

func NewTelegramClient(logger *zap.Logger, cfg *config.Config) *TelegramClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	token := cfg.Telegram.BotToken
	if token == "" {
		logger.Warn("TELEGRAM_BOT_KEY not set, Telegram alerts disabled")
		return &TelegramClient{
			logger: logger,
			apiURL: cfg.Telegram.APIURL,
		}
	}

	logger.Info("telegram bot initialized", zap.Bool("isProd", cfg.IsProd))

	return &TelegramClient{
		logger:   logger,
		apiURL:   cfg.Telegram.APIURL,
		botToken: token,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// SendCoinAlert sends an alert to the recipient's chat.
// Implements notifier.Notifier interface.
func (tc *TelegramClient) SendCoinAlert(recipientID string, alert notifier.CoinAlert) error {
	if tc.botToken == "" {
		tc.logger.Warn("telegram not configured, skipping alert")
		return nil
	}
	if recipientID == "" {
		return fmt.Errorf("empty telegram recipient")
	}

	message := tc.buildAlertMessage(alert)

	if err := tc.sendMessage(recipientID, message, alert.Silent); err != nil {
		tc.logger.Error("failed to send telegram message",
			zap.String("kind", string(alert.Kind)),
			zap.Error(err),
		)
		return err
	}

	tc.logger.Info("sent telegram alert",
		zap.String("kind", string(alert.Kind)),
		zap.String("symbol", alert.Symbol),
		zap.String("recipient", recipientID),
	)
	return nil
}

func (tc *TelegramClient) buildAlertMessage(alert notifier.CoinAlert) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("*%s*\n\n", escapeMarkdown(alert.Title())))

	if alert.IsMeta() {
		tc.writeMetaBody(&sb, alert)
	} else {
		tc.writeCoinBody(&sb, alert)
	}

	// Timestamp
	ts := alert.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	sb.WriteString(fmt.Sprintf("\n_trenchwatch • %s_", ts.UTC().Format("1/2/2006, 3:04:05PM (MST)")))

	return sb.String()
}

func (tc *TelegramClient) writeCoinBody(sb *strings.Builder, alert notifier.CoinAlert) {
	name := alert.Symbol
	if name == "" {
		name = shortAddress(alert.ContractAddress)
	}
	sb.WriteString(fmt.Sprintf("*Token:* %s\n", escapeMarkdown(name)))
	sb.WriteString(fmt.Sprintf("*CA:* `%s`\n\n", alert.ContractAddress))

	sb.WriteString(fmt.Sprintf("*Market Cap:* %s\n", fmtUSD(alert.MarketCap)))

	switch alert.Kind {
	case notifier.AlertKindMCTarget:
		sb.WriteString(fmt.Sprintf("*Target:* %s reached\n", fmtUSD(alert.Threshold)))
	case notifier.AlertKindPctMove:
		sb.WriteString(fmt.Sprintf("*Move:* %+.1f%% from entry (threshold %.1f%%)\n", alert.PctChange, alert.Threshold))
	case notifier.AlertKindMultiple:
		sb.WriteString(fmt.Sprintf("*Multiple:* %.2fx entry (target %.1fx)\n", alert.Multiple, alert.Threshold))
	case notifier.AlertKindReclaim:
		sb.WriteString(fmt.Sprintf("*ATH:* %s, now within %.0f%%\n", fmtUSD(alert.ATHMarketCap), 100*(1-alert.Threshold)))
	case notifier.AlertKindVolumeSpike:
		sb.WriteString(fmt.Sprintf("*Volume 24h:* %s (avg %s, %.1fx)\n",
			fmtUSD(alert.Volume24h), fmtUSD(alert.AvgVolume), safeRatio(alert.Volume24h, alert.AvgVolume)))
	case notifier.AlertKindLiquidityDrop:
		sb.WriteString(fmt.Sprintf("*Liquidity:* %s (%.1f%% from last sample)\n", fmtUSD(alert.Liquidity), alert.LiquidityDropPct))
	case notifier.AlertKindBounce:
		sb.WriteString(fmt.Sprintf("*Pattern:* dumped %.0f%%+ off ATH, stabilized, now bouncing\n", alert.DrawdownPct))
		sb.WriteString(fmt.Sprintf("*ATH:* %s\n", fmtUSD(alert.ATHMarketCap)))
	case notifier.AlertKindMCVolume:
		sb.WriteString(fmt.Sprintf("*MC Target:* %s reached\n", fmtUSD(alert.Threshold)))
		sb.WriteString(fmt.Sprintf("*Volume 24h:* %s (avg %s)\n", fmtUSD(alert.Volume24h), fmtUSD(alert.AvgVolume)))
	case notifier.AlertKindPctVolume:
		sb.WriteString(fmt.Sprintf("*Move:* %+.1f%% (threshold %.1f%%)\n", alert.PctChange, alert.Threshold))
		sb.WriteString(fmt.Sprintf("*Volume 24h:* %s (floor %s)\n", fmtUSD(alert.Volume24h), fmtUSD(alert.SecondaryValue)))
	case notifier.AlertKindXLiquidity:
		sb.WriteString(fmt.Sprintf("*Multiple:* %.2fx (target %.1fx)\n", alert.Multiple, alert.Threshold))
		sb.WriteString(fmt.Sprintf("*Liquidity:* %s (floor %s)\n", fmtUSD(alert.Liquidity), fmtUSD(alert.SecondaryValue)))
	case notifier.AlertKindTriple:
		sb.WriteString(fmt.Sprintf("*MC Target:* %s reached\n", fmtUSD(alert.Threshold)))
		sb.WriteString(fmt.Sprintf("*Move:* %+.1f%%\n", alert.PctChange))
		sb.WriteString(fmt.Sprintf("*Volume 24h:* %s (floor %s)\n", fmtUSD(alert.Volume24h), fmtUSD(alert.SecondaryValue)))
	}

	// Context block shared by all coin alerts
	sb.WriteString("\n")
	if alert.RangeDescription != "" {
		sb.WriteString(fmt.Sprintf("*Range:* %s\n", escapeMarkdown(alert.RangeDescription)))
	}
	if alert.MomentumDirection != "" {
		sb.WriteString(fmt.Sprintf("*Momentum:* %s (%.0f%%)\n",
			momentumEmoji(alert.MomentumDirection), alert.MomentumStrength*100))
	}
	sb.WriteString(fmt.Sprintf("*Quality:* %s %d/3\n", qualityEmoji(alert.QualityScore), alert.QualityScore))
}

func (tc *TelegramClient) writeMetaBody(sb *strings.Builder, alert notifier.CoinAlert) {
	switch alert.Kind {
	case notifier.AlertKindNPumping:
		sb.WriteString(fmt.Sprintf("*%d coins* are up %.0f%%+:\n\n", len(alert.PumpingCoins), alert.Threshold))
		for _, pc := range alert.PumpingCoins {
			name := pc.Symbol
			if name == "" {
				name = shortAddress(pc.ContractAddress)
			}
			sb.WriteString(fmt.Sprintf("• %s %+.1f%% (%s)\n", escapeMarkdown(name), pc.PctChange, fmtUSD(pc.MarketCap)))
		}
	case notifier.AlertKindTotalMC:
		sb.WriteString(fmt.Sprintf("*Combined MC:* %s (target %s)\n", fmtUSD(alert.TotalMarketCap), fmtUSD(alert.Threshold)))
	case notifier.AlertKindAvgPct:
		sb.WriteString(fmt.Sprintf("*Average move:* %+.1f%% (threshold %.1f%%)\n", alert.AvgPct, alert.Threshold))
	}
}

func (tc *TelegramClient) sendMessage(chatID, text string, silent bool) error {
	url := fmt.Sprintf(telegramAPIPath, tc.apiURL, tc.botToken, "sendMessage")

	payload := map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	if silent {
		payload["disable_notification"] = true
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := tc.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	return nil
}

// Close cleans up resources. Implements notifier.Notifier interface.
func (tc *TelegramClient) Close() error {
	return nil
}

func momentumEmoji(direction string) string {
	switch direction {
	case "up":
		return "🟢 up"
	case "down":
		return "🔴 down"
	default:
		return "⚪ stable"
	}
}

func qualityEmoji(score int) string {
	switch {
	case score >= 3:
		return "💎"
	case score == 2:
		return "✅"
	case score == 1:
		return "⚠️"
	default:
		return "🚩"
	}
}

// fmtUSD renders a dollar amount compactly: $12.5K, $3.40M, $1.20B.
func fmtUSD(v float64) string {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("$%.1fK", v/1e3)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}

func safeRatio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func shortAddress(addr string) string {
	if len(addr) <= 14 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-6:]
}

// escapeMarkdown escapes special characters for Telegram Markdown.
func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"`", "\\`",
	)
	return replacer.Replace(s)
}
