package discord

import (
	"fmt"
	"strings"
	"time"
	"trenchwatch/clients/notifier"
	"trenchwatch/config"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// DiscordClient mirrors alerts into a Discord channel.
// Implements notifier.Notifier interface.
type DiscordClient struct {
	logger    *zap.Logger
	session   *discordgo.Session
	channelID string
	isProd    bool
}

func NewDiscordClient(logger *zap.Logger, cfg *config.Config) *DiscordClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	channelID := cfg.Discord.BetaChannelID
	if cfg.IsProd {
		channelID = cfg.Discord.ProdChannelID
	}

	token := cfg.Discord.BotToken
	if token == "" {
		logger.Warn("DISCORD_BOT_TOKEN not set, Discord alerts disabled")
		return &DiscordClient{
			logger:    logger,
			channelID: channelID,
			isProd:    cfg.IsProd,
		}
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		logger.Error("failed to create discord session", zap.Error(err))
		return &DiscordClient{
			logger:    logger,
			channelID: channelID,
			isProd:    cfg.IsProd,
		}
	}

	logger.Info("discord bot initialized",
		zap.Bool("isProd", cfg.IsProd),
		zap.String("channelID", channelID),
	)

	return &DiscordClient{
		logger:    logger,
		session:   session,
		channelID: channelID,
		isProd:    cfg.IsProd,
	}
}

// SendCoinAlert sends a rich embedded alert. All alerts go to the single
// configured channel; the recipient ID only scopes the footer.
// Implements notifier.Notifier interface.
func (dc *DiscordClient) SendCoinAlert(recipientID string, alert notifier.CoinAlert) error {
	if dc.session == nil || dc.channelID == "" {
		dc.logger.Warn("discord not configured, skipping alert")
		return nil
	}

	embed := dc.buildAlertEmbed(alert)

	_, err := dc.session.ChannelMessageSendEmbed(dc.channelID, embed)
	if err != nil {
		dc.logger.Error("failed to send discord embed", zap.Error(err))
		return fmt.Errorf("send discord embed: %w", err)
	}

	dc.logger.Info("sent discord alert",
		zap.String("kind", string(alert.Kind)),
		zap.String("symbol", alert.Symbol),
	)
	return nil
}

func (dc *DiscordClient) buildAlertEmbed(alert notifier.CoinAlert) *discordgo.MessageEmbed {
	color := 0x2ECC71 // green
	switch alert.Kind {
	case notifier.AlertKindLiquidityDrop:
		color = 0xE74C3C // red
	case notifier.AlertKindVolumeSpike, notifier.AlertKindNPumping:
		color = 0xF39C12 // amber
	}

	var fields []*discordgo.MessageEmbedField
	var description string

	if alert.IsMeta() {
		description = fmt.Sprintf("**%s**", alert.ListName)
		fields = dc.metaFields(alert)
	} else {
		name := alert.Symbol
		if name == "" {
			name = shortAddress(alert.ContractAddress)
		}
		description = fmt.Sprintf("**%s**\n`%s`", name, alert.ContractAddress)
		fields = dc.coinFields(alert)
	}

	ts := alert.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return &discordgo.MessageEmbed{
		Title:       alert.Title(),
		Description: description,
		Color:       color,
		Fields:      fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("trenchwatch * %s", ts.UTC().Format("1/2/2006, 3:04:05PM (MST)")),
		},
		Timestamp: ts.Format(time.RFC3339),
	}
}

func (dc *DiscordClient) coinFields(alert notifier.CoinAlert) []*discordgo.MessageEmbedField {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Market Cap", Value: fmtUSD(alert.MarketCap), Inline: true},
	}

	switch alert.Kind {
	case notifier.AlertKindMCTarget, notifier.AlertKindMCVolume, notifier.AlertKindTriple:
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Target", Value: fmtUSD(alert.Threshold), Inline: true,
		})
	case notifier.AlertKindPctMove, notifier.AlertKindPctVolume:
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Move", Value: fmt.Sprintf("%+.1f%% (threshold %.1f%%)", alert.PctChange, alert.Threshold), Inline: true,
		})
	case notifier.AlertKindMultiple, notifier.AlertKindXLiquidity:
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Multiple", Value: fmt.Sprintf("%.2fx (target %.1fx)", alert.Multiple, alert.Threshold), Inline: true,
		})
	case notifier.AlertKindReclaim, notifier.AlertKindBounce:
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "ATH", Value: fmtUSD(alert.ATHMarketCap), Inline: true,
		})
	case notifier.AlertKindVolumeSpike:
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Volume 24h", Value: fmt.Sprintf("%s (avg %s)", fmtUSD(alert.Volume24h), fmtUSD(alert.AvgVolume)), Inline: true,
		})
	case notifier.AlertKindLiquidityDrop:
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Liquidity", Value: fmt.Sprintf("%s (%.1f%%)", fmtUSD(alert.Liquidity), alert.LiquidityDropPct), Inline: true,
		})
	}

	if alert.RangeDescription != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Range", Value: alert.RangeDescription, Inline: true,
		})
	}
	if alert.MomentumDirection != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Momentum", Value: fmt.Sprintf("%s (%.0f%%)", alert.MomentumDirection, alert.MomentumStrength*100), Inline: true,
		})
	}
	fields = append(fields, &discordgo.MessageEmbedField{
		Name: "Quality", Value: fmt.Sprintf("%d/3", alert.QualityScore), Inline: true,
	})

	return fields
}

func (dc *DiscordClient) metaFields(alert notifier.CoinAlert) []*discordgo.MessageEmbedField {
	switch alert.Kind {
	case notifier.AlertKindNPumping:
		var sb strings.Builder
		for _, pc := range alert.PumpingCoins {
			name := pc.Symbol
			if name == "" {
				name = shortAddress(pc.ContractAddress)
			}
			sb.WriteString(fmt.Sprintf("%s %+.1f%% (%s)\n", name, pc.PctChange, fmtUSD(pc.MarketCap)))
		}
		return []*discordgo.MessageEmbedField{
			{Name: fmt.Sprintf("%d coins pumping", len(alert.PumpingCoins)), Value: sb.String(), Inline: false},
		}
	case notifier.AlertKindTotalMC:
		return []*discordgo.MessageEmbedField{
			{Name: "Combined MC", Value: fmtUSD(alert.TotalMarketCap), Inline: true},
			{Name: "Target", Value: fmtUSD(alert.Threshold), Inline: true},
		}
	case notifier.AlertKindAvgPct:
		return []*discordgo.MessageEmbedField{
			{Name: "Average Move", Value: fmt.Sprintf("%+.1f%%", alert.AvgPct), Inline: true},
			{Name: "Threshold", Value: fmt.Sprintf("%.1f%%", alert.Threshold), Inline: true},
		}
	}
	return nil
}

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

func shortAddress(addr string) string {
	if len(addr) <= 14 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-6:]
}

// Close closes the Discord session.
func (dc *DiscordClient) Close() error {
	if dc.session != nil {
		return dc.session.Close()
	}
	return nil
}
