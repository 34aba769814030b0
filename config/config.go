package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Environment
	IsProd bool `json:"is_prod"`

	// Telegram delivery
	Telegram TelegramConfig `json:"telegram"`

	// Discord delivery
	Discord DiscordConfig `json:"discord"`

	// Monitor loop
	Monitor MonitorConfig `json:"monitor"`

	// Signal intelligence thresholds
	Intel IntelConfig `json:"intel"`

	// Per-mode quality gates
	Quality QualityConfig `json:"quality"`

	// DexScreener market data
	Dex DexConfig `json:"dex"`

	// Stats/health server
	StatsServer StatsServerConfig `json:"stats_server"`
}

// TelegramConfig holds Telegram-related configuration. Alerts are sent to
// each user's own chat ID, so only the bot token lives here.
type TelegramConfig struct {
	BotToken string `json:"-"` // env var only
	APIURL   string `json:"api_url"`
}

// DiscordConfig holds Discord-related configuration.
type DiscordConfig struct {
	BotToken      string `json:"-"` // env var only
	ProdChannelID string `json:"prod_channel_id"`
	BetaChannelID string `json:"beta_channel_id"`
}

// MonitorConfig holds monitor loop configuration.
type MonitorConfig struct {
	PollInterval time.Duration `json:"poll_interval"` // sleep between passes
	CoinThrottle time.Duration `json:"coin_throttle"` // pause between coins within a pass
	FetchTimeout time.Duration `json:"fetch_timeout"` // per market-data call
	DataFile     string        `json:"data_file"`
	AlertLogFile string        `json:"alert_log_file"`
}

// IntelConfig holds pattern-detection and rule thresholds.
type IntelConfig struct {
	PatternWindow time.Duration `json:"pattern_window"` // dump/stabilize/bounce lookback

	DumpPct      float64 `json:"dump_pct"`      // min % down from ATH
	StabilizePct float64 `json:"stabilize_pct"` // max % band for "stabilizing"
	BouncePct    float64 `json:"bounce_pct"`    // min % recovery off the local low

	ReclaimFraction       float64 `json:"reclaim_fraction"`        // of ATH
	VolumeSpikeMultiplier float64 `json:"volume_spike_multiplier"` // vs rolling average
	LiquidityDropPct      float64 `json:"liquidity_drop_pct"`      // negative threshold

	NPumpingDefaultPct float64       `json:"n_pumping_default_pct"` // per-coin % for the meta rule
	MetaCooldown       time.Duration `json:"meta_cooldown"`         // guard after a meta alert re-arm
}

// RetentionWindow is how long observations are kept: twice the pattern
// window, so the detector always has a full window plus slack.
func (c IntelConfig) RetentionWindow() time.Duration {
	return 2 * c.PatternWindow
}

// ModeThresholds are the quality gates for one user mode.
type ModeThresholds struct {
	MinLiquidity    float64 `json:"min_liquidity"`
	MinVolumeRatio  float64 `json:"min_volume_ratio"` // volume_24h / mc
	MinQualityScore int     `json:"min_quality_score"`
	MaxDrawdownPct  float64 `json:"max_dd_percent"`
}

// QualityConfig holds the per-mode quality gates.
type QualityConfig struct {
	Conservative ModeThresholds `json:"conservative"`
	Aggressive   ModeThresholds `json:"aggressive"`
	Sniper       ModeThresholds `json:"sniper"`
}

// DexConfig holds DexScreener API configuration.
type DexConfig struct {
	APIURL       string        `json:"api_url"`
	QuoteTTL     time.Duration `json:"quote_ttl"`     // in-pass quote cache
	MinLiquidity float64       `json:"min_liquidity"` // pairs below this are ignored
}

// StatsServerConfig holds stats/health server configuration.
type StatsServerConfig struct {
	Enabled bool `json:"enabled"`
	Port    int  `json:"port"`
}

// Defaults returns a config with hardcoded default values.
func Defaults() *Config {
	return &Config{
		IsProd:   false,
		Telegram: TelegramConfig{APIURL: "https://api.telegram.org"},
		Discord:  DiscordConfig{},
		Monitor: MonitorConfig{
			PollInterval: 60 * time.Second,
			CoinThrottle: 1 * time.Second,
			FetchTimeout: 10 * time.Second,
			DataFile:     "data.json",
			AlertLogFile: "alert_history.json",
		},
		Intel: IntelConfig{
			PatternWindow:         10 * time.Minute,
			DumpPct:               30,
			StabilizePct:          10,
			BouncePct:             10,
			ReclaimFraction:       0.95,
			VolumeSpikeMultiplier: 3,
			LiquidityDropPct:      -30,
			NPumpingDefaultPct:    10,
			MetaCooldown:          3 * time.Hour,
		},
		Quality: QualityConfig{
			Conservative: ModeThresholds{
				MinLiquidity:    50_000,
				MinVolumeRatio:  0.5,
				MinQualityScore: 2,
				MaxDrawdownPct:  30,
			},
			Aggressive: ModeThresholds{
				MinLiquidity:    10_000,
				MinVolumeRatio:  0.2,
				MinQualityScore: 1,
				MaxDrawdownPct:  60,
			},
			Sniper: ModeThresholds{
				MinLiquidity:    2_000,
				MinVolumeRatio:  0.1,
				MinQualityScore: 0,
				MaxDrawdownPct:  80,
			},
		},
		Dex: DexConfig{
			APIURL:       "https://api.dexscreener.com",
			QuoteTTL:     30 * time.Second,
			MinLiquidity: 1000,
		},
		StatsServer: StatsServerConfig{
			Enabled: true,
			Port:    8080,
		},
	}
}

// Load loads configuration from environment variables with defaults.
func Load() *Config {
	def := Defaults()
	return &Config{
		IsProd: envBool("STAGE", "PROD"),

		Telegram: TelegramConfig{
			BotToken: envString("TELEGRAM_BOT_KEY", ""),
			APIURL:   envString("TELEGRAM_API_URL", def.Telegram.APIURL),
		},

		Discord: DiscordConfig{
			BotToken:      envString("DISCORD_BOT_TOKEN", ""),
			ProdChannelID: envString("DISCORD_PROD_CHANNEL_ID", ""),
			BetaChannelID: envString("DISCORD_BETA_CHANNEL_ID", ""),
		},

		Monitor: MonitorConfig{
			PollInterval: envDuration("MONITOR_POLL_INTERVAL", def.Monitor.PollInterval),
			CoinThrottle: envDuration("MONITOR_COIN_THROTTLE", def.Monitor.CoinThrottle),
			FetchTimeout: envDuration("MONITOR_FETCH_TIMEOUT", def.Monitor.FetchTimeout),
			DataFile:     envString("DATA_FILE", def.Monitor.DataFile),
			AlertLogFile: envString("ALERT_LOG_FILE", def.Monitor.AlertLogFile),
		},

		Intel: IntelConfig{
			PatternWindow:         envDuration("PATTERN_WINDOW", def.Intel.PatternWindow),
			DumpPct:               envFloat("BOUNCE_DUMP_PCT", def.Intel.DumpPct),
			StabilizePct:          envFloat("BOUNCE_STABILIZE_PCT", def.Intel.StabilizePct),
			BouncePct:             envFloat("BOUNCE_RECOVERY_PCT", def.Intel.BouncePct),
			ReclaimFraction:       envFloat("RECLAIM_FRACTION", def.Intel.ReclaimFraction),
			VolumeSpikeMultiplier: envFloat("VOLUME_SPIKE_MULTIPLIER", def.Intel.VolumeSpikeMultiplier),
			LiquidityDropPct:      envFloat("LIQUIDITY_DROP_PCT", def.Intel.LiquidityDropPct),
			NPumpingDefaultPct:    envFloat("N_PUMPING_DEFAULT_PCT", def.Intel.NPumpingDefaultPct),
			MetaCooldown:          envDuration("META_COOLDOWN", def.Intel.MetaCooldown),
		},

		Quality: QualityConfig{
			Conservative: ModeThresholds{
				MinLiquidity:    envFloat("QUALITY_CONSERVATIVE_MIN_LIQUIDITY", def.Quality.Conservative.MinLiquidity),
				MinVolumeRatio:  envFloat("QUALITY_CONSERVATIVE_MIN_VOLUME_RATIO", def.Quality.Conservative.MinVolumeRatio),
				MinQualityScore: envInt("QUALITY_CONSERVATIVE_MIN_SCORE", def.Quality.Conservative.MinQualityScore),
				MaxDrawdownPct:  envFloat("QUALITY_CONSERVATIVE_MAX_DD_PCT", def.Quality.Conservative.MaxDrawdownPct),
			},
			Aggressive: ModeThresholds{
				MinLiquidity:    envFloat("QUALITY_AGGRESSIVE_MIN_LIQUIDITY", def.Quality.Aggressive.MinLiquidity),
				MinVolumeRatio:  envFloat("QUALITY_AGGRESSIVE_MIN_VOLUME_RATIO", def.Quality.Aggressive.MinVolumeRatio),
				MinQualityScore: envInt("QUALITY_AGGRESSIVE_MIN_SCORE", def.Quality.Aggressive.MinQualityScore),
				MaxDrawdownPct:  envFloat("QUALITY_AGGRESSIVE_MAX_DD_PCT", def.Quality.Aggressive.MaxDrawdownPct),
			},
			Sniper: ModeThresholds{
				MinLiquidity:    envFloat("QUALITY_SNIPER_MIN_LIQUIDITY", def.Quality.Sniper.MinLiquidity),
				MinVolumeRatio:  envFloat("QUALITY_SNIPER_MIN_VOLUME_RATIO", def.Quality.Sniper.MinVolumeRatio),
				MinQualityScore: envInt("QUALITY_SNIPER_MIN_SCORE", def.Quality.Sniper.MinQualityScore),
				MaxDrawdownPct:  envFloat("QUALITY_SNIPER_MAX_DD_PCT", def.Quality.Sniper.MaxDrawdownPct),
			},
		},

		Dex: DexConfig{
			APIURL:       envString("DEXSCREENER_API_URL", def.Dex.APIURL),
			QuoteTTL:     envDuration("DEX_QUOTE_TTL", def.Dex.QuoteTTL),
			MinLiquidity: envFloat("DEX_MIN_LIQUIDITY", def.Dex.MinLiquidity),
		},

		StatsServer: StatsServerConfig{
			Enabled: envBoolDefault("STATS_SERVER_ENABLED", true),
			Port:    envInt("STATS_SERVER_PORT", def.StatsServer.Port),
		},
	}
}

// Thresholds returns the quality gates for a user mode name, defaulting to
// aggressive for unknown modes.
func (q QualityConfig) Thresholds(mode string) ModeThresholds {
	switch mode {
	case "conservative":
		return q.Conservative
	case "sniper":
		return q.Sniper
	default:
		return q.Aggressive
	}
}

// Helper functions for parsing environment variables

func envString(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envFloat(key string, defaultVal float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func envBool(key, trueValue string) bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(key)), trueValue)
}

func envBoolDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	return strings.EqualFold(v, "true") || strings.EqualFold(v, "1") || strings.EqualFold(v, "yes")
}
