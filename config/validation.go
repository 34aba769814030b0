package config

import (
	"errors"
	"fmt"
)

// Validate rejects configurations that would make the monitor misbehave
// rather than merely alert differently. Threshold tuning is the operator's
// business; signs, zeros and inverted ranges are not.
func (c *Config) Validate() error {
	var errs []error

	if c.Monitor.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("monitor poll interval must be positive, got %v", c.Monitor.PollInterval))
	}
	if c.Monitor.CoinThrottle < 0 {
		errs = append(errs, fmt.Errorf("coin throttle must not be negative, got %v", c.Monitor.CoinThrottle))
	}
	if c.Monitor.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("fetch timeout must be positive, got %v", c.Monitor.FetchTimeout))
	}
	if c.Monitor.DataFile == "" {
		errs = append(errs, errors.New("data file path must not be empty"))
	}

	if c.Intel.PatternWindow <= 0 {
		errs = append(errs, fmt.Errorf("pattern window must be positive, got %v", c.Intel.PatternWindow))
	}
	if c.Intel.DumpPct <= 0 || c.Intel.StabilizePct <= 0 || c.Intel.BouncePct <= 0 {
		errs = append(errs, errors.New("bounce pattern percentages must be positive"))
	}
	if c.Intel.ReclaimFraction <= 0 || c.Intel.ReclaimFraction > 1 {
		errs = append(errs, fmt.Errorf("reclaim fraction must be in (0, 1], got %v", c.Intel.ReclaimFraction))
	}
	if c.Intel.VolumeSpikeMultiplier <= 1 {
		errs = append(errs, fmt.Errorf("volume spike multiplier must exceed 1, got %v", c.Intel.VolumeSpikeMultiplier))
	}
	if c.Intel.LiquidityDropPct >= 0 {
		errs = append(errs, fmt.Errorf("liquidity drop threshold must be negative, got %v", c.Intel.LiquidityDropPct))
	}
	if c.Intel.MetaCooldown < 0 {
		errs = append(errs, fmt.Errorf("meta cooldown must not be negative, got %v", c.Intel.MetaCooldown))
	}

	for _, m := range []struct {
		name string
		t    ModeThresholds
	}{
		{"conservative", c.Quality.Conservative},
		{"aggressive", c.Quality.Aggressive},
		{"sniper", c.Quality.Sniper},
	} {
		if m.t.MinQualityScore < 0 || m.t.MinQualityScore > 3 {
			errs = append(errs, fmt.Errorf("%s min quality score must be in [0, 3], got %d", m.name, m.t.MinQualityScore))
		}
		if m.t.MinLiquidity < 0 || m.t.MinVolumeRatio < 0 {
			errs = append(errs, fmt.Errorf("%s quality floors must not be negative", m.name))
		}
	}

	if c.Dex.APIURL == "" {
		errs = append(errs, errors.New("dexscreener API URL must not be empty"))
	}
	if c.Dex.QuoteTTL < 0 {
		errs = append(errs, fmt.Errorf("quote TTL must not be negative, got %v", c.Dex.QuoteTTL))
	}
	if c.Dex.MinLiquidity < 0 {
		errs = append(errs, fmt.Errorf("pair liquidity floor must not be negative, got %v", c.Dex.MinLiquidity))
	}

	if c.StatsServer.Enabled && (c.StatsServer.Port < 1 || c.StatsServer.Port > 65535) {
		errs = append(errs, fmt.Errorf("stats server port must be in [1, 65535], got %d", c.StatsServer.Port))
	}

	return errors.Join(errs...)
}
