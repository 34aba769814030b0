package app

import (
	"context"
	"errors"
	"time"
	"trenchwatch/clients/dexscreener"
	"trenchwatch/clients/notifier"
	"trenchwatch/config"
	"trenchwatch/internal/metrics"
	"trenchwatch/internal/store"

	"go.uber.org/zap"
)

// MarketDataSource provides current market data for a token. Implemented by
// the DexScreener client; faked in tests.
type MarketDataSource interface {
	Quote(ctx context.Context, ca string) (dexscreener.Quote, error)
}

// Persistence loads and saves the full dataset.
type Persistence interface {
	Load() (store.Dataset, error)
	Save(ds store.Dataset) error
}

// Monitor is the single long-running polling loop: each pass loads the
// dataset, walks every user's coins and lists, evaluates alert rules against
// fresh market data, dispatches what fires, and persists the updated state.
// Passes never overlap; the next one starts only after the previous pass has
// persisted and the poll interval has elapsed.
type Monitor struct {
	logger   *zap.Logger
	cfg      *config.Config
	store    Persistence
	alertLog *store.AlertLog
	dex      MarketDataSource
	notifier notifier.Notifier

	history *HistoryTracker
	engine  *AlertRuleEngine
	meta    *MetaEvaluator

	stats *PassStats
}

func NewMonitor(
	logger *zap.Logger,
	cfg *config.Config,
	persistence Persistence,
	alertLog *store.AlertLog,
	dex MarketDataSource,
	sink notifier.Notifier,
) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		logger:   logger,
		cfg:      cfg,
		store:    persistence,
		alertLog: alertLog,
		dex:      dex,
		notifier: sink,
		history:  NewHistoryTracker(cfg.Intel.RetentionWindow()),
		engine:   NewAlertRuleEngine(cfg.Intel, cfg.Quality),
		meta:     NewMetaEvaluator(cfg.Intel),
		stats:    NewPassStats(),
	}
}

// Stats exposes the pass counters for the stats server.
func (m *Monitor) Stats() *PassStats {
	return m.stats
}

// Run executes passes until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor loop running",
		zap.Duration("pollInterval", m.cfg.Monitor.PollInterval),
	)

	for {
		start := time.Now()
		if err := m.runPass(ctx); err != nil {
			if ctx.Err() != nil {
				m.logger.Info("monitor loop stopped")
				return nil
			}
			// A failed pass is logged and retried on the next tick; the
			// process stays up.
			m.logger.Error("monitor pass failed", zap.Error(err))
		}
		metrics.RecordPass(time.Since(start))
		m.stats.PassCompleted(time.Since(start))

		select {
		case <-ctx.Done():
			m.logger.Info("monitor loop stopped")
			return nil
		case <-time.After(m.cfg.Monitor.PollInterval):
		}
	}
}

// runPass executes one full monitoring pass: load, evaluate everything,
// persist.
func (m *Monitor) runPass(ctx context.Context) error {
	ds, err := m.store.Load()
	if err != nil {
		return err
	}

	// Quotes observed this pass, shared with the list-level rules so meta
	// evaluation reuses per-coin fetches instead of refetching.
	quotes := make(map[string]store.Observation)

	for _, userID := range ds.UserIDs() {
		user := ds[userID]
		if user == nil {
			continue
		}
		if err := m.processUser(ctx, userID, user, quotes); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.logger.Error("user processing failed",
				zap.String("user", userID),
				zap.Error(err),
			)
			continue
		}
	}

	if err := m.store.Save(ds); err != nil {
		return err
	}
	if err := m.alertLog.Save(); err != nil {
		m.logger.Error("failed to persist alert log", zap.Error(err))
	}
	return nil
}

func (m *Monitor) processUser(ctx context.Context, userID string, user *store.UserData, quotes map[string]store.Observation) error {
	mode := user.Profile.QualityMode()

	for _, coin := range user.Coins {
		if err := ctx.Err(); err != nil {
			return err
		}
		if coin == nil || coin.ContractAddress == "" {
			// Malformed entry; skip it, never the batch.
			m.logger.Warn("skipping coin without contract address", zap.String("user", userID))
			continue
		}
		if coin.Paused {
			continue
		}

		m.processCoin(ctx, userID, user, coin, mode, quotes)

		// Throttle between external calls
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.cfg.Monitor.CoinThrottle):
		}
	}

	now := time.Now()
	for _, list := range user.Lists {
		if list == nil {
			continue
		}
		if alert, ok := m.meta.Evaluate(list, user, quotes, now); ok {
			alert.Silent = user.Profile.Silent()
			m.dispatch(userID, alert)
			list.MarkMetaTriggered(string(alert.Kind), now)
		}
	}

	return nil
}

func (m *Monitor) processCoin(ctx context.Context, userID string, user *store.UserData, coin *store.TrackedCoin, mode store.Mode, quotes map[string]store.Observation) {
	metrics.CoinsEvaluated.Inc()

	quote, err := m.dex.Quote(ctx, coin.ContractAddress)
	metrics.RecordQuoteFetch(err)
	if err != nil {
		// Unavailable data just means no update this pass. The coin is
		// retried next pass with no state change.
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			m.logger.Warn("market data unavailable",
				zap.String("ca", coin.ContractAddress),
				zap.Error(err),
			)
		}
		return
	}

	obs := store.Observation{
		MarketCap: quote.MarketCap,
		Volume24h: quote.Volume24h,
		Liquidity: quote.Liquidity,
		Timestamp: quote.FetchedAt,
	}
	quotes[coin.ContractAddress] = obs

	if coin.Symbol == "" {
		coin.Symbol = quote.Symbol
	}
	if coin.StartMarketCap == 0 {
		coin.StartMarketCap = quote.MarketCap
	}

	m.history.Update(coin, obs)

	if m.engine.Suppressed(obs, mode) {
		metrics.AlertsSuppressed.WithLabelValues(string(mode)).Inc()
		m.stats.AlertSuppressed()
		return
	}

	now := obs.Timestamp
	fired := m.engine.Evaluate(coin, obs, now)
	combos := m.engine.EvaluateCombos(coin, obs)

	silent := user.Profile.Silent()

	for _, alert := range fired {
		alert.Silent = silent
		m.dispatch(userID, alert)
		coin.MarkTriggered(string(alert.Kind))
	}
	for _, alert := range combos {
		alert.Silent = silent
		m.dispatch(userID, alert)
		coin.MarkComboTriggered(string(alert.Kind))
	}
}

// dispatch sends one alert and records it. A delivery failure is logged and
// counted but never blocks the latch: at-most-once intent.
func (m *Monitor) dispatch(userID string, alert notifier.CoinAlert) {
	metrics.AlertsFired.WithLabelValues(string(alert.Kind)).Inc()
	m.stats.AlertFired(string(alert.Kind))

	if err := m.notifier.SendCoinAlert(userID, alert); err != nil {
		metrics.AlertSendFailures.Inc()
		m.logger.Error("alert delivery failed",
			zap.String("user", userID),
			zap.String("kind", string(alert.Kind)),
			zap.Error(err),
		)
	}

	m.alertLog.Append(userID, store.AlertRecord{
		Timestamp:       alert.Timestamp,
		Kind:            string(alert.Kind),
		ContractAddress: alert.ContractAddress,
		Symbol:          alert.Symbol,
		ListName:        alert.ListName,
		MarketCap:       alert.MarketCap,
	})
}
