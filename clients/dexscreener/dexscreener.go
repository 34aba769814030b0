package dexscreener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"
	"trenchwatch/config"

	"go.uber.org/zap"
)

// ErrUnavailable is returned when market data cannot be obtained for a token
// after all retries, or when no pair passes the liquidity floor. Callers skip
// the coin for the pass and try again next time.
var ErrUnavailable = errors.New("market data unavailable")

const fetchAttempts = 3

// Quote is a normalized market-data sample for a token.
type Quote struct {
	PriceUSD  float64
	MarketCap float64
	Volume24h float64
	Liquidity float64
	Symbol    string
	FetchedAt time.Time
}

// Client fetches token quotes from the DexScreener public API.
type Client struct {
	logger       *zap.Logger
	httpClient   *http.Client
	baseURL      string
	minLiquidity float64

	quoteTTL time.Duration
	mu       sync.Mutex
	cache    map[string]Quote
}

func NewClient(logger *zap.Logger, cfg *config.Config) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		logger: logger,
		httpClient: &http.Client{
			Timeout: cfg.Monitor.FetchTimeout,
		},
		baseURL:      cfg.Dex.APIURL,
		minLiquidity: cfg.Dex.MinLiquidity,
		quoteTTL:     cfg.Dex.QuoteTTL,
		cache:        make(map[string]Quote),
	}
}

// ---- DexScreener API types (minimal; add fields as you need) ----

type tokenResponse struct {
	Pairs []pair `json:"pairs"`
}

type pair struct {
	PriceUSD  string    `json:"priceUsd"`
	FDV       float64   `json:"fdv"`
	MarketCap float64   `json:"marketCap"`
	Volume    volumes   `json:"volume"`
	Liquidity liquidity `json:"liquidity"`
	BaseToken baseToken `json:"baseToken"`
}

type volumes struct {
	H24 float64 `json:"h24"`
}

type liquidity struct {
	USD float64 `json:"usd"`
}

type baseToken struct {
	Symbol string `json:"symbol"`
}

// Quote returns current market data for a contract address. Recently fetched
// quotes are served from cache so several users tracking the same coin share
// one upstream call per pass.
func (c *Client) Quote(ctx context.Context, ca string) (Quote, error) {
	now := time.Now()

	c.mu.Lock()
	if q, ok := c.cache[ca]; ok && now.Sub(q.FetchedAt) < c.quoteTTL {
		c.mu.Unlock()
		return q, nil
	}
	c.mu.Unlock()

	q, err := c.fetchWithRetry(ctx, ca)
	if err != nil {
		return Quote{}, err
	}

	c.mu.Lock()
	c.cache[ca] = q
	c.mu.Unlock()
	return q, nil
}

func (c *Client) fetchWithRetry(ctx context.Context, ca string) (Quote, error) {
	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			// 500ms, 1s
			backoff := 500 * time.Millisecond << (attempt - 1)
			select {
			case <-ctx.Done():
				return Quote{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		q, err := c.fetch(ctx, ca)
		if err == nil {
			return q, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Quote{}, err
		}
		lastErr = err
		c.logger.Warn("dexscreener fetch failed",
			zap.String("ca", ca),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return Quote{}, fmt.Errorf("%w: %s: %v", ErrUnavailable, ca, lastErr)
}

func (c *Client) fetch(ctx context.Context, ca string) (Quote, error) {
	url := fmt.Sprintf("%s/latest/dex/tokens/%s", c.baseURL, ca)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("fetch token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("dexscreener returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Quote{}, fmt.Errorf("read response: %w", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return Quote{}, fmt.Errorf("parse response: %w", err)
	}

	best, ok := c.bestPair(tr.Pairs)
	if !ok {
		return Quote{}, fmt.Errorf("no pair with liquidity >= %.0f for %s", c.minLiquidity, ca)
	}

	price, _ := strconv.ParseFloat(best.PriceUSD, 64)
	mc := best.MarketCap
	if mc == 0 {
		mc = best.FDV
	}

	return Quote{
		PriceUSD:  price,
		MarketCap: mc,
		Volume24h: best.Volume.H24,
		Liquidity: best.Liquidity.USD,
		Symbol:    best.BaseToken.Symbol,
		FetchedAt: time.Now(),
	}, nil
}

// bestPair picks the deepest pool. Thin pools report junk prices, so anything
// under the liquidity floor is ignored outright.
func (c *Client) bestPair(pairs []pair) (pair, bool) {
	var best pair
	found := false
	for _, p := range pairs {
		if p.Liquidity.USD < c.minLiquidity {
			continue
		}
		if !found || p.Liquidity.USD > best.Liquidity.USD {
			best = p
			found = true
		}
	}
	return best, found
}
