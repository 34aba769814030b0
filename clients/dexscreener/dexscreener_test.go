package dexscreener

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
	"trenchwatch/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Defaults()
	cfg.Dex.APIURL = srv.URL
	return NewClient(nil, cfg), srv
}

const pairsBody = `{
	"pairs": [
		{"priceUsd": "0.001", "marketCap": 90000, "volume": {"h24": 4000}, "liquidity": {"usd": 500}, "baseToken": {"symbol": "THIN"}},
		{"priceUsd": "0.002", "marketCap": 100000, "volume": {"h24": 5000}, "liquidity": {"usd": 40000}, "baseToken": {"symbol": "TKN"}},
		{"priceUsd": "0.002", "marketCap": 99000, "volume": {"h24": 1000}, "liquidity": {"usd": 20000}, "baseToken": {"symbol": "TKN"}}
	]
}`

func TestQuote_PicksDeepestPair(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/tokens/CA1", r.URL.Path)
		w.Write([]byte(pairsBody))
	})

	q, err := client.Quote(context.Background(), "CA1")
	require.NoError(t, err)

	assert.Equal(t, 100_000.0, q.MarketCap)
	assert.Equal(t, 40_000.0, q.Liquidity)
	assert.Equal(t, 5_000.0, q.Volume24h)
	assert.Equal(t, 0.002, q.PriceUSD)
	assert.Equal(t, "TKN", q.Symbol)
	assert.False(t, q.FetchedAt.IsZero())
}

func TestQuote_RejectsOnlyThinPairs(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"pairs": [{"priceUsd": "0.001", "marketCap": 90000, "liquidity": {"usd": 500}}]}`))
	})

	_, err := client.Quote(context.Background(), "CA1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestQuote_FallsBackToFDV(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"pairs": [{"priceUsd": "0.001", "fdv": 77000, "liquidity": {"usd": 30000}}]}`))
	})

	q, err := client.Quote(context.Background(), "CA1")
	require.NoError(t, err)
	assert.Equal(t, 77_000.0, q.MarketCap)
}

func TestQuote_RetriesThenUnavailable(t *testing.T) {
	var calls atomic.Int32
	client, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Quote(context.Background(), "CA1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(fetchAttempts), calls.Load())
}

func TestQuote_RecoversWithinRetries(t *testing.T) {
	var calls atomic.Int32
	client, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(pairsBody))
	})

	q, err := client.Quote(context.Background(), "CA1")
	require.NoError(t, err)
	assert.Equal(t, 100_000.0, q.MarketCap)
}

func TestQuote_ServesFromCache(t *testing.T) {
	var calls atomic.Int32
	client, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Write([]byte(pairsBody))
	})

	_, err := client.Quote(context.Background(), "CA1")
	require.NoError(t, err)
	_, err = client.Quote(context.Background(), "CA1")
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load(), "second quote within TTL should hit the cache")
}

func TestQuote_CacheExpires(t *testing.T) {
	var calls atomic.Int32
	client, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Write([]byte(pairsBody))
	})
	client.quoteTTL = time.Millisecond

	_, err := client.Quote(context.Background(), "CA1")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = client.Quote(context.Background(), "CA1")
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
}

func TestQuote_ContextCancelled(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Quote(ctx, "CA1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
