package bybit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NasaVasa/signalbot/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, 5*time.Second, 200, "", zap.NewNop())
	require.NoError(t, err)
	return client
}

const klineBody = `{
	"retCode": 0,
	"retMsg": "OK",
	"result": {
		"category": "spot",
		"symbol": "BTCUSDT",
		"list": [
			["1700000200000", "102", "110", "101", "108", "12.5", "1300"],
			["1700000100000", "100", "103", "99", "102", "10", "1000"],
			["bad", "1", "1", "1", "1", "1", "1"],
			["1700000000000", "98", "101", "97", "100", "8", "800"]
		]
	}
}`

func TestKlinesParsesAndSortsAscending(t *testing.T) {
	var query atomic.Value
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/market/kline", r.URL.Path)
		query.Store(r.URL.Query())
		_, _ = w.Write([]byte(klineBody))
	})

	candles, err := client.Klines(context.Background(), " btc/usdt", domain.CategorySpot, domain.TimeframeDaily)
	require.NoError(t, err)
	require.Len(t, candles, 3)

	assert.Equal(t, int64(1700000000000), candles[0].OpenTime)
	assert.Equal(t, int64(1700000200000), candles[2].OpenTime)
	assert.True(t, decimal.RequireFromString("108").Equal(candles[2].Close))
	assert.True(t, decimal.RequireFromString("12.5").Equal(candles[2].Volume))

	values := query.Load().(url.Values)
	assert.Equal(t, []string{"BTCUSDT"}, values["symbol"])
	assert.Equal(t, []string{"spot"}, values["category"])
	assert.Equal(t, []string{"D"}, values["interval"])
	assert.Equal(t, []string{"200"}, values["limit"])
}

func TestKlinesReturnsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"retCode":10001,"retMsg":"params error: symbol invalid","result":{}}`))
	})

	_, err := client.Klines(context.Background(), "NOPEUSDT", domain.CategorySpot, domain.TimeframeDaily)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, int64(10001), apiErr.Code)
	assert.Contains(t, apiErr.Message, "symbol invalid")
}

func TestKlinesEmptyListIsNoData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":{"list":[]}}`))
	})

	_, err := client.Klines(context.Background(), "BTCUSDT", domain.CategorySpot, domain.TimeframeWeekly)
	assert.ErrorIs(t, err, domain.ErrNoData)
}

func TestKlinesHTTPStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.Klines(context.Background(), "BTCUSDT", domain.CategorySpot, domain.TimeframeWeekly)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestCandlePackFetchesAllTimeframes(t *testing.T) {
	var (
		mu        sync.Mutex
		intervals []string
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		intervals = append(intervals, r.URL.Query().Get("interval"))
		mu.Unlock()
		_, _ = w.Write([]byte(klineBody))
	})

	pack, err := client.CandlePack(context.Background(), "BTCUSDT", domain.CategoryLinear)
	require.NoError(t, err)

	mu.Lock()
	assert.Equal(t, []string{"W", "D", "240"}, intervals)
	mu.Unlock()
	for _, tf := range domain.AnalysisTimeframes {
		last, ok := pack.LastClose(tf)
		require.True(t, ok)
		assert.True(t, decimal.RequireFromString("108").Equal(last))
	}
}

func TestCandlePackFailsOnAnyTimeframe(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("interval") == "240" {
			_, _ = w.Write([]byte(`{"retCode":0,"result":{"list":[]}}`))
			return
		}
		_, _ = w.Write([]byte(klineBody))
	})

	_, err := client.CandlePack(context.Background(), "BTCUSDT", domain.CategorySpot)
	require.ErrorIs(t, err, domain.ErrNoData)
	assert.Contains(t, err.Error(), "BTCUSDT 4H")
}

func TestNewClientRejectsBadProxy(t *testing.T) {
	_, err := NewClient("https://api.bybit.com", time.Second, 200, "://bad", zap.NewNop())
	assert.Error(t, err)
}
