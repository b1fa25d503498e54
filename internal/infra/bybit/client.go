package bybit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/NasaVasa/signalbot/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const userAgent = "signalbot/1.0"

// APIError is a response whose envelope carries a non-zero retCode.
type APIError struct {
	Code    int64
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bybit error: retCode=%d retMsg=%s", e.Code, e.Message)
}

type Client struct {
	baseURL string
	limit   int
	client  *http.Client
	logger  *zap.Logger
}

// NewClient builds a v5 market data client. An empty proxyURL means a direct
// connection.
func NewClient(baseURL string, timeout time.Duration, limit int, proxyURL string, logger *zap.Logger) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL = strings.TrimSpace(proxyURL); proxyURL != "" {
		proxy, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		limit:   limit,
		client:  &http.Client{Timeout: timeout, Transport: transport},
		logger:  logger,
	}, nil
}

// NormalizeSymbol turns "btc/usdt " into "BTCUSDT".
func NormalizeSymbol(symbol string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(symbol)), "/", "")
}

// CandlePack fetches every analysis timeframe for the symbol. A failure on any
// timeframe fails the whole pack.
func (c *Client) CandlePack(ctx context.Context, symbol string, category domain.Category) (domain.CandlePack, error) {
	pack := make(domain.CandlePack, len(domain.AnalysisTimeframes))
	for _, tf := range domain.AnalysisTimeframes {
		candles, err := c.Klines(ctx, symbol, category, tf)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", NormalizeSymbol(symbol), tf.Label(), err)
		}
		pack[tf] = candles
	}
	return pack, nil
}

// Klines returns candles in ascending open time.
func (c *Client) Klines(ctx context.Context, symbol string, category domain.Category, tf domain.Timeframe) ([]domain.Candle, error) {
	query := url.Values{}
	query.Set("category", string(category))
	query.Set("symbol", NormalizeSymbol(symbol))
	query.Set("interval", string(tf))
	query.Set("limit", strconv.Itoa(c.limit))
	endpoint := fmt.Sprintf("%s/v5/market/kline?%s", c.baseURL, query.Encode())

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("User-Agent", userAgent)

	start := time.Now()
	response, err := c.client.Do(request)
	if err != nil {
		c.logger.Error("bybit request failed", zap.String("url", endpoint), zap.Error(err))
		return nil, err
	}
	defer response.Body.Close()

	c.logger.Debug(
		"bybit request complete",
		zap.String("url", endpoint),
		zap.Int("status", response.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("bybit error: status %d", response.StatusCode)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("bybit error: malformed response")
	}

	envelope := gjson.ParseBytes(body)
	if code := envelope.Get("retCode").Int(); code != 0 {
		return nil, &APIError{Code: code, Message: envelope.Get("retMsg").String()}
	}

	candles := parseKlines(envelope.Get("result.list"))
	if len(candles) == 0 {
		return nil, domain.ErrNoData
	}
	return candles, nil
}

// parseKlines reads rows of [start, open, high, low, close, volume, turnover].
// Malformed rows are skipped.
func parseKlines(list gjson.Result) []domain.Candle {
	var candles []domain.Candle
	list.ForEach(func(_, row gjson.Result) bool {
		fields := row.Array()
		if len(fields) < 5 {
			return true
		}
		openTime, err := strconv.ParseInt(fields[0].String(), 10, 64)
		if err != nil {
			return true
		}
		prices := make([]decimal.Decimal, 4)
		for i := range prices {
			value, err := decimal.NewFromString(fields[i+1].String())
			if err != nil {
				return true
			}
			prices[i] = value
		}
		volume := decimal.Zero
		if len(fields) > 5 {
			if value, err := decimal.NewFromString(fields[5].String()); err == nil {
				volume = value
			}
		}
		candles = append(candles, domain.Candle{
			OpenTime: openTime,
			Open:     prices[0],
			High:     prices[1],
			Low:      prices[2],
			Close:    prices[3],
			Volume:   volume,
		})
		return true
	})

	sort.Slice(candles, func(i, j int) bool { return candles[i].OpenTime < candles[j].OpenTime })
	return candles
}
