package llm

import (
	"math"

	"github.com/NasaVasa/signalbot/internal/domain"
	"github.com/markcheno/go-talib"
)

const (
	defaultMAWindow = 21
	recentBars      = 10
	tradingDays     = 365
)

type MACDConfig struct {
	Fast   int `json:"fast"`
	Slow   int `json:"slow"`
	Signal int `json:"signal"`
}

var defaultMACD = MACDConfig{Fast: 12, Slow: 26, Signal: 9}

type MACDValue struct {
	MACD   float64 `json:"macd"`
	Signal float64 `json:"signal"`
	Hist   float64 `json:"hist"`
}

type Levels struct {
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	RecentHigh float64 `json:"recent_high"`
	RecentLow  float64 `json:"recent_low"`
}

// Summary condenses one timeframe for the model. Indicators that need more
// bars than are available are left nil.
type Summary struct {
	LastOpenTime int64      `json:"last_ts"`
	Close        float64    `json:"close"`
	MA           *float64   `json:"ma"`
	MACD         *MACDValue `json:"macd"`
	Volatility   *float64   `json:"volatility"`
	Levels       Levels     `json:"levels"`
}

func Summarize(candles []domain.Candle, maWindow int, cfg MACDConfig) (Summary, error) {
	if len(candles) == 0 {
		return Summary{}, domain.ErrNoData
	}

	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close.InexactFloat64()
		highs[i] = c.High.InexactFloat64()
		lows[i] = c.Low.InexactFloat64()
	}

	last := len(candles) - 1
	summary := Summary{
		LastOpenTime: candles[last].OpenTime,
		Close:        closes[last],
		MA:           movingAverage(closes, maWindow),
		MACD:         macd(closes, cfg),
		Volatility:   annualizedVolatility(closes),
	}

	recentFrom := len(candles) - recentBars
	if recentFrom < 0 {
		recentFrom = 0
	}
	summary.Levels = Levels{
		High:       maxOf(highs),
		Low:        minOf(lows),
		RecentHigh: maxOf(highs[recentFrom:]),
		RecentLow:  minOf(lows[recentFrom:]),
	}
	return summary, nil
}

// movingAverage falls back to the mean of the available closes once at least
// half a window exists.
func movingAverage(closes []float64, window int) *float64 {
	if window <= 0 {
		return nil
	}
	if len(closes) >= window {
		sma := talib.Sma(closes, window)
		value := sma[len(sma)-1]
		return &value
	}
	if len(closes) < max(1, window/2) {
		return nil
	}
	sum := 0.0
	for _, c := range closes {
		sum += c
	}
	value := sum / float64(len(closes))
	return &value
}

func macd(closes []float64, cfg MACDConfig) *MACDValue {
	if len(closes) < cfg.Slow+cfg.Signal {
		return nil
	}
	line, signal, hist := talib.Macd(closes, cfg.Fast, cfg.Slow, cfg.Signal)
	if len(line) == 0 {
		return nil
	}
	idx := len(line) - 1
	return &MACDValue{MACD: line[idx], Signal: signal[idx], Hist: hist[idx]}
}

// annualizedVolatility is the sample standard deviation of bar-to-bar returns
// scaled by sqrt(365).
func annualizedVolatility(closes []float64) *float64 {
	returns := make([]float64, 0, len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	if len(returns) < 2 {
		return nil
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)

	value := math.Sqrt(variance) * math.Sqrt(tradingDays)
	return &value
}

func maxOf(values []float64) float64 {
	out := values[0]
	for _, v := range values[1:] {
		out = math.Max(out, v)
	}
	return out
}

func minOf(values []float64) float64 {
	out := values[0]
	for _, v := range values[1:] {
		out = math.Min(out, v)
	}
	return out
}
