package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNoData = errors.New("no data")

type Timeframe string

const (
	TimeframeWeekly Timeframe = "W"
	TimeframeDaily  Timeframe = "D"
	Timeframe4h     Timeframe = "240"
)

// AnalysisTimeframes lists the timeframes fetched for every symbol, widest first.
var AnalysisTimeframes = []Timeframe{TimeframeWeekly, TimeframeDaily, Timeframe4h}

func (t Timeframe) Label() string {
	if t == Timeframe4h {
		return "4H"
	}
	return string(t)
}

type Candle struct {
	OpenTime int64
	Open     decimal.Decimal
	High     decimal.Decimal
	Low      decimal.Decimal
	Close    decimal.Decimal
	Volume   decimal.Decimal
}

// CandlePack holds candles per timeframe in ascending time order.
type CandlePack map[Timeframe][]Candle

func (p CandlePack) LastClose(tf Timeframe) (decimal.Decimal, bool) {
	bars := p[tf]
	if len(bars) == 0 {
		return decimal.Zero, false
	}
	return bars[len(bars)-1].Close, true
}

type MarketDataClient interface {
	CandlePack(ctx context.Context, symbol string, category Category) (CandlePack, error)
}

type AnalysisRequest struct {
	Symbol      string
	Pack        CandlePack
	Sensitivity Sensitivity
}

type Analyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest) (Candidate, error)
}
