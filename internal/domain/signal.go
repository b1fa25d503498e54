package domain

import "time"

type SignalType string

const (
	SignalBuy SignalType = "buy"
	// SignalSell is reserved; nothing produces it yet.
	SignalSell SignalType = "sell"
)

// SignalRecord is one published signal. Records are written once and never
// updated.
type SignalRecord struct {
	ID          uint
	UserID      int64
	Symbol      string
	SignalType  SignalType
	Confidence  *float64
	Entry       *float64
	TakeProfit  *float64
	StopLoss    *float64
	ExitHorizon *string
	CreatedAt   time.Time
}

// Candidate is a freshly computed signal that has not been checked against
// the ledger yet.
type Candidate struct {
	Buy         bool
	Confidence  *float64
	Entry       *float64
	TakeProfit  *float64
	StopLoss    *float64
	ExitHorizon *string
	Rationale   string
}

// Record turns an accepted candidate into a ledger entry.
func (c Candidate) Record(userID int64, symbol string) SignalRecord {
	return SignalRecord{
		UserID:      userID,
		Symbol:      symbol,
		SignalType:  SignalBuy,
		Confidence:  c.Confidence,
		Entry:       c.Entry,
		TakeProfit:  c.TakeProfit,
		StopLoss:    c.StopLoss,
		ExitHorizon: c.ExitHorizon,
	}
}
