package usecase

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/NasaVasa/signalbot/internal/domain"
)

// zeroPriceEpsilon is the absolute band used when the previous price is zero.
const zeroPriceEpsilon = 1e-9

type DedupParams struct {
	CooldownHours       float64
	TolerancePct        float64
	ConfidenceTolerance float64
}

func DefaultDedupParams() DedupParams {
	return DedupParams{CooldownHours: 6, TolerancePct: 0.5, ConfidenceTolerance: 0.03}
}

// DuplicateDetector decides whether a candidate repeats the last published
// signal for the same user and symbol. It keeps no state between calls.
type DuplicateDetector struct {
	ledger domain.SignalLedger
	now    func() time.Time
}

func NewDuplicateDetector(ledger domain.SignalLedger) *DuplicateDetector {
	return &DuplicateDetector{ledger: ledger, now: time.Now}
}

// IsDuplicate runs its checks in a fixed order and stops at the first one
// that settles the answer: history, cooldown, entry/take-profit/stop-loss,
// confidence. Ledger failures are returned as errors, never as "not a
// duplicate".
func (d *DuplicateDetector) IsDuplicate(ctx context.Context, userID int64, symbol string, candidate domain.Candidate, params DedupParams) (bool, error) {
	previous, err := d.ledger.MostRecent(ctx, userID, symbol)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	elapsed := d.now().Sub(previous.CreatedAt).Seconds()
	if elapsed > params.CooldownHours*3600 {
		return false, nil
	}

	pairs := [][2]*float64{
		{candidate.Entry, previous.Entry},
		{candidate.TakeProfit, previous.TakeProfit},
		{candidate.StopLoss, previous.StopLoss},
	}
	for _, pair := range pairs {
		if !pricesClose(pair[0], pair[1], params.TolerancePct) {
			return false, nil
		}
	}

	if candidate.Confidence == nil || previous.Confidence == nil {
		return true, nil
	}
	return math.Abs(*candidate.Confidence-*previous.Confidence) <= params.ConfidenceTolerance, nil
}

// pricesClose treats two absent values as equal and a single absent value as
// a mismatch.
func pricesClose(candidate, previous *float64, tolerancePct float64) bool {
	if candidate == nil || previous == nil {
		return candidate == nil && previous == nil
	}
	diff := math.Abs(*candidate - *previous)
	if *previous == 0 {
		return diff < zeroPriceEpsilon
	}
	return diff/math.Abs(*previous) <= tolerancePct/100
}
