package usecase

import "github.com/NasaVasa/signalbot/internal/domain"

// Lower sensitivity means a higher confidence bar.
var confidenceThresholds = map[domain.Sensitivity]float64{
	domain.SensitivityLow:    0.80,
	domain.SensitivityMedium: 0.60,
	domain.SensitivityHigh:   0.40,
}

// ThresholdFor returns the minimum confidence a buy signal needs before it is
// published. Unknown tiers get the medium threshold.
func ThresholdFor(tier domain.Sensitivity) float64 {
	if threshold, ok := confidenceThresholds[tier]; ok {
		return threshold
	}
	return confidenceThresholds[domain.SensitivityMedium]
}
