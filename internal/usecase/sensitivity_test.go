package usecase

import (
	"testing"

	"github.com/NasaVasa/signalbot/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestThresholdFor(t *testing.T) {
	assert.Equal(t, 0.80, ThresholdFor(domain.SensitivityLow))
	assert.Equal(t, 0.60, ThresholdFor(domain.SensitivityMedium))
	assert.Equal(t, 0.40, ThresholdFor(domain.SensitivityHigh))
}

func TestThresholdForUnknownTierFallsBackToMedium(t *testing.T) {
	for _, tier := range []domain.Sensitivity{"unknown", "", "LOW", "extreme"} {
		assert.Equal(t, 0.60, ThresholdFor(tier), "tier %q", tier)
	}
}
