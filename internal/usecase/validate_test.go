package usecase

import (
	"errors"
	"testing"

	"github.com/NasaVasa/signalbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{input: "300", want: 300},
		{input: "10", want: 60},
		{input: "5m", want: 300},
		{input: " 1H ", want: 3600},
		{input: "4h", want: 14400},
		{input: "1d", want: 86400},
		{input: "30s", want: 60},
		{input: "90d", want: domain.MaxFrequencySeconds},
		{input: "99999999", want: domain.MaxFrequencySeconds},
		{input: "9999999999999d", want: domain.MaxFrequencySeconds},
		{input: "99999999999999999999m", want: domain.MaxFrequencySeconds},
		{input: "99999999999999999999", want: domain.MaxFrequencySeconds},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFrequency(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFrequencyRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "soon", "5w", "-5", "1.5h", "h1"} {
		_, err := ParseFrequency(input)
		require.Error(t, err, "input %q", input)

		var validationErr *ValidationError
		require.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "frequency", validationErr.Field)
		assert.ErrorIs(t, err, ErrInvalidFrequency)
	}
}

func TestNormalizePairs(t *testing.T) {
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, NormalizePairs(" btc/usdt, ETHUSDT ,btcusdt,,"))
	assert.Equal(t, []string{"TRXUSDT"}, NormalizePairs("trx usdt"))
	assert.Equal(t, []string{domain.FallbackPair}, NormalizePairs(" , ,"))
	assert.Equal(t, []string{domain.FallbackPair}, NormalizePairs(""))
}

func TestValidateSensitivity(t *testing.T) {
	got, err := ValidateSensitivity(" HIGH ")
	require.NoError(t, err)
	assert.Equal(t, domain.SensitivityHigh, got)

	_, err = ValidateSensitivity("extreme")
	assert.ErrorIs(t, err, ErrInvalidSensitivity)
}

func TestValidateCategory(t *testing.T) {
	got, err := ValidateCategory("Linear")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryLinear, got)

	_, err = ValidateCategory("inverse")
	assert.ErrorIs(t, err, ErrInvalidCategory)
}
