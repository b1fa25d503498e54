package usecase

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/NasaVasa/signalbot/internal/domain"
)

var (
	ErrInvalidFrequency   = errors.New("invalid frequency")
	ErrInvalidSensitivity = errors.New("invalid sensitivity")
	ErrInvalidCategory    = errors.New("invalid category")
)

// ValidationError describes a settings value rejected before it reaches the
// store.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

var frequencyPattern = regexp.MustCompile(`^(\d+)([smhd]?)$`)

var frequencyUnits = map[string]int{"": 1, "s": 1, "m": 60, "h": 3600, "d": 86400}

// ParseFrequency accepts plain seconds ("300") or a count with a unit
// ("5m", "1h", "1d") and clamps the result into the allowed range. Counts too
// large for an int clamp to the maximum as well.
func ParseFrequency(input string) (int, error) {
	value := strings.ToLower(strings.TrimSpace(input))
	match := frequencyPattern.FindStringSubmatch(value)
	if match == nil {
		return 0, &ValidationError{Field: "frequency", Value: input, Err: ErrInvalidFrequency}
	}

	n, err := strconv.Atoi(match[1])
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return domain.MaxFrequencySeconds, nil
		}
		return 0, &ValidationError{Field: "frequency", Value: input, Err: ErrInvalidFrequency}
	}
	unit := frequencyUnits[match[2]]
	if n > domain.MaxFrequencySeconds/unit {
		return domain.MaxFrequencySeconds, nil
	}
	return ClampFrequency(n * unit), nil
}

func ClampFrequency(seconds int) int {
	if seconds < domain.MinFrequencySeconds {
		return domain.MinFrequencySeconds
	}
	if seconds > domain.MaxFrequencySeconds {
		return domain.MaxFrequencySeconds
	}
	return seconds
}

// NormalizePairs splits a comma-separated list, uppercases it, strips "/"
// and drops duplicates while keeping order. An empty result falls back to
// domain.FallbackPair.
func NormalizePairs(input string) []string {
	seen := make(map[string]struct{})
	var pairs []string
	for _, raw := range strings.Split(input, ",") {
		pair := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), "/", ""))
		pair = strings.Join(strings.Fields(pair), "")
		if pair == "" {
			continue
		}
		if _, ok := seen[pair]; ok {
			continue
		}
		seen[pair] = struct{}{}
		pairs = append(pairs, pair)
	}
	if len(pairs) == 0 {
		return []string{domain.FallbackPair}
	}
	return pairs
}

func ValidateSensitivity(input string) (domain.Sensitivity, error) {
	switch value := domain.Sensitivity(strings.ToLower(strings.TrimSpace(input))); value {
	case domain.SensitivityLow, domain.SensitivityMedium, domain.SensitivityHigh:
		return value, nil
	default:
		return "", &ValidationError{Field: "sensitivity", Value: input, Err: ErrInvalidSensitivity}
	}
}

func ValidateCategory(input string) (domain.Category, error) {
	switch value := domain.Category(strings.ToLower(strings.TrimSpace(input))); value {
	case domain.CategorySpot, domain.CategoryLinear:
		return value, nil
	default:
		return "", &ValidationError{Field: "category", Value: input, Err: ErrInvalidCategory}
	}
}
