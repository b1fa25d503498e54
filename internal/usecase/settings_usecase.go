package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/NasaVasa/signalbot/internal/domain"
)

type ScheduleUpdater interface {
	UpsertUser(userID int64, frequencySeconds int)
	Interval(userID int64) (time.Duration, bool)
}

// SettingsUsecase validates user input and keeps the schedule in step with
// the stored frequency.
type SettingsUsecase struct {
	store     domain.SettingsStore
	schedules ScheduleUpdater
}

func NewSettingsUsecase(store domain.SettingsStore, schedules ScheduleUpdater) *SettingsUsecase {
	return &SettingsUsecase{store: store, schedules: schedules}
}

// Ensure returns the user's settings, creating the default row on first
// contact. A user without a running job gets one at the stored frequency.
func (u *SettingsUsecase) Ensure(ctx context.Context, userID int64) (*domain.UserSettings, error) {
	settings, err := u.store.Get(ctx, userID)
	if err == nil {
		if _, ok := u.schedules.Interval(userID); !ok {
			u.schedules.UpsertUser(userID, settings.FrequencySeconds)
		}
		return settings, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if err := u.store.Upsert(ctx, userID, domain.SettingsPatch{}); err != nil {
		return nil, err
	}
	settings, err = u.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.schedules.UpsertUser(userID, settings.FrequencySeconds)
	return settings, nil
}

func (u *SettingsUsecase) SetPairs(ctx context.Context, userID int64, input string) ([]string, error) {
	pairs := NormalizePairs(input)
	if err := u.store.Upsert(ctx, userID, domain.SettingsPatch{Pairs: pairs}); err != nil {
		return nil, err
	}
	return pairs, nil
}

func (u *SettingsUsecase) SetFrequency(ctx context.Context, userID int64, input string) (int, error) {
	seconds, err := ParseFrequency(input)
	if err != nil {
		return 0, err
	}
	return u.SetFrequencySeconds(ctx, userID, seconds)
}

func (u *SettingsUsecase) SetFrequencySeconds(ctx context.Context, userID int64, seconds int) (int, error) {
	seconds = ClampFrequency(seconds)
	if err := u.store.Upsert(ctx, userID, domain.SettingsPatch{FrequencySeconds: &seconds}); err != nil {
		return 0, err
	}
	u.schedules.UpsertUser(userID, seconds)
	return seconds, nil
}

func (u *SettingsUsecase) SetSensitivity(ctx context.Context, userID int64, input string) (domain.Sensitivity, error) {
	sensitivity, err := ValidateSensitivity(input)
	if err != nil {
		return "", err
	}
	if err := u.store.Upsert(ctx, userID, domain.SettingsPatch{Sensitivity: &sensitivity}); err != nil {
		return "", err
	}
	return sensitivity, nil
}

func (u *SettingsUsecase) SetCategory(ctx context.Context, userID int64, input string) (domain.Category, error) {
	category, err := ValidateCategory(input)
	if err != nil {
		return "", err
	}
	if err := u.store.Upsert(ctx, userID, domain.SettingsPatch{Category: &category}); err != nil {
		return "", err
	}
	return category, nil
}
