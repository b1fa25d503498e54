package db

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/NasaVasa/signalbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsGetUnknownUser(t *testing.T) {
	repo := NewSettingsRepository(openTestDB(t))

	_, err := repo.Get(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSettingsUpsertEmptyPatchCreatesDefaults(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(openTestDB(t))

	require.NoError(t, repo.Upsert(ctx, 42, domain.SettingsPatch{}))

	got, err := repo.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultUserSettings(42), *got)
}

func TestSettingsUpsertEmptyPatchKeepsExistingRow(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(openTestDB(t))

	high := domain.SensitivityHigh
	require.NoError(t, repo.Upsert(ctx, 7, domain.SettingsPatch{
		Pairs:            []string{"ETHUSDT"},
		FrequencySeconds: ptr(300),
		Sensitivity:      &high,
	}))
	require.NoError(t, repo.Upsert(ctx, 7, domain.SettingsPatch{}))

	got, err := repo.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"ETHUSDT"}, got.Pairs)
	assert.Equal(t, 300, got.FrequencySeconds)
	assert.Equal(t, domain.SensitivityHigh, got.Sensitivity)
	assert.Equal(t, domain.CategorySpot, got.Category)
}

func TestSettingsUpsertAppliesOnlySuppliedFields(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(openTestDB(t))

	require.NoError(t, repo.Upsert(ctx, 1, domain.SettingsPatch{FrequencySeconds: ptr(900)}))
	linear := domain.CategoryLinear
	require.NoError(t, repo.Upsert(ctx, 1, domain.SettingsPatch{Category: &linear}))

	got, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPairs, got.Pairs)
	assert.Equal(t, 900, got.FrequencySeconds)
	assert.Equal(t, domain.SensitivityMedium, got.Sensitivity)
	assert.Equal(t, domain.CategoryLinear, got.Category)
}

func TestSettingsListAll(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(openTestDB(t))

	for _, id := range []int64{3, 1, 2} {
		require.NoError(t, repo.Upsert(ctx, id, domain.SettingsPatch{}))
	}

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(1), all[0].UserID)
	assert.Equal(t, int64(2), all[1].UserID)
	assert.Equal(t, int64(3), all[2].UserID)
}

func TestSettingsConcurrentUpsertsForDifferentUsers(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(openTestDB(t))

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			errs <- repo.Upsert(ctx, id, domain.SettingsPatch{Pairs: []string{fmt.Sprintf("P%dUSDT", id)}})
		}(int64(i + 1))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 20)
	for _, settings := range all {
		assert.Equal(t, []string{fmt.Sprintf("P%dUSDT", settings.UserID)}, settings.Pairs)
	}
}

func TestSettingsStorageErrors(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	repo := NewSettingsRepository(conn)
	closeDB(t, conn)

	var storageErr *domain.StorageError

	_, err := repo.Get(ctx, 1)
	require.Error(t, err)
	assert.True(t, errors.As(err, &storageErr))

	err = repo.Upsert(ctx, 1, domain.SettingsPatch{})
	require.Error(t, err)
	assert.True(t, errors.As(err, &storageErr))

	_, err = repo.ListAll(ctx)
	require.Error(t, err)
	assert.True(t, errors.As(err, &storageErr))
}
