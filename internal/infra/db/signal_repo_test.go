package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NasaVasa/signalbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendThenMostRecentReturnsRecord(t *testing.T) {
	ctx := context.Background()
	repo := NewSignalRepository(openTestDB(t))

	record := &domain.SignalRecord{
		UserID:      1,
		Symbol:      "BTCUSDT",
		Confidence:  ptr(0.75),
		Entry:       ptr(100.0),
		TakeProfit:  ptr(110.0),
		StopLoss:    ptr(95.0),
		ExitHorizon: ptr("2-3 days"),
	}
	require.NoError(t, repo.Append(ctx, record))
	assert.NotZero(t, record.ID)
	assert.False(t, record.CreatedAt.IsZero())
	assert.Equal(t, domain.SignalBuy, record.SignalType)

	got, err := repo.MostRecent(ctx, 1, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, *record, *got)
}

func TestAppendKeepsAbsentFields(t *testing.T) {
	ctx := context.Background()
	repo := NewSignalRepository(openTestDB(t))

	require.NoError(t, repo.Append(ctx, &domain.SignalRecord{UserID: 1, Symbol: "BTCUSDT"}))

	got, err := repo.MostRecent(ctx, 1, "BTCUSDT")
	require.NoError(t, err)
	assert.Nil(t, got.Confidence)
	assert.Nil(t, got.Entry)
	assert.Nil(t, got.TakeProfit)
	assert.Nil(t, got.StopLoss)
	assert.Nil(t, got.ExitHorizon)
}

func TestAppendAssignsIncreasingIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewSignalRepository(openTestDB(t))

	first := &domain.SignalRecord{UserID: 1, Symbol: "BTCUSDT"}
	second := &domain.SignalRecord{UserID: 1, Symbol: "BTCUSDT", ID: 1}
	require.NoError(t, repo.Append(ctx, first))
	require.NoError(t, repo.Append(ctx, second))
	assert.Greater(t, second.ID, first.ID)
}

func TestMostRecentUnknownPair(t *testing.T) {
	ctx := context.Background()
	repo := NewSignalRepository(openTestDB(t))
	require.NoError(t, repo.Append(ctx, &domain.SignalRecord{UserID: 1, Symbol: "BTCUSDT"}))

	_, err := repo.MostRecent(ctx, 1, "ETHUSDT")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.MostRecent(ctx, 2, "BTCUSDT")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMostRecentOrdersByTimeThenID(t *testing.T) {
	ctx := context.Background()
	repo := NewSignalRepository(openTestDB(t))
	base := time.Unix(1_700_000_000, 0)

	newest := &domain.SignalRecord{UserID: 1, Symbol: "BTCUSDT", Entry: ptr(3.0), CreatedAt: base.Add(time.Hour)}
	older := &domain.SignalRecord{UserID: 1, Symbol: "BTCUSDT", Entry: ptr(1.0), CreatedAt: base}
	require.NoError(t, repo.Append(ctx, newest))
	require.NoError(t, repo.Append(ctx, older))

	got, err := repo.MostRecent(ctx, 1, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, newest.ID, got.ID)

	tieFirst := &domain.SignalRecord{UserID: 1, Symbol: "ETHUSDT", CreatedAt: base}
	tieSecond := &domain.SignalRecord{UserID: 1, Symbol: "ETHUSDT", CreatedAt: base}
	require.NoError(t, repo.Append(ctx, tieFirst))
	require.NoError(t, repo.Append(ctx, tieSecond))

	got, err = repo.MostRecent(ctx, 1, "ETHUSDT")
	require.NoError(t, err)
	assert.Equal(t, tieSecond.ID, got.ID)
}

func TestRecentAcrossSymbols(t *testing.T) {
	ctx := context.Background()
	repo := NewSignalRepository(openTestDB(t))
	base := time.Unix(1_700_000_000, 0)

	symbols := []string{"BTCUSDT", "ETHUSDT", "INJUSDT", "TRXUSDT"}
	for i, symbol := range symbols {
		require.NoError(t, repo.Append(ctx, &domain.SignalRecord{
			UserID:    1,
			Symbol:    symbol,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Append(ctx, &domain.SignalRecord{UserID: 2, Symbol: "BTCUSDT", CreatedAt: base.Add(time.Hour)}))

	got, err := repo.Recent(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "TRXUSDT", got[0].Symbol)
	assert.Equal(t, "INJUSDT", got[1].Symbol)
	assert.Equal(t, "ETHUSDT", got[2].Symbol)

	got, err = repo.Recent(ctx, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAppendFailureIsReported(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	repo := NewSignalRepository(conn)
	closeDB(t, conn)

	record := &domain.SignalRecord{UserID: 1, Symbol: "BTCUSDT"}
	err := repo.Append(ctx, record)
	require.Error(t, err)

	var storageErr *domain.StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, "signals.append", storageErr.Op)
	assert.Zero(t, record.ID)

	_, err = repo.MostRecent(ctx, 1, "BTCUSDT")
	require.True(t, errors.As(err, &storageErr))
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}
