package usecase

import (
	"context"

	"github.com/NasaVasa/signalbot/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Append(ctx context.Context, record *domain.SignalRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockLedger) MostRecent(ctx context.Context, userID int64, symbol string) (*domain.SignalRecord, error) {
	args := m.Called(ctx, userID, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SignalRecord), args.Error(1)
}

func (m *MockLedger) Recent(ctx context.Context, userID int64, limit int) ([]domain.SignalRecord, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SignalRecord), args.Error(1)
}

type MockSettingsStore struct {
	mock.Mock
}

func (m *MockSettingsStore) Get(ctx context.Context, userID int64) (*domain.UserSettings, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserSettings), args.Error(1)
}

func (m *MockSettingsStore) Upsert(ctx context.Context, userID int64, patch domain.SettingsPatch) error {
	args := m.Called(ctx, userID, patch)
	return args.Error(0)
}

func (m *MockSettingsStore) ListAll(ctx context.Context) ([]domain.UserSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserSettings), args.Error(1)
}

type MockMarketData struct {
	mock.Mock
}

func (m *MockMarketData) CandlePack(ctx context.Context, symbol string, category domain.Category) (domain.CandlePack, error) {
	args := m.Called(ctx, symbol, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.CandlePack), args.Error(1)
}

type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.Candidate, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Candidate), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(chatID int64, text string) error {
	args := m.Called(chatID, text)
	return args.Error(0)
}

func ptr[T any](v T) *T {
	return &v
}
