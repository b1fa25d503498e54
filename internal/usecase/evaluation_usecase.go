package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/NasaVasa/signalbot/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrUserNotRegistered = errors.New("user not registered")

type Notifier interface {
	Notify(chatID int64, text string) error
}

type Outcome string

const (
	OutcomeNoSignal      Outcome = "no_signal"
	OutcomeFiltered      Outcome = "filtered"
	OutcomeDuplicate     Outcome = "duplicate"
	OutcomePublished     Outcome = "published"
	OutcomeDataError     Outcome = "data_error"
	OutcomeAnalysisError Outcome = "analysis_error"
	OutcomeStorageError  Outcome = "storage_error"
)

type SymbolResult struct {
	Symbol  string
	Outcome Outcome
	Err     error
	Record  *domain.SignalRecord
}

type PassReport struct {
	UserID  int64
	Results []SymbolResult
}

func (r PassReport) Count(outcome Outcome) int {
	n := 0
	for _, result := range r.Results {
		if result.Outcome == outcome {
			n++
		}
	}
	return n
}

// EvaluationUsecase runs one evaluation pass for a user: candles, analysis,
// confidence gate, duplicate check, ledger append and publication.
type EvaluationUsecase struct {
	settings  domain.SettingsStore
	ledger    domain.SignalLedger
	market    domain.MarketDataClient
	analyzer  domain.Analyzer
	detector  *DuplicateDetector
	notifier  Notifier
	channelID int64
	params    DedupParams
	logger    *zap.Logger
}

func NewEvaluationUsecase(
	settings domain.SettingsStore,
	ledger domain.SignalLedger,
	market domain.MarketDataClient,
	analyzer domain.Analyzer,
	detector *DuplicateDetector,
	notifier Notifier,
	channelID int64,
	params DedupParams,
	logger *zap.Logger,
) *EvaluationUsecase {
	return &EvaluationUsecase{
		settings:  settings,
		ledger:    ledger,
		market:    market,
		analyzer:  analyzer,
		detector:  detector,
		notifier:  notifier,
		channelID: channelID,
		params:    params,
		logger:    logger,
	}
}

// RunScheduled is the job body handed to the scheduler.
func (u *EvaluationUsecase) RunScheduled(ctx context.Context, userID int64) {
	report, err := u.RunPass(ctx, userID)
	if err != nil {
		u.logger.Warn("evaluation pass failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	u.logger.Info(
		"evaluation pass complete",
		zap.Int64("user_id", userID),
		zap.Int("symbols", len(report.Results)),
		zap.Int("published", report.Count(OutcomePublished)),
		zap.Int("duplicates", report.Count(OutcomeDuplicate)),
	)
}

func (u *EvaluationUsecase) RunPass(ctx context.Context, userID int64) (*PassReport, error) {
	settings, err := u.settings.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotRegistered
		}
		return nil, err
	}

	threshold := ThresholdFor(settings.Sensitivity)
	summary := []string{
		"Update: analysis started.",
		fmt.Sprintf("Pairs: %s", strings.Join(settings.Pairs, ",")),
		fmt.Sprintf("Frequency: %ds", settings.FrequencySeconds),
		fmt.Sprintf("Sensitivity: %s (publish threshold %.2f)", settings.Sensitivity, threshold),
		fmt.Sprintf("Category: %s", settings.Category),
		"",
	}

	report := &PassReport{UserID: userID}
	for _, symbol := range settings.Pairs {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		result, line := u.evaluateSymbol(ctx, settings, symbol, threshold)
		report.Results = append(report.Results, result)
		summary = append(summary, line)
	}

	u.notify(userID, strings.Join(summary, "\n"))
	return report, nil
}

func (u *EvaluationUsecase) evaluateSymbol(ctx context.Context, settings *domain.UserSettings, symbol string, threshold float64) (SymbolResult, string) {
	userID := settings.UserID
	result := SymbolResult{Symbol: symbol}

	pack, err := u.market.CandlePack(ctx, symbol, settings.Category)
	if err != nil {
		u.logger.Warn("candle fetch failed", zap.Int64("user_id", userID), zap.String("symbol", symbol), zap.Error(err))
		u.notify(userID, fmt.Sprintf("[DATA ERROR] %s: %v", symbol, err))
		result.Outcome, result.Err = OutcomeDataError, err
		return result, fmt.Sprintf("• %s: data error: %v", symbol, err)
	}
	line := fmt.Sprintf("• %s: %s", symbol, closesPreview(pack))

	candidate, err := u.analyzer.Analyze(ctx, domain.AnalysisRequest{Symbol: symbol, Pack: pack, Sensitivity: settings.Sensitivity})
	if err != nil {
		u.logger.Warn("analysis failed", zap.Int64("user_id", userID), zap.String("symbol", symbol), zap.Error(err))
		u.notify(userID, fmt.Sprintf("[ANALYSIS ERROR] %s: %v", symbol, err))
		result.Outcome, result.Err = OutcomeAnalysisError, err
		return result, line
	}

	if !candidate.Buy {
		u.notify(userID, fmt.Sprintf("[NO SIGNAL] %s: %s", symbol, candidate.Rationale))
		result.Outcome = OutcomeNoSignal
		return result, line
	}

	confidence := 0.0
	if candidate.Confidence != nil {
		confidence = *candidate.Confidence
	}
	if confidence < threshold {
		u.notify(userID, fmt.Sprintf("[FILTERED] %s: buy confidence %.2f below threshold %.2f for %s", symbol, confidence, threshold, settings.Sensitivity))
		result.Outcome = OutcomeFiltered
		return result, line
	}

	duplicate, err := u.detector.IsDuplicate(ctx, userID, symbol, candidate, u.params)
	if err != nil {
		u.logger.Error("duplicate check failed", zap.Int64("user_id", userID), zap.String("symbol", symbol), zap.Error(err))
		u.notify(userID, fmt.Sprintf("[STORAGE ERROR] %s: duplicate check failed, signal not published", symbol))
		result.Outcome, result.Err = OutcomeStorageError, err
		return result, line
	}
	if duplicate {
		u.logger.Info("duplicate signal suppressed", zap.Int64("user_id", userID), zap.String("symbol", symbol))
		u.notify(userID, fmt.Sprintf("[DUPLICATE] %s: similar signal already published within %gh, suppressed", symbol, u.params.CooldownHours))
		result.Outcome = OutcomeDuplicate
		return result, line
	}

	record := candidate.Record(userID, symbol)
	if err := u.ledger.Append(ctx, &record); err != nil {
		u.logger.Error("signal append failed", zap.Int64("user_id", userID), zap.String("symbol", symbol), zap.Error(err))
		u.notify(userID, fmt.Sprintf("[STORAGE ERROR] %s: could not record signal, not published", symbol))
		result.Outcome, result.Err = OutcomeStorageError, err
		return result, line
	}

	if u.channelID != 0 {
		u.notify(u.channelID, FormatSignal(symbol, candidate))
	}
	u.notify(userID, fmt.Sprintf("[SIGNAL] %s: buy (confidence %.2f) published.", symbol, confidence))
	u.logger.Info("signal published", zap.Int64("user_id", userID), zap.String("symbol", symbol), zap.Uint("signal_id", record.ID))

	result.Outcome = OutcomePublished
	result.Record = &record
	return result, line
}

func (u *EvaluationUsecase) notify(chatID int64, text string) {
	if err := u.notifier.Notify(chatID, text); err != nil {
		u.logger.Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func closesPreview(pack domain.CandlePack) string {
	parts := make([]string, 0, len(domain.AnalysisTimeframes))
	for _, tf := range domain.AnalysisTimeframes {
		value := "n/a"
		if last, ok := pack.LastClose(tf); ok {
			value = last.String()
		}
		parts = append(parts, fmt.Sprintf("%s: close=%s", tf.Label(), value))
	}
	return strings.Join(parts, "; ")
}

// FormatSignal renders a published signal for the channel.
func FormatSignal(symbol string, candidate domain.Candidate) string {
	horizon := "n/a"
	if candidate.ExitHorizon != nil {
		horizon = *candidate.ExitHorizon
	}
	confidence := "n/a"
	if candidate.Confidence != nil {
		confidence = fmt.Sprintf("%.2f", *candidate.Confidence)
	}
	return fmt.Sprintf(
		"SIGNAL BUY: %s\nentry: %s\ntake_profit: %s\nstop_loss: %s\nexit_horizon: %s\nconfidence: %s\nrationale: %s",
		symbol,
		FormatPrice(candidate.Entry),
		FormatPrice(candidate.TakeProfit),
		FormatPrice(candidate.StopLoss),
		horizon,
		confidence,
		candidate.Rationale,
	)
}

func FormatPrice(value *float64) string {
	if value == nil {
		return "n/a"
	}
	return decimal.NewFromFloat(*value).String()
}

// History returns the user's most recent published signals, newest first.
func (u *EvaluationUsecase) History(ctx context.Context, userID int64, limit int) ([]domain.SignalRecord, error) {
	return u.ledger.Recent(ctx, userID, limit)
}
