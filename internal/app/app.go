package app

import (
	"context"
	"strings"

	"github.com/NasaVasa/signalbot/internal/config"
	"github.com/NasaVasa/signalbot/internal/delivery/telegram"
	"github.com/NasaVasa/signalbot/internal/infra/bybit"
	"github.com/NasaVasa/signalbot/internal/infra/db"
	"github.com/NasaVasa/signalbot/internal/infra/llm"
	"github.com/NasaVasa/signalbot/internal/infra/log"
	"github.com/NasaVasa/signalbot/internal/usecase"
	"go.uber.org/zap"
)

type App struct {
	bot       *telegram.Bot
	schedules *usecase.ScheduleManager
	logger    *zap.Logger
	cleanupFn func() error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := log.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	channelID, err := cfg.ChannelID()
	if err != nil {
		return nil, err
	}

	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	cleanup := func() error {
		sqlDB, err := dbConn.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	settingsRepo := db.NewSettingsRepository(dbConn)
	signalRepo := db.NewSignalRepository(dbConn)

	marketClient, err := bybit.NewClient(cfg.BybitBaseURL, cfg.BybitTimeout, cfg.BybitKlineLimit, cfg.ProxyURL, logger.Named("bybit"))
	if err != nil {
		_ = cleanup()
		return nil, err
	}
	analyzer, err := llm.NewAnalyzer(llm.Options{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		Model:          cfg.OpenAIModel,
		Timeout:        cfg.OpenAITimeout,
		LiteratureURLs: splitList(cfg.LiteratureURLs),
	}, logger.Named("llm"))
	if err != nil {
		_ = cleanup()
		return nil, err
	}
	if analyzer.LocalMode() {
		logger.Warn("OPENAI_API_KEY not set, analyzer runs in local mode and never signals")
	}

	api, err := telegram.NewAPI(cfg.TelegramBotToken)
	if err != nil {
		_ = cleanup()
		return nil, err
	}
	notifier := telegram.NewNotifier(api, logger)

	params := usecase.DedupParams{
		CooldownHours:       cfg.SignalCooldownHours,
		TolerancePct:        cfg.SignalTolerancePct,
		ConfidenceTolerance: cfg.SignalConfidenceTolerance,
	}
	detector := usecase.NewDuplicateDetector(signalRepo)
	evaluation := usecase.NewEvaluationUsecase(settingsRepo, signalRepo, marketClient, analyzer, detector, notifier, channelID, params, logger)

	schedules := usecase.NewScheduleManager(ctx, settingsRepo, evaluation.RunScheduled, log.NewCronLogger(logger), logger)
	settingsUC := usecase.NewSettingsUsecase(settingsRepo, schedules)

	handlers := telegram.NewHandlers(settingsUC, evaluation, logger)
	bot := telegram.NewBot(api, handlers, cfg.TelegramPollTimeout, logger)

	logger.Info(
		"signal bot configured",
		zap.String("db_driver", cfg.DBDriver),
		zap.Bool("channel_configured", channelID != 0),
		zap.Float64("cooldown_hours", params.CooldownHours),
		zap.Float64("tolerance_pct", params.TolerancePct),
		zap.Float64("confidence_tolerance", params.ConfidenceTolerance),
	)

	return &App{bot: bot, schedules: schedules, logger: logger, cleanupFn: cleanup}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("signal bot starting")
	if err := a.schedules.StartAll(ctx); err != nil {
		a.logger.Warn("failed to restore schedules for existing users", zap.Error(err))
	}

	a.logger.Info("signal bot started")
	return a.bot.Start(ctx)
}

func (a *App) Shutdown() {
	a.logger.Info("signal bot shutting down")
	a.schedules.StopAll()
	if a.cleanupFn != nil {
		if err := a.cleanupFn(); err != nil {
			a.logger.Warn("failed to close database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
