package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/NasaVasa/signalbot/internal/domain"
	"github.com/NasaVasa/signalbot/internal/usecase"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender is the part of *tgbotapi.BotAPI the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type SettingsService interface {
	Ensure(ctx context.Context, userID int64) (*domain.UserSettings, error)
	SetPairs(ctx context.Context, userID int64, input string) ([]string, error)
	SetFrequency(ctx context.Context, userID int64, input string) (int, error)
	SetFrequencySeconds(ctx context.Context, userID int64, seconds int) (int, error)
	SetSensitivity(ctx context.Context, userID int64, input string) (domain.Sensitivity, error)
	SetCategory(ctx context.Context, userID int64, input string) (domain.Category, error)
}

type EvaluationService interface {
	RunPass(ctx context.Context, userID int64) (*usecase.PassReport, error)
	History(ctx context.Context, userID int64, limit int) ([]domain.SignalRecord, error)
}

type Handlers struct {
	settings   SettingsService
	evaluation EvaluationService
	logger     *zap.Logger

	mu            sync.Mutex
	awaitingPairs map[int64]bool
}

func NewHandlers(settings SettingsService, evaluation EvaluationService, logger *zap.Logger) *Handlers {
	return &Handlers{
		settings:      settings,
		evaluation:    evaluation,
		logger:        logger,
		awaitingPairs: make(map[int64]bool),
	}
}

func (h *Handlers) HandleUpdate(ctx context.Context, api Sender, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.handleCallback(ctx, api, update.CallbackQuery)
		return
	}
	if update.Message == nil || update.Message.From == nil {
		return
	}
	if update.Message.IsCommand() {
		h.handleCommand(ctx, api, update)
		return
	}
	h.handleText(ctx, api, update.Message)
}

func (h *Handlers) handleCommand(ctx context.Context, api Sender, update tgbotapi.Update) {
	command := update.Message.Command()
	args := update.Message.CommandArguments()
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	h.logger.Info(
		"telegram command received",
		zap.Int64("chat_id", chatID),
		zap.Int64("telegram_user_id", userID),
		zap.String("username", update.Message.From.UserName),
		zap.String("command", command),
		zap.String("args", args),
	)

	if command == "help" {
		h.reply(api, chatID, HelpText)
		return
	}

	settings, err := h.settings.Ensure(ctx, userID)
	if err != nil {
		h.logger.Warn("ensure user failed", zap.Int64("telegram_user_id", userID), zap.Error(err))
		h.reply(api, chatID, h.userErrorMessage(err))
		return
	}

	switch command {
	case "start":
		h.reply(api, chatID, "Hi! I am a crypto signal bot.\n\n"+HelpText+"\nCurrent settings:\n"+formatSettings(settings))
	case "status":
		h.reply(api, chatID, formatSettings(settings))
	case "settings":
		h.sendSettingsMenu(api, chatID, settings)
	case "debugbtn":
		msg := tgbotapi.NewMessage(chatID, "Press the button, a callback should arrive.")
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("PING", callbackPing)),
		)
		h.send(api, msg)
	case "setpairs":
		input, err := ParseRequiredArg(args)
		if err != nil {
			h.reply(api, chatID, "Usage: /setpairs BTCUSDT,TRXUSDT")
			return
		}
		pairs, err := h.settings.SetPairs(ctx, userID, input)
		if err != nil {
			h.fail(api, chatID, userID, command, err)
			return
		}
		h.logger.Info("pairs updated", zap.Int64("telegram_user_id", userID), zap.Strings("pairs", pairs))
		h.reply(api, chatID, "OK. Pairs: "+strings.Join(pairs, ","))
	case "setfreq":
		input, err := ParseRequiredArg(args)
		if err != nil {
			h.reply(api, chatID, "Usage: /setfreq 5m or /setfreq 1h")
			return
		}
		seconds, err := h.settings.SetFrequency(ctx, userID, input)
		if err != nil {
			h.fail(api, chatID, userID, command, err)
			return
		}
		h.logger.Info("frequency updated", zap.Int64("telegram_user_id", userID), zap.Int("seconds", seconds))
		h.reply(api, chatID, fmt.Sprintf("OK. Frequency: %d sec", seconds))
	case "setsens":
		input, err := ParseRequiredArg(args)
		if err != nil {
			h.reply(api, chatID, "Usage: /setsens low|medium|high")
			return
		}
		sensitivity, err := h.settings.SetSensitivity(ctx, userID, input)
		if err != nil {
			h.fail(api, chatID, userID, command, err)
			return
		}
		h.reply(api, chatID, fmt.Sprintf("OK. Sensitivity: %s", sensitivity))
	case "setcat":
		input, err := ParseRequiredArg(args)
		if err != nil {
			h.reply(api, chatID, "Usage: /setcat spot|linear")
			return
		}
		category, err := h.settings.SetCategory(ctx, userID, input)
		if err != nil {
			h.fail(api, chatID, userID, command, err)
			return
		}
		h.reply(api, chatID, fmt.Sprintf("OK. Category: %s", category))
	case "testonce":
		report, err := h.evaluation.RunPass(ctx, userID)
		if err != nil {
			h.fail(api, chatID, userID, command, err)
			return
		}
		h.reply(api, chatID, formatPassReport(report))
	case "history":
		records, err := h.evaluation.History(ctx, userID, historyLimit)
		if err != nil {
			h.fail(api, chatID, userID, command, err)
			return
		}
		h.reply(api, chatID, formatHistory(records))
	default:
		h.logger.Warn("unknown command", zap.Int64("telegram_user_id", userID), zap.String("command", command))
		h.reply(api, chatID, "Unknown command.\n\n"+HelpText)
	}
}

func (h *Handlers) handleCallback(ctx context.Context, api Sender, query *tgbotapi.CallbackQuery) {
	if query.From == nil || query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID
	userID := query.From.ID
	data := strings.TrimSpace(query.Data)

	if _, err := api.Request(tgbotapi.NewCallback(query.ID, "callback: "+data)); err != nil {
		h.logger.Debug("callback answer failed", zap.Error(err))
	}
	h.logger.Info("telegram callback received", zap.Int64("telegram_user_id", userID), zap.String("data", data))

	if _, err := h.settings.Ensure(ctx, userID); err != nil {
		h.reply(api, chatID, h.userErrorMessage(err))
		return
	}

	switch kind, value := ParseCallback(data); {
	case data == callbackPing:
		h.reply(api, chatID, "pong")
	case data == callbackPairsEdit:
		h.mu.Lock()
		h.awaitingPairs[userID] = true
		h.mu.Unlock()
		msg := tgbotapi.NewMessage(chatID, "Send pairs separated by commas, for example: BTCUSDT,TRXUSDT,INJUSDT")
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
		h.send(api, msg)
	case kind == callbackFrequency:
		seconds, err := ParseFrequencyCallback(value)
		if err == nil {
			seconds, err = h.settings.SetFrequencySeconds(ctx, userID, seconds)
		}
		if err != nil {
			h.fail(api, chatID, userID, data, err)
			break
		}
		h.reply(api, chatID, fmt.Sprintf("Frequency: %d sec", seconds))
	case kind == callbackSensitivity:
		sensitivity, err := h.settings.SetSensitivity(ctx, userID, value)
		if err != nil {
			h.fail(api, chatID, userID, data, err)
			break
		}
		h.reply(api, chatID, fmt.Sprintf("Sensitivity: %s", sensitivity))
	case kind == callbackCategory:
		category, err := h.settings.SetCategory(ctx, userID, value)
		if err != nil {
			h.fail(api, chatID, userID, data, err)
			break
		}
		h.reply(api, chatID, fmt.Sprintf("Category: %s", category))
	default:
		h.reply(api, chatID, "Unknown button.")
	}

	if data == callbackPing || data == callbackPairsEdit {
		return
	}
	settings, err := h.settings.Ensure(ctx, userID)
	if err != nil {
		h.reply(api, chatID, h.userErrorMessage(err))
		return
	}
	h.sendSettingsMenu(api, chatID, settings)
}

// handleText takes the next plain message after "pairs:edit" as a pair list.
// Other free text is ignored.
func (h *Handlers) handleText(ctx context.Context, api Sender, message *tgbotapi.Message) {
	userID := message.From.ID
	h.mu.Lock()
	awaiting := h.awaitingPairs[userID]
	delete(h.awaitingPairs, userID)
	h.mu.Unlock()
	if !awaiting {
		return
	}

	chatID := message.Chat.ID
	pairs, err := h.settings.SetPairs(ctx, userID, message.Text)
	if err != nil {
		h.fail(api, chatID, userID, "pairs:input", err)
		return
	}
	msg := tgbotapi.NewMessage(chatID, "Pairs updated: "+strings.Join(pairs, ","))
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	h.send(api, msg)

	settings, err := h.settings.Ensure(ctx, userID)
	if err != nil {
		h.reply(api, chatID, h.userErrorMessage(err))
		return
	}
	h.sendSettingsMenu(api, chatID, settings)
}

func (h *Handlers) sendSettingsMenu(api Sender, chatID int64, settings *domain.UserSettings) {
	msg := tgbotapi.NewMessage(chatID, "Bot settings\n"+formatSettings(settings)+"\n\nPick a value below:")
	msg.ReplyMarkup = settingsKeyboard(settings)
	h.send(api, msg)
}

func settingsKeyboard(settings *domain.UserSettings) tgbotapi.InlineKeyboardMarkup {
	marked := func(label string, active bool) string {
		if active {
			return "• " + label
		}
		return label
	}

	freqRow := make([]tgbotapi.InlineKeyboardButton, 0, len(FrequencyPresets))
	for _, preset := range FrequencyPresets {
		freqRow = append(freqRow, tgbotapi.NewInlineKeyboardButtonData(
			marked(preset.Label, preset.Seconds == settings.FrequencySeconds),
			fmt.Sprintf("%s:%d", callbackFrequency, preset.Seconds),
		))
	}

	var sensRow []tgbotapi.InlineKeyboardButton
	for _, tier := range []domain.Sensitivity{domain.SensitivityLow, domain.SensitivityMedium, domain.SensitivityHigh} {
		sensRow = append(sensRow, tgbotapi.NewInlineKeyboardButtonData(
			marked(string(tier), tier == settings.Sensitivity),
			callbackSensitivity+":"+string(tier),
		))
	}

	var catRow []tgbotapi.InlineKeyboardButton
	for _, category := range []domain.Category{domain.CategorySpot, domain.CategoryLinear} {
		catRow = append(catRow, tgbotapi.NewInlineKeyboardButtonData(
			marked(string(category), category == settings.Category),
			callbackCategory+":"+string(category),
		))
	}

	return tgbotapi.NewInlineKeyboardMarkup(
		freqRow,
		sensRow,
		catRow,
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Edit pairs", callbackPairsEdit)),
	)
}

func (h *Handlers) fail(api Sender, chatID, userID int64, action string, err error) {
	h.logger.Warn("telegram action failed", zap.Int64("telegram_user_id", userID), zap.String("action", action), zap.Error(err))
	h.reply(api, chatID, h.userErrorMessage(err))
}

func (h *Handlers) userErrorMessage(err error) string {
	var storageErr *domain.StorageError
	switch {
	case errors.Is(err, usecase.ErrUserNotRegistered):
		return "Please /start to register first."
	case errors.Is(err, usecase.ErrInvalidFrequency):
		return "Invalid frequency. Use seconds or a value like 5m, 1h, 1d."
	case errors.Is(err, usecase.ErrInvalidSensitivity):
		return "Invalid sensitivity. Use low, medium or high."
	case errors.Is(err, usecase.ErrInvalidCategory):
		return "Invalid category. Use spot or linear."
	case errors.Is(err, ErrInvalidArguments):
		return "Invalid arguments."
	case errors.As(err, &storageErr):
		return "Storage is unavailable right now. Please try again later."
	}

	h.logger.Warn("unhandled error", zap.Error(err))
	return "Something went wrong. Please try again."
}

func (h *Handlers) reply(api Sender, chatID int64, text string) {
	h.send(api, tgbotapi.NewMessage(chatID, text))
}

func (h *Handlers) send(api Sender, msg tgbotapi.MessageConfig) {
	if _, err := api.Send(msg); err != nil {
		h.logger.Warn("failed to send message", zap.Error(err))
	}
}
