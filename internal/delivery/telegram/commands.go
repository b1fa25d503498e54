package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/NasaVasa/signalbot/internal/domain"
	"github.com/NasaVasa/signalbot/internal/usecase"
)

const HelpText = `Commands:
/start - register and show current settings
/help - show this help
/status - show current settings
/settings - settings menu (buttons)
/setpairs BTCUSDT,TRXUSDT - set pairs
/setfreq 5m|1h|1d - check frequency (seconds or with s/m/h/d)
/setsens low|medium|high - sensitivity
/setcat spot|linear - market category
/testonce - run a check now
/history - last published signals
/debugbtn - button test
`

const historyLimit = 10

var ErrInvalidArguments = errors.New("invalid arguments")

type FrequencyPreset struct {
	Label   string
	Seconds int
}

var FrequencyPresets = []FrequencyPreset{
	{Label: "1m", Seconds: 60},
	{Label: "5m", Seconds: 300},
	{Label: "15m", Seconds: 900},
	{Label: "1h", Seconds: 3600},
	{Label: "4h", Seconds: 14400},
	{Label: "1d", Seconds: 86400},
}

// Callback data prefixes of the settings keyboard.
const (
	callbackFrequency   = "freq"
	callbackSensitivity = "sens"
	callbackCategory    = "cat"
	callbackPairsEdit   = "pairs:edit"
	callbackPing        = "dbg:ping"
)

func ParseRequiredArg(args string) (string, error) {
	value := strings.TrimSpace(args)
	if value == "" {
		return "", ErrInvalidArguments
	}
	return value, nil
}

// ParseCallback splits "kind:value" callback data.
func ParseCallback(data string) (kind, value string) {
	data = strings.TrimSpace(data)
	kind, value, _ = strings.Cut(data, ":")
	return kind, value
}

func ParseFrequencyCallback(value string) (int, error) {
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds <= 0 {
		return 0, ErrInvalidArguments
	}
	return seconds, nil
}

func formatSettings(settings *domain.UserSettings) string {
	return fmt.Sprintf(
		"Pairs: %s\nFrequency: %ds\nSensitivity: %s\nCategory: %s",
		strings.Join(settings.Pairs, ","),
		settings.FrequencySeconds,
		settings.Sensitivity,
		settings.Category,
	)
}

func formatHistory(records []domain.SignalRecord) string {
	if len(records) == 0 {
		return "No signals published yet."
	}
	var builder strings.Builder
	builder.WriteString("Last signals:\n")
	for _, record := range records {
		confidence := "n/a"
		if record.Confidence != nil {
			confidence = fmt.Sprintf("%.2f", *record.Confidence)
		}
		builder.WriteString(fmt.Sprintf(
			"#%d %s %s conf %s entry %s tp %s sl %s at %s\n",
			record.ID,
			record.Symbol,
			record.SignalType,
			confidence,
			usecase.FormatPrice(record.Entry),
			usecase.FormatPrice(record.TakeProfit),
			usecase.FormatPrice(record.StopLoss),
			record.CreatedAt.UTC().Format(time.DateTime),
		))
	}
	return builder.String()
}

func formatPassReport(report *usecase.PassReport) string {
	return fmt.Sprintf(
		"Test check complete: %d symbols, %d published, %d duplicates, %d filtered.",
		len(report.Results),
		report.Count(usecase.OutcomePublished),
		report.Count(usecase.OutcomeDuplicate),
		report.Count(usecase.OutcomeFiltered),
	)
}
