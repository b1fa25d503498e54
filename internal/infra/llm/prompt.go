package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/NasaVasa/signalbot/internal/domain"
)

const systemPrompt = "You output ONLY JSON that matches the user's schema."

const promptInstructions = `

INSTRUCTIONS:
- Return STRICT JSON only, no markdown, no comments, no text around.
- Use numbers (not strings) for numeric fields.
- Do NOT include literature links in the output.
`

// timeframeKeys names the summaries the way the prompt refers to them.
var timeframeKeys = map[domain.Timeframe]string{
	domain.TimeframeWeekly: "weekly",
	domain.TimeframeDaily:  "daily",
	domain.Timeframe4h:     "h4",
}

type promptParams struct {
	MAWindow    int                `json:"ma_window"`
	MACD        MACDConfig         `json:"macd"`
	Sensitivity domain.Sensitivity `json:"sensitivity"`
}

type promptContext struct {
	NowUTC       string             `json:"now_utc"`
	Symbol       string             `json:"symbol"`
	Params       promptParams       `json:"params"`
	Summaries    map[string]Summary `json:"summaries"`
	Literature   []string           `json:"literature,omitempty"`
	OutputSchema map[string]string  `json:"PROMPT_JSON_SCHEMA"`
}

func buildPrompt(now time.Time, req domain.AnalysisRequest, summaries map[string]Summary, literature []string) (string, error) {
	body := promptContext{
		NowUTC: now.UTC().Format("2006-01-02T15:04:05Z"),
		Symbol: req.Symbol,
		Params: promptParams{
			MAWindow:    defaultMAWindow,
			MACD:        defaultMACD,
			Sensitivity: req.Sensitivity,
		},
		Summaries:    summaries,
		Literature:   literature,
		OutputSchema: outputSchemaHint,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s UTC. Analyze %s on three timeframes: W, D, 4H. ", body.NowUTC, req.Symbol)
	b.WriteString("The JSON below holds OHLCV summaries and indicators. Return strictly JSON matching the schema.")
	b.WriteString("\n\nCONTEXT_JSON:\n")
	b.Write(raw)
	b.WriteString(promptInstructions)
	return b.String(), nil
}
