package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/NasaVasa/signalbot/internal/domain"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	Timeout        time.Duration
	LiteratureURLs []string
}

// Analyzer asks a chat-completion model for a buy/no-buy decision on a
// candle pack. Model failures never surface as errors: they become a
// no-signal candidate whose rationale starts with "LLM error:".
type Analyzer struct {
	opts   Options
	client *http.Client
	schema *jsonschema.Schema
	logger *zap.Logger
	now    func() time.Time
}

func NewAnalyzer(opts Options, logger *zap.Logger) (*Analyzer, error) {
	schema, err := compileSignalSchema()
	if err != nil {
		return nil, fmt.Errorf("compile signal schema: %w", err)
	}
	opts.BaseURL = strings.TrimSuffix(strings.TrimRight(opts.BaseURL, "/"), "/chat/completions")
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openai.com/v1"
	}
	return &Analyzer{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		schema: schema,
		logger: logger,
		now:    time.Now,
	}, nil
}

// LocalMode reports whether the analyzer runs without a model.
func (a *Analyzer) LocalMode() bool {
	return strings.TrimSpace(a.opts.APIKey) == ""
}

func (a *Analyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.Candidate, error) {
	summaries := make(map[string]Summary, len(domain.AnalysisTimeframes))
	var missing []string
	for _, tf := range domain.AnalysisTimeframes {
		summary, err := Summarize(req.Pack[tf], defaultMAWindow, defaultMACD)
		if err != nil {
			missing = append(missing, tf.Label())
			continue
		}
		summaries[timeframeKeys[tf]] = summary
	}
	if len(missing) > 0 {
		return domain.Candidate{
			Rationale: fmt.Sprintf("Insufficient market data for %s. Analysis skipped.", strings.Join(missing, ", ")),
		}, nil
	}

	if a.LocalMode() {
		return domain.Candidate{
			Rationale: fmt.Sprintf("LOCAL MODE: no OPENAI_API_KEY. Close(4H)=%g, MA/MACD computed, model not called.", summaries["h4"].Close),
		}, nil
	}

	prompt, err := buildPrompt(a.now(), req, summaries, a.opts.LiteratureURLs)
	if err != nil {
		return domain.Candidate{}, err
	}

	content, err := a.complete(ctx, prompt)
	var candidate domain.Candidate
	if err == nil {
		candidate, err = decodeCandidate(a.schema, content)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Candidate{}, ctxErr
		}
		a.logger.Warn("model analysis failed", zap.String("symbol", req.Symbol), zap.Error(err))
		return domain.Candidate{Rationale: fmt.Sprintf("LLM error: %v", err)}, nil
	}
	return candidate, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
	Messages       []chatMessage     `json:"messages"`
}

func (a *Analyzer) complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:          a.opts.Model,
		Temperature:    0,
		ResponseFormat: map[string]string{"type": "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}

	endpoint := a.opts.BaseURL + "/chat/completions"
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+a.opts.APIKey)

	start := time.Now()
	response, err := a.client.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", err
	}
	a.logger.Debug(
		"model request complete",
		zap.String("model", a.opts.Model),
		zap.Int("status", response.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if response.StatusCode/100 != 2 {
		message := strings.TrimSpace(gjson.GetBytes(body, "error.message").String())
		if message == "" {
			message = response.Status
		}
		return "", fmt.Errorf("status=%d: %s", response.StatusCode, message)
	}

	content := gjson.GetBytes(body, "choices.0.message.content")
	if !content.Exists() {
		return "", fmt.Errorf("empty choices")
	}
	return content.String(), nil
}
