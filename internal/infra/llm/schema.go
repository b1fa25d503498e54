package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/NasaVasa/signalbot/internal/domain"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

var ErrNoJSONObject = errors.New("no JSON object in model output")

// signalSchema is the object the model must return. Price levels, horizon and
// confidence become mandatory once buy_signal is true.
const signalSchema = `{
	"type": "object",
	"required": ["buy_signal", "rationale"],
	"properties": {
		"buy_signal": {"type": "boolean"},
		"rationale": {"type": "string"},
		"entry": {"type": ["number", "null"]},
		"take_profit": {"type": ["number", "null"]},
		"stop_loss": {"type": ["number", "null"]},
		"exit_horizon": {"type": ["string", "null"]},
		"confidence": {"type": ["number", "null"], "minimum": 0, "maximum": 1}
	},
	"if": {"properties": {"buy_signal": {"const": true}}},
	"then": {
		"required": ["entry", "take_profit", "stop_loss", "exit_horizon", "confidence"],
		"properties": {
			"entry": {"type": "number"},
			"take_profit": {"type": "number"},
			"stop_loss": {"type": "number"},
			"exit_horizon": {"type": "string"},
			"confidence": {"type": "number"}
		}
	}
}`

// outputSchemaHint is shown to the model inside the prompt.
var outputSchemaHint = map[string]string{
	"buy_signal":   "bool",
	"rationale":    "string",
	"entry":        "number (required if buy_signal=true)",
	"take_profit":  "number (required if buy_signal=true)",
	"stop_loss":    "number (required if buy_signal=true)",
	"exit_horizon": "string (required if buy_signal=true)",
	"confidence":   "number 0..1 (required if buy_signal=true)",
}

func compileSignalSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("signal.json", strings.NewReader(signalSchema)); err != nil {
		return nil, err
	}
	return compiler.Compile("signal.json")
}

// extractObject strips markdown fences and surrounding prose.
func extractObject(content string) (string, error) {
	text := strings.TrimSpace(content)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSONObject
	}
	object := text[start : end+1]
	if !gjson.Valid(object) {
		return "", ErrNoJSONObject
	}
	return object, nil
}

func decodeCandidate(schema *jsonschema.Schema, content string) (domain.Candidate, error) {
	object, err := extractObject(content)
	if err != nil {
		return domain.Candidate{}, err
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(object), &doc); err != nil {
		return domain.Candidate{}, err
	}
	if err := schema.Validate(doc); err != nil {
		return domain.Candidate{}, fmt.Errorf("model output rejected: %w", err)
	}

	parsed := gjson.Parse(object)
	return domain.Candidate{
		Buy:         parsed.Get("buy_signal").Bool(),
		Rationale:   parsed.Get("rationale").String(),
		Entry:       numberField(parsed, "entry"),
		TakeProfit:  numberField(parsed, "take_profit"),
		StopLoss:    numberField(parsed, "stop_loss"),
		Confidence:  numberField(parsed, "confidence"),
		ExitHorizon: stringField(parsed, "exit_horizon"),
	}, nil
}

func numberField(doc gjson.Result, path string) *float64 {
	value := doc.Get(path)
	if value.Type != gjson.Number {
		return nil
	}
	f := value.Float()
	return &f
}

func stringField(doc gjson.Result, path string) *string {
	value := doc.Get(path)
	if value.Type != gjson.String {
		return nil
	}
	s := value.String()
	return &s
}
