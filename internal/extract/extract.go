// Package extract turns free text into loosely typed property fields and
// search criteria using an OpenAI-compatible chat model.
package extract

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

const (
	DefaultModel       = "gpt-4o"
	DefaultTemperature = 0.2
)

// Config configures the chat model. A nil Temperature selects
// DefaultTemperature.
type Config struct {
	BaseURL     string
	Token       string
	Model       string
	Temperature *float64
	Timeout     time.Duration
}

// Extractor asks a chat model to return the fields it found as a JSON
// object. Values are passed on as the model produced them; coercion is the
// caller's job.
type Extractor struct {
	model       llms.Model
	temperature float64
	logger      *slog.Logger
}

// New creates an extractor backed by the OpenAI chat completions API.
func New(cfg Config, logger *slog.Logger) (*Extractor, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	opts := []openai.Option{
		openai.WithToken(cfg.Token),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(&http.Client{Timeout: timeout}),
		openai.WithCallback(LogCallbackHandler{Logger: logger}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, oops.In("extract").Code("llm_init").Wrapf(err, "failed to create chat model")
	}

	temperature := DefaultTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	return NewWithModel(llm, temperature, logger), nil
}

// NewWithModel creates an extractor around an existing model.
func NewWithModel(model llms.Model, temperature float64, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		model:       model,
		temperature: temperature,
		logger:      logger.With("component", "extract"),
	}
}

// ExtractProperty returns the property fields mentioned in text.
func (e *Extractor) ExtractProperty(ctx context.Context, text string) (map[string]any, error) {
	return e.extract(ctx, propertyPrompt, "User's text:\n"+text)
}

// ExtractCriteria returns the search criteria mentioned in text.
func (e *Extractor) ExtractCriteria(ctx context.Context, text string) (map[string]any, error) {
	return e.extract(ctx, criteriaPrompt, "User's request:\n"+text)
}

func (e *Extractor) extract(ctx context.Context, system, user string) (map[string]any, error) {
	resp, err := e.model.GenerateContent(ctx,
		[]llms.MessageContent{
			llms.TextParts(schema.ChatMessageTypeSystem, system),
			llms.TextParts(schema.ChatMessageTypeHuman, user),
		},
		llms.WithTemperature(e.temperature),
		llms.WithJSONMode(),
	)
	if err != nil {
		return nil, oops.In("extract").Code("llm_call").Wrapf(err, "chat completion failed")
	}
	if len(resp.Choices) == 0 {
		return map[string]any{}, nil
	}

	result, err := parseObject(resp.Choices[0].Content)
	if err != nil {
		// A malformed answer means nothing was recognized, not a failure.
		e.logger.WarnContext(ctx, "unparseable model output",
			"output", resp.Choices[0].Content,
			slog.Any("error", err),
		)
		return map[string]any{}, nil
	}
	return result, nil
}

var (
	fencePattern  = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")
	objectPattern = regexp.MustCompile(`\{[\s\S]*\}`)
)

// parseObject finds the JSON object in the model output, tolerating code
// fences and surrounding prose.
func parseObject(output string) (map[string]any, error) {
	s := strings.TrimSpace(output)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = m[1]
	}

	obj := objectPattern.FindString(s)
	if obj == "" {
		return nil, oops.In("extract").Code("no_json").Errorf("no JSON object in model output")
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(obj), &result); err != nil {
		return nil, oops.In("extract").Code("bad_json").Wrapf(err, "failed to decode model output")
	}
	if result == nil {
		result = map[string]any{}
	}
	return result, nil
}
