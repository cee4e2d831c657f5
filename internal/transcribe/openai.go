package transcribe

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = openai.Whisper1

// OpenAIConfig configures the OpenAI-compatible transcription backend.
type OpenAIConfig struct {
	BaseURL  string
	Token    string
	Model    string
	Language string
	Timeout  time.Duration
}

// OpenAI transcribes through the /audio/transcriptions endpoint.
type OpenAI struct {
	client   *openai.Client
	model    string
	language string
}

// NewOpenAI creates the backend. Without a token every call fails with
// ErrVoiceUnavailable.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	t := &OpenAI{model: cfg.Model, language: cfg.Language}
	if t.model == "" {
		t.model = DefaultOpenAIModel
	}
	if cfg.Token == "" {
		return t
	}

	clientConfig := openai.DefaultConfig(cfg.Token)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: timeout,
	}
	t.client = openai.NewClientWithConfig(clientConfig)

	return t
}

// Transcribe sends the audio to the OpenAI transcription endpoint.
func (t *OpenAI) Transcribe(ctx context.Context, audio Audio) (string, error) {
	if t.client == nil {
		return "", unavailable(oops.Errorf("openai token not configured"))
	}
	if len(audio.Data) == 0 {
		return "", ErrNoSpeech
	}

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: audio.Name(),
		Reader:   bytes.NewReader(audio.Data),
		Language: t.language,
	})
	if err != nil {
		return "", unavailable(oops.Wrapf(err, "openai transcription"))
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}
