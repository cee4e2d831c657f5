package transcribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewOpenAI(OpenAIConfig{
		BaseURL: server.URL + "/v1",
		Token:   "test-token",
	})
}

func TestOpenAITranscribe(t *testing.T) {
	var gotPath, gotAuth, gotModel, gotFile string
	tr := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			gotModel = r.FormValue("model")
			if _, header, err := r.FormFile("file"); err == nil {
				gotFile = header.Filename
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"  two bedroom apartment in Boston  "}`))
	})

	text, err := tr.Transcribe(context.Background(), Audio{Data: []byte("OggS..."), MIMEType: "audio/ogg"})
	require.NoError(t, err)

	assert.Equal(t, "two bedroom apartment in Boston", text)
	assert.Equal(t, "/v1/audio/transcriptions", gotPath)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, DefaultOpenAIModel, gotModel)
	assert.Equal(t, "voice.ogg", gotFile)
}

func TestOpenAITranscribeEmptyText(t *testing.T) {
	tr := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":""}`))
	})

	_, err := tr.Transcribe(context.Background(), Audio{Data: []byte("OggS")})
	assert.ErrorIs(t, err, ErrNoSpeech)
}

func TestOpenAITranscribeServerError(t *testing.T) {
	tr := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	})

	_, err := tr.Transcribe(context.Background(), Audio{Data: []byte("OggS")})
	assert.ErrorIs(t, err, ErrVoiceUnavailable)
}

func TestOpenAIWithoutToken(t *testing.T) {
	tr := NewOpenAI(OpenAIConfig{})

	_, err := tr.Transcribe(context.Background(), Audio{Data: []byte("OggS")})
	assert.ErrorIs(t, err, ErrVoiceUnavailable)
}

func TestOpenAIEmptyAudio(t *testing.T) {
	tr := NewOpenAI(OpenAIConfig{Token: "test-token"})

	_, err := tr.Transcribe(context.Background(), Audio{})
	assert.ErrorIs(t, err, ErrNoSpeech)
}
