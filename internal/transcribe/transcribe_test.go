package transcribe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudioName(t *testing.T) {
	tests := []struct {
		audio Audio
		want  string
	}{
		{Audio{}, "voice.ogg"},
		{Audio{MIMEType: "audio/ogg"}, "voice.ogg"},
		{Audio{MIMEType: "audio/mpeg"}, "voice.mp3"},
		{Audio{MIMEType: "audio/wav"}, "voice.wav"},
		{Audio{Filename: "voice/file_12.oga"}, "file_12.oga"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.audio.Name())
	}
}

func TestAudioFormat(t *testing.T) {
	assert.Equal(t, formatOggOpus, Audio{MIMEType: "audio/ogg"}.format())
	assert.Equal(t, formatMP3, Audio{Filename: "memo.MP3"}.format())
	assert.Equal(t, formatWAV, Audio{MIMEType: "audio/x-wav"}.format())
}

type stubTranscriber struct {
	text  string
	err   error
	calls int
}

func (s *stubTranscriber) Transcribe(context.Context, Audio) (string, error) {
	s.calls++
	return s.text, s.err
}

func TestChain(t *testing.T) {
	t.Run("falls through unavailable backends", func(t *testing.T) {
		first := &stubTranscriber{err: unavailable(errors.New("down"))}
		second := &stubTranscriber{text: "hello"}

		text, err := Chain{first, second}.Transcribe(context.Background(), Audio{Data: []byte{1}})
		require.NoError(t, err)
		assert.Equal(t, "hello", text)
		assert.Equal(t, 1, first.calls)
		assert.Equal(t, 1, second.calls)
	})

	t.Run("stops on no speech", func(t *testing.T) {
		first := &stubTranscriber{err: ErrNoSpeech}
		second := &stubTranscriber{text: "hello"}

		_, err := Chain{first, second}.Transcribe(context.Background(), Audio{Data: []byte{1}})
		assert.ErrorIs(t, err, ErrNoSpeech)
		assert.Equal(t, 0, second.calls)
	})

	t.Run("all unavailable", func(t *testing.T) {
		chain := Chain{
			&stubTranscriber{err: unavailable(errors.New("a"))},
			&stubTranscriber{err: unavailable(errors.New("b"))},
		}

		_, err := chain.Transcribe(context.Background(), Audio{Data: []byte{1}})
		assert.ErrorIs(t, err, ErrVoiceUnavailable)
	})

	t.Run("empty chain", func(t *testing.T) {
		_, err := Chain{}.Transcribe(context.Background(), Audio{Data: []byte{1}})
		assert.ErrorIs(t, err, ErrVoiceUnavailable)
	})
}
