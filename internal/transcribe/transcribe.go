// Package transcribe converts voice messages to text.
package transcribe

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/samber/oops"
)

var (
	// ErrVoiceUnavailable is returned when no speech service can be used:
	// none is configured, credentials are rejected or the service is down.
	ErrVoiceUnavailable = errors.New("voice transcription unavailable")

	// ErrNoSpeech is returned when the audio was processed but contained
	// no recognizable words.
	ErrNoSpeech = errors.New("no speech recognized")
)

// Audio is one voice message.
type Audio struct {
	Data     []byte
	Filename string
	MIMEType string
}

// Name returns a file name the speech services accept, derived from the
// MIME type when the message carried none.
func (a Audio) Name() string {
	if a.Filename != "" {
		return path.Base(a.Filename)
	}
	switch a.format() {
	case formatMP3:
		return "voice.mp3"
	case formatWAV:
		return "voice.wav"
	}
	return "voice.ogg"
}

type format int

const (
	formatOggOpus format = iota
	formatMP3
	formatWAV
)

// format guesses the container. Telegram voice notes are always OGG/Opus,
// which is also the fallback.
func (a Audio) format() format {
	mime := strings.ToLower(a.MIMEType)
	ext := strings.ToLower(path.Ext(a.Filename))
	switch {
	case strings.Contains(mime, "mpeg"), strings.Contains(mime, "mp3"), ext == ".mp3":
		return formatMP3
	case strings.Contains(mime, "wav"), ext == ".wav":
		return formatWAV
	}
	return formatOggOpus
}

// Transcriber is implemented by every speech backend.
type Transcriber interface {
	Transcribe(ctx context.Context, audio Audio) (string, error)
}

// Chain tries each transcriber in turn, moving on only when one reports
// ErrVoiceUnavailable.
type Chain []Transcriber

// Transcribe returns the first successful transcription in chain order.
func (c Chain) Transcribe(ctx context.Context, audio Audio) (string, error) {
	errs := make([]error, 0, len(c))
	for _, t := range c {
		text, err := t.Transcribe(ctx, audio)
		if err == nil || !errors.Is(err, ErrVoiceUnavailable) {
			return text, err
		}
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return "", oops.In("transcribe").Wrap(ErrVoiceUnavailable)
	}
	return "", errors.Join(errs...)
}

func unavailable(err error) error {
	return oops.In("transcribe").Code("voice_unavailable").Errorf("%w: %w", ErrVoiceUnavailable, err)
}
