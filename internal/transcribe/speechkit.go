package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/yandex-cloud/go-genproto/yandex/cloud/ai/stt/v3"
	ycsdk "github.com/yandex-cloud/go-sdk"
	"github.com/yandex-cloud/go-sdk/iamkey"
)

const chunkSize = 32 * 1024

// SpeechKitConfig configures the Yandex SpeechKit backend.
type SpeechKitConfig struct {
	// KeyFile is the path to a service account authorized key.
	KeyFile  string
	Model    string
	Language string
}

// SpeechKit transcribes through the streaming STT v3 API.
type SpeechKit struct {
	sdk      *ycsdk.SDK
	model    string
	language string
}

// NewSpeechKit authenticates with the service account key and builds the
// SDK. Call Close when done.
func NewSpeechKit(ctx context.Context, cfg SpeechKitConfig) (*SpeechKit, error) {
	keyBytes, err := os.ReadFile(cfg.KeyFile)
	if err != nil {
		return nil, oops.In("speechkit").Wrapf(err, "could not read service account key")
	}

	var key iamkey.Key
	if err = json.Unmarshal(keyBytes, &key); err != nil {
		return nil, oops.In("speechkit").Wrapf(err, "could not parse service account key")
	}

	creds, err := ycsdk.ServiceAccountKey(&key)
	if err != nil {
		return nil, oops.In("speechkit").Wrapf(err, "could not create credentials")
	}

	sdk, err := ycsdk.Build(ctx, ycsdk.Config{
		Credentials: creds,
	})
	if err != nil {
		return nil, oops.In("speechkit").Wrapf(err, "failed to create Yandex SDK")
	}

	s := &SpeechKit{sdk: sdk, model: cfg.Model, language: cfg.Language}
	if s.model == "" {
		s.model = "general"
	}
	if s.language == "" {
		s.language = "en-US"
	}
	return s, nil
}

// Transcribe streams the audio to SpeechKit and joins the final results.
func (s *SpeechKit) Transcribe(ctx context.Context, audio Audio) (string, error) {
	if len(audio.Data) == 0 {
		return "", ErrNoSpeech
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := s.sdk.AI().STTV3().Recognizer().RecognizeStreaming(ctx)
	if err != nil {
		return "", unavailable(oops.Wrapf(err, "failed to open recognition stream"))
	}

	return recognize(stream, s.sessionOptions(audio.format()), audio.Data)
}

// Close releases the SDK connections.
func (s *SpeechKit) Close(ctx context.Context) error {
	return s.sdk.Shutdown(ctx)
}

func (s *SpeechKit) sessionOptions(f format) *stt.StreamingOptions {
	container := stt.ContainerAudio_OGG_OPUS
	switch f {
	case formatMP3:
		container = stt.ContainerAudio_MP3
	case formatWAV:
		container = stt.ContainerAudio_WAV
	}

	var audioFormatOpts stt.AudioFormatOptions
	audioFormatOpts.SetContainerAudio(&stt.ContainerAudio{
		ContainerAudioType: container,
	})

	return &stt.StreamingOptions{
		RecognitionModel: &stt.RecognitionModelOptions{
			Model:       s.model,
			AudioFormat: &audioFormatOpts,
			LanguageRestriction: &stt.LanguageRestrictionOptions{
				RestrictionType: stt.LanguageRestrictionOptions_WHITELIST,
				LanguageCode:    []string{s.language},
			},
		},
	}
}

// recognize sends the session options and the audio in chunks, then
// collects the best alternative of every final result until the server
// closes the stream.
func recognize(stream stt.Recognizer_RecognizeStreamingClient, opts *stt.StreamingOptions, data []byte) (string, error) {
	var req stt.StreamingRequest
	req.SetSessionOptions(opts)
	if err := stream.Send(&req); err != nil {
		return "", unavailable(oops.Wrapf(err, "failed to send session options"))
	}

	for start := 0; start < len(data); start += chunkSize {
		end := min(start+chunkSize, len(data))

		var chunk stt.StreamingRequest
		chunk.SetChunk(&stt.AudioChunk{
			Data: data[start:end],
		})
		if err := stream.Send(&chunk); err != nil {
			return "", unavailable(oops.Wrapf(err, "failed to send audio"))
		}
	}

	if err := stream.CloseSend(); err != nil {
		return "", unavailable(oops.Wrapf(err, "failed to close stream"))
	}

	var parts []string
	for {
		res, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", unavailable(oops.Wrapf(err, "failed to receive stt"))
		}

		final := res.GetFinal()
		if final == nil {
			continue
		}
		for _, alt := range final.Alternatives {
			if text := strings.TrimSpace(alt.Text); text != "" {
				parts = append(parts, text)
				break
			}
		}
	}

	if len(parts) == 0 {
		return "", ErrNoSpeech
	}
	return strings.Join(parts, " "), nil
}
