// Package config loads server configuration from a YAML file, an optional
// .env file and the environment.
package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/oops"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no config file is given.
const DefaultPath = "eb.yaml"

type Config struct {
	Log      Log      `yaml:"log"`
	DB       DB       `yaml:"db"`
	Server   Server   `yaml:"server"`
	Telegram Telegram `yaml:"telegram"`
	OpenAI   OpenAI   `yaml:"openai"`
	Speech   Speech   `yaml:"speech"`
	Session  Session  `yaml:"session"`
}

type Log struct {
	// Human readable debug output
	Dev bool `yaml:"dev" example:"true"`
	// Error alerts sent to a Telegram chat
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Alert bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat to send alerts to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

type DB struct {
	// SQLite database path, empty for ~/.estate-bot/estate.db
	Path string `yaml:"path" example:"/var/lib/eb/estate.db"`
}

type Server struct {
	// Serve the HTTP chat API
	Enabled bool `yaml:"enabled" example:"true"`
	// Listen address
	Addr string `yaml:"addr" example:":8080" validate:"required_if=Enabled true"`
	// Requests per minute allowed per API key, 0 disables the limit
	RateLimit int `yaml:"rate_limit" example:"60" validate:"gte=0"`
}

type Telegram struct {
	// Bot token, empty disables the Telegram transport
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Updates processed in parallel
	Workers int `yaml:"workers" example:"4" validate:"gte=1,lte=64"`
	// Long polling timeout in seconds
	PollTimeout int `yaml:"poll_timeout" example:"30" validate:"gte=0"`
}

type OpenAI struct {
	// OpenAI compatible base url, empty for api.openai.com
	BaseURL string `yaml:"base_url" example:"https://openrouter.ai/api/v1"`
	// API token
	Token string `yaml:"token" example:"sk-proj-abc123" validate:"required"`
	// Chat model used for field extraction
	Model string `yaml:"model" example:"gpt-4o" validate:"required"`
	// Sampling temperature for extraction, 0 for deterministic output
	Temperature *float64 `yaml:"temperature" example:"0.2" validate:"omitnil,gte=0,lte=2"`
	// Model used for voice transcription
	TranscriptionModel string `yaml:"transcription_model" example:"gpt-4o-mini-transcribe"`
	// Request timeout
	Timeout time.Duration `yaml:"timeout" example:"30s"`
}

type Speech struct {
	// Transcription backend
	Provider string `yaml:"provider" example:"openai" validate:"oneof=openai speechkit none"`
	// Spoken language hint
	Language string `yaml:"language" example:"en"`
	// Yandex SpeechKit settings, used when provider is speechkit
	SpeechKit SpeechKit `yaml:"speech_kit"`
}

type SpeechKit struct {
	// Service account authorized key file
	KeyFile string `yaml:"key_file" example:"service-account-key.json"`
	// Recognition model
	Model string `yaml:"model" example:"general"`
	// Language code
	Language string `yaml:"language" example:"en-US"`
}

type Session struct {
	// Drop sessions idle for longer than this, 0 keeps them forever
	IdleTimeout time.Duration `yaml:"idle_timeout" example:"2h" validate:"gte=0"`
	// Properties listed per reply
	MaxResults int `yaml:"max_results" example:"10" validate:"gte=1,lte=50"`
}

// Load reads the configuration. A missing file is not an error; every
// setting can come from the environment instead.
func Load(path string) (*Config, error) {
	result, err := read(path)
	if err != nil {
		return nil, err
	}
	applyDefaults(result)

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.In("config").Code("invalid").Errorf("failed to validate config: %w", err)
	}

	return result, nil
}

// DBPath returns the configured database path, empty for the default. It
// skips validation so maintenance commands work without API tokens.
func DBPath(path string) (string, error) {
	cfg, err := read(path)
	if err != nil {
		return "", err
	}
	return cfg.DB.Path, nil
}

// read loads .env, the YAML file and environment overrides.
func read(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, oops.In("config").Wrapf(err, "failed to load .env")
	}

	var result Config

	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, oops.In("config").Errorf("failed to read config file: %w", err)
	default:
		if err = yaml.Unmarshal(data, &result); err != nil {
			return nil, oops.In("config").Errorf("failed to parse YAML config: %w", err)
		}
	}

	if err := applyEnv(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Telegram.Workers == 0 {
		cfg.Telegram.Workers = 4
	}
	if cfg.Telegram.PollTimeout == 0 {
		cfg.Telegram.PollTimeout = 30
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4o"
	}
	if cfg.OpenAI.Temperature == nil {
		temperature := 0.2
		cfg.OpenAI.Temperature = &temperature
	}
	if cfg.OpenAI.TranscriptionModel == "" {
		cfg.OpenAI.TranscriptionModel = "gpt-4o-mini-transcribe"
	}
	if cfg.OpenAI.Timeout == 0 {
		cfg.OpenAI.Timeout = 30 * time.Second
	}
	if cfg.Speech.Provider == "" {
		cfg.Speech.Provider = "openai"
	}
	if cfg.Speech.SpeechKit.KeyFile == "" {
		cfg.Speech.SpeechKit.KeyFile = "service-account-key.json"
	}
	if cfg.Session.MaxResults == 0 {
		cfg.Session.MaxResults = 10
	}
}

// applyEnv overrides file settings with EB_* variables and the
// conventional OPENAI_API_KEY and TELEGRAM_BOT_TOKEN.
func applyEnv(cfg *Config) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"EB_DB_PATH", &cfg.DB.Path},
		{"EB_ADDR", &cfg.Server.Addr},
		{"OPENAI_API_KEY", &cfg.OpenAI.Token},
		{"EB_OPENAI_TOKEN", &cfg.OpenAI.Token},
		{"EB_OPENAI_BASE_URL", &cfg.OpenAI.BaseURL},
		{"EB_OPENAI_MODEL", &cfg.OpenAI.Model},
		{"EB_TRANSCRIPTION_MODEL", &cfg.OpenAI.TranscriptionModel},
		{"TELEGRAM_BOT_TOKEN", &cfg.Telegram.Token},
		{"EB_TELEGRAM_TOKEN", &cfg.Telegram.Token},
		{"EB_SPEECH_PROVIDER", &cfg.Speech.Provider},
		{"EB_SPEECH_LANGUAGE", &cfg.Speech.Language},
		{"EB_SPEECHKIT_KEY_FILE", &cfg.Speech.SpeechKit.KeyFile},
		{"EB_LOG_TELEGRAM_TOKEN", &cfg.Log.Telegram.Token},
		{"EB_LOG_TELEGRAM_CHAT_ID", &cfg.Log.Telegram.ChatID},
	}
	for _, s := range strs {
		if v := os.Getenv(s.key); v != "" {
			*s.dst = v
		}
	}

	var err error
	set := func(key string, apply func(string) error) {
		v := os.Getenv(key)
		if v == "" || err != nil {
			return
		}
		if e := apply(v); e != nil {
			err = oops.In("config").Code("env").With("key", key).Wrapf(e, "invalid value for %s", key)
		}
	}

	set("EB_DEV", func(v string) (e error) { cfg.Log.Dev, e = cast.ToBoolE(v); return })
	set("EB_SERVER_ENABLED", func(v string) (e error) { cfg.Server.Enabled, e = cast.ToBoolE(v); return })
	set("EB_RATE_LIMIT", func(v string) (e error) { cfg.Server.RateLimit, e = cast.ToIntE(v); return })
	set("EB_TELEGRAM_WORKERS", func(v string) (e error) { cfg.Telegram.Workers, e = cast.ToIntE(v); return })
	set("EB_OPENAI_TEMPERATURE", func(v string) error {
		t, err := cast.ToFloat64E(v)
		cfg.OpenAI.Temperature = &t
		return err
	})
	set("EB_SESSION_IDLE_TIMEOUT", func(v string) (e error) { cfg.Session.IdleTimeout, e = cast.ToDurationE(v); return })

	return err
}
