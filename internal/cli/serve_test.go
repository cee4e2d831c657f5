package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samber/do"

	"github.com/evcraddock/estate-bot/internal/config"
	"github.com/evcraddock/estate-bot/internal/conversation"
	"github.com/evcraddock/estate-bot/internal/logging"
	"github.com/evcraddock/estate-bot/internal/web"
)

// clearServeEnv keeps the developer's environment out of config.Load.
func clearServeEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TELEGRAM_BOT_TOKEN", "EB_TELEGRAM_TOKEN", "EB_SERVER_ENABLED", "EB_ADDR",
		"EB_DB_PATH", "EB_SPEECH_PROVIDER", "EB_SESSION_IDLE_TIMEOUT", "EB_DEV",
		"EB_LOG_TELEGRAM_TOKEN", "EB_LOG_TELEGRAM_CHAT_ID",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("OPENAI_API_KEY", "sk-test")
}

func writeServeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eb.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func testServeConfig(t *testing.T, provider string) *config.Config {
	t.Helper()
	return &config.Config{
		DB:      config.DB{Path: filepath.Join(t.TempDir(), "estate.db")},
		Server:  config.Server{Enabled: true, Addr: "127.0.0.1:0"},
		OpenAI:  config.OpenAI{Token: "sk-test", Model: "gpt-4o", TranscriptionModel: "whisper-1"},
		Speech:  config.Speech{Provider: provider},
		Session: config.Session{MaxResults: 5},
	}
}

func TestServeNothingToRun(t *testing.T) {
	clearServeEnv(t)
	path := writeServeConfig(t, "server:\n  enabled: false\n")

	err := runServe(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), "nothing to run") {
		t.Fatalf("expected nothing to run error, got %v", err)
	}
}

func TestServeInvalidConfig(t *testing.T) {
	clearServeEnv(t)
	path := writeServeConfig(t, "speech:\n  provider: carrier-pigeon\n")

	if err := runServe(context.Background(), path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	clearServeEnv(t)
	dbFile := filepath.Join(t.TempDir(), "estate.db")
	path := writeServeConfig(t, fmt.Sprintf(`db:
  path: %s
server:
  enabled: true
  addr: 127.0.0.1:0
speech:
  provider: none
session:
  idle_timeout: 1h
`, dbFile))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := runServe(ctx, path); err != nil {
		t.Fatalf("runServe: %v", err)
	}
	if _, err := os.Stat(dbFile); err != nil {
		t.Errorf("database not created: %v", err)
	}
}

func TestInjectorWiresChatAPI(t *testing.T) {
	cfg := testServeConfig(t, "none")
	di := newInjector(context.Background(), cfg, logging.Setup(logging.Options{Writer: &strings.Builder{}}))
	defer func() {
		if err := di.Shutdown(); err != nil {
			t.Errorf("shutdown: %v", err)
		}
	}()

	if _, err := do.Invoke[*web.Server](di); err != nil {
		t.Fatalf("invoke web server: %v", err)
	}
	if _, err := do.Invoke[*conversation.Engine](di); err != nil {
		t.Fatalf("invoke engine: %v", err)
	}
	if v := do.MustInvoke[*voice](di); v.transcriber != nil {
		t.Error("provider none should leave voice disabled")
	}
}

func TestInjectorVoiceProvider(t *testing.T) {
	cfg := testServeConfig(t, "openai")
	di := newInjector(context.Background(), cfg, logging.Setup(logging.Options{Writer: &strings.Builder{}}))
	defer func() { _ = di.Shutdown() }()

	v, err := do.Invoke[*voice](di)
	if err != nil {
		t.Fatalf("invoke voice: %v", err)
	}
	if v.transcriber == nil {
		t.Error("openai provider should configure a transcriber")
	}
	if v.speechKit != nil {
		t.Error("openai provider should not open SpeechKit")
	}
}

func TestInjectorBadDatabasePath(t *testing.T) {
	cfg := testServeConfig(t, "none")
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	cfg.DB.Path = filepath.Join(blocker, "estate.db")

	di := newInjector(context.Background(), cfg, logging.Setup(logging.Options{Writer: &strings.Builder{}}))
	defer func() { _ = di.Shutdown() }()

	if _, err := do.Invoke[*web.Server](di); err == nil {
		t.Fatal("expected database error")
	}
}
