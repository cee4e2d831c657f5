package cli

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/do"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/evcraddock/estate-bot/internal/auth"
	"github.com/evcraddock/estate-bot/internal/config"
	"github.com/evcraddock/estate-bot/internal/conversation"
	"github.com/evcraddock/estate-bot/internal/db"
	"github.com/evcraddock/estate-bot/internal/extract"
	"github.com/evcraddock/estate-bot/internal/logging"
	"github.com/evcraddock/estate-bot/internal/property"
	"github.com/evcraddock/estate-bot/internal/session"
	"github.com/evcraddock/estate-bot/internal/telegram"
	"github.com/evcraddock/estate-bot/internal/transcribe"
	"github.com/evcraddock/estate-bot/internal/web"
)

// expiryInterval is how often idle sessions are swept.
const expiryInterval = time.Minute

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot and chat API",
		Long: `Run the assistant. The Telegram bot starts when a bot token is configured,
the HTTP chat API when server.enabled is set. Settings come from the config
file (--config), a .env file and EB_* environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flagConfig)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if !cfg.Server.Enabled && cfg.Telegram.Token == "" {
		return oops.In("serve").Errorf("nothing to run: set a telegram token or enable the server")
	}

	logger := logging.Setup(logging.Options{
		Dev:            cfg.Log.Dev,
		TelegramToken:  cfg.Log.Telegram.Token,
		TelegramChatID: cfg.Log.Telegram.ChatID,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	di := newInjector(ctx, cfg, logger)
	defer func() {
		logger.Info("waiting for services to finish")
		if err := di.Shutdown(); err != nil {
			logger.Error("shutdown failed", slog.Any("error", err))
		}
	}()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Session.IdleTimeout > 0 {
		sessions := do.MustInvoke[*session.Store](di)
		g.Go(func() error {
			sessions.RunExpiry(ctx, cfg.Session.IdleTimeout, expiryInterval, func(n int) {
				logger.Info("expired idle sessions", "count", n)
			})
			return nil
		})
	}

	if cfg.Server.Enabled {
		srv, err := do.Invoke[*web.Server](di)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return srv.ListenAndServe(ctx, cfg.Server.Addr)
		})
	}

	if cfg.Telegram.Token != "" {
		bot, err := do.Invoke[*telegram.Bot](di)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return bot.Run(ctx)
		})
	}

	logger.Info("service started",
		"server", cfg.Server.Enabled,
		"telegram", cfg.Telegram.Token != "",
		"speech", cfg.Speech.Provider,
	)

	err = g.Wait()
	logger.Info("shutting down")
	return err
}

// newInjector registers every service. Services are built lazily on first
// Invoke.
func newInjector(ctx context.Context, cfg *config.Config, logger *slog.Logger) *do.Injector {
	di := do.New()

	do.ProvideValue(di, ctx)
	do.ProvideValue(di, cfg)
	do.ProvideValue(di, logger)

	do.Provide(di, provideDatabase)
	do.Provide(di, providePropertyRepo)
	do.Provide(di, provideAPIKeys)
	do.Provide(di, provideSessions)
	do.Provide(di, provideExtractor)
	do.Provide(di, provideVoice)
	do.Provide(di, provideEngine)
	do.Provide(di, provideWebServer)
	do.Provide(di, provideBot)

	return di
}

// database closes the SQLite handle on injector shutdown.
type database struct {
	*sql.DB
}

func (d *database) Shutdown() error {
	return d.Close()
}

func provideDatabase(di *do.Injector) (*database, error) {
	cfg := do.MustInvoke[*config.Config](di)

	path, err := dbPath(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	d, err := db.Open(path)
	if err != nil {
		return nil, oops.In("serve").With("path", path).Wrapf(err, "failed to open database")
	}
	return &database{DB: d}, nil
}

func providePropertyRepo(di *do.Injector) (*property.Repository, error) {
	return property.NewRepository(do.MustInvoke[*database](di).DB), nil
}

func provideAPIKeys(di *do.Injector) (*auth.APIKeyStore, error) {
	return auth.NewAPIKeyStore(do.MustInvoke[*database](di).DB), nil
}

func provideSessions(_ *do.Injector) (*session.Store, error) {
	return session.NewStore(), nil
}

func provideExtractor(di *do.Injector) (*extract.Extractor, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return extract.New(extract.Config{
		BaseURL:     cfg.OpenAI.BaseURL,
		Token:       cfg.OpenAI.Token,
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     cfg.OpenAI.Timeout,
	}, do.MustInvoke[*slog.Logger](di))
}

// voice holds the configured transcriber, nil when voice is disabled.
type voice struct {
	transcriber conversation.Transcriber
	speechKit   *transcribe.SpeechKit
}

func (v *voice) Shutdown() error {
	if v.speechKit == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return v.speechKit.Close(ctx)
}

// provideVoice builds the transcriber for speech.provider. SpeechKit falls
// back to OpenAI when it is unavailable.
func provideVoice(di *do.Injector) (*voice, error) {
	cfg := do.MustInvoke[*config.Config](di)

	whisper := transcribe.NewOpenAI(transcribe.OpenAIConfig{
		BaseURL:  cfg.OpenAI.BaseURL,
		Token:    cfg.OpenAI.Token,
		Model:    cfg.OpenAI.TranscriptionModel,
		Language: cfg.Speech.Language,
		Timeout:  cfg.OpenAI.Timeout,
	})

	switch cfg.Speech.Provider {
	case "none":
		return &voice{}, nil
	case "speechkit":
		sk, err := transcribe.NewSpeechKit(do.MustInvoke[context.Context](di), transcribe.SpeechKitConfig{
			KeyFile:  cfg.Speech.SpeechKit.KeyFile,
			Model:    cfg.Speech.SpeechKit.Model,
			Language: cfg.Speech.SpeechKit.Language,
		})
		if err != nil {
			return nil, err
		}
		return &voice{transcriber: transcribe.Chain{sk, whisper}, speechKit: sk}, nil
	default:
		return &voice{transcriber: whisper}, nil
	}
}

func provideEngine(di *do.Injector) (*conversation.Engine, error) {
	cfg := do.MustInvoke[*config.Config](di)

	opts := []conversation.Option{
		conversation.WithLogger(do.MustInvoke[*slog.Logger](di)),
		conversation.WithMaxResults(cfg.Session.MaxResults),
	}
	if v := do.MustInvoke[*voice](di); v.transcriber != nil {
		opts = append(opts, conversation.WithTranscriber(v.transcriber))
	}

	return conversation.New(
		do.MustInvoke[*session.Store](di),
		do.MustInvoke[*extract.Extractor](di),
		do.MustInvoke[*property.Repository](di),
		opts...,
	), nil
}

func provideWebServer(di *do.Injector) (*web.Server, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return web.NewServer(
		do.MustInvoke[*conversation.Engine](di),
		do.MustInvoke[*property.Repository](di),
		do.MustInvoke[*auth.APIKeyStore](di),
		cfg.Server.RateLimit,
	), nil
}

func provideBot(di *do.Injector) (*telegram.Bot, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		Workers:     cfg.Telegram.Workers,
		PollTimeout: cfg.Telegram.PollTimeout,
	}, do.MustInvoke[*conversation.Engine](di), do.MustInvoke[*slog.Logger](di))
}
