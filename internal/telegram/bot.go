// Package telegram runs the chat engine as a Telegram bot using long
// polling.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"

	"github.com/evcraddock/estate-bot/internal/conversation"
	"github.com/evcraddock/estate-bot/internal/transcribe"
)

const (
	// maxMessageRunes is Telegram's limit for one text message.
	maxMessageRunes = 4096
	maxVoiceBytes   = 20 << 20

	msgUnsupported = "I understand text and voice messages. Send /help to see what I can do."
)

// Chat is the conversation engine as seen by the bot.
type Chat interface {
	HandleText(ctx context.Context, userID int64, text string) (conversation.Reply, error)
	HandleVoice(ctx context.Context, userID int64, audio transcribe.Audio) (conversation.Reply, error)
	HandleCommand(ctx context.Context, userID int64, command string) (conversation.Reply, error)
	HandleAction(ctx context.Context, userID int64, data string) (conversation.Reply, error)
}

// sender is the subset of the Bot API used to answer updates.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Config holds the bot token and update processing settings.
type Config struct {
	Token string
	// Workers is the number of updates processed in parallel. Updates of
	// one user always go to the same worker, so they stay in order.
	Workers int
	// PollTimeout is the long polling timeout in seconds.
	PollTimeout int
}

// Bot dispatches Telegram updates to the chat engine.
type Bot struct {
	api         *tgbotapi.BotAPI
	sender      sender
	chat        Chat
	http        *http.Client
	workers     int
	pollTimeout int
	logger      *slog.Logger
}

// New connects to the Bot API and verifies the token.
func New(cfg Config, chat Chat, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, oops.In("telegram").Code("connect").Wrapf(err, "failed to connect to telegram")
	}

	b := newBot(api, chat, cfg, logger)
	b.api = api
	b.logger.Info("telegram bot authorized", "username", api.Self.UserName)
	return b, nil
}

func newBot(s sender, chat Chat, cfg Config, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Bot{
		sender:      s,
		chat:        chat,
		http:        &http.Client{Timeout: 60 * time.Second},
		workers:     workers,
		pollTimeout: cfg.PollTimeout,
		logger:      logger.With("component", "telegram"),
	}
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.registerCommands()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	return b.dispatch(ctx, updates)
}

func (b *Bot) registerCommands() {
	cmds := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Start over and pick a goal"},
		tgbotapi.BotCommand{Command: "cancel", Description: "Cancel the current goal"},
		tgbotapi.BotCommand{Command: "help", Description: "How to talk to me"},
	)
	if _, err := b.sender.Request(cmds); err != nil {
		b.logger.Warn("failed to register bot commands", slog.Any("error", err))
	}
}

// dispatch shards updates by user over the worker pool and returns when
// updates is closed or ctx ends.
func (b *Bot) dispatch(ctx context.Context, updates <-chan tgbotapi.Update) error {
	g, ctx := errgroup.WithContext(ctx)

	shards := make([]chan tgbotapi.Update, b.workers)
	for i := range shards {
		shard := make(chan tgbotapi.Update, 16)
		shards[i] = shard
		g.Go(func() error {
			for upd := range shard {
				b.HandleUpdate(ctx, upd)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer func() {
			for _, shard := range shards {
				close(shard)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return nil
			case upd, ok := <-updates:
				if !ok {
					return nil
				}
				shard := shards[shardFor(updateUser(upd), len(shards))]
				select {
				case shard <- upd:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})

	return g.Wait()
}

func shardFor(userID int64, n int) int {
	if userID < 0 {
		userID = -userID
	}
	return int(userID % int64(n))
}

func updateUser(upd tgbotapi.Update) int64 {
	switch {
	case upd.CallbackQuery != nil && upd.CallbackQuery.From != nil:
		return upd.CallbackQuery.From.ID
	case upd.Message != nil && upd.Message.From != nil:
		return upd.Message.From.ID
	}
	return 0
}

// HandleUpdate answers one update. Failures are logged; the bot keeps
// running.
func (b *Bot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.CallbackQuery != nil:
		b.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil:
		b.handleMessage(ctx, upd.Message)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if _, err := b.sender.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.logger.Warn("failed to answer callback", slog.Any("error", err))
	}
	if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
		return
	}

	reply, err := b.chat.HandleAction(ctx, cq.From.ID, cq.Data)
	b.respond(cq.Message.Chat.ID, cq.From.ID, reply, err)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	userID, chatID := msg.From.ID, msg.Chat.ID

	var (
		reply conversation.Reply
		err   error
	)
	switch {
	case msg.IsCommand():
		reply, err = b.chat.HandleCommand(ctx, userID, msg.Command())
	case msg.Voice != nil:
		var audio transcribe.Audio
		audio, err = b.download(ctx, msg.Voice.FileID, msg.Voice.MimeType, "")
		if err != nil {
			b.logger.Error("failed to download voice", "user", userID, slog.Any("error", err))
			b.sendText(chatID, "I couldn't download that voice message, please try again or type instead.")
			return
		}
		reply, err = b.chat.HandleVoice(ctx, userID, audio)
	case msg.Audio != nil:
		var audio transcribe.Audio
		audio, err = b.download(ctx, msg.Audio.FileID, msg.Audio.MimeType, msg.Audio.FileName)
		if err != nil {
			b.logger.Error("failed to download audio", "user", userID, slog.Any("error", err))
			b.sendText(chatID, "I couldn't download that audio, please try again or type instead.")
			return
		}
		reply, err = b.chat.HandleVoice(ctx, userID, audio)
	case msg.Text != "":
		reply, err = b.chat.HandleText(ctx, userID, msg.Text)
	default:
		b.sendText(chatID, msgUnsupported)
		return
	}

	b.respond(chatID, userID, reply, err)
}

func (b *Bot) respond(chatID, userID int64, reply conversation.Reply, err error) {
	if err != nil {
		b.logger.Error("turn failed", "user", userID, slog.Any("error", err))
		return
	}
	for _, m := range reply.Messages {
		b.send(chatID, m)
	}
}

// send delivers one engine message, splitting text over Telegram's limit.
// Buttons go with the last part.
func (b *Bot) send(chatID int64, m conversation.Message) {
	parts := splitText(m.Text, maxMessageRunes)
	for i, part := range parts {
		out := tgbotapi.NewMessage(chatID, part)
		if i == len(parts)-1 && len(m.Buttons) > 0 {
			out.ReplyMarkup = keyboard(m.Buttons)
		}
		if _, err := b.sender.Send(out); err != nil {
			b.logger.Error("failed to send message", "chat", chatID, slog.Any("error", err))
			return
		}
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	b.send(chatID, conversation.Message{Text: text})
}

func keyboard(rows [][]conversation.Button) tgbotapi.InlineKeyboardMarkup {
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Data))
		}
		out = append(out, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(out...)
}

// splitText cuts text into chunks of at most limit runes, preferring line
// breaks.
func splitText(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i > limit/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

// download fetches a file from Telegram's file storage.
func (b *Bot) download(ctx context.Context, fileID, mimeType, filename string) (transcribe.Audio, error) {
	audio := transcribe.Audio{Filename: filename, MIMEType: mimeType}

	url, err := b.sender.GetFileDirectURL(fileID)
	if err != nil {
		return audio, fmt.Errorf("resolving file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return audio, fmt.Errorf("creating request: %w", err)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return audio, fmt.Errorf("downloading file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return audio, fmt.Errorf("downloading file: status %d", resp.StatusCode)
	}

	audio.Data, err = io.ReadAll(io.LimitReader(resp.Body, maxVoiceBytes))
	if err != nil {
		return audio, fmt.Errorf("reading file: %w", err)
	}
	return audio, nil
}
