// Package conversation implements the chat state machine: it routes each
// turn by the user's goal and sub-state, merges extracted fields into a
// draft, asks for what is missing, and persists only after confirmation.
package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/evcraddock/estate-bot/internal/fields"
	"github.com/evcraddock/estate-bot/internal/property"
	"github.com/evcraddock/estate-bot/internal/session"
	"github.com/evcraddock/estate-bot/internal/transcribe"
)

// Extractor turns free text into loosely typed field values. It returns an
// empty map when nothing is recognized and an error only when the backing
// service fails.
type Extractor interface {
	ExtractProperty(ctx context.Context, text string) (map[string]any, error)
	ExtractCriteria(ctx context.Context, text string) (map[string]any, error)
}

// Transcriber converts a voice message to text. It returns an error
// wrapping transcribe.ErrVoiceUnavailable when the service cannot be used.
type Transcriber interface {
	Transcribe(ctx context.Context, audio transcribe.Audio) (string, error)
}

// Repository stores properties. Every method is scoped to the owner.
type Repository interface {
	Create(ctx context.Context, p *property.Property) (*property.Property, error)
	Get(ctx context.Context, id, owner int64) (*property.Property, error)
	ListByOwner(ctx context.Context, owner int64) ([]*property.Property, error)
	Update(ctx context.Context, id, owner int64, changes fields.Partial) (*property.Property, error)
	Delete(ctx context.Context, id, owner int64) error
}

// DefaultMaxResults caps how many properties one reply lists.
const DefaultMaxResults = 10

// Engine is the conversation state machine. It is safe for concurrent use;
// turns of the same user are serialized by the session store.
type Engine struct {
	sessions    *session.Store
	extractor   Extractor
	transcriber Transcriber
	repo        Repository
	logger      *slog.Logger
	maxResults  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithTranscriber enables voice turns.
func WithTranscriber(t Transcriber) Option {
	return func(e *Engine) { e.transcriber = t }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMaxResults caps the number of properties listed per reply.
func WithMaxResults(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxResults = n
		}
	}
}

// New creates an engine.
func New(sessions *session.Store, extractor Extractor, repo Repository, opts ...Option) *Engine {
	e := &Engine{
		sessions:   sessions,
		extractor:  extractor,
		repo:       repo,
		logger:     slog.Default(),
		maxResults: DefaultMaxResults,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "conversation")
	return e
}

// HandleText processes one text turn. Text starting with "/" is treated as
// a command. The error is non-nil only when ctx ends before the user's
// session becomes available.
func (e *Engine) HandleText(ctx context.Context, userID int64, text string) (Reply, error) {
	if _, ok := normalizeCommand(text); ok {
		return e.HandleCommand(ctx, userID, text)
	}
	return e.withSession(ctx, userID, func(sess *session.Session, r *Reply) {
		e.turn(ctx, sess, strings.TrimSpace(text), r)
	})
}

// HandleVoice transcribes a voice turn and processes it as text. When the
// transcriber is unavailable the user is asked to type instead and the
// session is left as it was.
func (e *Engine) HandleVoice(ctx context.Context, userID int64, audio transcribe.Audio) (Reply, error) {
	if e.transcriber == nil {
		return e.voiceFallback(ctx, userID, msgVoiceUnavailable)
	}

	text, err := e.transcriber.Transcribe(ctx, audio)
	switch {
	case errors.Is(err, transcribe.ErrVoiceUnavailable):
		e.logger.Warn("voice unavailable", "user", userID, slog.Any("error", err))
		return e.voiceFallback(ctx, userID, msgVoiceUnavailable)
	case errors.Is(err, transcribe.ErrNoSpeech):
		return e.voiceFallback(ctx, userID, msgVoiceNotRecognized)
	case err != nil:
		e.logger.Error("transcription failed", "user", userID, slog.Any("error", err))
		return e.voiceFallback(ctx, userID, msgVoiceUnavailable)
	}

	return e.withSession(ctx, userID, func(sess *session.Session, r *Reply) {
		r.add("🎤 Recognized: " + text)
		e.turn(ctx, sess, strings.TrimSpace(text), r)
	})
}

func (e *Engine) voiceFallback(ctx context.Context, userID int64, msg string) (Reply, error) {
	return e.withSession(ctx, userID, func(_ *session.Session, r *Reply) {
		r.add(msg)
	})
}

// HandleCommand processes /start, /cancel and /help.
func (e *Engine) HandleCommand(ctx context.Context, userID int64, command string) (Reply, error) {
	cmd, ok := normalizeCommand(command)
	if !ok {
		cmd = strings.ToLower(strings.TrimSpace(command))
	}

	return e.withSession(ctx, userID, func(sess *session.Session, r *Reply) {
		switch cmd {
		case "start":
			sess.Reset()
			r.add(msgWelcome)
			r.add(msgSelectGoal, goalButtons()...)
		case "cancel":
			sess.Reset()
			r.add(msgCancelled)
			r.add(msgSelectGoal, goalButtons()...)
		case "help":
			r.add(msgHelp)
		default:
			r.add(msgUnknownCommand)
		}
	})
}

// withSession runs fn while holding the user's session and stamps the
// resulting state on the reply.
func (e *Engine) withSession(ctx context.Context, userID int64, fn func(*session.Session, *Reply)) (Reply, error) {
	sess, release, err := e.sessions.Acquire(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	defer release()

	before := sess.State
	var r Reply
	fn(sess, &r)
	r.State = sess.State

	e.logger.Debug("turn handled",
		"user", userID,
		"goal", sess.Goal,
		"from", before,
		"to", sess.State,
	)
	return r, nil
}

// turn routes free text by the session's state.
func (e *Engine) turn(ctx context.Context, sess *session.Session, text string, r *Reply) {
	if text == "" {
		r.add(msgNothingNew)
		return
	}

	switch sess.State {
	case session.AwaitingGoal:
		e.awaitGoal(ctx, sess, text, r)
	case session.Collecting:
		e.collect(ctx, sess, text, r)
	case session.Confirming:
		e.confirm(ctx, sess, text, r)
	case session.SelectingTarget:
		e.selectTarget(ctx, sess, text, r)
	case session.EditingTarget:
		e.applyEdit(ctx, sess, text, r)
	case session.Searching:
		e.search(ctx, sess, text, r)
	case session.Filtering:
		e.filter(ctx, sess, text, r)
	default:
		e.logger.Error("unknown session state", "user", sess.UserID, "state", sess.State)
		sess.Reset()
		r.add(msgSelectGoal, goalButtons()...)
	}
}

// awaitGoal only recognizes goals. Nothing is extracted before a goal is set.
func (e *Engine) awaitGoal(ctx context.Context, sess *session.Session, text string, r *Reply) {
	goal, ok := parseGoal(text)
	if !ok {
		r.add(msgNoGoal, goalButtons()...)
		return
	}
	e.startGoal(ctx, sess, goal, r)
}

func (e *Engine) startGoal(ctx context.Context, sess *session.Session, goal session.Goal, r *Reply) {
	sess.SetGoal(goal)

	switch goal {
	case session.GoalRegister:
		r.add(msgRegisterStart)
	case session.GoalSearch:
		r.add(msgSearchStart)
	case session.GoalFilter:
		r.add(msgFilterStart)
	case session.GoalEdit:
		r.add(msgEditStart, [][]Button{{{Label: "📋 Show all properties", Data: ActionShowAll}}}...)
	case session.GoalList:
		e.listAll(ctx, sess, r)
	}
}
