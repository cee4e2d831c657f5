package conversation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/evcraddock/estate-bot/internal/fields"
	"github.com/evcraddock/estate-bot/internal/property"
	"github.com/evcraddock/estate-bot/internal/session"
)

// extractChanges runs the extractor and overlays explicit removals found in
// the text. ok is false when the extractor failed; the reply then already
// carries the failure message.
func (e *Engine) extractChanges(ctx context.Context, sess *session.Session, text string, r *Reply) (fields.Partial, []fields.Note, bool) {
	raw, err := e.extractor.ExtractProperty(ctx, text)
	if err != nil {
		e.logger.Error("field extraction failed",
			"user", sess.UserID,
			"state", sess.State,
			slog.Any("error", err),
		)
		r.add(msgExtractFailed)
		return fields.Partial{}, nil, false
	}

	partial, notes := fields.Coerce(raw)
	partial.Overlay(detectChanges(text))
	return partial, notes, true
}

func (e *Engine) collect(ctx context.Context, sess *session.Session, text string, r *Reply) {
	partial, notes, ok := e.extractChanges(ctx, sess, text, r)
	if !ok {
		return
	}
	if partial.IsEmpty() && len(notes) == 0 {
		r.add(msgNothingNew + "\n\n" + formatMissing(sess.Draft.Missing()))
		return
	}
	e.mergeDraft(sess, partial, notes, r)
}

func (e *Engine) confirm(ctx context.Context, sess *session.Session, text string, r *Reply) {
	switch classifyReply(text) {
	case replyAffirmative:
		e.saveDraft(ctx, sess, r)
		return
	case replyNegative:
		e.cancel(sess, r)
		return
	}

	partial, notes, ok := e.extractChanges(ctx, sess, text, r)
	if !ok {
		return
	}
	if partial.IsEmpty() && len(notes) == 0 {
		r.add(msgNoChange, confirmButtons()...)
		return
	}
	e.mergeDraft(sess, partial, notes, r)
}

// mergeDraft applies a change-set to the draft and moves between
// Collecting and Confirming depending on what is still missing.
func (e *Engine) mergeDraft(sess *session.Session, partial fields.Partial, notes []fields.Note, r *Reply) {
	if _, ok := partial.Value(fields.Title); ok || partial.IsCleared(fields.Title) {
		sess.TitleSuggested = false
	}

	draft, missing := fields.Merge(sess.Draft, partial)

	// A suggested title follows the type and city it was built from.
	if sess.TitleSuggested && touchesTitleSource(partial) {
		var drop fields.Partial
		drop.Clear(fields.Title)
		draft, missing = fields.Merge(draft, drop)
		sess.TitleSuggested = false
	}

	// A title the user just removed is asked for, not re-suggested.
	if !partial.IsCleared(fields.Title) {
		if title, ok := fields.SuggestTitle(draft); ok {
			var p fields.Partial
			p.Set(fields.Title, title)
			draft, missing = fields.Merge(draft, p)
			sess.TitleSuggested = true
		}
	}
	sess.Draft = draft

	if len(notes) > 0 {
		r.add(formatNotes(notes))
	}

	if len(missing) > 0 {
		sess.State = session.Collecting
		summary := formatMissing(missing)
		if !draft.IsEmpty() {
			summary = "Saved so far:\n" + formatDraft(draft) + "\n\n" + summary
		}
		r.add(summary)
		return
	}

	sess.State = session.Confirming
	text := "Please check the details:\n" + formatDraft(draft)
	if sess.TitleSuggested {
		text += "\n\n" + msgSuggestedTitle
	}
	r.add(text + "\n\n" + msgConfirmPrompt, confirmButtons()...)
}

func touchesTitleSource(p fields.Partial) bool {
	for _, n := range []fields.Name{fields.Type, fields.City} {
		if _, ok := p.Value(n); ok || p.IsCleared(n) {
			return true
		}
	}
	return false
}

// saveDraft persists the draft. On failure the session stays in
// Confirming so the user can retry without re-entering anything.
func (e *Engine) saveDraft(ctx context.Context, sess *session.Session, r *Reply) {
	p, err := property.FromDraft(sess.UserID, sess.Draft)
	if err != nil {
		// Confirming is only entered with a complete draft.
		e.logger.Error("confirmed draft is invalid", "user", sess.UserID, slog.Any("error", err))
		sess.State = session.Collecting
		r.add(formatMissing(sess.Draft.Missing()))
		return
	}

	saved, err := e.repo.Create(ctx, p)
	if err != nil {
		e.logger.Error("saving property failed", "user", sess.UserID, slog.Any("error", err))
		r.add(msgSaveFailed, confirmButtons()...)
		return
	}

	e.logger.Info("property registered", "user", sess.UserID, "property_id", saved.ID)
	sess.Reset()
	r.add(fmt.Sprintf("✅ Property saved with ID %d.\n\n%s", saved.ID, formatCard(saved)), propertyButtons(saved.ID)...)
	r.add(msgSelectGoal, goalButtons()...)
}

func (e *Engine) cancel(sess *session.Session, r *Reply) {
	sess.Reset()
	r.add(msgCancelled)
	r.add(msgSelectGoal, goalButtons()...)
}
