package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/elliotchance/pie/v2"

	"github.com/evcraddock/estate-bot/internal/fields"
	"github.com/evcraddock/estate-bot/internal/match"
	"github.com/evcraddock/estate-bot/internal/property"
	"github.com/evcraddock/estate-bot/internal/session"
)

// selectTarget narrows the user's properties to edit candidates.
func (e *Engine) selectTarget(ctx context.Context, sess *session.Session, text string, r *Reply) {
	if isShowAll(text) {
		e.showAllCandidates(ctx, sess, r)
		return
	}

	raw, err := e.extractor.ExtractCriteria(ctx, text)
	if err != nil {
		e.logger.Error("criteria extraction failed", "user", sess.UserID, slog.Any("error", err))
		r.add(msgExtractFailed)
		return
	}

	criteria, notes := match.FromRaw(raw)
	if len(notes) > 0 {
		r.add(formatNotes(notes))
	}
	if criteria.IsEmpty() {
		r.add(msgEditNeedFilters)
		return
	}

	props, ok := e.loadOwned(ctx, sess, r)
	if !ok {
		return
	}

	merged := sess.Criteria.Merge(criteria)
	matches := match.Match(merged, props)
	if len(matches) == 0 {
		// Keep the earlier criteria so a bad refinement can be retried.
		r.add(msgEditNoMatches, [][]Button{{{Label: "📋 Show all properties", Data: ActionShowAll}}}...)
		return
	}

	sess.Criteria = merged
	e.showCandidates(sess, matches, fmt.Sprintf("Found %d matching properties. Which one do you want to edit?", len(matches)), r)
}

func (e *Engine) showAllCandidates(ctx context.Context, sess *session.Session, r *Reply) {
	props, ok := e.loadOwned(ctx, sess, r)
	if !ok {
		return
	}
	if len(props) == 0 {
		sess.Reset()
		r.add(msgNoProperties)
		r.add(msgSelectGoal, goalButtons()...)
		return
	}
	e.showCandidates(sess, props, fmt.Sprintf("You have %d properties. Which one do you want to edit?", len(props)), r)
}

// showCandidates lists up to maxResults properties with a selection button
// and remembers them as the candidate set.
func (e *Engine) showCandidates(sess *session.Session, props []*property.Property, heading string, r *Reply) {
	shown := props
	if len(shown) > e.maxResults {
		shown = shown[:e.maxResults]
	}
	sess.Candidates = pie.Map(shown, func(p *property.Property) int64 { return p.ID })

	r.add(heading)
	for _, p := range shown {
		r.add(formatShort(p), selectButtons(p.ID)...)
	}
	if more := len(props) - len(shown); more > 0 {
		r.add(fmt.Sprintf("…and %d more. Describe the property more precisely to narrow the list.", more))
	}
}

// selectCandidate makes id the edit target. The property must be owned by
// the user and, while selecting, come from the latest candidate list.
func (e *Engine) selectCandidate(ctx context.Context, sess *session.Session, id int64, r *Reply) {
	if sess.State == session.SelectingTarget && len(sess.Candidates) > 0 && !sess.HasCandidate(id) {
		r.add(msgSelectFromList)
		return
	}

	p, err := e.repo.Get(ctx, id, sess.UserID)
	if errors.Is(err, property.ErrNotFound) {
		r.add(msgNotFound)
		return
	}
	if err != nil {
		e.logger.Error("loading edit target failed", "user", sess.UserID, "property_id", id, slog.Any("error", err))
		r.add(msgLoadFailed)
		return
	}

	if sess.Goal != session.GoalEdit {
		sess.SetGoal(session.GoalEdit)
	}
	sess.State = session.EditingTarget
	sess.TargetID = p.ID
	r.add("Editing:\n"+formatCard(p)+"\n\n"+msgEditPrompt)
}

// applyEdit interprets the turn as a change-set for the target property and
// writes it. On failure the session stays in EditingTarget.
func (e *Engine) applyEdit(ctx context.Context, sess *session.Session, text string, r *Reply) {
	if classifyReply(text) == replyNegative {
		e.cancel(sess, r)
		return
	}

	changes, notes, ok := e.extractChanges(ctx, sess, text, r)
	if !ok {
		return
	}
	if len(notes) > 0 {
		r.add(formatNotes(notes))
	}
	if changes.IsEmpty() {
		r.add(msgEditNotUnderstood)
		return
	}

	if required := pie.Filter(changes.Cleared(), fields.Name.IsRequired); len(required) > 0 {
		r.add(fmt.Sprintf("%s is required and cannot be removed. Send a new value instead.", required[0].Label()))
		return
	}

	updated, err := e.repo.Update(ctx, sess.TargetID, sess.UserID, changes)
	switch {
	case errors.Is(err, property.ErrNotFound):
		sess.Reset()
		r.add(msgNotFound)
		r.add(msgSelectGoal, goalButtons()...)
		return
	case err != nil:
		e.logger.Error("updating property failed",
			"user", sess.UserID,
			"property_id", sess.TargetID,
			slog.Any("error", err),
		)
		r.add(msgUpdateFailed)
		return
	}

	e.logger.Info("property updated", "user", sess.UserID, "property_id", updated.ID, "fields", changes.Names())
	sess.Reset()
	r.add("✅ Updated:\n"+formatChanges(changes)+"\n\n"+formatCard(updated), propertyButtons(updated.ID)...)
	r.add(msgSelectGoal, goalButtons()...)
}

func (e *Engine) loadOwned(ctx context.Context, sess *session.Session, r *Reply) ([]*property.Property, bool) {
	props, err := e.repo.ListByOwner(ctx, sess.UserID)
	if err != nil {
		e.logger.Error("listing properties failed", "user", sess.UserID, slog.Any("error", err))
		r.add(msgLoadFailed)
		return nil, false
	}
	return props, true
}
