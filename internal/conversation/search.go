package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/evcraddock/estate-bot/internal/match"
	"github.com/evcraddock/estate-bot/internal/property"
	"github.com/evcraddock/estate-bot/internal/session"
)

// search is single-turn: once criteria are found the results are shown and
// the session returns to goal selection. A turn without usable criteria
// keeps the session in Searching.
func (e *Engine) search(ctx context.Context, sess *session.Session, text string, r *Reply) {
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
	sess.Criteria = sess.Criteria.Merge(criteria)
	if sess.Criteria.IsEmpty() {
		r.add(msgSearchNeedCriteria)
		return
	}

	e.runQuery(ctx, sess, sess.Criteria, r)
}

// filter matches the turn's text as a keyword.
func (e *Engine) filter(ctx context.Context, sess *session.Session, text string, r *Reply) {
	criteria := match.Keyword(text)
	if criteria.IsEmpty() {
		r.add(msgFilterNeedKeyword)
		return
	}
	e.runQuery(ctx, sess, criteria, r)
}

func (e *Engine) runQuery(ctx context.Context, sess *session.Session, criteria match.Criteria, r *Reply) {
	props, ok := e.loadOwned(ctx, sess, r)
	if !ok {
		return
	}

	matches := match.Match(criteria, props)
	sess.Reset()

	if len(matches) == 0 {
		r.add(msgNoResults)
	} else {
		e.showResults(matches, fmt.Sprintf("Found %d matching properties:", len(matches)), r)
	}
	r.add(msgSelectGoal, goalButtons()...)
}

// listAll shows the user's properties, newest first.
func (e *Engine) listAll(ctx context.Context, sess *session.Session, r *Reply) {
	props, ok := e.loadOwned(ctx, sess, r)
	if !ok {
		return
	}
	sess.Reset()

	if len(props) == 0 {
		r.add(msgNoProperties)
		r.add(msgSelectGoal, goalButtons()...)
		return
	}

	newest := slices.Clone(props)
	slices.Reverse(newest)
	e.showResults(newest, fmt.Sprintf("You have %d properties:", len(props)), r)
}

func (e *Engine) showResults(props []*property.Property, heading string, r *Reply) {
	shown := props
	if len(shown) > e.maxResults {
		shown = shown[:e.maxResults]
	}

	r.add(heading)
	for _, p := range shown {
		r.add(formatShort(p), propertyButtons(p.ID)...)
	}
	if more := len(props) - len(shown); more > 0 {
		r.add(fmt.Sprintf("…and %d more.", more))
	}
}
