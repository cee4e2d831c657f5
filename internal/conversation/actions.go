package conversation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/elliotchance/pie/v2"

	"github.com/evcraddock/estate-bot/internal/property"
	"github.com/evcraddock/estate-bot/internal/session"
)

// HandleAction processes a button press. Goal buttons switch goal (always
// discarding progress on the previous one); property buttons view, select
// or delete an owned property.
func (e *Engine) HandleAction(ctx context.Context, userID int64, data string) (Reply, error) {
	action, err := ParseAction(data)
	if err != nil {
		e.logger.Warn("invalid action", "user", userID, "data", data, slog.Any("error", err))
		return e.withSession(ctx, userID, func(_ *session.Session, r *Reply) {
			r.add(msgUnknownAction)
		})
	}

	return e.withSession(ctx, userID, func(sess *session.Session, r *Reply) {
		switch action.Kind {
		case ActionGoal:
			goal, ok := session.ParseGoal(action.Arg)
			if !ok {
				r.add(msgUnknownAction)
				return
			}
			e.startGoal(ctx, sess, goal, r)
		case ActionConfirm:
			if sess.State != session.Confirming {
				r.add(msgUnknownAction)
				return
			}
			e.saveDraft(ctx, sess, r)
		case ActionCancel:
			e.cancel(sess, r)
		case ActionShowAll:
			if sess.State != session.SelectingTarget {
				sess.SetGoal(session.GoalEdit)
			}
			e.showAllCandidates(ctx, sess, r)
		case ActionEdit:
			e.selectCandidate(ctx, sess, action.ID, r)
		case ActionView:
			e.view(ctx, sess, action.ID, r)
		case ActionDelete:
			e.askDelete(ctx, sess, action.ID, r)
		case ActionConfirmDelete:
			e.deleteProperty(ctx, sess, action.ID, r)
		case ActionCancelDelete:
			r.add(msgDeleteKept)
		}
	})
}

func (e *Engine) view(ctx context.Context, sess *session.Session, id int64, r *Reply) {
	p, ok := e.loadOne(ctx, sess, id, r)
	if !ok {
		return
	}
	r.add(formatCard(p), propertyButtons(p.ID)...)
}

func (e *Engine) askDelete(ctx context.Context, sess *session.Session, id int64, r *Reply) {
	p, ok := e.loadOne(ctx, sess, id, r)
	if !ok {
		return
	}
	r.add(msgDeleteAsk+"\n\n"+formatShort(p), deleteButtons(p.ID)...)
}

// deleteProperty removes an owned property after the user confirmed. It
// does not change the conversation state unless the property was part of
// the current edit flow.
func (e *Engine) deleteProperty(ctx context.Context, sess *session.Session, id int64, r *Reply) {
	err := e.repo.Delete(ctx, id, sess.UserID)
	if errors.Is(err, property.ErrNotFound) {
		r.add(msgNotFound)
		return
	}
	if err != nil {
		e.logger.Error("deleting property failed", "user", sess.UserID, "property_id", id, slog.Any("error", err))
		r.add(msgDeleteFailed)
		return
	}

	e.logger.Info("property deleted", "user", sess.UserID, "property_id", id)
	sess.Candidates = pie.Filter(sess.Candidates, func(c int64) bool { return c != id })
	if sess.State == session.EditingTarget && sess.TargetID == id {
		sess.Reset()
	}
	r.add(msgDeleted)
}

func (e *Engine) loadOne(ctx context.Context, sess *session.Session, id int64, r *Reply) (*property.Property, bool) {
	p, err := e.repo.Get(ctx, id, sess.UserID)
	if errors.Is(err, property.ErrNotFound) {
		r.add(msgNotFound)
		return nil, false
	}
	if err != nil {
		e.logger.Error("loading property failed", "user", sess.UserID, "property_id", id, slog.Any("error", err))
		r.add(msgLoadFailed)
		return nil, false
	}
	return p, true
}
