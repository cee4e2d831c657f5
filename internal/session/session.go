// Package session keeps per-user conversation state in memory.
//
// Sessions are not persisted. A restart drops every in-flight draft and
// candidate list; users start again from goal selection.
package session

import (
	"time"

	"github.com/elliotchance/pie/v2"

	"github.com/evcraddock/estate-bot/internal/fields"
	"github.com/evcraddock/estate-bot/internal/match"
)

// Goal is the top-level intent gating all further processing.
type Goal string

const (
	GoalNone     Goal = "none"
	GoalRegister Goal = "register"
	GoalSearch   Goal = "search"
	GoalFilter   Goal = "filter"
	GoalEdit     Goal = "edit"
	GoalList     Goal = "list"
)

// ParseGoal returns the goal named s.
func ParseGoal(s string) (Goal, bool) {
	switch g := Goal(s); g {
	case GoalRegister, GoalSearch, GoalFilter, GoalEdit, GoalList:
		return g, true
	}
	return GoalNone, false
}

// State is the conversation sub-state within a goal.
type State string

const (
	AwaitingGoal    State = "awaiting_goal"
	Collecting      State = "collecting"
	Confirming      State = "confirming"
	SelectingTarget State = "selecting_target"
	EditingTarget   State = "editing_target"
	Searching       State = "searching"
	Filtering       State = "filtering"
)

// StartState returns the state a goal begins in. List has no state of its
// own; it answers immediately and stays in AwaitingGoal.
func StartState(g Goal) State {
	switch g {
	case GoalRegister:
		return Collecting
	case GoalSearch:
		return Searching
	case GoalFilter:
		return Filtering
	case GoalEdit:
		return SelectingTarget
	}
	return AwaitingGoal
}

// Session is one user's conversation state.
type Session struct {
	UserID int64
	Goal   Goal
	State  State

	// Draft is used by the register flow.
	Draft fields.Draft
	// TitleSuggested is set while the draft's title is a generated default.
	TitleSuggested bool

	// Criteria is used by the search, filter and edit flows.
	Criteria match.Criteria

	// TargetID is the property being edited.
	TargetID int64
	// Candidates holds the IDs from the last candidate list shown.
	Candidates []int64

	UpdatedAt time.Time
}

func newSession(userID int64) *Session {
	return &Session{UserID: userID, Goal: GoalNone, State: AwaitingGoal}
}

// Reset returns the session to goal selection and drops all progress.
func (s *Session) Reset() {
	*s = Session{UserID: s.UserID, Goal: GoalNone, State: AwaitingGoal, UpdatedAt: s.UpdatedAt}
}

// SetGoal switches goal. Switching always discards the previous goal's draft,
// criteria and candidates.
func (s *Session) SetGoal(g Goal) {
	s.Reset()
	if g == GoalList {
		return
	}
	s.Goal = g
	s.State = StartState(g)
}

// HasCandidate reports whether id was in the last candidate list.
func (s *Session) HasCandidate(id int64) bool {
	return pie.Contains(s.Candidates, id)
}

// Clone returns a deep copy safe to read without holding the session lock.
func (s *Session) Clone() Session {
	out := *s
	out.Candidates = append([]int64(nil), s.Candidates...)
	return out
}
