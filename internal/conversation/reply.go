package conversation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/evcraddock/estate-bot/internal/session"
)

// Button is a selectable affordance attached to a message. Data is sent
// back through HandleAction when the button is pressed.
type Button struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// Message is one outgoing chat message.
type Message struct {
	Text    string     `json:"text"`
	Buttons [][]Button `json:"buttons,omitempty"`
}

// Reply is everything the engine answers to one turn.
type Reply struct {
	Messages []Message     `json:"messages"`
	State    session.State `json:"state"`
}

func (r *Reply) add(text string, rows ...[]Button) {
	r.Messages = append(r.Messages, Message{Text: text, Buttons: rows})
}

// Text joins all messages into a single block.
func (r Reply) Text() string {
	parts := make([]string, 0, len(r.Messages))
	for _, m := range r.Messages {
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, "\n\n")
}

// Action kinds carried in button data.
const (
	ActionGoal          = "goal"
	ActionEdit          = "edit"
	ActionView          = "view"
	ActionDelete        = "delete"
	ActionConfirmDelete = "confirm_delete"
	ActionCancelDelete  = "cancel_delete"
	ActionConfirm       = "confirm"
	ActionCancel        = "cancel"
	ActionShowAll       = "show_all"
)

// Action is a parsed button press.
type Action struct {
	Kind string
	Arg  string
	ID   int64
}

// ParseAction decodes button data of the form "kind" or "kind:arg".
func ParseAction(data string) (Action, error) {
	kind, arg, _ := strings.Cut(strings.TrimSpace(data), ":")
	a := Action{Kind: kind, Arg: arg}

	switch kind {
	case ActionGoal:
		if arg == "" {
			return a, fmt.Errorf("goal action without goal")
		}
	case ActionEdit, ActionView, ActionDelete, ActionConfirmDelete:
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return a, fmt.Errorf("invalid property id %q", arg)
		}
		a.ID = id
	case ActionCancelDelete, ActionConfirm, ActionCancel, ActionShowAll:
	default:
		return a, fmt.Errorf("unknown action %q", kind)
	}
	return a, nil
}

func actionData(kind string, id int64) string {
	return kind + ":" + strconv.FormatInt(id, 10)
}

func goalButtons() [][]Button {
	return [][]Button{
		{{Label: "🏠 Register property", Data: ActionGoal + ":" + string(session.GoalRegister)}},
		{
			{Label: "🔍 Search", Data: ActionGoal + ":" + string(session.GoalSearch)},
			{Label: "🔤 Filter", Data: ActionGoal + ":" + string(session.GoalFilter)},
		},
		{
			{Label: "✏️ Edit", Data: ActionGoal + ":" + string(session.GoalEdit)},
			{Label: "📋 My properties", Data: ActionGoal + ":" + string(session.GoalList)},
		},
	}
}

func confirmButtons() [][]Button {
	return [][]Button{{
		{Label: "✅ Confirm", Data: ActionConfirm},
		{Label: "❌ Cancel", Data: ActionCancel},
	}}
}

func propertyButtons(id int64) [][]Button {
	return [][]Button{{
		{Label: "👁 View", Data: actionData(ActionView, id)},
		{Label: "✏️ Edit", Data: actionData(ActionEdit, id)},
		{Label: "🗑 Delete", Data: actionData(ActionDelete, id)},
	}}
}

func selectButtons(id int64) [][]Button {
	return [][]Button{{{Label: "✏️ Edit this one", Data: actionData(ActionEdit, id)}}}
}

func deleteButtons(id int64) [][]Button {
	return [][]Button{{
		{Label: "🗑 Yes, delete", Data: actionData(ActionConfirmDelete, id)},
		{Label: "Keep it", Data: ActionCancelDelete},
	}}
}
