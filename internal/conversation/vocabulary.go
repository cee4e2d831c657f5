package conversation

import (
	"regexp"
	"strings"

	"github.com/evcraddock/estate-bot/internal/session"
)

var (
	affirmatives = map[string]bool{"confirm": true, "yes": true, "ok": true, "correct": true, "submit": true, "save": true}
	negatives    = map[string]bool{"cancel": true, "no": true, "stop": true, "abort": true}

	// fillers may surround a yes/no reply without turning it into an edit.
	fillers = map[string]bool{
		"please": true, "thanks": true, "thank": true, "you": true, "it": true, "its": true,
		"that": true, "thats": true, "is": true, "all": true, "the": true, "data": true,
		"everything": true, "looks": true, "good": true, "fine": true, "just": true, "go": true, "ahead": true,
	}

	wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)
	apostrophes = strings.NewReplacer("'", "", "’", "")
)

type replyKind int

const (
	replyOther replyKind = iota
	replyAffirmative
	replyNegative
)

// classifyReply decides whether text is a plain yes or no. A reply counts
// only if every word is from one vocabulary or a filler, so "no parking"
// is an edit and not a cancellation.
func classifyReply(text string) replyKind {
	words := wordPattern.FindAllString(strings.ToLower(apostrophes.Replace(text)), -1)

	yes, no, other := 0, 0, 0
	for _, w := range words {
		switch {
		case affirmatives[w]:
			yes++
		case negatives[w]:
			no++
		case fillers[w]:
		default:
			other++
		}
	}

	switch {
	case other > 0:
		return replyOther
	case yes > 0 && no == 0:
		return replyAffirmative
	case no > 0 && yes == 0:
		return replyNegative
	}
	return replyOther
}

var showAllPhrases = []string{
	"show all properties",
	"list all properties",
	"see all properties",
	"display all properties",
	"show all",
}

// isShowAll reports whether text asks for every property, regardless of
// any other words in it.
func isShowAll(text string) bool {
	t := strings.ToLower(text)
	for _, p := range showAllPhrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}

var goalPatterns = []struct {
	goal    session.Goal
	pattern *regexp.Regexp
}{
	{session.GoalRegister, regexp.MustCompile(`\b(?:register|add|create|post|new property|list (?:a )?property)\b`)},
	{session.GoalSearch, regexp.MustCompile(`\b(?:search|find|look for|looking for)\b`)},
	{session.GoalFilter, regexp.MustCompile(`\b(?:filter|keyword|keywords|contains?)\b`)},
	{session.GoalEdit, regexp.MustCompile(`\b(?:edit|update|modify|change)\b`)},
	{session.GoalList, regexp.MustCompile(`\b(?:list|show my|my properties|my listings|view my)\b`)},
}

// parseGoal recognizes a goal keyword. Goals are checked in a fixed order
// so "list a property" registers rather than lists.
func parseGoal(text string) (session.Goal, bool) {
	t := strings.ToLower(text)
	for _, gp := range goalPatterns {
		if gp.pattern.MatchString(t) {
			return gp.goal, true
		}
	}
	return session.GoalNone, false
}

// normalizeCommand turns "/Start@estate_bot args" into "start".
func normalizeCommand(text string) (string, bool) {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "/") {
		return "", false
	}
	cmd, _, _ := strings.Cut(t[1:], " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd), true
}
