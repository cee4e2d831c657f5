package conversation

import (
	"regexp"
	"strings"

	"github.com/evcraddock/estate-bot/internal/fields"
)

// fieldSynonyms lists the words users use for each field, longest first so
// "storage room" wins over "storage".
var fieldSynonyms = []struct {
	name  fields.Name
	words []string
}{
	{fields.Description, []string{"description", "details", "summary", "notes", "note"}},
	{fields.Address, []string{"street address", "location details", "address"}},
	{fields.Neighborhood, []string{"neighborhood", "neighbourhood", "district"}},
	{fields.Title, []string{"title", "headline"}},
	{fields.Parking, []string{"parking space", "parking spot", "car park", "parking", "garage"}},
	{fields.Elevator, []string{"elevator", "lift"}},
	{fields.Storage, []string{"storage room", "storage", "locker"}},
	{fields.Bedrooms, []string{"bedrooms", "bedroom count", "rooms"}},
	{fields.YearBuilt, []string{"construction year", "year built", "build year"}},
	{fields.Floor, []string{"floor number", "floor"}},
	{fields.Area, []string{"square meters", "area", "size"}},
	{fields.Price, []string{"price"}},
	{fields.City, []string{"city"}},
	{fields.Type, []string{"property type", "type"}},
}

type changeRule struct {
	name   fields.Name
	clear  *regexp.Regexp
	negate []*regexp.Regexp
}

var changeRules = buildChangeRules()

func buildChangeRules() []changeRule {
	rules := make([]changeRule, 0, len(fieldSynonyms))
	for _, fs := range fieldSynonyms {
		quoted := make([]string, len(fs.words))
		for i, w := range fs.words {
			quoted[i] = regexp.QuoteMeta(w)
		}
		syn := `(?:` + strings.Join(quoted, "|") + `)`

		r := changeRule{
			name: fs.name,
			clear: regexp.MustCompile(
				`\b(?:(?:delete|remove|clear|erase|drop)\s+(?:the\s+|my\s+|this\s+|that\s+|its\s+)?` + syn +
					`|(?:set|make|change)\s+(?:the\s+)?` + syn + `\s+to\s+(?:none|null|nothing|empty|blank))\b`),
		}
		if fs.name.Kind() == fields.KindBool {
			r.negate = []*regexp.Regexp{
				regexp.MustCompile(`\b(?:no|without)\s+(?:a\s+|an\s+)?` + syn + `\b`),
				regexp.MustCompile(`\b` + syn + `\s+(?:is\s+)?not\s+(?:needed|available|included)\b`),
				regexp.MustCompile(`\b(?:doesnt|does not|dont|do not)\s+have\s+(?:a\s+|an\s+)?` + syn + `\b`),
			}
		}
		rules = append(rules, r)
	}
	return rules
}

// amountFollows matches "drop the price to 500k" style phrasing, which
// changes a value rather than removing it.
var amountFollows = regexp.MustCompile(`^\s+(?:to|by)\s+[\d$€£]`)

// detectChanges finds explicit field removals ("delete the description",
// "set the address to none") and amenity negations ("no parking",
// "without elevator") in free text.
func detectChanges(text string) fields.Partial {
	var p fields.Partial
	t := strings.ToLower(apostrophes.Replace(text))

	for _, r := range changeRules {
		for _, loc := range r.clear.FindAllStringIndex(t, -1) {
			if amountFollows.MatchString(t[loc[1]:]) {
				continue
			}
			p.Clear(r.name)
			break
		}
		if p.IsCleared(r.name) {
			continue
		}
		for _, re := range r.negate {
			if re.MatchString(t) {
				p.Set(r.name, false)
				break
			}
		}
	}

	return p
}
