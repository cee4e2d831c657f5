package fields

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// Note is a soft validation message for a value that could not be used.
// The field is dropped from the change-set; the turn still succeeds.
type Note struct {
	Field  Name
	Value  any
	Reason string
}

func (n Note) String() string {
	return fmt.Sprintf("%s %q: %s", n.Field.Label(), cast.ToString(n.Value), n.Reason)
}

var (
	errNotNumber    = errors.New("not a number")
	errNotWhole     = errors.New("must be a whole number")
	errNotPositive  = errors.New("must be greater than zero")
	errNegative     = errors.New("cannot be negative")
	errNotYesNo     = errors.New("expected yes or no")
	errNotText      = errors.New("expected text")
	errUnknownField = errors.New("unknown field")
)

// aliases maps extractor keys to field names.
var aliases = map[string]Name{
	"title":         Title,
	"property_type": Type,
	"type":          Type,
	"city":          City,
	"neighborhood":  Neighborhood,
	"district":      Neighborhood,
	"address":       Address,
	"area":          Area,
	"size":          Area,
	"price":         Price,
	"bedrooms":      Bedrooms,
	"rooms":         Bedrooms,
	"floor":         Floor,
	"year_built":    YearBuilt,
	"year":          YearBuilt,
	"parking":       Parking,
	"elevator":      Elevator,
	"storage":       Storage,
	"description":   Description,
}

// Lookup resolves an extractor key to a field name.
func Lookup(key string) (Name, bool) {
	n, ok := aliases[strings.ToLower(strings.TrimSpace(key))]
	return n, ok
}

// Coerce turns loosely typed extractor output into a change-set. Blank
// values are skipped, unknown keys are ignored, and values that fail to
// coerce are dropped and reported as notes.
func Coerce(raw map[string]any) (Partial, []Note) {
	var p Partial
	var notes []Note

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		name, ok := Lookup(key)
		if !ok {
			continue
		}
		v := raw[key]
		if IsBlank(v) {
			continue
		}
		cv, err := CoerceValue(name, v)
		if err != nil {
			notes = append(notes, Note{Field: name, Value: v, Reason: err.Error()})
			continue
		}
		p.Set(name, cv)
	}

	return p, notes
}

// CoerceValue converts v to the Go type of the field and checks the
// field's value rules.
func CoerceValue(n Name, v any) (any, error) {
	switch n.Kind() {
	case KindNumber:
		f, err := ToNumber(v, n == Price)
		if err != nil {
			return nil, err
		}
		if f <= 0 {
			return nil, errNotPositive
		}
		return f, nil
	case KindInteger:
		i, err := ToInteger(v)
		if err != nil {
			return nil, err
		}
		if n == Bedrooms && i < 0 {
			return nil, errNegative
		}
		return i, nil
	case KindBool:
		return ToBool(v)
	case KindText:
		switch v.(type) {
		case map[string]any, []any:
			return nil, errNotText
		}
		s := strings.TrimSpace(cast.ToString(v))
		if s == "" {
			return nil, errNotText
		}
		if n == Type {
			return NormalizeType(s), nil
		}
		return s, nil
	}
	return nil, errUnknownField
}

// IsBlank reports whether an extractor value means "nothing observed".
func IsBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "null", "nil", "n/a", "unknown":
		return true
	}
	return false
}

var (
	numberPattern  = regexp.MustCompile(`^([-+]?(?:\d+\.?\d*|\.\d+))([a-z²]*)$`)
	numberStripper = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", "_", "", " ", "")
)

// ToNumber parses numbers and numeric strings such as "$450,000", "120 sq m"
// or "1.2m". Magnitude suffixes (k, m, mln, million) only apply when
// allowMagnitude is set; otherwise a trailing "m" is read as a unit.
func ToNumber(v any, allowMagnitude bool) (float64, error) {
	s, ok := v.(string)
	if !ok {
		if _, isBool := v.(bool); isBool {
			return 0, errNotNumber
		}
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return 0, errNotNumber
		}
		return f, nil
	}

	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, ".")
	for _, unit := range []string{"square meters", "square metres", "sq m", "sqm", "m2", "m²", "sq ft", "sqft", "usd", "dollars"} {
		s = strings.TrimSuffix(s, unit)
	}
	s = numberStripper.Replace(s)

	m := numberPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, errNotNumber
	}
	f, err := cast.ToFloat64E(m[1])
	if err != nil {
		return 0, errNotNumber
	}

	switch m[2] {
	case "":
	case "k", "thousand":
		if !allowMagnitude {
			return 0, errNotNumber
		}
		f *= 1e3
	case "m", "mln", "million":
		if allowMagnitude {
			f *= 1e6
		}
	case "b", "bn", "billion":
		if !allowMagnitude {
			return 0, errNotNumber
		}
		f *= 1e9
	default:
		return 0, errNotNumber
	}
	return f, nil
}

// ToInteger parses a whole number.
func ToInteger(v any) (int64, error) {
	f, err := ToNumber(v, false)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, errNotWhole
	}
	return int64(f), nil
}

var (
	trueWords  = map[string]bool{"yes": true, "y": true, "has": true, "have": true, "available": true, "required": true, "needed": true, "with": true}
	falseWords = map[string]bool{"no": true, "n": true, "none": true, "without": true, "not needed": true, "unavailable": true}
)

// ToBool parses booleans and yes/no style words.
func ToBool(v any) (bool, error) {
	s, ok := v.(string)
	if !ok {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return false, errNotYesNo
		}
		return b, nil
	}

	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case trueWords[s]:
		return true, nil
	case falseWords[s]:
		return false, nil
	}
	b, err := cast.ToBoolE(s)
	if err != nil {
		return false, errNotYesNo
	}
	return b, nil
}

var typeSynonyms = []struct {
	kind  string
	words []string
}{
	{TypeVilla, []string{"villa", "mansion", "chalet"}},
	{TypeApartment, []string{"apartment", "apt", "flat", "condo", "condominium", "studio", "penthouse", "loft"}},
	{TypeHouse, []string{"house", "home", "townhouse", "cottage", "bungalow", "detached", "duplex"}},
	{TypeLand, []string{"land", "plot", "lot", "parcel", "acreage"}},
}

var wordSplitter = regexp.MustCompile(`[^a-z]+`)

// NormalizeType maps free-form property kinds onto the canonical set.
// Anything unrecognized becomes "other".
func NormalizeType(s string) string {
	words := wordSplitter.Split(strings.ToLower(s), -1)
	for _, syn := range typeSynonyms {
		for _, w := range words {
			for _, candidate := range syn.words {
				if w == candidate || w == candidate+"s" {
					return syn.kind
				}
			}
		}
	}
	return TypeOther
}
