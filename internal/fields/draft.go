package fields

import (
	"fmt"
	"strings"
)

// Draft accumulates a listing's fields across turns before it is saved.
// The zero value is an empty draft. A Draft is never mutated in place by
// Merge; each merge returns a new value.
type Draft struct {
	values map[Name]any
}

// Value returns the field's value if present.
func (d Draft) Value(n Name) (any, bool) {
	v, ok := d.values[n]
	return v, ok
}

// Has reports whether the field is present.
func (d Draft) Has(n Name) bool {
	_, ok := d.values[n]
	return ok
}

// Text returns a text field, or "" when absent.
func (d Draft) Text(n Name) string {
	s, _ := d.values[n].(string)
	return s
}

// Number returns a numeric field.
func (d Draft) Number(n Name) (float64, bool) {
	f, ok := d.values[n].(float64)
	return f, ok
}

// Integer returns an integer field.
func (d Draft) Integer(n Name) (int64, bool) {
	i, ok := d.values[n].(int64)
	return i, ok
}

// Bool returns a boolean field.
func (d Draft) Bool(n Name) (bool, bool) {
	b, ok := d.values[n].(bool)
	return b, ok
}

// Len returns the number of present fields.
func (d Draft) Len() int {
	return len(d.values)
}

// IsEmpty reports whether no field is present.
func (d Draft) IsEmpty() bool {
	return len(d.values) == 0
}

// Values returns a copy of the present fields.
func (d Draft) Values() map[Name]any {
	out := make(map[Name]any, len(d.values))
	for n, v := range d.values {
		out[n] = v
	}
	return out
}

// Missing returns the required fields still absent, in canonical order.
func (d Draft) Missing() []Name {
	var missing []Name
	for _, n := range Required {
		if !d.Has(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// Merge applies a change-set to a draft. Set fields overwrite prior values,
// cleared fields are removed, absent fields are kept. It returns the new
// draft and the required fields it still lacks.
func Merge(d Draft, p Partial) (Draft, []Name) {
	out := Draft{values: make(map[Name]any, len(d.values)+len(p.values))}
	for n, v := range d.values {
		out.values[n] = v
	}
	for n, v := range p.values {
		out.values[n] = v
	}
	for n := range p.cleared {
		delete(out.values, n)
	}
	return out, out.Missing()
}

// SuggestTitle builds a default title such as "Apartment in New York" when
// title is the only required field missing.
func SuggestTitle(d Draft) (string, bool) {
	missing := d.Missing()
	if len(missing) != 1 || missing[0] != Title {
		return "", false
	}

	kind := d.Text(Type)
	if kind == "" || kind == TypeOther {
		kind = "property"
	}
	return fmt.Sprintf("%s in %s", strings.ToUpper(kind[:1])+kind[1:], d.Text(City)), true
}
