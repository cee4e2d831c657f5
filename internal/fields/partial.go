package fields

// Partial is a change-set produced by one turn. A field is either absent,
// set to a new value, or explicitly cleared. Absent and cleared are distinct:
// merging an absent field keeps the prior value, merging a cleared field
// removes it.
//
// The zero value is an empty change-set ready to use.
type Partial struct {
	values  map[Name]any
	cleared map[Name]struct{}
}

// Set records a new value for the field. The value must already have the
// Go type matching the field's Kind: string, float64, int64 or bool.
func (p *Partial) Set(n Name, v any) {
	if p.values == nil {
		p.values = make(map[Name]any)
	}
	p.values[n] = v
	delete(p.cleared, n)
}

// Clear marks the field as explicitly removed.
func (p *Partial) Clear(n Name) {
	if p.cleared == nil {
		p.cleared = make(map[Name]struct{})
	}
	p.cleared[n] = struct{}{}
	delete(p.values, n)
}

// Value returns the new value for the field, if one was set.
func (p Partial) Value(n Name) (any, bool) {
	v, ok := p.values[n]
	return v, ok
}

// IsCleared reports whether the field carries a clear marker.
func (p Partial) IsCleared(n Name) bool {
	_, ok := p.cleared[n]
	return ok
}

// IsEmpty reports whether the change-set carries no values and no clears.
func (p Partial) IsEmpty() bool {
	return len(p.values) == 0 && len(p.cleared) == 0
}

// Names returns every field touched by the change-set, in display order.
func (p Partial) Names() []Name {
	var names []Name
	for _, n := range All {
		if _, ok := p.values[n]; ok {
			names = append(names, n)
			continue
		}
		if _, ok := p.cleared[n]; ok {
			names = append(names, n)
		}
	}
	return names
}

// Cleared returns the fields carrying a clear marker, in display order.
func (p Partial) Cleared() []Name {
	var names []Name
	for _, n := range All {
		if _, ok := p.cleared[n]; ok {
			names = append(names, n)
		}
	}
	return names
}

// Overlay applies other on top of p; fields touched by other win.
func (p *Partial) Overlay(other Partial) {
	for n, v := range other.values {
		p.Set(n, v)
	}
	for n := range other.cleared {
		p.Clear(n)
	}
}
