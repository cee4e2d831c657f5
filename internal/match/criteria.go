// Package match holds search criteria and the predicate matcher used by the
// search, filter and edit-target flows.
package match

import (
	"fmt"
	"sort"
	"strings"

	"github.com/evcraddock/estate-bot/internal/fields"
)

// Criteria is an accumulated set of optional predicates. A nil field
// imposes no constraint.
type Criteria struct {
	Type         *string  `json:"property_type,omitempty"`
	City         *string  `json:"city,omitempty"`
	Neighborhood *string  `json:"neighborhood,omitempty"`
	MinPrice     *float64 `json:"min_price,omitempty"`
	MaxPrice     *float64 `json:"max_price,omitempty"`
	MinArea      *float64 `json:"min_area,omitempty"`
	MaxArea      *float64 `json:"max_area,omitempty"`
	MinBedrooms  *int64   `json:"min_bedrooms,omitempty"`
	Parking      *bool    `json:"parking,omitempty"`
	Elevator     *bool    `json:"elevator,omitempty"`
	Storage      *bool    `json:"storage,omitempty"`
	Keyword      *string  `json:"keyword,omitempty"`
}

// IsEmpty reports whether no predicate is set.
func (c Criteria) IsEmpty() bool {
	return c == Criteria{}
}

// Merge returns c with every predicate set in other overriding c's value.
func (c Criteria) Merge(other Criteria) Criteria {
	out := c
	if other.Type != nil {
		out.Type = other.Type
	}
	if other.City != nil {
		out.City = other.City
	}
	if other.Neighborhood != nil {
		out.Neighborhood = other.Neighborhood
	}
	if other.MinPrice != nil {
		out.MinPrice = other.MinPrice
	}
	if other.MaxPrice != nil {
		out.MaxPrice = other.MaxPrice
	}
	if other.MinArea != nil {
		out.MinArea = other.MinArea
	}
	if other.MaxArea != nil {
		out.MaxArea = other.MaxArea
	}
	if other.MinBedrooms != nil {
		out.MinBedrooms = other.MinBedrooms
	}
	if other.Parking != nil {
		out.Parking = other.Parking
	}
	if other.Elevator != nil {
		out.Elevator = other.Elevator
	}
	if other.Storage != nil {
		out.Storage = other.Storage
	}
	if other.Keyword != nil {
		out.Keyword = other.Keyword
	}
	return out
}

// Keyword builds criteria holding only a free-text keyword.
func Keyword(s string) Criteria {
	s = strings.TrimSpace(s)
	if s == "" {
		return Criteria{}
	}
	return Criteria{Keyword: &s}
}

// FromRaw coerces loosely typed extractor output into criteria. Values that
// cannot be read are dropped and reported as notes.
func FromRaw(raw map[string]any) (Criteria, []fields.Note) {
	var c Criteria
	var notes []fields.Note

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		v := raw[key]
		if fields.IsBlank(v) {
			continue
		}
		if err := c.set(strings.ToLower(key), v); err != nil {
			notes = append(notes, fields.Note{Field: noteField(key), Value: v, Reason: err.Error()})
		}
	}

	return c, notes
}

func (c *Criteria) set(key string, v any) error {
	switch key {
	case "property_type", "type":
		s, err := text(v)
		if err != nil {
			return err
		}
		s = fields.NormalizeType(s)
		c.Type = &s
	case "city":
		return setText(&c.City, v)
	case "neighborhood", "district":
		return setText(&c.Neighborhood, v)
	case "keyword", "keywords":
		return setText(&c.Keyword, v)
	case "min_price":
		return setNumber(&c.MinPrice, v, true)
	case "max_price":
		return setNumber(&c.MaxPrice, v, true)
	case "min_area":
		return setNumber(&c.MinArea, v, false)
	case "max_area":
		return setNumber(&c.MaxArea, v, false)
	case "rooms", "bedrooms", "min_bedrooms", "min_rooms":
		i, err := fields.ToInteger(v)
		if err != nil {
			return err
		}
		c.MinBedrooms = &i
	case "parking":
		return setBool(&c.Parking, v)
	case "elevator":
		return setBool(&c.Elevator, v)
	case "storage":
		return setBool(&c.Storage, v)
	}
	return nil
}

func noteField(key string) fields.Name {
	switch key {
	case "min_price", "max_price":
		return fields.Price
	case "min_area", "max_area":
		return fields.Area
	case "rooms", "min_bedrooms", "min_rooms":
		return fields.Bedrooms
	}
	if n, ok := fields.Lookup(key); ok {
		return n
	}
	return fields.Name(key)
}

func text(v any) (string, error) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("expected text")
	}
	return strings.TrimSpace(s), nil
}

func setText(dst **string, v any) error {
	s, err := text(v)
	if err != nil {
		return err
	}
	*dst = &s
	return nil
}

func setNumber(dst **float64, v any, magnitude bool) error {
	f, err := fields.ToNumber(v, magnitude)
	if err != nil {
		return err
	}
	if f < 0 {
		return fmt.Errorf("cannot be negative")
	}
	*dst = &f
	return nil
}

func setBool(dst **bool, v any) error {
	b, err := fields.ToBool(v)
	if err != nil {
		return err
	}
	*dst = &b
	return nil
}
