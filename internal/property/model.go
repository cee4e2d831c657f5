// Package property provides the property domain model and data access.
package property

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/evcraddock/estate-bot/internal/fields"
)

// Type is the kind of property.
type Type string

const (
	TypeApartment Type = fields.TypeApartment
	TypeHouse     Type = fields.TypeHouse
	TypeVilla     Type = fields.TypeVilla
	TypeLand      Type = fields.TypeLand
	TypeOther     Type = fields.TypeOther
)

// ParseType maps free-form text onto a known Type.
func ParseType(s string) Type {
	return Type(fields.NormalizeType(s))
}

// Property represents a listing owned by one chat user.
type Property struct {
	ID           int64     `json:"id"`
	OwnerID      int64     `json:"owner_id" validate:"required"`
	Title        string    `json:"title" validate:"required"`
	Type         Type      `json:"property_type" validate:"oneof=apartment house villa land other"`
	City         string    `json:"city" validate:"required"`
	Neighborhood *string   `json:"neighborhood,omitempty"`
	Address      *string   `json:"address,omitempty"`
	Area         float64   `json:"area" validate:"gt=0"`
	Price        float64   `json:"price" validate:"gt=0"`
	Bedrooms     *int64    `json:"bedrooms,omitempty" validate:"omitempty,gte=0"`
	Floor        *int64    `json:"floor,omitempty"`
	YearBuilt    *int64    `json:"year_built,omitempty"`
	Parking      *bool     `json:"parking,omitempty"`
	Elevator     *bool     `json:"elevator,omitempty"`
	Storage      *bool     `json:"storage,omitempty"`
	Description  *string   `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the record can be persisted.
func (p *Property) Validate() error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid property: %s failed %q", verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid property: %w", err)
	}
	return nil
}

// FromDraft builds a record for owner from a completed draft.
func FromDraft(owner int64, d fields.Draft) (*Property, error) {
	if missing := d.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("draft is missing %s", missing[0].Label())
	}

	p := &Property{
		OwnerID: owner,
		Title:   d.Text(fields.Title),
		Type:    Type(d.Text(fields.Type)),
		City:    d.Text(fields.City),
	}
	p.Area, _ = d.Number(fields.Area)
	p.Price, _ = d.Number(fields.Price)
	p.Neighborhood = optText(d, fields.Neighborhood)
	p.Address = optText(d, fields.Address)
	p.Description = optText(d, fields.Description)
	p.Bedrooms = optInt(d, fields.Bedrooms)
	p.Floor = optInt(d, fields.Floor)
	p.YearBuilt = optInt(d, fields.YearBuilt)
	p.Parking = optBool(d, fields.Parking)
	p.Elevator = optBool(d, fields.Elevator)
	p.Storage = optBool(d, fields.Storage)

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Apply returns a copy of p with a change-set applied. It is used to
// validate an update before it reaches storage.
func (p *Property) Apply(changes fields.Partial) (*Property, error) {
	out := *p
	for _, n := range changes.Names() {
		if changes.IsCleared(n) {
			if n.IsRequired() {
				return nil, fmt.Errorf("%w: %s", ErrRequiredField, n.Label())
			}
			out.set(n, nil)
			continue
		}
		v, _ := changes.Value(n)
		out.set(n, v)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *Property) set(n fields.Name, v any) {
	switch n {
	case fields.Title:
		p.Title, _ = v.(string)
	case fields.Type:
		s, _ := v.(string)
		p.Type = Type(s)
	case fields.City:
		p.City, _ = v.(string)
	case fields.Area:
		p.Area, _ = v.(float64)
	case fields.Price:
		p.Price, _ = v.(float64)
	case fields.Neighborhood:
		p.Neighborhood = ptrOf[string](v)
	case fields.Address:
		p.Address = ptrOf[string](v)
	case fields.Description:
		p.Description = ptrOf[string](v)
	case fields.Bedrooms:
		p.Bedrooms = ptrOf[int64](v)
	case fields.Floor:
		p.Floor = ptrOf[int64](v)
	case fields.YearBuilt:
		p.YearBuilt = ptrOf[int64](v)
	case fields.Parking:
		p.Parking = ptrOf[bool](v)
	case fields.Elevator:
		p.Elevator = ptrOf[bool](v)
	case fields.Storage:
		p.Storage = ptrOf[bool](v)
	}
}

func ptrOf[T any](v any) *T {
	t, ok := v.(T)
	if !ok {
		return nil
	}
	return &t
}

func optText(d fields.Draft, n fields.Name) *string {
	if !d.Has(n) {
		return nil
	}
	s := d.Text(n)
	return &s
}

func optInt(d fields.Draft, n fields.Name) *int64 {
	if i, ok := d.Integer(n); ok {
		return &i
	}
	return nil
}

func optBool(d fields.Draft, n fields.Name) *bool {
	if b, ok := d.Bool(n); ok {
		return &b
	}
	return nil
}

// scanProperty scans a property from a database row.
func scanProperty(row interface{ Scan(...interface{}) error }) (*Property, error) {
	var p Property
	var neighborhood, address, description sql.NullString
	var bedrooms, floor, yearBuilt sql.NullInt64
	var parking, elevator, storage sql.NullBool
	var propertyType string

	err := row.Scan(
		&p.ID, &p.OwnerID, &p.Title, &propertyType, &p.City,
		&neighborhood, &address, &p.Area, &p.Price,
		&bedrooms, &floor, &yearBuilt,
		&parking, &elevator, &storage,
		&description, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Type = Type(propertyType)
	if neighborhood.Valid {
		p.Neighborhood = &neighborhood.String
	}
	if address.Valid {
		p.Address = &address.String
	}
	if description.Valid {
		p.Description = &description.String
	}
	if bedrooms.Valid {
		p.Bedrooms = &bedrooms.Int64
	}
	if floor.Valid {
		p.Floor = &floor.Int64
	}
	if yearBuilt.Valid {
		p.YearBuilt = &yearBuilt.Int64
	}
	if parking.Valid {
		p.Parking = &parking.Bool
	}
	if elevator.Valid {
		p.Elevator = &elevator.Bool
	}
	if storage.Valid {
		p.Storage = &storage.Bool
	}

	return &p, nil
}
