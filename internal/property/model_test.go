package property

import (
	"errors"
	"testing"

	"github.com/evcraddock/estate-bot/internal/fields"
)

func draftOf(t *testing.T, kv map[fields.Name]any) fields.Draft {
	t.Helper()
	var p fields.Partial
	for n, v := range kv {
		p.Set(n, v)
	}
	d, _ := fields.Merge(fields.Draft{}, p)
	return d
}

func TestFromDraft(t *testing.T) {
	d := draftOf(t, map[fields.Name]any{
		fields.Title:       "Modern Apartment",
		fields.Type:        fields.TypeApartment,
		fields.City:        "New York",
		fields.Area:        120.0,
		fields.Price:       450000.0,
		fields.Bedrooms:    int64(3),
		fields.Elevator:    false,
		fields.Description: "Close to the park",
	})

	p, err := FromDraft(42, d)
	if err != nil {
		t.Fatalf("from draft: %v", err)
	}
	if p.OwnerID != 42 {
		t.Errorf("owner = %d, want 42", p.OwnerID)
	}
	if p.Type != TypeApartment {
		t.Errorf("type = %q, want %q", p.Type, TypeApartment)
	}
	if p.Area != 120 || p.Price != 450000 {
		t.Errorf("area/price = %v/%v, want 120/450000", p.Area, p.Price)
	}
	assertInt64(t, "bedrooms", p.Bedrooms, 3)
	assertBool(t, "elevator", p.Elevator, false)
	if p.Parking != nil {
		t.Errorf("parking = %v, want nil", *p.Parking)
	}
	if p.Description == nil || *p.Description != "Close to the park" {
		t.Errorf("description = %v", p.Description)
	}
}

func TestFromDraftIncomplete(t *testing.T) {
	d := draftOf(t, map[fields.Name]any{
		fields.Type: fields.TypeHouse,
		fields.City: "Oslo",
	})

	if _, err := FromDraft(1, d); err == nil {
		t.Fatal("expected error for incomplete draft")
	}
}

func TestApply(t *testing.T) {
	p := newListing(1, "Loft", 1000)

	var changes fields.Partial
	changes.Set(fields.Price, 1500.0)
	changes.Set(fields.Floor, int64(3))
	changes.Clear(fields.Neighborhood)

	out, err := p.Apply(changes)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out.Price != 1500 {
		t.Errorf("price = %v, want 1500", out.Price)
	}
	assertInt64(t, "floor", out.Floor, 3)
	if out.Neighborhood != nil {
		t.Errorf("neighborhood = %q, want nil", *out.Neighborhood)
	}
	if p.Price != 1000 || p.Neighborhood == nil {
		t.Error("Apply modified the receiver")
	}
}

func TestApplyRejectsRequiredClear(t *testing.T) {
	for _, n := range fields.Required {
		t.Run(string(n), func(t *testing.T) {
			var changes fields.Partial
			changes.Clear(n)
			_, err := newListing(1, "Loft", 1000).Apply(changes)
			if !errors.Is(err, ErrRequiredField) {
				t.Errorf("err = %v, want ErrRequiredField", err)
			}
		})
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"apartment", TypeApartment},
		{"Flat", TypeApartment},
		{"House", TypeHouse},
		{"villa", TypeVilla},
		{"land", TypeLand},
		{"boat", TypeOther},
	}

	for _, tt := range tests {
		if got := ParseType(tt.in); got != tt.want {
			t.Errorf("ParseType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
