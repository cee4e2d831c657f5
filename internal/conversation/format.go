package conversation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/elliotchance/pie/v2"

	"github.com/evcraddock/estate-bot/internal/fields"
	"github.com/evcraddock/estate-bot/internal/property"
)

// formatValue renders one draft value for display.
func formatValue(n fields.Name, v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "yes"
		}
		return "no"
	case float64:
		switch n {
		case fields.Price:
			return property.FormatPrice(x)
		case fields.Area:
			return property.FormatArea(x)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case string:
		if n == fields.Type {
			return property.Type(x).Label()
		}
		return x
	}
	return fmt.Sprint(v)
}

// formatDraft lists every present field of the draft.
func formatDraft(d fields.Draft) string {
	var b strings.Builder
	for _, n := range fields.All {
		v, ok := d.Value(n)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "• %s: %s\n", n.Label(), formatValue(n, v))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatMissing(missing []fields.Name) string {
	labels := pie.Map(missing, func(n fields.Name) string { return n.Label() })
	return "Still needed: " + strings.Join(labels, ", ")
}

func formatNotes(notes []fields.Note) string {
	lines := pie.Map(notes, func(n fields.Note) string { return "⚠️ I couldn't use " + n.String() })
	return strings.Join(lines, "\n")
}

// formatCard renders a saved property.
func formatCard(p *property.Property) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏠 %s (#%d)\n", p.Title, p.ID)
	fmt.Fprintf(&b, "Type: %s\n", p.Type.Label())

	location := p.City
	if p.Neighborhood != nil {
		location = *p.Neighborhood + ", " + p.City
	}
	fmt.Fprintf(&b, "Location: %s\n", location)
	if p.Address != nil {
		fmt.Fprintf(&b, "Address: %s\n", *p.Address)
	}
	fmt.Fprintf(&b, "Area: %s\n", property.FormatArea(p.Area))
	fmt.Fprintf(&b, "Price: %s\n", property.FormatPrice(p.Price))

	var details []string
	if p.Bedrooms != nil {
		details = append(details, fmt.Sprintf("Bedrooms: %d", *p.Bedrooms))
	}
	if p.Floor != nil {
		details = append(details, fmt.Sprintf("Floor: %d", *p.Floor))
	}
	if p.YearBuilt != nil {
		details = append(details, fmt.Sprintf("Built: %d", *p.YearBuilt))
	}
	if len(details) > 0 {
		b.WriteString(strings.Join(details, " | ") + "\n")
	}

	var amenities []string
	for _, a := range []struct {
		label string
		v     *bool
	}{{"Parking", p.Parking}, {"Elevator", p.Elevator}, {"Storage", p.Storage}} {
		if a.v != nil {
			amenities = append(amenities, a.label+": "+formatValue(fields.Parking, *a.v))
		}
	}
	if len(amenities) > 0 {
		b.WriteString(strings.Join(amenities, " | ") + "\n")
	}

	if p.Description != nil {
		fmt.Fprintf(&b, "\n%s\n", *p.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatShort renders a one-line summary for candidate lists.
func formatShort(p *property.Property) string {
	return fmt.Sprintf("#%d %s · %s, %s · %s · %s",
		p.ID, p.Title, p.Type.Label(), p.City, property.FormatArea(p.Area), property.ShortPrice(p.Price))
}

// formatChanges lists the fields touched by an edit.
func formatChanges(changes fields.Partial) string {
	var lines []string
	for _, n := range changes.Names() {
		if changes.IsCleared(n) {
			lines = append(lines, fmt.Sprintf("• %s: removed", n.Label()))
			continue
		}
		v, _ := changes.Value(n)
		lines = append(lines, fmt.Sprintf("• %s: %s", n.Label(), formatValue(n, v)))
	}
	return strings.Join(lines, "\n")
}
