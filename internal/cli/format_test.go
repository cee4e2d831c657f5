package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/evcraddock/estate-bot/internal/auth"
	"github.com/evcraddock/estate-bot/internal/conversation"
	"github.com/evcraddock/estate-bot/internal/property"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"long", "hello world!", 8, "hello..."},
		{"multibyte", "Квартира у моря", 8, "Кварт..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := truncate(tt.input, tt.max)
			if result != tt.expected {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.max, result, tt.expected)
			}
		})
	}
}

func TestFormatAmenities(t *testing.T) {
	yes, no := true, false

	p := &property.Property{Parking: &yes, Storage: &no}
	if got := formatAmenities(p); got != "parking, no storage" {
		t.Errorf("formatAmenities = %q", got)
	}

	if got := formatAmenities(&property.Property{}); got != "" {
		t.Errorf("formatAmenities(empty) = %q, want empty", got)
	}
}

func TestPrintPropertyTable(t *testing.T) {
	props := []*property.Property{
		{ID: 1, Title: "Sea view flat", Type: property.TypeApartment, City: "Lisbon", Area: 80, Price: 250000},
		{ID: 2, Title: "Family house", Type: property.TypeHouse, City: "Porto", Area: 150.5, Price: 1200000},
	}

	var buf bytes.Buffer
	if err := printPropertyTable(&buf, props); err != nil {
		t.Fatalf("printPropertyTable: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"ID", "TITLE", "Sea view flat", "Apartment", "Lisbon", "80 sq m", "$250K", "150.5 sq m", "$1.2M", "Total: 2 properties"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestPrintPropertyTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := printPropertyTable(&buf, nil); err != nil {
		t.Fatalf("printPropertyTable: %v", err)
	}
	if buf.String() != "No properties found.\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestPrintPropertySummary(t *testing.T) {
	hood := "Alfama"
	beds := int64(2)
	p := &property.Property{
		ID:           3,
		Title:        "Sea view flat",
		Type:         property.TypeApartment,
		City:         "Lisbon",
		Neighborhood: &hood,
		Area:         80,
		Price:        250000,
		Bedrooms:     &beds,
		CreatedAt:    time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	printPropertySummary(&buf, p)
	out := buf.String()

	for _, want := range []string{"Property #3", "Alfama", "$250,000", "Beds:     2", "2026-03-01 10:30"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Address:") {
		t.Errorf("unknown address should be omitted:\n%s", out)
	}
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, &property.Stats{
		Count:        3,
		AveragePrice: 300000,
		ByCity:       map[string]int{"Porto": 1, "Lisbon": 2},
	})
	out := buf.String()

	if !strings.Contains(out, "$300,000") {
		t.Errorf("missing average price:\n%s", out)
	}
	if strings.Index(out, "Lisbon") > strings.Index(out, "Porto") {
		t.Errorf("cities should be ordered by count:\n%s", out)
	}

	buf.Reset()
	printStats(&buf, &property.Stats{})
	if buf.String() != "Properties:     0\n" {
		t.Errorf("empty stats = %q", buf.String())
	}
}

func TestPrintReplyNumbersButtons(t *testing.T) {
	reply := &conversation.Reply{Messages: []conversation.Message{
		{Text: "Found 2 properties.", Buttons: [][]conversation.Button{
			{{Label: "Flat", Data: "pick:1"}, {Label: "House", Data: "pick:2"}},
		}},
		{Text: "Anything else?", Buttons: [][]conversation.Button{
			{{Label: "Done", Data: "done"}},
		}},
	}}

	var buf bytes.Buffer
	buttons := printReply(&buf, reply)

	if len(buttons) != 3 || buttons[2].Data != "done" {
		t.Fatalf("buttons = %+v", buttons)
	}
	out := buf.String()
	for _, want := range []string{"[#1 Flat] [#2 House]", "[#3 Done]", "Anything else?"} {
		if !strings.Contains(out, want) {
			t.Errorf("reply missing %q:\n%s", want, out)
		}
	}
}

func TestPrintKeyTable(t *testing.T) {
	used := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	keys := []auth.APIKey{
		{ID: 2, Name: "alice", KeyPrefix: "eb_1a2b3", OwnerID: 42, LastUsedAt: &used},
		{ID: 1, Name: "bot", KeyPrefix: "eb_9f8e7"},
	}

	var buf bytes.Buffer
	if err := printKeyTable(&buf, keys); err != nil {
		t.Fatalf("printKeyTable: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"eb_1a2b3…", "42", "2026-05-02 08:00", "service", "never"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}
