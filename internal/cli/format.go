package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/evcraddock/estate-bot/internal/auth"
	"github.com/evcraddock/estate-bot/internal/conversation"
	"github.com/evcraddock/estate-bot/internal/property"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printPropertySummary prints a single property in text format.
func printPropertySummary(w io.Writer, p *property.Property) {
	fmt.Fprintf(w, "Property #%d\n", p.ID)
	fmt.Fprintf(w, "  Title:    %s\n", p.Title)
	fmt.Fprintf(w, "  Type:     %s\n", p.Type.Label())
	fmt.Fprintf(w, "  City:     %s\n", p.City)
	if p.Neighborhood != nil {
		fmt.Fprintf(w, "  Area:     %s\n", *p.Neighborhood)
	}
	if p.Address != nil {
		fmt.Fprintf(w, "  Address:  %s\n", *p.Address)
	}
	fmt.Fprintf(w, "  Size:     %s\n", property.FormatArea(p.Area))
	fmt.Fprintf(w, "  Price:    %s\n", property.FormatPrice(p.Price))
	if p.Bedrooms != nil {
		fmt.Fprintf(w, "  Beds:     %d\n", *p.Bedrooms)
	}
	if p.Floor != nil {
		fmt.Fprintf(w, "  Floor:    %d\n", *p.Floor)
	}
	if p.YearBuilt != nil {
		fmt.Fprintf(w, "  Built:    %d\n", *p.YearBuilt)
	}
	if amenities := formatAmenities(p); amenities != "" {
		fmt.Fprintf(w, "  Extras:   %s\n", amenities)
	}
	if p.Description != nil {
		fmt.Fprintf(w, "  Notes:    %s\n", *p.Description)
	}
	fmt.Fprintf(w, "  Added:    %s\n", p.CreatedAt.Format("2006-01-02 15:04"))
}

// formatAmenities lists the yes/no features that are known.
func formatAmenities(p *property.Property) string {
	var parts []string
	for _, f := range []struct {
		name string
		v    *bool
	}{
		{"parking", p.Parking},
		{"elevator", p.Elevator},
		{"storage", p.Storage},
	} {
		if f.v == nil {
			continue
		}
		if *f.v {
			parts = append(parts, f.name)
		} else {
			parts = append(parts, "no "+f.name)
		}
	}
	return strings.Join(parts, ", ")
}

// printPropertyTable prints a list of properties as a formatted table.
func printPropertyTable(out io.Writer, props []*property.Property) error {
	if len(props) == 0 {
		fmt.Fprintln(out, "No properties found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tTITLE\tTYPE\tCITY\tSIZE\tPRICE"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t-----\t----\t----\t----\t-----"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, p := range props {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, truncate(p.Title, 40), p.Type.Label(), truncate(p.City, 20),
			property.FormatArea(p.Area), property.ShortPrice(p.Price)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Fprintf(out, "\nTotal: %d properties\n", len(props))
	return nil
}

// printStats prints a listing summary.
func printStats(w io.Writer, stats *property.Stats) {
	fmt.Fprintf(w, "Properties:     %d\n", stats.Count)
	if stats.Count == 0 {
		return
	}
	fmt.Fprintf(w, "Average price:  %s\n", property.FormatPrice(stats.AveragePrice))

	cities := make([]string, 0, len(stats.ByCity))
	for city := range stats.ByCity {
		cities = append(cities, city)
	}
	sort.Slice(cities, func(i, j int) bool {
		if stats.ByCity[cities[i]] != stats.ByCity[cities[j]] {
			return stats.ByCity[cities[i]] > stats.ByCity[cities[j]]
		}
		return cities[i] < cities[j]
	})
	for _, city := range cities {
		fmt.Fprintf(w, "  %-20s %d\n", city, stats.ByCity[city])
	}
}

// printReply prints the engine's messages. Buttons are numbered across the
// whole reply so they can be pressed with "#n".
func printReply(w io.Writer, reply *conversation.Reply) []conversation.Button {
	var buttons []conversation.Button
	for i, m := range reply.Messages {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, m.Text)
		for _, row := range m.Buttons {
			labels := make([]string, 0, len(row))
			for _, b := range row {
				buttons = append(buttons, b)
				labels = append(labels, fmt.Sprintf("[#%d %s]", len(buttons), b.Label))
			}
			fmt.Fprintln(w, "  "+strings.Join(labels, " "))
		}
	}
	return buttons
}

// printKeyTable prints API keys as a formatted table.
func printKeyTable(out io.Writer, keys []auth.APIKey) error {
	if len(keys) == 0 {
		fmt.Fprintln(out, "No API keys.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tNAME\tPREFIX\tUSER\tLAST USED"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, k := range keys {
		user := "service"
		if !k.IsService() {
			user = fmt.Sprintf("%d", k.OwnerID)
		}
		lastUsed := "never"
		if k.LastUsedAt != nil {
			lastUsed = k.LastUsedAt.Format("2006-01-02 15:04")
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s…\t%s\t%s\n", k.ID, truncate(k.Name, 30), k.KeyPrefix, user, lastUsed); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
