package match

import (
	"strings"

	"github.com/elliotchance/pie/v2"

	"github.com/evcraddock/estate-bot/internal/property"
)

// Match returns the candidates satisfying every predicate in c, keeping
// their input order. Empty criteria match everything.
func Match(c Criteria, candidates []*property.Property) []*property.Property {
	if c.IsEmpty() {
		return candidates
	}
	return pie.Filter(candidates, c.Matches)
}

// Matches reports whether p satisfies every predicate in c.
func (c Criteria) Matches(p *property.Property) bool {
	if p == nil {
		return false
	}
	if c.Type != nil && string(p.Type) != *c.Type {
		return false
	}
	if c.City != nil && !containsFold(p.City, *c.City) {
		return false
	}
	if c.Neighborhood != nil && (p.Neighborhood == nil || !containsFold(*p.Neighborhood, *c.Neighborhood)) {
		return false
	}
	if !inRange(p.Price, c.MinPrice, c.MaxPrice) {
		return false
	}
	if !inRange(p.Area, c.MinArea, c.MaxArea) {
		return false
	}
	if c.MinBedrooms != nil && (p.Bedrooms == nil || *p.Bedrooms < *c.MinBedrooms) {
		return false
	}
	if !flagMatches(c.Parking, p.Parking) || !flagMatches(c.Elevator, p.Elevator) || !flagMatches(c.Storage, p.Storage) {
		return false
	}
	if c.Keyword != nil && !containsFold(searchText(p), *c.Keyword) {
		return false
	}
	return true
}

func inRange(v float64, lo, hi *float64) bool {
	if lo != nil && v < *lo {
		return false
	}
	if hi != nil && v > *hi {
		return false
	}
	return true
}

// flagMatches treats an unknown amenity as false, so "no parking" matches
// listings that never mentioned parking.
func flagMatches(want, have *bool) bool {
	if want == nil {
		return true
	}
	got := have != nil && *have
	return got == *want
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
}

func searchText(p *property.Property) string {
	parts := []string{p.Title}
	if p.Description != nil {
		parts = append(parts, *p.Description)
	}
	if p.Address != nil {
		parts = append(parts, *p.Address)
	}
	return strings.Join(parts, " ")
}
