package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// DefaultTopStreets is the ranking size shown by the dashboard.
const DefaultTopStreets = 5

// ErrUnknownCategory is returned by ParseCategory.
var ErrUnknownCategory = errors.New("unknown injured-party category")

// Category selects which injured count a ranking uses.
type Category string

const (
	Pedestrians Category = "pedestrians"
	Cyclists    Category = "cyclists"
	Motorists   Category = "motorists"
)

// Categories lists every category in display order.
var Categories = []Category{Pedestrians, Cyclists, Motorists}

// ParseCategory accepts a category name in any case ("Pedestrians",
// "cyclists", ...).
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Categories, c) {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Title returns the display label, e.g. "Pedestrians".
func (c Category) Title() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// count returns the injured count of r for this category.
func (c Category) count(r Record) *int {
	switch c {
	case Pedestrians:
		return r.PedestriansInjured
	case Cyclists:
		return r.CyclistsInjured
	case Motorists:
		return r.MotoristsInjured
	default:
		return nil
	}
}

// StreetInjuries is one row of a top-streets ranking.
type StreetInjuries struct {
	Street    string  `json:"street"`
	Injured   int     `json:"injured"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Place is a geocoded label for the crash coordinate, when enrichment ran.
	Place string `json:"place,omitempty"`
}

// TopStreets ranks the crashes in set with at least one injured party of the
// given category and a known street, by that count descending. Ties keep
// source order. At most limit entries are returned.
func TopStreets(set *RecordSet, c Category, limit int) []StreetInjuries {
	if limit <= 0 {
		return []StreetInjuries{}
	}

	ranked := make([]StreetInjuries, 0)
	for i := 0; i < set.Len(); i++ {
		r := set.records[i]
		n := c.count(r)
		if n == nil || *n < 1 || r.OnStreetName == nil {
			continue
		}
		ranked = append(ranked, StreetInjuries{
			Street:    *r.OnStreetName,
			Injured:   *n,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
		})
	}

	slices.SortStableFunc(ranked, func(a, b StreetInjuries) int {
		return b.Injured - a.Injured
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
