// Package h3grid aggregates crash coordinates into H3 hexagonal cells for the
// map layer.
package h3grid

import (
	"fmt"
	"slices"
	"strings"

	h3 "github.com/uber/h3-go/v4"

	"github.com/couchcryptid/collision-explorer/internal/domain"
)

const (
	MinResolution = 0
	MaxResolution = 15
)

// Binner implements pipeline.Binner.
type Binner struct{}

// New creates a Binner.
func New() *Binner { return &Binner{} }

// Bin counts records per cell at res. Cells come back ordered by count
// descending, then by cell id.
func (b *Binner) Bin(records []domain.Record, res int) ([]domain.DensityCell, error) {
	if res < MinResolution || res > MaxResolution {
		return nil, fmt.Errorf("h3 resolution %d outside %d-%d", res, MinResolution, MaxResolution)
	}

	counts := make(map[h3.Cell]int)
	for _, r := range records {
		if !r.HasNonZeroLatitude() {
			continue
		}
		cell, err := h3.LatLngToCell(h3.LatLng{Lat: r.Latitude, Lng: r.Longitude}, res)
		if err != nil {
			return nil, fmt.Errorf("h3 cell for (%f, %f): %w", r.Latitude, r.Longitude, err)
		}
		counts[cell]++
	}

	out := make([]domain.DensityCell, 0, len(counts))
	for cell, n := range counts {
		center, err := cell.LatLng()
		if err != nil {
			return nil, fmt.Errorf("h3 centre of %s: %w", cell, err)
		}
		out = append(out, domain.DensityCell{
			Cell:      cell.String(),
			Latitude:  center.Lat,
			Longitude: center.Lng,
			Count:     n,
		})
	}

	slices.SortFunc(out, func(a, b domain.DensityCell) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Cell, b.Cell)
	})
	return out, nil
}
