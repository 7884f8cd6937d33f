// Package xlsx exports a dashboard report as an Excel workbook.
package xlsx

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/collision-explorer/internal/domain"
)

// Sheet names.
const (
	SheetCollisions = "Collisions"
	SheetMinutes    = "Minutes"
	SheetTopStreets = "Top Streets"
)

const timestampLayout = "2006-01-02 15:04"

var collisionColumns = []any{
	"Crash Time", "Latitude", "Longitude",
	"Persons Injured", "Pedestrians Injured", "Cyclists Injured", "Motorists Injured",
	"On Street Name",
}

// WriteReport saves r to path. The Minutes sheet is only written when the
// report is for a single hour.
func WriteReport(path string, r domain.Report) error {
	f, err := Build(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// Build renders r into a new workbook. The caller closes it.
func Build(r domain.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := render(f, r); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func render(f *excelize.File, r domain.Report) error {
	if err := f.SetSheetName("Sheet1", SheetCollisions); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeCollisions(f, r.Filtered); err != nil {
		return fmt.Errorf("write %s: %w", SheetCollisions, err)
	}
	if r.Minutes != nil && r.Criteria.Hour != nil {
		if err := writeMinutes(f, *r.Criteria.Hour, r.Minutes); err != nil {
			return fmt.Errorf("write %s: %w", SheetMinutes, err)
		}
	}
	if err := writeTopStreets(f, r.Category, r.TopStreets); err != nil {
		return fmt.Errorf("write %s: %w", SheetTopStreets, err)
	}
	f.SetActiveSheet(0)
	return nil
}

func writeCollisions(f *excelize.File, set *domain.RecordSet) error {
	extra := passthroughColumns(set)

	sw, err := f.NewStreamWriter(SheetCollisions)
	if err != nil {
		return err
	}
	header := append(append([]any{}, collisionColumns...), toAny(extra)...)
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i := 0; i < set.Len(); i++ {
		rec := set.At(i)
		row := []any{
			timestampValue(rec.Timestamp),
			rec.Latitude,
			rec.Longitude,
			intValue(rec.PersonsInjured),
			intValue(rec.PedestriansInjured),
			intValue(rec.CyclistsInjured),
			intValue(rec.MotoristsInjured),
			stringValue(rec.OnStreetName),
		}
		for _, col := range extra {
			row = append(row, rec.Passthrough[col])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	return sw.Flush()
}

func writeMinutes(f *excelize.File, hour int, minutes *[domain.MinutesPerHour]int) error {
	if _, err := f.NewSheet(SheetMinutes); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(SheetMinutes)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", []any{"Minute", "Crashes"}); err != nil {
		return err
	}
	for m, n := range minutes {
		cell, err := excelize.CoordinatesToCellName(1, m+2)
		if err != nil {
			return err
		}
		label := fmt.Sprintf("%02d:%02d", hour, m)
		if err := sw.SetRow(cell, []any{label, n}); err != nil {
			return err
		}
	}
	return sw.Flush()
}

func writeTopStreets(f *excelize.File, cat domain.Category, entries []domain.StreetInjuries) error {
	if _, err := f.NewSheet(SheetTopStreets); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(SheetTopStreets)
	if err != nil {
		return err
	}
	header := []any{"Rank", "Street", cat.Title() + " Injured", "Latitude", "Longitude", "Place"}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, []any{i + 1, e.Street, e.Injured, e.Latitude, e.Longitude, e.Place}); err != nil {
			return err
		}
	}
	return sw.Flush()
}

// passthroughColumns returns the header names that carry uninterpreted
// values, in source order.
func passthroughColumns(set *domain.RecordSet) []string {
	seen := make(map[string]bool)
	for i := 0; i < set.Len(); i++ {
		for k := range set.At(i).Passthrough {
			seen[k] = true
		}
	}
	var cols []string
	for _, h := range set.Header() {
		if seen[h] {
			cols = append(cols, h)
			delete(seen, h)
		}
	}
	return cols
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func timestampValue(t *time.Time) any {
	if t == nil {
		return ""
	}
	return t.Format(timestampLayout)
}

func intValue(n *int) any {
	if n == nil {
		return ""
	}
	return *n
}

func stringValue(s *string) any {
	if s == nil {
		return ""
	}
	return *s
}
