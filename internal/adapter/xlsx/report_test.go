package xlsx

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/collision-explorer/internal/domain"
)

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func sampleReport(hourly bool) domain.Report {
	ts := time.Date(2023, time.August, 12, 8, 10, 0, 0, time.UTC)
	records := []domain.Record{
		{
			Timestamp:          &ts,
			Latitude:           40.6928,
			Longitude:          -73.9903,
			PersonsInjured:     intPtr(2),
			PedestriansInjured: intPtr(2),
			CyclistsInjured:    intPtr(0),
			MotoristsInjured:   intPtr(0),
			OnStreetName:       strPtr("ATLANTIC AVENUE"),
			Passthrough:        map[string]string{"BOROUGH": "BROOKLYN", "COLLISION_ID": "4648001"},
		},
		{
			Latitude:    40.7320,
			Longitude:   -73.9870,
			Passthrough: map[string]string{"BOROUGH": "MANHATTAN"},
		},
	}
	header := []string{"CRASH DATE", "CRASH TIME", "BOROUGH", "LATITUDE", "LONGITUDE", "COLLISION_ID"}
	set := domain.NewRecordSet(header, records, domain.LoadStats{RowsRead: 2})

	r := domain.Report{
		Criteria:   domain.AllDay(0),
		Category:   domain.Pedestrians,
		MaxInjured: 2,
		Filtered:   set,
		TopStreets: []domain.StreetInjuries{
			{Street: "ATLANTIC AVENUE", Injured: 2, Latitude: 40.6928, Longitude: -73.9903, Place: "Brooklyn"},
		},
	}
	if hourly {
		r.Criteria = domain.AtHour(8, 0)
		minutes := domain.MinuteHistogram(set, 8)
		r.Minutes = &minutes
	}
	return r
}

func writeAndOpen(t *testing.T, r domain.Report) *excelize.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteReport(path, r))
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestWriteReport_AllDay(t *testing.T) {
	f := writeAndOpen(t, sampleReport(false))

	assert.Equal(t, []string{SheetCollisions, SheetTopStreets}, f.GetSheetList())

	rows, err := f.GetRows(SheetCollisions)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{
		"Crash Time", "Latitude", "Longitude",
		"Persons Injured", "Pedestrians Injured", "Cyclists Injured", "Motorists Injured",
		"On Street Name", "BOROUGH", "COLLISION_ID",
	}, rows[0])
	assert.Equal(t, "2023-08-12 08:10", rows[1][0])
	assert.Equal(t, "ATLANTIC AVENUE", rows[1][7])
	assert.Equal(t, "BROOKLYN", rows[1][8])
	assert.Equal(t, "4648001", rows[1][9])
	assert.Empty(t, rows[2][0], "null timestamp is a blank cell")
	assert.Equal(t, "MANHATTAN", rows[2][8])

	streets, err := f.GetRows(SheetTopStreets)
	require.NoError(t, err)
	require.Len(t, streets, 2)
	assert.Equal(t, "Pedestrians Injured", streets[0][2])
	assert.Equal(t, []string{"1", "ATLANTIC AVENUE", "2"}, streets[1][:3])
	assert.Equal(t, "Brooklyn", streets[1][5])
}

func TestWriteReport_Hourly(t *testing.T) {
	f := writeAndOpen(t, sampleReport(true))

	assert.Equal(t, []string{SheetCollisions, SheetMinutes, SheetTopStreets}, f.GetSheetList())

	rows, err := f.GetRows(SheetMinutes)
	require.NoError(t, err)
	require.Len(t, rows, 61)
	assert.Equal(t, []string{"Minute", "Crashes"}, rows[0])
	assert.Equal(t, []string{"08:10", "1"}, rows[11])
	assert.Equal(t, []string{"08:59", "0"}, rows[60])
}

func TestWriteReport_EmptyRanking(t *testing.T) {
	r := sampleReport(false)
	r.TopStreets = nil
	f := writeAndOpen(t, r)

	rows, err := f.GetRows(SheetTopStreets)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWriteReport_BadPath(t *testing.T) {
	err := WriteReport(filepath.Join(t.TempDir(), "missing", "dir", "report.xlsx"), sampleReport(false))
	require.Error(t, err)
}
