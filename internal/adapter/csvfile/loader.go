// Package csvfile loads collision records from a delimited text export of the
// NYC Motor Vehicle Collisions table.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/collision-explorer/internal/domain"
)

var (
	// ErrSourceUnavailable means the source could not be opened or read.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrMalformedSource means the header lacks a required column.
	ErrMalformedSource = errors.New("malformed source")
)

// ctxCheckEvery is how many rows are read between context checks.
const ctxCheckEvery = 4096

// Loader reads one CSV file. It implements pipeline.Loader.
type Loader struct {
	path   string
	logger *slog.Logger
}

// NewLoader creates a Loader for the file at path.
func NewLoader(path string, logger *slog.Logger) *Loader {
	return &Loader{path: path, logger: logger}
}

// Path returns the source file path.
func (l *Loader) Path() string {
	return l.path
}

// Load reads up to maxRows data rows from the file.
func (l *Loader) Load(ctx context.Context, maxRows int) (*domain.RecordSet, error) {
	set, err := Load(ctx, l.path, maxRows)
	if err != nil {
		return nil, err
	}
	stats := set.Stats()
	l.logger.Debug("csv source loaded",
		"path", l.path,
		"max_rows", maxRows,
		"rows_read", stats.RowsRead,
		"records", set.Len(),
		"dropped", stats.Dropped(),
	)
	return set, nil
}

// Load opens path and parses at most maxRows data rows. Rows without both
// coordinates, or with latitude 0, are discarded. The returned set keeps file
// order. maxRows <= 0 reads no data rows.
func Load(ctx context.Context, path string, maxRows int) (*domain.RecordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer f.Close()

	return Read(ctx, f, maxRows)
}

// Read parses CSV data from r. See Load.
func Read(ctx context.Context, r io.Reader, maxRows int) (*domain.RecordSet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header row", ErrMalformedSource)
	}
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("%w: read header: %w", ErrMalformedSource, err)
		}
		return nil, fmt.Errorf("%w: read header: %w", ErrSourceUnavailable, err)
	}

	cols, err := newColumnIndex(header)
	if err != nil {
		return nil, err
	}

	var stats domain.LoadStats
	records := make([]domain.Record, 0, min(max(maxRows, 0), 1<<16))

	for stats.RowsRead < maxRows {
		if stats.RowsRead%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		stats.RowsRead++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				stats.DroppedUnparsable++
				continue
			}
			return nil, fmt.Errorf("%w: read row %d: %w", ErrSourceUnavailable, stats.RowsRead, err)
		}

		rec, ok := cols.parseRow(row, &stats)
		if !ok {
			continue
		}
		if rec.Timestamp == nil {
			stats.NullTimestamps++
		}
		records = append(records, rec)
	}

	return domain.NewRecordSet(header, records, stats), nil
}

// columnIndex maps required columns to their position in a row.
type columnIndex struct {
	header      []string
	pos         map[string]int
	passthrough []int
}

func newColumnIndex(header []string) (*columnIndex, error) {
	pos := make(map[string]int, len(requiredColumns))
	for i, h := range header {
		name := normalizeHeader(h)
		if _, seen := pos[name]; !seen {
			pos[name] = i
		}
	}

	var missing []string
	used := make(map[int]bool, len(requiredColumns))
	for _, name := range requiredColumns {
		i, ok := pos[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		used[i] = true
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrMalformedSource, strings.Join(missing, ", "))
	}

	var passthrough []int
	for i := range header {
		if !used[i] {
			passthrough = append(passthrough, i)
		}
	}

	return &columnIndex{header: header, pos: pos, passthrough: passthrough}, nil
}

func (c *columnIndex) get(row []string, name string) string {
	i := c.pos[name]
	if i >= len(row) {
		return ""
	}
	return row[i]
}

// parseRow converts one CSV row. It returns false, and counts the reason in
// stats, when the row fails the coordinate rules.
func (c *columnIndex) parseRow(row []string, stats *domain.LoadStats) (domain.Record, bool) {
	lat, latOK := parseCoordinate(c.get(row, colLatitude))
	lon, lonOK := parseCoordinate(c.get(row, colLongitude))
	if !latOK || !lonOK {
		stats.DroppedNoCoords++
		return domain.Record{}, false
	}
	if lat == 0 {
		stats.DroppedZeroLat++
		return domain.Record{}, false
	}

	rec := domain.Record{
		Timestamp:          parseTimestamp(c.get(row, colCrashDate), c.get(row, colCrashTime)),
		Latitude:           lat,
		Longitude:          lon,
		PersonsInjured:     parseCount(c.get(row, colPersons)),
		PedestriansInjured: parseCount(c.get(row, colPedestrians)),
		CyclistsInjured:    parseCount(c.get(row, colCyclists)),
		MotoristsInjured:   parseCount(c.get(row, colMotorists)),
		OnStreetName:       parseText(c.get(row, colOnStreet)),
	}

	if len(c.passthrough) > 0 {
		rec.Passthrough = make(map[string]string, len(c.passthrough))
		for _, i := range c.passthrough {
			if i < len(row) {
				rec.Passthrough[c.header[i]] = row[i]
			}
		}
	}
	return rec, true
}
