package domain

import (
	"slices"
	"time"
)

// Record is one crash event after parsing and cleaning.
type Record struct {
	Timestamp *time.Time `json:"timestamp"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`

	PersonsInjured     *int `json:"persons_injured"`
	PedestriansInjured *int `json:"pedestrians_injured"`
	CyclistsInjured    *int `json:"cyclists_injured"`
	MotoristsInjured   *int `json:"motorists_injured"`

	OnStreetName *string `json:"on_street_name"`

	// Passthrough holds every column the core logic does not interpret,
	// keyed by its original header.
	Passthrough map[string]string `json:"passthrough,omitempty"`
}

// HasNonZeroLatitude reports whether Latitude is set to a usable value. Only
// latitude is checked: the CSV loader already drops rows missing either
// coordinate before a Record is built.
func (r Record) HasNonZeroLatitude() bool {
	return r.Latitude != 0
}

// LoadStats describes how a RecordSet was produced.
type LoadStats struct {
	RowsRead          int       `json:"rows_read"`
	DroppedNoCoords   int       `json:"dropped_missing_coordinates"`
	DroppedZeroLat    int       `json:"dropped_zero_latitude"`
	DroppedUnparsable int       `json:"dropped_unparsable"`
	NullTimestamps    int       `json:"null_timestamps"`
	LoadedAt          time.Time `json:"loaded_at"`
}

// Dropped returns the total number of rows discarded during cleaning.
func (s LoadStats) Dropped() int {
	return s.DroppedNoCoords + s.DroppedZeroLat + s.DroppedUnparsable
}

// RecordSet is an ordered, immutable sequence of records in source order.
type RecordSet struct {
	header  []string
	records []Record
	stats   LoadStats
}

// NewRecordSet builds a RecordSet from records in source order. The slice is
// copied; later changes by the caller are not observed. A zero
// stats.LoadedAt is stamped with the package clock.
func NewRecordSet(header []string, records []Record, stats LoadStats) *RecordSet {
	if stats.LoadedAt.IsZero() {
		stats.LoadedAt = clock.Now().UTC()
	}
	return &RecordSet{
		header:  slices.Clone(header),
		records: slices.Clone(records),
		stats:   stats,
	}
}

// derive wraps records that the caller has already allocated and will not
// reuse.
func (s *RecordSet) derive(records []Record) *RecordSet {
	return &RecordSet{header: s.header, records: records, stats: s.stats}
}

// Len returns the number of records.
func (s *RecordSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// At returns the i-th record.
func (s *RecordSet) At(i int) Record {
	return s.records[i]
}

// Records returns a copy of the records.
func (s *RecordSet) Records() []Record {
	if s == nil {
		return nil
	}
	return slices.Clone(s.records)
}

// Slice returns a copy of records [offset, offset+limit), clamped to bounds.
func (s *RecordSet) Slice(offset, limit int) []Record {
	n := s.Len()
	if offset < 0 {
		offset = 0
	}
	if offset >= n || limit <= 0 {
		return []Record{}
	}
	end := min(offset+limit, n)
	return slices.Clone(s.records[offset:end])
}

// Header returns the source column names in file order.
func (s *RecordSet) Header() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.header)
}

// Stats returns the load statistics of the set this one was derived from.
func (s *RecordSet) Stats() LoadStats {
	if s == nil {
		return LoadStats{}
	}
	return s.stats
}

// Hour returns the hour component of the record's timestamp.
func (r Record) Hour() (int, bool) {
	if r.Timestamp == nil {
		return 0, false
	}
	return r.Timestamp.Hour(), true
}

// Minute returns the minute component of the record's timestamp.
func (r Record) Minute() (int, bool) {
	if r.Timestamp == nil {
		return 0, false
	}
	return r.Timestamp.Minute(), true
}
