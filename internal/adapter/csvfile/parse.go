package csvfile

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Canonical column names after header normalization.
const (
	colCrashDate   = "CRASH DATE"
	colCrashTime   = "CRASH TIME"
	colLatitude    = "LATITUDE"
	colLongitude   = "LONGITUDE"
	colPersons     = "NUMBER OF PERSONS INJURED"
	colPedestrians = "NUMBER OF PEDESTRIANS INJURED"
	colCyclists    = "NUMBER OF CYCLIST INJURED"
	colMotorists   = "NUMBER OF MOTORIST INJURED"
	colOnStreet    = "ON STREET NAME"
)

// requiredColumns lists the columns the loader interprets, in the order
// they are reported when missing.
var requiredColumns = []string{
	colCrashDate,
	colCrashTime,
	colLatitude,
	colLongitude,
	colPersons,
	colPedestrians,
	colCyclists,
	colMotorists,
	colOnStreet,
}

var (
	dateLayouts = []string{
		"01/02/2006",
		"1/2/2006",
		"2006-01-02",
		"2006-01-02T15:04:05.000",
		"2006-01-02T15:04:05",
	}
	timeLayouts = []string{
		"15:04",
		"15:04:05",
	}
)

// normalizeHeader maps "CRASH.DATE", "crash_date" and "CRASH DATE" to the
// same canonical name.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.NewReplacer(".", " ", "_", " ").Replace(h)
	return strings.Join(strings.Fields(strings.ToUpper(h)), " ")
}

// parseTimestamp combines a date and a time-of-day column into one UTC
// wall-clock timestamp. It returns nil if either part is blank or unparsable.
func parseTimestamp(date, clock string) *time.Time {
	d, ok := parseDate(date)
	if !ok {
		return nil
	}
	hour, minute, second, ok := parseClock(clock)
	if !ok {
		return nil
	}
	ts := time.Date(d.Year(), d.Month(), d.Day(), hour, minute, second, 0, time.UTC)
	return &ts
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseClock accepts "H:MM", "HH:MM" and "HH:MM:SS".
func parseClock(s string) (hour, minute, second int, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, 0, false
	}
	if len(s) >= 2 && s[1] == ':' {
		s = "0" + s
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour(), t.Minute(), t.Second(), true
		}
	}
	return 0, 0, 0, false
}

// parseCoordinate returns false for blank or non-numeric values.
func parseCoordinate(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseCount accepts integers and integral floats ("2", "2.0"). Blank,
// negative, fractional and non-numeric values yield nil.
func parseCount(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return nil
		}
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}

// parseText trims s and returns nil when nothing is left.
func parseText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
