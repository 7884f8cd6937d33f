package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func at(hour, minute int) *time.Time {
	t := time.Date(2023, time.August, 12, hour, minute, 0, 0, time.UTC)
	return &t
}

// crash builds a record with valid coordinates.
func crash(ts *time.Time, injured *int) Record {
	return Record{Timestamp: ts, Latitude: 40.7, Longitude: -73.9, PersonsInjured: injured}
}

func exampleSet() *RecordSet {
	return NewRecordSet(nil, []Record{
		crash(at(8, 10), intPtr(2)),
		crash(at(8, 10), intPtr(0)),
		crash(at(9, 0), intPtr(5)),
	}, LoadStats{})
}

func mixedSet() *RecordSet {
	return NewRecordSet(nil, []Record{
		crash(at(0, 0), intPtr(1)),
		crash(at(8, 15), intPtr(3)),
		crash(nil, intPtr(4)),
		crash(at(8, 59), nil),
		crash(at(23, 59), intPtr(0)),
		crash(at(13, 30), intPtr(2)),
		crash(at(8, 0), intPtr(0)),
	}, LoadStats{})
}

func TestFilter_Example(t *testing.T) {
	set := exampleSet()

	got := Filter(set, AtHour(8, 1))
	require.Equal(t, 1, got.Len())
	assert.Equal(t, set.At(0), got.At(0))

	assert.Equal(t, 5, MaxInjured(set))
	assert.Equal(t, 2, MinuteHistogram(Filter(set, AtHour(8, 0)), 8)[10])
}

func TestFilter_AllDayKeepsEveryHour(t *testing.T) {
	got := Filter(mixedSet(), AllDay(0))
	// Only the null-count record is excluded.
	assert.Equal(t, 6, got.Len())
}

func TestFilter_NullInjuredNeverMatches(t *testing.T) {
	set := NewRecordSet(nil, []Record{crash(at(8, 59), nil)}, LoadStats{})

	assert.Equal(t, 0, Filter(set, AllDay(0)).Len())
	assert.Equal(t, 0, Filter(set, AtHour(8, 0)).Len())
}

func TestFilter_NullTimestampOnlyAllDay(t *testing.T) {
	set := NewRecordSet(nil, []Record{crash(nil, intPtr(1))}, LoadStats{})

	assert.Equal(t, 1, Filter(set, AllDay(0)).Len())
	for h := 0; h < 24; h++ {
		assert.Equal(t, 0, Filter(set, AtHour(h, 0)).Len(), "hour %d", h)
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	set := mixedSet()
	before := set.Records()

	_ = Filter(set, AtHour(8, 1))

	if diff := cmp.Diff(before, set.Records()); diff != "" {
		t.Fatalf("input mutated (-before +after):\n%s", diff)
	}
}

func TestFilter_Idempotent(t *testing.T) {
	set := mixedSet()
	for _, c := range []Criteria{AllDay(0), AllDay(2), AtHour(8, 0), AtHour(8, 3), AtHour(23, 0)} {
		once := Filter(set, c)
		twice := Filter(once, c)
		if diff := cmp.Diff(once.Records(), twice.Records()); diff != "" {
			t.Fatalf("criteria %+v not idempotent (-once +twice):\n%s", c, diff)
		}
	}
}

func TestFilter_HourPartition(t *testing.T) {
	set := mixedSet()
	allDay := Filter(set, AllDay(0))

	seen := 0
	for h := 0; h < 24; h++ {
		sub := Filter(set, AtHour(h, 0))
		for i := 0; i < sub.Len(); i++ {
			hour, ok := sub.At(i).Hour()
			require.True(t, ok)
			assert.Equal(t, h, hour)
		}
		seen += sub.Len()
	}

	// Every timestamped member of the all-day set lands in exactly one hour.
	timestamped := 0
	for i := 0; i < allDay.Len(); i++ {
		if allDay.At(i).Timestamp != nil {
			timestamped++
		}
	}
	assert.Equal(t, timestamped, seen)
}

func TestFilter_MonotonicThreshold(t *testing.T) {
	set := mixedSet()
	for _, hour := range []*int{nil, intPtr(8)} {
		for t1 := 0; t1 <= 5; t1++ {
			for t2 := t1; t2 <= 5; t2++ {
				loose := Filter(set, Criteria{Hour: hour, MinInjured: t1})
				strict := Filter(set, Criteria{Hour: hour, MinInjured: t2})
				assert.LessOrEqual(t, strict.Len(), loose.Len())
				for i := 0; i < strict.Len(); i++ {
					assert.Contains(t, loose.Records(), strict.At(i))
				}
			}
		}
	}
}

func TestFilter_PreservesOrder(t *testing.T) {
	got := Filter(mixedSet(), AtHour(8, 0))
	require.Equal(t, 2, got.Len())
	assert.Equal(t, 15, got.At(0).Timestamp.Minute())
	assert.Equal(t, 0, got.At(1).Timestamp.Minute())
}

func TestFilter_NilSet(t *testing.T) {
	assert.Equal(t, 0, Filter(nil, AllDay(0)).Len())
}

func TestCriteria_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       Criteria
		wantErr bool
	}{
		{"all day", AllDay(0), false},
		{"midnight", AtHour(0, 0), false},
		{"last hour", AtHour(23, 4), false},
		{"hour too large", AtHour(24, 0), true},
		{"negative hour", AtHour(-1, 0), true},
		{"negative threshold", AllDay(-1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidCriteria)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNewRecordSet_StampsLoadedAt(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2024, time.March, 1, 9, 30, 0, 0, time.UTC))
	SetClock(fake)
	t.Cleanup(func() { SetClock(nil) })

	set := NewRecordSet([]string{"A"}, nil, LoadStats{RowsRead: 3})
	assert.Equal(t, fake.Now(), set.Stats().LoadedAt)
	assert.Equal(t, 3, set.Stats().RowsRead)

	explicit := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	set = NewRecordSet(nil, nil, LoadStats{LoadedAt: explicit})
	assert.Equal(t, explicit, set.Stats().LoadedAt)
}

func TestRecordSet_CopiesInput(t *testing.T) {
	records := []Record{crash(at(1, 1), intPtr(1))}
	header := []string{"CRASH DATE"}
	set := NewRecordSet(header, records, LoadStats{})

	records[0].Latitude = 0
	header[0] = "changed"

	assert.InEpsilon(t, 40.7, set.At(0).Latitude, 1e-9)
	assert.Equal(t, []string{"CRASH DATE"}, set.Header())
}

func TestRecordSet_Slice(t *testing.T) {
	set := mixedSet()

	assert.Len(t, set.Slice(0, 3), 3)
	assert.Len(t, set.Slice(5, 10), 2)
	assert.Empty(t, set.Slice(7, 10))
	assert.Empty(t, set.Slice(0, 0))
	assert.Len(t, set.Slice(-3, 2), 2)
}
