package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidCriteria is returned by Criteria.Validate.
var ErrInvalidCriteria = errors.New("invalid filter criteria")

// Criteria selects a subset of a RecordSet. A nil Hour means "all day".
type Criteria struct {
	Hour       *int `json:"hour"`
	MinInjured int  `json:"min_injured"`
}

// AllDay returns criteria that keep every hour.
func AllDay(minInjured int) Criteria {
	return Criteria{MinInjured: minInjured}
}

// AtHour returns criteria restricted to [hour, hour+1).
func AtHour(hour, minInjured int) Criteria {
	return Criteria{Hour: &hour, MinInjured: minInjured}
}

// IsAllDay reports whether no hour constraint is set.
func (c Criteria) IsAllDay() bool {
	return c.Hour == nil
}

// Validate checks that the hour is within 0-23 and the threshold is non-negative.
func (c Criteria) Validate() error {
	if c.Hour != nil && (*c.Hour < 0 || *c.Hour > 23) {
		return fmt.Errorf("%w: hour %d outside 0-23", ErrInvalidCriteria, *c.Hour)
	}
	if c.MinInjured < 0 {
		return fmt.Errorf("%w: min injured %d is negative", ErrInvalidCriteria, c.MinInjured)
	}
	return nil
}

// Matches reports whether a single record satisfies the criteria.
func (c Criteria) Matches(r Record) bool {
	if c.Hour != nil {
		h, ok := r.Hour()
		if !ok || h != *c.Hour {
			return false
		}
	}
	// A null count never satisfies the threshold, even when it is 0.
	return r.PersonsInjured != nil && *r.PersonsInjured >= c.MinInjured
}

// Filter returns the records of set that satisfy criteria, in their original
// relative order. The input set is not modified.
func Filter(set *RecordSet, c Criteria) *RecordSet {
	if set == nil {
		return NewRecordSet(nil, nil, LoadStats{})
	}
	out := make([]Record, 0, len(set.records))
	for _, r := range set.records {
		if c.Matches(r) {
			out = append(out, r)
		}
	}
	return set.derive(out)
}
