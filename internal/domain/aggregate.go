package domain

// MinutesPerHour is the number of buckets in a minute histogram.
const MinutesPerHour = 60

// MaxInjured returns the largest PersonsInjured in set, ignoring nulls.
// It returns 0 for an empty or all-null set. Callers bound threshold controls
// with it, so it should be given the unfiltered set.
func MaxInjured(set *RecordSet) int {
	best := 0
	for i := 0; i < set.Len(); i++ {
		if n := set.records[i].PersonsInjured; n != nil && *n > best {
			best = *n
		}
	}
	return best
}

// MinuteHistogram counts records by minute within [hour, hour+1). Records
// outside that hour or without a timestamp are ignored, so the sum of the
// buckets always equals the number of records in the hour.
func MinuteHistogram(set *RecordSet, hour int) [MinutesPerHour]int {
	var hist [MinutesPerHour]int
	for i := 0; i < set.Len(); i++ {
		r := set.records[i]
		if h, ok := r.Hour(); !ok || h != hour {
			continue
		}
		m, _ := r.Minute()
		hist[m]++
	}
	return hist
}
