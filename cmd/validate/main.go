// Command validate loads a collisions CSV and checks the dashboard invariants
// against real data: cleaning, row cap, filter algebra, histogram sums, and
// ranking order. Each check is a phase reported as PASS or FAIL.
//
// Usage:
//
//	go run ./cmd/validate -data data/mock/collisions_sample.csv -rows 100000
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/collision-explorer/internal/adapter/csvfile"
	"github.com/couchcryptid/collision-explorer/internal/domain"
)

// maxErrorsPerPhase bounds the detail printed for a failing phase.
const maxErrorsPerPhase = 20

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	total  int
}

func (p *phase) errorf(format string, args ...any) {
	p.total++
	if len(p.errors) < maxErrorsPerPhase {
		p.errors = append(p.errors, fmt.Sprintf(format, args...))
	}
}

func (p *phase) passed() bool { return p.total == 0 }

func main() {
	dataPath := flag.String("data", "", "path to the collisions CSV")
	rows := flag.Int("rows", 100000, "maximum data rows to read")
	flag.Parse()

	if *dataPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dataPath, *rows); code != 0 {
		os.Exit(code)
	}
}

func run(path string, rows int) int {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2023, time.August, 13, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	fmt.Println("=== Collision Data Integrity Validation ===")
	fmt.Println()

	ctx := context.Background()
	set, err := csvfile.Load(ctx, path, rows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load %s: %v\n", path, err)
		return 1
	}

	phases := []*phase{
		validateCoordinates(set),
		validateRowCap(ctx, path, rows),
		validateIdempotence(set),
		validateHourPartition(set),
		validateMonotonicThreshold(set),
		validateHistogramSums(set),
		validateRanking(set),
		validateNullPolicy(set),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", p.total)
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	stats := set.Stats()
	fmt.Println()
	fmt.Printf("Records: %d loaded of %d rows read (%d dropped, %d null timestamps)\n",
		set.Len(), stats.RowsRead, stats.Dropped(), stats.NullTimestamps)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
		if p.total > len(p.errors) {
			fmt.Printf("  ... %d more\n", p.total-len(p.errors))
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// criteriaGrid is every hour plus all-day, at a spread of thresholds.
func criteriaGrid(maxInjured int) []domain.Criteria {
	thresholds := []int{0, 1, 2, maxInjured, maxInjured + 1}
	var out []domain.Criteria
	for _, t := range thresholds {
		out = append(out, domain.AllDay(t))
		for h := range 24 {
			out = append(out, domain.AtHour(h, t))
		}
	}
	return out
}

func validateCoordinates(set *domain.RecordSet) *phase {
	p := &phase{name: "Coordinates present, latitude != 0"}
	for i := 0; i < set.Len(); i++ {
		if !set.At(i).HasNonZeroLatitude() {
			p.errorf("record %d has latitude 0", i)
		}
	}
	return p
}

func validateRowCap(ctx context.Context, path string, rows int) *phase {
	p := &phase{name: "Row cap bounds record count"}
	for _, n := range []int{0, 1, 10, 100, rows} {
		capped, err := csvfile.Load(ctx, path, n)
		if err != nil {
			p.errorf("load with cap %d: %v", n, err)
			continue
		}
		if capped.Len() > n {
			p.errorf("cap %d returned %d records", n, capped.Len())
		}
		if capped.Stats().RowsRead > max(n, 0) {
			p.errorf("cap %d read %d rows", n, capped.Stats().RowsRead)
		}
	}
	return p
}

func validateIdempotence(set *domain.RecordSet) *phase {
	p := &phase{name: "Filter is idempotent"}
	for _, c := range criteriaGrid(domain.MaxInjured(set)) {
		once := domain.Filter(set, c)
		twice := domain.Filter(once, c)
		if once.Len() != twice.Len() {
			p.errorf("%s: %d then %d records", describe(c), once.Len(), twice.Len())
		}
	}
	return p
}

func validateHourPartition(set *domain.RecordSet) *phase {
	p := &phase{name: "Hours partition the all-day set"}
	all := domain.Filter(set, domain.AllDay(0))

	sum := 0
	for h := range 24 {
		hourly := domain.Filter(set, domain.AtHour(h, 0))
		for i := 0; i < hourly.Len(); i++ {
			if got, _ := hourly.At(i).Hour(); got != h {
				p.errorf("hour %d view contains a record at hour %d", h, got)
			}
		}
		sum += hourly.Len()
	}

	undated := 0
	for i := 0; i < all.Len(); i++ {
		if all.At(i).Timestamp == nil {
			undated++
		}
	}
	if sum+undated != all.Len() {
		p.errorf("hours hold %d records plus %d undated, all-day holds %d", sum, undated, all.Len())
	}
	return p
}

func validateMonotonicThreshold(set *domain.RecordSet) *phase {
	p := &phase{name: "Raising the threshold never adds records"}
	maxInjured := domain.MaxInjured(set)
	hours := []*int{nil}
	for h := range 24 {
		hours = append(hours, &h)
	}
	for _, h := range hours {
		prev := -1
		for t := 0; t <= maxInjured+1; t++ {
			c := domain.Criteria{Hour: h, MinInjured: t}
			n := domain.Filter(set, c).Len()
			if prev >= 0 && n > prev {
				p.errorf("%s: %d records, threshold %d had %d", describe(c), n, t-1, prev)
			}
			prev = n
		}
	}
	return p
}

func validateHistogramSums(set *domain.RecordSet) *phase {
	p := &phase{name: "Minute histogram sums to hour count"}
	for h := range 24 {
		hourly := domain.Filter(set, domain.AtHour(h, 0))
		hist := domain.MinuteHistogram(hourly, h)
		sum := 0
		for _, n := range hist {
			sum += n
		}
		if sum != hourly.Len() {
			p.errorf("hour %d: histogram sums to %d, view has %d", h, sum, hourly.Len())
		}
	}
	return p
}

func validateRanking(set *domain.RecordSet) *phase {
	p := &phase{name: "Top streets bounded and ordered"}
	for _, cat := range domain.Categories {
		for _, c := range criteriaGrid(domain.MaxInjured(set)) {
			ranked := domain.TopStreets(domain.Filter(set, c), cat, domain.DefaultTopStreets)
			if len(ranked) > domain.DefaultTopStreets {
				p.errorf("%s %s: %d entries", cat, describe(c), len(ranked))
			}
			for i := 1; i < len(ranked); i++ {
				if ranked[i].Injured > ranked[i-1].Injured {
					p.errorf("%s %s: entry %d (%d) above entry %d (%d)",
						cat, describe(c), i, ranked[i].Injured, i-1, ranked[i-1].Injured)
				}
			}
			for _, e := range ranked {
				if e.Injured < 1 || e.Street == "" {
					p.errorf("%s %s: invalid entry %+v", cat, describe(c), e)
				}
			}
		}
	}
	return p
}

func validateNullPolicy(set *domain.RecordSet) *phase {
	p := &phase{name: "Null injured counts never match"}
	all := domain.Filter(set, domain.AllDay(0))
	for i := 0; i < all.Len(); i++ {
		if all.At(i).PersonsInjured == nil {
			p.errorf("record %d with null persons injured passed threshold 0", i)
		}
	}
	return p
}

func describe(c domain.Criteria) string {
	if c.IsAllDay() {
		return fmt.Sprintf("all day, min %d", c.MinInjured)
	}
	return fmt.Sprintf("hour %d, min %d", *c.Hour, c.MinInjured)
}
