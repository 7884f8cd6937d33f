// Command gensample writes a deterministic synthetic NYC collisions CSV for
// local runs and load tests, then loads it back through the real CSV loader
// and prints the numbers test assertions depend on.
//
// Usage:
//
//	go run ./cmd/gensample -rows 50000 -seed 7 -out data/mock/collisions_synthetic.csv
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/collision-explorer/internal/adapter/csvfile"
	"github.com/couchcryptid/collision-explorer/internal/domain"
)

var header = []string{
	"CRASH.DATE", "CRASH.TIME", "BOROUGH", "ZIP.CODE", "LATITUDE", "LONGITUDE", "LOCATION",
	"ON.STREET.NAME", "CROSS.STREET.NAME",
	"NUMBER.OF.PERSONS.INJURED", "NUMBER.OF.PERSONS.KILLED",
	"NUMBER.OF.PEDESTRIANS.INJURED", "NUMBER.OF.CYCLIST.INJURED", "NUMBER.OF.MOTORIST.INJURED",
	"CONTRIBUTING.FACTOR.VEHICLE.1", "COLLISION_ID",
}

type street struct {
	name     string
	borough  string
	zip      string
	lat, lon float64
}

var streets = []street{
	{"ATLANTIC AVENUE", "BROOKLYN", "11201", 40.6860, -73.9780},
	{"BROADWAY", "MANHATTAN", "10003", 40.7400, -73.9900},
	{"QUEENS BOULEVARD", "QUEENS", "11101", 40.7400, -73.8900},
	{"GRAND CONCOURSE", "BRONX", "10451", 40.8400, -73.9100},
	{"FLATBUSH AVENUE", "BROOKLYN", "11217", 40.6600, -73.9600},
	{"2 AVENUE", "MANHATTAN", "10002", 40.7300, -73.9850},
	{"NORTHERN BOULEVARD", "QUEENS", "11354", 40.7600, -73.8300},
	{"HYLAN BOULEVARD", "STATEN ISLAND", "10305", 40.5900, -74.0900},
	{"FORDHAM ROAD", "BRONX", "10458", 40.8600, -73.8900},
	{"BELT PARKWAY", "BROOKLYN", "11214", 40.5900, -74.0000},
}

var factors = []string{
	"Driver Inattention/Distraction", "Unspecified", "Failure to Yield Right-of-Way",
	"Following Too Closely", "Unsafe Speed", "Passing or Lane Usage Improper",
}

// hourWeights skews crashes toward commuting hours.
var hourWeights = []int{2, 1, 1, 1, 1, 2, 3, 5, 8, 7, 6, 6, 6, 6, 7, 8, 9, 9, 8, 6, 5, 4, 3, 3}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	rows := flag.Int("rows", 10000, "number of data rows to write")
	seed := flag.Uint64("seed", 1, "random seed")
	out := flag.String("out", "", "output CSV path")
	flag.Parse()

	if *out == "" || *rows < 1 {
		flag.Usage()
		return fmt.Errorf("missing required flags: -out, -rows > 0")
	}

	if err := writeSample(*out, *rows, *seed); err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}
	log.Printf("wrote %d rows to %s", *rows, *out)

	// Fix the clock so LoadedAt in printed stats is reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2023, time.August, 13, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	set, err := csvfile.Load(context.Background(), *out, *rows)
	if err != nil {
		return fmt.Errorf("reloading %s: %w", *out, err)
	}
	printStats(set)
	return nil
}

func writeSample(path string, rows int, seed uint64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	start := time.Date(2023, time.August, 12, 0, 0, 0, 0, time.UTC)
	for i := range rows {
		if err := w.Write(syntheticRow(rng, start, i)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func syntheticRow(rng *rand.Rand, start time.Time, i int) []string {
	s := streets[rng.IntN(len(streets))]
	day := start.AddDate(0, 0, -rng.IntN(365))
	hour := weightedHour(rng)
	minute := rng.IntN(60)

	lat := s.lat + (rng.Float64()-0.5)*0.02
	lon := s.lon + (rng.Float64()-0.5)*0.02
	peds, cyclists, motorists := 0, 0, 0
	switch rng.IntN(10) {
	case 0, 1:
		peds = 1 + rng.IntN(2)
	case 2:
		cyclists = 1
	case 3, 4, 5:
		motorists = 1 + rng.IntN(4)
	}
	persons := strconv.Itoa(peds + cyclists + motorists)

	row := []string{
		day.Format("01/02/2006"),
		fmt.Sprintf("%d:%02d", hour, minute),
		s.borough,
		s.zip,
		strconv.FormatFloat(lat, 'f', 6, 64),
		strconv.FormatFloat(lon, 'f', 6, 64),
		fmt.Sprintf("(%.6f, %.6f)", lat, lon),
		s.name,
		"",
		persons,
		"0",
		strconv.Itoa(peds),
		strconv.Itoa(cyclists),
		strconv.Itoa(motorists),
		factors[rng.IntN(len(factors))],
		strconv.Itoa(4_000_000 + i),
	}

	// Roughly 4% of rows exercise each cleaning rule.
	switch rng.IntN(100) {
	case 0, 1, 2, 3:
		row[4], row[5], row[6] = "", "", ""
	case 4, 5, 6, 7:
		row[4], row[5], row[6] = "0", "0", "(0.0, 0.0)"
	case 8, 9:
		row[1] = ""
	case 10, 11:
		row[9] = ""
	case 12:
		row[7] = ""
	}
	return row
}

func weightedHour(rng *rand.Rand) int {
	total := 0
	for _, w := range hourWeights {
		total += w
	}
	n := rng.IntN(total)
	for h, w := range hourWeights {
		if n < w {
			return h
		}
		n -= w
	}
	return len(hourWeights) - 1
}

func printStats(set *domain.RecordSet) {
	stats := set.Stats()
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Rows read: %d\n", stats.RowsRead)
	fmt.Printf("Records: %d\n", set.Len())
	fmt.Printf("Dropped: missing coordinates=%d, zero latitude=%d, unparsable=%d\n",
		stats.DroppedNoCoords, stats.DroppedZeroLat, stats.DroppedUnparsable)
	fmt.Printf("Null timestamps: %d\n", stats.NullTimestamps)
	fmt.Printf("Max injured: %d\n", domain.MaxInjured(set))

	fmt.Println("\nCrashes per hour (min injured 0):")
	for h := range 24 {
		fmt.Printf("  %02d: %d\n", h, domain.Filter(set, domain.AtHour(h, 0)).Len())
	}

	for _, cat := range domain.Categories {
		fmt.Printf("\nTop %s:\n", cat)
		for i, e := range domain.TopStreets(set, cat, domain.DefaultTopStreets) {
			fmt.Printf("  %d. %s %d\n", i+1, e.Street, e.Injured)
		}
	}
}
