// Command report renders one dashboard selection as text, optionally saving
// it as an Excel workbook.
//
// Usage:
//
//	go run ./cmd/report \
//	  -data data/mock/collisions_sample.csv \
//	  -hour 8 -min-injured 1 -category pedestrians \
//	  -xlsx report.xlsx
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/couchcryptid/collision-explorer/internal/adapter/csvfile"
	"github.com/couchcryptid/collision-explorer/internal/adapter/xlsx"
	"github.com/couchcryptid/collision-explorer/internal/domain"
	"github.com/couchcryptid/collision-explorer/internal/observability"
	"github.com/couchcryptid/collision-explorer/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dataPath := flag.String("data", "data.csv", "path to the collisions CSV")
	rows := flag.Int("rows", 100000, "maximum data rows to read")
	hour := flag.Int("hour", -1, "hour of day 0-23; -1 for all day")
	minInjured := flag.Int("min-injured", 0, "minimum persons injured")
	category := flag.String("category", string(domain.Pedestrians), "ranking category: pedestrians, cyclists, motorists")
	xlsxPath := flag.String("xlsx", "", "optional output path for an Excel workbook")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	cat, err := domain.ParseCategory(*category)
	if err != nil {
		return err
	}
	criteria := domain.AllDay(*minInjured)
	if *hour >= 0 {
		criteria = domain.AtHour(*hour, *minInjured)
	}
	if err := criteria.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := observability.NewLogger(*logLevel, "console", os.Stderr)
	metrics := observability.NewMetricsForTesting()
	dataset := pipeline.NewDataset(csvfile.NewLoader(*dataPath, logger), logger, metrics)
	dash := pipeline.NewDashboard(dataset, pipeline.Options{MaxRows: *rows}, logger, metrics)
	if err := dash.Warm(ctx); err != nil {
		return err
	}

	summary, err := dash.Summary(ctx)
	if err != nil {
		return err
	}
	report, err := dash.Report(ctx, criteria, cat)
	if err != nil {
		return err
	}

	if err := narrate(os.Stdout, *rows, summary, report); err != nil {
		return err
	}

	if *xlsxPath != "" {
		if err := xlsx.WriteReport(*xlsxPath, report); err != nil {
			return err
		}
		fmt.Printf("\nWorkbook written to %s\n", *xlsxPath)
	}
	return nil
}

// narrate writes the dashboard sections in page order.
func narrate(w io.Writer, rows int, s pipeline.Summary, r domain.Report) error {
	p := &printer{w: w}

	p.line("Motor Vehicle Collisions in NYC")
	p.line("")
	p.linef("Raw data (first %d rows)", rows)
	p.linef("  %d records loaded from %d rows; %d dropped without coordinates, %d with latitude 0, %d unparsable",
		s.Records, s.Stats.RowsRead, s.Stats.DroppedNoCoords, s.Stats.DroppedZeroLat, s.Stats.DroppedUnparsable)
	p.line("")

	p.line("Where are most people injured in NYC?")
	p.linef("  The number of injured persons in a single crash event ranges from 0 to %d", r.MaxInjured)
	p.line("")

	if r.Criteria.IsAllDay() {
		p.line("Collisions during all day")
	} else {
		h := *r.Criteria.Hour
		p.linef("Collisions between %d:00 and %d:00", h, h+1)
	}
	p.linef("  %d crashes with at least %d persons injured", r.Filtered.Len(), r.Criteria.MinInjured)

	if r.Minutes != nil {
		h := *r.Criteria.Hour
		p.line("")
		p.linef("Breakdown by minute between %d:00 and %d:00", h, h+1)
		peak := 0
		for _, n := range r.Minutes {
			peak = max(peak, n)
		}
		for m, n := range r.Minutes {
			if n == 0 {
				continue
			}
			p.linef("  %02d:%02d %4d %s", h, m, n, bar(n, peak, 40))
		}
	}

	p.line("")
	p.linef("Top %d dangerous streets affected by %s", domain.DefaultTopStreets, strings.ToLower(r.Category.Title()))
	if len(r.TopStreets) == 0 {
		p.line("  no crashes with injured " + string(r.Category))
		return p.err
	}
	if p.err != nil {
		return p.err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  #\tON STREET NAME\t%s INJURED\n", strings.ToUpper(r.Category.Title()))
	for i, e := range r.TopStreets {
		fmt.Fprintf(tw, "  %d\t%s\t%d\n", i+1, e.Street, e.Injured)
	}
	return tw.Flush()
}

func bar(n, peak, width int) string {
	if peak == 0 {
		return ""
	}
	return strings.Repeat("#", max(1, n*width/peak))
}

// printer remembers the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(s string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, s)
}

func (p *printer) linef(format string, args ...any) {
	p.line(fmt.Sprintf(format, args...))
}
