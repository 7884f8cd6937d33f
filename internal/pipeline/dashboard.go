// Package pipeline binds the memoized dataset to the dashboard views. Every
// view recomputes from the immutable loaded set; no selection state is kept
// between calls.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/collision-explorer/internal/domain"
	"github.com/couchcryptid/collision-explorer/internal/observability"
)

var (
	// ErrNotLoaded means the dataset has not been warmed yet.
	ErrNotLoaded = errors.New("dataset not loaded")

	// ErrHourRequired means a per-minute view was requested in all-day mode.
	ErrHourRequired = errors.New("an hour must be selected")

	// ErrInvalidResolution means a density request used an H3 resolution outside 0-15.
	ErrInvalidResolution = errors.New("invalid resolution")
)

const maxResolution = 15

// Binner aggregates records into map cells.
type Binner interface {
	Bin(records []domain.Record, resolution int) ([]domain.DensityCell, error)
}

// Options configures a Dashboard.
type Options struct {
	MaxRows         int
	TopStreetsLimit int
	Resolution      int
	Binner          Binner
	Geocoder        domain.Geocoder
}

// Summary describes the loaded dataset.
type Summary struct {
	Records    int              `json:"records"`
	MaxInjured int              `json:"max_injured"`
	Columns    []string         `json:"columns"`
	Stats      domain.LoadStats `json:"stats"`
}

// Dashboard serves the dashboard views from one memoized dataset.
type Dashboard struct {
	dataset *Dataset
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
	ready   atomic.Bool
}

// NewDashboard creates a Dashboard. Zero TopStreetsLimit falls back to
// domain.DefaultTopStreets.
func NewDashboard(dataset *Dataset, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Dashboard {
	if opts.TopStreetsLimit <= 0 {
		opts.TopStreetsLimit = domain.DefaultTopStreets
	}
	return &Dashboard{
		dataset: dataset,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
	}
}

// SetClock replaces the clock used for view timing.
func (d *Dashboard) SetClock(c clockwork.Clock) {
	d.clock = c
}

// Warm loads the configured dataset so later views are served from memory.
func (d *Dashboard) Warm(ctx context.Context) error {
	if _, err := d.dataset.Get(ctx, d.opts.MaxRows); err != nil {
		return fmt.Errorf("warm dataset: %w", err)
	}
	d.ready.Store(true)
	return nil
}

// CheckReadiness returns nil once the dataset has been loaded.
func (d *Dashboard) CheckReadiness(_ context.Context) error {
	if !d.ready.Load() {
		return ErrNotLoaded
	}
	return nil
}

// Summary reports load statistics and the slider bound for injured persons.
func (d *Dashboard) Summary(ctx context.Context) (Summary, error) {
	defer d.observe("summary", d.clock.Now())
	set, err := d.set(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Records:    set.Len(),
		MaxInjured: domain.MaxInjured(set),
		Columns:    set.Header(),
		Stats:      set.Stats(),
	}, nil
}

// Records returns one page of the unfiltered dataset and the total record count.
func (d *Dashboard) Records(ctx context.Context, offset, limit int) ([]domain.Record, int, error) {
	defer d.observe("records", d.clock.Now())
	set, err := d.set(ctx)
	if err != nil {
		return nil, 0, err
	}
	return set.Slice(offset, limit), set.Len(), nil
}

// Collisions returns the records that satisfy c.
func (d *Dashboard) Collisions(ctx context.Context, c domain.Criteria) (*domain.RecordSet, error) {
	defer d.observe("collisions", d.clock.Now())
	filtered, err := d.filtered(ctx, c)
	if err != nil {
		return nil, err
	}
	d.metrics.ViewRecords.WithLabelValues("collisions").Observe(float64(filtered.Len()))
	return filtered, nil
}

// Histogram returns per-minute crash counts within the selected hour.
func (d *Dashboard) Histogram(ctx context.Context, c domain.Criteria) ([domain.MinutesPerHour]int, error) {
	defer d.observe("histogram", d.clock.Now())
	var zero [domain.MinutesPerHour]int
	if c.IsAllDay() {
		return zero, ErrHourRequired
	}
	filtered, err := d.filtered(ctx, c)
	if err != nil {
		return zero, err
	}
	d.metrics.ViewRecords.WithLabelValues("histogram").Observe(float64(filtered.Len()))
	return domain.MinuteHistogram(filtered, *c.Hour), nil
}

// TopStreets ranks streets by injuries of one category among the filtered
// records. limit <= 0 uses the configured limit.
func (d *Dashboard) TopStreets(ctx context.Context, c domain.Criteria, cat domain.Category, limit int) ([]domain.StreetInjuries, error) {
	defer d.observe("top_streets", d.clock.Now())
	if limit <= 0 {
		limit = d.opts.TopStreetsLimit
	}
	filtered, err := d.filtered(ctx, c)
	if err != nil {
		return nil, err
	}
	d.metrics.ViewRecords.WithLabelValues("top_streets").Observe(float64(filtered.Len()))
	ranked := domain.TopStreets(filtered, cat, limit)
	return domain.EnrichWithPlaces(ctx, ranked, d.opts.Geocoder, d.logger), nil
}

// Density bins the filtered records into hexagonal cells. res < 0 uses the
// configured resolution.
func (d *Dashboard) Density(ctx context.Context, c domain.Criteria, res int) ([]domain.DensityCell, error) {
	defer d.observe("density", d.clock.Now())
	if d.opts.Binner == nil {
		return nil, errors.New("density binning is not configured")
	}
	if res < 0 {
		res = d.opts.Resolution
	}
	if res > maxResolution {
		return nil, fmt.Errorf("%w: %d", ErrInvalidResolution, res)
	}
	filtered, err := d.filtered(ctx, c)
	if err != nil {
		return nil, err
	}
	d.metrics.ViewRecords.WithLabelValues("density").Observe(float64(filtered.Len()))
	return d.opts.Binner.Bin(filtered.Records(), res)
}

// Report computes every panel of one dashboard selection.
func (d *Dashboard) Report(ctx context.Context, c domain.Criteria, cat domain.Category) (domain.Report, error) {
	defer d.observe("report", d.clock.Now())
	set, err := d.set(ctx)
	if err != nil {
		return domain.Report{}, err
	}
	if err := c.Validate(); err != nil {
		return domain.Report{}, err
	}
	filtered := domain.Filter(set, c)
	d.metrics.ViewRecords.WithLabelValues("report").Observe(float64(filtered.Len()))

	report := domain.Report{
		Criteria:   c,
		Category:   cat,
		MaxInjured: domain.MaxInjured(set),
		Filtered:   filtered,
	}
	if !c.IsAllDay() {
		minutes := domain.MinuteHistogram(filtered, *c.Hour)
		report.Minutes = &minutes
	}
	ranked := domain.TopStreets(filtered, cat, d.opts.TopStreetsLimit)
	report.TopStreets = domain.EnrichWithPlaces(ctx, ranked, d.opts.Geocoder, d.logger)
	return report, nil
}

func (d *Dashboard) set(ctx context.Context) (*domain.RecordSet, error) {
	if !d.ready.Load() {
		return nil, ErrNotLoaded
	}
	return d.dataset.Get(ctx, d.opts.MaxRows)
}

func (d *Dashboard) filtered(ctx context.Context, c domain.Criteria) (*domain.RecordSet, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	set, err := d.set(ctx)
	if err != nil {
		return nil, err
	}
	return domain.Filter(set, c), nil
}

func (d *Dashboard) observe(view string, start time.Time) {
	d.metrics.ViewRequests.WithLabelValues(view).Inc()
	d.metrics.ViewDuration.WithLabelValues(view).Observe(d.clock.Since(start).Seconds())
}
