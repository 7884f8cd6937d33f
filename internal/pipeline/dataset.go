package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/collision-explorer/internal/domain"
	"github.com/couchcryptid/collision-explorer/internal/observability"
)

// errLoadAborted marks an entry whose load never returned, such as after a
// panic in the loader. Waiters see it as a failure and retry.
var errLoadAborted = errors.New("dataset load aborted")

// Loader reads up to maxRows rows from the collision source.
type Loader interface {
	Load(ctx context.Context, maxRows int) (*domain.RecordSet, error)
}

// Dataset memoizes loaded record sets by row cap. Entries are never
// invalidated: the source is treated as static for the life of the process.
type Dataset struct {
	loader  Loader
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock

	mu      sync.Mutex
	entries map[int]*entry
}

// entry is one memoized load. done is closed once set or err is final.
type entry struct {
	done chan struct{}
	set  *domain.RecordSet
	err  error
}

// NewDataset creates an empty memo in front of loader.
func NewDataset(loader Loader, logger *slog.Logger, metrics *observability.Metrics) *Dataset {
	return &Dataset{
		loader:  loader,
		logger:  logger,
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
		entries: make(map[int]*entry),
	}
}

// SetClock replaces the clock used for load timing.
func (d *Dataset) SetClock(c clockwork.Clock) {
	d.clock = c
}

// Get returns the record set for maxRows, loading it on first use. Concurrent
// callers for the same key share one load. Failed loads are not memoized.
func (d *Dataset) Get(ctx context.Context, maxRows int) (*domain.RecordSet, error) {
	d.mu.Lock()
	if e, ok := d.entries[maxRows]; ok {
		d.mu.Unlock()
		d.metrics.DatasetLookups.WithLabelValues("hit").Inc()
		select {
		case <-e.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if e.err != nil {
			// The owning load failed; retry with this caller's context.
			return d.Get(ctx, maxRows)
		}
		return e.set, nil
	}
	e := &entry{done: make(chan struct{}), err: errLoadAborted}
	d.entries[maxRows] = e
	d.mu.Unlock()
	d.metrics.DatasetLookups.WithLabelValues("miss").Inc()

	defer func() {
		if e.err != nil {
			d.mu.Lock()
			delete(d.entries, maxRows)
			d.mu.Unlock()
		}
		close(e.done)
	}()

	e.set, e.err = d.load(ctx, maxRows)
	return e.set, e.err
}

// Loaded reports whether a successful load for maxRows is memoized.
func (d *Dataset) Loaded(maxRows int) bool {
	d.mu.Lock()
	e, ok := d.entries[maxRows]
	d.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case <-e.done:
		return e.err == nil
	default:
		return false
	}
}

func (d *Dataset) load(ctx context.Context, maxRows int) (*domain.RecordSet, error) {
	start := d.clock.Now()
	set, err := d.loader.Load(ctx, maxRows)
	elapsed := d.clock.Since(start)
	if err != nil {
		d.metrics.LoadErrors.Inc()
		d.logger.Error("dataset load failed", "max_rows", maxRows, "error", err)
		return nil, err
	}

	stats := set.Stats()
	d.metrics.LoadDuration.Observe(elapsed.Seconds())
	d.metrics.RowsRead.Add(float64(stats.RowsRead))
	d.metrics.RowsDropped.WithLabelValues("missing_coordinates").Add(float64(stats.DroppedNoCoords))
	d.metrics.RowsDropped.WithLabelValues("zero_latitude").Add(float64(stats.DroppedZeroLat))
	d.metrics.RowsDropped.WithLabelValues("unparsable").Add(float64(stats.DroppedUnparsable))
	d.metrics.RecordsLoaded.Set(float64(set.Len()))

	d.logger.Info("dataset loaded",
		"max_rows", maxRows,
		"rows_read", stats.RowsRead,
		"records", set.Len(),
		"dropped", stats.Dropped(),
		"null_timestamps", stats.NullTimestamps,
		"duration", elapsed,
	)
	return set, nil
}
