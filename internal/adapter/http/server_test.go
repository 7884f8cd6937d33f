package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/collision-explorer/internal/adapter/csvfile"
	"github.com/couchcryptid/collision-explorer/internal/adapter/h3grid"
	httpadapter "github.com/couchcryptid/collision-explorer/internal/adapter/http"
	"github.com/couchcryptid/collision-explorer/internal/domain"
	"github.com/couchcryptid/collision-explorer/internal/observability"
	"github.com/couchcryptid/collision-explorer/internal/pipeline"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newDashboard(t *testing.T, warm bool) *pipeline.Dashboard {
	t.Helper()
	path := filepath.Join("..", "..", "..", "data", "mock", "collisions_sample.csv")
	metrics := observability.NewMetricsForTesting()
	ds := pipeline.NewDataset(csvfile.NewLoader(path, discardLogger()), discardLogger(), metrics)
	d := pipeline.NewDashboard(ds, pipeline.Options{
		MaxRows:    1000,
		Resolution: 9,
		Binner:     h3grid.New(),
	}, discardLogger(), metrics)
	if warm {
		require.NoError(t, d.Warm(context.Background()))
	}
	return d
}

func newTestServer(t *testing.T) *httpadapter.Server {
	t.Helper()
	return httpadapter.NewServer(":0", newDashboard(t, true), discardLogger())
}

func get(t *testing.T, srv http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(t), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenLoaded(t *testing.T) {
	rec := get(t, newTestServer(t), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503BeforeWarm(t *testing.T) {
	srv := httpadapter.NewServer(":0", newDashboard(t, false), discardLogger())
	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv, "/readyz").Code)

	rec := get(t, srv, "/api/summary")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, pipeline.ErrNotLoaded.Error(), body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(t), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestSummary(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	s := decode[pipeline.Summary](t, rec)
	assert.Equal(t, 17, s.Records)
	assert.Equal(t, 6, s.MaxInjured)
	assert.Equal(t, 20, s.Stats.RowsRead)
}

func TestRecords_Paging(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		target    string
		wantLimit int
		wantLen   int
	}{
		{"/api/records", 100, 17},
		{"/api/records?limit=5", 5, 5},
		{"/api/records?offset=15&limit=5", 5, 2},
		{"/api/records?offset=40", 100, 0},
		{"/api/records?limit=50000", 1000, 17},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := get(t, srv, tt.target)
			require.Equal(t, http.StatusOK, rec.Code)
			body := decode[struct {
				Total   int             `json:"total"`
				Limit   int             `json:"limit"`
				Records []domain.Record `json:"records"`
			}](t, rec)
			assert.Equal(t, 17, body.Total)
			assert.Equal(t, tt.wantLimit, body.Limit)
			assert.Len(t, body.Records, tt.wantLen)
		})
	}
}

func TestCollisions(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		target string
		want   int
	}{
		{"/api/collisions", 15},
		{"/api/collisions?hour=all&min_injured=2", 8},
		{"/api/collisions?hour=8", 6},
		{"/api/collisions?hour=8&min_injured=3", 2},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := get(t, srv, tt.target)
			require.Equal(t, http.StatusOK, rec.Code)
			body := decode[struct {
				Count   int             `json:"count"`
				Records []domain.Record `json:"records"`
			}](t, rec)
			assert.Equal(t, tt.want, body.Count)
			assert.Len(t, body.Records, tt.want)
		})
	}
}

func TestHistogram(t *testing.T) {
	srv := newTestServer(t)

	rec := get(t, srv, "/api/histogram?hour=8")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Total   int   `json:"total"`
		Minutes []int `json:"minutes"`
	}](t, rec)
	assert.Equal(t, 6, body.Total)
	require.Len(t, body.Minutes, 60)
	assert.Equal(t, 3, body.Minutes[10])

	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/api/histogram").Code)
}

func TestTopStreets(t *testing.T) {
	srv := newTestServer(t)

	rec := get(t, srv, "/api/top-streets?category=Motorists")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Category string                  `json:"category"`
		Title    string                  `json:"title"`
		Streets  []domain.StreetInjuries `json:"streets"`
	}](t, rec)
	assert.Equal(t, "motorists", body.Category)
	assert.Equal(t, "Motorists", body.Title)
	require.Len(t, body.Streets, 5)
	assert.Equal(t, "QUEENS BOULEVARD", body.Streets[0].Street)
	assert.Equal(t, 5, body.Streets[0].Injured)

	rec = get(t, srv, "/api/top-streets?hour=8&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	body.Streets = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Streets, 1)
	assert.Equal(t, "4 AVENUE", body.Streets[0].Street)
}

func TestDensity(t *testing.T) {
	srv := newTestServer(t)

	rec := get(t, srv, "/api/density?hour=8")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Resolution *int                 `json:"resolution"`
		Cells      []domain.DensityCell `json:"cells"`
	}](t, rec)
	assert.Nil(t, body.Resolution)
	total := 0
	for _, c := range body.Cells {
		total += c.Count
	}
	assert.Equal(t, 6, total)

	rec = get(t, srv, "/api/density?res=0")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[struct {
		Resolution *int                 `json:"resolution"`
		Cells      []domain.DensityCell `json:"cells"`
	}](t, rec)
	require.NotNil(t, body.Resolution)
	assert.Equal(t, 0, *body.Resolution)
}

func TestBadParameters(t *testing.T) {
	srv := newTestServer(t)

	for _, target := range []string{
		"/api/collisions?hour=noon",
		"/api/collisions?hour=24",
		"/api/collisions?min_injured=-1",
		"/api/collisions?min_injured=many",
		"/api/records?offset=-1",
		"/api/records?limit=0",
		"/api/top-streets?category=buses",
		"/api/top-streets?limit=101",
		"/api/density?res=16",
		"/api/density?res=-2",
	} {
		t.Run(target, func(t *testing.T) {
			rec := get(t, srv, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode[map[string]string](t, rec)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestETag_NotModified(t *testing.T) {
	srv := newTestServer(t)

	first := get(t, srv, "/api/top-streets?hour=8")
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	assert.Equal(t, etag, get(t, srv, "/api/top-streets?hour=8").Header().Get("ETag"), "same view, same tag")
	assert.NotEqual(t, etag, get(t, srv, "/api/top-streets?hour=9").Header().Get("ETag"))

	req := httptest.NewRequest(http.MethodGet, "/api/top-streets?hour=8", nil)
	req.Header.Set("If-None-Match", etag)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/summary", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSExposesETagOnGet(t *testing.T) {
	srv := newTestServer(t)
	rec := get(t, srv, "/api/summary")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("ETag"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "ETag", rec.Header().Get("Access-Control-Expose-Headers"))
}

// --- error mapping with a stub dashboard ---

type failingDashboard struct {
	*pipeline.Dashboard
}

func (failingDashboard) Summary(context.Context) (pipeline.Summary, error) {
	return pipeline.Summary{}, errors.New("disk on fire")
}

func TestInternalErrorsAreMasked(t *testing.T) {
	srv := httpadapter.NewServer(":0", failingDashboard{newDashboard(t, true)}, discardLogger())
	rec := get(t, srv, "/api/summary")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "internal error", body["error"])
}
