package http

import (
	"log/slog"
	"net/http"

	"github.com/couchcryptid/collision-explorer/internal/domain"
	"github.com/couchcryptid/collision-explorer/internal/pipeline"
)

type api struct {
	dash   Dashboard
	logger *slog.Logger
}

type recordsResponse struct {
	Total   int             `json:"total"`
	Offset  int             `json:"offset"`
	Limit   int             `json:"limit"`
	Records []domain.Record `json:"records"`
}

type collisionsResponse struct {
	Criteria domain.Criteria `json:"criteria"`
	Count    int             `json:"count"`
	Records  []domain.Record `json:"records"`
}

type histogramResponse struct {
	Criteria domain.Criteria            `json:"criteria"`
	Total    int                        `json:"total"`
	Minutes  [domain.MinutesPerHour]int `json:"minutes"`
}

type topStreetsResponse struct {
	Criteria domain.Criteria         `json:"criteria"`
	Category domain.Category         `json:"category"`
	Title    string                  `json:"title"`
	Streets  []domain.StreetInjuries `json:"streets"`
}

type densityResponse struct {
	Criteria   domain.Criteria      `json:"criteria"`
	Resolution *int                 `json:"resolution,omitempty"`
	Cells      []domain.DensityCell `json:"cells"`
}

func (a *api) summary(w http.ResponseWriter, r *http.Request) {
	s, err := a.dash.Summary(r.Context())
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	writeView(w, r, a.logger, s)
}

func (a *api) records(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := parsePage(r.URL.Query())
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	page, total, err := a.dash.Records(r.Context(), offset, limit)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	writeView(w, r, a.logger, recordsResponse{Total: total, Offset: offset, Limit: limit, Records: page})
}

func (a *api) collisions(w http.ResponseWriter, r *http.Request) {
	c, err := parseCriteria(r.URL.Query())
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	set, err := a.dash.Collisions(r.Context(), c)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	writeView(w, r, a.logger, collisionsResponse{Criteria: c, Count: set.Len(), Records: set.Records()})
}

func (a *api) histogram(w http.ResponseWriter, r *http.Request) {
	c, err := parseCriteria(r.URL.Query())
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	minutes, err := a.dash.Histogram(r.Context(), c)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	total := 0
	for _, n := range minutes {
		total += n
	}
	writeView(w, r, a.logger, histogramResponse{Criteria: c, Total: total, Minutes: minutes})
}

func (a *api) topStreets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c, err := parseCriteria(q)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	cat, err := parseCategory(q)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	limit, err := parseStreetsLimit(q)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	ranked, err := a.dash.TopStreets(r.Context(), c, cat, limit)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	writeView(w, r, a.logger, topStreetsResponse{Criteria: c, Category: cat, Title: cat.Title(), Streets: ranked})
}

func (a *api) density(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c, err := parseCriteria(q)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	res, err := parseResolution(q)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	cells, err := a.dash.Density(r.Context(), c, res)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	resp := densityResponse{Criteria: c, Cells: cells}
	if res >= 0 {
		resp.Resolution = &res
	}
	writeView(w, r, a.logger, resp)
}

var _ Dashboard = (*pipeline.Dashboard)(nil)
