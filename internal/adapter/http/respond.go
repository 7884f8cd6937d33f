package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/couchcryptid/collision-explorer/internal/domain"
	"github.com/couchcryptid/collision-explorer/internal/pipeline"
)

// writeView encodes v as JSON with an ETag derived from the body. A request
// whose If-None-Match matches gets 304 and no body.
func writeView(w http.ResponseWriter, r *http.Request, logger *slog.Logger, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Error("encode response", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}

	etag := `"` + strconv.FormatUint(xxhash.Sum64(body), 16) + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps view errors to status codes.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, pipeline.ErrNotLoaded):
		status = http.StatusServiceUnavailable
	case errors.Is(err, errBadParam),
		errors.Is(err, domain.ErrInvalidCriteria),
		errors.Is(err, domain.ErrUnknownCategory),
		errors.Is(err, pipeline.ErrHourRequired),
		errors.Is(err, pipeline.ErrInvalidResolution):
		status = http.StatusBadRequest
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("view failed", "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort error response
}
