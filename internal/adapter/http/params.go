package http

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/collision-explorer/internal/domain"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
	maxStreetsLimit = 100
)

// errBadParam marks a query parameter that could not be parsed.
var errBadParam = errors.New("bad query parameter")

// parseCriteria reads hour and min_injured. An absent hour, or "all", selects
// the whole day.
func parseCriteria(q url.Values) (domain.Criteria, error) {
	minInjured, err := intParam(q, "min_injured", 0)
	if err != nil {
		return domain.Criteria{}, err
	}

	hour := strings.TrimSpace(q.Get("hour"))
	if hour == "" || strings.EqualFold(hour, "all") {
		return domain.AllDay(minInjured), nil
	}
	h, err := strconv.Atoi(hour)
	if err != nil {
		return domain.Criteria{}, fmt.Errorf("%w: hour %q", errBadParam, hour)
	}
	return domain.AtHour(h, minInjured), nil
}

// parsePage reads offset and limit for the raw data dump. limit is capped at
// maxPageSize.
func parsePage(q url.Values) (offset, limit int, err error) {
	offset, err = intParam(q, "offset", 0)
	if err != nil {
		return 0, 0, err
	}
	if offset < 0 {
		return 0, 0, fmt.Errorf("%w: offset %d is negative", errBadParam, offset)
	}
	limit, err = intParam(q, "limit", defaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	if limit < 1 {
		return 0, 0, fmt.Errorf("%w: limit %d must be positive", errBadParam, limit)
	}
	return offset, min(limit, maxPageSize), nil
}

// parseCategory reads category, defaulting to pedestrians.
func parseCategory(q url.Values) (domain.Category, error) {
	s := q.Get("category")
	if s == "" {
		return domain.Pedestrians, nil
	}
	return domain.ParseCategory(s)
}

// parseStreetsLimit reads limit for rankings. 0 means the server default.
func parseStreetsLimit(q url.Values) (int, error) {
	limit, err := intParam(q, "limit", 0)
	if err != nil {
		return 0, err
	}
	if limit < 0 || limit > maxStreetsLimit {
		return 0, fmt.Errorf("%w: limit %d outside 0-%d", errBadParam, limit, maxStreetsLimit)
	}
	return limit, nil
}

// parseResolution reads res. -1 means the server default.
func parseResolution(q url.Values) (int, error) {
	res, err := intParam(q, "res", -1)
	if err != nil {
		return 0, err
	}
	if q.Has("res") && res < 0 {
		return 0, fmt.Errorf("%w: res %d is negative", errBadParam, res)
	}
	return res, nil
}

func intParam(q url.Values, key string, def int) (int, error) {
	s := strings.TrimSpace(q.Get(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", errBadParam, key, s)
	}
	return n, nil
}
