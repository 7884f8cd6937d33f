package domain

import (
	"context"
	"log/slog"
	"slices"
)

// EnrichWithPlaces labels ranking rows with a geocoded place for their crash
// coordinate. A nil geocoder returns the entries unchanged; a failed lookup
// leaves that row's Place empty and moves on. The input slice is not modified.
func EnrichWithPlaces(ctx context.Context, entries []StreetInjuries, geocoder Geocoder, logger *slog.Logger) []StreetInjuries {
	out := slices.Clone(entries)
	if geocoder == nil {
		return out
	}

	for i := range out {
		if ctx.Err() != nil {
			break
		}
		result, err := geocoder.ReverseGeocode(ctx, out[i].Latitude, out[i].Longitude)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"street", out[i].Street,
				"lat", out[i].Latitude,
				"lon", out[i].Longitude,
				"error", err,
			)
			continue
		}
		out[i].Place = result.PlaceName
		if result.FormattedAddress != "" {
			out[i].Place = result.FormattedAddress
		}
	}
	return out
}
