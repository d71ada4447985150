package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fli.dev/internal/cache"
	"fli.dev/internal/logging"
	"fli.dev/internal/models"
	"fli.dev/internal/wire"
)

// FlightSearch finds priced itineraries for a point-in-time search.
type FlightSearch struct {
	client Poster
	codes  wire.CodeResolver
	opts   Options
}

// NewFlightSearch builds the service. client is normally a transport.Client
// using transport.FlightSearchPolicy.
func NewFlightSearch(client Poster, codes wire.CodeResolver, opts Options) *FlightSearch {
	return &FlightSearch{
		client: client,
		codes:  codes,
		opts:   opts.withDefaults(FlightsURL, "search_flights"),
	}
}

// Search validates filters and returns the matching itineraries, or nil when
// the service has none. Filters are normalized in place.
func (s *FlightSearch) Search(ctx context.Context, filters *models.SearchFilters) ([]models.FlightResult, error) {
	origin, destination := route(&filters.Criteria)
	logger := s.opts.Logger.With(slog.String("origin", origin), slog.String("destination", destination))

	if err := filters.Validate(s.opts.today()); err != nil {
		return nil, err
	}

	encoded, err := wire.EncodeSearch(*filters)
	if err != nil {
		return nil, err
	}
	key := cache.Key("flights", encoded)
	if results, ok := cached[[]models.FlightResult](ctx, s.opts, key); ok {
		logger.Debug("search_flights_cache_hit")
		return results, nil
	}

	logging.LogOperation(logger, "search_flights_start",
		slog.String("seat_type", filters.SeatType.String()),
		slog.String("stops", filters.Stops.String()))
	start := time.Now()

	resp, err := s.client.Post(ctx, s.opts.URL, wire.ContentType, wire.FormBody(encoded))
	if err != nil {
		logging.LogError(logger, "search_flights_failed", err)
		return nil, err
	}

	results, err := wire.DecodeSearch(resp.Body, s.codes)
	if err != nil {
		logging.LogError(logger, "search_flights_failed", err)
		return nil, fmt.Errorf("flight search %s-%s: %w", origin, destination, err)
	}
	if len(results) == 0 {
		logging.LogOperation(logger, "search_flights_no_results", slog.Duration("duration", time.Since(start)))
		return nil, nil
	}

	store(ctx, s.opts, key, results)
	logging.LogOperation(logger, "search_flights_success",
		slog.Int("results", len(results)),
		slog.Duration("duration", time.Since(start)))
	return results, nil
}
