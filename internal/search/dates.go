package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fli.dev/faredb"
	"fli.dev/internal/cache"
	"fli.dev/internal/logging"
	"fli.dev/internal/models"
	"fli.dev/internal/wire"
)

// DateSearch finds the cheapest fare per travel date across a date range.
type DateSearch struct {
	client   Poster
	opts     Options
	recorder FareRecorder
}

// NewDateSearch builds the service. client is normally a transport.Client
// using transport.CalendarSearchPolicy. recorder may be nil.
func NewDateSearch(client Poster, recorder FareRecorder, opts Options) *DateSearch {
	return &DateSearch{
		client:   client,
		recorder: recorder,
		opts:     opts.withDefaults(CalendarURL, "search_dates"),
	}
}

// Search validates filters and returns one price per date, or nil when the
// service has none. A past from date is moved to today before encoding.
func (s *DateSearch) Search(ctx context.Context, filters *models.DateRangeFilters) ([]models.DatePrice, error) {
	origin, destination := route(&filters.Criteria)
	logger := s.opts.Logger.With(slog.String("origin", origin), slog.String("destination", destination))

	if err := filters.Validate(s.opts.today()); err != nil {
		return nil, err
	}

	encoded, err := wire.EncodeCalendar(*filters)
	if err != nil {
		return nil, err
	}
	key := cache.Key("dates", encoded)
	if prices, ok := cached[[]models.DatePrice](ctx, s.opts, key); ok {
		logger.Debug("search_dates_cache_hit")
		return prices, nil
	}

	logging.LogOperation(logger, "search_dates_start",
		slog.String("from_date", filters.FromDate.String()),
		slog.String("to_date", filters.ToDate.String()))
	start := time.Now()

	resp, err := s.client.Post(ctx, s.opts.URL, wire.ContentType, wire.FormBody(encoded))
	if err != nil {
		logging.LogError(logger, "search_dates_failed", err)
		return nil, err
	}

	prices, err := wire.DecodeCalendar(resp.Body)
	if err != nil {
		logging.LogError(logger, "search_dates_failed", err)
		return nil, fmt.Errorf("date search %s-%s: %w", origin, destination, err)
	}
	if len(prices) == 0 {
		logging.LogOperation(logger, "search_dates_no_results", slog.Duration("duration", time.Since(start)))
		return nil, nil
	}

	store(ctx, s.opts, key, prices)
	s.record(ctx, logger, filters, prices)
	logging.LogOperation(logger, "search_dates_success",
		slog.Int("results", len(prices)),
		slog.Duration("duration", time.Since(start)))
	return prices, nil
}

// record failures are logged only; the search itself has succeeded.
func (s *DateSearch) record(ctx context.Context, logger *slog.Logger, filters *models.DateRangeFilters, prices []models.DatePrice) {
	if s.recorder == nil {
		return
	}
	origin, destination := route(&filters.Criteria)
	obs := faredb.Observation{
		Origin:      origin,
		Destination: destination,
		SeatType:    filters.SeatType.String(),
		Stops:       filters.Stops.String(),
	}
	if err := s.recorder.RecordCalendar(ctx, obs, prices, s.opts.Now()); err != nil {
		logging.LogError(logger, "fare_record_failed", err)
	}
}
