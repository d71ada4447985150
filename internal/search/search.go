// Package search runs flight and calendar searches against the flight
// shopping service: filters are validated, encoded, posted through the shared
// transport and decoded into domain results.
package search

import (
	"context"
	"log/slog"
	"time"

	"fli.dev/faredb"
	"fli.dev/internal/cache"
	"fli.dev/internal/logging"
	"fli.dev/internal/models"
	"fli.dev/internal/registry"
	"fli.dev/internal/transport"
)

const (
	FlightsURL  = "https://www.google.com/_/FlightsFrontendUi/data/travel.frontend.flights.FlightsFrontendService/GetShoppingResults"
	CalendarURL = "https://www.google.com/_/FlightsFrontendUi/data/travel.frontend.flights.FlightsFrontendService/GetCalendarGrid"
)

// Poster sends an encoded request body upstream.
type Poster interface {
	Post(ctx context.Context, url, contentType, body string) (*transport.Response, error)
}

// FareRecorder persists calendar results.
type FareRecorder interface {
	RecordCalendar(ctx context.Context, obs faredb.Observation, prices []models.DatePrice, observedAt time.Time) error
}

// Options are shared by both services. Zero values are usable.
type Options struct {
	URL      string
	Cache    cache.Store
	CacheTTL time.Duration
	Logger   *slog.Logger
	// Now defaults to time.Now; validation compares travel dates with its date.
	Now func() time.Time
}

func (o Options) withDefaults(url, component string) Options {
	if o.URL == "" {
		o.URL = url
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	o.Logger = logging.Component(o.Logger, component)
	return o
}

func (o Options) today() models.Date {
	return models.DateOf(o.Now())
}

// cached loads a previous result for key when a cache is configured.
func cached[T any](ctx context.Context, opts Options, key string) (T, bool) {
	var zero T
	if opts.Cache == nil || opts.CacheTTL <= 0 {
		return zero, false
	}
	v, ok, err := cache.GetJSON[T](ctx, opts.Cache, key)
	if err != nil {
		logging.LogError(opts.Logger, "cache_read_failed", err, slog.String("key", key))
		return zero, false
	}
	return v, ok
}

func store[T any](ctx context.Context, opts Options, key string, v T) {
	if opts.Cache == nil || opts.CacheTTL <= 0 {
		return
	}
	if err := cache.SetJSON(ctx, opts.Cache, key, v, opts.CacheTTL); err != nil {
		logging.LogError(opts.Logger, "cache_write_failed", err, slog.String("key", key))
	}
}

// OneWay builds the common single-segment search: one adult in economy, any
// number of stops, cheapest first.
func OneWay(departure, arrival registry.Airport, date models.Date) models.SearchFilters {
	return models.SearchFilters{
		Criteria: defaultCriteria(departure, arrival, date),
		SortBy:   models.SortCheapest,
	}
}

// CheapestDates builds a calendar search over [from, to] for one adult in
// economy. The segment is anchored on from.
func CheapestDates(departure, arrival registry.Airport, from, to models.Date) models.DateRangeFilters {
	return models.DateRangeFilters{
		Criteria: defaultCriteria(departure, arrival, from),
		FromDate: from,
		ToDate:   to,
	}
}

func defaultCriteria(departure, arrival registry.Airport, date models.Date) models.Criteria {
	return models.Criteria{
		TripType:   models.OneWay,
		Passengers: models.PassengerInfo{Adults: 1},
		Segments:   []models.FlightSegment{models.NewSegment(departure, arrival, date)},
		Stops:      models.AnyStops,
		SeatType:   models.Economy,
	}
}

func route(c *models.Criteria) (origin, destination string) {
	if len(c.Segments) == 0 {
		return "", ""
	}
	seg := c.Segments[0]
	if len(seg.DepartureAirports) > 0 {
		origin = seg.DepartureAirports[0].Airport.Code
	}
	if len(seg.ArrivalAirports) > 0 {
		destination = seg.ArrivalAirports[0].Airport.Code
	}
	return origin, destination
}
