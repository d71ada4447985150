package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"fli.dev/faredb"
	"fli.dev/internal/appconf"
	"fli.dev/internal/cache"
	"fli.dev/internal/logging"
	"fli.dev/internal/registry"
	"fli.dev/internal/search"
	"fli.dev/internal/transport"
)

// Application holds the dependencies shared by the CLI commands, the HTTP
// handlers and middleware. Build it once with New and Close it on exit.
type Application struct {
	Config   appconf.Config
	Logger   *slog.Logger
	Registry *registry.Registry
	Session  *transport.Session
	Flights  *search.FlightSearch
	Dates    *search.DateSearch
	// FareDB is nil unless a database path is configured.
	FareDB *faredb.Client

	closers []io.Closer
}

// New wires the application from cfg. Optional parts (shared cache, fare
// history) are only built when configured.
func New(ctx context.Context, cfg appconf.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &Application{Config: cfg, Logger: logger}

	reg, err := registry.Load(cfg.AirportsCSV, cfg.AirlinesCSV)
	if err != nil {
		return nil, fmt.Errorf("error loading code registry: %w", err)
	}
	app.Registry = reg

	store, err := app.openCache(ctx)
	if err != nil {
		return nil, err
	}

	var recorder search.FareRecorder
	if cfg.DBPath != "" {
		db, err := faredb.NewClient(faredb.NewConfig(cfg.DBPath, cfg.Env, logger))
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("error opening fare database: %w", err)
		}
		app.FareDB = db
		app.closers = append(app.closers, db)
		recorder = db
	}

	app.Session = transport.NewSession(transport.Config{
		Timeout:    cfg.HTTPTimeout,
		RateLimit:  cfg.RateLimit,
		RateWindow: cfg.RateWindow,
	}, logger)

	opts := search.Options{Cache: store, CacheTTL: cfg.CacheTTL, Logger: logger}
	app.Flights = search.NewFlightSearch(app.Session.Client(app.policy(transport.FlightSearchPolicy(), cfg.FlightAttempts)), reg, opts)
	app.Dates = search.NewDateSearch(app.Session.Client(app.policy(transport.CalendarSearchPolicy(), cfg.CalendarAttempts)), recorder, opts)

	logging.LogOperation(logger, "application_ready",
		slog.String("env", string(cfg.Env)),
		slog.Int("airports", len(reg.Airports())),
		slog.Int("airlines", len(reg.Airlines())),
		slog.Bool("fare_history", app.FareDB != nil),
		slog.Bool("shared_cache", cfg.RedisURL != ""))
	return app, nil
}

func (app *Application) openCache(ctx context.Context) (cache.Store, error) {
	if app.Config.CacheTTL <= 0 {
		return nil, nil
	}
	if app.Config.RedisURL == "" {
		m := cache.NewMemory()
		app.closers = append(app.closers, m)
		return m, nil
	}
	r, err := cache.DialRedis(ctx, app.Config.RedisURL)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, r)
	return r, nil
}

func (app *Application) policy(p transport.RetryPolicy, attempts int) transport.RetryPolicy {
	if attempts > 0 {
		p.MaxAttempts = attempts
	}
	p.BaseDelay = app.Config.BackoffBase
	p.MaxDelay = app.Config.BackoffMax
	return p
}

// Close releases the database, cache connection and idle HTTP connections.
func (app *Application) Close() error {
	if app.Session != nil {
		app.Session.CloseIdleConnections()
	}
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}
