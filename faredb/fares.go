package faredb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"fli.dev/internal/logging"
	"fli.dev/internal/models"
)

// Observation identifies the search a set of calendar prices came from.
type Observation struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	SeatType    string `json:"seat_type"`
	Stops       string `json:"stops"`
}

// PricePoint is one stored calendar price.
type PricePoint struct {
	Observation
	TravelDate models.Date `json:"travel_date"`
	Price      float64     `json:"price"`
	ObservedAt time.Time   `json:"observed_at"`
}

const insertPrice = `
INSERT INTO calendar_prices (origin, destination, seat_type, stops, travel_date, price, observed_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

// RecordCalendar stores prices from one calendar search in a single
// transaction.
func (c *Client) RecordCalendar(ctx context.Context, obs Observation, prices []models.DatePrice, observedAt time.Time) (err error) {
	if len(prices) == 0 {
		return nil
	}

	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer logging.SafeRollbackWithLogging(tx, c.config.Logger, "record_calendar")

	stmt, err := tx.PrepareContext(ctx, insertPrice)
	if err != nil {
		return fmt.Errorf("error preparing insert: %w", err)
	}
	defer logging.HandleDeferredError(&err, stmt.Close, c.config.Logger, "close_insert_statement")

	observed := observedAt.UnixMilli()
	for _, p := range prices {
		if _, err := stmt.ExecContext(ctx, obs.Origin, obs.Destination, obs.SeatType, obs.Stops, p.Date.String(), p.Price, observed); err != nil {
			return fmt.Errorf("error inserting price for %s: %w", p.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	logging.LogOperation(c.config.Logger, "calendar_recorded",
		slog.String("origin", obs.Origin),
		slog.String("destination", obs.Destination),
		slog.Int("prices", len(prices)))
	return nil
}

// PriceHistory returns every price stored for obs and a travel date, newest
// observation first. Prices for other seat types or stop limits on the same
// route are not included.
func (c *Client) PriceHistory(ctx context.Context, obs Observation, travelDate models.Date) ([]PricePoint, error) {
	rows, err := c.DB.QueryContext(ctx, `
		SELECT origin, destination, seat_type, stops, travel_date, price, observed_at
		FROM calendar_prices
		WHERE origin = ? AND destination = ? AND seat_type = ? AND stops = ? AND travel_date = ?
		ORDER BY observed_at DESC, id DESC`,
		obs.Origin, obs.Destination, obs.SeatType, obs.Stops, travelDate.String())
	if err != nil {
		return nil, fmt.Errorf("error querying price history: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, c.config.Logger, "price_history")

	var points []PricePoint
	for rows.Next() {
		p, err := scanPricePoint(rows)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// LowestObserved returns the cheapest price ever stored for obs on each
// travel date in [from, to], in date order.
func (c *Client) LowestObserved(ctx context.Context, obs Observation, from, to models.Date) ([]models.DatePrice, error) {
	rows, err := c.DB.QueryContext(ctx, `
		SELECT travel_date, MIN(price)
		FROM calendar_prices
		WHERE origin = ? AND destination = ? AND seat_type = ? AND stops = ? AND travel_date BETWEEN ? AND ?
		GROUP BY travel_date
		ORDER BY travel_date`,
		obs.Origin, obs.Destination, obs.SeatType, obs.Stops, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("error querying lowest prices: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, c.config.Logger, "lowest_observed")

	var prices []models.DatePrice
	for rows.Next() {
		var (
			date  string
			price float64
		)
		if err := rows.Scan(&date, &price); err != nil {
			return nil, err
		}
		d, err := models.ParseDate(date)
		if err != nil {
			return nil, err
		}
		prices = append(prices, models.DatePrice{Date: d, Price: price})
	}
	return prices, rows.Err()
}

func scanPricePoint(rows *sql.Rows) (PricePoint, error) {
	var (
		p        PricePoint
		date     string
		observed int64
	)
	if err := rows.Scan(&p.Origin, &p.Destination, &p.SeatType, &p.Stops, &date, &p.Price, &observed); err != nil {
		return PricePoint{}, err
	}
	d, err := models.ParseDate(date)
	if err != nil {
		return PricePoint{}, err
	}
	p.TravelDate = d
	p.ObservedAt = time.UnixMilli(observed).UTC()
	return p, nil
}
