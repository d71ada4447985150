package search

import (
	"slices"
	"time"

	"fli.dev/internal/models"
)

// FilterByDepartureHour keeps results with any leg departing within
// [earliest, latest] hours, inclusive.
func FilterByDepartureHour(results []models.FlightResult, earliest, latest int) []models.FlightResult {
	return filterLegs(results, func(leg models.FlightLeg) bool {
		h := leg.DepartureTime.Hour()
		return h >= earliest && h <= latest
	})
}

// FilterByAirlines keeps results with any leg flown by one of codes. An empty
// code list keeps everything.
func FilterByAirlines(results []models.FlightResult, codes ...string) []models.FlightResult {
	if len(codes) == 0 {
		return results
	}
	return filterLegs(results, func(leg models.FlightLeg) bool {
		return slices.Contains(codes, leg.Airline.Code)
	})
}

func filterLegs(results []models.FlightResult, match func(models.FlightLeg) bool) []models.FlightResult {
	var out []models.FlightResult
	for _, r := range results {
		if slices.ContainsFunc(r.Legs, match) {
			out = append(out, r)
		}
	}
	return out
}

// FilterDatesByWeekday keeps prices falling on one of days. No days keeps
// everything.
func FilterDatesByWeekday(prices []models.DatePrice, days ...time.Weekday) []models.DatePrice {
	if len(days) == 0 {
		return prices
	}
	var out []models.DatePrice
	for _, p := range prices {
		if slices.Contains(days, p.Date.Weekday()) {
			out = append(out, p)
		}
	}
	return out
}

// SortDatesByPrice orders prices cheapest first; equal prices stay in date
// order. The input is not modified.
func SortDatesByPrice(prices []models.DatePrice) []models.DatePrice {
	out := slices.Clone(prices)
	slices.SortStableFunc(out, func(a, b models.DatePrice) int {
		switch {
		case a.Price < b.Price:
			return -1
		case a.Price > b.Price:
			return 1
		}
		return a.Date.Compare(b.Date.Time)
	})
	return out
}
