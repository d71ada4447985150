package models

import (
	"time"

	"fli.dev/internal/registry"
)

// FlightLeg is one operated flight within a result.
type FlightLeg struct {
	Airline          registry.Airline `json:"airline"`
	FlightNumber     string           `json:"flight_number"`
	DepartureAirport registry.Airport `json:"departure_airport"`
	ArrivalAirport   registry.Airport `json:"arrival_airport"`
	DepartureTime    time.Time        `json:"departure_datetime"`
	ArrivalTime      time.Time        `json:"arrival_datetime"`
	DurationMinutes  int              `json:"duration"`
}

// FlightResult is a priced itinerary. Stops is always len(Legs)-1.
type FlightResult struct {
	Legs            []FlightLeg `json:"legs"`
	Price           float64     `json:"price"`
	DurationMinutes int         `json:"duration"`
	Stops           int         `json:"stops"`
}

// DatePrice is the cheapest fare found for a travel date.
type DatePrice struct {
	Date  Date    `json:"date"`
	Price float64 `json:"price"`
}
