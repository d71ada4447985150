package models

import (
	"fli.dev/internal/registry"
)

// PassengerInfo holds passenger counts by category.
type PassengerInfo struct {
	Adults        int `json:"adults" validate:"gte=1"`
	Children      int `json:"children" validate:"gte=0"`
	InfantsInSeat int `json:"infants_in_seat" validate:"gte=0"`
	InfantsOnLap  int `json:"infants_on_lap" validate:"gte=0"`
}

// TimeRestrictions are hour-of-day bounds (0-24) in the airport's local time.
// A nil bound is unrestricted.
type TimeRestrictions struct {
	EarliestDeparture *int `json:"earliest_departure,omitempty" validate:"omitempty,gte=0,lte=24"`
	LatestDeparture   *int `json:"latest_departure,omitempty" validate:"omitempty,gte=1,lte=24"`
	EarliestArrival   *int `json:"earliest_arrival,omitempty" validate:"omitempty,gte=0,lte=24"`
	LatestArrival     *int `json:"latest_arrival,omitempty" validate:"omitempty,gte=1,lte=24"`
}

// DepartureWindow restricts departures to [earliest, latest] hours.
func DepartureWindow(earliest, latest int) *TimeRestrictions {
	return &TimeRestrictions{EarliestDeparture: &earliest, LatestDeparture: &latest}
}

// Normalize swaps each earliest/latest pair that is out of order.
func (t *TimeRestrictions) Normalize() {
	if t == nil {
		return
	}
	swapIfAfter(&t.EarliestDeparture, &t.LatestDeparture)
	swapIfAfter(&t.EarliestArrival, &t.LatestArrival)
}

func swapIfAfter(earliest, latest **int) {
	if *earliest != nil && *latest != nil && **earliest > **latest {
		*earliest, *latest = *latest, *earliest
	}
}

// AirportSlot is an airport paired with its alternate index within a group.
type AirportSlot struct {
	Airport registry.Airport `json:"airport"`
	Index   int              `json:"index"`
}

// FlightSegment is one origin to destination portion of a journey.
type FlightSegment struct {
	DepartureAirports []AirportSlot     `json:"departure_airports" validate:"required,min=1"`
	ArrivalAirports   []AirportSlot     `json:"arrival_airports" validate:"required,min=1"`
	TravelDate        Date              `json:"travel_date"`
	TimeRestrictions  *TimeRestrictions `json:"time_restrictions,omitempty"`
}

// NewSegment builds a single-airport segment.
func NewSegment(departure, arrival registry.Airport, travelDate Date) FlightSegment {
	return FlightSegment{
		DepartureAirports: []AirportSlot{{Airport: departure}},
		ArrivalAirports:   []AirportSlot{{Airport: arrival}},
		TravelDate:        travelDate,
	}
}

// PriceLimit caps the total fare.
type PriceLimit struct {
	MaxPrice int    `json:"max_price" validate:"gt=0"`
	Currency string `json:"currency,omitempty"`
}

// LayoverRestrictions constrain connections on multi-leg itineraries.
type LayoverRestrictions struct {
	Airports    []registry.Airport `json:"airports,omitempty"`
	MaxDuration *int               `json:"max_duration,omitempty" validate:"omitempty,gt=0"`
}

// Criteria is the part of a search shared by flight and calendar searches.
type Criteria struct {
	TripType    TripType             `json:"trip_type"`
	Passengers  PassengerInfo        `json:"passenger_info"`
	Segments    []FlightSegment      `json:"flight_segments" validate:"required,min=1,dive"`
	Stops       MaxStops             `json:"stops"`
	SeatType    SeatType             `json:"seat_type"`
	PriceLimit  *PriceLimit          `json:"price_limit,omitempty"`
	Airlines    []registry.Airline   `json:"airlines,omitempty"`
	MaxDuration *int                 `json:"max_duration,omitempty" validate:"omitempty,gt=0"`
	Layover     *LayoverRestrictions `json:"layover_restrictions,omitempty"`
}

// SearchFilters describe a point-in-time flight search.
type SearchFilters struct {
	Criteria
	SortBy SortBy `json:"sort_by"`
}

// DateRangeFilters describe a calendar search over [FromDate, ToDate].
type DateRangeFilters struct {
	Criteria
	FromDate Date `json:"from_date"`
	ToDate   Date `json:"to_date"`
}
