package models

import (
	"fmt"
	"strings"
)

// SeatType is the cabin class. Values are the protocol codes.
type SeatType int

const (
	Economy        SeatType = 1
	PremiumEconomy SeatType = 2
	Business       SeatType = 3
	First          SeatType = 4
)

// SortBy is the result ordering requested from the service.
type SortBy int

const (
	SortNone          SortBy = 0
	SortTopFlights    SortBy = 1
	SortCheapest      SortBy = 2
	SortDepartureTime SortBy = 3
	SortArrivalTime   SortBy = 4
	SortDuration      SortBy = 5
)

// TripType is the journey type. Only OneWay is implemented by the codec.
type TripType int

const (
	RoundTrip TripType = 1
	OneWay    TripType = 2
	MultiCity TripType = 3
)

// MaxStops bounds the number of stops.
type MaxStops int

const (
	AnyStops        MaxStops = 0
	NonStop         MaxStops = 1
	OneStopOrFewer  MaxStops = 2
	TwoOrFewerStops MaxStops = 3
)

var seatTypeNames = map[SeatType]string{
	Economy:        "ECONOMY",
	PremiumEconomy: "PREMIUM_ECONOMY",
	Business:       "BUSINESS",
	First:          "FIRST",
}

var sortByNames = map[SortBy]string{
	SortNone:          "NONE",
	SortTopFlights:    "TOP_FLIGHTS",
	SortCheapest:      "CHEAPEST",
	SortDepartureTime: "DEPARTURE_TIME",
	SortArrivalTime:   "ARRIVAL_TIME",
	SortDuration:      "DURATION",
}

var tripTypeNames = map[TripType]string{
	RoundTrip: "ROUND_TRIP",
	OneWay:    "ONE_WAY",
	MultiCity: "MULTI_CITY",
}

var maxStopsNames = map[MaxStops]string{
	AnyStops:        "ANY",
	NonStop:         "NON_STOP",
	OneStopOrFewer:  "ONE_STOP_OR_FEWER",
	TwoOrFewerStops: "TWO_OR_FEWER_STOPS",
}

// stop aliases accepted from command lines and request bodies
var maxStopsAliases = map[string]MaxStops{
	"0":              NonStop,
	"1":              OneStopOrFewer,
	"2":              TwoOrFewerStops,
	"2+":             TwoOrFewerStops,
	"ONE_STOP":       OneStopOrFewer,
	"TWO_PLUS_STOPS": TwoOrFewerStops,
}

func (s SeatType) Code() int { return int(s) }
func (s SortBy) Code() int   { return int(s) }
func (t TripType) Code() int { return int(t) }
func (m MaxStops) Code() int { return int(m) }

func (s SeatType) Valid() bool { _, ok := seatTypeNames[s]; return ok }
func (s SortBy) Valid() bool   { _, ok := sortByNames[s]; return ok }
func (t TripType) Valid() bool { _, ok := tripTypeNames[t]; return ok }
func (m MaxStops) Valid() bool { _, ok := maxStopsNames[m]; return ok }

func (s SeatType) String() string { return enumName(seatTypeNames, s) }
func (s SortBy) String() string   { return enumName(sortByNames, s) }
func (t TripType) String() string { return enumName(tripTypeNames, t) }
func (m MaxStops) String() string { return enumName(maxStopsNames, m) }

// ParseSeatType accepts a display name such as "business".
func ParseSeatType(name string) (SeatType, error) {
	return parseEnum(seatTypeNames, name, "seat type")
}

// ParseSortBy accepts a display name such as "CHEAPEST".
func ParseSortBy(name string) (SortBy, error) {
	return parseEnum(sortByNames, name, "sort order")
}

// ParseTripType accepts a display name such as "ONE_WAY".
func ParseTripType(name string) (TripType, error) {
	return parseEnum(tripTypeNames, name, "trip type")
}

// ParseMaxStops accepts a display name or one of the numeric shorthands
// ("0" for non-stop, "1" for at most one stop, "2+" for at most two).
func ParseMaxStops(name string) (MaxStops, error) {
	if m, ok := maxStopsAliases[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return m, nil
	}
	return parseEnum(maxStopsNames, name, "max stops")
}

func enumName[E comparable](names map[E]string, v E) string {
	if name, ok := names[v]; ok {
		return name
	}
	return fmt.Sprintf("%d", v)
}

func parseEnum[E comparable](names map[E]string, name, kind string) (E, error) {
	want := strings.ToUpper(strings.TrimSpace(name))
	for v, n := range names {
		if n == want {
			return v, nil
		}
	}
	var zero E
	return zero, &ValidationError{Field: kind, Message: fmt.Sprintf("unknown %s %q", kind, name)}
}

func (s SeatType) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (s SortBy) MarshalText() ([]byte, error)   { return []byte(s.String()), nil }
func (t TripType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }
func (m MaxStops) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (s *SeatType) UnmarshalText(b []byte) (err error) { *s, err = ParseSeatType(string(b)); return }
func (s *SortBy) UnmarshalText(b []byte) (err error)   { *s, err = ParseSortBy(string(b)); return }
func (t *TripType) UnmarshalText(b []byte) (err error) { *t, err = ParseTripType(string(b)); return }
func (m *MaxStops) UnmarshalText(b []byte) (err error) { *m, err = ParseMaxStops(string(b)); return }
