// Package wire translates search filters to the positional request format of
// the flight shopping service and decodes its responses.
package wire

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"fli.dev/internal/models"
	"fli.dev/internal/registry"
)

// ContentType is sent with every encoded request body.
const ContentType = "application/x-www-form-urlencoded;charset=UTF-8"

// EncodeSearch encodes a point-in-time flight search. Equal filters always
// produce byte-identical output.
func EncodeSearch(f models.SearchFilters) (string, error) {
	return encode(formatSearch(f))
}

// EncodeCalendar encodes a calendar search over f's date range.
func EncodeCalendar(f models.DateRangeFilters) (string, error) {
	return encode(formatCalendar(f))
}

// FormBody is the request body for an encoded filter.
func FormBody(encoded string) string {
	return "f.req=" + encoded
}

func formatSearch(f models.SearchFilters) []any {
	payload := []any{[]any{}, formatOptions(&f.Criteria), f.SortBy.Code()}
	for _, v := range searchTrailer {
		payload = append(payload, v)
	}
	return payload
}

func formatCalendar(f models.DateRangeFilters) []any {
	return []any{nil, formatOptions(&f.Criteria), []any{f.FromDate.String(), f.ToDate.String()}}
}

func formatOptions(c *models.Criteria) []any {
	opts := make([]any, optionSlots)
	opts[optTripType] = c.TripType.Code()
	opts[optReserved] = []any{}
	opts[optSeatType] = c.SeatType.Code()
	opts[optPassengers] = []any{
		c.Passengers.Adults,
		c.Passengers.Children,
		c.Passengers.InfantsOnLap,
		c.Passengers.InfantsInSeat,
	}
	if c.PriceLimit != nil {
		opts[optPriceLimit] = []any{nil, c.PriceLimit.MaxPrice}
	}

	segments := make([]any, 0, len(c.Segments))
	for _, seg := range c.Segments {
		segments = append(segments, formatSegment(c, seg))
	}
	opts[optSegments] = segments
	opts[optTag] = optionsTag
	return opts
}

func formatSegment(c *models.Criteria, seg models.FlightSegment) []any {
	s := make([]any, segmentSlots)
	s[segDeparture] = airportGroup(seg.DepartureAirports)
	s[segArrival] = airportGroup(seg.ArrivalAirports)
	if tr := seg.TimeRestrictions; tr != nil {
		s[segTimes] = []any{tr.EarliestDeparture, tr.LatestDeparture, tr.EarliestArrival, tr.LatestArrival}
	}
	s[segStops] = c.Stops.Code()
	if len(c.Airlines) > 0 {
		s[segAirlines] = airlineCodes(c.Airlines)
	}
	s[segTravelDate] = seg.TravelDate.String()
	if c.MaxDuration != nil && *c.MaxDuration > 0 {
		s[segMaxDuration] = []any{*c.MaxDuration}
	}
	if c.Layover != nil {
		if len(c.Layover.Airports) > 0 {
			codes := make([]any, 0, len(c.Layover.Airports))
			for _, a := range c.Layover.Airports {
				codes = append(codes, a.Code)
			}
			s[segLayoverAirports] = codes
		}
		if c.Layover.MaxDuration != nil {
			s[segLayoverDuration] = *c.Layover.MaxDuration
		}
	}
	s[segEmissions] = nil
	s[segTag] = segmentTag
	return s
}

// airportGroup wraps the slots in a single group: [[[code, index], ...]].
func airportGroup(slots []models.AirportSlot) []any {
	pairs := make([]any, 0, len(slots))
	for _, slot := range slots {
		pairs = append(pairs, []any{slot.Airport.Code, slot.Index})
	}
	return []any{pairs}
}

// airlineCodes sorts by carrier code without touching the caller's slice.
func airlineCodes(airlines []registry.Airline) []any {
	sorted := make([]registry.Airline, len(airlines))
	copy(sorted, airlines)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Code < sorted[j].Code })

	codes := make([]any, 0, len(sorted))
	for _, a := range sorted {
		codes = append(codes, a.Code)
	}
	return codes
}

func encode(payload []any) (string, error) {
	inner, err := marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error encoding filter payload: %w", err)
	}
	outer, err := marshal([]any{nil, string(inner)})
	if err != nil {
		return "", fmt.Errorf("error encoding filter wrapper: %w", err)
	}
	return percentEncode(string(outer)), nil
}

func marshal(v any) ([]byte, error) {
	return json.MarshalWithOption(v, json.DisableHTMLEscape())
}

// percentEncode escapes everything except unreserved characters and '/'.
func percentEncode(s string) string {
	escaped := url.QueryEscape(s)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	return strings.ReplaceAll(escaped, "%2F", "/")
}
