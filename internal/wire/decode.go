package wire

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"fli.dev/internal/models"
	"fli.dev/internal/registry"
)

// CodeResolver resolves response codes to registry values.
type CodeResolver interface {
	Airport(code string) (registry.Airport, error)
	AirlineByKey(key string) (registry.Airline, error)
}

// DecodeError reports a response that does not match the expected layout.
type DecodeError struct {
	Path string
	Msg  string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s: %s: %v", e.Path, e.Msg, e.Err)
	}
	return fmt.Sprintf("decode %s: %s", e.Path, e.Msg)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// DecodeSearch decodes a flight search response. A response without a
// payload returns (nil, nil). Any malformed itinerary fails the whole call.
func DecodeSearch(body []byte, codes CodeResolver) ([]models.FlightResult, error) {
	payload, err := unwrap(body)
	if err != nil || payload.v == nil {
		return nil, err
	}

	var results []models.FlightResult
	for _, slot := range flightSlots {
		group, ok := payload.opt(slot)
		if !ok {
			continue
		}
		entries, ok := group.opt(0)
		if !ok {
			continue
		}
		list, err := entries.list()
		if err != nil {
			return nil, err
		}
		for i := range list {
			result, err := decodeFlight(entries.child(i), codes)
			if err != nil {
				return nil, err
			}
			results = append(results, result)
		}
	}
	if results == nil {
		results = []models.FlightResult{}
	}
	return results, nil
}

func decodeFlight(entry cursor, codes CodeResolver) (models.FlightResult, error) {
	itin, err := entry.at(entryItinerary)
	if err != nil {
		return models.FlightResult{}, err
	}

	price, err := entry.path(entryPricing, 0, -1)
	if err != nil {
		return models.FlightResult{}, err
	}
	amount, err := price.float()
	if err != nil {
		return models.FlightResult{}, err
	}

	durationNode, err := itin.at(itinDuration)
	if err != nil {
		return models.FlightResult{}, err
	}
	duration, err := durationNode.int()
	if err != nil {
		return models.FlightResult{}, err
	}

	legsNode, err := itin.at(itinLegs)
	if err != nil {
		return models.FlightResult{}, err
	}
	rawLegs, err := legsNode.list()
	if err != nil {
		return models.FlightResult{}, err
	}
	if len(rawLegs) == 0 {
		return models.FlightResult{}, legsNode.fail("itinerary has no legs")
	}

	legs := make([]models.FlightLeg, 0, len(rawLegs))
	for i := range rawLegs {
		leg, err := decodeLeg(legsNode.child(i), codes)
		if err != nil {
			return models.FlightResult{}, err
		}
		legs = append(legs, leg)
	}

	return models.FlightResult{
		Legs:            legs,
		Price:           amount,
		DurationMinutes: duration,
		Stops:           len(legs) - 1,
	}, nil
}

func decodeLeg(fl cursor, codes CodeResolver) (models.FlightLeg, error) {
	var leg models.FlightLeg

	carrier, err := stringAt(fl, legFlight, flightCarrier)
	if err != nil {
		return leg, err
	}
	if leg.Airline, err = codes.AirlineByKey(registry.CarrierKey(carrier)); err != nil {
		return leg, fl.wrap("unresolved carrier", err)
	}
	if leg.FlightNumber, err = stringAt(fl, legFlight, flightNumber); err != nil {
		return leg, err
	}

	dep, err := stringAt(fl, legDepartureAirport)
	if err != nil {
		return leg, err
	}
	if leg.DepartureAirport, err = codes.Airport(dep); err != nil {
		return leg, fl.wrap("unresolved departure airport", err)
	}
	arr, err := stringAt(fl, legArrivalAirport)
	if err != nil {
		return leg, err
	}
	if leg.ArrivalAirport, err = codes.Airport(arr); err != nil {
		return leg, fl.wrap("unresolved arrival airport", err)
	}

	if leg.DepartureTime, err = dateTimeAt(fl, legDepartureDate, legDepartureTime); err != nil {
		return leg, err
	}
	if leg.ArrivalTime, err = dateTimeAt(fl, legArrivalDate, legArrivalTime); err != nil {
		return leg, err
	}

	durationNode, err := fl.at(legDuration)
	if err != nil {
		return leg, err
	}
	if leg.DurationMinutes, err = durationNode.int(); err != nil {
		return leg, err
	}
	return leg, nil
}

func stringAt(c cursor, path ...int) (string, error) {
	node, err := c.path(path...)
	if err != nil {
		return "", err
	}
	return node.str()
}

func dateTimeAt(fl cursor, dateSlot, timeSlot int) (time.Time, error) {
	date, err := fl.at(dateSlot)
	if err != nil {
		return time.Time{}, err
	}
	clock, err := fl.at(timeSlot)
	if err != nil {
		return time.Time{}, err
	}
	return parseDateTime(date, clock)
}

// parseDateTime builds a timestamp from a [year, month, day] and an
// [hour, minute] array. Null slots count as zero, but at least one slot across
// both arrays must be set and the result must be a real calendar time.
func parseDateTime(date, clock cursor) (time.Time, error) {
	d, dateSet, err := ints(date, 3)
	if err != nil {
		return time.Time{}, err
	}
	c, clockSet, err := ints(clock, 2)
	if err != nil {
		return time.Time{}, err
	}
	if !dateSet && !clockSet {
		return time.Time{}, date.fail("date and time arrays are all null")
	}

	year, month, day, hour, minute := d[0], d[1], d[2], c[0], c[1]
	if year < 1 || month < 1 || month > 12 || day < 1 || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, date.fail(fmt.Sprintf("invalid timestamp %v %v", d, c))
	}
	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, date.fail(fmt.Sprintf("invalid date %v", d))
	}
	return t, nil
}

// ints reads up to n integer slots; null or missing slots are zero. The bool
// reports whether any slot was set.
func ints(c cursor, n int) ([]int, bool, error) {
	out := make([]int, n)
	if c.null() {
		return out, false, nil
	}
	list, err := c.list()
	if err != nil {
		return nil, false, err
	}
	set := false
	for i := 0; i < n && i < len(list); i++ {
		child := c.child(i)
		if child.null() {
			continue
		}
		v, err := child.int()
		if err != nil {
			return nil, false, err
		}
		out[i] = v
		set = true
	}
	return out, set, nil
}

// DecodeCalendar decodes a calendar search response. Entries whose date or
// price cannot be read are skipped.
func DecodeCalendar(body []byte) ([]models.DatePrice, error) {
	payload, err := unwrap(body)
	if err != nil || payload.v == nil {
		return nil, err
	}

	list, err := payload.list()
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return []models.DatePrice{}, nil
	}
	days := payload.child(len(list) - 1)
	if days.null() {
		return []models.DatePrice{}, nil
	}
	entries, err := days.list()
	if err != nil {
		return nil, err
	}

	prices := make([]models.DatePrice, 0, len(entries))
	for i := range entries {
		if dp, ok := decodeDatePrice(days.child(i)); ok {
			prices = append(prices, dp)
		}
	}
	return prices, nil
}

func decodeDatePrice(entry cursor) (models.DatePrice, bool) {
	raw, err := stringAt(entry, calDate)
	if err != nil {
		return models.DatePrice{}, false
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		return models.DatePrice{}, false
	}
	node, err := entry.path(calPrices, calPriceEntry, calPriceValue)
	if err != nil {
		return models.DatePrice{}, false
	}
	price, err := node.float()
	if err != nil {
		return models.DatePrice{}, false
	}
	return models.DatePrice{Date: date, Price: price}, true
}

// unwrap strips the anti-hijacking prefix and parses the embedded payload
// string. A null or empty payload yields a cursor over nil.
func unwrap(body []byte) (cursor, error) {
	trimmed := bytes.TrimLeft(body, antiHijackPrefix)

	var outer any
	if err := json.Unmarshal(trimmed, &outer); err != nil {
		return cursor{}, &DecodeError{Path: "$", Msg: "response is not JSON", Err: err}
	}

	frame, err := cursor{v: outer, loc: "$"}.at(envelopeFrame)
	if err != nil {
		return cursor{}, err
	}
	inner, ok := frame.opt(envelopePayload)
	if !ok || inner.null() {
		return cursor{}, nil
	}
	raw, err := inner.str()
	if err != nil {
		return cursor{}, err
	}
	if raw == "" {
		return cursor{}, nil
	}

	var payload any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return cursor{}, &DecodeError{Path: inner.loc, Msg: "embedded payload is not JSON", Err: err}
	}
	return cursor{v: payload, loc: "payload"}, nil
}

// cursor is a position inside a decoded JSON document that remembers how it
// was reached, so errors can name the offending path.
type cursor struct {
	v   any
	loc string
}

func (c cursor) null() bool {
	return c.v == nil
}

func (c cursor) fail(msg string) *DecodeError {
	return &DecodeError{Path: c.loc, Msg: msg}
}

func (c cursor) wrap(msg string, err error) *DecodeError {
	return &DecodeError{Path: c.loc, Msg: msg, Err: err}
}

func (c cursor) list() ([]any, error) {
	list, ok := c.v.([]any)
	if !ok {
		return nil, c.fail(fmt.Sprintf("expected array, got %s", kind(c.v)))
	}
	return list, nil
}

// child assumes i is in range of c's list.
func (c cursor) child(i int) cursor {
	list, _ := c.v.([]any)
	return cursor{v: list[i], loc: c.loc + "[" + strconv.Itoa(i) + "]"}
}

// at indexes into an array; negative indexes count from the end.
func (c cursor) at(i int) (cursor, error) {
	list, err := c.list()
	if err != nil {
		return cursor{}, err
	}
	if i < 0 {
		i += len(list)
	}
	if i < 0 || i >= len(list) {
		return cursor{}, c.fail(fmt.Sprintf("index %d out of range (len %d)", i, len(list)))
	}
	return c.child(i), nil
}

// opt is like at but treats a missing or null slot as absent.
func (c cursor) opt(i int) (cursor, bool) {
	child, err := c.at(i)
	if err != nil || child.null() {
		return cursor{}, false
	}
	return child, true
}

func (c cursor) path(indexes ...int) (cursor, error) {
	cur := c
	for _, i := range indexes {
		next, err := cur.at(i)
		if err != nil {
			return cursor{}, err
		}
		cur = next
	}
	return cur, nil
}

func (c cursor) str() (string, error) {
	s, ok := c.v.(string)
	if !ok {
		return "", c.fail(fmt.Sprintf("expected string, got %s", kind(c.v)))
	}
	return s, nil
}

func (c cursor) float() (float64, error) {
	f, ok := c.v.(float64)
	if !ok {
		return 0, c.fail(fmt.Sprintf("expected number, got %s", kind(c.v)))
	}
	return f, nil
}

func (c cursor) int() (int, error) {
	f, err := c.float()
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, c.fail(fmt.Sprintf("expected integer, got %v", f))
	}
	return int(f), nil
}

func kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "bool"
	default:
		return fmt.Sprintf("%T", v)
	}
}
