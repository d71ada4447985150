package wire

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fli.dev/internal/registry"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.Default()
	require.NoError(t, err)
	return reg
}

// envelope builds a response body carrying payload the way the service does.
func envelope(t *testing.T, payload any) []byte {
	t.Helper()
	inner, err := json.Marshal(payload)
	require.NoError(t, err)
	outer, err := json.Marshal([]any{[]any{"wrb.fr", nil, string(inner)}})
	require.NoError(t, err)
	return append([]byte(")]}'\n\n"), outer...)
}

func leg(carrier, number, dep, arr string, depDate, depTime, arrDate, arrTime []any, minutes int) []any {
	fl := make([]any, 23)
	fl[legDepartureAirport] = dep
	fl[legArrivalAirport] = arr
	fl[legDepartureTime] = depTime
	fl[legArrivalTime] = arrTime
	fl[legDuration] = minutes
	fl[legDepartureDate] = depDate
	fl[legArrivalDate] = arrDate
	fl[legFlight] = []any{carrier, number}
	return fl
}

func itinerary(price float64, minutes int, legs ...[]any) []any {
	itin := make([]any, 10)
	rawLegs := make([]any, 0, len(legs))
	for _, l := range legs {
		rawLegs = append(rawLegs, l)
	}
	itin[itinLegs] = rawLegs
	itin[itinDuration] = minutes
	return []any{itin, []any{[]any{nil, price}}}
}

func flightPayload(primary, other []any) []any {
	payload := make([]any, 4)
	if primary != nil {
		payload[2] = []any{primary}
	}
	if other != nil {
		payload[3] = []any{other}
	}
	return payload
}

func TestDecodeSearch(t *testing.T) {
	reg := testRegistry(t)

	direct := itinerary(129, 330,
		leg("AA", "1", "JFK", "LAX", []any{2025, 3, 1}, []any{8, 30}, []any{2025, 3, 1}, []any{11, 0}, 330))
	connecting := itinerary(99.5, 420,
		leg("3U", "8661", "JFK", "PHX", []any{2025, 3, 1}, []any{nil, 30}, []any{2025, 3, 1}, []any{4, 10}, 280),
		leg("DL", "402", "PHX", "LAX", []any{2025, 3, 1}, []any{5, 0}, []any{2025, 3, 1}, []any{6, 20}, 80))

	body := envelope(t, flightPayload([]any{direct}, []any{connecting}))
	results, err := DecodeSearch(body, reg)
	require.NoError(t, err)
	require.Len(t, results, 2)

	first := results[0]
	assert.Equal(t, 129.0, first.Price)
	assert.Equal(t, 330, first.DurationMinutes)
	require.Len(t, first.Legs, 1)
	assert.Equal(t, "AA", first.Legs[0].Airline.Code)
	assert.Equal(t, "1", first.Legs[0].FlightNumber)
	assert.Equal(t, "JFK", first.Legs[0].DepartureAirport.Code)
	assert.Equal(t, "LAX", first.Legs[0].ArrivalAirport.Code)
	assert.Equal(t, time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC), first.Legs[0].DepartureTime)
	assert.Equal(t, time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC), first.Legs[0].ArrivalTime)

	second := results[1]
	assert.Equal(t, 99.5, second.Price)
	require.Len(t, second.Legs, 2)
	assert.Equal(t, "3U", second.Legs[0].Airline.Code)
	assert.Equal(t, "Sichuan Airlines", second.Legs[0].Airline.Name)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 30, 0, 0, time.UTC), second.Legs[0].DepartureTime)

	for _, r := range results {
		assert.Equal(t, len(r.Legs)-1, r.Stops)
	}
}

func TestDecodeSearchOnlyOtherSlot(t *testing.T) {
	reg := testRegistry(t)
	other := itinerary(80, 60,
		leg("UA", "9", "SFO", "LAX", []any{2025, 3, 2}, []any{9, 0}, []any{2025, 3, 2}, []any{10, 0}, 60))

	results, err := DecodeSearch(envelope(t, flightPayload(nil, []any{other})), reg)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Stops)
}

func TestDecodeSearchRegionalConnection(t *testing.T) {
	reg := testRegistry(t)
	regional := itinerary(214, 345,
		leg("OO", "5512", "OAK", "DEN", []any{2025, 3, 3}, []any{6, 15}, []any{2025, 3, 3}, []any{9, 40}, 145),
		leg("MQ", "3310", "DEN", "BNA", []any{2025, 3, 3}, []any{10, 30}, []any{2025, 3, 3}, []any{14, 0}, 150))

	results, err := DecodeSearch(envelope(t, flightPayload([]any{regional}, nil)), reg)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Legs, 2)
	assert.Equal(t, "SkyWest Airlines", results[0].Legs[0].Airline.Name)
	assert.Equal(t, "Oakland San Francisco Bay Airport", results[0].Legs[0].DepartureAirport.Name)
	assert.Equal(t, "Envoy Air", results[0].Legs[1].Airline.Name)
	assert.Equal(t, "Nashville International Airport", results[0].Legs[1].ArrivalAirport.Name)
	assert.Equal(t, 1, results[0].Stops)
}

func TestDecodeSearchNoResults(t *testing.T) {
	reg := testRegistry(t)

	t.Run("null payload", func(t *testing.T) {
		body := []byte(`)]}'` + "\n" + `[["wrb.fr",null,null]]`)
		results, err := DecodeSearch(body, reg)
		require.NoError(t, err)
		assert.Nil(t, results)
	})

	t.Run("empty payload string", func(t *testing.T) {
		body := []byte(`)]}'[["wrb.fr",null,""]]`)
		results, err := DecodeSearch(body, reg)
		require.NoError(t, err)
		assert.Nil(t, results)
	})

	t.Run("payload without itineraries", func(t *testing.T) {
		results, err := DecodeSearch(envelope(t, flightPayload(nil, nil)), reg)
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})
}

func TestDecodeSearchFailures(t *testing.T) {
	reg := testRegistry(t)
	good := itinerary(100, 60,
		leg("AA", "1", "JFK", "LAX", []any{2025, 3, 1}, []any{8, 0}, []any{2025, 3, 1}, []any{9, 0}, 60))

	t.Run("unknown carrier aborts the batch", func(t *testing.T) {
		bad := itinerary(100, 60,
			leg("0Q", "1", "JFK", "LAX", []any{2025, 3, 1}, []any{8, 0}, []any{2025, 3, 1}, []any{9, 0}, 60))
		_, err := DecodeSearch(envelope(t, flightPayload([]any{good, bad}, nil)), reg)

		var unknown *registry.UnknownCodeError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "0Q", unknown.Code)
		var decodeErr *DecodeError
		assert.True(t, errors.As(err, &decodeErr))
	})

	t.Run("unknown airport", func(t *testing.T) {
		bad := itinerary(100, 60,
			leg("AA", "1", "ZZZ", "LAX", []any{2025, 3, 1}, []any{8, 0}, []any{2025, 3, 1}, []any{9, 0}, 60))
		_, err := DecodeSearch(envelope(t, flightPayload([]any{bad}, nil)), reg)
		var unknown *registry.UnknownCodeError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "airport", unknown.Kind)
	})

	t.Run("all-null timestamp", func(t *testing.T) {
		bad := itinerary(100, 60,
			leg("AA", "1", "JFK", "LAX", []any{nil, nil, nil}, []any{nil, nil}, []any{2025, 3, 1}, []any{9, 0}, 60))
		_, err := DecodeSearch(envelope(t, flightPayload([]any{good}, []any{bad})), reg)
		var decodeErr *DecodeError
		require.True(t, errors.As(err, &decodeErr))
	})

	t.Run("missing price", func(t *testing.T) {
		bad := itinerary(100, 60,
			leg("AA", "1", "JFK", "LAX", []any{2025, 3, 1}, []any{8, 0}, []any{2025, 3, 1}, []any{9, 0}, 60))
		bad[entryPricing] = []any{[]any{}}
		_, err := DecodeSearch(envelope(t, flightPayload([]any{bad}, nil)), reg)
		var decodeErr *DecodeError
		require.True(t, errors.As(err, &decodeErr))
		assert.Contains(t, decodeErr.Path, "payload[2][0][0][1][0]")
	})

	t.Run("not JSON", func(t *testing.T) {
		_, err := DecodeSearch([]byte(")]}'<html>"), reg)
		var decodeErr *DecodeError
		require.True(t, errors.As(err, &decodeErr))
		assert.Equal(t, "$", decodeErr.Path)
	})

	t.Run("embedded payload not JSON", func(t *testing.T) {
		_, err := DecodeSearch([]byte(`)]}'[["wrb.fr",null,"{oops"]]`), reg)
		var decodeErr *DecodeError
		require.True(t, errors.As(err, &decodeErr))
	})
}

func parseCursors(t *testing.T, date, clock string) (cursor, cursor) {
	t.Helper()
	var d, c any
	require.NoError(t, json.Unmarshal([]byte(date), &d))
	require.NoError(t, json.Unmarshal([]byte(clock), &c))
	return cursor{v: d, loc: "date"}, cursor{v: c, loc: "time"}
}

func TestParseDateTime(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		clock   string
		want    time.Time
		wantErr bool
	}{
		{name: "null hour counts as zero", date: `[2025,3,1]`, clock: `[null,30]`, want: time.Date(2025, 3, 1, 0, 30, 0, 0, time.UTC)},
		{name: "full timestamp", date: `[2025,12,25]`, clock: `[23,59]`, want: time.Date(2025, 12, 25, 23, 59, 0, 0, time.UTC)},
		{name: "null clock array is midnight", date: `[2025,1,2]`, clock: `null`, want: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
		{name: "all slots null", date: `[null,null,null]`, clock: `[null,null]`, wantErr: true},
		{name: "zero month", date: `[2025,null,1]`, clock: `[1,0]`, wantErr: true},
		{name: "impossible day", date: `[2025,2,30]`, clock: `[1,0]`, wantErr: true},
		{name: "non-numeric slot", date: `[2025,"3",1]`, clock: `[1,0]`, wantErr: true},
		{name: "fractional slot", date: `[2025,3,1.5]`, clock: `[1,0]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, clock := parseCursors(t, tt.date, tt.clock)
			got, err := parseDateTime(date, clock)
			if tt.wantErr {
				var decodeErr *DecodeError
				assert.True(t, errors.As(err, &decodeErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func calendarPayload(entries ...any) []any {
	return []any{nil, "meta", entries}
}

func TestDecodeCalendar(t *testing.T) {
	body := envelope(t, calendarPayload(
		[]any{"2025-03-01", nil, []any{[]any{nil, 120.0}}},
		[]any{"2025-03-02", nil, []any{}},
		[]any{"2025-03-03", nil, []any{[]any{nil}}},
		[]any{"2025-03-04", nil, []any{[]any{nil, "cheap"}}},
		[]any{"not-a-date", nil, []any{[]any{nil, 50.0}}},
		[]any{"2025-03-05"},
		[]any{"2025-03-06", nil, []any{[]any{nil, 87}}},
	))

	prices, err := DecodeCalendar(body)
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, "2025-03-01", prices[0].Date.String())
	assert.Equal(t, 120.0, prices[0].Price)
	assert.Equal(t, "2025-03-06", prices[1].Date.String())
	assert.Equal(t, 87.0, prices[1].Price)
}

func TestDecodeCalendarTruncatedPriceIsSkipped(t *testing.T) {
	body := envelope(t, calendarPayload([]any{"2025-03-02", nil, []any{}}))
	prices, err := DecodeCalendar(body)
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestDecodeCalendarNoResults(t *testing.T) {
	prices, err := DecodeCalendar([]byte(`)]}'[["wrb.fr",null,null]]`))
	require.NoError(t, err)
	assert.Nil(t, prices)

	prices, err = DecodeCalendar(envelope(t, []any{nil, nil}))
	require.NoError(t, err)
	assert.Empty(t, prices)
}
