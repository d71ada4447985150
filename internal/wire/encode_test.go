package wire

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fli.dev/internal/models"
	"fli.dev/internal/registry"
)

var (
	jfk = registry.Airport{Code: "JFK"}
	lax = registry.Airport{Code: "LAX"}
	sfo = registry.Airport{Code: "SFO"}
	phx = registry.Airport{Code: "PHX"}
)

func christmasSearch() models.SearchFilters {
	return models.SearchFilters{
		Criteria: models.Criteria{
			TripType:   models.OneWay,
			Passengers: models.PassengerInfo{Adults: 1},
			Segments:   []models.FlightSegment{models.NewSegment(jfk, lax, models.NewDate(2025, time.December, 25))},
			Stops:      models.NonStop,
			SeatType:   models.Economy,
		},
		SortBy: models.SortCheapest,
	}
}

// innerJSON reverses the percent-encoding and the outer wrapper.
func innerJSON(t *testing.T, encoded string) string {
	t.Helper()
	unescaped, err := url.QueryUnescape(encoded)
	require.NoError(t, err)

	var wrapper []any
	require.NoError(t, json.Unmarshal([]byte(unescaped), &wrapper))
	require.Len(t, wrapper, 2)
	assert.Nil(t, wrapper[0])
	inner, ok := wrapper[1].(string)
	require.True(t, ok, "wrapper[1] should be a JSON string")
	return inner
}

func decodedPayload(t *testing.T, encoded string) []any {
	t.Helper()
	var payload []any
	require.NoError(t, json.Unmarshal([]byte(innerJSON(t, encoded)), &payload))
	return payload
}

func TestEncodeSearchExactPayload(t *testing.T) {
	encoded, err := EncodeSearch(christmasSearch())
	require.NoError(t, err)

	want := `[[],[null,null,2,null,[],1,[1,0,0,0],null,null,null,null,null,null,` +
		`[[[[["JFK",0]]],[[["LAX",0]]],null,1,null,null,"2025-12-25",null,null,null,null,null,null,null,3]],` +
		`null,null,null,1],2,0,0,2]`
	assert.Equal(t, want, innerJSON(t, encoded))
	assert.True(t, strings.HasPrefix(encoded, "%5Bnull%2C%22%5B%5B%5D%2C%5Bnull%2Cnull%2C2"), encoded)
	assert.NotContains(t, encoded, "+")
	assert.NotContains(t, encoded, " ")
}

func TestEncodeSearchStopAndCabinCodes(t *testing.T) {
	encoded, err := EncodeSearch(christmasSearch())
	require.NoError(t, err)

	payload := decodedPayload(t, encoded)
	require.Len(t, payload, 6)
	options := payload[1].([]any)
	require.Len(t, options, optionSlots)
	assert.Equal(t, float64(models.Economy.Code()), options[optSeatType])

	segments := options[optSegments].([]any)
	require.Len(t, segments, 1)
	segment := segments[0].([]any)
	require.Len(t, segment, segmentSlots)
	assert.Equal(t, float64(models.NonStop.Code()), segment[segStops])
	assert.Equal(t, "2025-12-25", segment[segTravelDate])
	assert.Equal(t, float64(models.SortCheapest.Code()), payload[2])
}

func TestEncodeSearchDeterministic(t *testing.T) {
	f := christmasSearch()
	f.Airlines = []registry.Airline{{Code: "UA"}, {Code: "3U"}, {Code: "AA"}}
	f.Segments[0].TimeRestrictions = models.DepartureWindow(6, 20)
	f.PriceLimit = &models.PriceLimit{MaxPrice: 450}

	first, err := EncodeSearch(f)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := EncodeSearch(f)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestEncodePassengerOrder(t *testing.T) {
	f := christmasSearch()
	f.Passengers = models.PassengerInfo{Adults: 2, Children: 3, InfantsInSeat: 4, InfantsOnLap: 5}

	encoded, err := EncodeSearch(f)
	require.NoError(t, err)

	options := decodedPayload(t, encoded)[1].([]any)
	assert.Equal(t, []any{2.0, 3.0, 5.0, 4.0}, options[optPassengers])
}

func TestEncodeAirlinesSortedByCode(t *testing.T) {
	f := christmasSearch()
	f.Airlines = []registry.Airline{{Code: "UA"}, {Code: "DL"}, {Code: "3U"}, {Code: "AA"}}

	encoded, err := EncodeSearch(f)
	require.NoError(t, err)

	segment := decodedPayload(t, encoded)[1].([]any)[optSegments].([]any)[0].([]any)
	assert.Equal(t, []any{"3U", "AA", "DL", "UA"}, segment[segAirlines])
	assert.Equal(t, "UA", f.Airlines[0].Code, "caller's slice is not reordered")
}

func TestEncodeOptionalSlots(t *testing.T) {
	f := christmasSearch()
	f.Segments[0].TimeRestrictions = &models.TimeRestrictions{
		EarliestDeparture: intPtr(6),
		LatestArrival:     intPtr(22),
	}
	f.PriceLimit = &models.PriceLimit{MaxPrice: 300}
	f.MaxDuration = intPtr(600)
	f.Layover = &models.LayoverRestrictions{
		Airports:    []registry.Airport{phx, sfo},
		MaxDuration: intPtr(90),
	}

	encoded, err := EncodeSearch(f)
	require.NoError(t, err)

	options := decodedPayload(t, encoded)[1].([]any)
	assert.Equal(t, []any{nil, 300.0}, options[optPriceLimit])
	assert.Equal(t, []any{}, options[optReserved])

	segment := options[optSegments].([]any)[0].([]any)
	assert.Equal(t, []any{6.0, nil, nil, 22.0}, segment[segTimes])
	assert.Equal(t, []any{600.0}, segment[segMaxDuration])
	assert.Equal(t, []any{"PHX", "SFO"}, segment[segLayoverAirports])
	assert.Equal(t, 90.0, segment[segLayoverDuration])
	assert.Nil(t, segment[segEmissions])
	assert.Equal(t, float64(segmentTag), segment[segTag])
}

func TestEncodeUnsetSlotsStayNull(t *testing.T) {
	f := christmasSearch()
	f.MaxDuration = intPtr(0)

	encoded, err := EncodeSearch(f)
	require.NoError(t, err)

	options := decodedPayload(t, encoded)[1].([]any)
	assert.Nil(t, options[optPriceLimit])
	segment := options[optSegments].([]any)[0].([]any)
	for _, slot := range []int{segTimes, segAirlines, 5, segMaxDuration, 8, segLayoverAirports, 10, 11, segLayoverDuration, segEmissions} {
		assert.Nil(t, segment[slot], "slot %d", slot)
	}
}

func TestEncodeMultiAirportGroups(t *testing.T) {
	f := christmasSearch()
	f.Segments[0].DepartureAirports = []models.AirportSlot{{Airport: jfk}, {Airport: registry.Airport{Code: "EWR"}, Index: 1}}

	encoded, err := EncodeSearch(f)
	require.NoError(t, err)

	segment := decodedPayload(t, encoded)[1].([]any)[optSegments].([]any)[0].([]any)
	assert.Equal(t, []any{[]any{[]any{"JFK", 0.0}, []any{"EWR", 1.0}}}, segment[segDeparture])
}

func TestEncodeCalendar(t *testing.T) {
	f := models.DateRangeFilters{
		Criteria: christmasSearch().Criteria,
		FromDate: models.NewDate(2025, time.December, 1),
		ToDate:   models.NewDate(2025, time.December, 31),
	}

	encoded, err := EncodeCalendar(f)
	require.NoError(t, err)

	payload := decodedPayload(t, encoded)
	require.Len(t, payload, 3)
	assert.Nil(t, payload[0])
	assert.Equal(t, []any{"2025-12-01", "2025-12-31"}, payload[2])
	assert.Equal(t, 1.0, payload[1].([]any)[optTag])

	again, err := EncodeCalendar(f)
	require.NoError(t, err)
	assert.Equal(t, encoded, again)
}

func TestPercentEncode(t *testing.T) {
	assert.Equal(t, "a%20b/c%2Bd~e_f.g-h%3C", percentEncode("a b/c+d~e_f.g-h<"))
}

func TestFormBody(t *testing.T) {
	assert.Equal(t, "f.req=abc", FormBody("abc"))
}

func intPtr(v int) *int { return &v }
