package restapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fli.dev/faredb"
	"fli.dev/internal/app"
	"fli.dev/internal/appconf"
	"fli.dev/internal/registry"
	"fli.dev/internal/search"
	"fli.dev/internal/transport"
)

var fixedNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	api      *RestAPI
	handler  http.Handler
	upstream *httptest.Server
}

type envOption func(*appconf.Config)

func withDB(cfg *appconf.Config) { cfg.DBPath = ":memory:" }

func withAPIKeys(keys ...string) envOption {
	return func(cfg *appconf.Config) { cfg.APIKeys = keys }
}

func withAPIRateLimit(n int) envOption {
	return func(cfg *appconf.Config) { cfg.APIRateLimit = n }
}

func withTrustedProxies(proxies ...string) envOption {
	return func(cfg *appconf.Config) { cfg.TrustedProxies = proxies }
}

// newTestEnv builds the API against a fake upstream answering every request
// with status and body.
func newTestEnv(t *testing.T, status int, body string, opts ...envOption) *testEnv {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(upstream.Close)

	cfg := appconf.Default()
	cfg.Env = appconf.Test
	cfg.APIRateLimit = -1
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg, err := registry.Default()
	require.NoError(t, err)

	application := &app.Application{Config: cfg, Logger: logger, Registry: reg}

	var recorder search.FareRecorder
	if cfg.DBPath != "" {
		db, err := faredb.NewClient(faredb.NewConfig(cfg.DBPath, cfg.Env, logger))
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		application.FareDB = db
		recorder = db
	}

	session := transport.NewSession(transport.Config{RateLimit: -1}, logger)
	fast := func(p transport.RetryPolicy) *transport.Client {
		p.BaseDelay = time.Millisecond
		p.MaxDelay = time.Millisecond
		return session.Client(p)
	}
	now := func() time.Time { return fixedNow }
	application.Flights = search.NewFlightSearch(fast(transport.FlightSearchPolicy()), reg,
		search.Options{URL: upstream.URL, Logger: logger, Now: now})
	application.Dates = search.NewDateSearch(fast(transport.CalendarSearchPolicy()), recorder,
		search.Options{URL: upstream.URL, Logger: logger, Now: now})

	api := NewRestAPI(application)
	t.Cleanup(api.Close)
	return &testEnv{api: api, handler: api.Handler(), upstream: upstream}
}

func (e *testEnv) do(t *testing.T, method, target string, body any, headers ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	return e.doFrom(t, "", method, target, body, headers...)
}

// doFrom is do with the request arriving from remoteAddr. An empty address
// keeps the httptest default.
func (e *testEnv) doFrom(t *testing.T, remoteAddr, method, target string, body any, headers ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Header().Get("Content-Encoding") == "" && rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

// envelope frames payload the way the shopping service does.
func envelope(t *testing.T, payload any) string {
	t.Helper()
	inner, err := json.Marshal(payload)
	require.NoError(t, err)
	outer, err := json.Marshal([]any{[]any{"wrb.fr", nil, string(inner)}})
	require.NoError(t, err)
	return ")]}'\n\n" + string(outer)
}

func rawLeg(carrier, number, dep, arr string, depHour, arrHour int) []any {
	l := make([]any, 23)
	l[3] = dep
	l[6] = arr
	l[8] = []any{depHour, 15}
	l[10] = []any{arrHour, 45}
	l[11] = (arrHour-depHour)*60 + 30
	l[20] = []any{2025, 7, 1}
	l[21] = []any{2025, 7, 1}
	l[22] = []any{carrier, number}
	return l
}

func flightsBody(t *testing.T, n int) string {
	t.Helper()
	itineraries := make([]any, 0, n)
	for i := 0; i < n; i++ {
		itin := make([]any, 10)
		itin[2] = []any{rawLeg("AA", strconv.Itoa(100+i), "JFK", "LAX", 6+i%10, 9+i%10)}
		itin[9] = 210
		itineraries = append(itineraries, []any{itin, []any{[]any{nil, 150.0 + float64(i)}}})
	}
	payload := make([]any, 4)
	payload[2] = []any{itineraries}
	return envelope(t, payload)
}

func calendarBody(t *testing.T) string {
	t.Helper()
	return envelope(t, []any{nil, nil, []any{
		[]any{"2025-07-04", nil, []any{[]any{nil, 310.0}}}, // Friday
		[]any{"2025-07-05", nil, []any{[]any{nil, 120.0}}}, // Saturday
		[]any{"2025-07-07", nil, []any{[]any{nil, 180.0}}}, // Monday
		[]any{"2025-07-11", nil, []any{[]any{nil, 95.0}}},  // Friday
	}})
}

const noResultsBody = ")]}'\n[[\"wrb.fr\",null,null]]"

func flightRequest() map[string]any {
	return map[string]any{
		"passenger_info": map[string]any{"adults": 1},
		"flight_segments": []any{map[string]any{
			"departure_airport": []string{"JFK"},
			"arrival_airport":   []string{"LAX"},
			"travel_date":       "2025-07-01",
		}},
		"seat_type": "ECONOMY",
		"stops":     "NON_STOP",
		"sort_by":   "CHEAPEST",
	}
}

func dateRequest() map[string]any {
	req := flightRequest()
	delete(req, "sort_by")
	req["from_date"] = "2025-07-01"
	req["to_date"] = "2025-07-31"
	return req
}

func fieldErrors(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	fe, ok := body["fieldErrors"].(map[string]any)
	require.True(t, ok, "response has no fieldErrors: %v", body)
	return fe
}

func listOf(t *testing.T, body map[string]any) []any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "response has no data: %v", body)
	list, ok := data["list"].([]any)
	require.True(t, ok)
	require.Equal(t, float64(len(list)), data["count"])
	return list
}
