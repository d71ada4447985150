package utils

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8", "192.0.2.1"})
	require.NoError(t, err)

	testCases := []struct {
		name       string
		remoteAddr string
		forwarded  string
		trusted    []netip.Prefix
		want       string
	}{
		{name: "socket address", remoteAddr: "10.0.0.7:5123", want: "10.0.0.7"},
		{name: "forwarded header ignored without proxies", remoteAddr: "198.51.100.4:5123", forwarded: "203.0.113.9", want: "198.51.100.4"},
		{name: "forwarded header ignored from untrusted peer", remoteAddr: "198.51.100.4:5123", forwarded: "203.0.113.9", trusted: trusted, want: "198.51.100.4"},
		{name: "trusted proxy", remoteAddr: "10.0.0.7:5123", forwarded: "203.0.113.9", trusted: trusted, want: "203.0.113.9"},
		{name: "spoofed left-most entry", remoteAddr: "10.0.0.7:5123", forwarded: "1.2.3.4, 203.0.113.9, 10.0.0.1", trusted: trusted, want: "203.0.113.9"},
		{name: "only proxies forwarded", remoteAddr: "192.0.2.1:80", forwarded: " ,10.0.0.1", trusted: trusted, want: "192.0.2.1"},
		{name: "address without port", remoteAddr: "local", want: "local"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			assert.Equal(t, tc.want, ClientIP(req, tc.trusted))
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	prefixes, err := ParseTrustedProxies([]string{"10.1.2.3/8", " 192.0.2.1 ", "", "::1"})
	require.NoError(t, err)
	require.Len(t, prefixes, 3)
	assert.Equal(t, "10.0.0.0/8", prefixes[0].String())
	assert.Equal(t, "192.0.2.1/32", prefixes[1].String())
	assert.Equal(t, "::1/128", prefixes[2].String())

	_, err = ParseTrustedProxies([]string{"proxy.internal"})
	assert.Error(t, err)
	_, err = ParseTrustedProxies([]string{"10.0.0.0/40"})
	assert.Error(t, err)
}

func TestParseDateParam(t *testing.T) {
	params := url.Values{"date": {"2025-07-01"}, "bad": {"tomorrow"}}

	d, fieldErrors := ParseDateParam(params, "date", nil)
	assert.Empty(t, fieldErrors)
	assert.Equal(t, "2025-07-01", d.String())

	_, fieldErrors = ParseDateParam(params, "bad", fieldErrors)
	assert.Equal(t, []string{`Invalid field value for field "bad".`}, fieldErrors["bad"])

	_, fieldErrors = ParseDateParam(params, "missing", fieldErrors)
	assert.Len(t, fieldErrors, 2)
}

func TestParseAirportParam(t *testing.T) {
	params := url.Values{"origin": {"jfk"}, "destination": {"LA"}}

	code, fieldErrors := ParseAirportParam(params, "origin", nil)
	assert.Equal(t, "JFK", code)
	assert.Empty(t, fieldErrors)

	_, fieldErrors = ParseAirportParam(params, "destination", fieldErrors)
	assert.Contains(t, fieldErrors, "destination")
}
