package registry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "JFK", Key(" jfk "))
	assert.Equal(t, "A_B", Key("a-b"))
	assert.Equal(t, "_3U", CarrierKey("3u"))
	assert.Equal(t, "BA", CarrierKey("BA"))
	assert.Equal(t, "", CarrierKey(""))
}

func TestDefaultRegistry(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	t.Run("resolves airports case-insensitively", func(t *testing.T) {
		jfk, err := reg.Airport("jfk")
		require.NoError(t, err)
		assert.Equal(t, "JFK", jfk.Code)
		assert.Equal(t, "John F. Kennedy International Airport", jfk.Name)
	})

	t.Run("resolves digit-leading carriers", func(t *testing.T) {
		su, err := reg.Airline("3U")
		require.NoError(t, err)
		assert.Equal(t, "3U", su.Code)
		assert.Equal(t, "Sichuan Airlines", su.Name)

		byKey, err := reg.AirlineByKey("_3U")
		require.NoError(t, err)
		assert.Equal(t, su, byKey)
	})

	t.Run("unknown codes are hard errors", func(t *testing.T) {
		_, err := reg.Airport("ZZZ")
		var unknown *UnknownCodeError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "airport", unknown.Kind)
		assert.Equal(t, "ZZZ", unknown.Code)

		_, err = reg.Airline("0Q")
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "airline", unknown.Kind)
		assert.Equal(t, "0Q", unknown.Code)
	})

	t.Run("listings are sorted", func(t *testing.T) {
		airports := reg.Airports()
		require.NotEmpty(t, airports)
		for i := 1; i < len(airports); i++ {
			assert.Less(t, airports[i-1].Code, airports[i].Code)
		}
		airlines := reg.Airlines()
		require.NotEmpty(t, airlines)
		assert.Equal(t, "0A", airlines[0].Code)
	})
}

func TestDefaultTablesCoverRegionalTraffic(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	carriers := map[string]string{
		"OO": "SkyWest Airlines",
		"MQ": "Envoy Air",
		"9E": "Endeavor Air",
		"OH": "PSA Airlines",
		"YX": "Republic Airways",
	}
	for code, name := range carriers {
		a, err := reg.Airline(code)
		if assert.NoError(t, err, code) {
			assert.Equal(t, name, a.Name)
		}
	}

	airports := map[string]string{
		"BNA": "Nashville International Airport",
		"OAK": "Oakland San Francisco Bay Airport",
		"BOI": "Boise Airport",
		"GRR": "Gerald R. Ford International Airport",
		"ZQN": "Queenstown Airport",
	}
	for code, name := range airports {
		a, err := reg.Airport(code)
		if assert.NoError(t, err, code) {
			assert.Equal(t, name, a.Name)
		}
	}

	assert.Greater(t, len(reg.Airports()), 1000)
	assert.Greater(t, len(reg.Airlines()), 500)
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New([]Airport{{Code: "JFK"}, {Code: "jfk"}}, nil)
	assert.Error(t, err)

	_, err = New(nil, []Airline{{Code: "3U"}, {Code: "3u"}})
	assert.Error(t, err)
}

func TestReadTables(t *testing.T) {
	t.Run("reads columns by header name", func(t *testing.T) {
		airports, err := ReadAirports(strings.NewReader("Name,Code\nSomewhere,abc\nNowhere,\n"))
		require.NoError(t, err)
		require.Len(t, airports, 1)
		assert.Equal(t, Airport{Code: "ABC", Name: "Somewhere"}, airports[0])
	})

	t.Run("missing column", func(t *testing.T) {
		_, err := ReadAirlines(strings.NewReader("Code,Name\nBA,British Airways\n"))
		assert.Error(t, err)
	})

	t.Run("empty table", func(t *testing.T) {
		_, err := ReadAirports(strings.NewReader(""))
		assert.Error(t, err)
	})
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()
	airportsPath := filepath.Join(dir, "airports.csv")
	require.NoError(t, os.WriteFile(airportsPath, []byte("Code,Name\nXXA,Test Field\n"), 0o600))

	reg, err := Load(airportsPath, "")
	require.NoError(t, err)

	_, err = reg.Airport("XXA")
	require.NoError(t, err)
	_, err = reg.Airport("JFK")
	assert.Error(t, err, "custom airport table replaces the embedded one")

	_, err = reg.Airline("BA")
	assert.NoError(t, err, "airlines fall back to the embedded table")

	_, err = Load(filepath.Join(dir, "missing.csv"), "")
	assert.Error(t, err)
}

func TestConcurrentLookups(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = reg.Airport("LAX")
				_, _ = reg.Airline("6E")
			}
		}()
	}
	wg.Wait()
}
