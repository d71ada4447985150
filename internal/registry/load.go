package registry

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

//go:embed data/airports.csv
var embeddedAirports []byte

//go:embed data/airlines.csv
var embeddedAirlines []byte

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Default returns the registry built from the embedded code tables.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = fromReaders(bytes.NewReader(embeddedAirports), bytes.NewReader(embeddedAirlines))
	})
	return defaultRegistry, defaultErr
}

// Load builds a registry from CSV files on disk. An empty path falls back to
// the embedded table for that kind.
func Load(airportsPath, airlinesPath string) (*Registry, error) {
	if airportsPath == "" && airlinesPath == "" {
		return Default()
	}

	var airportsSrc io.Reader = bytes.NewReader(embeddedAirports)
	if airportsPath != "" {
		b, err := os.ReadFile(airportsPath)
		if err != nil {
			return nil, fmt.Errorf("error reading airports table: %w", err)
		}
		airportsSrc = bytes.NewReader(b)
	}

	var airlinesSrc io.Reader = bytes.NewReader(embeddedAirlines)
	if airlinesPath != "" {
		b, err := os.ReadFile(airlinesPath)
		if err != nil {
			return nil, fmt.Errorf("error reading airlines table: %w", err)
		}
		airlinesSrc = bytes.NewReader(b)
	}

	return fromReaders(airportsSrc, airlinesSrc)
}

func fromReaders(airportsSrc, airlinesSrc io.Reader) (*Registry, error) {
	airports, err := ReadAirports(airportsSrc)
	if err != nil {
		return nil, err
	}
	airlines, err := ReadAirlines(airlinesSrc)
	if err != nil {
		return nil, err
	}
	return New(airports, airlines)
}

// ReadAirports parses an airport table with "Code" and "Name" columns.
func ReadAirports(r io.Reader) ([]Airport, error) {
	rows, err := readTable(r, "Code", "Name")
	if err != nil {
		return nil, fmt.Errorf("error reading airports table: %w", err)
	}
	out := make([]Airport, 0, len(rows))
	for _, row := range rows {
		out = append(out, Airport{Code: row[0], Name: row[1]})
	}
	return out, nil
}

// ReadAirlines parses an airline table with "IATA" and "Airline" columns.
func ReadAirlines(r io.Reader) ([]Airline, error) {
	rows, err := readTable(r, "IATA", "Airline")
	if err != nil {
		return nil, fmt.Errorf("error reading airlines table: %w", err)
	}
	out := make([]Airline, 0, len(rows))
	for _, row := range rows {
		out = append(out, Airline{Code: row[0], Name: row[1]})
	}
	return out, nil
}

// readTable returns (code, name) pairs, upper-casing codes and trimming both
// columns. Rows with an empty code are skipped.
func readTable(r io.Reader, codeColumn, nameColumn string) ([][2]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("table is empty")
		}
		return nil, err
	}

	codeIdx, nameIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case codeColumn:
			codeIdx = i
		case nameColumn:
			nameIdx = i
		}
	}
	if codeIdx < 0 || nameIdx < 0 {
		return nil, fmt.Errorf("missing %q or %q column", codeColumn, nameColumn)
	}

	var rows [][2]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		code := strings.ToUpper(strings.TrimSpace(record[codeIdx]))
		if code == "" {
			continue
		}
		rows = append(rows, [2]string{code, strings.TrimSpace(record[nameIdx])})
	}
	return rows, nil
}
