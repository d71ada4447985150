// Package registry resolves the short airport and carrier codes used by the
// flight shopping service to domain values. A Registry is built once at start
// up and is read-only afterwards, so it is safe for concurrent use without
// locking.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Airport is an airport known to the registry.
type Airport struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (a Airport) String() string {
	return a.Code
}

// Airline is an operating carrier known to the registry.
type Airline struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (a Airline) String() string {
	return a.Code
}

// UnknownCodeError reports a code that has no registry entry.
type UnknownCodeError struct {
	Kind string
	Code string
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("unknown %s code %q", e.Kind, e.Code)
}

// Registry is an immutable bidirectional table of airport and airline codes.
type Registry struct {
	airports map[string]Airport
	airlines map[string]Airline
}

// Key normalizes a code into a registry key: upper-cased, with every
// character that is not a letter or digit replaced by an underscore.
func Key(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, code)
}

// CarrierKey returns the registry key for a carrier code. Carrier keys never
// start with a digit; codes such as "3U" are stored as "_3U".
func CarrierKey(code string) string {
	key := Key(code)
	if key != "" && unicode.IsDigit(rune(key[0])) {
		return "_" + key
	}
	return key
}

// New builds a registry from airport and airline rows. Duplicate keys are
// rejected.
func New(airports []Airport, airlines []Airline) (*Registry, error) {
	r := &Registry{
		airports: make(map[string]Airport, len(airports)),
		airlines: make(map[string]Airline, len(airlines)),
	}

	for _, a := range airports {
		a.Code = strings.ToUpper(strings.TrimSpace(a.Code))
		key := Key(a.Code)
		if key == "" {
			return nil, fmt.Errorf("airport with empty code (name %q)", a.Name)
		}
		if _, exists := r.airports[key]; exists {
			return nil, fmt.Errorf("duplicate airport code %q", a.Code)
		}
		r.airports[key] = a
	}

	for _, a := range airlines {
		a.Code = strings.ToUpper(strings.TrimSpace(a.Code))
		key := CarrierKey(a.Code)
		if key == "" {
			return nil, fmt.Errorf("airline with empty code (name %q)", a.Name)
		}
		if _, exists := r.airlines[key]; exists {
			return nil, fmt.Errorf("duplicate airline code %q", a.Code)
		}
		r.airlines[key] = a
	}

	return r, nil
}

// Airport resolves an airport code.
func (r *Registry) Airport(code string) (Airport, error) {
	if a, ok := r.airports[Key(code)]; ok {
		return a, nil
	}
	return Airport{}, &UnknownCodeError{Kind: "airport", Code: code}
}

// Airline resolves a carrier code, applying the digit marker itself.
func (r *Registry) Airline(code string) (Airline, error) {
	return r.AirlineByKey(CarrierKey(code))
}

// AirlineByKey resolves an already-built carrier key (see CarrierKey).
func (r *Registry) AirlineByKey(key string) (Airline, error) {
	if a, ok := r.airlines[key]; ok {
		return a, nil
	}
	return Airline{}, &UnknownCodeError{Kind: "airline", Code: strings.TrimPrefix(key, "_")}
}

// Airports returns every airport sorted by code.
func (r *Registry) Airports() []Airport {
	out := make([]Airport, 0, len(r.airports))
	for _, a := range r.airports {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Airlines returns every airline sorted by code.
func (r *Registry) Airlines() []Airline {
	out := make([]Airline, 0, len(r.airlines))
	for _, a := range r.airlines {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
