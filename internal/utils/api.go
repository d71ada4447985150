package utils

import (
	"fmt"
	"net/url"

	"fli.dev/internal/models"
)

// ParseDateParam retrieves a YYYY-MM-DD date from the provided URL query parameters.
// A missing or invalid value returns the zero date and records a field error.
func ParseDateParam(params url.Values, key string, fieldErrors map[string][]string) (models.Date, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	val := params.Get(key)
	if val == "" {
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Missing field %q.", key))
		return models.Date{}, fieldErrors
	}

	d, err := models.ParseDate(val)
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Invalid field value for field %q.", key))
	}
	return d, fieldErrors
}

// ParseAirportParam retrieves an airport code from the provided URL query parameters.
func ParseAirportParam(params url.Values, key string, fieldErrors map[string][]string) (string, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	code := NormalizeCode(params.Get(key))
	if err := ValidateAirportCode(code); err != nil {
		fieldErrors[key] = append(fieldErrors[key], err.Error())
	}
	return code, fieldErrors
}
