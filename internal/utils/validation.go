package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Compiled regular expressions for validation
var (
	airportCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

	// Carrier designators are two characters, letters or digits, or three letters.
	airlineCodePattern = regexp.MustCompile(`^([A-Z0-9]{2}|[A-Z]{3})$`)
)

// NormalizeCode upper-cases and trims a user supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateAirportCode checks the shape of an IATA airport code. Whether the
// airport exists is left to the registry.
func ValidateAirportCode(code string) error {
	if code == "" {
		return errors.New("airport code cannot be empty")
	}
	if !airportCodePattern.MatchString(NormalizeCode(code)) {
		return fmt.Errorf("invalid airport code %q, expected three letters", code)
	}
	return nil
}

// ValidateAirlineCode checks the shape of an IATA carrier code.
func ValidateAirlineCode(code string) error {
	if !airlineCodePattern.MatchString(NormalizeCode(code)) {
		return fmt.Errorf("invalid airline code %q", code)
	}
	return nil
}

// ParseHourRange parses an inclusive "start-end" hour range such as "6-20".
func ParseHourRange(s string) (start, end int, err error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time range %q, expected START-END", s)
	}
	start, err = parseHour(parts[0])
	if err != nil {
		return 0, 0, err
	}
	end, err = parseHour(parts[1])
	if err != nil {
		return 0, 0, err
	}
	if start > end {
		return 0, 0, fmt.Errorf("invalid time range %q, start is after end", s)
	}
	return start, end, nil
}

func parseHour(s string) (int, error) {
	h, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour %q, expected 0-23", s)
	}
	return h, nil
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekdays parses a comma separated day list such as "mon,fri".
// Duplicates are dropped; an empty string yields no days.
func ParseWeekdays(s string) ([]time.Weekday, error) {
	var days []time.Weekday
	seen := make(map[time.Weekday]bool)
	for _, name := range SplitList(s) {
		d, ok := weekdays[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("invalid day %q", name)
		}
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	return days, nil
}

// SplitList splits a comma separated list, trimming blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
