package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks and normalizes f against today's date. Time restrictions
// with an inverted pair are swapped in place.
func (f *SearchFilters) Validate(today Date) error {
	var errs ValidationErrors
	f.Criteria.validate(today, &errs)
	if !f.SortBy.Valid() {
		errs.add("sort_by", fmt.Sprintf("unknown sort order %d", f.SortBy))
	}
	return errs.orNil()
}

// Validate checks and normalizes f against today's date. An inverted range is
// swapped, and a FromDate in the past is advanced to today once every segment
// has been checked against the requested range.
func (f *DateRangeFilters) Validate(today Date) error {
	var errs ValidationErrors
	f.Criteria.validate(today, &errs)

	switch {
	case f.FromDate.IsZero():
		errs.add("from_date", "is required")
	case f.ToDate.IsZero():
		errs.add("to_date", "is required")
	default:
		if f.FromDate.After(f.ToDate) {
			f.FromDate, f.ToDate = f.ToDate, f.FromDate
		}
		if !f.ToDate.After(today) {
			errs.add("to_date", "must be in the future")
		}
		for i, seg := range f.Segments {
			if seg.TravelDate.Before(f.FromDate) || seg.TravelDate.After(f.ToDate) {
				errs.add(fmt.Sprintf("flight_segments[%d].travel_date", i),
					fmt.Sprintf("%s is outside the search range %s to %s", seg.TravelDate, f.FromDate, f.ToDate))
			}
		}
		if f.FromDate.Before(today) {
			f.FromDate = today
		}
	}
	return errs.orNil()
}

func (c *Criteria) validate(today Date, errs *ValidationErrors) {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			errs.add("", err.Error())
			return
		}
		for _, fe := range fieldErrs {
			errs.add(fieldName(fe), fieldMessage(fe))
		}
	}

	if c.TripType != OneWay {
		errs.add("trip_type", fmt.Sprintf("%s trips are not supported", c.TripType))
	}
	if !c.SeatType.Valid() {
		errs.add("seat_type", fmt.Sprintf("unknown seat type %d", c.SeatType))
	}
	if !c.Stops.Valid() {
		errs.add("stops", fmt.Sprintf("unknown max stops %d", c.Stops))
	}

	for i := range c.Segments {
		seg := &c.Segments[i]
		prefix := fmt.Sprintf("flight_segments[%d]", i)
		seg.TimeRestrictions.Normalize()

		if seg.TravelDate.IsZero() {
			errs.add(prefix+".travel_date", "is required")
		} else if seg.TravelDate.Before(today) {
			errs.add(prefix+".travel_date", "cannot be in the past")
		}
		if len(seg.DepartureAirports) > 0 && len(seg.ArrivalAirports) > 0 &&
			seg.DepartureAirports[0].Airport.Code == seg.ArrivalAirports[0].Airport.Code {
			errs.add(prefix, "departure and arrival airports must be different")
		}
	}
}

// fieldName drops the root struct name from the validator namespace.
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "min":
		return "must contain at least " + fe.Param() + " item(s)"
	default:
		return "failed the " + fe.Tag() + " check"
	}
}
