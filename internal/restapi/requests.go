package restapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"fli.dev/internal/models"
	"fli.dev/internal/registry"
	"fli.dev/internal/utils"
)

const maxBodyBytes = 1 << 20

type segmentRequest struct {
	DepartureAirport []string                 `json:"departure_airport"`
	ArrivalAirport   []string                 `json:"arrival_airport"`
	TravelDate       models.Date              `json:"travel_date"`
	TimeRestrictions *models.TimeRestrictions `json:"time_restrictions,omitempty"`
}

type layoverRequest struct {
	Airports    []string `json:"airports"`
	MaxDuration *int     `json:"max_duration"`
}

// criteriaRequest is the JSON form of models.Criteria with airports and
// airlines given as codes. Omitted trip and seat types default to one-way
// economy.
type criteriaRequest struct {
	TripType    *models.TripType     `json:"trip_type"`
	Passengers  models.PassengerInfo `json:"passenger_info"`
	Segments    []segmentRequest     `json:"flight_segments"`
	Stops       models.MaxStops      `json:"stops"`
	SeatType    *models.SeatType     `json:"seat_type"`
	PriceLimit  *models.PriceLimit   `json:"price_limit"`
	Airlines    []string             `json:"airlines"`
	MaxDuration *int                 `json:"max_duration"`
	Layover     *layoverRequest      `json:"layover_restrictions"`
}

type flightSearchRequest struct {
	criteriaRequest
	SortBy models.SortBy `json:"sort_by"`
}

type dateSearchRequest struct {
	criteriaRequest
	FromDate models.Date `json:"from_date"`
	ToDate   models.Date `json:"to_date"`
	// Weekdays and SortByPrice post-process the calendar.
	Weekdays    []string `json:"weekdays"`
	SortByPrice bool     `json:"sort_by_price"`
}

// decodeJSONBody reads a single JSON object, rejecting unknown fields.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) map[string][]string {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var verr *models.ValidationError
		switch {
		case errors.As(err, &verr):
			return models.ValidationErrors{verr}.FieldErrors()
		case errors.Is(err, io.EOF):
			return map[string][]string{"body": {"request body is empty"}}
		default:
			return map[string][]string{"body": {fmt.Sprintf("invalid JSON: %v", err)}}
		}
	}
	return nil
}

type resolver struct {
	reg  *registry.Registry
	errs models.ValidationErrors
}

func (res *resolver) fail(field string, err error) {
	res.errs = append(res.errs, &models.ValidationError{Field: field, Message: err.Error()})
}

func (res *resolver) airport(field, code string) (registry.Airport, bool) {
	code = utils.NormalizeCode(code)
	if err := utils.ValidateAirportCode(code); err != nil {
		res.fail(field, err)
		return registry.Airport{}, false
	}
	a, err := res.reg.Airport(code)
	if err != nil {
		res.fail(field, err)
		return registry.Airport{}, false
	}
	return a, true
}

func (res *resolver) slots(field string, codes []string) []models.AirportSlot {
	var out []models.AirportSlot
	for i, code := range codes {
		if a, ok := res.airport(fmt.Sprintf("%s[%d]", field, i), code); ok {
			out = append(out, models.AirportSlot{Airport: a, Index: i})
		}
	}
	return out
}

// criteria resolves codes against the registry. Shape validation of the
// result is left to the filters' own Validate.
func (req *criteriaRequest) criteria(reg *registry.Registry) (models.Criteria, error) {
	res := &resolver{reg: reg}
	c := models.Criteria{
		TripType:    models.OneWay,
		Passengers:  req.Passengers,
		Stops:       req.Stops,
		SeatType:    models.Economy,
		PriceLimit:  req.PriceLimit,
		MaxDuration: req.MaxDuration,
	}
	if req.TripType != nil {
		c.TripType = *req.TripType
	}
	if req.SeatType != nil {
		c.SeatType = *req.SeatType
	}

	for i, seg := range req.Segments {
		prefix := fmt.Sprintf("flight_segments[%d]", i)
		c.Segments = append(c.Segments, models.FlightSegment{
			DepartureAirports: res.slots(prefix+".departure_airport", seg.DepartureAirport),
			ArrivalAirports:   res.slots(prefix+".arrival_airport", seg.ArrivalAirport),
			TravelDate:        seg.TravelDate,
			TimeRestrictions:  seg.TimeRestrictions,
		})
	}

	for i, code := range req.Airlines {
		field := fmt.Sprintf("airlines[%d]", i)
		a, err := reg.Airline(utils.NormalizeCode(code))
		if err != nil {
			res.fail(field, err)
			continue
		}
		c.Airlines = append(c.Airlines, a)
	}

	if req.Layover != nil {
		c.Layover = &models.LayoverRestrictions{MaxDuration: req.Layover.MaxDuration}
		for i, code := range req.Layover.Airports {
			if a, ok := res.airport(fmt.Sprintf("layover_restrictions.airports[%d]", i), code); ok {
				c.Layover.Airports = append(c.Layover.Airports, a)
			}
		}
	}

	if len(res.errs) > 0 {
		return c, res.errs
	}
	return c, nil
}

func (req *flightSearchRequest) filters(reg *registry.Registry) (models.SearchFilters, error) {
	c, err := req.criteria(reg)
	return models.SearchFilters{Criteria: c, SortBy: req.SortBy}, err
}

func (req *dateSearchRequest) filters(reg *registry.Registry) (models.DateRangeFilters, error) {
	c, err := req.criteria(reg)
	return models.DateRangeFilters{Criteria: c, FromDate: req.FromDate, ToDate: req.ToDate}, err
}
