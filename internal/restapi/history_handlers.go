package restapi

import (
	"net/http"

	"fli.dev/faredb"
	"fli.dev/internal/models"
	"fli.dev/internal/utils"
)

// observationParams reads the route and the search options prices were
// recorded under. seat_type and stops default to ECONOMY and ANY, the
// defaults of a date search.
func (api *RestAPI) observationParams(r *http.Request) (faredb.Observation, map[string][]string) {
	query := r.URL.Query()
	var obs faredb.Observation
	var fieldErrors map[string][]string
	obs.Origin, fieldErrors = utils.ParseAirportParam(query, "origin", nil)
	obs.Destination, fieldErrors = utils.ParseAirportParam(query, "destination", fieldErrors)

	seat := models.Economy
	if v := query.Get("seat_type"); v != "" {
		parsed, err := models.ParseSeatType(v)
		if err != nil {
			fieldErrors["seat_type"] = append(fieldErrors["seat_type"], err.Error())
		}
		seat = parsed
	}
	stops := models.AnyStops
	if v := query.Get("stops"); v != "" {
		parsed, err := models.ParseMaxStops(v)
		if err != nil {
			fieldErrors["stops"] = append(fieldErrors["stops"], err.Error())
		}
		stops = parsed
	}
	obs.SeatType = seat.String()
	obs.Stops = stops.String()
	return obs, fieldErrors
}

// priceHistoryHandler lists every stored observation for one travel date.
func (api *RestAPI) priceHistoryHandler(w http.ResponseWriter, r *http.Request) {
	obs, fieldErrors := api.observationParams(r)
	date, fieldErrors := utils.ParseDateParam(r.URL.Query(), "date", fieldErrors)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	history, err := api.FareDB.PriceHistory(r.Context(), obs, date)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, models.NewListResponse(history))
}

// lowestObservedHandler returns the cheapest stored fare per date in a range.
func (api *RestAPI) lowestObservedHandler(w http.ResponseWriter, r *http.Request) {
	obs, fieldErrors := api.observationParams(r)
	query := r.URL.Query()
	from, fieldErrors := utils.ParseDateParam(query, "from", fieldErrors)
	to, fieldErrors := utils.ParseDateParam(query, "to", fieldErrors)
	if len(fieldErrors) == 0 && to.Before(from) {
		fieldErrors["to"] = append(fieldErrors["to"], "must not be before from")
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	prices, err := api.FareDB.LowestObserved(r.Context(), obs, from, to)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, models.NewListResponse(prices))
}

func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	api.sendResponse(w, r, models.NewOKResponse(map[string]any{
		"status":       "ok",
		"fare_history": api.FareDB != nil,
	}))
}
