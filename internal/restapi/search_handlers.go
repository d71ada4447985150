package restapi

import (
	"log/slog"
	"net/http"
	"strings"

	"fli.dev/internal/logging"
	"fli.dev/internal/models"
	"fli.dev/internal/search"
	"fli.dev/internal/utils"
)

func (api *RestAPI) flightSearchHandler(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req flightSearchRequest
	if fieldErrors := decodeJSONBody(w, r, &req); fieldErrors != nil {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	filters, err := req.filters(api.Registry)
	if err != nil {
		logger.Warn("search_flights_validation_failed", slog.String("error", err.Error()))
		api.searchErrorResponse(w, r, err)
		return
	}

	results, err := api.Flights.Search(r.Context(), &filters)
	if err != nil {
		api.searchErrorResponse(w, r, err)
		return
	}
	if len(results) == 0 {
		api.sendNoResults(w, r, "No flights found matching the search criteria")
		return
	}

	api.sendResponse(w, r, models.NewListResponse(results))
}

func (api *RestAPI) dateSearchHandler(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req dateSearchRequest
	if fieldErrors := decodeJSONBody(w, r, &req); fieldErrors != nil {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	days, err := utils.ParseWeekdays(strings.Join(req.Weekdays, ","))
	if err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"weekdays": {err.Error()}})
		return
	}

	filters, err := req.filters(api.Registry)
	if err != nil {
		logger.Warn("search_dates_validation_failed", slog.String("error", err.Error()))
		api.searchErrorResponse(w, r, err)
		return
	}

	prices, err := api.Dates.Search(r.Context(), &filters)
	if err != nil {
		api.searchErrorResponse(w, r, err)
		return
	}

	prices = search.FilterDatesByWeekday(prices, days...)
	if req.SortByPrice {
		prices = search.SortDatesByPrice(prices)
	}
	if len(prices) == 0 {
		api.sendNoResults(w, r, "No dates found matching the search criteria")
		return
	}

	api.sendResponse(w, r, models.NewListResponse(prices))
}

