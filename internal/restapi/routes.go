package restapi

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"fli.dev/internal/webui"
)

func validateAPIKey(api *RestAPI, finalHandler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.invalidAPIKeyResponse(w, r)
			return
		}
		finalHandler(w, r)
	}
}

func (api *RestAPI) routes() *httprouter.Router {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(api.sendNotFound)
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		api.serverErrorResponse(w, r, fmt.Errorf("panic: %v", v))
	}

	router.HandlerFunc(http.MethodGet, "/healthz", api.healthHandler)
	router.HandlerFunc(http.MethodPost, "/flights/search", validateAPIKey(api, api.flightSearchHandler))
	router.HandlerFunc(http.MethodPost, "/dates/search", validateAPIKey(api, api.dateSearchHandler))

	if api.FareDB != nil {
		router.HandlerFunc(http.MethodGet, "/dates/history", validateAPIKey(api, api.priceHistoryHandler))
		router.HandlerFunc(http.MethodGet, "/dates/lowest", validateAPIKey(api, api.lowestObservedHandler))
	}

	webUI := &webui.WebUI{Application: api.Application}
	webUI.SetWebUIRoutes(router)
	return router
}
