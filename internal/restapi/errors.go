package restapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"fli.dev/internal/logging"
	"fli.dev/internal/models"
	"fli.dev/internal/transport"
)

type errorResponse struct {
	Code        int    `json:"code"`
	CurrentTime int64  `json:"currentTime"`
	Text        string `json:"text"`
	Version     int    `json:"version"`
}

func (api *RestAPI) writeError(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(errorResponse{
		Code:        status,
		CurrentTime: models.ResponseCurrentTime(),
		Text:        text,
		Version:     2,
	})
	if err != nil {
		api.Logger.Error("failed to encode error response", "error", err, "status", status)
	}
}

// invalidAPIKeyResponse sends a 401 Unauthorized response for a missing or unknown key
func (api *RestAPI) invalidAPIKeyResponse(w http.ResponseWriter, r *http.Request) {
	api.writeError(w, http.StatusUnauthorized, "permission denied")
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(logging.FromContext(r.Context()), "request_failed", err)
	api.writeError(w, http.StatusInternalServerError, "internal server error")
}

func (api *RestAPI) upstreamErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(logging.FromContext(r.Context()), "upstream_unavailable", err)
	api.writeError(w, http.StatusServiceUnavailable, "flight search service unavailable")
}

// validationErrorResponse sends a 400 Bad Request response with field-specific validation errors
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	response := struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}{
		FieldErrors: fieldErrors,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		api.Logger.Error("failed to encode validation error response", "error", err)
	}
}

// searchErrorResponse maps a search failure to a status code.
func (api *RestAPI) searchErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verrs models.ValidationErrors
		verr  *models.ValidationError
		tErr  *transport.TransportError
	)
	switch {
	case errors.As(err, &verrs):
		api.validationErrorResponse(w, r, verrs.FieldErrors())
	case errors.As(err, &verr):
		api.validationErrorResponse(w, r, models.ValidationErrors{verr}.FieldErrors())
	case errors.As(err, &tErr), errors.Is(err, context.DeadlineExceeded):
		api.upstreamErrorResponse(w, r, err)
	default:
		api.serverErrorResponse(w, r, err)
	}
}
