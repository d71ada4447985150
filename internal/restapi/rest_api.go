package restapi

import (
	"net/http"
	"time"

	"fli.dev/internal/app"
	"fli.dev/internal/logging"
	"fli.dev/internal/utils"
)

type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
}

// NewRestAPI creates a new RestAPI instance with initialized rate limiter
func NewRestAPI(app *app.Application) *RestAPI {
	var opts []RateLimitOption
	if app.APIKeysRequired() {
		opts = append(opts, WithKeyValidator(func(key string) bool { return !app.IsInvalidAPIKey(key) }))
	}
	proxies, err := utils.ParseTrustedProxies(app.Config.TrustedProxies)
	if err != nil {
		logging.LogError(app.Logger, "trusted_proxies_ignored", err)
	} else {
		opts = append(opts, WithTrustedProxies(proxies))
	}
	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.APIRateLimit, time.Second, opts...),
	}
}

// Handler returns the router wrapped in the middleware stack, outermost
// first: request ID, request logging, security headers, CORS, rate limit,
// compression.
func (api *RestAPI) Handler() http.Handler {
	var h http.Handler = api.routes()
	h = CompressionMiddleware(h)
	h = api.rateLimiter.Handler(h)
	h = NewCORSMiddleware()(h)
	h = securityHeaders(h)
	h = NewRequestLoggingMiddleware(api.Logger)(h)
	h = RequestIDMiddleware(h)
	return h
}

// Close stops background work owned by the API.
func (api *RestAPI) Close() {
	api.rateLimiter.Stop()
}
